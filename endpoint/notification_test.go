package endpoint

import (
	"net/http"
	"testing"

	"github.com/ariebrainware/ayursutra-api/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendNotification(t *testing.T) {
	api := setupAPI(t)

	w := performRequest(api.router, requestSpec{
		method:      http.MethodPost,
		requestPath: "/api/notifications",
		body: map[string]interface{}{
			"patientId": "patient-x",
			"channel":   "IN_APP",
			"type":      "REMINDER",
			"content":   "Your session is tomorrow",
		},
	})
	assertStatus(t, w, http.StatusCreated)
	var inApp model.Notification
	decodeBody(t, w, &inApp)
	assert.Equal(t, model.StatusSent, inApp.Status)
	assert.NotNil(t, inApp.SentAt)

	w = performRequest(api.router, requestSpec{
		method:      http.MethodPost,
		requestPath: "/api/notifications",
		body: map[string]interface{}{
			"patientId": "patient-y",
			"channel":   "SMS",
			"type":      "PRE",
			"content":   "Fast for six hours",
		},
	})
	assertStatus(t, w, http.StatusCreated)
	var sms model.Notification
	decodeBody(t, w, &sms)
	assert.Equal(t, model.StatusPending, sms.Status)
	assert.Nil(t, sms.SentAt)

	w = performRequest(api.router, requestSpec{method: http.MethodGet, requestPath: "/api/notifications"})
	assertStatus(t, w, http.StatusOK)
	var all []model.Notification
	decodeBody(t, w, &all)
	assert.Len(t, all, 2)

	w = performRequest(api.router, requestSpec{method: http.MethodGet, requestPath: "/api/notifications?patientId=patient-x"})
	var forPatient []model.Notification
	decodeBody(t, w, &forPatient)
	require.Len(t, forPatient, 1)
	assert.Equal(t, inApp.ID, forPatient[0].ID)
}

func TestSendNotification_Validation(t *testing.T) {
	api := setupAPI(t)

	bad := []map[string]interface{}{
		{"channel": "IN_APP", "type": "PRE", "content": "x"},
		{"patientId": "p", "channel": "FAX", "type": "PRE", "content": "x"},
		{"patientId": "p", "channel": "EMAIL", "type": "PROMO", "content": "x"},
		{"patientId": "p", "channel": "EMAIL", "type": "PRE"},
		{"patientId": "p", "channel": "EMAIL", "type": "PRE", "content": "   "},
	}
	for _, body := range bad {
		w := performRequest(api.router, requestSpec{method: http.MethodPost, requestPath: "/api/notifications", body: body})
		assertErrorResponse(t, w, http.StatusBadRequest, "")
	}
}
