package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/ariebrainware/ayursutra-api/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormSessionRepository stores sessions through gorm.
type GormSessionRepository struct {
	db   *gorm.DB
	inTx bool
}

func NewGormSessionRepository(db *gorm.DB) *GormSessionRepository {
	return &GormSessionRepository{db: db}
}

func (r *GormSessionRepository) Overlapping(ctx context.Context, q OverlapQuery) ([]model.Session, error) {
	query := r.db.WithContext(ctx).
		Where("start_time <= ? AND end_time >= ?", q.End.UTC(), q.Start.UTC())
	if q.PractitionerID != "" {
		query = query.Where("practitioner_id = ?", q.PractitionerID)
	}
	if q.PatientID != "" {
		query = query.Where("patient_id = ?", q.PatientID)
	}
	// SQLite has no row locks; the transaction already holds the database write lock there.
	if r.inTx && r.db.Dialector.Name() == "mysql" {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var sessions []model.Session
	if err := query.Order("start_time ASC").Find(&sessions).Error; err != nil {
		return nil, fmt.Errorf("query overlapping sessions: %w", err)
	}
	return sessions, nil
}

func (r *GormSessionRepository) Create(ctx context.Context, s *model.Session) error {
	if err := r.db.WithContext(ctx).Create(s).Error; err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

func (r *GormSessionRepository) Get(ctx context.Context, id string) (*model.Session, error) {
	var session model.Session
	err := r.db.WithContext(ctx).First(&session, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("session %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	return &session, nil
}

func (r *GormSessionRepository) List(ctx context.Context, f SessionFilter) ([]model.Session, error) {
	query := r.db.WithContext(ctx).Order("start_time ASC")
	if f.PatientID != "" {
		query = query.Where("patient_id = ?", f.PatientID)
	}
	if f.PractitionerID != "" {
		query = query.Where("practitioner_id = ?", f.PractitionerID)
	}

	sessions := []model.Session{}
	if err := query.Find(&sessions).Error; err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return sessions, nil
}

func (r *GormSessionRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Delete(&model.Session{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("delete session: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("session %s: %w", id, ErrNotFound)
	}
	return nil
}

func (r *GormSessionRepository) CountByTherapy(ctx context.Context, therapyID string) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&model.Session{}).Where("therapy_id = ?", therapyID).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count sessions for therapy: %w", err)
	}
	return count, nil
}

func (r *GormSessionRepository) LockTherapy(ctx context.Context, id string) (*model.Therapy, error) {
	query := r.db.WithContext(ctx)
	if r.inTx && r.db.Dialector.Name() == "mysql" {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var therapy model.Therapy
	err := query.First(&therapy, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("therapy %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("lock therapy: %w", err)
	}
	return &therapy, nil
}

func (r *GormSessionRepository) SaveTherapy(ctx context.Context, t *model.Therapy) error {
	if err := r.db.WithContext(ctx).Save(t).Error; err != nil {
		return fmt.Errorf("save therapy: %w", err)
	}
	return nil
}

func (r *GormSessionRepository) DeleteTherapy(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Delete(&model.Therapy{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("delete therapy: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("therapy %s: %w", id, ErrNotFound)
	}
	return nil
}

func (r *GormSessionRepository) Atomically(ctx context.Context, fn func(repo SessionRepository) error) error {
	if r.inTx {
		return fn(r)
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormSessionRepository{db: tx, inTx: true})
	})
}

// GormTherapyRepository reads therapies through gorm.
type GormTherapyRepository struct {
	db *gorm.DB
}

func NewGormTherapyRepository(db *gorm.DB) *GormTherapyRepository {
	return &GormTherapyRepository{db: db}
}

func (r *GormTherapyRepository) Get(ctx context.Context, id string) (*model.Therapy, error) {
	var therapy model.Therapy
	err := r.db.WithContext(ctx).First(&therapy, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("therapy %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get therapy: %w", err)
	}
	return &therapy, nil
}

// GormNotificationRepository stores notifications through gorm.
type GormNotificationRepository struct {
	db *gorm.DB
}

func NewGormNotificationRepository(db *gorm.DB) *GormNotificationRepository {
	return &GormNotificationRepository{db: db}
}

func (r *GormNotificationRepository) Create(ctx context.Context, n *model.Notification) error {
	if err := r.db.WithContext(ctx).Create(n).Error; err != nil {
		return fmt.Errorf("create notification: %w", err)
	}
	return nil
}

func (r *GormNotificationRepository) CreateMany(ctx context.Context, ns []model.Notification) error {
	if len(ns) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).Create(&ns).Error; err != nil {
		return fmt.Errorf("create notifications: %w", err)
	}
	return nil
}

func (r *GormNotificationRepository) List(ctx context.Context, f NotificationFilter) ([]model.Notification, error) {
	query := r.db.WithContext(ctx).Order("created_at DESC")
	if f.PatientID != "" {
		query = query.Where("patient_id = ?", f.PatientID)
	}
	if f.SessionID != "" {
		query = query.Where("session_id = ?", f.SessionID)
	}

	notifications := []model.Notification{}
	if err := query.Find(&notifications).Error; err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return notifications, nil
}
