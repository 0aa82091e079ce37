package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/ariebrainware/ayursutra-api/model"
	"github.com/google/uuid"
)

// MemoryStore keeps sessions, therapies and notifications in process memory.
// One mutex guards everything; an atomic scope holds it until fn returns.
type MemoryStore struct {
	mu            sync.Mutex
	sessions      map[string]model.Session
	therapies     map[string]model.Therapy
	notifications []model.Notification
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions:  make(map[string]model.Session),
		therapies: make(map[string]model.Therapy),
	}
}

// PutTherapy inserts or replaces a therapy.
func (m *MemoryStore) PutTherapy(t model.Therapy) model.Therapy {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	m.therapies[t.ID] = t
	return t
}

func (m *MemoryStore) Sessions() SessionRepository { return &memorySessions{store: m} }

func (m *MemoryStore) Therapies() TherapyRepository { return memoryTherapies{store: m} }

func (m *MemoryStore) Notifications() NotificationRepository { return memoryNotifications{store: m} }

type memoryTherapies struct{ store *MemoryStore }

func (r memoryTherapies) Get(_ context.Context, id string) (*model.Therapy, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	t, ok := r.store.therapies[id]
	if !ok {
		return nil, fmt.Errorf("therapy %s: %w", id, ErrNotFound)
	}
	return &t, nil
}

type memoryNotifications struct{ store *MemoryStore }

func (r memoryNotifications) Create(ctx context.Context, n *model.Notification) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.appendNotification(n)
	return nil
}

func (r memoryNotifications) CreateMany(_ context.Context, ns []model.Notification) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for i := range ns {
		r.store.appendNotification(&ns[i])
	}
	return nil
}

func (m *MemoryStore) appendNotification(n *model.Notification) {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	n.CreatedAt, n.UpdatedAt = now, now
	m.notifications = append(m.notifications, *n)
}

func (r memoryNotifications) List(_ context.Context, f NotificationFilter) ([]model.Notification, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	out := []model.Notification{}
	// Newest first, matching the gorm ordering.
	for i := len(r.store.notifications) - 1; i >= 0; i-- {
		n := r.store.notifications[i]
		if f.PatientID != "" && n.PatientID != f.PatientID {
			continue
		}
		if f.SessionID != "" && (n.SessionID == nil || *n.SessionID != f.SessionID) {
			continue
		}
		out = append(out, n)
	}
	return out, nil
}

// memorySessions is the session repository view. When tx is set the store
// mutex is already held and every write is recorded for rollback.
type memorySessions struct {
	store *MemoryStore
	tx    *memoryTx
}

type memoryTx struct {
	created []string
	deleted []model.Session
	// therapies holds the pre-scope state of every therapy written; nil marks
	// one that did not exist.
	therapies map[string]*model.Therapy
}

func (tx *memoryTx) rememberTherapy(store *MemoryStore, id string) {
	if tx == nil {
		return
	}
	if tx.therapies == nil {
		tx.therapies = make(map[string]*model.Therapy)
	}
	if _, seen := tx.therapies[id]; seen {
		return
	}
	if t, ok := store.therapies[id]; ok {
		tx.therapies[id] = &t
		return
	}
	tx.therapies[id] = nil
}

func (r *memorySessions) locked(fn func()) {
	if r.tx != nil {
		fn()
		return
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	fn()
}

func (r *memorySessions) Overlapping(_ context.Context, q OverlapQuery) ([]model.Session, error) {
	var out []model.Session
	r.locked(func() {
		for _, s := range r.store.sessions {
			if q.PractitionerID != "" && s.PractitionerID != q.PractitionerID {
				continue
			}
			if q.PatientID != "" && s.PatientID != q.PatientID {
				continue
			}
			if s.Overlaps(q.Start, q.End) {
				out = append(out, s)
			}
		}
	})
	sortByStart(out)
	return out, nil
}

func (r *memorySessions) Create(_ context.Context, s *model.Session) error {
	var err error
	r.locked(func() {
		if s.ID == "" {
			s.ID = uuid.NewString()
		}
		if _, exists := r.store.sessions[s.ID]; exists {
			err = fmt.Errorf("create session: duplicate id %s", s.ID)
			return
		}
		s.CreatedAt = time.Now().UTC()
		r.store.sessions[s.ID] = *s
		if r.tx != nil {
			r.tx.created = append(r.tx.created, s.ID)
		}
	})
	return err
}

func (r *memorySessions) Get(_ context.Context, id string) (*model.Session, error) {
	var (
		s  model.Session
		ok bool
	)
	r.locked(func() { s, ok = r.store.sessions[id] })
	if !ok {
		return nil, fmt.Errorf("session %s: %w", id, ErrNotFound)
	}
	return &s, nil
}

func (r *memorySessions) List(_ context.Context, f SessionFilter) ([]model.Session, error) {
	out := []model.Session{}
	r.locked(func() {
		for _, s := range r.store.sessions {
			if f.PatientID != "" && s.PatientID != f.PatientID {
				continue
			}
			if f.PractitionerID != "" && s.PractitionerID != f.PractitionerID {
				continue
			}
			out = append(out, s)
		}
	})
	sortByStart(out)
	return out, nil
}

func (r *memorySessions) Delete(_ context.Context, id string) error {
	var ok bool
	r.locked(func() {
		var s model.Session
		s, ok = r.store.sessions[id]
		if !ok {
			return
		}
		delete(r.store.sessions, id)
		if r.tx != nil {
			r.tx.deleted = append(r.tx.deleted, s)
		}
	})
	if !ok {
		return fmt.Errorf("session %s: %w", id, ErrNotFound)
	}
	return nil
}

func (r *memorySessions) CountByTherapy(_ context.Context, therapyID string) (int64, error) {
	var n int64
	r.locked(func() {
		for _, s := range r.store.sessions {
			if s.TherapyID == therapyID {
				n++
			}
		}
	})
	return n, nil
}

func (r *memorySessions) LockTherapy(_ context.Context, id string) (*model.Therapy, error) {
	var (
		t  model.Therapy
		ok bool
	)
	r.locked(func() { t, ok = r.store.therapies[id] })
	if !ok {
		return nil, fmt.Errorf("therapy %s: %w", id, ErrNotFound)
	}
	return &t, nil
}

func (r *memorySessions) SaveTherapy(_ context.Context, t *model.Therapy) error {
	r.locked(func() {
		if t.ID == "" {
			t.ID = uuid.NewString()
		}
		r.tx.rememberTherapy(r.store, t.ID)
		r.store.therapies[t.ID] = *t
	})
	return nil
}

func (r *memorySessions) DeleteTherapy(_ context.Context, id string) error {
	var ok bool
	r.locked(func() {
		if _, ok = r.store.therapies[id]; !ok {
			return
		}
		r.tx.rememberTherapy(r.store, id)
		delete(r.store.therapies, id)
	})
	if !ok {
		return fmt.Errorf("therapy %s: %w", id, ErrNotFound)
	}
	return nil
}

func (r *memorySessions) Atomically(ctx context.Context, fn func(repo SessionRepository) error) error {
	if r.tx != nil {
		return fn(r)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	view := &memorySessions{store: r.store, tx: &memoryTx{}}
	if err := fn(view); err != nil {
		for _, id := range view.tx.created {
			delete(r.store.sessions, id)
		}
		for _, s := range view.tx.deleted {
			r.store.sessions[s.ID] = s
		}
		for id, t := range view.tx.therapies {
			if t == nil {
				delete(r.store.therapies, id)
				continue
			}
			r.store.therapies[id] = *t
		}
		return err
	}
	return nil
}

func sortByStart(sessions []model.Session) {
	sort.SliceStable(sessions, func(i, j int) bool {
		if sessions[i].StartTime.Equal(sessions[j].StartTime) {
			return sessions[i].ID < sessions[j].ID
		}
		return sessions[i].StartTime.Before(sessions[j].StartTime)
	})
}
