package repo

import (
	"context"
	"sync"
	"time"
)

type memoryUser struct {
	id       int
	login    string
	email    string
	password string
}

// MemoryRepository keeps everything in process memory. It backs DB-less
// deployments and tests.
type MemoryRepository struct {
	mu       sync.RWMutex
	users    []memoryUser
	drawings []Drawing
	now      func() time.Time
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{now: time.Now}
}

func (m *MemoryRepository) CreateUser(_ context.Context, login, email, password string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.login == login || u.email == email {
			return 0, ErrUserExists
		}
	}
	id := len(m.users) + 1
	m.users = append(m.users, memoryUser{id: id, login: login, email: email, password: password})
	return id, nil
}

func (m *MemoryRepository) GetByLogin(_ context.Context, login string) (int, string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if u.login == login {
			return u.id, u.password, nil
		}
	}
	return 0, "", nil
}

func (m *MemoryRepository) RecordDrawing(_ context.Context, d Drawing) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d.ID = int64(len(m.drawings) + 1)
	if d.CreatedAt.IsZero() {
		d.CreatedAt = m.now()
	}
	params := make(map[string]float64, len(d.Params))
	for k, v := range d.Params {
		params[k] = v
	}
	d.Params = params
	m.drawings = append(m.drawings, d)
	return nil
}

// ListDrawings returns the newest entries of userID first.
func (m *MemoryRepository) ListDrawings(_ context.Context, userID, limit int) ([]Drawing, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Drawing
	for i := len(m.drawings) - 1; i >= 0 && len(out) < limit; i-- {
		if m.drawings[i].UserID == userID {
			out = append(out, m.drawings[i])
		}
	}
	return out, nil
}
