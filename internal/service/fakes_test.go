package service

import (
	"context"
	"errors"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"personal-calendar/internal/domain"
	"personal-calendar/internal/repository"
	"personal-calendar/internal/storage"
)

type memUsers struct {
	mu     sync.Mutex
	nextID int64
	byID   map[int64]domain.User
	err    error
}

func newMemUsers() *memUsers {
	return &memUsers{byID: map[int64]domain.User{}}
}

func (m *memUsers) Create(_ context.Context, u *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	for _, existing := range m.byID {
		if existing.Email == u.Email {
			return repository.ErrDuplicateEmail
		}
		if u.Phone != nil && existing.Phone != nil && *existing.Phone == *u.Phone {
			return repository.ErrDuplicatePhone
		}
	}
	m.nextID++
	u.ID = m.nextID
	m.byID[u.ID] = *u
	return nil
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byID {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memUsers) GetByID(_ context.Context, id int64) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (m *memUsers) EmailExists(ctx context.Context, email string) (bool, error) {
	_, err := m.GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (m *memUsers) PhoneExists(_ context.Context, phone string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byID {
		if u.Phone != nil && *u.Phone == phone {
			return true, nil
		}
	}
	return false, nil
}

type memEvents struct {
	mu      sync.Mutex
	nextID  int64
	byID    map[int64]domain.Event
	updates []domain.EventChanges
	listErr error
}

func newMemEvents() *memEvents {
	return &memEvents{byID: map[int64]domain.Event{}}
}

func (m *memEvents) Create(_ context.Context, e *domain.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	e.ID = m.nextID
	m.byID[e.ID] = *e
	return nil
}

func (m *memEvents) GetForOwner(_ context.Context, id, ownerID int64) (*domain.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.byID[id]
	if !ok || e.UserID != ownerID {
		return nil, repository.ErrNotFound
	}
	return &e, nil
}

func (m *memEvents) ListByOwner(_ context.Context, ownerID int64) ([]domain.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	out := []domain.Event{}
	for _, e := range m.byID {
		if e.UserID == ownerID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Start.Equal(out[j].Start) {
			return out[i].ID < out[j].ID
		}
		return out[i].Start.Before(out[j].Start)
	})
	return out, nil
}

func (m *memEvents) Update(_ context.Context, id, ownerID int64, changes domain.EventChanges) (*domain.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updates = append(m.updates, changes)
	e, ok := m.byID[id]
	if !ok || e.UserID != ownerID {
		return nil, repository.ErrNotFound
	}
	e = changes.Apply(e)
	m.byID[id] = e
	return &e, nil
}

func (m *memEvents) Delete(_ context.Context, id, ownerID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.byID[id]
	if !ok || e.UserID != ownerID {
		return repository.ErrNotFound
	}
	delete(m.byID, id)
	return nil
}

type memObject struct {
	contentType string
	body        string
}

type memStore struct {
	mu      sync.Mutex
	objects map[string]memObject
}

func newMemStore() *memStore {
	return &memStore{objects: map[string]memObject{}}
}

func (m *memStore) Upload(_ context.Context, obj storage.Object) (string, error) {
	b, err := io.ReadAll(obj.Body)
	if err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[obj.Bucket+"/"+obj.Key] = memObject{contentType: obj.ContentType, body: string(b)}
	return "s3://" + obj.Bucket + "/" + obj.Key, nil
}

func (m *memStore) PresignGet(_ context.Context, bucket, key string, ttl time.Duration) (string, error) {
	return "https://signed.example/" + bucket + "/" + key + "?ttl=" + ttl.String(), nil
}

func (m *memStore) ListObjects(_ context.Context, bucket, prefix string) ([]storage.ObjectInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []storage.ObjectInfo
	for k, obj := range m.objects {
		if key, ok := strings.CutPrefix(k, bucket+"/"); ok && strings.HasPrefix(key, prefix) {
			out = append(out, storage.ObjectInfo{Key: key, Size: int64(len(obj.body))})
		}
	}
	return out, nil
}

func (m *memStore) DeletePrefix(_ context.Context, bucket, prefix string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for k := range m.objects {
		if key, ok := strings.CutPrefix(k, bucket+"/"); ok && strings.HasPrefix(key, prefix) {
			delete(m.objects, k)
			n++
		}
	}
	return n, nil
}
