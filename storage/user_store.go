package storage

import (
	"context"
	"schoolfees_go/models"
	"sync"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

var ErrUserNotFound = errors.New("user not found or inactive")

// GormUserStore looks up the active accounts used for login and token checks.
type GormUserStore struct {
	db *gorm.DB
}

func NewGormUserStore(db *gorm.DB) *GormUserStore {
	return &GormUserStore{db: db}
}

func (s *GormUserStore) FindActiveByID(ctx context.Context, id uint) (*models.User, error) {
	return s.first(ctx, "id = ? AND status = ?", id, "active")
}

func (s *GormUserStore) FindActiveByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.first(ctx, "username = ? AND status = ?", username, "active")
}

func (s *GormUserStore) first(ctx context.Context, query string, args ...interface{}) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Preload("School").Where(query, args...).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "load user")
	}
	return &user, nil
}

// MemoryUserStore is the in-process user store used by tests.
type MemoryUserStore struct {
	mu    sync.RWMutex
	users map[uint]models.User
}

func NewMemoryUserStore(users ...models.User) *MemoryUserStore {
	s := &MemoryUserStore{users: make(map[uint]models.User)}
	for _, u := range users {
		s.users[u.ID] = u
	}
	return s
}

func (s *MemoryUserStore) FindActiveByID(_ context.Context, id uint) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok || u.Status != "active" {
		return nil, ErrUserNotFound
	}
	return &u, nil
}

func (s *MemoryUserStore) FindActiveByUsername(_ context.Context, username string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.Username == username && u.Status == "active" {
			found := u
			return &found, nil
		}
	}
	return nil, ErrUserNotFound
}
