package services

import (
	"context"
	"sync"

	"github.com/sbilibin2017/gw-users/internal/models"
)

// memoryUserStore is a map-backed UserReader and UserWriter.
type memoryUserStore struct {
	mu    sync.Mutex
	users map[string]string
}

func (m *memoryUserStore) name(id string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.users[id]
}

func (m *memoryUserStore) List(_ context.Context) ([]models.UserDB, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	users := make([]models.UserDB, 0, len(m.users))
	for id, name := range m.users {
		users = append(users, models.UserDB{ID: id, Name: name})
	}
	return users, nil
}

func (m *memoryUserStore) GetByID(_ context.Context, id string) (*models.UserDB, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	name, ok := m.users[id]
	if !ok {
		return nil, nil
	}
	return &models.UserDB{ID: id, Name: name}, nil
}

func (m *memoryUserStore) Save(_ context.Context, id, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[id] = name
	return nil
}

func (m *memoryUserStore) UpdateName(_ context.Context, id, name string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[id]; !ok {
		return false, nil
	}
	m.users[id] = name
	return true, nil
}

func (m *memoryUserStore) Delete(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.users[id]
	delete(m.users, id)
	return ok, nil
}

// memoryUserCache is a map-backed UserCache.
type memoryUserCache struct {
	mu    sync.Mutex
	users map[string]models.UserDB
}

func newMemoryUserCache() *memoryUserCache {
	return &memoryUserCache{users: make(map[string]models.UserDB)}
}

func (c *memoryUserCache) Get(_ context.Context, id string) (*models.UserDB, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	user, ok := c.users[id]
	if !ok {
		return nil, nil
	}
	return &user, nil
}

func (c *memoryUserCache) Set(_ context.Context, user models.UserDB) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.users[user.ID] = user
	return nil
}

func (c *memoryUserCache) Delete(_ context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.users, id)
	return nil
}
