package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	apperrors "github.com/sbilibin2017/gw-users/internal/errors"
	"github.com/sbilibin2017/gw-users/internal/logger"
	"github.com/sbilibin2017/gw-users/internal/models"
	"github.com/segmentio/kafka-go"
)

//go:generate mockgen -source=user.go -destination=mock_user.go -package=services

// userIDLayout renders a timestamp as DDMMYYYYHHMMSS.
const userIDLayout = "02012006150405"

// publishTimeout bounds how long a request waits on Kafka.
const publishTimeout = 2 * time.Second

// UserReader defines read-only operations for users.
type UserReader interface {
	List(ctx context.Context) ([]models.UserDB, error)              // Returns every user
	GetByID(ctx context.Context, id string) (*models.UserDB, error) // Returns nil when absent
}

// UserWriter defines write operations for users.
type UserWriter interface {
	Save(ctx context.Context, id, name string) error               // Inserts a new user
	UpdateName(ctx context.Context, id, name string) (bool, error) // Reports whether a row matched
	Delete(ctx context.Context, id string) (bool, error)           // Reports whether a row matched
}

// UserCache caches single users by id.
type UserCache interface {
	Get(ctx context.Context, id string) (*models.UserDB, error) // Returns nil on a miss
	Set(ctx context.Context, user models.UserDB) error
	Delete(ctx context.Context, id string) error
}

// KafkaWriter defines a Kafka writer abstraction.
type KafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error // Writes messages to Kafka
	Close() error                                                   // Closes the Kafka writer
}

// UserService implements the user CRUD operations on top of storage,
// an optional cache and an optional event stream.
type UserService struct {
	reader      UserReader
	writer      UserWriter
	cache       UserCache
	kafkaWriter KafkaWriter
	now         func() time.Time
}

// NewUserService creates a new UserService. cache and kafkaWriter may be nil.
func NewUserService(
	reader UserReader,
	writer UserWriter,
	cache UserCache,
	kafkaWriter KafkaWriter,
) *UserService {
	return &UserService{
		reader:      reader,
		writer:      writer,
		cache:       cache,
		kafkaWriter: kafkaWriter,
		now:         time.Now,
	}
}

// GenerateUserID builds the id of a new user from its name and creation time.
// Two users with the same name created within the same second get the same id.
func GenerateUserID(name string, at time.Time) string {
	return name + at.Format(userIDLayout)
}

// List returns all users.
func (s *UserService) List(ctx context.Context) ([]models.UserDB, error) {
	users, err := s.reader.List(ctx)
	if err != nil {
		logger.Log.Errorw("failed to list users", "error", err)
		return nil, err
	}
	return users, nil
}

// Get returns the user with the given id or apperrors.ErrUserNotFound.
func (s *UserService) Get(ctx context.Context, id string) (*models.UserDB, error) {
	if s.cache != nil {
		cached, err := s.cache.Get(ctx, id)
		if err != nil {
			logger.Log.Warnw("failed to read user from cache", "id", id, "error", err)
		}
		if cached != nil {
			return cached, nil
		}
	}

	user, err := s.reader.GetByID(ctx, id)
	if err != nil {
		logger.Log.Errorw("failed to get user", "id", id, "error", err)
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("get user %q: %w", id, apperrors.ErrUserNotFound)
	}

	s.cacheUser(ctx, *user)

	return user, nil
}

// Create stores a new user whose id is derived from name and the current time.
func (s *UserService) Create(ctx context.Context, name string) (*models.UserDB, error) {
	user := models.UserDB{
		ID:   GenerateUserID(name, s.now()),
		Name: name,
	}

	if err := s.writer.Save(ctx, user.ID, user.Name); err != nil {
		logger.Log.Errorw("failed to save user", "id", user.ID, "error", err)
		return nil, err
	}

	s.publishUserEvent(ctx, models.UserCreated, user)

	return &user, nil
}

// Update renames the user with the given id and evicts its cache entry.
// It returns apperrors.ErrUserNotFound when no row matched; nothing is created in that case.
func (s *UserService) Update(ctx context.Context, id, name string) (*models.UserDB, error) {
	updated, err := s.writer.UpdateName(ctx, id, name)
	if err != nil {
		logger.Log.Errorw("failed to update user", "id", id, "error", err)
		return nil, err
	}
	if !updated {
		return nil, fmt.Errorf("update user %q: %w", id, apperrors.ErrUserNotFound)
	}

	user := models.UserDB{ID: id, Name: name}
	s.evictUser(ctx, id)
	s.publishUserEvent(ctx, models.UserUpdated, user)

	return &user, nil
}

// Delete removes the user with the given id or returns apperrors.ErrUserNotFound.
func (s *UserService) Delete(ctx context.Context, id string) error {
	deleted, err := s.writer.Delete(ctx, id)
	if err != nil {
		logger.Log.Errorw("failed to delete user", "id", id, "error", err)
		return err
	}

	s.evictUser(ctx, id)

	if !deleted {
		return fmt.Errorf("delete user %q: %w", id, apperrors.ErrUserNotFound)
	}

	s.publishUserEvent(ctx, models.UserDeleted, models.UserDB{ID: id})

	return nil
}

func (s *UserService) cacheUser(ctx context.Context, user models.UserDB) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, user); err != nil {
		logger.Log.Warnw("failed to cache user", "id", user.ID, "error", err)
	}
}

// evictUser drops the cached copy so the next Get reads the committed row.
func (s *UserService) evictUser(ctx context.Context, id string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, id); err != nil {
		logger.Log.Warnw("failed to evict user from cache", "id", id, "error", err)
	}
}

// publishUserEvent publishes a change to Kafka. Failures are logged and swallowed.
func (s *UserService) publishUserEvent(ctx context.Context, operation string, user models.UserDB) {
	if s.kafkaWriter == nil {
		logger.Log.Debugw("Kafka writer not configured, skipping publishing", "operation", operation, "user_id", user.ID)
		return
	}

	event := models.UserEvent{
		EventID:   uuid.NewString(),
		Timestamp: s.now().Unix(),
		Operation: operation,
		UserID:    user.ID,
		Name:      user.Name,
	}

	data, err := json.Marshal(event)
	if err != nil {
		logger.Log.Errorw("failed to marshal user event", "event_id", event.EventID, "error", err)
		return
	}

	msg := kafka.Message{
		Key:   []byte(user.ID),
		Value: data,
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	if err := s.kafkaWriter.WriteMessages(ctx, msg); err != nil {
		logger.Log.Errorw("failed to publish user event", "event_id", event.EventID, "operation", operation, "error", err)
		return
	}
	logger.Log.Infow("user event published", "event_id", event.EventID, "operation", operation, "user_id", user.ID)
}
