package store

import (
	"context"
	"encoding/json"
	"errors"

	"trimurl/model"

	"github.com/go-redis/redis/v8"
)

var ErrEmailExists = errors.New("email already registered")

const (
	userKeyPrefix    = "user:"
	userEmailPrefix  = "user:email:"
	userQRCodePrefix = "user:qrcodes:"
	qrKeyPrefix      = "qr:"
)

// UserStore persists user records with an email lookup index. Custom
// domains and API tokens live on the user record itself.
type UserStore struct {
	redis *redis.Client
}

func NewUserStore(rdb *redis.Client) *UserStore {
	return &UserStore{redis: rdb}
}

func userKey(id string) string { return userKeyPrefix + id }
func userEmailKey(email string) string {
	return userEmailPrefix + email
}

// Create stores a new user, enforcing email uniqueness via the index.
func (s *UserStore) Create(ctx context.Context, user *model.User) error {
	ok, err := s.redis.SetNX(ctx, userEmailKey(user.Email), user.ID, 0).Result()
	if err != nil {
		return err
	}
	if !ok {
		return ErrEmailExists
	}
	return s.Save(ctx, user)
}

// Save overwrites the user record.
func (s *UserStore) Save(ctx context.Context, user *model.User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return err
	}
	return s.redis.Set(ctx, userKey(user.ID), data, 0).Err()
}

// FindByID returns a user by id.
func (s *UserStore) FindByID(ctx context.Context, id string) (*model.User, error) {
	data, err := s.redis.Get(ctx, userKey(id)).Bytes()
	if err == redis.Nil {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, err
	}

	var user model.User
	if err := json.Unmarshal(data, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByEmail resolves the email index and returns the user.
func (s *UserStore) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	id, err := s.redis.Get(ctx, userEmailKey(email)).Result()
	if err == redis.Nil {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, err
	}
	return s.FindByID(ctx, id)
}
