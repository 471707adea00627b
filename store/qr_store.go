package store

import (
	"context"
	"encoding/json"

	"trimurl/model"

	"github.com/go-redis/redis/v8"
)

// QRStore persists stored QR-code records per user.
type QRStore struct {
	redis *redis.Client
}

func NewQRStore(rdb *redis.Client) *QRStore {
	return &QRStore{redis: rdb}
}

func qrKey(id string) string { return qrKeyPrefix + id }
func ownerQRKey(userID string) string {
	return userQRCodePrefix + userID
}

// Create stores a QR record and indexes it under its owner.
func (s *QRStore) Create(ctx context.Context, qr *model.QRCode) error {
	data, err := json.Marshal(qr)
	if err != nil {
		return err
	}

	pipe := s.redis.TxPipeline()
	pipe.Set(ctx, qrKey(qr.ID), data, 0)
	pipe.SAdd(ctx, ownerQRKey(qr.UserID), qr.ID)
	_, err = pipe.Exec(ctx)
	return err
}

// ListByOwner returns all QR records stored by the user.
func (s *QRStore) ListByOwner(ctx context.Context, userID string) ([]model.QRCode, error) {
	ids, err := s.redis.SMembers(ctx, ownerQRKey(userID)).Result()
	if err != nil {
		return nil, err
	}

	codes := make([]model.QRCode, 0, len(ids))
	for _, id := range ids {
		data, err := s.redis.Get(ctx, qrKey(id)).Bytes()
		if err == redis.Nil {
			continue
		} else if err != nil {
			return nil, err
		}

		var qr model.QRCode
		if err := json.Unmarshal(data, &qr); err != nil {
			return nil, err
		}
		codes = append(codes, qr)
	}
	return codes, nil
}

// Delete removes a QR record. Returns ErrNotFound when the record does
// not exist or belongs to another user.
func (s *QRStore) Delete(ctx context.Context, userID, id string) error {
	data, err := s.redis.Get(ctx, qrKey(id)).Bytes()
	if err == redis.Nil {
		return ErrNotFound
	} else if err != nil {
		return err
	}

	var qr model.QRCode
	if err := json.Unmarshal(data, &qr); err != nil {
		return err
	}
	if qr.UserID != userID {
		return ErrNotFound
	}

	pipe := s.redis.TxPipeline()
	pipe.Del(ctx, qrKey(id))
	pipe.SRem(ctx, ownerQRKey(userID), id)
	_, err = pipe.Exec(ctx)
	return err
}
