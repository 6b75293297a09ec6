package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"fintech_index/internal/common"
	"fintech_index/internal/domain/model"
	"fintech_index/internal/platform/config"

	"github.com/redis/go-redis/v9"
)

const SnapshotVersion = "1.0"

// Snapshot is a versioned copy of the country dataset kept alongside the
// primary store, tagged with who last touched it and when.
type Snapshot struct {
	Version     string              `json:"version"`
	Data        []model.CountryData `json:"data"`
	LastUpdated int64               `json:"lastUpdated"` // unix milliseconds
	UpdatedBy   string              `json:"updatedBy,omitempty"`
}

// SnapshotStore is the persistence adapter for snapshots. Callers never
// touch the backing store directly.
type SnapshotStore interface {
	Get(ctx context.Context) (*Snapshot, error)
	Set(ctx context.Context, snap *Snapshot) error
	Clear(ctx context.Context) error
}

type redisSnapshotStore struct {
	rdb *redis.Client
}

func NewRedisSnapshotStore(rdb *redis.Client) SnapshotStore {
	return &redisSnapshotStore{rdb: rdb}
}

func (s *redisSnapshotStore) Get(ctx context.Context) (*Snapshot, error) {
	raw, err := s.rdb.Get(ctx, config.AppConfig.SnapshotKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("redisSnapshotStore.Get: %w", err)
	}
	snap := &Snapshot{}
	if err := json.Unmarshal(raw, snap); err != nil {
		return nil, fmt.Errorf("redisSnapshotStore.Get unmarshal: %w", err)
	}
	return snap, nil
}

func (s *redisSnapshotStore) Set(ctx context.Context, snap *Snapshot) error {
	raw, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("redisSnapshotStore.Set marshal: %w", err)
	}
	ttl := time.Duration(config.AppConfig.SnapshotTTLDays) * 24 * time.Hour
	if err := s.rdb.Set(ctx, config.AppConfig.SnapshotKey, raw, ttl).Err(); err != nil {
		return fmt.Errorf("redisSnapshotStore.Set: %w", err)
	}
	return nil
}

func (s *redisSnapshotStore) Clear(ctx context.Context) error {
	if err := s.rdb.Del(ctx, config.AppConfig.SnapshotKey).Err(); err != nil {
		return fmt.Errorf("redisSnapshotStore.Clear: %w", err)
	}
	return nil
}

// SnapshotStale reports whether a snapshot must be discarded: wrong version,
// empty, or older than the cutoff (30 days by default).
func SnapshotStale(snap *Snapshot, now time.Time, ttlDays int) bool {
	if snap == nil || snap.Version != SnapshotVersion || len(snap.Data) == 0 {
		return true
	}
	cutoff := now.Add(-time.Duration(ttlDays) * 24 * time.Hour).UnixMilli()
	return snap.LastUpdated <= cutoff
}

type SnapshotService struct {
	store   SnapshotStore
	ttlDays int
}

func NewSnapshotService(store SnapshotStore, ttlDays int) *SnapshotService {
	return &SnapshotService{store: store, ttlDays: ttlDays}
}

// Load returns the current snapshot, treating stale or version-mismatched
// entries as absent.
func (s *SnapshotService) Load(ctx context.Context) (*Snapshot, error) {
	snap, err := s.store.Get(ctx)
	if err != nil {
		return nil, err
	}
	if SnapshotStale(snap, time.Now(), s.ttlDays) {
		return nil, common.ErrNotFound
	}
	return snap, nil
}

func (s *SnapshotService) Save(ctx context.Context, data []model.CountryData, updatedBy string) error {
	return s.store.Set(ctx, &Snapshot{
		Version:     SnapshotVersion,
		Data:        data,
		LastUpdated: time.Now().UnixMilli(),
		UpdatedBy:   updatedBy,
	})
}

func (s *SnapshotService) Clear(ctx context.Context) error {
	return s.store.Clear(ctx)
}
