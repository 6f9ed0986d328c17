package geocache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/valkey-io/valkey-go"

	"github.com/yanqian/astro-clock/internal/domain/reading"
)

// ValkeyStore shares geocoding results across instances through a
// Valkey-compatible database.
type ValkeyStore struct {
	client valkey.Client
	prefix string
}

// NewValkeyStore constructs a new store backed by Valkey.
func NewValkeyStore(client valkey.Client, prefix string) *ValkeyStore {
	if prefix == "" {
		prefix = "astroclock"
	}
	return &ValkeyStore{client: client, prefix: prefix}
}

type storedCoordinates struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lng"`
}

// Lookup implements reading.GeoCache.
func (s *ValkeyStore) Lookup(ctx context.Context, key string) (reading.GeoCoordinates, bool, error) {
	cmd := s.client.B().Get().Key(s.entryKey(key)).Build()
	payload, err := s.client.Do(ctx, cmd).ToString()
	if err != nil {
		if valkey.IsValkeyNil(err) {
			return reading.GeoCoordinates{}, false, nil
		}
		return reading.GeoCoordinates{}, false, err
	}
	var stored storedCoordinates
	if err := json.Unmarshal([]byte(payload), &stored); err != nil {
		return reading.GeoCoordinates{}, false, err
	}
	return reading.GeoCoordinates{Latitude: stored.Latitude, Longitude: stored.Longitude, Resolved: true}, true, nil
}

// Store implements reading.GeoCache. Unresolved values are ignored.
func (s *ValkeyStore) Store(ctx context.Context, key string, coords reading.GeoCoordinates, ttl time.Duration) error {
	if !coords.Resolved {
		return nil
	}
	payload, err := json.Marshal(storedCoordinates{Latitude: coords.Latitude, Longitude: coords.Longitude})
	if err != nil {
		return err
	}
	builder := s.client.B().Set().Key(s.entryKey(key)).Value(string(payload))
	var cmd valkey.Completed
	if ttl > 0 {
		if ttl < time.Second {
			ttl = time.Second
		}
		cmd = builder.Ex(ttl).Build()
	} else {
		cmd = builder.Build()
	}
	return s.client.Do(ctx, cmd).Error()
}

// Ping checks connectivity.
func (s *ValkeyStore) Ping(ctx context.Context) error {
	return s.client.Do(ctx, s.client.B().Ping().Build()).Error()
}

func (s *ValkeyStore) entryKey(key string) string {
	return s.prefix + ":" + key
}

var _ reading.GeoCache = (*ValkeyStore)(nil)
