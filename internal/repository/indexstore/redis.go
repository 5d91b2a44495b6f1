package indexstore

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/docdex/internal/domain"
)

// RedisConfig holds connection parameters for the Redis backend.
type RedisConfig struct {
	Addrs     []string
	Password  string
	KeyPrefix string
}

// Redis stores index snapshots as JSON values under prefixed keys.
type Redis struct {
	client rueidis.Client
	prefix string
}

// snapshotDTO is the wire form of a snapshot. Vectors ride as base64-encoded
// little-endian float32 blobs to keep payloads compact.
type snapshotDTO struct {
	Name    string     `json:"name"`
	Entries []entryDTO `json:"entries"`
}

type entryDTO struct {
	DocumentID string `json:"document_id"`
	Content    string `json:"content"`
	Vector     []byte `json:"vector"`
}

// NewRedis creates a Redis-backed snapshot store via rueidis.
func NewRedis(cfg RedisConfig) (*Redis, error) {
	if len(cfg.Addrs) == 0 {
		return nil, fmt.Errorf("addrs is required")
	}

	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress:  cfg.Addrs,
		Password:     cfg.Password,
		DisableCache: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	return &Redis{client: client, prefix: cfg.KeyPrefix}, nil
}

// Ping checks connectivity.
func (r *Redis) Ping(ctx context.Context) error {
	cmd := r.client.B().Ping().Build()
	if err := r.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// WaitForReady polls Ping until the store responds or timeout expires.
func (r *Redis) WaitForReady(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("timeout waiting for store: %w", ctx.Err())
		case <-ticker.C:
			if err := r.Ping(ctx); err == nil {
				return nil
			}
		}
	}
}

// Close shuts down the client.
func (r *Redis) Close() {
	r.client.Close()
}

func (r *Redis) key(name string) string {
	return r.prefix + "index:" + name
}

// Save stores the snapshot as a single JSON value, replacing any prior state.
func (r *Redis) Save(ctx context.Context, snap domain.IndexSnapshot) error {
	dto := snapshotDTO{Name: snap.Name, Entries: make([]entryDTO, len(snap.Entries))}
	for i, entry := range snap.Entries {
		dto.Entries[i] = entryDTO{
			DocumentID: entry.DocumentID,
			Content:    entry.Content,
			Vector:     serializeVector(entry.Vector),
		}
	}

	payload, err := json.Marshal(dto)
	if err != nil {
		return fmt.Errorf("encode snapshot of index %q: %w", snap.Name, err)
	}

	cmd := r.client.B().Set().Key(r.key(snap.Name)).Value(string(payload)).Build()
	if err := r.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("save index %q: %w", snap.Name, err)
	}
	return nil
}

// Load retrieves a stored snapshot by name.
func (r *Redis) Load(ctx context.Context, name string) (domain.IndexSnapshot, error) {
	cmd := r.client.B().Get().Key(r.key(name)).Build()
	data, err := r.client.Do(ctx, cmd).AsBytes()
	if err != nil {
		if rueidis.IsRedisNil(err) {
			return domain.IndexSnapshot{}, fmt.Errorf("index %q: %w", name, domain.ErrIndexNotFound)
		}
		return domain.IndexSnapshot{}, fmt.Errorf("load index %q: %w", name, err)
	}

	var dto snapshotDTO
	if err := json.Unmarshal(data, &dto); err != nil {
		return domain.IndexSnapshot{}, fmt.Errorf("decode snapshot of index %q: %w", name, err)
	}

	snap := domain.IndexSnapshot{Name: name, Entries: make([]domain.IndexEntry, len(dto.Entries))}
	for i, entry := range dto.Entries {
		snap.Entries[i] = domain.IndexEntry{
			DocumentID: entry.DocumentID,
			Content:    entry.Content,
			Vector:     deserializeVector(entry.Vector),
		}
	}
	return snap, nil
}

// List scans the keyspace for stored index names.
func (r *Redis) List(ctx context.Context) ([]string, error) {
	pattern := r.prefix + "index:*"
	trim := r.prefix + "index:"

	var names []string
	var cursor uint64
	for {
		cmd := r.client.B().Scan().Cursor(cursor).Match(pattern).Count(100).Build()
		entry, err := r.client.Do(ctx, cmd).AsScanEntry()
		if err != nil {
			return nil, fmt.Errorf("scan indexes: %w", err)
		}
		for _, key := range entry.Elements {
			names = append(names, strings.TrimPrefix(key, trim))
		}
		cursor = entry.Cursor
		if cursor == 0 {
			break
		}
	}
	return names, nil
}
