package settings

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"

	"studio/internal/domain"
	"studio/internal/storage"
)

// RedisKeyPrefix namespaces settings keys in a shared Redis.
const RedisKeyPrefix = "studio:settings:"

// FileBackend stores each setting as <key>.json under a FileStore.
type FileBackend struct {
	files *storage.FileStore
}

func NewFileBackend(files *storage.FileStore) *FileBackend {
	return &FileBackend{files: files}
}

func (b *FileBackend) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := b.files.Read(ctx, key+".json")
	if errors.Is(err, storage.ErrNotExist) {
		return nil, domain.ErrNotFound
	}
	return data, err
}

func (b *FileBackend) Set(ctx context.Context, key string, value []byte) error {
	_, err := b.files.Write(ctx, key+".json", value)
	return err
}

func (b *FileBackend) Delete(ctx context.Context, key string) error {
	return b.files.Delete(ctx, key+".json")
}

// RedisBackend stores settings as plain Redis strings.
type RedisBackend struct {
	client redis.UniversalClient
}

func NewRedisBackend(client redis.UniversalClient) *RedisBackend {
	return &RedisBackend{client: client}
}

func (b *RedisBackend) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := b.client.Get(ctx, RedisKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}
	return data, nil
}

func (b *RedisBackend) Set(ctx context.Context, key string, value []byte) error {
	if err := b.client.Set(ctx, RedisKeyPrefix+key, value, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (b *RedisBackend) Delete(ctx context.Context, key string) error {
	if err := b.client.Del(ctx, RedisKeyPrefix+key).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	return nil
}

// MemoryBackend keeps settings in process memory.
type MemoryBackend struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{data: make(map[string][]byte)}
}

func (b *MemoryBackend) Get(_ context.Context, key string) ([]byte, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	v, ok := b.data[key]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (b *MemoryBackend) Set(_ context.Context, key string, value []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.data[key] = append([]byte(nil), value...)
	return nil
}

func (b *MemoryBackend) Delete(_ context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.data, key)
	return nil
}

var (
	_ domain.SettingsStore = (*FileBackend)(nil)
	_ domain.SettingsStore = (*RedisBackend)(nil)
	_ domain.SettingsStore = (*MemoryBackend)(nil)
)
