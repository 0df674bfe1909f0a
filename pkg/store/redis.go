package store

import (
	"bytes"
	"context"
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	backend "github.com/redis/go-redis/v9"

	fmio "github.com/matzehuels/featuremap/pkg/io"
	"github.com/matzehuels/featuremap/pkg/scene"
)

// DefaultRedisPrefix namespaces the store's keys.
const DefaultRedisPrefix = "featuremap:"

// RedisStore keeps boards as JSON strings at <prefix>board:<name>. A sorted
// set at <prefix>index lists the board names scored by their last save time.
// Board names cannot contain ':', so no board key meets the index.
type RedisStore struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

var _ Store = (*RedisStore)(nil)

// RedisOption configures a RedisStore.
type RedisOption func(*RedisStore)

// WithTTL expires boards that have not been saved for ttl. Zero, the
// default, keeps them forever.
func WithTTL(ttl time.Duration) RedisOption {
	return func(s *RedisStore) { s.ttl = ttl }
}

// WithPrefix replaces DefaultRedisPrefix.
func WithPrefix(prefix string) RedisOption {
	return func(s *RedisStore) { s.prefix = prefix }
}

// NewRedisStore connects to addr. The connection is checked with PING so a
// misconfigured address fails here rather than on first use.
func NewRedisStore(ctx context.Context, addr, password string, db int, opts ...RedisOption) (*RedisStore, error) {
	client := backend.NewClient(&backend.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	err := RetryWithBackoff(ctx, func() error {
		return classify(client.Ping(ctx).Err())
	})
	if err != nil {
		client.Close()
		return nil, wrapf(err, "connect to redis at %s", addr)
	}
	return NewRedisStoreFromClient(client, opts...), nil
}

// NewRedisStoreFromClient wraps an existing client. Close closes it.
func NewRedisStoreFromClient(client *backend.Client, opts ...RedisOption) *RedisStore {
	s := &RedisStore{client: client, prefix: DefaultRedisPrefix}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RedisStore) key(name string) string { return s.prefix + "board:" + name }
func (s *RedisStore) indexKey() string       { return s.prefix + "index" }

func (s *RedisStore) Load(ctx context.Context, name string) (*scene.World, error) {
	if err := checkName(name); err != nil {
		return nil, err
	}
	var data []byte
	err := RetryWithBackoff(ctx, func() error {
		var err error
		data, err = s.client.Get(ctx, s.key(name)).Bytes()
		return classify(err)
	})
	if errors.Is(err, backend.Nil) {
		return nil, notFound(name)
	}
	if err != nil {
		return nil, wrapf(err, "load board %q", name)
	}
	w, err := fmio.ReadState(bytes.NewReader(data))
	if err != nil {
		return nil, corrupt(name, err)
	}
	return w, nil
}

func (s *RedisStore) Save(ctx context.Context, name string, w *scene.World) error {
	if err := checkName(name); err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := fmio.WriteState(w, &buf); err != nil {
		return wrapf(err, "encode board %q", name)
	}

	err := RetryWithBackoff(ctx, func() error {
		pipe := s.client.TxPipeline()
		pipe.Set(ctx, s.key(name), buf.Bytes(), s.ttl)
		pipe.ZAdd(ctx, s.indexKey(), backend.Z{
			Score:  float64(time.Now().Unix()),
			Member: name,
		})
		_, err := pipe.Exec(ctx)
		return classify(err)
	})
	if err != nil {
		return wrapf(err, "save board %q", name)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, name string) error {
	if err := checkName(name); err != nil {
		return err
	}
	pipe := s.client.TxPipeline()
	del := pipe.Del(ctx, s.key(name))
	pipe.ZRem(ctx, s.indexKey(), name)
	if _, err := pipe.Exec(ctx); err != nil {
		return wrapf(err, "delete board %q", name)
	}
	if del.Val() == 0 {
		return notFound(name)
	}
	return nil
}

// List returns the indexed boards. Entries whose board key has expired are
// removed from the index on the way.
func (s *RedisStore) List(ctx context.Context) ([]BoardInfo, error) {
	entries, err := s.client.ZRangeWithScores(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, wrapf(err, "list boards")
	}
	if len(entries) == 0 {
		return nil, nil
	}

	pipe := s.client.Pipeline()
	exists := make([]*backend.IntCmd, len(entries))
	for i, z := range entries {
		exists[i] = pipe.Exists(ctx, s.key(z.Member.(string)))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, wrapf(err, "list boards")
	}

	var boards []BoardInfo
	var stale []any
	for i, z := range entries {
		name := z.Member.(string)
		if exists[i].Val() == 0 {
			stale = append(stale, name)
			continue
		}
		boards = append(boards, BoardInfo{Name: name, UpdatedAt: time.Unix(int64(z.Score), 0)})
	}
	if len(stale) > 0 {
		// Pruning is best-effort; the next List retries it.
		if err := s.client.ZRem(ctx, s.indexKey(), stale...).Err(); err != nil {
			log.FromContext(ctx).Debug("prune board index", "stale", len(stale), "err", err)
		}
	}
	slices.SortFunc(boards, func(a, b BoardInfo) int { return strings.Compare(a.Name, b.Name) })
	return boards, nil
}

func (s *RedisStore) Close() error { return s.client.Close() }
