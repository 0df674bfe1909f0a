package store

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/charmbracelet/log"
	backend "github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/matzehuels/featuremap/pkg/config"
	ferrors "github.com/matzehuels/featuremap/pkg/errors"
	"github.com/matzehuels/featuremap/pkg/observability"
	"github.com/matzehuels/featuremap/pkg/scene"
)

func sampleWorld() *scene.World {
	w := scene.New()
	g, _ := w.AddGroup("Billing", scene.Point{X: 10, Y: 20})
	f, _ := w.AddFeature(g.ID, "Invoices", scene.Point{X: 40, Y: 20})
	_, _ = w.AddEdge(g.ID, f.ID)
	_ = w.SetNote(f.ID, "monthly")
	return w
}

func newRedisStore(t *testing.T, opts ...RedisOption) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	s := NewRedisStoreFromClient(client, opts...)
	t.Cleanup(func() { s.Close() })
	return s, mr
}

// backends returns every store that can run without external services.
func backends(t *testing.T) map[string]Store {
	t.Helper()
	fs, err := NewFileStore(filepath.Join(t.TempDir(), "boards"))
	if err != nil {
		t.Fatal(err)
	}
	rs, _ := newRedisStore(t)
	return map[string]Store{"file": fs, "redis": rs}
}

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			w := sampleWorld()
			if err := s.Save(ctx, "roadmap", w); err != nil {
				t.Fatalf("Save: %v", err)
			}
			got, err := s.Load(ctx, "roadmap")
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if !reflect.DeepEqual(got, w) {
				t.Errorf("Load returned a different world:\ngot  %+v\nwant %+v", got, w)
			}

			w.Nodes[0].Name = "Payments"
			if err := s.Save(ctx, "roadmap", w); err != nil {
				t.Fatalf("overwrite: %v", err)
			}
			got, _ = s.Load(ctx, "roadmap")
			if got.Nodes[0].Name != "Payments" {
				t.Error("Save should replace the previous board")
			}
		})
	}
}

func TestStoreListAndDelete(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			for _, b := range []string{"zeta", "alpha", "mid"} {
				if err := s.Save(ctx, b, sampleWorld()); err != nil {
					t.Fatal(err)
				}
			}
			boards, err := s.List(ctx)
			if err != nil {
				t.Fatalf("List: %v", err)
			}
			var names []string
			for _, b := range boards {
				names = append(names, b.Name)
				if b.UpdatedAt.IsZero() {
					t.Errorf("%s has no update time", b.Name)
				}
			}
			if !reflect.DeepEqual(names, []string{"alpha", "mid", "zeta"}) {
				t.Errorf("List = %v", names)
			}

			if err := s.Delete(ctx, "mid"); err != nil {
				t.Fatalf("Delete: %v", err)
			}
			if err := s.Delete(ctx, "mid"); !errors.Is(err, ErrNotFound) {
				t.Errorf("second Delete = %v, want ErrNotFound", err)
			}
			if boards, _ := s.List(ctx); len(boards) != 2 {
				t.Errorf("List after delete = %v", boards)
			}
		})
	}
}

func TestStoreErrors(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			_, err := s.Load(ctx, "missing")
			if !errors.Is(err, ErrNotFound) || !ferrors.Is(err, ferrors.ErrCodeBoardNotFound) {
				t.Errorf("Load(missing) = %v", err)
			}
			for _, bad := range []string{"", "../etc", "a/b", ".hidden"} {
				if err := s.Save(ctx, bad, sampleWorld()); !ferrors.Is(err, ferrors.ErrCodeInvalidName) {
					t.Errorf("Save(%q) = %v, want INVALID_NAME", bad, err)
				}
			}
		})
	}
}

func TestFileStoreRejectsCorruptBoard(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(s.Path("broken"), []byte(`{"nodes":[{"id":"f","type":"feature","groupId":"gone","r":5}]}`), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Load(context.Background(), "broken"); !ferrors.Is(err, ferrors.ErrCodeInvalidState) {
		t.Errorf("Load = %v, want INVALID_STATE", err)
	}
}

func TestFileStoreListSkipsForeignFiles(t *testing.T) {
	s, _ := NewFileStore(t.TempDir())
	_ = s.Save(context.Background(), "real", sampleWorld())
	_ = os.WriteFile(filepath.Join(s.Dir(), "notes.txt"), nil, 0o600)
	_ = os.WriteFile(filepath.Join(s.Dir(), ".real-123"), nil, 0o600)
	_ = os.Mkdir(filepath.Join(s.Dir(), "sub.json"), 0o700)

	boards, err := s.List(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(boards) != 1 || boards[0].Name != "real" {
		t.Errorf("List = %v", boards)
	}
}

func TestRedisStoreTTL(t *testing.T) {
	ctx := context.Background()
	s, mr := newRedisStore(t, WithTTL(time.Minute), WithPrefix("test:"))

	if err := s.Save(ctx, "short", sampleWorld()); err != nil {
		t.Fatal(err)
	}
	if !mr.Exists("test:board:short") {
		t.Fatal("board key should use the configured prefix")
	}
	mr.FastForward(2 * time.Minute)

	if _, err := s.Load(ctx, "short"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expired Load = %v, want ErrNotFound", err)
	}
	boards, err := s.List(ctx)
	if err != nil || len(boards) != 0 {
		t.Errorf("List = %v, %v", boards, err)
	}
	if members, _ := mr.ZMembers("test:index"); len(members) != 0 {
		t.Errorf("stale index entries kept: %v", members)
	}
}

// failZRem makes every ZREM fail.
type failZRem struct{}

func (failZRem) DialHook(next backend.DialHook) backend.DialHook { return next }

func (failZRem) ProcessHook(next backend.ProcessHook) backend.ProcessHook {
	return func(ctx context.Context, cmd backend.Cmder) error {
		if cmd.Name() == "zrem" {
			return errors.New("zrem refused")
		}
		return next(ctx, cmd)
	}
}

func (failZRem) ProcessPipelineHook(next backend.ProcessPipelineHook) backend.ProcessPipelineHook {
	return next
}

func TestRedisStorePruneFailureIsLogged(t *testing.T) {
	mr := miniredis.RunT(t)
	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	client.AddHook(failZRem{})
	s := NewRedisStoreFromClient(client, WithTTL(time.Minute))
	t.Cleanup(func() { s.Close() })

	var buf bytes.Buffer
	logger := log.New(&buf)
	logger.SetLevel(log.DebugLevel)
	ctx := log.WithContext(context.Background(), logger)

	if err := s.Save(ctx, "short", sampleWorld()); err != nil {
		t.Fatal(err)
	}
	mr.FastForward(2 * time.Minute)

	boards, err := s.List(ctx)
	if err != nil || len(boards) != 0 {
		t.Fatalf("List = %v, %v", boards, err)
	}
	if !strings.Contains(buf.String(), "prune board index") || !strings.Contains(buf.String(), "zrem refused") {
		t.Errorf("log = %q", buf.String())
	}
	if members, _ := mr.ZMembers(DefaultRedisPrefix + "index"); len(members) != 1 {
		t.Errorf("index = %v, want the stale entry kept for the next List", members)
	}
}

func TestBoardNamedIndex(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			for _, board := range []string{"alpha", "index"} {
				if err := s.Save(ctx, board, sampleWorld()); err != nil {
					t.Fatalf("Save(%q): %v", board, err)
				}
			}
			boards, err := s.List(ctx)
			if err != nil {
				t.Fatalf("List: %v", err)
			}
			if len(boards) != 2 || boards[0].Name != "alpha" || boards[1].Name != "index" {
				t.Errorf("List = %v", boards)
			}
			if _, err := s.Load(ctx, "index"); err != nil {
				t.Errorf("Load(index): %v", err)
			}
		})
	}
}

func TestRedisStoreKeyLayout(t *testing.T) {
	ctx := context.Background()
	s, mr := newRedisStore(t)
	if err := s.Save(ctx, "index", sampleWorld()); err != nil {
		t.Fatal(err)
	}
	if !mr.Exists("featuremap:board:index") {
		t.Error("board key should live under board:")
	}
	if members, err := mr.ZMembers("featuremap:index"); err != nil || len(members) != 1 || members[0] != "index" {
		t.Errorf("index members = %v, %v", members, err)
	}
}

func TestMongoDocumentRoundTrip(t *testing.T) {
	w := sampleWorld()
	data, err := bson.Marshal(boardDoc{Name: "b", UpdatedAt: time.Now().UTC(), World: w})
	if err != nil {
		t.Fatal(err)
	}
	var doc boardDoc
	if err := bson.Unmarshal(data, &doc); err != nil {
		t.Fatal(err)
	}
	got, err := decodeBoard("b", doc)
	if err != nil {
		t.Fatalf("decodeBoard: %v", err)
	}
	if !reflect.DeepEqual(got, w) {
		t.Errorf("bson round trip changed the world:\ngot  %+v\nwant %+v", got, w)
	}

	if _, err := decodeBoard("b", boardDoc{Name: "b"}); !ferrors.Is(err, ferrors.ErrCodeInvalidState) {
		t.Errorf("empty document = %v, want INVALID_STATE", err)
	}
	empty, err := decodeBoard("b", boardDoc{World: &scene.World{Camera: scene.Camera{Scale: 1}}})
	if err != nil || empty.Nodes == nil || empty.Edges == nil {
		t.Errorf("nil slices should decode as empty: %v %v", empty, err)
	}
}

func TestRetryWithBackoff(t *testing.T) {
	old := retryDelay
	retryDelay = time.Millisecond
	t.Cleanup(func() { retryDelay = old })

	calls := 0
	err := RetryWithBackoff(context.Background(), func() error {
		calls++
		if calls < 3 {
			return Retryable(errors.New("flaky"))
		}
		return nil
	})
	if err != nil || calls != 3 {
		t.Errorf("err = %v, calls = %d", err, calls)
	}

	calls = 0
	permanent := errors.New("permanent")
	err = RetryWithBackoff(context.Background(), func() error {
		calls++
		return permanent
	})
	if !errors.Is(err, permanent) || calls != 1 {
		t.Errorf("non-retryable error retried: err = %v, calls = %d", err, calls)
	}

	if Retryable(nil) != nil || IsRetryable(permanent) {
		t.Error("Retryable(nil) must be nil and plain errors not retryable")
	}
}

type recordingHooks struct {
	observability.NoopStoreHooks
	mu    sync.Mutex
	calls []string
}

func (h *recordingHooks) record(s string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.calls = append(h.calls, s)
}

func (h *recordingHooks) OnLoad(_ context.Context, backend, board string, _ time.Duration, err error) {
	h.record("load " + backend + " " + board + " " + string(ferrors.GetCode(err)))
}

func (h *recordingHooks) OnSave(_ context.Context, backend, board string, _ int, _ time.Duration, _ error) {
	h.record("save " + backend + " " + board)
}

func (h *recordingHooks) OnDelete(_ context.Context, backend, board string, _ error) {
	h.record("delete " + backend + " " + board)
}

func TestObserveReportsToHooks(t *testing.T) {
	hooks := &recordingHooks{}
	observability.SetStoreHooks(hooks)
	t.Cleanup(observability.Reset)

	fs, _ := NewFileStore(t.TempDir())
	s := Observe(fs, "file")
	ctx := context.Background()
	_ = s.Save(ctx, "b", sampleWorld())
	_, _ = s.Load(ctx, "b")
	_, _ = s.Load(ctx, "nope")
	_ = s.Delete(ctx, "b")

	want := []string{"save file b", "load file b ", "load file nope BOARD_NOT_FOUND", "delete file b"}
	if !reflect.DeepEqual(hooks.calls, want) {
		t.Errorf("hook calls = %q, want %q", hooks.calls, want)
	}
	if Backend(s) != "file" || Backend(fs) != "" {
		t.Error("Backend label wrong")
	}
}

func TestOpenFileBackend(t *testing.T) {
	cfg := config.Default()
	cfg.Store.Dir = filepath.Join(t.TempDir(), "b")
	s, err := Open(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()
	if Backend(s) != config.BackendFile {
		t.Errorf("Backend = %q", Backend(s))
	}
	if _, err := os.Stat(cfg.Store.Dir); err != nil {
		t.Error("Open should create the board dir")
	}

	cfg.Store.Backend = "s3"
	if _, err := Open(context.Background(), cfg); !ferrors.Is(err, ferrors.ErrCodeInvalidConfig) {
		t.Errorf("unknown backend = %v", err)
	}
}
