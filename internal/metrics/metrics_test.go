package metrics

import (
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/matzehuels/featuremap/pkg/observability"
)

func TestInstallRoutesHooks(t *testing.T) {
	m := New()
	m.Install()
	t.Cleanup(observability.Reset)
	ctx := context.Background()

	observability.Editor().OnAction("drag")
	observability.Editor().OnAction("drag")
	observability.Editor().OnHistory("record", 7, 0)
	observability.Editor().OnTick(time.Millisecond, 2, 3)
	observability.Editor().OnImport("state", 0, 0, errors.New("bad"))
	observability.Store().OnLoad(ctx, "redis", "b", time.Millisecond, nil)
	observability.Store().OnSave(ctx, "redis", "b", 12, time.Millisecond, nil)
	observability.Store().OnDelete(ctx, "file", "b", errors.New("gone"))
	observability.Cache().OnCacheHit(ctx, "artifact")
	observability.Cache().OnCacheSet(ctx, "artifact", 512)

	tests := []struct {
		name string
		got  float64
		want float64
	}{
		{"actions", testutil.ToFloat64(m.actions.WithLabelValues("drag")), 2},
		{"history", testutil.ToFloat64(m.historyOps.WithLabelValues("record")), 1},
		{"undo depth", testutil.ToFloat64(m.undoDepth), 7},
		{"springs", testutil.ToFloat64(m.springs), 3},
		{"failed imports", testutil.ToFloat64(m.imports.WithLabelValues("state", "error")), 1},
		{"loads", testutil.ToFloat64(m.storeOps.WithLabelValues("redis", "load", "ok")), 1},
		{"saves", testutil.ToFloat64(m.storeOps.WithLabelValues("redis", "save", "ok")), 1},
		{"failed deletes", testutil.ToFloat64(m.storeOps.WithLabelValues("file", "delete", "error")), 1},
		{"cache hits", testutil.ToFloat64(m.cacheLookups.WithLabelValues("artifact", "hit")), 1},
		{"cache bytes", testutil.ToFloat64(m.cacheBytes), 512},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s = %v, want %v", tt.name, tt.got, tt.want)
		}
	}
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := New()
	editorHooks{m}.OnAction("note.set")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)

	for _, want := range []string{
		`featuremap_editor_actions_total{action="note.set"} 1`,
		"go_goroutines",
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("exposition missing %q", want)
		}
	}
}

func TestNewUsesPrivateRegistry(t *testing.T) {
	// Two instances must not collide on registration.
	a, b := New(), New()
	if a.Registry() == b.Registry() {
		t.Error("registries should differ")
	}
}
