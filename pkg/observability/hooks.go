// Package observability provides hooks for metrics and tracing.
//
// Libraries emit events through the registered hooks without depending on a
// metrics backend. The defaults are no-ops; a binary that wants metrics
// registers its own implementation once at startup (see internal/metrics for
// the Prometheus one).
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetEditorHooks(&myEditorHooks{})
//	    observability.SetStoreHooks(&myStoreHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	start := time.Now()
//	stats := physics.Step(w, params, dt, pinned)
//	observability.Editor().OnTick(time.Since(start), stats.Groups, stats.Springs)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Editor Hooks
// =============================================================================

// EditorHooks receives events from the interactive editor. The editor runs a
// single synchronous loop, so these methods take no context.
type EditorHooks interface {
	// OnAction records a user action that mutated the world, e.g. "drag",
	// "edge.create" or "note.set".
	OnAction(action string)

	// OnHistory records an undo stack operation ("record", "undo", "redo")
	// together with the resulting stack depths.
	OnHistory(op string, undoDepth, redoDepth int)

	// OnTick records one layout step.
	OnTick(duration time.Duration, groups, springs int)

	// OnImport records a whole-world replacement. kind is "source" or
	// "state".
	OnImport(kind string, nodes, edges int, err error)
}

// =============================================================================
// Store Hooks
// =============================================================================

// StoreHooks receives events from board storage backends.
type StoreHooks interface {
	// OnLoad records a board read.
	OnLoad(ctx context.Context, backend, board string, duration time.Duration, err error)

	// OnSave records a board write. size is the number of nodes plus edges.
	OnSave(ctx context.Context, backend, board string, size int, duration time.Duration, err error)

	// OnDelete records a board removal.
	OnDelete(ctx context.Context, backend, board string, err error)
}

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from cache operations.
type CacheHooks interface {
	// OnCacheHit records a cache hit.
	OnCacheHit(ctx context.Context, keyType string)

	// OnCacheMiss records a cache miss.
	OnCacheMiss(ctx context.Context, keyType string)

	// OnCacheSet records a cache write.
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopEditorHooks is a no-op implementation of EditorHooks.
type NoopEditorHooks struct{}

func (NoopEditorHooks) OnAction(string)                  {}
func (NoopEditorHooks) OnHistory(string, int, int)       {}
func (NoopEditorHooks) OnTick(time.Duration, int, int)   {}
func (NoopEditorHooks) OnImport(string, int, int, error) {}

// NoopStoreHooks is a no-op implementation of StoreHooks.
type NoopStoreHooks struct{}

func (NoopStoreHooks) OnLoad(context.Context, string, string, time.Duration, error)      {}
func (NoopStoreHooks) OnSave(context.Context, string, string, int, time.Duration, error) {}
func (NoopStoreHooks) OnDelete(context.Context, string, string, error)                   {}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	editorHooks EditorHooks = NoopEditorHooks{}
	storeHooks  StoreHooks  = NoopStoreHooks{}
	cacheHooks  CacheHooks  = NoopCacheHooks{}
	hooksMu     sync.RWMutex
)

// SetEditorHooks registers custom editor hooks.
// This should be called once at application startup before any editor is created.
func SetEditorHooks(h EditorHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		editorHooks = h
	}
}

// SetStoreHooks registers custom store hooks.
func SetStoreHooks(h StoreHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		storeHooks = h
	}
}

// SetCacheHooks registers custom cache hooks.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// Editor returns the registered editor hooks.
func Editor() EditorHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return editorHooks
}

// Store returns the registered store hooks.
func Store() StoreHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return storeHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	editorHooks = NoopEditorHooks{}
	storeHooks = NoopStoreHooks{}
	cacheHooks = NoopCacheHooks{}
}
