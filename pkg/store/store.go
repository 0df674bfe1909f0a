// Package store persists boards by name.
//
// A board is a complete [scene.World]. Three backends implement [Store]:
//   - [FileStore]: one JSON file per board below the user data directory
//   - [RedisStore]: JSON strings plus a sorted-set index, for shared servers
//   - [MongoStore]: one BSON document per board
//
// Every backend validates the world it loads, so a corrupted board is
// reported as an error instead of reaching the editor. [Open] builds the
// backend selected in the configuration and wraps it with [Observe].
package store

import (
	"context"
	"errors"
	"time"

	ferrors "github.com/matzehuels/featuremap/pkg/errors"
	"github.com/matzehuels/featuremap/pkg/observability"
	"github.com/matzehuels/featuremap/pkg/scene"
)

// ErrNotFound is returned by [Store.Load] and [Store.Delete] when no board
// with the given name exists.
var ErrNotFound = errors.New("board not found")

// Store is the interface implemented by board storage backends.
type Store interface {
	// Load returns the board stored under name.
	Load(ctx context.Context, name string) (*scene.World, error)

	// Save stores w under name, replacing any previous board.
	Save(ctx context.Context, name string, w *scene.World) error

	// Delete removes the board.
	Delete(ctx context.Context, name string) error

	// List returns all boards ordered by name.
	List(ctx context.Context) ([]BoardInfo, error)

	// Close releases backend resources.
	Close() error
}

// BoardInfo describes a stored board.
type BoardInfo struct {
	Name      string    `json:"name" bson:"_id"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

// checkName validates a board name before it reaches a path or key.
func checkName(name string) error {
	return ferrors.ValidateBoardName(name)
}

// notFound wraps ErrNotFound with the board name and the BOARD_NOT_FOUND
// code.
func notFound(name string) error {
	return ferrors.Wrap(ferrors.ErrCodeBoardNotFound, ErrNotFound, "board %q", name)
}

// corrupt reports a stored board that fails validation.
func corrupt(name string, err error) error {
	return ferrors.Wrap(ferrors.ErrCodeInvalidState, err, "board %q is corrupt", name)
}

// =============================================================================
// Observed Store
// =============================================================================

type observed struct {
	Store
	backend string
}

// Observe wraps s so that every load, save and delete is reported to the
// registered observability hooks under the given backend label.
func Observe(s Store, backend string) Store {
	return &observed{Store: s, backend: backend}
}

func (o *observed) Load(ctx context.Context, name string) (*scene.World, error) {
	start := time.Now()
	w, err := o.Store.Load(ctx, name)
	observability.Store().OnLoad(ctx, o.backend, name, time.Since(start), err)
	return w, err
}

func (o *observed) Save(ctx context.Context, name string, w *scene.World) error {
	start := time.Now()
	err := o.Store.Save(ctx, name, w)
	observability.Store().OnSave(ctx, o.backend, name, w.NodeCount()+w.EdgeCount(), time.Since(start), err)
	return err
}

func (o *observed) Delete(ctx context.Context, name string) error {
	err := o.Store.Delete(ctx, name)
	observability.Store().OnDelete(ctx, o.backend, name, err)
	return err
}

// Backend returns the label of an observed store, or "" for a bare one.
func Backend(s Store) string {
	if o, ok := s.(*observed); ok {
		return o.backend
	}
	return ""
}

func wrapf(err error, format string, args ...any) error {
	return ferrors.Wrap(ferrors.ErrCodeStorage, err, format, args...)
}
