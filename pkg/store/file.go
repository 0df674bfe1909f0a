package store

import (
	"bytes"
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	fmio "github.com/matzehuels/featuremap/pkg/io"
	"github.com/matzehuels/featuremap/pkg/scene"
)

const boardExt = ".json"

// FileStore keeps each board as an indented JSON file in one directory.
// Writes go through a temporary file and a rename, so a crash never leaves
// a half-written board behind.
type FileStore struct {
	mu  sync.RWMutex
	dir string
}

var _ Store = (*FileStore)(nil)

// NewFileStore creates dir if needed and returns a store rooted there.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, wrapf(err, "create board dir")
	}
	return &FileStore{dir: dir}, nil
}

// Dir returns the board directory.
func (s *FileStore) Dir() string { return s.dir }

// Path returns the file that holds the named board.
func (s *FileStore) Path(name string) string {
	return filepath.Join(s.dir, name+boardExt)
}

func (s *FileStore) Load(ctx context.Context, name string) (*scene.World, error) {
	if err := checkName(name); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.Path(name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, notFound(name)
	}
	if err != nil {
		return nil, wrapf(err, "read board %q", name)
	}
	w, err := fmio.ReadState(bytes.NewReader(data))
	if err != nil {
		return nil, corrupt(name, err)
	}
	return w, nil
}

func (s *FileStore) Save(ctx context.Context, name string, w *scene.World) error {
	if err := checkName(name); err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := fmio.WriteState(w, &buf); err != nil {
		return wrapf(err, "encode board %q", name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tmp, err := os.CreateTemp(s.dir, "."+name+"-*")
	if err != nil {
		return wrapf(err, "write board %q", name)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return wrapf(err, "write board %q", name)
	}
	if err := tmp.Close(); err != nil {
		return wrapf(err, "write board %q", name)
	}
	if err := os.Rename(tmp.Name(), s.Path(name)); err != nil {
		return wrapf(err, "write board %q", name)
	}
	return nil
}

func (s *FileStore) Delete(ctx context.Context, name string) error {
	if err := checkName(name); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.Path(name))
	if errors.Is(err, fs.ErrNotExist) {
		return notFound(name)
	}
	if err != nil {
		return wrapf(err, "delete board %q", name)
	}
	return nil
}

func (s *FileStore) List(ctx context.Context) ([]BoardInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, wrapf(err, "list boards")
	}
	var boards []BoardInfo
	for _, e := range entries {
		name, ok := strings.CutSuffix(e.Name(), boardExt)
		if !ok || e.IsDir() || checkName(name) != nil {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		boards = append(boards, BoardInfo{Name: name, UpdatedAt: info.ModTime()})
	}
	slices.SortFunc(boards, func(a, b BoardInfo) int { return strings.Compare(a.Name, b.Name) })
	return boards, nil
}

func (s *FileStore) Close() error { return nil }
