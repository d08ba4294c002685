package corpus

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrNotFound    = errors.New("document not found")
	ErrInvalidName = errors.New("invalid document name")
)

// Store is the flat directory of source documents. It is the sole durable
// owner of the corpus; everything else is derived from it.
type Store struct {
	dir string
}

func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create corpus dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

func (s *Store) Dir() string {
	return s.dir
}

// CleanName reduces an uploaded name to a safe base name inside the store.
func CleanName(name string) (string, error) {
	name = strings.ReplaceAll(name, "\\", "/")
	base := filepath.Base(strings.TrimSpace(name))
	if base == "" || base == "." || base == ".." || base == "/" || strings.HasPrefix(base, ".") {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return base, nil
}

// List returns the names of visible regular files, sorted.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read corpus dir: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)
	return names, nil
}

// Staged is an upload written to a hidden file in the store directory,
// invisible to List and extraction until committed.
type Staged struct {
	Name string
	Path string
}

// Stage copies r into a hidden temporary file. The caller must Commit or Discard it.
func (s *Store) Stage(name string, r io.Reader) (*Staged, error) {
	clean, err := CleanName(name)
	if err != nil {
		return nil, err
	}

	tmp := filepath.Join(s.dir, ".upload-"+uuid.NewString()+filepath.Ext(clean))
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("create staging file: %w", err)
	}

	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(tmp)
		return nil, fmt.Errorf("write staging file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return nil, fmt.Errorf("close staging file: %w", err)
	}

	return &Staged{Name: clean, Path: tmp}, nil
}

// Commit moves a staged upload to its final name, silently replacing any
// existing document with that name.
func (s *Store) Commit(st *Staged) (string, error) {
	dest := filepath.Join(s.dir, st.Name)
	if err := os.Rename(st.Path, dest); err != nil {
		os.Remove(st.Path)
		return "", fmt.Errorf("commit %s: %w", st.Name, err)
	}
	return dest, nil
}

func (s *Store) Discard(st *Staged) {
	if st != nil {
		os.Remove(st.Path)
	}
}

func (s *Store) Delete(name string) error {
	clean, err := CleanName(name)
	if err != nil {
		return err
	}

	path := filepath.Join(s.dir, clean)
	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) || (err == nil && info.IsDir()) {
		return fmt.Errorf("%w: %s", ErrNotFound, clean)
	}
	if err != nil {
		return err
	}

	if err := os.Remove(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrNotFound, clean)
		}
		return fmt.Errorf("delete %s: %w", clean, err)
	}
	return nil
}
