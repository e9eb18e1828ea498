// Package localfs is a filesystem blob store.
//
// Objects are written once under their key inside a root directory. Rewriting a key with
// identical bytes succeeds; different bytes fail with blob.ErrImmutable.
package localfs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"

	"github.com/information-sharing-networks/pass-issuer/internal/blob"
)

// Store is a blob.Store rooted at a local directory.
type Store struct {
	dir string
}

var _ blob.Store = (*Store)(nil)

// New creates a store rooted at dir, creating the directory if needed.
func New(dir string) (*Store, error) {
	if dir == "" {
		return nil, errors.New("localfs: root directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("localfs: %w", err)
	}
	return &Store{dir: dir}, nil
}

func (s *Store) Put(ctx context.Context, key string, content []byte) (blob.Receipt, error) {
	if err := ctx.Err(); err != nil {
		return blob.Receipt{}, err
	}
	name, err := blob.CleanKey(key)
	if err != nil {
		return blob.Receipt{}, err
	}
	id, err := blob.ContentID(content)
	if err != nil {
		return blob.Receipt{}, err
	}
	receipt := blob.Receipt{
		Key:      name,
		CID:      id.String(),
		Size:     len(content),
		Location: filepath.Join(s.dir, filepath.FromSlash(name)),
	}

	root, err := os.OpenRoot(s.dir)
	if err != nil {
		return blob.Receipt{}, fmt.Errorf("localfs: %w", err)
	}
	defer root.Close()

	if dir := path.Dir(name); dir != "." {
		if err := root.MkdirAll(dir, 0o755); err != nil {
			return blob.Receipt{}, fmt.Errorf("localfs: %w", err)
		}
	}

	f, err := root.OpenFile(name, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o444)
	if err != nil {
		if !errors.Is(err, os.ErrExist) {
			return blob.Receipt{}, fmt.Errorf("localfs: %w", err)
		}
		existing, rerr := root.ReadFile(name)
		if rerr != nil || !bytes.Equal(existing, content) {
			return blob.Receipt{}, fmt.Errorf("%w: %s", blob.ErrImmutable, name)
		}
		return receipt, nil
	}

	if _, err := f.Write(content); err != nil {
		_ = f.Close()
		_ = root.Remove(name)
		return blob.Receipt{}, fmt.Errorf("localfs: %w", err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = root.Remove(name)
		return blob.Receipt{}, fmt.Errorf("localfs: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = root.Remove(name)
		return blob.Receipt{}, fmt.Errorf("localfs: %w", err)
	}

	return receipt, nil
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	name, err := blob.CleanKey(key)
	if err != nil {
		return nil, err
	}

	root, err := os.OpenRoot(s.dir)
	if err != nil {
		return nil, fmt.Errorf("localfs: %w", err)
	}
	defer root.Close()

	b, err := root.ReadFile(name)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", blob.ErrNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("localfs: %w", err)
	}
	return b, nil
}
