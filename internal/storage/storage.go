package storage

import (
	"context"
	"errors"
	"io"
)

// ErrNotExist is returned by Open and Delete when the physical file is
// already absent.
var ErrNotExist = errors.New("file does not exist")

// Store holds the physical bytes behind File rows and user avatars. The
// relational store stays the source of truth; implementations only ever see
// opaque filenames inside a category.
type Store interface {
	Save(ctx context.Context, category Category, filename string, reader io.Reader, size int64) error
	Open(ctx context.Context, category Category, filename string) (io.ReadCloser, error)
	Delete(ctx context.Context, category Category, filename string) error
	Exists(ctx context.Context, category Category, filename string) (bool, error)
	List(ctx context.Context, category Category) ([]string, error)
}
