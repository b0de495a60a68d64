package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/pulsefeed/backend/pkg/logger"
)

// DiskStore keeps physical files in per-category directories under the
// configured upload root.
type DiskStore struct {
	resolver *PathResolver
}

func NewDiskStore(resolver *PathResolver) *DiskStore {
	return &DiskStore{resolver: resolver}
}

// EnsureDirs creates the category directories; called once at startup.
func (d *DiskStore) EnsureDirs() error {
	for _, category := range d.resolver.Categories() {
		if err := os.MkdirAll(d.resolver.Dir(category), 0o755); err != nil {
			return err
		}
	}
	return nil
}

func (d *DiskStore) Save(ctx context.Context, category Category, filename string, reader io.Reader, size int64) error {
	path := d.resolver.Resolve(category, filename)

	out, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		logger.Error("disk_save_failed", err, map[string]interface{}{
			"category": string(category),
			"filename": filename,
		})
		return err
	}

	_, err = io.Copy(out, reader)
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(path)
		logger.Error("disk_save_failed", err, map[string]interface{}{
			"category": string(category),
			"filename": filename,
		})
		return err
	}

	logger.Info("disk_save_success", map[string]interface{}{
		"category": string(category),
		"filename": filename,
		"size":     size,
	})
	return nil
}

func (d *DiskStore) Open(ctx context.Context, category Category, filename string) (io.ReadCloser, error) {
	file, err := os.Open(d.resolver.Resolve(category, filename))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotExist
		}
		return nil, err
	}
	return file, nil
}

func (d *DiskStore) Delete(ctx context.Context, category Category, filename string) error {
	err := os.Remove(d.resolver.Resolve(category, filename))
	if err != nil {
		if os.IsNotExist(err) {
			return ErrNotExist
		}
		logger.Error("disk_delete_failed", err, map[string]interface{}{
			"category": string(category),
			"filename": filename,
		})
		return err
	}

	logger.Info("disk_delete_success", map[string]interface{}{
		"category": string(category),
		"filename": filename,
	})
	return nil
}

func (d *DiskStore) Exists(ctx context.Context, category Category, filename string) (bool, error) {
	_, err := os.Stat(d.resolver.Resolve(category, filename))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (d *DiskStore) List(ctx context.Context, category Category) ([]string, error) {
	entries, err := os.ReadDir(d.resolver.Dir(category))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		names = append(names, filepath.Base(entry.Name()))
	}
	return names, nil
}
