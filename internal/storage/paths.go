package storage

import (
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/pulsefeed/backend/internal/config"
)

// Category names a managed class of physical files. The string value doubles
// as the default subdirectory (or object prefix) for that class.
type Category string

const (
	CategoryAvatar     Category = "avatars"
	CategoryAttachment Category = "attachments"
)

// PathResolver maps a category and filename to a physical path. It is a pure
// function of configuration and never touches disk. Filenames are generated
// by NewFilename, so resolved paths cannot escape the category directory;
// filepath.Base guards the trust boundary anyway.
type PathResolver struct {
	root string
	dirs map[Category]string
}

func NewPathResolver(cfg config.StorageConfig) *PathResolver {
	return &PathResolver{
		root: cfg.UploadRoot,
		dirs: map[Category]string{
			CategoryAvatar:     cfg.AvatarDir,
			CategoryAttachment: cfg.AttachmentDir,
		},
	}
}

func (r *PathResolver) Resolve(category Category, filename string) string {
	return filepath.Join(r.Dir(category), filepath.Base(filename))
}

func (r *PathResolver) Dir(category Category) string {
	dir, ok := r.dirs[category]
	if !ok {
		dir = string(category)
	}
	return filepath.Join(r.root, dir)
}

func (r *PathResolver) Categories() []Category {
	return []Category{CategoryAvatar, CategoryAttachment}
}

// NewFilename returns an opaque stored filename, keeping only the extension
// of the client-supplied name.
func NewFilename(original string) string {
	ext := strings.ToLower(filepath.Ext(filepath.Base(original)))
	return uuid.New().String() + ext
}
