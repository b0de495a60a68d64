package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/pulsefeed/backend/internal/config"
	"github.com/pulsefeed/backend/internal/database"
	"github.com/pulsefeed/backend/internal/models"
	"github.com/pulsefeed/backend/internal/storage"
	"gorm.io/gorm"
)

type serviceEnv struct {
	db    *gorm.DB
	store *storage.DiskStore
}

func setupServiceEnv(t *testing.T) *serviceEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("failed opening in-memory sqlite database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed getting sql.DB from gorm: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	if err := database.Migrate(db); err != nil {
		t.Fatalf("failed automigrating models: %v", err)
	}

	resolver := storage.NewPathResolver(config.StorageConfig{
		UploadRoot:    t.TempDir(),
		AvatarDir:     "avatars",
		AttachmentDir: "attachments",
	})
	store := storage.NewDiskStore(resolver)
	if err := store.EnsureDirs(); err != nil {
		t.Fatalf("failed creating upload dirs: %v", err)
	}

	return &serviceEnv{db: db, store: store}
}

func createUser(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()

	user := &models.User{
		Email:        email,
		PasswordHash: "x",
		DisplayName:  "Test User",
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed creating user: %v", err)
	}
	return user
}

func createPost(t *testing.T, db *gorm.DB, userID uuid.UUID, content string) *models.Post {
	t.Helper()

	post := &models.Post{UserID: userID, Content: content}
	if err := db.Create(post).Error; err != nil {
		t.Fatalf("failed creating post: %v", err)
	}
	return post
}

func createComment(t *testing.T, db *gorm.DB, userID, postID uuid.UUID, content string) *models.Comment {
	t.Helper()

	comment := &models.Comment{UserID: userID, PostID: postID, Content: content}
	if err := db.Create(comment).Error; err != nil {
		t.Fatalf("failed creating comment: %v", err)
	}
	return comment
}

func createLike(t *testing.T, db *gorm.DB, userID, postID uuid.UUID) *models.Like {
	t.Helper()

	like := &models.Like{UserID: userID, PostID: postID}
	if err := db.Create(like).Error; err != nil {
		t.Fatalf("failed creating like: %v", err)
	}
	return like
}

// createAttachment writes a physical file and its metadata row, optionally
// bound to a post.
func createAttachment(t *testing.T, env *serviceEnv, filename string, postID *uuid.UUID) *models.File {
	t.Helper()

	content := "attachment bytes"
	if err := env.store.Save(context.Background(), storage.CategoryAttachment, filename, strings.NewReader(content), int64(len(content))); err != nil {
		t.Fatalf("failed saving physical file: %v", err)
	}

	file := &models.File{
		Filename:   filename,
		FileType:   "image/png",
		Size:       int64(len(content)),
		UploadDate: time.Now().UTC(),
		PostID:     postID,
	}
	if err := env.db.Create(file).Error; err != nil {
		t.Fatalf("failed creating file record: %v", err)
	}
	return file
}

func countRows(t *testing.T, db *gorm.DB, model interface{}, query string, args ...interface{}) int64 {
	t.Helper()

	var count int64
	tx := db.Model(model)
	if query != "" {
		tx = tx.Where(query, args...)
	}
	if err := tx.Count(&count).Error; err != nil {
		t.Fatalf("failed counting rows: %v", err)
	}
	return count
}

func physicalExists(t *testing.T, store storage.Store, category storage.Category, filename string) bool {
	t.Helper()

	exists, err := store.Exists(context.Background(), category, filename)
	if err != nil {
		t.Fatalf("failed checking physical file: %v", err)
	}
	return exists
}
