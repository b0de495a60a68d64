package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/pulsefeed/backend/internal/models"
	"github.com/pulsefeed/backend/internal/storage"
	"github.com/pulsefeed/backend/pkg/logger"
	"gorm.io/gorm"
)

// CascadeService deletes a root entity together with its dependent rows and
// physical files. The relational transaction always commits before any
// filesystem mutation: the database is the source of truth, and the orphan
// sweep converges the filesystem after partial failures.
type CascadeService struct {
	DB    *gorm.DB
	Store storage.Store
}

func NewCascadeService(db *gorm.DB, store storage.Store) *CascadeService {
	return &CascadeService{DB: db, Store: store}
}

// DeleteUser removes the user, all posts they own with each post's comments,
// likes and file row, plus every comment and like the user left elsewhere,
// in one transaction. Physical files (attachments, avatar) are removed after
// commit, each independently.
func (s *CascadeService) DeleteUser(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.DB.WithContext(ctx).First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	var filenames []string
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", user.ID).Delete(&models.Like{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", user.ID).Delete(&models.Comment{}).Error; err != nil {
			return err
		}

		var posts []models.Post
		if err := tx.Where("user_id = ?", user.ID).Find(&posts).Error; err != nil {
			return err
		}
		for _, post := range posts {
			name, err := deletePostChildren(tx, post.ID)
			if err != nil {
				return err
			}
			if name != "" {
				filenames = append(filenames, name)
			}
		}

		if err := tx.Where("user_id = ?", user.ID).Delete(&models.Post{}).Error; err != nil {
			return err
		}

		// RowsAffected 0 means a concurrent delete won; benign.
		return tx.Delete(&models.User{}, "id = ?", user.ID).Error
	})
	if err != nil {
		return nil, fmt.Errorf("deleting user %s: %w", userID, err)
	}

	for _, filename := range filenames {
		s.removePhysical(ctx, storage.CategoryAttachment, filename)
	}
	if user.Avatar != nil && *user.Avatar != "" {
		s.removePhysical(ctx, storage.CategoryAvatar, *user.Avatar)
	}

	logger.Info("user_cascade_deleted", map[string]interface{}{
		"user_id":     user.ID.String(),
		"attachments": len(filenames),
	})
	return &user, nil
}

// DeletePost removes one post with its comments, likes and file row in one
// transaction, then best-effort deletes the captured physical file. Only the
// post's owner may delete it.
func (s *CascadeService) DeletePost(ctx context.Context, postID, actingUserID uuid.UUID) (*models.Post, error) {
	var post models.Post
	if err := s.DB.WithContext(ctx).First(&post, "id = ?", postID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if post.UserID != actingUserID {
		return nil, ErrForbidden
	}

	var filename string
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		name, err := deletePostChildren(tx, post.ID)
		if err != nil {
			return err
		}
		filename = name

		return tx.Delete(&models.Post{}, "id = ?", post.ID).Error
	})
	if err != nil {
		return nil, fmt.Errorf("deleting post %s: %w", postID, err)
	}

	if filename != "" {
		s.removePhysical(ctx, storage.CategoryAttachment, filename)
	}

	logger.InfoWithUser(actingUserID.String(), "post_cascade_deleted", map[string]interface{}{
		"post_id": post.ID.String(),
	})
	return &post, nil
}

// deletePostChildren removes a post's comments, likes and file row inside
// the caller's transaction, returning the captured attachment filename (if
// any) for physical deletion after commit. Children go before the parent so
// no statement ever sees a comment or like pointing at a deleted post.
func deletePostChildren(tx *gorm.DB, postID uuid.UUID) (string, error) {
	if err := tx.Where("post_id = ?", postID).Delete(&models.Comment{}).Error; err != nil {
		return "", err
	}
	if err := tx.Where("post_id = ?", postID).Delete(&models.Like{}).Error; err != nil {
		return "", err
	}

	var file models.File
	err := tx.Where("post_id = ?", postID).First(&file).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", err
	}

	if err := tx.Delete(&models.File{}, "id = ?", file.ID).Error; err != nil {
		return "", err
	}
	return file.Filename, nil
}

// removePhysical deletes one physical file after a committed transaction.
// Failures are logged and swallowed; the sweep picks up what this misses.
func (s *CascadeService) removePhysical(ctx context.Context, category storage.Category, filename string) {
	err := s.Store.Delete(ctx, category, filename)
	if err == nil || errors.Is(err, storage.ErrNotExist) {
		return
	}
	logger.Warn("storage_cleanup_failed", map[string]interface{}{
		"category": string(category),
		"filename": filename,
		"error":    err.Error(),
	})
}
