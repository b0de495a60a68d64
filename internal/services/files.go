package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/pulsefeed/backend/internal/models"
	"github.com/pulsefeed/backend/internal/storage"
	"github.com/pulsefeed/backend/pkg/logger"
	"gorm.io/gorm"
)

// FileService owns attachment metadata rows and their binding to posts. The
// physical write happens before the metadata row exists, so a crash in
// between leaves only a sweepable orphan on disk, never a dangling row.
type FileService struct {
	DB    *gorm.DB
	Store storage.Store
}

func NewFileService(db *gorm.DB, store storage.Store) *FileService {
	return &FileService{DB: db, Store: store}
}

// Upload writes the physical file under an opaque generated name, then
// creates the metadata row. If the row insert fails the physical file is
// removed again as compensation.
func (s *FileService) Upload(ctx context.Context, originalName, fileType string, reader io.Reader, size int64) (*models.File, error) {
	filename := storage.NewFilename(originalName)

	if err := s.Store.Save(ctx, storage.CategoryAttachment, filename, reader, size); err != nil {
		return nil, fmt.Errorf("saving attachment: %w", err)
	}

	record := models.File{
		Filename:   filename,
		FileType:   fileType,
		Size:       size,
		UploadDate: time.Now().UTC(),
	}
	if err := s.DB.WithContext(ctx).Create(&record).Error; err != nil {
		if cleanupErr := s.Store.Delete(ctx, storage.CategoryAttachment, filename); cleanupErr != nil && !errors.Is(cleanupErr, storage.ErrNotExist) {
			logger.Error("attachment_compensation_failed", cleanupErr, map[string]interface{}{
				"filename": filename,
			})
		}
		return nil, fmt.Errorf("creating file record: %w", err)
	}

	return &record, nil
}

func (s *FileService) Get(ctx context.Context, fileID uuid.UUID) (*models.File, error) {
	var file models.File
	if err := s.DB.WithContext(ctx).First(&file, "id = ?", fileID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &file, nil
}

// AssociateFileToPost binds an uploaded file to its post. Re-associating a
// file with the same post is idempotent; binding it to a different post, or
// binding a second file to a post that already has one, is a conflict.
func (s *FileService) AssociateFileToPost(ctx context.Context, fileID, postID uuid.UUID) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var file models.File
		if err := tx.First(&file, "id = ?", fileID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		if file.PostID != nil {
			if *file.PostID == postID {
				return nil
			}
			return fmt.Errorf("file %s already bound to another post: %w", fileID, ErrConflict)
		}

		var count int64
		if err := tx.Model(&models.Post{}).Where("id = ?", postID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return ErrNotFound
		}

		if err := tx.Model(&models.File{}).Where("id = ?", file.ID).Update("post_id", postID).Error; err != nil {
			return err
		}

		logger.Info("file_associated", map[string]interface{}{
			"file_id": fileID.String(),
			"post_id": postID.String(),
		})
		return nil
	})
}

// DetachAndDeleteFile removes the metadata row, then the physical file. The
// row delete commits first; a failed physical delete is logged and reported
// but never resurrects the row. An already-missing physical file counts as
// reconciled.
func (s *FileService) DetachAndDeleteFile(ctx context.Context, fileID uuid.UUID) error {
	var file models.File
	if err := s.DB.WithContext(ctx).First(&file, "id = ?", fileID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}

	if err := s.DB.WithContext(ctx).Delete(&models.File{}, "id = ?", file.ID).Error; err != nil {
		return fmt.Errorf("deleting file record: %w", err)
	}

	if err := s.Store.Delete(ctx, storage.CategoryAttachment, file.Filename); err != nil && !errors.Is(err, storage.ErrNotExist) {
		logger.Warn("attachment_cleanup_failed", map[string]interface{}{
			"file_id":  file.ID.String(),
			"filename": file.Filename,
			"error":    err.Error(),
		})
	}

	return nil
}
