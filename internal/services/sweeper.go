package services

import (
	"context"
	"errors"

	"github.com/pulsefeed/backend/internal/models"
	"github.com/pulsefeed/backend/internal/storage"
	"github.com/pulsefeed/backend/pkg/logger"
	"gorm.io/gorm"
)

// SweeperService restores the no-orphans invariant between the relational
// store and physical storage. It runs once at startup, before the server
// accepts traffic, and may be re-run on demand; with no orphans it is a
// no-op.
type SweeperService struct {
	DB    *gorm.DB
	Store storage.Store
}

func NewSweeperService(db *gorm.DB, store storage.Store) *SweeperService {
	return &SweeperService{DB: db, Store: store}
}

// Run deletes every physical file with no live reference and returns how
// many were removed. Attachments are referenced by File rows, avatars by
// users.avatar. Live references are collected before listing the storage,
// so a file uploaded mid-sweep could at worst be listed without its row yet;
// running the sweep cold at startup avoids that window.
func (s *SweeperService) Run(ctx context.Context) (int, error) {
	removed := 0

	var attachmentRefs []string
	if err := s.DB.WithContext(ctx).Model(&models.File{}).Pluck("filename", &attachmentRefs).Error; err != nil {
		return removed, err
	}
	n, err := s.sweepCategory(ctx, storage.CategoryAttachment, attachmentRefs)
	removed += n
	if err != nil {
		return removed, err
	}

	var avatarRefs []string
	if err := s.DB.WithContext(ctx).Model(&models.User{}).
		Where("avatar IS NOT NULL AND avatar <> ''").
		Pluck("avatar", &avatarRefs).Error; err != nil {
		return removed, err
	}
	n, err = s.sweepCategory(ctx, storage.CategoryAvatar, avatarRefs)
	removed += n
	if err != nil {
		return removed, err
	}

	logger.Info("orphan_sweep_complete", map[string]interface{}{
		"removed": removed,
	})
	return removed, nil
}

func (s *SweeperService) sweepCategory(ctx context.Context, category storage.Category, liveRefs []string) (int, error) {
	live := make(map[string]struct{}, len(liveRefs))
	for _, ref := range liveRefs {
		live[ref] = struct{}{}
	}

	onDisk, err := s.Store.List(ctx, category)
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, filename := range onDisk {
		if _, ok := live[filename]; ok {
			continue
		}

		err := s.Store.Delete(ctx, category, filename)
		if err != nil && !errors.Is(err, storage.ErrNotExist) {
			logger.Warn("orphan_delete_failed", map[string]interface{}{
				"category": string(category),
				"filename": filename,
				"error":    err.Error(),
			})
			continue
		}

		removed++
		logger.Info("orphan_removed", map[string]interface{}{
			"category": string(category),
			"filename": filename,
		})
	}
	return removed, nil
}
