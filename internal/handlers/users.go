package handlers

import (
	"errors"
	"mime"
	"path/filepath"

	"github.com/gofiber/fiber/v2"
	"github.com/pulsefeed/backend/internal/middleware"
	"github.com/pulsefeed/backend/internal/models"
	"github.com/pulsefeed/backend/internal/services"
	"github.com/pulsefeed/backend/internal/storage"
	"github.com/pulsefeed/backend/pkg/logger"
	"github.com/pulsefeed/backend/pkg/utils"
	"gorm.io/gorm"
)

type UsersHandler struct {
	DB      *gorm.DB
	Store   storage.Store
	Cascade *services.CascadeService
}

func NewUsersHandler(db *gorm.DB, store storage.Store, cascade *services.CascadeService) *UsersHandler {
	return &UsersHandler{DB: db, Store: store, Cascade: cascade}
}

func (h *UsersHandler) Get(c *fiber.Ctx) error {
	userID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid user id")
	}

	var user models.User
	if err := h.DB.First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.Error(c, fiber.StatusNotFound, "user not found")
		}
		return utils.Error(c, fiber.StatusInternalServerError, "failed loading user")
	}

	var postCount int64
	h.DB.Model(&models.Post{}).Where("user_id = ?", user.ID).Count(&postCount)

	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"user":      user,
		"postCount": postCount,
	})
}

var allowedAvatarTypes = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/gif":  true,
	"image/webp": true,
}

// UploadAvatar replaces the caller's avatar. The new physical file is written
// first, then the reference swaps in one update; the previous file is removed
// best-effort afterwards.
func (h *UsersHandler) UploadAvatar(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	fileHeader, err := c.FormFile("avatar")
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "avatar file is required")
	}

	contentType := fileHeader.Header.Get("Content-Type")
	if contentType == "" {
		contentType = mime.TypeByExtension(filepath.Ext(fileHeader.Filename))
	}
	if !allowedAvatarTypes[contentType] {
		return utils.Error(c, fiber.StatusBadRequest, "avatar must be an image")
	}

	stream, err := fileHeader.Open()
	if err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed opening uploaded file")
	}
	defer stream.Close()

	filename := storage.NewFilename(fileHeader.Filename)
	if err := h.Store.Save(c.Context(), storage.CategoryAvatar, filename, stream, fileHeader.Size); err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed saving avatar")
	}

	previous := currentUser.Avatar
	if err := h.DB.Model(&models.User{}).Where("id = ?", currentUser.ID).Update("avatar", filename).Error; err != nil {
		if cleanupErr := h.Store.Delete(c.Context(), storage.CategoryAvatar, filename); cleanupErr != nil && !errors.Is(cleanupErr, storage.ErrNotExist) {
			logger.Error("avatar_compensation_failed", cleanupErr, map[string]interface{}{
				"filename": filename,
			})
		}
		return utils.Error(c, fiber.StatusInternalServerError, "failed updating avatar")
	}

	if previous != nil && *previous != "" {
		if err := h.Store.Delete(c.Context(), storage.CategoryAvatar, *previous); err != nil && !errors.Is(err, storage.ErrNotExist) {
			logger.Warn("avatar_cleanup_failed", map[string]interface{}{
				"filename": *previous,
				"error":    err.Error(),
			})
		}
	}

	logger.InfoWithUser(currentUser.ID.String(), "avatar_updated", map[string]interface{}{
		"filename": filename,
	})

	return utils.Success(c, fiber.StatusOK, fiber.Map{"avatar": filename})
}

// DeleteMe removes the caller's account and everything it owns.
func (h *UsersHandler) DeleteMe(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	deleted, err := h.Cascade.DeleteUser(c.Context(), currentUser.ID)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return utils.Error(c, fiber.StatusNotFound, "user not found")
		}
		return utils.Error(c, fiber.StatusInternalServerError, "failed deleting account")
	}

	return utils.Success(c, fiber.StatusOK, fiber.Map{"deletedUser": deleted})
}
