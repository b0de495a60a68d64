package handlers

import (
	"errors"
	"fmt"
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

type FilesHandler struct {
	DB    *gorm.DB
	Files *services.FileService
	Store storage.Store
}

func NewFilesHandler(db *gorm.DB, files *services.FileService, store storage.Store) *FilesHandler {
	return &FilesHandler{DB: db, Files: files, Store: store}
}

func (h *FilesHandler) Upload(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "file is required")
	}

	contentType := fileHeader.Header.Get("Content-Type")
	if contentType == "" {
		contentType = mime.TypeByExtension(filepath.Ext(fileHeader.Filename))
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	stream, err := fileHeader.Open()
	if err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed opening uploaded file")
	}
	defer stream.Close()

	record, err := h.Files.Upload(c.Context(), fileHeader.Filename, contentType, stream, fileHeader.Size)
	if err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed uploading file")
	}

	logger.InfoWithUser(currentUser.ID.String(), "file_uploaded", map[string]interface{}{
		"file_id":   record.ID.String(),
		"filename":  record.Filename,
		"file_size": record.Size,
		"mime_type": record.FileType,
	})

	return utils.Success(c, fiber.StatusCreated, record)
}

type associateFileRequest struct {
	PostID string `json:"postID"`
}

func (h *FilesHandler) Associate(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	fileID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid file id")
	}

	var req associateFileRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}
	postID, err := parseUUID(req.PostID)
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid postID")
	}

	var post models.Post
	if err := h.DB.First(&post, "id = ?", postID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.Error(c, fiber.StatusNotFound, "post not found")
		}
		return utils.Error(c, fiber.StatusInternalServerError, "failed loading post")
	}
	if post.UserID != currentUser.ID {
		return utils.Error(c, fiber.StatusForbidden, "only the author can attach files to a post")
	}

	if err := h.Files.AssociateFileToPost(c.Context(), fileID, postID); err != nil {
		switch {
		case errors.Is(err, services.ErrNotFound):
			return utils.Error(c, fiber.StatusNotFound, "file not found")
		case errors.Is(err, services.ErrConflict):
			return utils.Error(c, fiber.StatusConflict, "file already attached to another post")
		default:
			return utils.Error(c, fiber.StatusInternalServerError, "failed attaching file")
		}
	}

	return utils.Success(c, fiber.StatusOK, fiber.Map{"message": "file attached"})
}

func (h *FilesHandler) Download(c *fiber.Ctx) error {
	fileID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid file id")
	}

	file, err := h.Files.Get(c.Context(), fileID)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return utils.Error(c, fiber.StatusNotFound, "file not found")
		}
		return utils.Error(c, fiber.StatusInternalServerError, "failed loading file")
	}

	reader, err := h.Store.Open(c.Context(), storage.CategoryAttachment, file.Filename)
	if err != nil {
		if errors.Is(err, storage.ErrNotExist) {
			return utils.Error(c, fiber.StatusNotFound, "file content unavailable")
		}
		return utils.Error(c, fiber.StatusInternalServerError, "failed reading file")
	}

	c.Set("Content-Type", file.FileType)
	c.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Filename))
	return c.SendStream(reader, int(file.Size))
}

func (h *FilesHandler) Delete(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	fileID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid file id")
	}

	file, err := h.Files.Get(c.Context(), fileID)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return utils.Error(c, fiber.StatusNotFound, "file not found")
		}
		return utils.Error(c, fiber.StatusInternalServerError, "failed loading file")
	}

	if file.PostID != nil {
		var post models.Post
		err := h.DB.First(&post, "id = ?", *file.PostID).Error
		switch {
		case err == nil:
			if post.UserID != currentUser.ID {
				return utils.Error(c, fiber.StatusForbidden, "only the post author can delete its attachment")
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			// Dangling post reference: the row is orphan metadata, anyone
			// authenticated may clear it.
		default:
			return utils.Error(c, fiber.StatusInternalServerError, "failed loading post")
		}
	}

	if err := h.Files.DetachAndDeleteFile(c.Context(), file.ID); err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return utils.Error(c, fiber.StatusNotFound, "file not found")
		}
		return utils.Error(c, fiber.StatusInternalServerError, "failed deleting file")
	}

	return utils.Success(c, fiber.StatusOK, fiber.Map{"message": "file deleted"})
}
