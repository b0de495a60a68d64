package handlers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/pulsefeed/backend/internal/middleware"
	"github.com/pulsefeed/backend/internal/models"
	"github.com/pulsefeed/backend/pkg/utils"
	"gorm.io/gorm"
)

type CommentsHandler struct {
	DB *gorm.DB
}

func NewCommentsHandler(db *gorm.DB) *CommentsHandler {
	return &CommentsHandler{DB: db}
}

type createCommentRequest struct {
	Content string `json:"content"`
}

func (h *CommentsHandler) Create(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	postID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid post id")
	}

	var req createCommentRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return utils.Error(c, fiber.StatusBadRequest, "content is required")
	}

	var count int64
	if err := h.DB.Model(&models.Post{}).Where("id = ?", postID).Count(&count).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed checking post")
	}
	if count == 0 {
		return utils.Error(c, fiber.StatusNotFound, "post not found")
	}

	comment := models.Comment{
		UserID:  currentUser.ID,
		PostID:  postID,
		Content: content,
	}
	if err := h.DB.Create(&comment).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed creating comment")
	}

	return utils.Success(c, fiber.StatusCreated, comment)
}

func (h *CommentsHandler) ListForPost(c *fiber.Ctx) error {
	postID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid post id")
	}

	var count int64
	if err := h.DB.Model(&models.Post{}).Where("id = ?", postID).Count(&count).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed checking post")
	}
	if count == 0 {
		return utils.Error(c, fiber.StatusNotFound, "post not found")
	}

	var comments []models.Comment
	if err := h.DB.Preload("User").Where("post_id = ?", postID).Order("created_at ASC").Find(&comments).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed listing comments")
	}

	return utils.Success(c, fiber.StatusOK, comments)
}

func (h *CommentsHandler) Delete(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	commentID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid comment id")
	}

	var comment models.Comment
	if err := h.DB.First(&comment, "id = ?", commentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.Error(c, fiber.StatusNotFound, "comment not found")
		}
		return utils.Error(c, fiber.StatusInternalServerError, "failed loading comment")
	}

	if comment.UserID != currentUser.ID {
		return utils.Error(c, fiber.StatusForbidden, "only the author can delete a comment")
	}

	if err := h.DB.Delete(&models.Comment{}, "id = ?", comment.ID).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed deleting comment")
	}

	return utils.Success(c, fiber.StatusOK, fiber.Map{"message": "comment deleted"})
}
