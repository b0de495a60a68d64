package handlers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/pulsefeed/backend/internal/middleware"
	"github.com/pulsefeed/backend/internal/models"
	"github.com/pulsefeed/backend/internal/services"
	"github.com/pulsefeed/backend/pkg/utils"
	"gorm.io/gorm"
)

type PostsHandler struct {
	DB      *gorm.DB
	Cascade *services.CascadeService
}

func NewPostsHandler(db *gorm.DB, cascade *services.CascadeService) *PostsHandler {
	return &PostsHandler{DB: db, Cascade: cascade}
}

type createPostRequest struct {
	Content string `json:"content"`
}

func (h *PostsHandler) Create(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	var req createPostRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	content := strings.TrimSpace(req.Content)
	if content == "" {
		return utils.Error(c, fiber.StatusBadRequest, "content is required")
	}

	post := models.Post{
		UserID:  currentUser.ID,
		Content: content,
	}
	if err := h.DB.Create(&post).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed creating post")
	}

	return utils.Success(c, fiber.StatusCreated, post)
}

func (h *PostsHandler) Get(c *fiber.Ctx) error {
	postID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid post id")
	}

	var post models.Post
	if err := h.DB.Preload("User").Preload("File").First(&post, "id = ?", postID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.Error(c, fiber.StatusNotFound, "post not found")
		}
		return utils.Error(c, fiber.StatusInternalServerError, "failed loading post")
	}

	h.DB.Model(&models.Comment{}).Where("post_id = ?", post.ID).Count(&post.CommentCount)
	h.DB.Model(&models.Like{}).Where("post_id = ?", post.ID).Count(&post.LikeCount)

	return utils.Success(c, fiber.StatusOK, post)
}

func (h *PostsHandler) List(c *fiber.Ctx) error {
	page := c.QueryInt("page", 1)
	if page < 1 {
		page = 1
	}
	limit := c.QueryInt("limit", 20)
	if limit < 1 || limit > 100 {
		limit = 20
	}

	userIDRaw := strings.TrimSpace(c.Query("userID"))

	query := h.DB.Model(&models.Post{})
	if userIDRaw != "" {
		userID, err := parseUUID(userIDRaw)
		if err != nil {
			return utils.Error(c, fiber.StatusBadRequest, "invalid userID")
		}
		query = query.Where("user_id = ?", userID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed counting posts")
	}

	var posts []models.Post
	if err := query.
		Preload("User").
		Preload("File").
		Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&posts).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed listing posts")
	}

	return utils.Paginated(c, posts, utils.NewPageMeta(page, limit, total))
}

func (h *PostsHandler) Delete(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	postID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid post id")
	}

	deleted, err := h.Cascade.DeletePost(c.Context(), postID, currentUser.ID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrNotFound):
			return utils.Error(c, fiber.StatusNotFound, "post not found")
		case errors.Is(err, services.ErrForbidden):
			return utils.Error(c, fiber.StatusForbidden, "only the author can delete a post")
		default:
			return utils.Error(c, fiber.StatusInternalServerError, "failed deleting post")
		}
	}

	return utils.Success(c, fiber.StatusOK, fiber.Map{"deletedPost": deleted})
}
