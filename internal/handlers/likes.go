package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/pulsefeed/backend/internal/middleware"
	"github.com/pulsefeed/backend/internal/models"
	"github.com/pulsefeed/backend/pkg/utils"
	"gorm.io/gorm"
)

type LikesHandler struct {
	DB *gorm.DB
}

func NewLikesHandler(db *gorm.DB) *LikesHandler {
	return &LikesHandler{DB: db}
}

// Toggle likes the post if the caller has not liked it yet, otherwise
// removes the like. The like relation and the returned count come from the
// same transaction. Two interleaved toggles from the same caller can both
// miss the existing-row lookup; the loser's insert then trips the
// (user_id, post_id) unique index, which is reported as the liked state the
// winner produced rather than as a failure.
func (h *LikesHandler) Toggle(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

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

	var liked bool
	var totalLikes int64
	err = h.DB.Transaction(func(tx *gorm.DB) error {
		var like models.Like
		err := tx.Where("user_id = ? AND post_id = ?", currentUser.ID, postID).First(&like).Error

		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			liked = true
			if err := tx.Create(&models.Like{UserID: currentUser.ID, PostID: postID}).Error; err != nil {
				return err
			}
		case err == nil:
			liked = false
			if err := tx.Delete(&models.Like{}, "id = ?", like.ID).Error; err != nil {
				return err
			}
		default:
			return err
		}

		return tx.Model(&models.Like{}).Where("post_id = ?", postID).Count(&totalLikes).Error
	})
	if err != nil {
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return utils.Error(c, fiber.StatusInternalServerError, "failed toggling like")
		}
		liked = true
		if err := h.DB.Model(&models.Like{}).Where("post_id = ?", postID).Count(&totalLikes).Error; err != nil {
			return utils.Error(c, fiber.StatusInternalServerError, "failed counting likes")
		}
	}

	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"liked":      liked,
		"totalLikes": totalLikes,
	})
}
