package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/learnlingo-api/internal/models"
	"github.com/noah-isme/learnlingo-api/internal/service"
	appErrors "github.com/noah-isme/learnlingo-api/pkg/errors"
	"github.com/noah-isme/learnlingo-api/pkg/response"
)

// ReviewHandler manages teacher reviews.
type ReviewHandler struct {
	reviews *service.ReviewService
}

// NewReviewHandler constructs a ReviewHandler.
func NewReviewHandler(reviews *service.ReviewService) *ReviewHandler {
	return &ReviewHandler{reviews: reviews}
}

// Create godoc
// @Summary Review a teacher
// @Tags Reviews
// @Accept json
// @Produce json
// @Param id path string true "Teacher ID"
// @Param payload body models.CreateReviewRequest true "Review"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /teachers/{id}/reviews [post]
func (h *ReviewHandler) Create(c *gin.Context) {
	var req models.CreateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid review payload"))
		return
	}
	teacher, err := h.reviews.Add(c.Request.Context(), claimsFromContext(c).AuthUser(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, teacher)
}

// Delete godoc
// @Summary Remove a review
// @Tags Reviews
// @Produce json
// @Param id path string true "Teacher ID"
// @Param index path int true "Review position"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /teachers/{id}/reviews/{index} [delete]
func (h *ReviewHandler) Delete(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "review index must be a number"))
		return
	}
	teacher, err := h.reviews.Delete(c.Request.Context(), c.Param("id"), index)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, teacher)
}
