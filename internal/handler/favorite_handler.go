package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/learnlingo-api/internal/service"
	"github.com/noah-isme/learnlingo-api/pkg/response"
)

// FavoriteHandler exposes the caller's favorites.
type FavoriteHandler struct {
	favorites *service.FavoriteService
}

// NewFavoriteHandler constructs a FavoriteHandler.
func NewFavoriteHandler(favorites *service.FavoriteService) *FavoriteHandler {
	return &FavoriteHandler{favorites: favorites}
}

// List godoc
// @Summary Favorite teacher ids
// @Tags Favorites
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /favorites [get]
func (h *FavoriteHandler) List(c *gin.Context) {
	state, err := h.favorites.State(c.Request.Context(), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, state)
}

// Teachers godoc
// @Summary Favorite teachers
// @Description Full teacher records ordered by teacher id
// @Tags Favorites
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /favorites/teachers [get]
func (h *FavoriteHandler) Teachers(c *gin.Context) {
	list, err := h.favorites.Teachers(c.Request.Context(), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, list)
}

// Toggle godoc
// @Summary Add or remove a favorite
// @Tags Favorites
// @Produce json
// @Param teacherId path string true "Teacher ID"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope "Operation in progress"
// @Failure 422 {object} response.Envelope
// @Failure 503 {object} response.Envelope "Favorites could not be loaded"
// @Router /favorites/{teacherId}/toggle [post]
func (h *FavoriteHandler) Toggle(c *gin.Context) {
	result := h.favorites.Toggle(c.Request.Context(), claimsFromContext(c), c.Param("teacherId"))
	writeResult(c, result, http.StatusOK)
}

// Clear godoc
// @Summary Remove every favorite
// @Tags Favorites
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 503 {object} response.Envelope
// @Router /favorites [delete]
func (h *FavoriteHandler) Clear(c *gin.Context) {
	writeResult(c, h.favorites.Clear(c.Request.Context(), claimsFromContext(c)), http.StatusOK)
}
