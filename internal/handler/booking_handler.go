package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/learnlingo-api/internal/models"
	"github.com/noah-isme/learnlingo-api/internal/service"
	"github.com/noah-isme/learnlingo-api/pkg/response"
)

const msgInvalidBooking = "Invalid booking request"

// BookingHandler accepts lesson bookings.
type BookingHandler struct {
	bookings *service.BookingService
}

// NewBookingHandler constructs a BookingHandler.
func NewBookingHandler(bookings *service.BookingService) *BookingHandler {
	return &BookingHandler{bookings: bookings}
}

// Create godoc
// @Summary Book a lesson
// @Description A trial booking carries a reason; a scheduled booking carries date and time.
// @Tags Bookings
// @Accept json
// @Produce json
// @Param payload body models.BookingInput true "Booking"
// @Success 201 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /bookings [post]
func (h *BookingHandler) Create(c *gin.Context) {
	var in models.BookingInput
	if err := c.ShouldBindJSON(&in); err != nil {
		writeResult(c, models.Failed(msgInvalidBooking), http.StatusCreated)
		return
	}
	var user *models.AuthUser
	if claims := claimsFromContext(c); claims != nil {
		user = claims.AuthUser()
	}
	writeResult(c, h.bookings.Submit(c.Request.Context(), user, in), http.StatusCreated)
}

// List godoc
// @Summary The caller's bookings, newest first
// @Tags Bookings
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /bookings [get]
func (h *BookingHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	bookings, err := h.bookings.List(c.Request.Context(), claims.AuthUser())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, bookings)
}

// Export godoc
// @Summary Download the caller's bookings
// @Tags Bookings
// @Produce text/csv
// @Produce application/pdf
// @Param format query string false "csv (default) or pdf"
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /bookings/export [get]
func (h *BookingHandler) Export(c *gin.Context) {
	doc, err := h.bookings.Export(c.Request.Context(), claimsFromContext(c).AuthUser(), c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", doc.Filename))
	c.Data(http.StatusOK, doc.ContentType, doc.Body)
}
