package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/learnlingo-api/internal/catalog"
	"github.com/noah-isme/learnlingo-api/internal/dto"
	"github.com/noah-isme/learnlingo-api/internal/service"
	"github.com/noah-isme/learnlingo-api/pkg/response"
)

const (
	msgTeachersFailed = "Failed to fetch teachers"
	msgInvalidPrice   = "invalid price filter"
)

// TeacherHandler serves the public catalog.
type TeacherHandler struct {
	teachers *service.TeacherService
}

// NewTeacherHandler constructs a new TeacherHandler.
func NewTeacherHandler(teachers *service.TeacherService) *TeacherHandler {
	return &TeacherHandler{teachers: teachers}
}

// List godoc
// @Summary List teachers
// @Description Filters are conjunctive; "all" or an empty value disables a filter. A limit of 0 returns every match.
// @Tags Teachers
// @Produce json
// @Param language query string false "Language taught"
// @Param level query string false "Student level"
// @Param price query number false "Maximum price per hour"
// @Param search query string false "Free-text search"
// @Param offset query int false "Items to skip"
// @Param limit query int false "Page size"
// @Success 200 {object} dto.TeachersResponse
// @Failure 400 {object} response.PlainError
// @Failure 500 {object} response.PlainError
// @Router /teachers [get]
func (h *TeacherHandler) List(c *gin.Context) {
	filter, ok := parseFilter(teacherQuery(c))
	if !ok {
		response.Plain(c, http.StatusBadRequest, msgInvalidPrice)
		return
	}

	page, err := h.teachers.List(c.Request.Context(), filter)
	if err != nil {
		_ = c.Error(err)
		response.Plain(c, http.StatusInternalServerError, msgTeachersFailed)
		return
	}
	response.Raw(c, http.StatusOK, dto.TeachersResponse{Teachers: page.Teachers, TotalCount: page.TotalCount})
}

// Get godoc
// @Summary Get teacher detail
// @Tags Teachers
// @Produce json
// @Param id path string true "Teacher ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /teachers/{id} [get]
func (h *TeacherHandler) Get(c *gin.Context) {
	teacher, err := h.teachers.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, teacher)
}

// teacherQuery reads the listing parameters. Repeated keys keep their first value.
func teacherQuery(c *gin.Context) dto.TeacherQuery {
	return dto.TeacherQuery{
		Limit:    c.Query("limit"),
		Offset:   c.Query("offset"),
		Language: c.Query("language"),
		Level:    c.Query("level"),
		Price:    c.Query("price"),
		Search:   c.Query("search"),
	}
}

// parseFilter reads listing parameters. Unparseable limit and offset fall
// back to 0; an unparseable or negative price is rejected.
func parseFilter(q dto.TeacherQuery) (catalog.Filter, bool) {
	filter := catalog.Filter{
		Language: strings.TrimSpace(q.Language),
		Level:    strings.TrimSpace(q.Level),
		Search:   strings.TrimSpace(q.Search),
		Offset:   atoiOrZero(q.Offset),
		Limit:    atoiOrZero(q.Limit),
	}
	if price := strings.TrimSpace(q.Price); price != "" && price != catalog.All {
		value, err := strconv.ParseFloat(price, 64)
		if err != nil || value < 0 {
			return catalog.Filter{}, false
		}
		filter.MaxPrice = value
	}
	return filter, true
}

func atoiOrZero(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 0 {
		return 0
	}
	return n
}
