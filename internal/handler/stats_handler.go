package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/learnlingo-api/internal/service"
	"github.com/noah-isme/learnlingo-api/pkg/response"
)

const msgStatsFailed = "Failed to fetch stats"

// StatsHandler serves catalog statistics.
type StatsHandler struct {
	stats *service.StatsService
}

// NewStatsHandler constructs a StatsHandler.
func NewStatsHandler(stats *service.StatsService) *StatsHandler {
	return &StatsHandler{stats: stats}
}

// Summary godoc
// @Summary Landing-page counters
// @Tags Stats
// @Produce json
// @Success 200 {object} dto.StatsSummary
// @Failure 500 {object} response.PlainError
// @Router /stats [get]
func (h *StatsHandler) Summary(c *gin.Context) {
	summary, err := h.stats.Summary(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		response.Plain(c, http.StatusInternalServerError, msgStatsFailed)
		return
	}
	response.Raw(c, http.StatusOK, summary)
}

// Details godoc
// @Summary Full catalog statistics
// @Tags Stats
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 503 {object} response.Envelope
// @Router /stats/details [get]
func (h *StatsHandler) Details(c *gin.Context) {
	stats, err := h.stats.Stats(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats)
}
