package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/learnlingo-api/internal/favorites"
	"github.com/noah-isme/learnlingo-api/internal/middleware"
	"github.com/noah-isme/learnlingo-api/internal/models"
	"github.com/noah-isme/learnlingo-api/internal/service"
	"github.com/noah-isme/learnlingo-api/pkg/response"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	return middleware.Claims(c)
}

// resultStatus picks the HTTP status for an action result. The body always
// carries the result itself.
func resultStatus(result models.ActionResult, successStatus int) int {
	if result.Success {
		return successStatus
	}
	switch result.Message {
	case favorites.MsgSignIn, service.MsgNotAuthorized:
		return http.StatusUnauthorized
	case favorites.MsgInProgress, favorites.MsgLoading:
		return http.StatusConflict
	case favorites.MsgLoadFailed:
		return http.StatusServiceUnavailable
	default:
		return http.StatusUnprocessableEntity
	}
}

func writeResult(c *gin.Context, result models.ActionResult, successStatus int) {
	response.JSON(c, resultStatus(result, successStatus), result)
}
