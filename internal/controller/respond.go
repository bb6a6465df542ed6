package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/slotswap/swap_backend/internal/apperr"
)

// writeError транслирует вид бизнес-ошибки в HTTP-статус.
// Единственное место, где виды ошибок встречаются со статусами.
func writeError(c *gin.Context, logger *zap.Logger, err error) {
	kind := apperr.KindOf(err)

	var status int
	switch kind {
	case apperr.KindValidation:
		status = http.StatusBadRequest
	case apperr.KindUnauthorized:
		status = http.StatusUnauthorized
	case apperr.KindForbidden:
		status = http.StatusForbidden
	case apperr.KindNotFound:
		status = http.StatusNotFound
	case apperr.KindConflict:
		status = http.StatusConflict
	default:
		// KindTransaction и неклассифицированные ошибки наружу не раскрываем
		logger.Error("Request failed",
			zap.String("kind", kind.String()),
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.JSON(status, gin.H{"error": err.Error()})
}

// callerID достаёт id пользователя, положенный auth-middleware
func callerID(c *gin.Context) int64 {
	return c.GetInt64(ctxUserIDKey)
}
