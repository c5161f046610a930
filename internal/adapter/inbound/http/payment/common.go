package paymenthttp

import (
	"github.com/alxtravel/server/internal/shared/middleware"
	"github.com/alxtravel/server/internal/shared/response"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// getUserID returns the authenticated user ID, or 0 when absent.
func getUserID(c *gin.Context) uint64 {
	return middleware.GetUserID(c)
}

// handleError writes err as an error response and logs server-side failures.
func (h *PaymentHandler) handleError(c *gin.Context, err error) {
	status, _ := response.Describe(err)
	if status >= 500 {
		h.logger.Error("payment request failed",
			zap.String("path", c.FullPath()),
			zap.String("request_id", middleware.GetRequestID(c)),
			zap.Error(err))
	}
	_ = c.Error(err)
	response.Error(c, err)
}
