package response

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/alxtravel/server/internal/model"
	apperrors "github.com/alxtravel/server/internal/shared/errors"
	"github.com/gin-gonic/gin"
)

// Error writes err as a model.ErrorResponse with the status its kind maps to.
// Unclassified errors are reported as 500 without exposing their text.
func Error(c *gin.Context, err error) {
	status, body := Describe(err)
	c.JSON(status, body)
}

// Abort writes err like Error and stops the handler chain.
func Abort(c *gin.Context, err error) {
	status, body := Describe(err)
	c.AbortWithStatusJSON(status, body)
}

// Describe maps err to an HTTP status and error body.
func Describe(err error) (int, model.ErrorResponse) {
	if gwErr, ok := apperrors.AsGatewayError(err); ok {
		body := model.ErrorResponse{
			Code:    gwErr.Code(),
			Message: "payment gateway request failed",
		}
		if gwErr.Timeout() {
			body.Message = "payment gateway timed out"
		}
		if details := gatewayDetails(gwErr); details != nil {
			body.Details = details
		}
		return gwErr.StatusCodeHint(), body
	}

	var appErr *apperrors.AppError
	if errors.As(err, &appErr) && appErr.StatusCode != 0 && appErr.StatusCode < http.StatusInternalServerError {
		body := model.ErrorResponse{Code: appErr.Code, Message: appErr.Message}
		if len(appErr.Details) > 0 {
			body.Details = appErr.Details
		}
		return appErr.StatusCode, body
	}

	return http.StatusInternalServerError, model.ErrorResponse{
		Code:    "internal_error",
		Message: "internal server error",
	}
}

// gatewayDetails returns the provider payload, decoded when it is JSON.
func gatewayDetails(gwErr *apperrors.GatewayError) any {
	details := map[string]any{"provider": gwErr.Provider}
	if gwErr.StatusCode != 0 {
		details["status_code"] = gwErr.StatusCode
	}
	if len(gwErr.Payload) > 0 {
		var payload any
		if json.Unmarshal(gwErr.Payload, &payload) == nil {
			details["payload"] = payload
		} else {
			details["payload"] = string(gwErr.Payload)
		}
	}
	return details
}
