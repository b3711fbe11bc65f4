package web

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	appErr "gavel/pkg/errors"
	"gavel/pkg/logger"
)

// response is the standard API envelope.
type response struct {
	Code    appErr.ErrorCode `json:"code"`
	Message string           `json:"message"`
	Data    interface{}      `json:"data,omitempty"`
	Details interface{}      `json:"details,omitempty"`
}

func success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, response{
		Code:    appErr.Success,
		Message: "Success",
		Data:    data,
	})
}

// fail extracts the code from err and renders the envelope.
func fail(c *gin.Context, err error) {
	code := appErr.GetCode(err)
	resp := response{
		Code:    code,
		Message: err.Error(),
	}
	if e, ok := err.(*appErr.Error); ok && e.Details != nil {
		resp.Details = e.Details
	}
	if code.HTTPStatus() >= http.StatusInternalServerError {
		logger.Error(c.Request.Context(), "request error",
			zap.Int("code", int(code)), zap.Error(err))
	}
	c.JSON(code.HTTPStatus(), resp)
}
