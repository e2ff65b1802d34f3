package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kiliankoe/storychain/internal/service"
)

func statusFor(k service.Kind) int {
	switch k {
	case service.KindValidation:
		return http.StatusBadRequest
	case service.KindNotFound:
		return http.StatusNotFound
	case service.KindConflict:
		return http.StatusConflict
	case service.KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// writeError renders any error as {"error": message, "code": code}. The
// cause and stack of an internal error are only exposed in dev mode.
func (h *Handler) writeError(c *gin.Context, err error) {
	se := service.AsError(err)
	body := gin.H{"error": se.Message, "code": se.Code}
	if se.Kind == service.KindInternal && h.devMode && se.Err != nil {
		body["detail"] = se.Err.Error()
		body["stack"] = string(se.Stack)
	}
	c.JSON(statusFor(se.Kind), body)
}
