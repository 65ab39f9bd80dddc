package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	resp "go-gin-mock-users/internal/transport/http/response"
)

// PanicResponse is the gin.RecoveryFunc used after ginzap has logged the panic.
func PanicResponse(c *gin.Context, _ any) {
	c.AbortWithStatusJSON(http.StatusOK, resp.Error(resp.CodeServerError, "internal error"))
}
