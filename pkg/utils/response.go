package utils

import (
	"github.com/gin-gonic/gin"
)

type APIResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

func SuccessResponse(c *gin.Context, code int, message string, data interface{}) {
	c.JSON(code, APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// ErrorResponse writes the user-facing message under "error", which is the
// field recommendation clients read. The underlying cause, if any, goes to
// "message" so it never replaces the user-facing text.
func ErrorResponse(c *gin.Context, code int, message string, err error) {
	response := APIResponse{
		Success: false,
		Error:   message,
	}

	if err != nil && gin.Mode() == gin.DebugMode {
		response.Message = err.Error()
	}

	c.JSON(code, response)
}
