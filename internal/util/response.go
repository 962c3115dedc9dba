package util

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Envelope is the wire shape of every API response.
type Envelope struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Count   *int        `json:"count,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// Success 统一成功返回
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Envelope{Success: true, Data: data})
}

// SuccessMessage answers with an explicit status and a human-readable message.
func SuccessMessage(c *gin.Context, status int, msg string, data interface{}) {
	c.JSON(status, Envelope{Success: true, Message: msg, Data: data})
}

// SuccessList answers a collection together with its size.
func SuccessList(c *gin.Context, n int, data interface{}) {
	c.JSON(http.StatusOK, Envelope{Success: true, Count: &n, Data: data})
}

// Error 统一错误返回
func Error(c *gin.Context, httpStatus int, msg string) {
	c.JSON(httpStatus, Envelope{Success: false, Message: msg})
}

// Abort writes an error envelope and stops the handler chain.
func Abort(c *gin.Context, httpStatus int, msg string) {
	c.AbortWithStatusJSON(httpStatus, Envelope{Success: false, Message: msg})
}
