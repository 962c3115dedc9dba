package handler

import (
	"net/http"
	"time"

	"flowtasks/internal/util"

	"github.com/gin-gonic/gin"
)

func Health(c *gin.Context) {
	util.SuccessMessage(c, http.StatusOK, "Server is running", gin.H{
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// NotFound answers unmatched routes.
func NotFound(c *gin.Context) {
	util.Error(c, http.StatusNotFound, "Route not found")
}
