package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// OutputMiddleware rejects requests naming an output that is not configured
// and stores the name under the "output" key.
func OutputMiddleware(manager *Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		name := c.Param("name")
		if _, err := manager.lookup(name); err != nil {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{
				"status": "ko",
				"error":  err.Error(),
			})
			return
		}
		c.Set("output", name)
		c.Next()
	}
}
