package routes

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

func SetupHealthRoutes(router *gin.Engine, deps Dependencies) {
	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "HR RAG Assistant is running"})
	})

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "timestamp": time.Now()})
	})

	router.GET("/ready", func(c *gin.Context) {
		if !deps.Corpus.Ready() {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready", "passages": deps.Corpus.PassageCount()})
	})
}
