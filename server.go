package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/tr4cks/grove/modules"
)

func newRouter(config *Config, manager *Manager, gatherer prometheus.Gatherer, logger zerolog.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.SetTrustedProxies(nil)

	withAuth := gin.BasicAuth(gin.Accounts{config.Username: config.Password})

	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	api := router.Group("/api")
	{
		api.GET("/outputs", func(c *gin.Context) {
			c.JSON(http.StatusOK, manager.Statuses())
		})

		output := api.Group("/outputs/:name", OutputMiddleware(manager))
		{
			output.GET("/state", func(c *gin.Context) {
				status, err := manager.Status(c.GetString("output"))
				if err != nil {
					c.JSON(http.StatusNotFound, gin.H{"status": "ko", "error": err.Error()})
					return
				}
				if status.Error != "" {
					logger.Error().Str("output", status.Name).Str("error", status.Error).Msg("Failed to retrieve output state")
				}
				c.JSON(http.StatusOK, status)
			})

			switchHandler := func(state modules.State) gin.HandlerFunc {
				return func(c *gin.Context) {
					name := c.GetString("output")
					result, err := manager.Switch(name, state)
					if err == nil {
						err = result.Err
					}
					if err != nil {
						logger.Error().Err(err).Str("output", name).Str("state", state.String()).Msg("Output switch error")
						c.JSON(http.StatusInternalServerError, gin.H{
							"status": "ko",
							"error":  err.Error(),
						})
						return
					}
					c.JSON(http.StatusOK, gin.H{
						"status": "ok",
						"state":  state.String(),
					})
				}
			}

			output.POST("/on", withAuth, switchHandler(modules.StateOn))
			output.POST("/off", withAuth, switchHandler(modules.StateOff))
		}
	}

	return router
}
