package http

import (
	"github.com/gin-gonic/gin"

	"github.com/wnghdcjfe/card/internal/database"
)

// RouterConfig contains the dependencies the router wires into controllers.
type RouterConfig struct {
	Database *database.Database

	CardStore  CardReader
	StatsStore StatsReader
	LogStore   LogReader

	// TaskQueue is nil when background tasks are disabled; the collect
	// endpoint then rejects requests.
	TaskQueue TaskEnqueuer

	Version string
}

// NewRouter creates and configures the HTTP router with all endpoints.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	health := NewHealthController(cfg.Database, cfg.Version)
	cardsController := NewCardsController(cfg.CardStore)
	statsController := NewStatsController(cfg.StatsStore, cfg.LogStore)
	collectController := NewCollectController(cfg.TaskQueue)

	router.GET("/health", health.Status)

	api := router.Group("/api")
	{
		api.GET("/cards", cardsController.ListCards)
		api.GET("/cards/search", cardsController.SearchCards)
		api.GET("/cards/:idx", cardsController.GetCard)
		api.GET("/stats", statsController.GetStats)
		api.POST("/collect", collectController.TriggerCollect)
	}

	return router
}
