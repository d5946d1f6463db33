package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type StatsController struct {
	stats StatsReader
	logs  LogReader
}

func NewStatsController(stats StatsReader, logs LogReader) *StatsController {
	return &StatsController{stats: stats, logs: logs}
}

// GetStats returns the catalog aggregate plus the most recent collection runs.
func (controller *StatsController) GetStats(c *gin.Context) {
	stats, err := controller.stats.GetStats()
	if err != nil {
		c.IndentedJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	recent, err := controller.logs.Recent(10)
	if err != nil {
		c.IndentedJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.IndentedJSON(http.StatusOK, gin.H{
		"stats":       stats,
		"recent_runs": recent,
	})
}
