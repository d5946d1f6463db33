package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type CollectController struct {
	queue TaskEnqueuer
}

func NewCollectController(queue TaskEnqueuer) *CollectController {
	return &CollectController{queue: queue}
}

type collectRequest struct {
	Mode    string `json:"mode"`
	Term    string `json:"term"`
	CardGb  string `json:"card_gb"`
	Limit   int    `json:"limit"`
	Chart   string `json:"chart"`
	CardIdx int    `json:"card_idx"`
}

// TriggerCollect enqueues a background collection run. The run executes on
// the task queue; this endpoint only accepts the request.
func (controller *CollectController) TriggerCollect(c *gin.Context) {
	if controller.queue == nil {
		c.IndentedJSON(http.StatusServiceUnavailable, gin.H{"error": "task queue is not enabled"})
		return
	}

	var req collectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.IndentedJSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	switch req.Mode {
	case "", "ranking", "list":
	case "detail":
		if req.CardIdx <= 0 {
			c.IndentedJSON(http.StatusBadRequest, gin.H{"error": "detail mode requires a positive card_idx"})
			return
		}
	default:
		c.IndentedJSON(http.StatusBadRequest, gin.H{"error": "mode must be ranking, list or detail"})
		return
	}

	if err := controller.queue.EnqueueCollect(req.Mode, req.Term, req.CardGb, req.Limit, req.Chart, req.CardIdx); err != nil {
		c.IndentedJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.IndentedJSON(http.StatusAccepted, gin.H{"status": "queued"})
}
