package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/joseph-ayodele/jurisprudence/internal/common"
	"github.com/joseph-ayodele/jurisprudence/internal/similarity"
)

type searchRequest struct {
	Query string `json:"query"`
}

func (h *handler) search(c *gin.Context) {
	var req searchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondMessage(c, http.StatusBadRequest, "INVALID_INPUT", "Requête JSON invalide")
		return
	}
	ctx := c.Request.Context()
	res, err := h.cfg.Search.Search(ctx, req.Query, common.ActorIDFromContext(ctx))
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, res)
}

// searchStream answers with server-sent events. Headers are committed on
// the first event, so an error before that is still a JSON response.
func (h *handler) searchStream(c *gin.Context) {
	var req searchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondMessage(c, http.StatusBadRequest, "INVALID_INPUT", "Requête JSON invalide")
		return
	}

	started := false
	emit := func(ev similarity.Event) {
		if !started {
			c.Header("Content-Type", "text/event-stream")
			c.Header("Cache-Control", "no-cache")
			c.Header("Connection", "keep-alive")
			c.Header("X-Accel-Buffering", "no")
			c.Status(http.StatusOK)
			started = true
		}
		c.SSEvent(ev.Type, ev)
		c.Writer.Flush()
	}

	ctx := c.Request.Context()
	if err := h.cfg.Search.SearchStream(ctx, req.Query, common.ActorIDFromContext(ctx), emit); err != nil {
		if started {
			h.logger.Warn("search.stream.aborted", "error", err)
			return
		}
		RespondError(c, err)
	}
}
