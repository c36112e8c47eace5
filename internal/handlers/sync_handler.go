package handlers

import (
	"io"
	"net/http"

	"pos_manager/internal/connectivity"
	"pos_manager/internal/gateway"
	"pos_manager/internal/offline"

	"github.com/gin-gonic/gin"
)

type SyncHandler struct {
	queue   *offline.Queue
	monitor *connectivity.Monitor
	gw      gateway.Gateway
}

func NewSyncHandler(queue *offline.Queue, monitor *connectivity.Monitor, gw gateway.Gateway) *SyncHandler {
	return &SyncHandler{queue: queue, monitor: monitor, gw: gw}
}

func (h *SyncHandler) Status(c *gin.Context) {
	pending, err := h.queue.Pending()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	deadLetters, err := h.queue.DeadLetters()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"online":          h.monitor.IsOnline(),
		"probe_suspended": h.monitor.Overridden(),
		"pending":         pending,
		"dead_letters":    deadLetters,
	})
}

func (h *SyncHandler) Flush(c *gin.Context) {
	result, err := h.queue.Flush(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": result})
}

// SetConnectivity forces the signal by hand. A manual toggle suspends
// the background probe so it does not flip the signal back on the next
// tick; pass resume_probe to hand control back to the probe.
func (h *SyncHandler) SetConnectivity(c *gin.Context) {
	var req struct {
		Online      *bool `json:"online"`
		ResumeProbe bool  `json:"resume_probe"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}
	if req.Online == nil && !req.ResumeProbe {
		c.JSON(http.StatusBadRequest, gin.H{"error": "online or resume_probe is required"})
		return
	}

	if req.Online != nil {
		h.monitor.SetOnline(*req.Online)
	}
	if req.ResumeProbe {
		h.monitor.ResumeProbe()
	}
	c.JSON(http.StatusOK, gin.H{
		"online":          h.monitor.IsOnline(),
		"probe_suspended": h.monitor.Overridden(),
	})
}

// Realtime streams gateway change events for a collection as SSE.
func (h *SyncHandler) Realtime(c *gin.Context) {
	collection := c.Param("collection")
	ctx := c.Request.Context()

	events := make(chan gateway.ChangeEvent)
	err := h.gw.Subscribe(ctx, collection, func(event gateway.ChangeEvent) {
		select {
		case events <- event:
		case <-ctx.Done():
		}
	})
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case event := <-events:
			c.SSEvent("change", event)
			return true
		}
	})
}
