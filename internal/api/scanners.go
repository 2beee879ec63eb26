package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/thereceipt/desk-engine/internal/logger"
	"github.com/thereceipt/desk-engine/internal/scanner"
	"go.uber.org/zap"
)

// handleGetScanners returns registered readers and their loop state
func (s *Server) handleGetScanners(c *gin.Context) {
	workers := []scanner.WorkerStatus{}
	if s.scanners != nil {
		workers = s.scanners.Status()
	}

	c.JSON(200, gin.H{
		"readers": s.registry.Readers(),
		"workers": workers,
	})
}

// handleAddScanner registers a reader and starts reading from it
func (s *Server) handleAddScanner(c *gin.Context) {
	var req struct {
		Path      string `json:"path" binding:"required"`
		Name      string `json:"name"`
		Automated bool   `json:"automated"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": "path is required"})
		return
	}

	readerID := s.registry.AddReader(req.Path, req.Name, req.Automated)
	s.SyncScanners()

	c.JSON(200, gin.H{
		"success":   true,
		"reader_id": readerID,
		"reader":    s.registry.GetReader(readerID),
	})
}

// handleRemoveScanner forgets a reader and stops its loop
func (s *Server) handleRemoveScanner(c *gin.Context) {
	if !s.registry.RemoveReader(c.Param("id")) {
		c.JSON(404, gin.H{"error": "reader not found"})
		return
	}
	s.SyncScanners()

	c.JSON(200, gin.H{"success": true})
}

// handleGetOrder returns the current session order
func (s *Server) handleGetOrder(c *gin.Context) {
	s.orderMu.RLock()
	order := s.order
	s.orderMu.RUnlock()

	if order == nil {
		c.JSON(404, gin.H{"error": "no order set"})
		return
	}
	c.JSON(200, order)
}

// handleSetOrder stores the order a reader scanned and tells the desk UI.
// Order IDs are accepted in any form ParseOrderID understands.
func (s *Server) handleSetOrder(automated bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := scanner.ParseOrderID(c.Query("order_id"))
		if err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		order := &CurrentOrder{
			OrderID:   id.String(),
			Automated: automated,
			At:        time.Now(),
		}

		s.orderMu.Lock()
		s.order = order
		s.orderMu.Unlock()

		logger.Info("session order set", zap.String("order", order.OrderID), zap.Bool("automated", automated))
		s.hub.Broadcast(EventOrder, order)

		c.JSON(200, gin.H{
			"success": true,
			"order":   order,
		})
	}
}
