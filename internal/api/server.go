// Package api handles HTTP and WebSocket API endpoints
package api

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/thereceipt/desk-engine/internal/command"
	"github.com/thereceipt/desk-engine/internal/device"
	"github.com/thereceipt/desk-engine/internal/logger"
	"github.com/thereceipt/desk-engine/internal/printer"
	"github.com/thereceipt/desk-engine/internal/registry"
	"github.com/thereceipt/desk-engine/internal/scanner"
	"go.uber.org/zap"
)

// Server is the API server
type Server struct {
	router   *gin.Engine
	registry *registry.Registry
	devices  *device.Manager
	queue    *printer.PrintQueue
	scanners *scanner.Supervisor
	executor *command.Executor
	hub      *Hub
	upgrader websocket.Upgrader

	orderMu sync.RWMutex
	order   *CurrentOrder
}

// CurrentOrder is the order last set on the desk session
type CurrentOrder struct {
	OrderID   string    `json:"order_id"`
	Automated bool      `json:"automated"`
	At        time.Time `json:"at"`
}

// NewServer creates a new API server and subscribes it to device and job
// events. scanners may be nil when no readers are supervised.
func NewServer(reg *registry.Registry, devices *device.Manager, queue *printer.PrintQueue, scanners *scanner.Supervisor) *Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery(), requestLogger())
	router.Use(corsMiddleware())

	server := &Server{
		router:   router,
		registry: reg,
		devices:  devices,
		queue:    queue,
		scanners: scanners,
		executor: command.NewExecutor(reg, devices, queue),
		hub:      NewHub(),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // Allow all origins
			},
		},
	}

	devices.OnDeviceAdded(func(d device.Device) {
		server.hub.Broadcast(EventDeviceAdded, d)
	})
	devices.OnDeviceRemoved(func(d device.Device) {
		server.hub.Broadcast(EventDeviceRemoved, d)
	})
	queue.OnJobDone(func(job *printer.PrintJob) {
		event := EventJobCompleted
		if job.Status == printer.JobFailed {
			event = EventJobFailed
		}
		server.hub.Broadcast(event, job)
	})

	server.setupRoutes()

	return server
}

func (s *Server) setupRoutes() {
	// Devices and printers
	s.router.GET("/devices", s.handleGetDevices)
	s.router.GET("/devices/usb", s.handleGetUSBDevices)
	s.router.GET("/printers", s.handleGetPrinters)
	s.router.POST("/printers", s.handleAddPrinter)
	s.router.POST("/printer/:id/name", s.handleSetPrinterName)
	s.router.POST("/printer/:id/config", s.handleSetPrinterConfig)
	s.router.POST("/printer/:id/status", s.handlePrinterStatus)
	s.router.DELETE("/printer/:id", s.handleRemovePrinter)
	s.router.POST("/status/parse", s.handleParseStatus)

	// Labels and jobs
	s.router.POST("/label/preview", s.handlePreview)
	s.router.POST("/label/print", s.handlePrint)
	s.router.GET("/jobs", s.handleGetJobs)
	s.router.GET("/job/:id", s.handleGetJob)
	s.router.POST("/jobs/clear", s.handleClearJobs)

	// Readers and the desk session
	s.router.GET("/scanners", s.handleGetScanners)
	s.router.POST("/scanners", s.handleAddScanner)
	s.router.DELETE("/scanner/:id", s.handleRemoveScanner)
	s.router.GET("/session/my/order", s.handleGetOrder)
	s.router.PUT("/session/my/order", s.handleSetOrder(false))
	s.router.PUT("/session/my/order/automated", s.handleSetOrder(true))

	// Command endpoint
	s.router.POST("/command", s.handleCommand)

	// WebSocket
	s.router.GET("/ws", s.handleWebSocket)

	// Health check
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
}

// Hub returns the event hub
func (s *Server) Hub() *Hub {
	return s.hub
}

// Handler returns the HTTP handler of the API
func (s *Server) Handler() http.Handler {
	return s.router
}

// PublishScan broadcasts a decoded reader scan
func (s *Server) PublishScan(scan scanner.Scan) {
	s.hub.Broadcast(EventScan, scan)
}

// SyncScanners points the reader supervisor at the registered readers
func (s *Server) SyncScanners() {
	if s.scanners == nil {
		return
	}
	readers := s.registry.Readers()
	paths := make([]string, len(readers))
	for i, r := range readers {
		paths[i] = r.Path
	}
	s.scanners.Sync(paths)
}

// handleCommand handles command execution requests
func (s *Server) handleCommand(c *gin.Context) {
	var req struct {
		Command string `json:"command" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": "command is required"})
		return
	}

	result := s.executor.Execute(req.Command)

	if !result.Success {
		c.JSON(400, gin.H{
			"success": false,
			"error":   result.Error,
		})
		return
	}

	response := gin.H{
		"success": true,
	}
	if result.Message != "" {
		response["message"] = result.Message
	}
	for k, v := range result.Data {
		response[k] = v
	}
	c.JSON(200, response)
}

// Run starts the API server
func (s *Server) Run(addr string) error {
	return s.router.Run(addr)
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("http request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("took", time.Since(start)))
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
