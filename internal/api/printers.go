package api

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/thereceipt/desk-engine/internal/command"
	"github.com/thereceipt/desk-engine/internal/printer"
	"github.com/thereceipt/desk-engine/internal/registry"
)

// handleGetDevices returns the device nodes found by the last scan
func (s *Server) handleGetDevices(c *gin.Context) {
	c.JSON(200, gin.H{
		"devices": s.devices.GetAllDevices(),
	})
}

// handleGetUSBDevices lists USB devices, filtered by repeated ?name=
func (s *Server) handleGetUSBDevices(c *gin.Context) {
	devs, err := s.devices.USBDevices(c.QueryArray("name")...)
	if err != nil {
		c.JSON(500, gin.H{"error": err.Error()})
		return
	}

	c.JSON(200, gin.H{"devices": devs})
}

// handleGetPrinters returns all registered printers
func (s *Server) handleGetPrinters(c *gin.Context) {
	c.JSON(200, gin.H{
		"printers": s.registry.Printers(),
	})
}

// handleAddPrinter registers a printer by device path or network address
func (s *Server) handleAddPrinter(c *gin.Context) {
	var req struct {
		Type        string              `json:"type"`
		Device      string              `json:"device"`
		Host        string              `json:"host"`
		Port        int                 `json:"port"`
		Description string              `json:"description"`
		Name        string              `json:"name"`
		Config      *printer.Config     `json:"config"`
		Label       *registry.LabelSize `json:"label"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": err.Error()})
		return
	}

	info := registry.PrinterInfo{
		Type:        req.Type,
		Device:      req.Device,
		Host:        req.Host,
		Port:        req.Port,
		Description: req.Description,
	}

	switch {
	case req.Host != "":
		info.Type = "network"
		// Default port to 9100 if not specified
		if info.Port == 0 {
			info.Port = 9100
		}
		if info.Description == "" {
			info.Description = fmt.Sprintf("Network: %s:%d", info.Host, info.Port)
		}
	case req.Device != "":
		if info.Type == "" {
			info.Type = "device"
		}
		if info.Description == "" {
			info.Description = "Printer: " + req.Device
		}
	default:
		c.JSON(400, gin.H{"error": "device or host is required"})
		return
	}

	// Validate before registering so a bad request leaves no entry behind
	if req.Config != nil {
		if err := req.Config.Validate(); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
	}

	printerID := s.registry.GetPrinterID(info)
	if req.Name != "" {
		s.registry.SetPrinterName(printerID, req.Name)
	}
	if req.Config != nil {
		var label registry.LabelSize
		if req.Label != nil {
			label = *req.Label
		}
		if err := s.registry.SetPrinterConfig(printerID, *req.Config, label); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
	}

	c.JSON(200, gin.H{
		"success":    true,
		"printer_id": printerID,
		"printer":    s.registry.GetPrinterInfo(printerID),
	})
}

// handleSetPrinterName sets a custom name for a printer
func (s *Server) handleSetPrinterName(c *gin.Context) {
	printerID := c.Param("id")

	var req struct {
		Name string `json:"name" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": "name is required"})
		return
	}

	if !s.registry.SetPrinterName(printerID, req.Name) {
		c.JSON(404, gin.H{"error": "printer not found"})
		return
	}

	c.JSON(200, gin.H{"success": true})
}

// handleSetPrinterConfig replaces a printer's command config and label size
func (s *Server) handleSetPrinterConfig(c *gin.Context) {
	printerID := c.Param("id")
	if s.registry.GetPrinterInfo(printerID) == nil {
		c.JSON(404, gin.H{"error": "printer not found"})
		return
	}

	var req struct {
		Config printer.Config     `json:"config"`
		Label  registry.LabelSize `json:"label"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": err.Error()})
		return
	}

	if err := s.registry.SetPrinterConfig(printerID, req.Config, req.Label); err != nil {
		c.JSON(400, gin.H{"error": err.Error()})
		return
	}

	c.JSON(200, gin.H{
		"success": true,
		"printer": s.registry.GetPrinterInfo(printerID),
	})
}

// handleRemovePrinter forgets a printer
func (s *Server) handleRemovePrinter(c *gin.Context) {
	if !s.registry.RemovePrinter(c.Param("id")) {
		c.JSON(404, gin.H{"error": "printer not found"})
		return
	}

	c.JSON(200, gin.H{"success": true})
}

// handlePrinterStatus queries a printer's status reply over its device node
func (s *Server) handlePrinterStatus(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	status, err := s.executor.Status(ctx, c.Param("id"))
	switch {
	case errors.Is(err, command.ErrPrinterNotFound):
		c.JSON(404, gin.H{"error": "printer not found"})
	case errors.Is(err, command.ErrNoDevicePath):
		c.JSON(400, gin.H{"error": err.Error()})
	case errors.Is(err, printer.ErrDeviceNotFound):
		c.JSON(404, gin.H{"error": err.Error()})
	case err != nil:
		c.JSON(500, gin.H{"error": err.Error()})
	default:
		c.JSON(200, gin.H{"status": status})
	}
}

// handleParseStatus decodes a status reply captured elsewhere
func (s *Server) handleParseStatus(c *gin.Context) {
	var req struct {
		Data string `json:"data" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": "data is required"})
		return
	}

	raw, err := base64.StdEncoding.DecodeString(req.Data)
	if err != nil {
		c.JSON(400, gin.H{"error": fmt.Sprintf("invalid base64: %v", err)})
		return
	}

	status, err := printer.ParseStatus(raw)
	if err != nil {
		c.JSON(400, gin.H{"error": err.Error()})
		return
	}

	c.JSON(200, gin.H{"status": status})
}
