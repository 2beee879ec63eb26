package api

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	"github.com/gin-gonic/gin"
	"github.com/thereceipt/desk-engine/internal/command"
	"github.com/thereceipt/desk-engine/internal/renderer"
	"github.com/thereceipt/desk-engine/pkg/labelformat"
)

// labelRequest names a template inline, by path or by URL
type labelRequest struct {
	PrinterID string             `json:"printer_id" binding:"required"`
	Label     *labelformat.Label `json:"label"`
	LabelPath string             `json:"label_path"`
	LabelURL  string             `json:"label_url"`
	Values    map[string]string  `json:"values"`
}

func (r *labelRequest) load() (*labelformat.Label, error) {
	switch {
	case r.LabelURL != "":
		return command.LoadLabel(r.LabelURL)
	case r.LabelPath != "":
		return command.LoadLabel(r.LabelPath)
	case r.Label != nil:
		return r.Label, nil
	default:
		return nil, errors.New("label, label_path, or label_url is required")
	}
}

func labelError(c *gin.Context, err error) {
	if errors.Is(err, command.ErrPrinterNotFound) {
		c.JSON(404, gin.H{"error": "printer not found"})
		return
	}
	c.JSON(400, gin.H{"error": err.Error()})
}

// handlePreview renders a label and returns the PNG and the printer bytes
func (s *Server) handlePreview(c *gin.Context) {
	var req labelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": err.Error()})
		return
	}

	label, err := req.load()
	if err != nil {
		c.JSON(400, gin.H{"error": err.Error()})
		return
	}

	img, data, err := s.executor.Preview(req.PrinterID, label, req.Values)
	if err != nil {
		labelError(c, err)
		return
	}

	var png bytes.Buffer
	if err := imaging.Encode(&png, img, imaging.PNG); err != nil {
		c.JSON(500, gin.H{"error": fmt.Sprintf("failed to encode preview: %v", err)})
		return
	}

	c.JSON(200, gin.H{
		"width":  img.Bounds().Dx(),
		"height": img.Bounds().Dy(),
		"image":  base64.StdEncoding.EncodeToString(png.Bytes()),
		"data":   base64.StdEncoding.EncodeToString(data),
	})
}

// handlePrint queues a label template or pre-rendered base64 images
func (s *Server) handlePrint(c *gin.Context) {
	var req struct {
		labelRequest
		Images []string `json:"images"`
		Copies int      `json:"copies"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": err.Error()})
		return
	}

	var jobID string
	if len(req.Images) > 0 {
		imgs := make([]image.Image, len(req.Images))
		for i, b64 := range req.Images {
			img, err := renderer.DecodeImage(b64)
			if err != nil {
				c.JSON(400, gin.H{"error": fmt.Sprintf("images[%d]: %v", i, err)})
				return
			}
			imgs[i] = img
		}

		id, err := s.executor.PrintImages(req.PrinterID, imgs...)
		if err != nil {
			labelError(c, err)
			return
		}
		jobID = id
	} else {
		label, err := req.load()
		if err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		id, err := s.executor.PrintLabel(req.PrinterID, label, req.Values, req.Copies)
		if err != nil {
			labelError(c, err)
			return
		}
		jobID = id
	}

	c.JSON(200, gin.H{
		"success": true,
		"job_id":  jobID,
	})
}

// handleGetJobs returns all print jobs
func (s *Server) handleGetJobs(c *gin.Context) {
	c.JSON(200, gin.H{"jobs": s.queue.GetAllJobs()})
}

// handleGetJob returns a specific print job
func (s *Server) handleGetJob(c *gin.Context) {
	job := s.queue.GetJob(c.Param("id"))
	if job == nil {
		c.JSON(404, gin.H{"error": "job not found"})
		return
	}

	c.JSON(200, job)
}

// handleClearJobs drops finished jobs from the queue
func (s *Server) handleClearJobs(c *gin.Context) {
	s.queue.ClearCompleted()
	c.JSON(200, gin.H{"success": true})
}
