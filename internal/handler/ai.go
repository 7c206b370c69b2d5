package handler

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"RescueHub/pkg/response"
)

const aiRequestTimeout = 90 * time.Second

type analyzeTextRequest struct {
	Text         string `json:"text" binding:"required"`
	AnalysisType string `json:"analysis_type"` // classify (default) | situation_report
}

type analyzeImageRequest struct {
	ImageDataURL string `json:"image_data_url" binding:"required"`
	Context      string `json:"context"`
}

type rescuePlanRequest struct {
	EmergencyType      string   `json:"emergency_type" binding:"required"`
	Description        string   `json:"description" binding:"required"`
	Location           string   `json:"location"`
	ResourcesAvailable []string `json:"resources_available"`
}

func (h *Handlers) aiContext(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), aiRequestTimeout)
}

func (h *Handlers) AnalyzeText(c *gin.Context) {
	if _, ok := h.currentUser(c); !ok {
		return
	}
	var in analyzeTextRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		response.BadRequest(c, "text is required")
		return
	}
	ctx, cancel := h.aiContext(c)
	defer cancel()

	if in.AnalysisType == "situation_report" {
		response.Success(c, "ok", h.ai.AnalyzeSituationReport(ctx, in.Text))
		return
	}
	response.Success(c, "ok", h.ai.ClassifyEmergency(ctx, in.Text))
}

func (h *Handlers) AnalyzeVoice(c *gin.Context) {
	if _, ok := h.currentUser(c); !ok {
		return
	}
	file, err := c.FormFile("file")
	if err != nil {
		response.BadRequest(c, "audio file field is required")
		return
	}
	src, err := file.Open()
	if err != nil {
		h.fail(c, err)
		return
	}
	defer src.Close()

	ctx, cancel := h.aiContext(c)
	defer cancel()

	transcript, analysis, err := h.ai.AnalyzeVoice(ctx, file.Filename, src)
	if err != nil {
		response.BadRequest(c, "transcription failed: "+err.Error())
		return
	}
	response.Success(c, "ok", gin.H{"transcription": transcript, "analysis": analysis})
}

func (h *Handlers) AnalyzeImage(c *gin.Context) {
	if _, ok := h.currentUser(c); !ok {
		return
	}
	var in analyzeImageRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		response.BadRequest(c, "image_data_url is required")
		return
	}
	ctx, cancel := h.aiContext(c)
	defer cancel()
	response.Success(c, "ok", h.ai.AnalyzeImage(ctx, in.ImageDataURL, in.Context))
}

func (h *Handlers) GenerateRescuePlan(c *gin.Context) {
	if _, ok := h.currentUser(c); !ok {
		return
	}
	var in rescuePlanRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		response.BadRequest(c, "emergency_type and description are required")
		return
	}
	ctx, cancel := h.aiContext(c)
	defer cancel()
	plan := h.ai.GenerateRescuePlan(ctx, in.EmergencyType, in.Description, in.Location, in.ResourcesAvailable)
	response.Success(c, "ok", plan)
}

func (h *Handlers) Transcribe(c *gin.Context) {
	if _, ok := h.currentUser(c); !ok {
		return
	}
	file, err := c.FormFile("file")
	if err != nil {
		response.BadRequest(c, "audio file field is required")
		return
	}
	src, err := file.Open()
	if err != nil {
		h.fail(c, err)
		return
	}
	defer src.Close()

	ctx, cancel := h.aiContext(c)
	defer cancel()

	transcript, err := h.ai.Transcribe(ctx, file.Filename, src)
	if err != nil {
		response.BadRequest(c, "transcription failed: "+err.Error())
		return
	}
	response.Success(c, "ok", gin.H{"transcription": transcript})
}

// AITest reports provider availability with a tiny round trip.
func (h *Handlers) AITest(c *gin.Context) {
	if _, ok := h.currentUser(c); !ok {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), 15*time.Second)
	defer cancel()

	status := gin.H{"provider": h.ai.ProviderName(), "available": true}
	if err := h.ai.Ping(ctx); err != nil {
		status["available"] = false
		status["error"] = err.Error()
	}
	response.Success(c, "ok", status)
}
