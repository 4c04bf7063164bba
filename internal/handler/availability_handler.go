package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/kairos-app/kairos-api/internal/models"
	"github.com/kairos-app/kairos-api/internal/service"
	"github.com/kairos-app/kairos-api/pkg/response"
)

type availabilityService interface {
	ResolveParticipant(ctx context.Context, participantID, from, to string) (*service.ParticipantAvailability, error)
	ResolveGroup(ctx context.Context, participantIDs []string, from, to string) (*service.GroupAvailability, error)
}

type exportService interface {
	GenerateAvailability(ctx context.Context, participantID, from, to string, format models.ExportFormat) (*service.ExportResult, error)
	ResolveDownload(token string) (*service.Download, error)
}

// AvailabilityHandler serves resolved availability windows, group overlap
// views and file exports.
type AvailabilityHandler struct {
	availability availabilityService
	exports      exportService
}

// NewAvailabilityHandler builds a new handler.
func NewAvailabilityHandler(availability availabilityService, exports exportService) *AvailabilityHandler {
	return &AvailabilityHandler{availability: availability, exports: exports}
}

// GetParticipant godoc
// @Summary Resolved availability for a participant
// @Tags Availability
// @Produce json
// @Param id path string true "Participant ID"
// @Param from query string true "Window start (YYYY-MM-DD)"
// @Param to query string true "Window end (YYYY-MM-DD, inclusive)"
// @Success 200 {object} response.Envelope
// @Router /participants/{id}/availability [get]
func (h *AvailabilityHandler) GetParticipant(c *gin.Context) {
	result, err := h.availability.ResolveParticipant(c.Request.Context(), c.Param("id"), c.Query("from"), c.Query("to"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// GetGroup godoc
// @Summary Per-date overlap counts for a set of participants
// @Tags Availability
// @Produce json
// @Param ids query string true "Comma-separated participant IDs"
// @Param from query string true "Window start (YYYY-MM-DD)"
// @Param to query string true "Window end (YYYY-MM-DD, inclusive)"
// @Success 200 {object} response.Envelope
// @Router /availability/group [get]
func (h *AvailabilityHandler) GetGroup(c *gin.Context) {
	var ids []string
	for _, raw := range strings.Split(c.Query("ids"), ",") {
		if id := strings.TrimSpace(raw); id != "" {
			ids = append(ids, id)
		}
	}
	result, err := h.availability.ResolveGroup(c.Request.Context(), ids, c.Query("from"), c.Query("to"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Export godoc
// @Summary Export resolved availability as CSV or PDF
// @Tags Availability
// @Produce json
// @Param id path string true "Participant ID"
// @Param format query string true "csv or pdf"
// @Param from query string true "Window start (YYYY-MM-DD)"
// @Param to query string true "Window end (YYYY-MM-DD, inclusive)"
// @Success 200 {object} response.Envelope
// @Router /participants/{id}/availability/export [get]
func (h *AvailabilityHandler) Export(c *gin.Context) {
	format := models.ExportFormat(strings.ToLower(c.DefaultQuery("format", string(models.ExportFormatCSV))))
	result, err := h.exports.GenerateAvailability(c.Request.Context(), c.Param("id"), c.Query("from"), c.Query("to"), format)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{
		"url":        result.URL,
		"format":     result.Format,
		"expires_at": result.ExpiresAt,
	}, nil)
}

// Download godoc
// @Summary Serve a previously exported file
// @Tags Availability
// @Param token path string true "Signed download token"
// @Success 200 {file} binary
// @Router /downloads/{token} [get]
func (h *AvailabilityHandler) Download(c *gin.Context) {
	download, err := h.exports.ResolveDownload(c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	defer download.File.Close()

	contentType := "text/csv"
	if download.Format == models.ExportFormatPDF {
		contentType = "application/pdf"
	}
	c.Header("Content-Disposition", `attachment; filename="`+download.Filename+`"`)
	c.Header("Content-Type", contentType)
	c.File(download.File.Name())
}
