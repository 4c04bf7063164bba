package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kairos-app/kairos-api/internal/models"
	appErrors "github.com/kairos-app/kairos-api/pkg/errors"
	"github.com/kairos-app/kairos-api/pkg/response"
)

type ruleService interface {
	CreateRule(ctx context.Context, participantID string, req models.RuleWriteRequest) (*models.RuleView, error)
	GetRule(ctx context.Context, participantID, ruleID, zone string) (*models.RuleView, error)
	ListRules(ctx context.Context, participantID, zone string) ([]models.RuleView, error)
	UpdateRule(ctx context.Context, participantID, ruleID string, req models.RuleWriteRequest) (*models.RuleView, error)
	DeleteRule(ctx context.Context, participantID, ruleID string) error
}

// RuleHandler exposes availability rule CRUD for the authenticated
// participant.
type RuleHandler struct {
	service ruleService
}

// NewRuleHandler builds a new handler.
func NewRuleHandler(service ruleService) *RuleHandler {
	return &RuleHandler{service: service}
}

// displayZone picks the viewing timezone: an explicit ?tz= wins, then the
// user's profile zone; empty means each rule falls back to its original zone.
func displayZone(c *gin.Context, claims *models.JWTClaims) string {
	if tz := c.Query("tz"); tz != "" {
		return tz
	}
	return claims.Timezone
}

// List godoc
// @Summary List my availability rules
// @Tags Rules
// @Produce json
// @Param tz query string false "Display timezone (defaults to each rule's original zone)"
// @Success 200 {object} response.Envelope
// @Router /me/rules [get]
func (h *RuleHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	views, err := h.service.ListRules(c.Request.Context(), claims.UserID, displayZone(c, claims))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, views, nil)
}

// Get godoc
// @Summary Get one of my availability rules
// @Tags Rules
// @Produce json
// @Param id path string true "Rule ID"
// @Param tz query string false "Display timezone"
// @Success 200 {object} response.Envelope
// @Router /me/rules/{id} [get]
func (h *RuleHandler) Get(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	view, err := h.service.GetRule(c.Request.Context(), claims.UserID, c.Param("id"), displayZone(c, claims))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil)
}

// Create godoc
// @Summary Create an availability rule
// @Tags Rules
// @Accept json
// @Produce json
// @Param payload body models.RuleWriteRequest true "Rule payload in local wall-clock time"
// @Success 201 {object} response.Envelope
// @Router /me/rules [post]
func (h *RuleHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req models.RuleWriteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid rule payload"))
		return
	}
	view, err := h.service.CreateRule(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, view)
}

// Update godoc
// @Summary Replace an availability rule
// @Tags Rules
// @Accept json
// @Produce json
// @Param id path string true "Rule ID"
// @Param payload body models.RuleWriteRequest true "Rule payload in local wall-clock time"
// @Success 200 {object} response.Envelope
// @Router /me/rules/{id} [put]
func (h *RuleHandler) Update(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req models.RuleWriteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid rule payload"))
		return
	}
	view, err := h.service.UpdateRule(c.Request.Context(), claims.UserID, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil)
}

// Delete godoc
// @Summary Delete an availability rule
// @Tags Rules
// @Param id path string true "Rule ID"
// @Success 204 {object} response.Envelope
// @Router /me/rules/{id} [delete]
func (h *RuleHandler) Delete(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if err := h.service.DeleteRule(c.Request.Context(), claims.UserID, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
