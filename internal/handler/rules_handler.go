package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/eduscheduler-api/internal/dto"
	"github.com/noah-isme/eduscheduler-api/internal/models"
	"github.com/noah-isme/eduscheduler-api/pkg/response"
)

type rulesService interface {
	Get(ctx context.Context) (*models.Rules, error)
	Update(ctx context.Context, req dto.UpdateRulesRequest) (*models.Rules, error)
}

// RulesHandler exposes the global scheduling rules.
type RulesHandler struct {
	service rulesService
}

// NewRulesHandler constructs a rules handler.
func NewRulesHandler(svc rulesService) *RulesHandler {
	return &RulesHandler{service: svc}
}

// Get godoc
// @Summary Get scheduling rules
// @Tags Rules
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /rules [get]
func (h *RulesHandler) Get(c *gin.Context) {
	rules, err := h.service.Get(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rules, nil)
}

// Update godoc
// @Summary Patch scheduling rules
// @Description Omitted fields keep their stored value.
// @Tags Rules
// @Accept json
// @Produce json
// @Param payload body dto.UpdateRulesRequest true "Rules patch"
// @Success 200 {object} response.Envelope
// @Router /rules [put]
func (h *RulesHandler) Update(c *gin.Context) {
	var req dto.UpdateRulesRequest
	if !bindJSON(c, &req, "invalid rules payload") {
		return
	}
	rules, err := h.service.Update(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rules, nil)
}
