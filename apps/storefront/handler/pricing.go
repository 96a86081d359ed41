package handler

import (
	"net/http"

	"go-jewelry/apps/storefront/service"
	"go-jewelry/pkg/pricing"
	"go-jewelry/pkg/response"

	"github.com/gin-gonic/gin"
)

type PricingHandler struct {
	pricing *service.PricingService
}

func NewPricingHandler(p *service.PricingService) *PricingHandler {
	return &PricingHandler{pricing: p}
}

// Get GET /pricing
func (h *PricingHandler) Get(c *gin.Context) {
	cfg, err := h.pricing.GetPricing(c.Request.Context())
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, cfg)
}

// Update PUT /pricing，保存后重算受影响的商品
func (h *PricingHandler) Update(c *gin.Context) {
	var u pricing.Update
	if err := c.ShouldBindJSON(&u); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}
	res, err := h.pricing.UpdatePricing(c.Request.Context(), u)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, res)
}
