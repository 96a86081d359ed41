package handler

import (
	"net/http"
	"strings"

	"go-jewelry/apps/storefront/middleware"
	"go-jewelry/apps/storefront/service"
	"go-jewelry/pkg/response"

	"github.com/gin-gonic/gin"
)

type ContactHandler struct {
	contact  *service.ContactService
	tracking *service.TrackingService
}

func NewContactHandler(contact *service.ContactService, tracking *service.TrackingService) *ContactHandler {
	return &ContactHandler{contact: contact, tracking: tracking}
}

// ProductQuery POST /contact/query
func (h *ContactHandler) ProductQuery(c *gin.Context) {
	var req service.ProductQuery
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.contact.SendProductQuery(c.Request.Context(), req); err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, gin.H{"message": "Query email sent successfully"})
}

// CustomRequest POST /user/custom
func (h *ContactHandler) CustomRequest(c *gin.Context) {
	var req service.CustomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.contact.SendCustomRequest(c.Request.Context(), req); err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, gin.H{"message": "Custom request submitted successfully"})
}

// FranchiseInquiry POST /user/inquiry
func (h *ContactHandler) FranchiseInquiry(c *gin.Context) {
	var req service.FranchiseInquiry
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.contact.SendFranchiseInquiry(c.Request.Context(), req); err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, gin.H{"message": "Inquiry sent successfully"})
}

// Track POST /track
func (h *ContactHandler) Track(c *gin.Context) {
	var req service.TrackEvent
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}
	req.SessionID = strings.TrimSpace(c.GetHeader("X-Session-Id"))
	if id, ok := middleware.UserID(c); ok {
		req.UserID = &id
	}
	req.Geo = middleware.GeoFrom(c)

	if _, err := h.tracking.Track(c.Request.Context(), req); err != nil {
		response.FromError(c, err)
		return
	}
	response.Created(c, gin.H{"message": "Event tracked successfully"})
}
