package handler

import (
	"net/http"
	"strconv"

	"go-jewelry/apps/storefront/middleware"
	"go-jewelry/apps/storefront/service"
	"go-jewelry/pkg/errx"
	"go-jewelry/pkg/response"

	"github.com/gin-gonic/gin"
)

type cartItemRequest struct {
	GuestID    string `json:"guestId"`
	OrnamentID uint   `json:"ornamentId"`
	Quantity   int    `json:"quantity"`
}

type CartHandler struct {
	carts *service.CartService
}

func NewCartHandler(carts *service.CartService) *CartHandler {
	return &CartHandler{carts: carts}
}

// InitGuest POST /cart/guest/init
func (h *CartHandler) InitGuest(c *gin.Context) {
	cart, err := h.carts.InitGuestCart(c.Request.Context(), currency(c))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Created(c, cart)
}

// AddGuest POST /cart/guest/add
func (h *CartHandler) AddGuest(c *gin.Context) {
	var req cartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}
	cart, err := h.carts.AddGuestItem(c.Request.Context(), req.GuestID, req.OrnamentID, req.Quantity, currency(c))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, cart)
}

// GetGuest GET /cart/guest/:guestId
func (h *CartHandler) GetGuest(c *gin.Context) {
	cart, err := h.carts.GetGuestCart(c.Request.Context(), c.Param("guestId"), currency(c))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, cart)
}

// RemoveGuest DELETE /cart/guest/remove/:guestId/:ornamentId
func (h *CartHandler) RemoveGuest(c *gin.Context) {
	id, err := ornamentParam(c)
	if err != nil {
		response.FromError(c, err)
		return
	}
	cart, err := h.carts.RemoveGuestItem(c.Request.Context(), c.Param("guestId"), id, currency(c))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, cart)
}

// GetUser GET /cart/user
func (h *CartHandler) GetUser(c *gin.Context) {
	userID, _ := middleware.UserID(c)
	cart, err := h.carts.GetUserCart(c.Request.Context(), userID, currency(c))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, cart)
}

// AddUser POST /cart/user/add
func (h *CartHandler) AddUser(c *gin.Context) {
	var req cartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}
	userID, _ := middleware.UserID(c)
	cart, err := h.carts.AddUserItem(c.Request.Context(), userID, req.OrnamentID, req.Quantity, currency(c))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, cart)
}

// UpdateUser PUT /cart/user/update
func (h *CartHandler) UpdateUser(c *gin.Context) {
	var req cartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}
	userID, _ := middleware.UserID(c)
	cart, err := h.carts.UpdateUserItem(c.Request.Context(), userID, req.OrnamentID, req.Quantity, currency(c))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, cart)
}

// RemoveUser DELETE /cart/user/remove/:ornamentId
func (h *CartHandler) RemoveUser(c *gin.Context) {
	id, err := ornamentParam(c)
	if err != nil {
		response.FromError(c, err)
		return
	}
	userID, _ := middleware.UserID(c)
	cart, err := h.carts.RemoveUserItem(c.Request.Context(), userID, id, currency(c))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, cart)
}

func ornamentParam(c *gin.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("ornamentId"), 10, 64)
	if err != nil || id == 0 {
		return 0, errx.Validation("invalid ornament id")
	}
	return uint(id), nil
}
