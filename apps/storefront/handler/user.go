package handler

import (
	"net/http"

	"go-jewelry/apps/storefront/middleware"
	"go-jewelry/apps/storefront/service"
	"go-jewelry/pkg/response"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	accounts *service.AccountService
}

func NewUserHandler(accounts *service.AccountService) *UserHandler {
	return &UserHandler{accounts: accounts}
}

// Register POST /user/register
func (h *UserHandler) Register(c *gin.Context) {
	var req service.RegisterInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}
	s, err := h.accounts.Register(c.Request.Context(), req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Created(c, s)
}

// Login POST /user/login，可携带 guestId 合并游客购物车
func (h *UserHandler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		GuestID  string `json:"guestId"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}
	s, err := h.accounts.Login(c.Request.Context(), req.Email, req.Password, req.GuestID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, s)
}

// Details GET /user/details
func (h *UserHandler) Details(c *gin.Context) {
	userID, _ := middleware.UserID(c)
	u, err := h.accounts.Profile(c.Request.Context(), userID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, u)
}

// ForgotPassword POST /user/forgetpassword
func (h *UserHandler) ForgotPassword(c *gin.Context) {
	var req struct {
		Email string `json:"email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.accounts.ForgotPassword(c.Request.Context(), req.Email); err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, gin.H{"message": "Password reset link sent to your email"})
}

// ResetPassword PUT /user/reset-password/:token
func (h *UserHandler) ResetPassword(c *gin.Context) {
	var req struct {
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.accounts.ResetPassword(c.Request.Context(), c.Param("token"), req.Password); err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, gin.H{"message": "Password reset successfully"})
}
