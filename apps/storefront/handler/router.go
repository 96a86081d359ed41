package handler

import (
	"net/http"

	"go-jewelry/apps/storefront/middleware"
	"go-jewelry/pkg/geo"
	"go-jewelry/pkg/jwt"
	"go-jewelry/pkg/metrics"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"
)

// Router 组装路由所需的依赖
type Router struct {
	Ornaments *OrnamentHandler
	Pricing   *PricingHandler
	Carts     *CartHandler
	Users     *UserHandler
	Contact   *ContactHandler

	Tokens     *jwt.Manager
	Metrics    *metrics.Metrics
	Log        *zap.Logger
	Locator    geo.Locator
	FallbackIP string

	// ServiceName 不为空时启用 otelgin
	ServiceName string
	// RateLimit 是否启用 sentinel 限流，需先调用 middleware.InitSentinel
	RateLimit bool
}

// Engine 注册全部路由
func (rt Router) Engine() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestID())
	if rt.ServiceName != "" {
		r.Use(otelgin.Middleware(rt.ServiceName))
	}
	r.Use(middleware.AccessLog(rt.Log), middleware.Metrics(rt.Metrics))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(rt.Metrics.Handler()))

	auth := middleware.Auth(rt.Tokens)
	admin := []gin.HandlerFunc{auth, middleware.AdminOnly()}
	limit := func(res string) gin.HandlerFunc {
		if !rt.RateLimit {
			return func(c *gin.Context) { c.Next() }
		}
		return middleware.RateLimit(res)
	}

	v1 := r.Group("/api/v1")

	ornaments := v1.Group("/ornaments")
	{
		ornaments.GET("", rt.Ornaments.List)
		ornaments.GET("/:id", rt.Ornaments.Get)
		ornaments.POST("", append(admin, rt.Ornaments.Create)...)
		ornaments.POST("/media", append(admin, rt.Ornaments.UploadMedia)...)
		ornaments.PUT("/:id", append(admin, rt.Ornaments.Update)...)
		ornaments.DELETE("/:id", append(admin, rt.Ornaments.Delete)...)
	}

	v1.GET("/pricing", rt.Pricing.Get)
	v1.PUT("/pricing", append(admin, rt.Pricing.Update)...)

	cart := v1.Group("/cart")
	{
		cart.POST("/guest/init", rt.Carts.InitGuest)
		cart.POST("/guest/add", rt.Carts.AddGuest)
		cart.GET("/guest/:guestId", rt.Carts.GetGuest)
		cart.DELETE("/guest/remove/:guestId/:ornamentId", rt.Carts.RemoveGuest)

		user := cart.Group("/user", auth)
		user.GET("", rt.Carts.GetUser)
		user.POST("/add", rt.Carts.AddUser)
		user.PUT("/update", rt.Carts.UpdateUser)
		user.DELETE("/remove/:ornamentId", rt.Carts.RemoveUser)
	}

	users := v1.Group("/user")
	{
		users.POST("/register", rt.Users.Register)
		users.POST("/login", rt.Users.Login)
		users.GET("/details", auth, rt.Users.Details)
		users.POST("/forgetpassword", limit(middleware.ResPassword), rt.Users.ForgotPassword)
		users.PUT("/reset-password/:token", limit(middleware.ResPassword), rt.Users.ResetPassword)
		users.POST("/custom", limit(middleware.ResContact), rt.Contact.CustomRequest)
		users.POST("/inquiry", limit(middleware.ResContact), rt.Contact.FranchiseInquiry)
	}

	v1.POST("/contact/query", limit(middleware.ResContact), rt.Contact.ProductQuery)
	v1.POST("/track",
		middleware.OptionalAuth(rt.Tokens),
		middleware.Geo(rt.Locator, rt.FallbackIP),
		rt.Contact.Track)

	return r
}
