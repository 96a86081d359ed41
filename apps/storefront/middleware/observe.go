package middleware

import (
	"strconv"
	"time"

	"go-jewelry/pkg/geo"
	"go-jewelry/pkg/metrics"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	HeaderRequestID = "X-Request-Id"
	CtxRequestID    = "requestId"
	CtxGeo          = "geo"
)

// RequestID 透传或生成请求 ID
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(HeaderRequestID)
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		c.Set(CtxRequestID, id)
		c.Header(HeaderRequestID, id)
		c.Next()
	}
}

// AccessLog 每个请求一条日志，5xx 记为 error
func AccessLog(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", status),
			zap.Int64("latency_ms", time.Since(start).Milliseconds()),
			zap.String("request_id", c.GetString(CtxRequestID)),
			zap.String("client_ip", c.ClientIP()),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}
		if status >= 500 {
			log.Error("request", fields...)
			return
		}
		log.Info("request", fields...)
	}
}

// Metrics 记录请求数和耗时，route 使用路由模板避免高基数
func Metrics(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.RequestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.RequestDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

// Geo 根据客户端 IP 定位，结果写入 Context
func Geo(locator geo.Locator, fallbackIP string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := geo.ClientIP(c.GetHeader("X-Forwarded-For"), c.Request.RemoteAddr, fallbackIP)
		c.Set(CtxGeo, locator.Locate(ip))
		c.Next()
	}
}

// GeoFrom 取出 Geo 中间件的结果
func GeoFrom(c *gin.Context) geo.Location {
	if v, ok := c.Get(CtxGeo); ok {
		if loc, ok := v.(geo.Location); ok {
			return loc
		}
	}
	return geo.Location{Country: geo.Unknown}
}
