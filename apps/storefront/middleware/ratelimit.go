package middleware

import (
	"net/http"

	"go-jewelry/pkg/response"

	sentinel "github.com/alibaba/sentinel-golang/api"
	"github.com/alibaba/sentinel-golang/core/base"
	"github.com/alibaba/sentinel-golang/core/flow"
	"github.com/gin-gonic/gin"
)

// 限流资源名称
const (
	ResContact  = "contact_api"
	ResPassword = "password_api"
)

// InitSentinel 初始化 sentinel 并加载邮件类接口的 QPS 规则
func InitSentinel(contactQPS, passwordQPS float64) error {
	if err := sentinel.InitDefault(); err != nil {
		return err
	}
	_, err := flow.LoadRules(FlowRules(contactQPS, passwordQPS))
	return err
}

// FlowRules 直接计数，超出阈值直接拒绝
func FlowRules(contactQPS, passwordQPS float64) []*flow.Rule {
	rule := func(res string, qps float64) *flow.Rule {
		return &flow.Rule{
			Resource:               res,
			TokenCalculateStrategy: flow.Direct,
			ControlBehavior:        flow.Reject,
			Threshold:              qps,
			StatIntervalInMs:       1000,
		}
	}
	return []*flow.Rule{
		rule(ResContact, contactQPS),
		rule(ResPassword, passwordQPS),
	}
}

// RateLimit 被限流时返回 429
func RateLimit(resource string) gin.HandlerFunc {
	return func(c *gin.Context) {
		e, b := sentinel.Entry(resource, sentinel.WithTrafficType(base.Inbound))
		if b != nil {
			response.Error(c, http.StatusTooManyRequests, "too many requests, please try again later")
			c.Abort()
			return
		}
		defer e.Exit()
		c.Next()
	}
}
