package model

import (
	"time"

	"gorm.io/datatypes"
)

// 可记录的埋点事件
var TrackingEvents = []string{
	"visit",
	"view_product",
	"add_to_cart",
	"remove_from_cart",
	"wishlist_add",
	"wishlist_remove",
	"checkout",
	"purchase",
	"share",
	"drop_hint",
}

// 客户端平台
var Platforms = []string{"web", "mobile", "api"}

// TrackingLog 用户行为日志
type TrackingLog struct {
	ID             uint              `gorm:"primaryKey" json:"id"`
	UserID         *uint             `gorm:"index:idx_user_event" json:"userId,omitempty"`
	SessionID      string            `gorm:"type:varchar(64);index" json:"sessionId,omitempty"`
	Event          string            `gorm:"type:varchar(32);not null;index;index:idx_user_event;index:idx_country_event" json:"event"`
	ProductID      *uint             `json:"productId,omitempty"`
	OrderID        string            `gorm:"type:varchar(64)" json:"orderId,omitempty"`
	Metadata       datatypes.JSONMap `gorm:"type:json" json:"metadata"`
	EventTimestamp time.Time         `gorm:"index" json:"eventTimestamp"`
	IP             string            `gorm:"type:varchar(45)" json:"ip"`
	Country        string            `gorm:"type:varchar(80);index:idx_country_event" json:"country"`
	Region         string            `gorm:"type:varchar(80)" json:"region"`
	City           string            `gorm:"type:varchar(80)" json:"city"`
	Platform       string            `gorm:"type:varchar(10);default:'web'" json:"platform"`
	CreatedAt      time.Time         `json:"createdAt"`
}

func (TrackingLog) TableName() string {
	return "tracking_logs"
}
