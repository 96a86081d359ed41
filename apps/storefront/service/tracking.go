package service

import (
	"context"
	"strings"
	"time"

	"go-jewelry/apps/storefront/model"
	"go-jewelry/pkg/errx"
	"go-jewelry/pkg/geo"

	"gorm.io/datatypes"
)

// TrackEvent 客户端上报的埋点
type TrackEvent struct {
	Event     string         `json:"event"`
	ProductID *uint          `json:"productId"`
	OrderID   string         `json:"orderId"`
	Metadata  map[string]any `json:"metadata"`

	SessionID string       `json:"-"`
	UserID    *uint        `json:"-"`
	Geo       geo.Location `json:"-"`
}

type TrackingService struct {
	logs TrackingStore
	now  func() time.Time
}

func NewTrackingService(logs TrackingStore) *TrackingService {
	return &TrackingService{logs: logs, now: time.Now}
}

// Track 记录一条埋点，地理信息缺失时使用客户端 metadata 中的值
func (s *TrackingService) Track(ctx context.Context, e TrackEvent) (*model.TrackingLog, error) {
	e.Event = strings.TrimSpace(e.Event)
	if e.Event == "" {
		return nil, errx.Validation("Event type is required")
	}
	if !oneOf(e.Event, model.TrackingEvents) {
		return nil, errx.Validationf("unknown event %q", e.Event)
	}
	if e.Metadata == nil {
		e.Metadata = map[string]any{}
	}

	platform := metaString(e.Metadata, "platform")
	if !oneOf(platform, model.Platforms) {
		platform = "web"
	}

	country := firstNonEmpty(known(e.Geo.Country), metaString(e.Metadata, "country"), geo.Unknown)
	entry := &model.TrackingLog{
		UserID:         e.UserID,
		SessionID:      strings.TrimSpace(e.SessionID),
		Event:          e.Event,
		ProductID:      e.ProductID,
		OrderID:        e.OrderID,
		Metadata:       datatypes.JSONMap(e.Metadata),
		EventTimestamp: s.now(),
		IP:             e.Geo.IP,
		Country:        country,
		Region:         firstNonEmpty(e.Geo.Region, metaString(e.Metadata, "region")),
		City:           firstNonEmpty(e.Geo.City, metaString(e.Metadata, "city")),
		Platform:       platform,
	}
	if err := s.logs.Create(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

func known(country string) string {
	if country == geo.Unknown {
		return ""
	}
	return country
}

func metaString(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return strings.TrimSpace(s)
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
