package model

import (
	"time"

	"go-jewelry/pkg/pricing"

	"gorm.io/datatypes"
)

// PricingSingletonID 定价配置只有一行
const PricingSingletonID = 1

// PricingConfig 全局金价 / 钻石价配置
type PricingConfig struct {
	ID                    uint                                   `gorm:"primaryKey;autoIncrement:false" json:"-"`
	GoldPrices            datatypes.JSONType[map[string]float64] `gorm:"type:json" json:"goldPrices"`
	PlatinumPricePerGram  float64                                `gorm:"type:decimal(12,2)" json:"platinumPricePerGram"`
	Silver925PricePerGram float64                                `gorm:"type:decimal(12,2)" json:"silver925PricePerGram"`
	DiamondPricePerCarat  float64                                `gorm:"type:decimal(12,2)" json:"diamondPricePerCarat"`
	GemstonePrices        datatypes.JSONType[map[string]float64] `gorm:"type:json" json:"gemstonePrices"`
	UpdatedAt             time.Time                              `json:"updatedAt"`
}

func (PricingConfig) TableName() string {
	return "pricing_configs"
}

// Config 转换为定价使用的配置
func (p *PricingConfig) Config() *pricing.Config {
	return &pricing.Config{
		GoldPrices:            p.GoldPrices.Data(),
		PlatinumPricePerGram:  p.PlatinumPricePerGram,
		Silver925PricePerGram: p.Silver925PricePerGram,
		DiamondPricePerCarat:  p.DiamondPricePerCarat,
		GemstonePrices:        p.GemstonePrices.Data(),
	}
}

// NewPricingConfig 由定价配置生成单例行
func NewPricingConfig(cfg pricing.Config) *PricingConfig {
	return &PricingConfig{
		ID:                    PricingSingletonID,
		GoldPrices:            datatypes.NewJSONType(cfg.GoldPrices),
		PlatinumPricePerGram:  cfg.PlatinumPricePerGram,
		Silver925PricePerGram: cfg.Silver925PricePerGram,
		DiamondPricePerCarat:  cfg.DiamondPricePerCarat,
		GemstonePrices:        datatypes.NewJSONType(cfg.GemstonePrices),
	}
}
