package model

import (
	"strconv"
	"strings"
	"time"

	"go-jewelry/pkg/pricing"

	"gorm.io/datatypes"
)

// 商品大类
var CategoryTypes = []string{"Gold", "Diamond", "Gemstone", "Fashion"}

// 性别
var Genders = []string{"Men", "Women", "Unisex"}

// Ornament 饰品，对应 ornaments 表
type Ornament struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	Name         string `gorm:"type:varchar(200);not null" json:"name"`
	SKU          string `gorm:"column:sku;type:varchar(32);uniqueIndex" json:"sku"`
	DesignCode   string `gorm:"type:varchar(64);index" json:"designCode,omitempty"` // 同款不同材质共用
	CategoryType string `gorm:"type:varchar(20);not null;index" json:"categoryType"`
	Category     string `gorm:"type:varchar(40);not null;index:idx_category_gender" json:"category"`
	SubCategory  string `gorm:"type:varchar(40)" json:"subCategory,omitempty"`
	Type         string `gorm:"type:varchar(40);not null" json:"type"`
	Gender       string `gorm:"type:varchar(10);not null;index:idx_category_gender" json:"gender"`

	Weight    float64 `gorm:"type:decimal(10,3)" json:"weight"`
	Purity    string  `gorm:"type:varchar(20)" json:"purity,omitempty"`
	MetalType string  `gorm:"type:varchar(40)" json:"metalType,omitempty"`
	StoneType string  `gorm:"type:varchar(40)" json:"stoneType,omitempty"`
	Style     string  `gorm:"type:varchar(40)" json:"style,omitempty"`
	Size      string  `gorm:"type:varchar(20)" json:"size,omitempty"`
	Color     string  `gorm:"type:varchar(20)" json:"color,omitempty"`

	// 本位币价格
	Price                  float64                                       `gorm:"type:decimal(12,2);not null" json:"price"`
	OriginalPrice          float64                                       `gorm:"type:decimal(12,2)" json:"originalPrice"`
	Discount               float64                                       `gorm:"type:decimal(5,2)" json:"discount"`
	MakingCharges          float64                                       `gorm:"type:decimal(12,2)" json:"makingCharges"`
	Prices                 datatypes.JSONType[map[string]pricing.Amount] `gorm:"type:json" json:"prices"`
	MakingChargesByCountry datatypes.JSONType[map[string]pricing.Amount] `gorm:"type:json" json:"makingChargesByCountry"`

	DiamondDetails     datatypes.JSONType[*pricing.Stone]    `gorm:"type:json" json:"diamondDetails"`
	SideDiamondDetails datatypes.JSONSlice[pricing.Stone]    `gorm:"type:json" json:"sideDiamondDetails"`
	GemstoneDetails    datatypes.JSONSlice[pricing.Gemstone] `gorm:"type:json" json:"gemstoneDetails"`
	StoneDetails       string                                `gorm:"type:text" json:"stoneDetails,omitempty"`

	Description string  `gorm:"type:text" json:"description,omitempty"`
	Stock       int     `gorm:"not null;default:1" json:"stock"`
	IsFeatured  bool    `gorm:"index" json:"isFeatured"`
	Rating      float64 `gorm:"type:decimal(3,2)" json:"rating"`
	Reviews     int     `json:"reviews"`

	CoverImage string                      `gorm:"type:varchar(500);not null" json:"coverImage"`
	Images     datatypes.JSONSlice[string] `gorm:"type:json" json:"images"`
	Model3D    string                      `gorm:"column:model_3d;type:varchar(500)" json:"model3D,omitempty"`
	VideoURL   string                      `gorm:"type:varchar(500)" json:"videoUrl,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (Ornament) TableName() string {
	return "ornaments"
}

// PricingItem 转换为定价输入
func (o *Ornament) PricingItem() pricing.Item {
	return pricing.Item{
		ID:                     strconv.FormatUint(uint64(o.ID), 10),
		Price:                  o.Price,
		OriginalPrice:          o.OriginalPrice,
		Discount:               o.Discount,
		MakingCharges:          o.MakingCharges,
		Prices:                 o.Prices.Data(),
		MakingChargesByCountry: o.MakingChargesByCountry.Data(),
		Metal: pricing.Metal{
			Weight:    o.Weight,
			Purity:    o.Purity,
			MetalType: o.MetalType,
		},
		Diamond:      o.DiamondDetails.Data(),
		SideDiamonds: []pricing.Stone(o.SideDiamondDetails),
		Gemstones:    []pricing.Gemstone(o.GemstoneDetails),
	}
}

// Media 展示用的图片列表，封面在前
func (o *Ornament) Media() []string {
	media := make([]string, 0, len(o.Images)+1)
	if o.CoverImage != "" {
		media = append(media, o.CoverImage)
	}
	for _, img := range o.Images {
		if img != "" && img != o.CoverImage {
			media = append(media, img)
		}
	}
	return media
}

// GenerateSKU 形如 GO-W-RIN-004：大类前两位-性别首字母-品类前三位-同品类同性别序号
func GenerateSKU(categoryType, gender, category string, existing int64) string {
	return strings.Join([]string{
		codePrefix(categoryType, 2, "XX"),
		codePrefix(gender, 1, "U"),
		codePrefix(category, 3, "GEN"),
		padSeq(existing + 1),
	}, "-")
}

func codePrefix(s string, n int, fallback string) string {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return fallback
	}
	r := []rune(s)
	if len(r) > n {
		r = r[:n]
	}
	return string(r)
}

func padSeq(n int64) string {
	s := strconv.FormatInt(n, 10)
	for len(s) < 3 {
		s = "0" + s
	}
	return s
}

// 列表排序方式
const (
	SortPriceAsc  = "price_asc"
	SortPriceDesc = "price_desc"
	SortNewest    = "newest"
	SortOldest    = "oldest"
	SortFeatured  = "featured"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// OrnamentFilter 商品列表查询条件
type OrnamentFilter struct {
	Gender        string
	Categories    []string
	SubCategories []string
	Type          string
	MetalTypes    []string
	StoneTypes    []string
	Styles        []string
	Sizes         []string
	Colors        []string
	MinPrice      *float64
	MaxPrice      *float64
	Search        string
	Sort          string
	Page          int
	Limit         int
}

// Normalize 补齐分页和排序默认值
func (f OrnamentFilter) Normalize() OrnamentFilter {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = DefaultPageSize
	}
	if f.Limit > MaxPageSize {
		f.Limit = MaxPageSize
	}
	switch f.Sort {
	case SortPriceAsc, SortPriceDesc, SortNewest, SortOldest, SortFeatured:
	default:
		f.Sort = SortNewest
	}
	f.Search = strings.TrimSpace(f.Search)
	return f
}

func (f OrnamentFilter) Offset() int {
	return (f.Page - 1) * f.Limit
}
