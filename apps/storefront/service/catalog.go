package service

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"go-jewelry/apps/storefront/model"
	"go-jewelry/pkg/errx"
	"go-jewelry/pkg/pricing"
	"go-jewelry/pkg/storage"

	"go.uber.org/zap"
	"gorm.io/datatypes"
)

// PricedOrnament 饰品及其在请求币种下的价格
type PricedOrnament struct {
	*model.Ornament
	Pricing pricing.Quote `json:"pricing"`
}

// OrnamentList 列表结果
type OrnamentList struct {
	Items      []PricedOrnament `json:"items"`
	Total      int64            `json:"total"`
	Page       int              `json:"page"`
	Limit      int              `json:"limit"`
	TotalPages int              `json:"totalPages"`
}

// OrnamentDetail 详情：主商品、同款其他材质和起售价
type OrnamentDetail struct {
	PricedOrnament
	Media         []string         `json:"media"`
	Variants      []PricedOrnament `json:"variants"`
	StartingPrice float64          `json:"startingPrice"`
}

// MediaFile 待上传的媒体文件
type MediaFile struct {
	Name        string
	ContentType string
	Data        []byte
}

const maxMediaFiles = 10

type CatalogService struct {
	ornaments OrnamentStore
	pricing   PricingStore
	resolver  *pricing.Resolver
	uploader  storage.Uploader
	log       *zap.Logger
}

func NewCatalogService(ornaments OrnamentStore, pricingStore PricingStore, resolver *pricing.Resolver, uploader storage.Uploader, log *zap.Logger) *CatalogService {
	return &CatalogService{
		ornaments: ornaments,
		pricing:   pricingStore,
		resolver:  resolver,
		uploader:  uploader,
		log:       log,
	}
}

// loadPricing 定价配置不存在时拒绝计算
func loadPricing(ctx context.Context, store PricingStore) (*pricing.Config, error) {
	cfg, err := store.Get(ctx)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, pricing.ErrNotConfigured
	}
	return cfg, nil
}

// ListOrnaments 按条件查询并计算每个商品在 currency 下的价格
func (s *CatalogService) ListOrnaments(ctx context.Context, f model.OrnamentFilter, currency string) (*OrnamentList, error) {
	cfg, err := loadPricing(ctx, s.pricing)
	if err != nil {
		return nil, err
	}

	f = f.Normalize()
	items, total, err := s.ornaments.List(ctx, f)
	if err != nil {
		return nil, err
	}

	out := &OrnamentList{
		Items:      make([]PricedOrnament, 0, len(items)),
		Total:      total,
		Page:       f.Page,
		Limit:      f.Limit,
		TotalPages: int(math.Ceil(float64(total) / float64(f.Limit))),
	}
	for i := range items {
		po, err := s.price(&items[i], currency, cfg)
		if err != nil {
			return nil, err
		}
		out.Items = append(out.Items, po)
	}
	return out, nil
}

// GetOrnament 详情，包含同 designCode 的其他款式
func (s *CatalogService) GetOrnament(ctx context.Context, rawID, currency string) (*OrnamentDetail, error) {
	id, err := parseID(rawID, "ornament")
	if err != nil {
		return nil, err
	}
	cfg, err := loadPricing(ctx, s.pricing)
	if err != nil {
		return nil, err
	}

	o, err := s.ornaments.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	siblings, err := s.ornaments.ListByDesignCode(ctx, o.DesignCode, o.ID)
	if err != nil {
		return nil, err
	}

	variantItems := make([]pricing.Item, len(siblings))
	for i := range siblings {
		variantItems[i] = siblings[i].PricingItem()
	}
	family, err := s.resolver.ResolveFamily(o.PricingItem(), variantItems, currency, cfg)
	if err != nil {
		return nil, err
	}

	detail := &OrnamentDetail{
		PricedOrnament: PricedOrnament{Ornament: o, Pricing: family.Main},
		Media:          o.Media(),
		Variants:       make([]PricedOrnament, len(siblings)),
		StartingPrice:  family.StartingPrice,
	}
	for i := range siblings {
		detail.Variants[i] = PricedOrnament{Ornament: &siblings[i], Pricing: family.Variants[i]}
	}
	return detail, nil
}

func (s *CatalogService) price(o *model.Ornament, currency string, cfg *pricing.Config) (PricedOrnament, error) {
	q, err := s.resolver.Resolve(o.PricingItem(), currency, cfg)
	if err != nil {
		return PricedOrnament{}, err
	}
	return PricedOrnament{Ornament: o, Pricing: q}, nil
}

// CreateOrnament 校验后写入，SKU 自动生成
func (s *CatalogService) CreateOrnament(ctx context.Context, o *model.Ornament) (*model.Ornament, error) {
	o.ID = 0
	if err := prepareOrnament(o); err != nil {
		return nil, err
	}
	if o.OriginalPrice == 0 {
		o.OriginalPrice = o.Price
	}

	n, err := s.ornaments.CountByCategoryGender(ctx, o.Category, o.Gender)
	if err != nil {
		return nil, err
	}
	o.SKU = model.GenerateSKU(o.CategoryType, o.Gender, o.Category, n)

	if err := s.ornaments.Create(ctx, o); err != nil {
		return nil, err
	}
	s.log.Info("ornament created", zap.Uint("id", o.ID), zap.String("sku", o.SKU))
	return o, nil
}

// UpdateOrnament 把 patch 合并到现有记录，SKU 不允许修改
func (s *CatalogService) UpdateOrnament(ctx context.Context, rawID string, patch json.RawMessage) (*model.Ornament, error) {
	id, err := parseID(rawID, "ornament")
	if err != nil {
		return nil, err
	}
	o, err := s.ornaments.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	sku := o.SKU
	// 折扣按新的价格重新推导
	o.Discount = 0
	if err := clearReplacedColumns(o, patch); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(patch, o); err != nil {
		return nil, errx.Validationf("invalid ornament payload: %v", err)
	}
	if o.SKU != sku {
		return nil, errx.Validation("sku cannot be changed")
	}
	o.ID = id
	if err := prepareOrnament(o); err != nil {
		return nil, err
	}

	if err := s.ornaments.Update(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

// clearReplacedColumns patch 中出现的 map / 对象型 JSON 列整体替换，不与旧值合并
func clearReplacedColumns(o *model.Ornament, patch json.RawMessage) error {
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(patch, &keys); err != nil {
		return errx.Validationf("invalid ornament payload: %v", err)
	}
	if _, ok := keys["prices"]; ok {
		o.Prices = datatypes.JSONType[map[string]pricing.Amount]{}
	}
	if _, ok := keys["makingChargesByCountry"]; ok {
		o.MakingChargesByCountry = datatypes.JSONType[map[string]pricing.Amount]{}
	}
	if _, ok := keys["diamondDetails"]; ok {
		o.DiamondDetails = datatypes.JSONType[*pricing.Stone]{}
	}
	return nil
}

// DeleteOrnament 删除
func (s *CatalogService) DeleteOrnament(ctx context.Context, rawID string) error {
	id, err := parseID(rawID, "ornament")
	if err != nil {
		return err
	}
	return s.ornaments.Delete(ctx, id)
}

// UploadMedia 上传图片或视频，返回公开地址
func (s *CatalogService) UploadMedia(ctx context.Context, files []MediaFile) ([]string, error) {
	if len(files) == 0 {
		return nil, errx.Validation("no files uploaded")
	}
	if len(files) > maxMediaFiles {
		return nil, errx.Validationf("at most %d files per upload", maxMediaFiles)
	}
	for _, f := range files {
		if len(f.Data) == 0 {
			return nil, errx.Validationf("file %q is empty", f.Name)
		}
		if !allowedMedia(f.ContentType) {
			return nil, errx.Validationf("unsupported media type %q", f.ContentType)
		}
	}

	urls := make([]string, 0, len(files))
	for _, f := range files {
		url, err := s.uploader.Upload(ctx, "ornaments", f.Name, f.ContentType, f.Data)
		if err != nil {
			return nil, errx.Wrap(errx.KindUnavailable, err, "media storage unavailable")
		}
		urls = append(urls, url)
	}
	return urls, nil
}

func allowedMedia(contentType string) bool {
	ct := strings.ToLower(contentType)
	return strings.HasPrefix(ct, "image/") || strings.HasPrefix(ct, "video/") || ct == "model/gltf-binary"
}

// prepareOrnament 必填校验和默认值
func prepareOrnament(o *model.Ornament) error {
	o.Name = strings.TrimSpace(o.Name)
	switch {
	case o.Name == "":
		return errx.Validation("name is required")
	case !oneOf(o.CategoryType, model.CategoryTypes):
		return errx.Validationf("categoryType must be one of %s", strings.Join(model.CategoryTypes, ", "))
	case strings.TrimSpace(o.Category) == "":
		return errx.Validation("category is required")
	case !oneOf(o.Gender, model.Genders):
		return errx.Validationf("gender must be one of %s", strings.Join(model.Genders, ", "))
	case strings.TrimSpace(o.CoverImage) == "":
		return errx.Validation("coverImage is required")
	case o.Price < 0 || o.OriginalPrice < 0 || o.MakingCharges < 0 || o.Weight < 0:
		return errx.Validation("prices and weight must not be negative")
	}
	if o.CategoryType == "Diamond" && o.DiamondDetails.Data() == nil {
		return errx.Validation("diamondDetails is required for Diamond category")
	}
	if o.Type == "" {
		o.Type = o.Category
	}
	o.Discount = pricing.DeriveDiscount(o.Price, o.OriginalPrice, o.Discount)
	return nil
}

func oneOf(v string, allowed []string) bool {
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
}

func parseID(raw, what string) (uint, error) {
	id, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
	if err != nil || id == 0 {
		return 0, errx.Validation(fmt.Sprintf("invalid %s id", what))
	}
	return uint(id), nil
}
