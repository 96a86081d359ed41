// Package pricing 实现饰品的动态定价：金属重量 × 成色金价 + 钻石/宝石克拉价 + 工费，
// 再按币种换算，手工录入的分币种价格和分国家工费优先于计算结果。
package pricing

import (
	"math"
	"strings"

	"go-jewelry/pkg/errx"

	"github.com/shopspring/decimal"
)

// ErrNotConfigured 定价配置不存在时返回，调用方必须拒绝计算
var ErrNotConfigured = errx.Configuration("pricing not configured")

// Amount 分币种的手工价格或工费
type Amount struct {
	Amount float64 `json:"amount"`
	Symbol string  `json:"symbol,omitempty"`
}

// Config 全局定价配置（单例文档）
type Config struct {
	GoldPrices            map[string]float64 `json:"goldPrices"`
	PlatinumPricePerGram  float64            `json:"platinumPricePerGram"`
	Silver925PricePerGram float64            `json:"silver925PricePerGram"`
	DiamondPricePerCarat  float64            `json:"diamondPricePerCarat"`
	GemstonePrices        map[string]float64 `json:"gemstonePrices"`
}

// Metal 金属信息，Weight 单位为克
type Metal struct {
	Weight    float64 `json:"weight"`
	Purity    string  `json:"purity,omitempty"`
	MetalType string  `json:"metalType,omitempty"`
}

// Stone 钻石明细，PricePerCarat 为 0 时使用全局钻石价
type Stone struct {
	Carat         float64 `json:"carat"`
	Count         int     `json:"count"`
	PricePerCarat float64 `json:"pricePerCarat,omitempty"`
}

// Gemstone 彩宝明细，单价来自配置中的 GemstonePrices
type Gemstone struct {
	StoneType string  `json:"stoneType"`
	Carat     float64 `json:"carat"`
	Count     int     `json:"count"`
}

// Item 参与定价的商品或款式
type Item struct {
	ID                     string
	Price                  float64
	OriginalPrice          float64
	Discount               float64
	MakingCharges          float64
	Prices                 map[string]Amount
	MakingChargesByCountry map[string]Amount
	Metal                  Metal
	Diamond                *Stone
	SideDiamonds           []Stone
	Gemstones              []Gemstone
}

// Normalize 统一处理默认值：数量缺省为 1，负数归零，币种 key 转大写
func (it Item) Normalize() Item {
	out := it
	out.Price = nonNegative(it.Price)
	out.OriginalPrice = nonNegative(it.OriginalPrice)
	out.Discount = nonNegative(it.Discount)
	out.MakingCharges = nonNegative(it.MakingCharges)
	out.Metal.Weight = nonNegative(it.Metal.Weight)
	out.Prices = normalizeAmounts(it.Prices)
	out.MakingChargesByCountry = normalizeAmounts(it.MakingChargesByCountry)
	if it.Diamond != nil {
		d := normalizeStone(*it.Diamond)
		out.Diamond = &d
	}
	if len(it.SideDiamonds) > 0 {
		out.SideDiamonds = make([]Stone, len(it.SideDiamonds))
		for i, s := range it.SideDiamonds {
			out.SideDiamonds[i] = normalizeStone(s)
		}
	}
	if len(it.Gemstones) > 0 {
		out.Gemstones = make([]Gemstone, len(it.Gemstones))
		for i, g := range it.Gemstones {
			g.Carat = nonNegative(g.Carat)
			if g.Count <= 0 {
				g.Count = 1
			}
			out.Gemstones[i] = g
		}
	}
	return out
}

// Quote 单个商品在目标币种下的价格结果
type Quote struct {
	ItemID                 string  `json:"itemId,omitempty"`
	Currency               string  `json:"currency"`
	CurrencySymbol         string  `json:"currencySymbol"`
	MetalTotal             float64 `json:"metalTotal"`
	DiamondTotal           float64 `json:"diamondTotal"`
	GemstoneTotal          float64 `json:"gemstoneTotal"`
	BasePrice              float64 `json:"basePrice"`
	DisplayPrice           float64 `json:"displayPrice"`
	ConvertedMakingCharge  float64 `json:"convertedMakingCharge"`
	TotalConvertedPrice    float64 `json:"totalConvertedPrice"`
	OriginalPrice          float64 `json:"originalPrice"`
	Discount               float64 `json:"discount"`
	PriceOverridden        bool    `json:"priceOverridden"`
	MakingChargeOverridden bool    `json:"makingChargeOverridden"`
}

// Family 主商品及其同款异材质款式
type Family struct {
	Main          Quote   `json:"main"`
	Variants      []Quote `json:"variants"`
	StartingPrice float64 `json:"startingPrice"`
}

// Resolver 价格解析器，持有只读汇率表
type Resolver struct {
	currencies CurrencyTable
}

// NewResolver 创建解析器
func NewResolver(table CurrencyTable) *Resolver {
	return &Resolver{currencies: table}
}

// Currencies 解析器使用的汇率表
func (r *Resolver) Currencies() CurrencyTable {
	return r.currencies
}

// Resolve 计算商品在 currency 下的展示价、工费和总价
func (r *Resolver) Resolve(item Item, currency string, cfg *Config) (Quote, error) {
	if cfg == nil {
		return Quote{}, ErrNotConfigured
	}
	it := item.Normalize()
	cur := r.currencies.Lookup(currency)
	rate := decimal.NewFromFloat(cur.Rate)

	q := Quote{
		ItemID:         it.ID,
		Currency:       cur.Code,
		CurrencySymbol: cur.Symbol,
		MetalTotal:     MetalTotal(it.Metal, cfg),
		DiamondTotal:   DiamondTotal(it, cfg),
		GemstoneTotal:  GemstoneTotal(it.Gemstones, cfg),
	}
	q.BasePrice = BaseTotal(it, cfg)
	if q.BasePrice == 0 {
		// 没有金属和石料数据的商品沿用已保存的本位币价格
		q.BasePrice = it.Price
	}

	display := decimal.NewFromFloat(q.BasePrice).Mul(rate).Round(2)
	if o, ok := it.Prices[cur.Code]; ok {
		display = decimal.NewFromFloat(o.Amount).Round(2)
		q.PriceOverridden = true
		if o.Symbol != "" {
			q.CurrencySymbol = o.Symbol
		}
	}

	making := decimal.NewFromFloat(it.MakingCharges).Mul(rate).Round(2)
	if o, ok := it.MakingChargesByCountry[cur.Code]; ok {
		making = decimal.NewFromFloat(o.Amount).Round(2)
		q.MakingChargeOverridden = true
	}

	q.DisplayPrice = display.InexactFloat64()
	q.ConvertedMakingCharge = making.InexactFloat64()
	q.TotalConvertedPrice = display.Add(making).Round(2).InexactFloat64()

	q.OriginalPrice = it.OriginalPrice
	if q.OriginalPrice == 0 {
		q.OriginalPrice = it.Price
	}
	q.Discount = DeriveDiscount(it.Price, it.OriginalPrice, it.Discount)
	return q, nil
}

// ResolveFamily 分别解析主商品和各款式，起售价取所有结果中的最小总价
func (r *Resolver) ResolveFamily(main Item, variants []Item, currency string, cfg *Config) (Family, error) {
	mq, err := r.Resolve(main, currency, cfg)
	if err != nil {
		return Family{}, err
	}
	f := Family{Main: mq, Variants: make([]Quote, 0, len(variants))}
	for _, v := range variants {
		vq, err := r.Resolve(v, currency, cfg)
		if err != nil {
			return Family{}, err
		}
		f.Variants = append(f.Variants, vq)
	}
	all := append([]Quote{mq}, f.Variants...)
	f.StartingPrice = StartingPrice(all)
	return f, nil
}

// StartingPrice 最小 TotalConvertedPrice，空列表返回 0
func StartingPrice(quotes []Quote) float64 {
	if len(quotes) == 0 {
		return 0
	}
	min := quotes[0].TotalConvertedPrice
	for _, q := range quotes[1:] {
		if q.TotalConvertedPrice < min {
			min = q.TotalConvertedPrice
		}
	}
	return min
}

// BaseTotal 本位币下的 金属 + 钻石 + 彩宝 合计，保留两位小数
func BaseTotal(it Item, cfg *Config) float64 {
	total := decimal.NewFromFloat(MetalTotal(it.Metal, cfg)).
		Add(decimal.NewFromFloat(DiamondTotal(it, cfg))).
		Add(decimal.NewFromFloat(GemstoneTotal(it.Gemstones, cfg)))
	return total.Round(2).InexactFloat64()
}

// MetalTotal 每克单价 × 重量，找不到单价时为 0
func MetalTotal(m Metal, cfg *Config) float64 {
	if m.Weight <= 0 {
		return 0
	}
	rate, _, ok := MetalRate(m, cfg)
	if !ok {
		return 0
	}
	return mul(m.Weight, rate)
}

// DiamondTotal 主钻与所有副钻的 克拉 × 数量 × 克拉单价 之和
func DiamondTotal(it Item, cfg *Config) float64 {
	var global float64
	if cfg != nil {
		global = cfg.DiamondPricePerCarat
	}
	total := decimal.Zero
	if it.Diamond != nil {
		total = total.Add(stoneTotal(*it.Diamond, global))
	}
	for _, s := range it.SideDiamonds {
		total = total.Add(stoneTotal(s, global))
	}
	return total.InexactFloat64()
}

// GemstoneTotal 彩宝 克拉 × 数量 × 对应宝石单价，未配置的宝石类型不计价
func GemstoneTotal(gems []Gemstone, cfg *Config) float64 {
	if cfg == nil {
		return 0
	}
	total := decimal.Zero
	for _, g := range gems {
		rate := lookupRate(cfg.GemstonePrices, g.StoneType)
		if rate <= 0 {
			continue
		}
		total = total.Add(decimal.NewFromFloat(g.Carat).
			Mul(decimal.NewFromInt(int64(g.Count))).
			Mul(decimal.NewFromFloat(rate)))
	}
	return total.InexactFloat64()
}

// DeriveDiscount 已保存的非零折扣直接使用，否则按原价与现价推算整数百分比
func DeriveDiscount(price, originalPrice, stored float64) float64 {
	if stored > 0 {
		return stored
	}
	if originalPrice <= 0 || price <= 0 || originalPrice <= price {
		return 0
	}
	d := math.Round((originalPrice - price) / originalPrice * 100)
	if d < 0 {
		return 0
	}
	return d
}

// Round2 四舍五入到两位小数
func Round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

func stoneTotal(s Stone, global float64) decimal.Decimal {
	ppc := s.PricePerCarat
	if ppc <= 0 {
		ppc = global
	}
	return decimal.NewFromFloat(s.Carat).
		Mul(decimal.NewFromInt(int64(s.Count))).
		Mul(decimal.NewFromFloat(ppc))
}

func mul(a, b float64) float64 {
	return decimal.NewFromFloat(a).Mul(decimal.NewFromFloat(b)).InexactFloat64()
}

func normalizeStone(s Stone) Stone {
	s.Carat = nonNegative(s.Carat)
	s.PricePerCarat = nonNegative(s.PricePerCarat)
	if s.Count <= 0 {
		s.Count = 1
	}
	return s
}

func normalizeAmounts(in map[string]Amount) map[string]Amount {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]Amount, len(in))
	for k, v := range in {
		if v.Amount < 0 {
			continue
		}
		out[strings.ToUpper(strings.TrimSpace(k))] = v
	}
	return out
}

func nonNegative(v float64) float64 {
	if v < 0 || math.IsNaN(v) {
		return 0
	}
	return v
}
