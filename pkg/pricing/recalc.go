package pricing

import (
	"strings"
)

// 参与批量重算的商品大类
const (
	CategoryGold    = "Gold"
	CategoryDiamond = "Diamond"
)

// Update 管理员提交的定价修改，空指针 / 空 map 表示该项未修改
type Update struct {
	GoldPrices            map[string]float64 `json:"goldPrices,omitempty"`
	DiamondPricePerCarat  *float64           `json:"diamondPricePerCarat,omitempty"`
	PlatinumPricePerGram  *float64           `json:"platinumPricePerGram,omitempty"`
	Silver925PricePerGram *float64           `json:"silver925PricePerGram,omitempty"`
	GemstonePrices        map[string]float64 `json:"gemstonePrices,omitempty"`
}

// Empty 是否没有任何修改项
func (u Update) Empty() bool {
	return len(u.GoldPrices) == 0 &&
		u.DiamondPricePerCarat == nil &&
		u.PlatinumPricePerGram == nil &&
		u.Silver925PricePerGram == nil &&
		len(u.GemstonePrices) == 0
}

// Apply 在 cur 的基础上叠加修改项，cur 为 nil 时从零开始；map 类字段按 key 合并
func (u Update) Apply(cur *Config) Config {
	var out Config
	if cur != nil {
		out = *cur
	}
	out.GoldPrices = mergeRates(out.GoldPrices, u.GoldPrices)
	out.GemstonePrices = mergeRates(out.GemstonePrices, u.GemstonePrices)
	if u.DiamondPricePerCarat != nil {
		out.DiamondPricePerCarat = *u.DiamondPricePerCarat
	}
	if u.PlatinumPricePerGram != nil {
		out.PlatinumPricePerGram = *u.PlatinumPricePerGram
	}
	if u.Silver925PricePerGram != nil {
		out.Silver925PricePerGram = *u.Silver925PricePerGram
	}
	return out
}

// Categories 受本次修改影响、需要重算的商品大类
func (u Update) Categories() []string {
	var cats []string
	if len(u.GoldPrices) > 0 || u.PlatinumPricePerGram != nil || u.Silver925PricePerGram != nil {
		cats = append(cats, CategoryGold)
	}
	if u.DiamondPricePerCarat != nil {
		cats = append(cats, CategoryDiamond)
	}
	return cats
}

// UpdateFromConfig 把完整配置视为一次全量修改，定时重算使用
func UpdateFromConfig(cfg Config) Update {
	u := Update{
		GoldPrices:     cfg.GoldPrices,
		GemstonePrices: cfg.GemstonePrices,
	}
	diamond, platinum, silver := cfg.DiamondPricePerCarat, cfg.PlatinumPricePerGram, cfg.Silver925PricePerGram
	if diamond > 0 {
		u.DiamondPricePerCarat = &diamond
	}
	if platinum > 0 {
		u.PlatinumPricePerGram = &platinum
	}
	if silver > 0 {
		u.Silver925PricePerGram = &silver
	}
	return u
}

// RecalcProduct 重算所需的商品字段
type RecalcProduct struct {
	ID           uint
	CategoryType string
	Weight       float64
	Purity       string
	MetalType    string
}

// PriceUpdate 一条待写回的本位币价格，price / originalPrice / prices.INR 都取 Price
type PriceUpdate struct {
	ID    uint    `json:"id"`
	Price float64 `json:"price"`
}

// Skip 跳过的商品及原因
type Skip struct {
	ID     uint   `json:"id"`
	Purity string `json:"purity,omitempty"`
	Reason string `json:"reason"`
}

// Plan 批量重算的结果
type Plan struct {
	Updates []PriceUpdate `json:"updates"`
	Skipped []Skip        `json:"skipped"`
}

// PlanRecalculation 根据修改影响的大类，用 cfg 中的单价重算商品本位币价格。
// 纯函数，对同一输入重复执行结果一致。
func PlanRecalculation(update Update, cfg Config, products []RecalcProduct) Plan {
	scope := make(map[string]bool, 2)
	for _, c := range update.Categories() {
		scope[strings.ToUpper(c)] = true
	}

	plan := Plan{Updates: []PriceUpdate{}, Skipped: []Skip{}}
	for _, p := range products {
		category := strings.ToUpper(strings.TrimSpace(p.CategoryType))
		if !scope[category] {
			continue
		}
		if p.Weight <= 0 {
			plan.Skipped = append(plan.Skipped, Skip{ID: p.ID, Purity: p.Purity, Reason: "missing weight"})
			continue
		}

		switch category {
		case strings.ToUpper(CategoryGold):
			m := Metal{Weight: p.Weight, Purity: p.Purity, MetalType: p.MetalType}
			rate, token, ok := MetalRate(m, &cfg)
			if !ok {
				plan.Skipped = append(plan.Skipped, Skip{ID: p.ID, Purity: token, Reason: "no rate for purity"})
				continue
			}
			plan.Updates = append(plan.Updates, PriceUpdate{ID: p.ID, Price: Round2(mul(p.Weight, rate))})
		case strings.ToUpper(CategoryDiamond):
			if cfg.DiamondPricePerCarat <= 0 {
				plan.Skipped = append(plan.Skipped, Skip{ID: p.ID, Reason: "no diamond rate"})
				continue
			}
			plan.Updates = append(plan.Updates, PriceUpdate{ID: p.ID, Price: Round2(mul(p.Weight, cfg.DiamondPricePerCarat))})
		}
	}
	return plan
}

func mergeRates(base, patch map[string]float64) map[string]float64 {
	if len(base) == 0 && len(patch) == 0 {
		return base
	}
	out := make(map[string]float64, len(base)+len(patch))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range patch {
		key := strings.ToUpper(strings.TrimSpace(k))
		if key == "" || v < 0 {
			continue
		}
		// 删除大小写不同的旧 key，避免同一成色出现两个价格
		for old := range out {
			if old != key && strings.EqualFold(old, key) {
				delete(out, old)
			}
		}
		out[key] = v
	}
	return out
}
