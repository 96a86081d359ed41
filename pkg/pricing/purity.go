package pricing

import (
	"regexp"
	"strings"
)

var purityPattern = regexp.MustCompile(`(?i)(\d+)\s*K`)

// ExtractPurityToken 从 "18K White Gold" 之类的字符串中提取 "18K"
func ExtractPurityToken(s string) (string, bool) {
	m := purityPattern.FindStringSubmatch(s)
	if m == nil {
		return "", false
	}
	return m[1] + "K", true
}

type metalKind int

const (
	metalGold metalKind = iota
	metalPlatinum
	metalSilver
)

func classifyMetal(m Metal) metalKind {
	t := strings.ToUpper(m.MetalType)
	switch {
	case strings.Contains(t, "PLATINUM"):
		return metalPlatinum
	case strings.Contains(t, "SILVER"), strings.TrimSpace(m.Purity) == "925":
		return metalSilver
	default:
		return metalGold
	}
}

// purityToken 优先使用显式 purity，其次从 metalType 中提取
func purityToken(m Metal) string {
	if tok, ok := ExtractPurityToken(m.Purity); ok {
		return tok
	}
	if p := strings.ToUpper(strings.TrimSpace(m.Purity)); p != "" {
		return p
	}
	if tok, ok := ExtractPurityToken(m.MetalType); ok {
		return tok
	}
	return ""
}

// MetalRate 返回每克单价及用于定价的成色标识，ok=false 表示找不到价格
func MetalRate(m Metal, cfg *Config) (rate float64, token string, ok bool) {
	if cfg == nil {
		return 0, "", false
	}
	switch classifyMetal(m) {
	case metalPlatinum:
		rate, token = cfg.PlatinumPricePerGram, "PLATINUM"
	case metalSilver:
		rate, token = cfg.Silver925PricePerGram, "SILVER925"
	default:
		token = purityToken(m)
		if token == "" {
			return 0, "", false
		}
		rate = lookupRate(cfg.GoldPrices, token)
	}
	if rate <= 0 {
		return 0, token, false
	}
	return rate, token, true
}

func lookupRate(table map[string]float64, key string) float64 {
	if v, ok := table[key]; ok {
		return v
	}
	key = strings.ToUpper(strings.TrimSpace(key))
	for k, v := range table {
		if strings.ToUpper(strings.TrimSpace(k)) == key {
			return v
		}
	}
	return 0
}
