package pricing

import (
	"sort"
	"strings"
)

// HomeCurrency 商品基础价格所用的本位币
const HomeCurrency = "INR"

// Currency 单个币种的汇率（相对本位币）和展示符号
type Currency struct {
	Code   string  `json:"code" mapstructure:"code"`
	Rate   float64 `json:"rate" mapstructure:"rate"`
	Symbol string  `json:"symbol" mapstructure:"symbol"`
}

// CurrencyTable 只读汇率表，创建后不再修改，可以在请求之间安全共享
type CurrencyTable struct {
	entries map[string]Currency
}

var defaultCurrencies = []Currency{
	{Code: "INR", Rate: 1, Symbol: "₹"},
	{Code: "USD", Rate: 0.012, Symbol: "$"},
	{Code: "GBP", Rate: 0.0095, Symbol: "£"},
	{Code: "CAD", Rate: 0.016, Symbol: "CA$"},
	{Code: "EUR", Rate: 0.011, Symbol: "€"},
	{Code: "AED", Rate: 0.044, Symbol: "AED"},
	{Code: "AUD", Rate: 0.018, Symbol: "A$"},
	{Code: "SGD", Rate: 0.016, Symbol: "S$"},
	{Code: "JPY", Rate: 1.8, Symbol: "¥"},
}

// DefaultCurrencyTable 内置的九个币种
func DefaultCurrencyTable() CurrencyTable {
	return NewCurrencyTable(defaultCurrencies)
}

// NewCurrencyTable 以传入的币种构建汇率表，本位币缺失时自动补上
func NewCurrencyTable(currencies []Currency) CurrencyTable {
	entries := make(map[string]Currency, len(currencies)+1)
	for _, c := range currencies {
		code := normalizeCode(c.Code)
		if code == "" || c.Rate <= 0 {
			continue
		}
		c.Code = code
		entries[code] = c
	}
	if _, ok := entries[HomeCurrency]; !ok {
		entries[HomeCurrency] = defaultCurrencies[0]
	}
	return CurrencyTable{entries: entries}
}

// Merge 返回叠加了 overrides 的新表，原表不变
func (t CurrencyTable) Merge(overrides map[string]Currency) CurrencyTable {
	merged := make([]Currency, 0, len(t.entries)+len(overrides))
	for _, c := range t.entries {
		merged = append(merged, c)
	}
	for code, c := range overrides {
		if c.Code == "" {
			c.Code = code
		}
		merged = append(merged, c)
	}
	return NewCurrencyTable(merged)
}

// Lookup 不区分大小写查找币种，未知币种回退到本位币
func (t CurrencyTable) Lookup(code string) Currency {
	if c, ok := t.entries[normalizeCode(code)]; ok {
		return c
	}
	if c, ok := t.entries[HomeCurrency]; ok {
		return c
	}
	return defaultCurrencies[0]
}

// Has 是否为已识别的币种
func (t CurrencyTable) Has(code string) bool {
	_, ok := t.entries[normalizeCode(code)]
	return ok
}

// Codes 按字母序返回全部币种代码
func (t CurrencyTable) Codes() []string {
	codes := make([]string, 0, len(t.entries))
	for code := range t.entries {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
