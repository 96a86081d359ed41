package repository

import (
	"errors"
	"fmt"
	"testing"

	"go-jewelry/apps/storefront/model"
	"go-jewelry/pkg/errx"
	"go-jewelry/pkg/pricing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

// dryRunDB 只生成 SQL，不连接数据库
func dryRunDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(mysql.New(mysql.Config{
		DSN:                       "user:pass@tcp(127.0.0.1:3306)/jewelry?parseTime=True",
		SkipInitializeWithVersion: true,
	}), &gorm.Config{DryRun: true, DisableAutomaticPing: true})
	require.NoError(t, err)
	return db
}

func TestApplyFilterSQL(t *testing.T) {
	db := dryRunDB(t)
	minPrice := 1000.0

	sql := db.ToSQL(func(tx *gorm.DB) *gorm.DB {
		f := model.OrnamentFilter{
			Gender:     "Women",
			Categories: []string{"rings", "earrings"},
			MetalTypes: []string{"rose gold", " "},
			MinPrice:   &minPrice,
			Search:     "halo",
		}
		var out []model.Ornament
		return applyFilter(tx.Model(&model.Ornament{}), f).Find(&out)
	})

	assert.Contains(t, sql, "gender = 'Women'")
	assert.Contains(t, sql, "category IN ('rings','earrings')")
	assert.Contains(t, sql, "(LOWER(metal_type) LIKE '%rose gold%')")
	assert.Contains(t, sql, "price >= 1000")
	assert.Contains(t, sql, "LOWER(name) LIKE '%halo%' OR LOWER(description) LIKE '%halo%'")
	assert.NotContains(t, sql, "sub_category IN")
}

func TestApplyFilterEmpty(t *testing.T) {
	db := dryRunDB(t)

	sql := db.ToSQL(func(tx *gorm.DB) *gorm.DB {
		var out []model.Ornament
		return applyFilter(tx.Model(&model.Ornament{}), model.OrnamentFilter{}).Find(&out)
	})
	assert.NotContains(t, sql, "WHERE")
}

func TestSortOrdersCoverFilterValues(t *testing.T) {
	for _, s := range []string{model.SortPriceAsc, model.SortPriceDesc, model.SortNewest, model.SortOldest, model.SortFeatured} {
		assert.NotEmpty(t, sortOrders[s], s)
	}
}

func TestWithHomePrice(t *testing.T) {
	existing := map[string]pricing.Amount{"USD": {Amount: 700, Symbol: "$"}, "INR": {Amount: 1}}

	got := withHomePrice(existing, 58000, "₹")
	assert.Equal(t, pricing.Amount{Amount: 58000, Symbol: "₹"}, got["INR"])
	assert.Equal(t, 700.0, got["USD"].Amount)
	assert.Equal(t, 1.0, existing["INR"].Amount)

	assert.Len(t, withHomePrice(nil, 10, "₹"), 1)

	legacy := withHomePrice(map[string]pricing.Amount{"inr": {Amount: 1}, " usd ": {Amount: 700}}, 58000, "₹")
	assert.Equal(t, map[string]pricing.Amount{
		"INR": {Amount: 58000, Symbol: "₹"},
		"USD": {Amount: 700},
	}, legacy)
}

func TestLastUIDQueryLocksRow(t *testing.T) {
	db := dryRunDB(t)

	sql := db.ToSQL(func(tx *gorm.DB) *gorm.DB {
		var last model.User
		return lastUIDQuery(tx).Find(&last)
	})
	assert.Contains(t, sql, "FROM `users`")
	assert.Contains(t, sql, "ORDER BY id DESC LIMIT 1 FOR UPDATE")
}

func TestCreateWithUID(t *testing.T) {
	dup := fmt.Errorf("insert: %w", gorm.ErrDuplicatedKey)
	tests := []struct {
		name      string
		inserts   []error
		uidTaken  bool
		wantCalls int
		wantKind  errx.Kind
		wantErr   bool
	}{
		{name: "first try", inserts: []error{nil}, wantCalls: 1},
		{name: "uid race then success", inserts: []error{dup, nil}, uidTaken: true, wantCalls: 2},
		{name: "email taken", inserts: []error{dup}, wantCalls: 1, wantKind: errx.KindConflict, wantErr: true},
		{name: "uid race exhausted", inserts: []error{dup, dup, dup}, uidTaken: true, wantCalls: 3, wantKind: errx.KindUnavailable, wantErr: true},
		{name: "other error", inserts: []error{errors.New("connection reset")}, wantCalls: 1, wantKind: errx.KindInternal, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			err := createWithUID(3,
				func() error {
					calls++
					return tt.inserts[calls-1]
				},
				func() (bool, error) { return tt.uidTaken, nil })

			assert.Equal(t, tt.wantCalls, calls)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.wantKind, errx.KindOf(err))
		})
	}
}

func TestCartKeys(t *testing.T) {
	assert.Equal(t, "cart:42", UserCartKey(42))
	assert.Equal(t, "cart:guest:9b1d", GuestCartKey("9b1d"))
}

func TestParseItems(t *testing.T) {
	got := parseItems(map[string]string{
		"_":   "0",
		"12":  "2",
		"13":  "abc",
		"14":  "0",
		"x15": "1",
		"16":  "5",
	})
	assert.Equal(t, map[uint]int{12: 2, 16: 5}, got)
}
