package repository

import (
	"context"
	"errors"
	"strings"

	"go-jewelry/apps/storefront/model"
	"go-jewelry/pkg/errx"
	"go-jewelry/pkg/pricing"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// 全文搜索覆盖的字段
var searchColumns = []string{
	"name", "description", "category", "sub_category", "type",
	"metal_type", "stone_type", "style", "color",
}

var sortOrders = map[string]string{
	model.SortPriceAsc:  "price ASC",
	model.SortPriceDesc: "price DESC",
	model.SortNewest:    "created_at DESC",
	model.SortOldest:    "created_at ASC",
	model.SortFeatured:  "is_featured DESC, created_at DESC",
}

type OrnamentRepository struct {
	db *gorm.DB
}

func NewOrnamentRepository(db *gorm.DB) *OrnamentRepository {
	return &OrnamentRepository{db: db}
}

// List 按条件分页查询，返回当前页和总数
func (r *OrnamentRepository) List(ctx context.Context, f model.OrnamentFilter) ([]model.Ornament, int64, error) {
	f = f.Normalize()
	query := applyFilter(r.db.WithContext(ctx).Model(&model.Ornament{}), f)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var items []model.Ornament
	err := query.Order(sortOrders[f.Sort]).Offset(f.Offset()).Limit(f.Limit).Find(&items).Error
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func applyFilter(q *gorm.DB, f model.OrnamentFilter) *gorm.DB {
	if f.Gender != "" {
		q = q.Where("gender = ?", f.Gender)
	}
	if len(f.Categories) > 0 {
		q = q.Where("category IN ?", f.Categories)
	}
	if len(f.SubCategories) > 0 {
		q = q.Where("sub_category IN ?", f.SubCategories)
	}
	if f.Type != "" {
		q = q.Where("type = ?", f.Type)
	}
	q = anyLike(q, []string{"metal_type"}, f.MetalTypes)
	q = anyLike(q, []string{"stone_type"}, f.StoneTypes)
	q = anyLike(q, []string{"style"}, f.Styles)
	q = anyLike(q, []string{"size"}, f.Sizes)
	q = anyLike(q, []string{"color"}, f.Colors)
	if f.MinPrice != nil {
		q = q.Where("price >= ?", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		q = q.Where("price <= ?", *f.MaxPrice)
	}
	if f.Search != "" {
		q = anyLike(q, searchColumns, []string{f.Search})
	}
	return q
}

// anyLike 任一字段包含任一取值（不区分大小写）
func anyLike(q *gorm.DB, columns, values []string) *gorm.DB {
	conds := make([]string, 0, len(columns)*len(values))
	args := make([]interface{}, 0, cap(conds))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		pattern := "%" + strings.ToLower(v) + "%"
		for _, col := range columns {
			conds = append(conds, "LOWER("+col+") LIKE ?")
			args = append(args, pattern)
		}
	}
	if len(conds) == 0 {
		return q
	}
	return q.Where("("+strings.Join(conds, " OR ")+")", args...)
}

// Get 按 ID 查询
func (r *OrnamentRepository) Get(ctx context.Context, id uint) (*model.Ornament, error) {
	var o model.Ornament
	if err := r.db.WithContext(ctx).First(&o, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errx.NotFound("ornament not found")
		}
		return nil, err
	}
	return &o, nil
}

// GetMany 批量查询，不存在的 ID 直接忽略
func (r *OrnamentRepository) GetMany(ctx context.Context, ids []uint) ([]model.Ornament, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var items []model.Ornament
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&items).Error
	return items, err
}

// ListByDesignCode 同款的其他材质
func (r *OrnamentRepository) ListByDesignCode(ctx context.Context, designCode string, excludeID uint) ([]model.Ornament, error) {
	if designCode == "" {
		return nil, nil
	}
	var items []model.Ornament
	err := r.db.WithContext(ctx).
		Where("design_code = ? AND id <> ?", designCode, excludeID).
		Order("id ASC").
		Find(&items).Error
	return items, err
}

// CountByCategoryGender SKU 序号使用
func (r *OrnamentRepository) CountByCategoryGender(ctx context.Context, category, gender string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Ornament{}).
		Where("category = ? AND gender = ?", category, gender).
		Count(&n).Error
	return n, err
}

func (r *OrnamentRepository) Create(ctx context.Context, o *model.Ornament) error {
	err := r.db.WithContext(ctx).Create(o).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return errx.Conflict("sku already exists")
	}
	return err
}

func (r *OrnamentRepository) Update(ctx context.Context, o *model.Ornament) error {
	return r.db.WithContext(ctx).Save(o).Error
}

func (r *OrnamentRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&model.Ornament{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errx.NotFound("ornament not found")
	}
	return nil
}

// ListForRecalc 取出指定大类的商品用于批量重算
func (r *OrnamentRepository) ListForRecalc(ctx context.Context, categoryTypes []string) ([]pricing.RecalcProduct, error) {
	if len(categoryTypes) == 0 {
		return nil, nil
	}
	var rows []pricing.RecalcProduct
	err := r.db.WithContext(ctx).Model(&model.Ornament{}).
		Select("id, category_type, weight, purity, metal_type").
		Where("category_type IN ?", categoryTypes).
		Order("id ASC").
		Scan(&rows).Error
	return rows, err
}

// BulkUpdatePrices 在一个事务里写回 price / original_price / prices.INR
func (r *OrnamentRepository) BulkUpdatePrices(ctx context.Context, updates []pricing.PriceUpdate, homeSymbol string) error {
	if len(updates) == 0 {
		return nil
	}
	ids := make([]uint, len(updates))
	for i, u := range updates {
		ids[i] = u.ID
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current []model.Ornament
		if err := tx.Select("id, prices").Where("id IN ?", ids).Find(&current).Error; err != nil {
			return err
		}
		existing := make(map[uint]map[string]pricing.Amount, len(current))
		for _, o := range current {
			existing[o.ID] = o.Prices.Data()
		}

		for _, u := range updates {
			prices := withHomePrice(existing[u.ID], u.Price, homeSymbol)
			err := tx.Model(&model.Ornament{}).Where("id = ?", u.ID).Updates(map[string]interface{}{
				"price":          u.Price,
				"original_price": u.Price,
				"prices":         datatypes.NewJSONType(prices),
			}).Error
			if err != nil {
				return err
			}
		}
		return nil
	})
}

func withHomePrice(prices map[string]pricing.Amount, amount float64, symbol string) map[string]pricing.Amount {
	out := make(map[string]pricing.Amount, len(prices)+1)
	for k, v := range prices {
		out[strings.ToUpper(strings.TrimSpace(k))] = v
	}
	out[pricing.HomeCurrency] = pricing.Amount{Amount: amount, Symbol: symbol}
	return out
}
