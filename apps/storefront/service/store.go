package service

import (
	"context"
	"time"

	"go-jewelry/apps/storefront/model"
	"go-jewelry/pkg/pricing"
)

// OrnamentStore 饰品存储，由 repository.OrnamentRepository 实现
type OrnamentStore interface {
	List(ctx context.Context, f model.OrnamentFilter) ([]model.Ornament, int64, error)
	Get(ctx context.Context, id uint) (*model.Ornament, error)
	GetMany(ctx context.Context, ids []uint) ([]model.Ornament, error)
	ListByDesignCode(ctx context.Context, designCode string, excludeID uint) ([]model.Ornament, error)
	CountByCategoryGender(ctx context.Context, category, gender string) (int64, error)
	Create(ctx context.Context, o *model.Ornament) error
	Update(ctx context.Context, o *model.Ornament) error
	Delete(ctx context.Context, id uint) error
	ListForRecalc(ctx context.Context, categoryTypes []string) ([]pricing.RecalcProduct, error)
	BulkUpdatePrices(ctx context.Context, updates []pricing.PriceUpdate, homeSymbol string) error
}

// PricingStore 定价配置存储，Get 在没有配置时返回 nil, nil
type PricingStore interface {
	Get(ctx context.Context) (*pricing.Config, error)
	Save(ctx context.Context, cfg pricing.Config) error
}

// CartStore 购物车存储
type CartStore interface {
	Items(ctx context.Context, key string) (map[uint]int, error)
	Exists(ctx context.Context, key string) (bool, error)
	Touch(ctx context.Context, key string) error
	Add(ctx context.Context, key string, ornamentID uint, qty int) error
	Set(ctx context.Context, key string, ornamentID uint, qty int) (bool, error)
	Remove(ctx context.Context, key string, ornamentID uint) error
	Merge(ctx context.Context, from, to string) error
}

// UserStore 用户存储
type UserStore interface {
	Create(ctx context.Context, u *model.User) error
	FindByID(ctx context.Context, id uint) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	ExistsByEmailOrPhone(ctx context.Context, email, phone string) (bool, error)
	FindByResetToken(ctx context.Context, tokenHash string, now time.Time) (*model.User, error)
	SetResetToken(ctx context.Context, userID uint, tokenHash string, expire *time.Time) error
	UpdatePassword(ctx context.Context, userID uint, hash string) error
}

// TrackingStore 埋点日志存储
type TrackingStore interface {
	Create(ctx context.Context, log *model.TrackingLog) error
}

// TokenIssuer 签发登录 token
type TokenIssuer interface {
	GenerateToken(userID uint, email string, isAdmin bool) (string, error)
}
