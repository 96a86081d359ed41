package service

import (
	"context"
	"sort"

	"go-jewelry/apps/storefront/model"
	"go-jewelry/apps/storefront/repository"
	"go-jewelry/pkg/errx"
	"go-jewelry/pkg/pricing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CartLine 购物车中的一行
type CartLine struct {
	OrnamentID uint            `json:"ornamentId"`
	Quantity   int             `json:"quantity"`
	Ornament   *model.Ornament `json:"ornament"`
	Pricing    pricing.Quote   `json:"pricing"`
	LineTotal  float64         `json:"lineTotal"`
}

// Cart 按请求币种计价后的购物车
type Cart struct {
	GuestID        string     `json:"guestId,omitempty"`
	Items          []CartLine `json:"items"`
	Currency       string     `json:"currency"`
	CurrencySymbol string     `json:"currencySymbol"`
	Subtotal       float64    `json:"subtotal"`
}

type CartService struct {
	carts     CartStore
	ornaments OrnamentStore
	pricing   PricingStore
	resolver  *pricing.Resolver
}

func NewCartService(carts CartStore, ornaments OrnamentStore, pricingStore PricingStore, resolver *pricing.Resolver) *CartService {
	return &CartService{carts: carts, ornaments: ornaments, pricing: pricingStore, resolver: resolver}
}

// InitGuestCart 创建游客购物车
func (s *CartService) InitGuestCart(ctx context.Context, currency string) (*Cart, error) {
	guestID := uuid.NewString()
	if err := s.carts.Touch(ctx, repository.GuestCartKey(guestID)); err != nil {
		return nil, err
	}
	return s.view(ctx, guestID, map[uint]int{}, currency)
}

// AddGuestItem guestID 为空时自动创建
func (s *CartService) AddGuestItem(ctx context.Context, guestID string, ornamentID uint, qty int, currency string) (*Cart, error) {
	if guestID == "" {
		guestID = uuid.NewString()
	} else if err := validateGuestID(guestID); err != nil {
		return nil, err
	}
	key := repository.GuestCartKey(guestID)
	if err := s.add(ctx, key, ornamentID, qty); err != nil {
		return nil, err
	}
	return s.load(ctx, key, guestID, currency)
}

// GetGuestCart 不存在的购物车返回空
func (s *CartService) GetGuestCart(ctx context.Context, guestID, currency string) (*Cart, error) {
	if err := validateGuestID(guestID); err != nil {
		return nil, err
	}
	return s.load(ctx, repository.GuestCartKey(guestID), guestID, currency)
}

// RemoveGuestItem 购物车不存在时返回 NotFound
func (s *CartService) RemoveGuestItem(ctx context.Context, guestID string, ornamentID uint, currency string) (*Cart, error) {
	if err := validateGuestID(guestID); err != nil {
		return nil, err
	}
	key := repository.GuestCartKey(guestID)
	if err := s.remove(ctx, key, ornamentID); err != nil {
		return nil, err
	}
	return s.load(ctx, key, guestID, currency)
}

func (s *CartService) AddUserItem(ctx context.Context, userID, ornamentID uint, qty int, currency string) (*Cart, error) {
	key := repository.UserCartKey(userID)
	if err := s.add(ctx, key, ornamentID, qty); err != nil {
		return nil, err
	}
	return s.load(ctx, key, "", currency)
}

func (s *CartService) GetUserCart(ctx context.Context, userID uint, currency string) (*Cart, error) {
	return s.load(ctx, repository.UserCartKey(userID), "", currency)
}

// UpdateUserItem 直接设置数量
func (s *CartService) UpdateUserItem(ctx context.Context, userID, ornamentID uint, qty int, currency string) (*Cart, error) {
	if ornamentID == 0 {
		return nil, errx.Validation("ornamentId is required")
	}
	if qty < 1 {
		return nil, errx.Validation("quantity must be at least 1")
	}
	key := repository.UserCartKey(userID)
	ok, err := s.carts.Set(ctx, key, ornamentID, qty)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errx.NotFound("item not found in cart")
	}
	return s.load(ctx, key, "", currency)
}

func (s *CartService) RemoveUserItem(ctx context.Context, userID, ornamentID uint, currency string) (*Cart, error) {
	key := repository.UserCartKey(userID)
	if err := s.remove(ctx, key, ornamentID); err != nil {
		return nil, err
	}
	return s.load(ctx, key, "", currency)
}

// MergeGuestIntoUser 登录时把游客购物车合并到用户购物车，数量累加
func (s *CartService) MergeGuestIntoUser(ctx context.Context, guestID string, userID uint) error {
	if guestID == "" {
		return nil
	}
	if err := validateGuestID(guestID); err != nil {
		return err
	}
	return s.carts.Merge(ctx, repository.GuestCartKey(guestID), repository.UserCartKey(userID))
}

func (s *CartService) add(ctx context.Context, key string, ornamentID uint, qty int) error {
	if ornamentID == 0 {
		return errx.Validation("ornamentId is required")
	}
	if qty == 0 {
		qty = 1
	}
	if qty < 0 {
		return errx.Validation("quantity must be positive")
	}
	if _, err := s.ornaments.Get(ctx, ornamentID); err != nil {
		return err
	}
	return s.carts.Add(ctx, key, ornamentID, qty)
}

func (s *CartService) remove(ctx context.Context, key string, ornamentID uint) error {
	ok, err := s.carts.Exists(ctx, key)
	if err != nil {
		return err
	}
	if !ok {
		return errx.NotFound("cart not found")
	}
	return s.carts.Remove(ctx, key, ornamentID)
}

func (s *CartService) load(ctx context.Context, key, guestID, currency string) (*Cart, error) {
	items, err := s.carts.Items(ctx, key)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, guestID, items, currency)
}

// view 为每一行计价，已下架的商品不展示
func (s *CartService) view(ctx context.Context, guestID string, items map[uint]int, currency string) (*Cart, error) {
	cur := s.resolver.Currencies().Lookup(currency)
	cart := &Cart{GuestID: guestID, Items: []CartLine{}, Currency: cur.Code, CurrencySymbol: cur.Symbol}
	if len(items) == 0 {
		return cart, nil
	}

	cfg, err := loadPricing(ctx, s.pricing)
	if err != nil {
		return nil, err
	}

	ids := make([]uint, 0, len(items))
	for id := range items {
		ids = append(ids, id)
	}
	ornaments, err := s.ornaments.GetMany(ctx, ids)
	if err != nil {
		return nil, err
	}
	sort.Slice(ornaments, func(i, j int) bool { return ornaments[i].ID < ornaments[j].ID })

	subtotal := decimal.Zero
	for i := range ornaments {
		o := &ornaments[i]
		q, err := s.resolver.Resolve(o.PricingItem(), currency, cfg)
		if err != nil {
			return nil, err
		}
		qty := items[o.ID]
		line := decimal.NewFromFloat(q.TotalConvertedPrice).Mul(decimal.NewFromInt(int64(qty))).Round(2)
		subtotal = subtotal.Add(line)
		cart.Items = append(cart.Items, CartLine{
			OrnamentID: o.ID,
			Quantity:   qty,
			Ornament:   o,
			Pricing:    q,
			LineTotal:  line.InexactFloat64(),
		})
	}
	cart.Subtotal = subtotal.Round(2).InexactFloat64()
	return cart, nil
}

func validateGuestID(guestID string) error {
	if _, err := uuid.Parse(guestID); err != nil {
		return errx.Validation("invalid guestId")
	}
	return nil
}
