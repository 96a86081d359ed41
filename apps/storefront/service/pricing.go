package service

import (
	"context"

	"go-jewelry/pkg/errx"
	"go-jewelry/pkg/metrics"
	"go-jewelry/pkg/pricing"

	"go.uber.org/zap"
)

// RecalcResult 定价更新 / 重算的结果
type RecalcResult struct {
	Pricing pricing.Config `json:"pricing"`
	Scope   []string       `json:"scope"`
	Updated int            `json:"updated"`
	Skipped []pricing.Skip `json:"skipped"`
}

type PricingService struct {
	ornaments  OrnamentStore
	pricing    PricingStore
	homeSymbol string
	metrics    *metrics.Metrics
	log        *zap.Logger
}

func NewPricingService(ornaments OrnamentStore, pricingStore PricingStore, currencies pricing.CurrencyTable, m *metrics.Metrics, log *zap.Logger) *PricingService {
	return &PricingService{
		ornaments:  ornaments,
		pricing:    pricingStore,
		homeSymbol: currencies.Lookup(pricing.HomeCurrency).Symbol,
		metrics:    m,
		log:        log,
	}
}

// GetPricing 当前定价配置
func (s *PricingService) GetPricing(ctx context.Context) (*pricing.Config, error) {
	cfg, err := s.pricing.Get(ctx)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, errx.NotFound("no pricing data found")
	}
	return cfg, nil
}

// UpdatePricing 保存修改后的配置，并重算受影响大类的商品价格
func (s *PricingService) UpdatePricing(ctx context.Context, u pricing.Update) (*RecalcResult, error) {
	if u.Empty() {
		return nil, errx.Validation("no pricing fields provided")
	}
	if err := validateUpdate(u); err != nil {
		return nil, err
	}

	cur, err := s.pricing.Get(ctx)
	if err != nil {
		return nil, err
	}
	next := u.Apply(cur)
	if err := s.pricing.Save(ctx, next); err != nil {
		return nil, err
	}
	s.log.Info("pricing updated", zap.Strings("scope", u.Categories()))

	return s.recalculate(ctx, u, next)
}

// Recalculate 按当前配置全量重算，定时任务调用
func (s *PricingService) Recalculate(ctx context.Context) (*RecalcResult, error) {
	cfg, err := loadPricing(ctx, s.pricing)
	if err != nil {
		return nil, err
	}
	return s.recalculate(ctx, pricing.UpdateFromConfig(*cfg), *cfg)
}

func (s *PricingService) recalculate(ctx context.Context, u pricing.Update, cfg pricing.Config) (*RecalcResult, error) {
	scope := u.Categories()
	res := &RecalcResult{Pricing: cfg, Scope: scope, Skipped: []pricing.Skip{}}
	if len(scope) == 0 {
		return res, nil
	}

	products, err := s.ornaments.ListForRecalc(ctx, scope)
	if err != nil {
		return nil, err
	}
	plan := pricing.PlanRecalculation(u, cfg, products)

	for _, skip := range plan.Skipped {
		s.log.Warn("skip price recalculation",
			zap.Uint("product_id", skip.ID),
			zap.String("purity", skip.Purity),
			zap.String("reason", skip.Reason))
	}
	s.metrics.Recalculations.WithLabelValues("skipped").Add(float64(len(plan.Skipped)))

	if err := s.ornaments.BulkUpdatePrices(ctx, plan.Updates, s.homeSymbol); err != nil {
		s.metrics.Recalculations.WithLabelValues("failed").Add(float64(len(plan.Updates)))
		return nil, err
	}
	s.metrics.Recalculations.WithLabelValues("updated").Add(float64(len(plan.Updates)))

	res.Updated = len(plan.Updates)
	res.Skipped = plan.Skipped
	s.log.Info("price recalculation finished",
		zap.Int("updated", res.Updated),
		zap.Int("skipped", len(res.Skipped)))
	return res, nil
}

func validateUpdate(u pricing.Update) error {
	for k, v := range u.GoldPrices {
		if v < 0 {
			return errx.Validationf("gold price for %s must not be negative", k)
		}
		if _, ok := pricing.ExtractPurityToken(k); !ok {
			return errx.Validationf("invalid purity %q", k)
		}
	}
	for k, v := range u.GemstonePrices {
		if v < 0 {
			return errx.Validationf("gemstone price for %s must not be negative", k)
		}
	}
	for _, p := range []*float64{u.DiamondPricePerCarat, u.PlatinumPricePerGram, u.Silver925PricePerGram} {
		if p != nil && *p < 0 {
			return errx.Validation("prices must not be negative")
		}
	}
	return nil
}
