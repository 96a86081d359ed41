package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go-jewelry/apps/storefront/handler"
	"go-jewelry/apps/storefront/middleware"
	"go-jewelry/apps/storefront/model"
	"go-jewelry/apps/storefront/repository"
	"go-jewelry/apps/storefront/service"
	"go-jewelry/pkg/config"
	"go-jewelry/pkg/database"
	"go-jewelry/pkg/discovery"
	"go-jewelry/pkg/geo"
	"go-jewelry/pkg/jwt"
	"go-jewelry/pkg/logger"
	"go-jewelry/pkg/mailer"
	"go-jewelry/pkg/metrics"
	"go-jewelry/pkg/pricing"
	"go-jewelry/pkg/storage"
	"go-jewelry/pkg/tracer"

	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

func main() {
	c, err := config.LoadConfigOrDefault(".")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zl, err := logger.New(logger.Config{
		Environment: c.Service.Environment,
		Level:       c.Log.Level,
		Service:     c.Service.Name,
	})
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer zl.Sync()

	if err := run(c, zl); err != nil {
		zl.Fatal("storefront exited", zap.Error(err))
	}
}

func run(c *config.Config, zl *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if c.Service.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	if c.JWT.Secret == "" {
		return errors.New("jwt.secret is required")
	}

	// 1. 链路追踪
	serviceName := ""
	if c.Tracing.Enabled {
		tp, err := tracer.InitTracer(ctx, c.Service.Name, c.Service.Environment, c.Tracing.Endpoint)
		if err != nil {
			return fmt.Errorf("init tracer: %w", err)
		}
		defer shutdown(zl, "tracer", tp.Shutdown)
		serviceName = c.Service.Name
	}

	// 2. 存储
	db, err := database.InitMySQL(c.Mysql, c.Service.Environment != "production")
	if err != nil {
		return fmt.Errorf("init mysql: %w", err)
	}
	if err := db.AutoMigrate(&model.Ornament{}, &model.PricingConfig{}, &model.User{}, &model.TrackingLog{}); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	rdb, err := database.InitRedis(ctx, c.Redis)
	if err != nil {
		return fmt.Errorf("init redis: %w", err)
	}
	defer rdb.Close()

	// 3. 邮件队列
	mqConn, mqCh, err := mailer.Connect(c.RabbitMQ.URL, c.RabbitMQ.MailQueue)
	if err != nil {
		return fmt.Errorf("connect rabbitmq: %w", err)
	}
	defer mqConn.Close()
	defer mqCh.Close()
	mail := mailer.NewQueuePublisher(mqCh, c.RabbitMQ.MailQueue)

	// 4. IP 定位，未配置数据库时国家统一为 Unknown
	var locator geo.Locator = geo.NopLocator{}
	if c.GeoIP.DatabasePath != "" {
		gl, err := geo.Open(c.GeoIP.DatabasePath)
		if err != nil {
			return fmt.Errorf("open geoip database: %w", err)
		}
		defer gl.Close()
		locator = gl
	} else {
		zl.Warn("geoip database not configured, locations will be Unknown")
	}

	uploader, err := storage.NewS3Uploader(c.Storage)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}

	// 5. 业务组装
	m := metrics.New()
	tokens := jwt.NewManager(c.JWT.Secret, c.JWT.TTL)
	currencies := currencyTable(c.Currencies)
	resolver := pricing.NewResolver(currencies)

	ornaments := repository.NewOrnamentRepository(db)
	pricingRepo := repository.NewPricingRepository(db)
	users := repository.NewUserRepository(db)
	carts := repository.NewCartRepository(rdb, c.Redis.CartTTL)

	catalog := service.NewCatalogService(ornaments, pricingRepo, resolver, uploader, zl.Named("catalog"))
	pricingSvc := service.NewPricingService(ornaments, pricingRepo, currencies, m, zl.Named("pricing"))
	cartSvc := service.NewCartService(carts, ornaments, pricingRepo, resolver)
	accounts := service.NewAccountService(users, cartSvc, tokens, mail, c.Service.FrontendURL, zl.Named("account"))
	contact := service.NewContactService(mail, service.Recipients{
		Support:   c.Service.SupportEmail,
		Franchise: firstSet(c.Service.FranchiseEmail, c.Service.SupportEmail),
		Custom:    firstSet(c.Service.CustomRequestEmail, c.Service.SupportEmail),
	}, m, zl.Named("contact"))
	tracking := service.NewTrackingService(repository.NewTrackingRepository(db))

	// 6. 限流
	if err := middleware.InitSentinel(c.RateLimit.ContactQPS, c.RateLimit.PasswordQPS); err != nil {
		return fmt.Errorf("init sentinel: %w", err)
	}

	// 7. 定时重算价格
	scheduler := cron.New()
	if _, err := scheduler.AddFunc(c.Pricing.RecalcCron, func() {
		jobCtx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		if _, err := pricingSvc.Recalculate(jobCtx); err != nil {
			zl.Warn("scheduled price recalculation failed", zap.Error(err))
		}
	}); err != nil {
		return fmt.Errorf("schedule recalculation %q: %w", c.Pricing.RecalcCron, err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	engine := handler.Router{
		Ornaments:   handler.NewOrnamentHandler(catalog),
		Pricing:     handler.NewPricingHandler(pricingSvc),
		Carts:       handler.NewCartHandler(cartSvc),
		Users:       handler.NewUserHandler(accounts),
		Contact:     handler.NewContactHandler(contact, tracking),
		Tokens:      tokens,
		Metrics:     m,
		Log:         zl.Named("http"),
		Locator:     locator,
		FallbackIP:  c.GeoIP.FallbackIP,
		ServiceName: serviceName,
		RateLimit:   true,
	}.Engine()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", c.Service.Port),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// 8. 服务注册
	if c.Consul.Enabled {
		reg, err := discovery.RegisterService(c.Service.Name, c.Service.Port, c.Consul.Address, "/healthz")
		if err != nil {
			return fmt.Errorf("register service: %w", err)
		}
		defer func() {
			if err := reg.Deregister(); err != nil {
				zl.Warn("deregister service failed", zap.Error(err))
			}
		}()
	}

	errCh := make(chan error, 1)
	go func() {
		zl.Info("storefront listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	zl.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// currencyTable 配置文件中的汇率覆盖内置表
func currencyTable(overrides map[string]config.CurrencyConfig) pricing.CurrencyTable {
	table := pricing.DefaultCurrencyTable()
	if len(overrides) == 0 {
		return table
	}
	merged := make(map[string]pricing.Currency, len(overrides))
	for code, cur := range overrides {
		code = strings.ToUpper(code)
		merged[code] = pricing.Currency{Code: code, Rate: cur.Rate, Symbol: cur.Symbol}
	}
	return table.Merge(merged)
}

func firstSet(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func shutdown(zl *zap.Logger, what string, fn func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := fn(ctx); err != nil {
		zl.Warn("shutdown failed", zap.String("component", what), zap.Error(err))
	}
}
