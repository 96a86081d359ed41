package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"go-jewelry/apps/storefront/model"
	"go-jewelry/apps/storefront/service"
	"go-jewelry/pkg/errx"
	"go-jewelry/pkg/geo"
	"go-jewelry/pkg/jwt"
	"go-jewelry/pkg/mailer"
	"go-jewelry/pkg/metrics"
	"go-jewelry/pkg/pricing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// memOrnaments 只实现路由测试用到的行为
type memOrnaments struct {
	items map[uint]model.Ornament
	last  model.OrnamentFilter
}

func (m *memOrnaments) List(_ context.Context, f model.OrnamentFilter) ([]model.Ornament, int64, error) {
	m.last = f
	out := make([]model.Ornament, 0, len(m.items))
	for id := uint(1); id <= uint(len(m.items)); id++ {
		if o, ok := m.items[id]; ok {
			out = append(out, o)
		}
	}
	return out, int64(len(out)), nil
}

func (m *memOrnaments) Get(_ context.Context, id uint) (*model.Ornament, error) {
	o, ok := m.items[id]
	if !ok {
		return nil, errx.NotFound("ornament not found")
	}
	return &o, nil
}

func (m *memOrnaments) GetMany(ctx context.Context, ids []uint) ([]model.Ornament, error) {
	var out []model.Ornament
	for _, id := range ids {
		if o, ok := m.items[id]; ok {
			out = append(out, o)
		}
	}
	return out, nil
}

func (m *memOrnaments) ListByDesignCode(context.Context, string, uint) ([]model.Ornament, error) {
	return nil, nil
}

func (m *memOrnaments) CountByCategoryGender(context.Context, string, string) (int64, error) {
	return int64(len(m.items)), nil
}

func (m *memOrnaments) Create(_ context.Context, o *model.Ornament) error {
	o.ID = uint(len(m.items) + 1)
	m.items[o.ID] = *o
	return nil
}

func (m *memOrnaments) Update(_ context.Context, o *model.Ornament) error {
	m.items[o.ID] = *o
	return nil
}

func (m *memOrnaments) Delete(_ context.Context, id uint) error {
	if _, ok := m.items[id]; !ok {
		return errx.NotFound("ornament not found")
	}
	delete(m.items, id)
	return nil
}

func (m *memOrnaments) ListForRecalc(context.Context, []string) ([]pricing.RecalcProduct, error) {
	return nil, nil
}

func (m *memOrnaments) BulkUpdatePrices(context.Context, []pricing.PriceUpdate, string) error {
	return nil
}

type memPricing struct{ cfg *pricing.Config }

func (m *memPricing) Get(context.Context) (*pricing.Config, error) { return m.cfg, nil }
func (m *memPricing) Save(_ context.Context, cfg pricing.Config) error {
	m.cfg = &cfg
	return nil
}

type memCarts struct{ carts map[string]map[uint]int }

func (m *memCarts) Items(_ context.Context, key string) (map[uint]int, error) {
	out := map[uint]int{}
	for k, v := range m.carts[key] {
		out[k] = v
	}
	return out, nil
}
func (m *memCarts) Exists(_ context.Context, key string) (bool, error) {
	_, ok := m.carts[key]
	return ok, nil
}
func (m *memCarts) Touch(_ context.Context, key string) error {
	if m.carts[key] == nil {
		m.carts[key] = map[uint]int{}
	}
	return nil
}
func (m *memCarts) Add(ctx context.Context, key string, id uint, qty int) error {
	_ = m.Touch(ctx, key)
	m.carts[key][id] += qty
	return nil
}
func (m *memCarts) Set(_ context.Context, key string, id uint, qty int) (bool, error) {
	if _, ok := m.carts[key][id]; !ok {
		return false, nil
	}
	m.carts[key][id] = qty
	return true, nil
}
func (m *memCarts) Remove(_ context.Context, key string, id uint) error {
	delete(m.carts[key], id)
	return nil
}
func (m *memCarts) Merge(context.Context, string, string) error { return nil }

type memUsers struct{ users []model.User }

func (m *memUsers) Create(_ context.Context, u *model.User) error {
	u.ID = uint(len(m.users) + 1)
	u.UID = model.NextUID("")
	m.users = append(m.users, *u)
	return nil
}
func (m *memUsers) FindByID(_ context.Context, id uint) (*model.User, error) {
	for i := range m.users {
		if m.users[i].ID == id {
			return &m.users[i], nil
		}
	}
	return nil, errx.NotFound("user not found")
}
func (m *memUsers) FindByEmail(_ context.Context, email string) (*model.User, error) {
	for i := range m.users {
		if m.users[i].Email == email {
			return &m.users[i], nil
		}
	}
	return nil, errx.NotFound("user not found")
}
func (m *memUsers) ExistsByEmailOrPhone(ctx context.Context, email, _ string) (bool, error) {
	_, err := m.FindByEmail(ctx, email)
	return err == nil, nil
}
func (m *memUsers) FindByResetToken(context.Context, string, time.Time) (*model.User, error) {
	return nil, errx.NotFound("invalid or expired token")
}
func (m *memUsers) SetResetToken(context.Context, uint, string, *time.Time) error { return nil }
func (m *memUsers) UpdatePassword(context.Context, uint, string) error            { return nil }

type memTracking struct{ logs []*model.TrackingLog }

func (m *memTracking) Create(_ context.Context, l *model.TrackingLog) error {
	m.logs = append(m.logs, l)
	return nil
}

type memMail struct{ sent []mailer.Message }

func (m *memMail) Send(_ context.Context, msg mailer.Message) error {
	m.sent = append(m.sent, msg)
	return nil
}

type memUploader struct{}

func (memUploader) Upload(_ context.Context, folder, name, _ string, _ []byte) (string, error) {
	return "https://cdn.example.com/" + folder + "/" + name, nil
}

type fixedLocator struct{}

func (fixedLocator) Locate(ip string) geo.Location {
	return geo.Location{IP: ip, Country: "India", Region: "Delhi", City: "New Delhi"}
}

type testServer struct {
	engine    *gin.Engine
	tokens    *jwt.Manager
	ornaments *memOrnaments
	pricing   *memPricing
	tracking  *memTracking
	mail      *memMail
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	log := zap.NewNop()
	m := metrics.New()
	tokens := jwt.NewManager("test-secret", time.Hour)
	resolver := pricing.NewResolver(pricing.DefaultCurrencyTable())

	ornaments := &memOrnaments{items: map[uint]model.Ornament{
		1: {
			ID: 1, Name: "Solitaire Ring", SKU: "GO-W-RIN-001", CategoryType: "Gold", Category: "Rings",
			Type: "Rings", Gender: "Women", Weight: 5, Purity: "18K", Price: 110000, OriginalPrice: 110000,
			DiamondDetails: datatypes.NewJSONType(&pricing.Stone{Carat: 1, Count: 2, PricePerCarat: 40000}),
			CoverImage:     "ring.jpg",
		},
	}}
	ps := &memPricing{cfg: &pricing.Config{GoldPrices: map[string]float64{"18K": 6000}, DiamondPricePerCarat: 50000}}
	carts := &memCarts{carts: map[string]map[uint]int{}}
	tracking := &memTracking{}
	mail := &memMail{}

	cartSvc := service.NewCartService(carts, ornaments, ps, resolver)
	rt := Router{
		Ornaments:  NewOrnamentHandler(service.NewCatalogService(ornaments, ps, resolver, memUploader{}, log)),
		Pricing:    NewPricingHandler(service.NewPricingService(ornaments, ps, resolver.Currencies(), m, log)),
		Carts:      NewCartHandler(cartSvc),
		Users:      NewUserHandler(service.NewAccountService(&memUsers{}, cartSvc, tokens, mail, "https://shop.example.com", log)),
		Contact:    NewContactHandler(service.NewContactService(mail, service.Recipients{Support: "s@example.com", Franchise: "f@example.com", Custom: "c@example.com"}, m, log), service.NewTrackingService(tracking)),
		Tokens:     tokens,
		Metrics:    m,
		Log:        log,
		Locator:    fixedLocator{},
		FallbackIP: geo.DefaultFallbackIP,
	}
	return &testServer{engine: rt.Engine(), tokens: tokens, ornaments: ornaments, pricing: ps, tracking: tracking, mail: mail}
}

type envelope struct {
	Code int             `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

func (s *testServer) do(t *testing.T, method, path string, body any, token string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 && w.Header().Get("Content-Type") == "application/json; charset=utf-8" {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	}
	return w, env
}

func (s *testServer) adminToken(t *testing.T) string {
	t.Helper()
	tok, err := s.tokens.GenerateToken(1, "admin@example.com", true)
	require.NoError(t, err)
	return tok
}

func TestListOrnamentsEndpoint(t *testing.T) {
	s := newTestServer(t)

	w, env := s.do(t, http.MethodGet, "/api/v1/ornaments?currency=usd&category=Rings,%20Bands&minPrice=100&page=1&limit=5&sort=price_asc", nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	var list service.OrnamentList
	require.NoError(t, json.Unmarshal(env.Data, &list))
	require.Len(t, list.Items, 1)
	assert.Equal(t, 1320.0, list.Items[0].Pricing.DisplayPrice)
	assert.Equal(t, "$", list.Items[0].Pricing.CurrencySymbol)

	assert.Equal(t, []string{"Rings", "Bands"}, s.ornaments.last.Categories)
	require.NotNil(t, s.ornaments.last.MinPrice)
	assert.Equal(t, 100.0, *s.ornaments.last.MinPrice)
	assert.Equal(t, 5, s.ornaments.last.Limit)
	assert.Equal(t, model.SortPriceAsc, s.ornaments.last.Sort)

	w, _ = s.do(t, http.MethodGet, "/api/v1/ornaments?maxPrice=abc", nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestOrnamentEndpointsWithoutPricing(t *testing.T) {
	s := newTestServer(t)
	s.pricing.cfg = nil

	w, env := s.do(t, http.MethodGet, "/api/v1/ornaments/1", nil, "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "pricing not configured", env.Msg)

	w, _ = s.do(t, http.MethodGet, "/api/v1/pricing", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetOrnamentEndpoint(t *testing.T) {
	s := newTestServer(t)

	w, env := s.do(t, http.MethodGet, "/api/v1/ornaments/1?currency=INR", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var detail struct {
		ID            uint          `json:"id"`
		Pricing       pricing.Quote `json:"pricing"`
		StartingPrice float64       `json:"startingPrice"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &detail))
	assert.Equal(t, uint(1), detail.ID)
	assert.Equal(t, 110000.0, detail.Pricing.TotalConvertedPrice)
	assert.Equal(t, 110000.0, detail.StartingPrice)

	w, _ = s.do(t, http.MethodGet, "/api/v1/ornaments/404", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	w, _ = s.do(t, http.MethodGet, "/api/v1/ornaments/abc", nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAdminOrnamentEndpoints(t *testing.T) {
	s := newTestServer(t)
	body := map[string]any{
		"name": "Chain", "categoryType": "Gold", "category": "Chains", "gender": "Men",
		"price": 50000, "coverImage": "chain.jpg",
	}

	w, _ := s.do(t, http.MethodPost, "/api/v1/ornaments", body, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	user, err := s.tokens.GenerateToken(2, "u@example.com", false)
	require.NoError(t, err)
	w, _ = s.do(t, http.MethodPost, "/api/v1/ornaments", body, user)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, env := s.do(t, http.MethodPost, "/api/v1/ornaments", body, s.adminToken(t))
	require.Equal(t, http.StatusCreated, w.Code)
	var created model.Ornament
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.Equal(t, "GO-M-CHA-002", created.SKU)

	w, _ = s.do(t, http.MethodPut, "/api/v1/ornaments/2", map[string]any{"stock": 4}, s.adminToken(t))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 4, s.ornaments.items[2].Stock)

	w, _ = s.do(t, http.MethodDelete, "/api/v1/ornaments/2", nil, s.adminToken(t))
	assert.Equal(t, http.StatusOK, w.Code)
	w, _ = s.do(t, http.MethodDelete, "/api/v1/ornaments/2", nil, s.adminToken(t))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUploadMediaEndpoint(t *testing.T) {
	s := newTestServer(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	h := textproto.MIMEHeader{}
	h.Set("Content-Disposition", `form-data; name="files"; filename="ring.png"`)
	h.Set("Content-Type", "image/png")
	part, err := mw.CreatePart(h)
	require.NoError(t, err)
	_, _ = part.Write([]byte("png"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/ornaments/media", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+s.adminToken(t))
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), "https://cdn.example.com/ornaments/ring.png")
}

func TestUpdatePricingEndpoint(t *testing.T) {
	s := newTestServer(t)

	w, _ := s.do(t, http.MethodPut, "/api/v1/pricing", map[string]any{"goldPrices": map[string]float64{"18K": 6500}}, s.adminToken(t))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 6500.0, s.pricing.cfg.GoldPrices["18K"])

	w, _ = s.do(t, http.MethodPut, "/api/v1/pricing", map[string]any{}, s.adminToken(t))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCartEndpoints(t *testing.T) {
	s := newTestServer(t)

	w, env := s.do(t, http.MethodPost, "/api/v1/cart/guest/add?currency=USD", map[string]any{"ornamentId": 1, "quantity": 2}, "")
	require.Equal(t, http.StatusOK, w.Code)
	var cart service.Cart
	require.NoError(t, json.Unmarshal(env.Data, &cart))
	assert.Equal(t, 2640.0, cart.Subtotal)

	w, _ = s.do(t, http.MethodGet, "/api/v1/cart/guest/"+cart.GuestID, nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	w, _ = s.do(t, http.MethodDelete, "/api/v1/cart/guest/remove/"+cart.GuestID+"/x", nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w, _ = s.do(t, http.MethodDelete, "/api/v1/cart/guest/remove/"+cart.GuestID+"/1", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = s.do(t, http.MethodGet, "/api/v1/cart/user", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	tok, err := s.tokens.GenerateToken(3, "u@example.com", false)
	require.NoError(t, err)
	w, _ = s.do(t, http.MethodPost, "/api/v1/cart/user/add", map[string]any{"ornamentId": 1}, tok)
	assert.Equal(t, http.StatusOK, w.Code)
	w, _ = s.do(t, http.MethodPut, "/api/v1/cart/user/update", map[string]any{"ornamentId": 1, "quantity": 0}, tok)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w, env = s.do(t, http.MethodPut, "/api/v1/cart/user/update", map[string]any{"ornamentId": 1, "quantity": 3}, tok)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(env.Data, &cart))
	assert.Equal(t, 330000.0, cart.Subtotal)
	w, _ = s.do(t, http.MethodDelete, "/api/v1/cart/user/remove/1", nil, tok)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestUserEndpoints(t *testing.T) {
	s := newTestServer(t)

	reg := map[string]any{"name": "Asha", "email": "asha@example.com", "phoneNumber": "9876543210", "password": "secret1"}
	w, _ := s.do(t, http.MethodPost, "/api/v1/user/register", reg, "")
	require.Equal(t, http.StatusCreated, w.Code)
	w, _ = s.do(t, http.MethodPost, "/api/v1/user/register", reg, "")
	assert.Equal(t, http.StatusConflict, w.Code)

	w, env := s.do(t, http.MethodPost, "/api/v1/user/login", map[string]any{"email": "asha@example.com", "password": "secret1"}, "")
	require.Equal(t, http.StatusOK, w.Code)
	var session struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &session))
	require.NotEmpty(t, session.Token)

	w, env = s.do(t, http.MethodGet, "/api/v1/user/details", nil, session.Token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), `"email":"asha@example.com"`)
	assert.NotContains(t, string(env.Data), "password")

	w, _ = s.do(t, http.MethodPost, "/api/v1/user/login", map[string]any{"email": "asha@example.com", "password": "nope"}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = s.do(t, http.MethodPost, "/api/v1/user/forgetpassword", map[string]any{"email": "asha@example.com"}, "")
	assert.Equal(t, http.StatusOK, w.Code)
	require.Len(t, s.mail.sent, 1)
	w, _ = s.do(t, http.MethodPost, "/api/v1/user/forgetpassword", map[string]any{"email": "ghost@example.com"}, "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, env = s.do(t, http.MethodPut, "/api/v1/user/reset-password/deadbeef", map[string]any{"password": "newsecret"}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid or expired token", env.Msg)
}

func TestContactEndpoints(t *testing.T) {
	s := newTestServer(t)

	w, _ := s.do(t, http.MethodPost, "/api/v1/contact/query", map[string]any{"email": "r@example.com", "productId": "1", "productName": "Ring"}, "")
	assert.Equal(t, http.StatusOK, w.Code)
	w, _ = s.do(t, http.MethodPost, "/api/v1/contact/query", map[string]any{"email": "r@example.com"}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = s.do(t, http.MethodPost, "/api/v1/user/custom", map[string]any{"name": "M", "email": "m@example.com", "phone": "9999999999"}, "")
	assert.Equal(t, http.StatusOK, w.Code)
	w, _ = s.do(t, http.MethodPost, "/api/v1/user/inquiry", map[string]any{"fullName": "K", "email": "k@example.com", "phone": "9000000000"}, "")
	assert.Equal(t, http.StatusOK, w.Code)

	assert.Len(t, s.mail.sent, 4)
}

func TestTrackEndpoint(t *testing.T) {
	s := newTestServer(t)
	tok, err := s.tokens.GenerateToken(7, "u@example.com", false)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/track", bytes.NewBufferString(`{"event":"view_product","productId":1,"metadata":{"platform":"mobile"}}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+tok)
	req.Header.Set("X-Session-Id", "sess-9")
	req.Header.Set("X-Forwarded-For", "49.36.0.1")
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)
	require.Len(t, s.tracking.logs, 1)
	entry := s.tracking.logs[0]
	assert.Equal(t, "view_product", entry.Event)
	assert.Equal(t, "sess-9", entry.SessionID)
	require.NotNil(t, entry.UserID)
	assert.Equal(t, uint(7), *entry.UserID)
	assert.Equal(t, "India", entry.Country)
	assert.Equal(t, "49.36.0.1", entry.IP)
	assert.Equal(t, "mobile", entry.Platform)

	w, _ = s.do(t, http.MethodPost, "/api/v1/track", map[string]any{"event": "nope"}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t)

	w, _ := s.do(t, http.MethodGet, "/healthz", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = s.do(t, http.MethodGet, "/metrics", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "http_requests_total")
}
