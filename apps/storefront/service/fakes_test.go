package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"go-jewelry/apps/storefront/model"
	"go-jewelry/pkg/errx"
	"go-jewelry/pkg/mailer"
	"go-jewelry/pkg/pricing"
)

type fakeOrnaments struct {
	items    map[uint]*model.Ornament
	nextID   uint
	updated  []pricing.PriceUpdate
	failBulk bool
}

func newFakeOrnaments(items ...model.Ornament) *fakeOrnaments {
	f := &fakeOrnaments{items: map[uint]*model.Ornament{}}
	for i := range items {
		o := items[i]
		f.items[o.ID] = &o
		if o.ID > f.nextID {
			f.nextID = o.ID
		}
	}
	return f
}

func (f *fakeOrnaments) sorted() []model.Ornament {
	out := make([]model.Ornament, 0, len(f.items))
	for _, o := range f.items {
		out = append(out, *o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (f *fakeOrnaments) List(_ context.Context, flt model.OrnamentFilter) ([]model.Ornament, int64, error) {
	all := f.sorted()
	var out []model.Ornament
	for _, o := range all {
		if flt.Gender != "" && o.Gender != flt.Gender {
			continue
		}
		out = append(out, o)
	}
	total := int64(len(out))
	start := flt.Offset()
	if start > len(out) {
		start = len(out)
	}
	end := start + flt.Limit
	if end > len(out) {
		end = len(out)
	}
	return out[start:end], total, nil
}

func (f *fakeOrnaments) Get(_ context.Context, id uint) (*model.Ornament, error) {
	o, ok := f.items[id]
	if !ok {
		return nil, errx.NotFound("ornament not found")
	}
	cp := *o
	return &cp, nil
}

func (f *fakeOrnaments) GetMany(_ context.Context, ids []uint) ([]model.Ornament, error) {
	var out []model.Ornament
	for _, id := range ids {
		if o, ok := f.items[id]; ok {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (f *fakeOrnaments) ListByDesignCode(_ context.Context, code string, exclude uint) ([]model.Ornament, error) {
	var out []model.Ornament
	if code == "" {
		return out, nil
	}
	for _, o := range f.sorted() {
		if o.DesignCode == code && o.ID != exclude {
			out = append(out, o)
		}
	}
	return out, nil
}

func (f *fakeOrnaments) CountByCategoryGender(_ context.Context, category, gender string) (int64, error) {
	var n int64
	for _, o := range f.items {
		if o.Category == category && o.Gender == gender {
			n++
		}
	}
	return n, nil
}

func (f *fakeOrnaments) Create(_ context.Context, o *model.Ornament) error {
	for _, existing := range f.items {
		if existing.SKU == o.SKU {
			return errx.Conflict("ornament with this sku already exists")
		}
	}
	f.nextID++
	o.ID = f.nextID
	cp := *o
	f.items[o.ID] = &cp
	return nil
}

func (f *fakeOrnaments) Update(_ context.Context, o *model.Ornament) error {
	if _, ok := f.items[o.ID]; !ok {
		return errx.NotFound("ornament not found")
	}
	cp := *o
	f.items[o.ID] = &cp
	return nil
}

func (f *fakeOrnaments) Delete(_ context.Context, id uint) error {
	if _, ok := f.items[id]; !ok {
		return errx.NotFound("ornament not found")
	}
	delete(f.items, id)
	return nil
}

func (f *fakeOrnaments) ListForRecalc(_ context.Context, categoryTypes []string) ([]pricing.RecalcProduct, error) {
	var out []pricing.RecalcProduct
	for _, o := range f.sorted() {
		if !oneOf(o.CategoryType, categoryTypes) {
			continue
		}
		out = append(out, pricing.RecalcProduct{
			ID:           o.ID,
			CategoryType: o.CategoryType,
			Weight:       o.Weight,
			Purity:       o.Purity,
			MetalType:    o.MetalType,
		})
	}
	return out, nil
}

func (f *fakeOrnaments) BulkUpdatePrices(_ context.Context, updates []pricing.PriceUpdate, _ string) error {
	if f.failBulk {
		return errors.New("connection reset")
	}
	for _, u := range updates {
		if o, ok := f.items[u.ID]; ok {
			o.Price = u.Price
			o.OriginalPrice = u.Price
		}
	}
	f.updated = append(f.updated, updates...)
	return nil
}

type fakePricing struct {
	cfg   *pricing.Config
	saves int
}

func (f *fakePricing) Get(context.Context) (*pricing.Config, error) {
	if f.cfg == nil {
		return nil, nil
	}
	cp := *f.cfg
	return &cp, nil
}

func (f *fakePricing) Save(_ context.Context, cfg pricing.Config) error {
	f.cfg = &cfg
	f.saves++
	return nil
}

type fakeCarts struct {
	carts map[string]map[uint]int
}

func newFakeCarts() *fakeCarts {
	return &fakeCarts{carts: map[string]map[uint]int{}}
}

func (f *fakeCarts) Items(_ context.Context, key string) (map[uint]int, error) {
	out := map[uint]int{}
	for id, q := range f.carts[key] {
		out[id] = q
	}
	return out, nil
}

func (f *fakeCarts) Exists(_ context.Context, key string) (bool, error) {
	_, ok := f.carts[key]
	return ok, nil
}

func (f *fakeCarts) Touch(_ context.Context, key string) error {
	if _, ok := f.carts[key]; !ok {
		f.carts[key] = map[uint]int{}
	}
	return nil
}

func (f *fakeCarts) Add(ctx context.Context, key string, id uint, qty int) error {
	_ = f.Touch(ctx, key)
	f.carts[key][id] += qty
	return nil
}

func (f *fakeCarts) Set(_ context.Context, key string, id uint, qty int) (bool, error) {
	c, ok := f.carts[key]
	if !ok {
		return false, nil
	}
	if _, ok := c[id]; !ok {
		return false, nil
	}
	c[id] = qty
	return true, nil
}

func (f *fakeCarts) Remove(_ context.Context, key string, id uint) error {
	delete(f.carts[key], id)
	return nil
}

func (f *fakeCarts) Merge(ctx context.Context, from, to string) error {
	src, ok := f.carts[from]
	if !ok {
		return nil
	}
	for id, q := range src {
		_ = f.Add(ctx, to, id, q)
	}
	delete(f.carts, from)
	return nil
}

type fakeUsers struct {
	byID    map[uint]*model.User
	nextID  uint
	lastUID string
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{byID: map[uint]*model.User{}}
}

func (f *fakeUsers) Create(_ context.Context, u *model.User) error {
	for _, existing := range f.byID {
		if existing.Email == u.Email || existing.PhoneNumber == u.PhoneNumber {
			return errx.Conflict("user already exists")
		}
	}
	f.nextID++
	u.ID = f.nextID
	u.UID = model.NextUID(f.lastUID)
	f.lastUID = u.UID
	cp := *u
	f.byID[u.ID] = &cp
	return nil
}

func (f *fakeUsers) FindByID(_ context.Context, id uint) (*model.User, error) {
	u, ok := f.byID[id]
	if !ok {
		return nil, errx.NotFound("user not found")
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUsers) FindByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range f.byID {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, errx.NotFound("user not found")
}

func (f *fakeUsers) ExistsByEmailOrPhone(_ context.Context, email, phone string) (bool, error) {
	for _, u := range f.byID {
		if u.Email == email || u.PhoneNumber == phone {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeUsers) FindByResetToken(_ context.Context, hash string, now time.Time) (*model.User, error) {
	for _, u := range f.byID {
		if hash != "" && u.ResetPasswordToken == hash && u.ResetPasswordExpire != nil && u.ResetPasswordExpire.After(now) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, errx.NotFound("invalid or expired token")
}

func (f *fakeUsers) SetResetToken(_ context.Context, id uint, hash string, expire *time.Time) error {
	u, ok := f.byID[id]
	if !ok {
		return errx.NotFound("user not found")
	}
	u.ResetPasswordToken = hash
	u.ResetPasswordExpire = expire
	return nil
}

func (f *fakeUsers) UpdatePassword(_ context.Context, id uint, hash string) error {
	u, ok := f.byID[id]
	if !ok {
		return errx.NotFound("user not found")
	}
	u.Password = hash
	u.ResetPasswordToken = ""
	u.ResetPasswordExpire = nil
	return nil
}

type fakeTracking struct {
	logs []*model.TrackingLog
}

func (f *fakeTracking) Create(_ context.Context, l *model.TrackingLog) error {
	l.ID = uint(len(f.logs) + 1)
	f.logs = append(f.logs, l)
	return nil
}

type fakeMail struct {
	mu   sync.Mutex
	sent []mailer.Message
	err  error
}

func (f *fakeMail) Send(_ context.Context, msg mailer.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msg)
	return nil
}

type fakeTokens struct{}

func (fakeTokens) GenerateToken(userID uint, email string, isAdmin bool) (string, error) {
	return "token-" + email, nil
}

type fakeUploader struct {
	uploads []string
	err     error
}

func (f *fakeUploader) Upload(_ context.Context, folder, name, _ string, _ []byte) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	url := "https://cdn.example.com/" + folder + "/" + name
	f.uploads = append(f.uploads, url)
	return url, nil
}

func testPricingConfig() *pricing.Config {
	return &pricing.Config{
		GoldPrices:            map[string]float64{"14K": 4700, "18K": 6000, "22K": 7300},
		PlatinumPricePerGram:  3200,
		Silver925PricePerGram: 90,
		DiamondPricePerCarat:  50000,
		GemstonePrices:        map[string]float64{"RUBY": 12000},
	}
}
