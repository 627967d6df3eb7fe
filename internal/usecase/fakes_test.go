package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/DRSN-tech/storefront-backend/internal/domain"
	"github.com/DRSN-tech/storefront-backend/pkg/e"
	"github.com/DRSN-tech/storefront-backend/pkg/logger"
)

// memStore — потокобезопасное хранилище в памяти, повторяющее семантику репозиториев MongoDB.
type memStore struct {
	mu         sync.Mutex
	seq        int
	products   map[string]*domain.Product
	categories map[string]*domain.Category
	carts      map[string]*domain.Cart
	orders     []*domain.Order
	reviews    []*domain.Review
	users      map[string]*domain.User
	outbox     []*OutboxEvent

	// malformed — товары, документ которых существует, но не читается.
	malformed map[string]bool

	// onDecrement вызывается перед условным списанием (для симуляции гонок).
	onDecrement func(s *memStore, productID string)
}

func newMemStore() *memStore {
	return &memStore{
		products:   make(map[string]*domain.Product),
		categories: make(map[string]*domain.Category),
		carts:      make(map[string]*domain.Cart),
		users:      make(map[string]*domain.User),
		malformed:  make(map[string]bool),
	}
}

func (s *memStore) nextID(prefix string) string {
	s.seq++
	return fmt.Sprintf("%s-%d", prefix, s.seq)
}

func (s *memStore) addProduct(id, name string, price int64, inventory int) *domain.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := &domain.Product{ID: id, Name: name, Price: price, Inventory: inventory, IsActive: true}
	s.products[id] = p
	return p
}

func (s *memStore) markMalformed(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.malformed[id] = true
}

func (s *memStore) addUser(id, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[id] = &domain.User{ID: id, Name: name, Email: id + "@example.com", Role: domain.RoleCustomer}
}

func (s *memStore) setCart(userID string, ids ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.carts[userID] = &domain.Cart{ID: "cart-" + userID, UserID: userID, ProductIDs: append([]string(nil), ids...)}
}

func (s *memStore) cartIDs(userID string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.carts[userID]
	if !ok {
		return nil
	}
	return append([]string(nil), c.ProductIDs...)
}

func (s *memStore) cartTotal(userID string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.carts[userID]; ok {
		return c.Total
	}
	return 0
}

func (s *memStore) inventory(id string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.products[id].Inventory
}

func (s *memStore) orderCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.orders)
}

func (s *memStore) outboxEvents() []*OutboxEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*OutboxEvent(nil), s.outbox...)
}

func (s *memStore) addOrder(userID string, status domain.OrderStatus, productIDs ...string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := make([]domain.OrderItem, 0, len(productIDs))
	for _, id := range productIDs {
		items = append(items, domain.NewOrderItem(id, id, 100, 1))
	}
	o := domain.NewOrder(userID, items, domain.ItemsTotal(items), status, time.Now())
	o.ID = s.nextID("order")
	s.orders = append(s.orders, o)
	return o.ID
}

// PRODUCTS

type fakeProductRepo struct{ s *memStore }

func (r fakeProductRepo) Create(_ context.Context, p *domain.Product) (*domain.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *p
	cp.ID = r.s.nextID("product")
	r.s.products[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (r fakeProductRepo) Update(_ context.Context, p *domain.Product) (*domain.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.products[p.ID]; !ok {
		return nil, e.ErrProductNotFound
	}
	cp := *p
	r.s.products[p.ID] = &cp
	out := cp
	return &out, nil
}

func (r fakeProductRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.products[id]; !ok {
		return e.ErrProductNotFound
	}
	delete(r.s.products, id)
	return nil
}

func (r fakeProductRepo) GetByID(_ context.Context, id string) (*domain.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.products[id]
	if !ok {
		return nil, e.ErrProductNotFound
	}
	cp := *p
	return &cp, nil
}

func (r fakeProductRepo) view(p *domain.Product) ProductView {
	name := ""
	if p.CategoryID != nil {
		if c, ok := r.s.categories[*p.CategoryID]; ok {
			name = c.Name
		}
	}
	return ProductView{
		ID: p.ID, Name: p.Name, Description: p.Description, Price: p.Price, Inventory: p.Inventory,
		IsActive: p.IsActive, CategoryID: p.CategoryID, CategoryName: name, ImageKey: p.ImageKey, CreatedAt: p.CreatedAt,
	}
}

func (r fakeProductRepo) GetView(_ context.Context, id string) (*ProductView, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.products[id]
	if !ok {
		return nil, e.ErrProductNotFound
	}
	v := r.view(p)
	return &v, nil
}

func (r fakeProductRepo) ListViews(_ context.Context, f ProductFilter) ([]ProductView, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]ProductView, 0)
	for _, p := range r.s.products {
		if f.CategoryID != nil && (p.CategoryID == nil || *p.CategoryID != *f.CategoryID) {
			continue
		}
		if f.ActiveOnly && !p.IsActive {
			continue
		}
		out = append(out, r.view(p))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r fakeProductRepo) GetProductsInfo(_ context.Context, ids []string) (*ProductInfoLookup, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := &ProductInfoLookup{Products: make([]ProductInfo, 0, len(ids))}
	for _, id := range ids {
		p, ok := r.s.products[id]
		if !ok {
			continue
		}
		if r.s.malformed[id] {
			out.Malformed = append(out.Malformed, id)
			continue
		}
		out.Products = append(out.Products, NewProductInfo(p.ID, p.Name, r.view(p).CategoryName, p.Price))
	}
	return out, nil
}

func (r fakeProductRepo) SetImageKey(_ context.Context, id, key string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.products[id]
	if !ok {
		return e.ErrProductNotFound
	}
	p.ImageKey = key
	return nil
}

// INVENTORY

type fakeInventoryRepo struct{ s *memStore }

func (r fakeInventoryRepo) GetInventory(_ context.Context, id string) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.products[id]
	if !ok {
		return 0, e.ErrProductNotFound
	}
	return p.Inventory, nil
}

func (r fakeInventoryRepo) AdjustInventory(_ context.Context, id string, delta int) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.products[id]
	if !ok {
		return false, nil
	}
	p.Inventory += delta
	return true, nil
}

func (r fakeInventoryRepo) DecrementIfSufficient(_ context.Context, id string, qty int) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.onDecrement != nil {
		r.s.onDecrement(r.s, id)
	}
	p, ok := r.s.products[id]
	if !ok || p.Inventory < qty {
		return false, nil
	}
	p.Inventory -= qty
	return true, nil
}

// CATEGORIES

type fakeCategoryRepo struct{ s *memStore }

func (r fakeCategoryRepo) Create(_ context.Context, c *domain.Category) (*domain.Category, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *c
	cp.ID = r.s.nextID("category")
	r.s.categories[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (r fakeCategoryRepo) Update(_ context.Context, c *domain.Category) (*domain.Category, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.categories[c.ID]; !ok {
		return nil, e.ErrCategoryNotFound
	}
	cp := *c
	r.s.categories[c.ID] = &cp
	return c, nil
}

func (r fakeCategoryRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.categories[id]; !ok {
		return e.ErrCategoryNotFound
	}
	delete(r.s.categories, id)
	return nil
}

func (r fakeCategoryRepo) GetByID(_ context.Context, id string) (*domain.Category, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.categories[id]
	if !ok {
		return nil, e.ErrCategoryNotFound
	}
	cp := *c
	return &cp, nil
}

func (r fakeCategoryRepo) List(_ context.Context) ([]domain.Category, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]domain.Category, 0, len(r.s.categories))
	for _, c := range r.s.categories {
		out = append(out, *c)
	}
	return out, nil
}

// CARTS

type fakeCartRepo struct{ s *memStore }

func (r fakeCartRepo) upsert(userID string) *domain.Cart {
	c, ok := r.s.carts[userID]
	if !ok {
		c = &domain.Cart{ID: "cart-" + userID, UserID: userID, ProductIDs: []string{}}
		r.s.carts[userID] = c
	}
	c.UpdatedAt = time.Now()
	return c
}

func (r fakeCartRepo) Get(_ context.Context, userID string) (*domain.Cart, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.carts[userID]
	if !ok {
		return nil, e.ErrCartNotFound
	}
	cp := *c
	cp.ProductIDs = append([]string(nil), c.ProductIDs...)
	return &cp, nil
}

func (r fakeCartRepo) List(_ context.Context) ([]domain.Cart, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]domain.Cart, 0, len(r.s.carts))
	for _, c := range r.s.carts {
		out = append(out, *c)
	}
	return out, nil
}

func (r fakeCartRepo) PushItems(_ context.Context, userID string, ids []string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c := r.upsert(userID)
	c.ProductIDs = append(c.ProductIDs, ids...)
	return nil
}

func (r fakeCartRepo) PullProducts(_ context.Context, userID string, ids []string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.carts[userID]
	if !ok {
		return nil
	}
	c.ProductIDs = slices.DeleteFunc(c.ProductIDs, func(id string) bool { return slices.Contains(ids, id) })
	return nil
}

func (r fakeCartRepo) SetItems(_ context.Context, userID string, ids []string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c := r.upsert(userID)
	c.ProductIDs = append([]string{}, ids...)
	return nil
}

func (r fakeCartRepo) SetTotal(_ context.Context, userID string, total int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if c, ok := r.s.carts[userID]; ok {
		c.Total = total
	}
	return nil
}

func (r fakeCartRepo) Clear(_ context.Context, userID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if c, ok := r.s.carts[userID]; ok {
		c.ProductIDs = []string{}
		c.Total = 0
	}
	return nil
}

// ORDERS

type fakeOrderRepo struct {
	s         *memStore
	failCount bool
}

func (r fakeOrderRepo) record(o *domain.Order) OrderRecord {
	name := ""
	if u, ok := r.s.users[o.UserID]; ok {
		name = u.Name
	}
	cp := *o
	cp.Items = append([]domain.OrderItem(nil), o.Items...)
	return OrderRecord{Order: cp, UserName: name}
}

func (r fakeOrderRepo) Create(_ context.Context, o *domain.Order) (string, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *o
	cp.Items = append([]domain.OrderItem(nil), o.Items...)
	cp.ID = r.s.nextID("order")
	r.s.orders = append(r.s.orders, &cp)
	return cp.ID, nil
}

func (r fakeOrderRepo) GetByID(_ context.Context, id string) (*OrderRecord, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, o := range r.s.orders {
		if o.ID == id {
			rec := r.record(o)
			return &rec, nil
		}
	}
	return nil, e.ErrOrderNotFound
}

func (r fakeOrderRepo) ListByUser(_ context.Context, userID string) ([]OrderRecord, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]OrderRecord, 0)
	for _, o := range r.s.orders {
		if o.UserID == userID {
			out = append(out, r.record(o))
		}
	}
	return out, nil
}

func (r fakeOrderRepo) ListAll(_ context.Context) ([]OrderRecord, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]OrderRecord, 0, len(r.s.orders))
	for _, o := range r.s.orders {
		out = append(out, r.record(o))
	}
	return out, nil
}

func (r fakeOrderRepo) UpdateStatus(_ context.Context, id string, from, to domain.OrderStatus) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, o := range r.s.orders {
		if o.ID == id && o.Status == from {
			o.Status = to
			return true, nil
		}
	}
	return false, nil
}

func (r fakeOrderRepo) ExistsWithProduct(_ context.Context, userID, productID string, statuses []domain.OrderStatus) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, o := range r.s.orders {
		if o.UserID != userID || !slices.Contains(statuses, o.Status) {
			continue
		}
		for _, it := range o.Items {
			if it.ProductID == productID {
				return true, nil
			}
		}
	}
	return false, nil
}

func (r fakeOrderRepo) CountOpenWithProduct(_ context.Context, productID string) (int64, error) {
	if r.failCount {
		return 0, errors.New("count failed")
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for _, o := range r.s.orders {
		if o.Status == domain.StatusDelivered {
			continue
		}
		for _, it := range o.Items {
			if it.ProductID == productID {
				n++
				break
			}
		}
	}
	return n, nil
}

func (r fakeOrderRepo) CountByStatus(_ context.Context) (map[domain.OrderStatus]int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make(map[domain.OrderStatus]int)
	for _, o := range r.s.orders {
		out[o.Status]++
	}
	return out, nil
}

// REVIEWS

type fakeReviewRepo struct{ s *memStore }

func (r fakeReviewRepo) Create(_ context.Context, rv *domain.Review) (*domain.Review, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.reviews {
		if existing.UserID == rv.UserID && existing.ProductID == rv.ProductID {
			return nil, e.ErrDuplicateReview
		}
	}
	cp := *rv
	cp.ID = r.s.nextID("review")
	cp.CreatedAt = time.Now()
	r.s.reviews = append(r.s.reviews, &cp)
	out := cp
	return &out, nil
}

func (r fakeReviewRepo) Exists(_ context.Context, userID, productID string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, rv := range r.s.reviews {
		if rv.UserID == userID && rv.ProductID == productID {
			return true, nil
		}
	}
	return false, nil
}

func (r fakeReviewRepo) AverageRating(_ context.Context, productID string) (domain.RatingSummary, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var sum, n int
	for _, rv := range r.s.reviews {
		if rv.ProductID == productID {
			sum += rv.Rating
			n++
		}
	}
	if n == 0 {
		return domain.RatingSummary{}, nil
	}
	return domain.RatingSummary{Average: float64(sum) / float64(n), Count: n}, nil
}

func (r fakeReviewRepo) ListByProduct(_ context.Context, productID string) ([]domain.Review, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]domain.Review, 0)
	for _, rv := range r.s.reviews {
		if rv.ProductID == productID {
			out = append(out, *rv)
		}
	}
	return out, nil
}

func (r fakeReviewRepo) List(_ context.Context) ([]domain.Review, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]domain.Review, 0, len(r.s.reviews))
	for _, rv := range r.s.reviews {
		out = append(out, *rv)
	}
	return out, nil
}

func (r fakeReviewRepo) GetByID(_ context.Context, id string) (*domain.Review, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, rv := range r.s.reviews {
		if rv.ID == id {
			cp := *rv
			return &cp, nil
		}
	}
	return nil, e.ErrReviewNotFound
}

func (r fakeReviewRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i, rv := range r.s.reviews {
		if rv.ID == id {
			r.s.reviews = append(r.s.reviews[:i], r.s.reviews[i+1:]...)
			return nil
		}
	}
	return e.ErrReviewNotFound
}

// USERS

type fakeUserRepo struct{ s *memStore }

func (r fakeUserRepo) Create(_ context.Context, u *domain.User) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.users {
		if existing.Email == u.Email {
			return nil, e.ErrEmailTaken
		}
	}
	cp := *u
	cp.ID = r.s.nextID("user")
	r.s.users[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (r fakeUserRepo) Update(_ context.Context, u *domain.User) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, existing := range r.s.users {
		if id != u.ID && existing.Email == u.Email {
			return nil, e.ErrEmailTaken
		}
	}
	if _, ok := r.s.users[u.ID]; !ok {
		return nil, e.ErrUserNotFound
	}
	cp := *u
	r.s.users[u.ID] = &cp
	return u, nil
}

func (r fakeUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, e.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (r fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, e.ErrUserNotFound
}

func (r fakeUserRepo) List(_ context.Context) ([]domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]domain.User, 0, len(r.s.users))
	for _, u := range r.s.users {
		out = append(out, *u)
	}
	return out, nil
}

func (r fakeUserRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[id]; !ok {
		return e.ErrUserNotFound
	}
	delete(r.s.users, id)
	return nil
}

// OUTBOX

type fakeOutboxRepo struct {
	s    *memStore
	fail error
}

func (r fakeOutboxRepo) Add(_ context.Context, ev *OutboxEvent) error {
	if r.fail != nil {
		return r.fail
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *ev
	cp.ID = r.s.nextID("event")
	r.s.outbox = append(r.s.outbox, &cp)
	return nil
}

func (r fakeOutboxRepo) ClaimPending(context.Context, int, time.Duration) ([]*OutboxEvent, error) {
	return nil, nil
}

func (r fakeOutboxRepo) MarkAsProcessed(context.Context, string) error { return nil }

func (r fakeOutboxRepo) MarkForRetry(context.Context, string, int, time.Time, string) error {
	return nil
}

func (r fakeOutboxRepo) MarkAsFailed(context.Context, string, string) error { return nil }

// CACHE

type fakeCache struct {
	mu      sync.Mutex
	items   map[string]ProductInfo
	failGet bool
	deleted []string

	// gate задерживает SetProducts до закрытия; setStarted сообщает, что запись началась.
	gate       chan struct{}
	setStarted chan struct{}
}

func newFakeCache() *fakeCache {
	return &fakeCache{items: make(map[string]ProductInfo)}
}

func (c *fakeCache) GetProducts(_ context.Context, ids []string) (map[string]ProductInfo, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failGet {
		return nil, errors.New("redis unavailable")
	}
	out := make(map[string]ProductInfo)
	for _, id := range ids {
		if p, ok := c.items[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

func (c *fakeCache) SetProducts(_ context.Context, products []ProductInfo) error {
	c.mu.Lock()
	gate, started := c.gate, c.setStarted
	c.mu.Unlock()
	if gate != nil {
		select {
		case started <- struct{}{}:
		default:
		}
		<-gate
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, p := range products {
		c.items[p.ID] = p
	}
	return nil
}

func (c *fakeCache) DeleteProducts(_ context.Context, ids []string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, id := range ids {
		delete(c.items, id)
		c.deleted = append(c.deleted, id)
	}
	return nil
}

// hold задерживает следующие записи в кэш до вызова release.
func (c *fakeCache) hold() (started <-chan struct{}, release func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	gate := make(chan struct{})
	c.gate = gate
	c.setStarted = make(chan struct{}, 1)
	return c.setStarted, func() { close(gate) }
}

func (c *fakeCache) put(p ProductInfo) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[p.ID] = p
}

func (c *fakeCache) deletions(id string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, d := range c.deleted {
		if d == id {
			n++
		}
	}
	return n
}

func (c *fakeCache) has(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.items[id]
	return ok
}

// IMAGES

type fakeImages struct {
	mu        sync.Mutex
	seq       int
	failWith  error
	cleanedUp []string
}

func (f *fakeImages) UploadProductImage(_ context.Context, productID string, _ ProductImage) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return "", f.failWith
	}
	f.seq++
	return fmt.Sprintf("products/%s/%d.png", productID, f.seq), nil
}

func (f *fakeImages) CleanupImages(keys []string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cleanedUp = append(f.cleanedUp, keys...)
}

// INFRA

type inlineTx struct{}

func (inlineTx) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeHasher struct{}

func (fakeHasher) Hash(password string) (string, error) { return "hash:" + password, nil }

func (fakeHasher) Compare(hash, password string) error {
	if hash != "hash:"+password {
		return errors.New("mismatch")
	}
	return nil
}

type fakeTokens struct{}

func (fakeTokens) Issue(c TokenClaims) (string, error) {
	return c.UserID + "|" + string(c.Role), nil
}

func (fakeTokens) Parse(token string) (*TokenClaims, error) {
	id, role, ok := strings.Cut(token, "|")
	if !ok {
		return nil, errors.New("malformed token")
	}
	return &TokenClaims{UserID: id, Role: domain.Role(role)}, nil
}

func testLogger() logger.Logger {
	return logger.NewSlogLoggerWithWriter(io.Discard, slog.LevelError)
}

// env собирает все use case поверх одного хранилища.
type env struct {
	store     *memStore
	cache     *fakeCache
	images    *fakeImages
	catalog   *CatalogUseCase
	cart      *CartUseCase
	inventory *InventoryUseCase
	orders    *OrderUseCase
	reviews   *ReviewUseCase
	users     *UserUseCase
}

func newEnv() *env {
	s := newMemStore()
	cache := newFakeCache()
	images := &fakeImages{}
	log := testLogger()

	productRepo := fakeProductRepo{s}
	orderRepo := fakeOrderRepo{s: s}

	catalog := NewCatalogUC(productRepo, fakeCategoryRepo{s}, orderRepo, images, cache, log)
	cart := NewCartUC(fakeCartRepo{s}, productRepo, log)
	inventory := NewInventoryUC(fakeInventoryRepo{s}, log)
	orders := NewOrderUC(cart, inventory, orderRepo, productRepo, fakeUserRepo{s}, fakeOutboxRepo{s: s}, inlineTx{}, time.UTC, log)

	return &env{
		store:     s,
		cache:     cache,
		images:    images,
		catalog:   catalog,
		cart:      cart,
		inventory: inventory,
		orders:    orders,
		reviews:   NewReviewUC(fakeReviewRepo{s}, orderRepo, productRepo, log),
		users:     NewUserUC(fakeUserRepo{s}, fakeHasher{}, fakeTokens{}, log),
	}
}
