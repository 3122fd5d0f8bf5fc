package inventory

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/KasumiMercury/primind-expiry-reminder/internal/domain"
)

// Store is the ordered, persisted product inventory together with the cart and the
// notification records. Reads are served from memory; writes are serialized and
// persisted before they become visible.
type Store struct {
	storage domain.KeyValueStorage

	// writeMu admits one writer at a time for the whole read-modify-persist cycle.
	writeMu sync.Mutex

	mu            sync.RWMutex
	products      []domain.Product
	cart          []domain.CartItem
	notifications []domain.NotificationRecord
	closed        bool
}

func NewStore(storage domain.KeyValueStorage) *Store {
	return &Store{
		storage:       storage,
		products:      make([]domain.Product, 0),
		cart:          make([]domain.CartItem, 0),
		notifications: make([]domain.NotificationRecord, 0),
	}
}

// Load replaces the in-memory state with what is persisted. Unreadable keys are
// logged and treated as empty.
func (s *Store) Load(ctx context.Context) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	products := loadList[domain.Product](ctx, s.storage, domain.StorageKeyProducts)
	cart := loadList[domain.CartItem](ctx, s.storage, domain.StorageKeyCart)
	notifications := loadList[domain.NotificationRecord](ctx, s.storage, domain.StorageKeyNotifications)

	s.mu.Lock()
	s.products = products
	s.cart = cart
	s.notifications = notifications
	s.mu.Unlock()

	slog.InfoContext(ctx, "inventory loaded",
		slog.Int("product_count", len(products)),
		slog.Int("cart_count", len(cart)),
		slog.Int("notification_count", len(notifications)),
	)
}

// Close rejects every later write. Reads keep working on the last state.
func (s *Store) Close() {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}

// Ready reports ErrStoreClosed once the store has been closed.
func (s *Store) Ready() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return domain.ErrStoreClosed
	}
	return nil
}

// Products returns a copy of the products in insertion order.
func (s *Store) Products() []domain.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.products)
}

func (s *Store) Product(id string) (domain.Product, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := indexOfProduct(s.products, id)
	if i < 0 {
		return domain.Product{}, false
	}
	return s.products[i], true
}

func (s *Store) AddProduct(ctx context.Context, product domain.Product) error {
	if err := product.Validate(); err != nil {
		return err
	}

	return s.write(ctx, func(st *state) error {
		if indexOfProduct(st.products, product.ID) >= 0 {
			return fmt.Errorf("%w: duplicate id %s", domain.ErrInvalidProduct, product.ID)
		}
		st.products = append(st.products, product)
		st.dirtyProducts = true
		return nil
	})
}

// ProductEdit is the outcome of UpdateProduct.
type ProductEdit struct {
	Before domain.Product
	After  domain.Product
	// Detached holds the reminders dropped because the expiry date changed.
	Detached []domain.NotificationRecord
}

// UpdateProduct applies the non-nil fields of update. When the expiry date changes, the
// product's notification records are removed and its flag cleared in the same write.
func (s *Store) UpdateProduct(ctx context.Context, id string, update domain.ProductUpdate) (ProductEdit, error) {
	var edit ProductEdit

	err := s.write(ctx, func(st *state) error {
		i := indexOfProduct(st.products, id)
		if i < 0 {
			return domain.ErrProductNotFound
		}

		before := st.products[i]
		after := before
		if update.Name != nil {
			after.Name = *update.Name
		}
		if update.Price != nil {
			after.Price = *update.Price
		}
		if update.ExpiryDate != nil {
			after.ExpiryDate = *update.ExpiryDate
		}
		if err := after.Validate(); err != nil {
			return err
		}

		var detached []domain.NotificationRecord
		if after.ExpiryDate != before.ExpiryDate {
			st.notifications = slices.DeleteFunc(st.notifications, func(r domain.NotificationRecord) bool {
				if r.ProductID != id {
					return false
				}
				detached = append(detached, r)
				return true
			})
			if len(detached) > 0 {
				st.dirtyNotifications = true
			}
			after.NotificationScheduled = false
		}

		st.products[i] = after
		st.dirtyProducts = true
		edit = ProductEdit{Before: before, After: after, Detached: detached}
		return nil
	})
	if err != nil {
		return ProductEdit{}, err
	}

	return edit, nil
}

// RemoveProduct deletes the product. Its notification records are kept.
func (s *Store) RemoveProduct(ctx context.Context, id string) (domain.Product, error) {
	var removed domain.Product

	err := s.write(ctx, func(st *state) error {
		i := indexOfProduct(st.products, id)
		if i < 0 {
			return domain.ErrProductNotFound
		}
		removed = st.products[i]
		st.products = slices.Delete(st.products, i, i+1)
		st.dirtyProducts = true
		return nil
	})
	if err != nil {
		return domain.Product{}, err
	}

	return removed, nil
}

// AttachNotification records a scheduled reminder and flags its product in one write.
func (s *Store) AttachNotification(ctx context.Context, record domain.NotificationRecord) error {
	return s.write(ctx, func(st *state) error {
		i := indexOfProduct(st.products, record.ProductID)
		if i < 0 {
			return domain.ErrProductNotFound
		}
		if st.products[i].NotificationScheduled {
			return domain.ErrReminderAlreadyScheduled
		}

		st.products[i].NotificationScheduled = true
		st.notifications = append(st.notifications, record)
		st.dirtyProducts = true
		st.dirtyNotifications = true
		return nil
	})
}

// DetachNotification removes the record for handle and clears the product's flag
// once no other record references it.
func (s *Store) DetachNotification(ctx context.Context, handle string) (domain.NotificationRecord, error) {
	var detached domain.NotificationRecord

	err := s.write(ctx, func(st *state) error {
		n := slices.IndexFunc(st.notifications, func(r domain.NotificationRecord) bool {
			return r.ID == handle
		})
		if n < 0 {
			return domain.ErrNotificationNotFound
		}
		detached = st.notifications[n]
		st.notifications = slices.Delete(st.notifications, n, n+1)
		st.dirtyNotifications = true

		stillReferenced := slices.ContainsFunc(st.notifications, func(r domain.NotificationRecord) bool {
			return r.ProductID == detached.ProductID
		})
		if i := indexOfProduct(st.products, detached.ProductID); i >= 0 && !stillReferenced {
			st.products[i].NotificationScheduled = false
			st.dirtyProducts = true
		}
		return nil
	})
	if err != nil {
		return domain.NotificationRecord{}, err
	}

	return detached, nil
}

func (s *Store) Notifications() []domain.NotificationRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.notifications)
}

func (s *Store) NotificationsForProduct(productID string) []domain.NotificationRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := make([]domain.NotificationRecord, 0)
	for _, r := range s.notifications {
		if r.ProductID == productID {
			records = append(records, r)
		}
	}
	return records
}

func (s *Store) Cart() []domain.CartItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.cart)
}

// AddToCart places a snapshot of the product in the cart.
func (s *Store) AddToCart(ctx context.Context, productID string) (domain.CartItem, error) {
	var item domain.CartItem

	err := s.write(ctx, func(st *state) error {
		i := indexOfProduct(st.products, productID)
		if i < 0 {
			return domain.ErrProductNotFound
		}
		item = domain.CartItem{Product: st.products[i]}
		st.cart = append(st.cart, item)
		st.dirtyCart = true
		return nil
	})
	if err != nil {
		return domain.CartItem{}, err
	}

	return item, nil
}

// RemoveFromCart drops every cart entry for productID. Absent entries are not an error.
func (s *Store) RemoveFromCart(ctx context.Context, productID string) error {
	return s.write(ctx, func(st *state) error {
		before := len(st.cart)
		st.cart = slices.DeleteFunc(st.cart, func(item domain.CartItem) bool {
			return item.ID == productID
		})
		st.dirtyCart = len(st.cart) != before
		return nil
	})
}

type state struct {
	products      []domain.Product
	cart          []domain.CartItem
	notifications []domain.NotificationRecord

	dirtyProducts      bool
	dirtyCart          bool
	dirtyNotifications bool
}

// write runs mutate on a private copy of the state, persists the touched keys and
// only then publishes the copy. On any failure the visible state is unchanged.
func (s *Store) write(ctx context.Context, mutate func(st *state) error) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return domain.ErrStoreClosed
	}
	st := &state{
		products:      slices.Clone(s.products),
		cart:          slices.Clone(s.cart),
		notifications: slices.Clone(s.notifications),
	}
	prev := state{
		products:      s.products,
		cart:          s.cart,
		notifications: s.notifications,
	}
	s.mu.RUnlock()

	if err := mutate(st); err != nil {
		return err
	}

	if err := s.persist(ctx, st, &prev); err != nil {
		return err
	}

	s.mu.Lock()
	s.products = st.products
	s.cart = st.cart
	s.notifications = st.notifications
	s.mu.Unlock()

	return nil
}

func (s *Store) persist(ctx context.Context, st, prev *state) error {
	type step struct {
		key  string
		next any
		prev any
	}

	steps := make([]step, 0, 3)
	if st.dirtyProducts {
		steps = append(steps, step{domain.StorageKeyProducts, st.products, prev.products})
	}
	if st.dirtyNotifications {
		steps = append(steps, step{domain.StorageKeyNotifications, st.notifications, prev.notifications})
	}
	if st.dirtyCart {
		steps = append(steps, step{domain.StorageKeyCart, st.cart, prev.cart})
	}

	for i, current := range steps {
		if err := saveJSON(ctx, s.storage, current.key, current.next); err != nil {
			// Put back what was already written so storage matches memory again.
			for _, done := range steps[:i] {
				if rerr := saveJSON(ctx, s.storage, done.key, done.prev); rerr != nil {
					slog.WarnContext(ctx, "failed to roll back inventory key",
						slog.String("key", done.key),
						slog.String("error", rerr.Error()),
					)
				}
			}
			return err
		}
	}

	return nil
}

func saveJSON(ctx context.Context, storage domain.KeyValueStorage, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("%w: encode %s: %w", domain.ErrStorageFailure, key, err)
	}
	if err := storage.Set(ctx, key, data); err != nil {
		slog.WarnContext(ctx, "failed to save inventory key",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("%w: save %s: %w", domain.ErrStorageFailure, key, err)
	}
	return nil
}

func loadList[T any](ctx context.Context, storage domain.KeyValueStorage, key string) []T {
	data, found, err := storage.Get(ctx, key)
	if err != nil {
		slog.WarnContext(ctx, "failed to load inventory key, treating as empty",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
		return make([]T, 0)
	}
	if !found {
		return make([]T, 0)
	}

	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		slog.WarnContext(ctx, "failed to decode inventory key, treating as empty",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
		return make([]T, 0)
	}
	if items == nil {
		items = make([]T, 0)
	}
	return items
}

func indexOfProduct(products []domain.Product, id string) int {
	return slices.IndexFunc(products, func(p domain.Product) bool {
		return p.ID == id
	})
}
