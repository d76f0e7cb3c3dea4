// Package service orchestrates the catalog gateway, projection, lifecycle
// rules and the read-through cache into the operations the API exposes.
//
// Every mutation follows the same order: validate against a fresh,
// uncached read; write to the catalog; invalidate the event's cache keys;
// re-read and repopulate the full projection; return.
package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/iliyamo/event-ticketing-admin/internal/cache"
	"github.com/iliyamo/event-ticketing-admin/internal/catalog"
	"github.com/iliyamo/event-ticketing-admin/internal/model"
	"github.com/iliyamo/event-ticketing-admin/internal/projection"
)

// ErrInvalidInput marks caller data rejected before reaching the catalog.
var ErrInvalidInput = errors.New("invalid input")

// ErrNotFound means the id does not resolve to an event or ticket.
var ErrNotFound = errors.New("not found")

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// Catalog is the gateway surface the services use. *catalog.Client
// implements it.
type Catalog interface {
	FetchProduct(ctx context.Context, id string) (*catalog.Product, error)
	ListAllProducts(ctx context.Context, query string) ([]catalog.Product, error)
	CreateProduct(ctx context.Context, in catalog.ProductInput) (*catalog.Product, error)
	UpdateProduct(ctx context.Context, id string, in catalog.ProductInput) (*catalog.Product, error)
	DeleteProduct(ctx context.Context, id string) error
	SetMetafields(ctx context.Context, fields []catalog.MetafieldInput) error
	DeleteMetafields(ctx context.Context, refs []catalog.MetafieldRef) error
	FetchVariant(ctx context.Context, id string) (*catalog.Variant, error)
	CreateVariant(ctx context.Context, productID string, in catalog.VariantInput) (*catalog.Variant, error)
	UpdateVariant(ctx context.Context, productID, variantID string, in catalog.VariantInput) (*catalog.Variant, error)
	DeleteVariant(ctx context.Context, productID, variantID string) error
	SetInventory(ctx context.Context, inventoryItemID string, quantity int) error
}

var _ Catalog = (*catalog.Client)(nil)

// eventQuery narrows catalog listings to event products.
const eventQuery = "product_type:" + projection.EventProductType

// store is the read side shared by the event and ticket services.
type store struct {
	catalog Catalog
	cache   *cache.Cache
	log     *zap.Logger
}

func newStore(cat Catalog, c *cache.Cache, log *zap.Logger) store {
	if log == nil {
		log = zap.NewNop()
	}
	if c == nil {
		c = cache.New(nil, cache.DefaultTTLs(), log)
	}
	return store{catalog: cat, cache: c, log: log}
}

// detail is the cached full projection of an event.
func (s *store) detail(ctx context.Context, id string) (model.EventDetail, error) {
	id = catalog.ShortID(id)
	return cache.Fetch(ctx, s.cache, cache.FullKey(id), s.cache.TTLs().Full, func(ctx context.Context) (model.EventDetail, error) {
		_, d, err := s.fresh(ctx, id)
		return d, err
	})
}

// tickets is the cached ticket list of an event.
func (s *store) tickets(ctx context.Context, id string) ([]model.Ticket, error) {
	id = catalog.ShortID(id)
	return cache.Fetch(ctx, s.cache, cache.TicketsKey(id), s.cache.TTLs().Tickets, func(ctx context.Context) ([]model.Ticket, error) {
		_, d, err := s.fresh(ctx, id)
		return d.Tickets, err
	})
}

// fresh reads an event straight from the catalog. Lifecycle checks always
// run against this, never against a cached copy.
func (s *store) fresh(ctx context.Context, id string) (*catalog.Product, model.EventDetail, error) {
	p, err := s.catalog.FetchProduct(ctx, id)
	if err != nil {
		if catalog.KindOf(err) == catalog.KindNotFound {
			return nil, model.EventDetail{}, fmt.Errorf("%w: event %s", ErrNotFound, catalog.ShortID(id))
		}
		return nil, model.EventDetail{}, err
	}
	if p.ProductType != projection.EventProductType {
		return nil, model.EventDetail{}, fmt.Errorf("%w: product %s is not an event", ErrNotFound, p.ID)
	}
	d, err := projection.ProjectEventDetail(*p)
	if err != nil {
		s.log.Error("event projection failed", zap.String("event_id", p.ID), zap.Error(err))
		return nil, model.EventDetail{}, err
	}
	return p, d, nil
}

// allEvents lists every event product, projected with tickets. Products
// that cannot be projected are logged and left out of listings.
func (s *store) allEvents(ctx context.Context) ([]model.EventDetail, error) {
	products, err := s.catalog.ListAllProducts(ctx, eventQuery)
	if err != nil {
		return nil, err
	}
	out := make([]model.EventDetail, 0, len(products))
	for _, p := range products {
		if p.ProductType != projection.EventProductType {
			continue
		}
		d, err := projection.ProjectEventDetail(p)
		if err != nil {
			s.log.Warn("skipping unprojectable event", zap.String("event_id", p.ID), zap.Error(err))
			continue
		}
		out = append(out, d)
	}
	return out, nil
}

// afterWrite invalidates the event, then re-reads it and repopulates the
// full projection and ticket list. When the re-read fails the fallback
// product (the mutation's own response) is projected instead and nothing
// is cached.
func (s *store) afterWrite(ctx context.Context, id string, fallback *catalog.Product) (model.EventDetail, error) {
	id = catalog.ShortID(id)
	s.cache.InvalidateEvent(ctx, id)

	_, d, err := s.fresh(ctx, id)
	if err == nil {
		ttl := s.cache.TTLs()
		s.cache.Set(ctx, cache.FullKey(id), d, ttl.Full)
		s.cache.Set(ctx, cache.TicketsKey(id), d.Tickets, ttl.Tickets)
		return d, nil
	}
	if fallback == nil {
		return model.EventDetail{}, err
	}
	s.log.Warn("re-read after write failed, returning write response", zap.String("event_id", id), zap.Error(err))
	return projection.ProjectEventDetail(*fallback)
}

// invalidateOnFailure drops the event's cache entries when the deferring
// write returns an error. A failed or timed out catalog call may still
// have been applied remotely, so the cached projection cannot be trusted.
func (s *store) invalidateOnFailure(ctx context.Context, id string, err *error) {
	if *err != nil {
		s.cache.InvalidateEvent(ctx, id)
	}
}

// writeExtension applies the metafield half of a write to ownerGID.
func (s *store) writeExtension(ctx context.Context, ownerGID string, x projection.Extension) error {
	if x.Empty() {
		return nil
	}
	x = x.Owned(ownerGID)
	if len(x.Set) > 0 {
		if err := s.catalog.SetMetafields(ctx, x.Set); err != nil {
			return err
		}
	}
	if len(x.Clear) > 0 {
		if err := s.catalog.DeleteMetafields(ctx, x.Clear); err != nil {
			return err
		}
	}
	return nil
}

func findTicket(tickets []model.Ticket, id string) (model.Ticket, bool) {
	id = catalog.ShortID(id)
	for _, t := range tickets {
		if t.ID == id {
			return t, true
		}
	}
	return model.Ticket{}, false
}

func ptr[T any](v T) *T { return &v }
