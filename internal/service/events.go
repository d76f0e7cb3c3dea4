package service

import (
	"context"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/iliyamo/event-ticketing-admin/internal/cache"
	"github.com/iliyamo/event-ticketing-admin/internal/catalog"
	"github.com/iliyamo/event-ticketing-admin/internal/lifecycle"
	"github.com/iliyamo/event-ticketing-admin/internal/model"
	"github.com/iliyamo/event-ticketing-admin/internal/projection"
)

const (
	DefaultPerPage      = 20
	MaxPerPage          = 100
	DefaultPopularLimit = 10
	MaxPopularLimit     = 50
)

// EventService manages events.
type EventService struct {
	store
}

func NewEventService(cat Catalog, c *cache.Cache, log *zap.Logger) *EventService {
	return &EventService{store: newStore(cat, c, log)}
}

// List returns one page of events matching f, newest first.
func (s *EventService) List(ctx context.Context, f model.EventFilter) (model.EventPage, error) {
	f = normalizeFilter(f)
	if err := validateCategory(f.Category); err != nil {
		return model.EventPage{}, err
	}
	if f.Status != "" && !f.Status.Valid() {
		return model.EventPage{}, invalidf("unknown status %q", f.Status)
	}
	return cache.Fetch(ctx, s.cache, cache.ListKey(f), s.cache.TTLs().List, func(ctx context.Context) (model.EventPage, error) {
		all, err := s.allEvents(ctx)
		if err != nil {
			return model.EventPage{}, err
		}
		matched := make([]model.Event, 0, len(all))
		for _, d := range all {
			if matches(d.Event, f) {
				matched = append(matched, d.Event)
			}
		}
		return paginate(matched, f.Page, f.PerPage), nil
	})
}

func normalizeFilter(f model.EventFilter) model.EventFilter {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PerPage < 1 {
		f.PerPage = DefaultPerPage
	}
	if f.PerPage > MaxPerPage {
		f.PerPage = MaxPerPage
	}
	f.Search = strings.ToLower(strings.TrimSpace(f.Search))
	f.Status = f.Status.Canonical()
	return f
}

func matches(e model.Event, f model.EventFilter) bool {
	if f.Category != "" && e.Category != f.Category {
		return false
	}
	if f.Status != "" && e.Status != f.Status {
		return false
	}
	if f.Featured != nil && e.IsFeatured != *f.Featured {
		return false
	}
	if f.Search == "" {
		return true
	}
	for _, s := range []string{e.Title, e.Subtitle, e.VenueName, e.City, e.OrganizerName} {
		if strings.Contains(strings.ToLower(s), f.Search) {
			return true
		}
	}
	for _, tag := range e.Tags {
		if strings.EqualFold(tag, f.Search) {
			return true
		}
	}
	return false
}

func paginate(events []model.Event, page, perPage int) model.EventPage {
	total := len(events)
	pages := (total + perPage - 1) / perPage
	start := (page - 1) * perPage
	out := []model.Event{}
	if start < total {
		end := min(start+perPage, total)
		out = events[start:end]
	}
	return model.EventPage{
		Events: out,
		Pagination: model.Pagination{
			CurrentPage: page,
			TotalPages:  pages,
			TotalCount:  total,
			PerPage:     perPage,
			HasNext:     page < pages,
			HasPrevious: page > 1,
		},
	}
}

// Get returns an event with its reconciled tickets.
func (s *EventService) Get(ctx context.Context, id string) (model.EventDetail, error) {
	return s.detail(ctx, id)
}

// Tickets returns an event's reconciled tickets.
func (s *EventService) Tickets(ctx context.Context, id string) ([]model.Ticket, error) {
	return s.tickets(ctx, id)
}

// Popular ranks active events by tickets sold.
func (s *EventService) Popular(ctx context.Context, limit int) ([]model.PopularEvent, error) {
	if limit < 1 {
		limit = DefaultPopularLimit
	}
	limit = min(limit, MaxPopularLimit)
	return cache.Fetch(ctx, s.cache, cache.PopularKey(limit), s.cache.TTLs().Popular, func(ctx context.Context) ([]model.PopularEvent, error) {
		all, err := s.allEvents(ctx)
		if err != nil {
			return nil, err
		}
		ranked := make([]model.PopularEvent, 0, len(all))
		for _, d := range all {
			if d.Status == model.EventActive {
				ranked = append(ranked, model.PopularEvent{Event: d.Event, TotalSold: d.TotalSold})
			}
		}
		// ties keep the catalog's newest-first order
		sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].TotalSold > ranked[j].TotalSold })
		if len(ranked) > limit {
			ranked = ranked[:limit]
		}
		return ranked, nil
	})
}

// Create adds a draft event.
func (s *EventService) Create(ctx context.Context, in model.EventCreate) (_ model.EventDetail, err error) {
	if err := validateEventCreate(&in); err != nil {
		return model.EventDetail{}, err
	}
	payload, err := projection.EventCreatePayload(in)
	if err != nil {
		return model.EventDetail{}, err
	}
	defer func() {
		// the product may exist remotely even though the call failed
		if err != nil {
			s.cache.Invalidate(ctx, cache.ListPrefix+"*", cache.PopularPrefix+"*")
		}
	}()
	p, err := s.catalog.CreateProduct(ctx, payload)
	if err != nil {
		return model.EventDetail{}, err
	}
	s.log.Info("event created", zap.String("event_id", p.ID), zap.String("title", p.Title))
	return s.afterWrite(ctx, p.ID, p)
}

// Update applies a partial update. Status and is_featured changes are
// checked against the lifecycle rules; resending a current value is not a
// change.
func (s *EventService) Update(ctx context.Context, id string, u model.EventUpdate) (model.EventDetail, error) {
	return s.update(ctx, id, u, false)
}

// Publish moves an event to active.
func (s *EventService) Publish(ctx context.Context, id string) (model.EventDetail, error) {
	return s.SetStatus(ctx, id, model.EventActive)
}

// Archive moves an event to archived.
func (s *EventService) Archive(ctx context.Context, id string) (model.EventDetail, error) {
	return s.SetStatus(ctx, id, model.EventArchived)
}

// SetStatus is an explicit transition; unlike Update it rejects a move to
// the status the event already has.
func (s *EventService) SetStatus(ctx context.Context, id string, to model.EventStatus) (model.EventDetail, error) {
	return s.update(ctx, id, model.EventUpdate{Status: &to}, true)
}

// Feature sets or clears is_featured.
func (s *EventService) Feature(ctx context.Context, id string, featured bool) (model.EventDetail, error) {
	return s.update(ctx, id, model.EventUpdate{IsFeatured: &featured}, true)
}

func (s *EventService) update(ctx context.Context, id string, u model.EventUpdate, explicit bool) (_ model.EventDetail, err error) {
	if err := validateEventUpdate(&u); err != nil {
		return model.EventDetail{}, err
	}
	_, cur, err := s.fresh(ctx, id)
	if err != nil {
		return model.EventDetail{}, err
	}
	id = cur.ID

	target := cur.Status
	if u.Status != nil {
		if explicit || !sameStatus(cur.Status, *u.Status) {
			if err := lifecycle.CheckTransition(cur.Status, *u.Status, cur.Tickets); err != nil {
				return model.EventDetail{}, err
			}
		}
		target = *u.Status
	}
	if u.IsFeatured != nil && (explicit || *u.IsFeatured != cur.IsFeatured) {
		if err := lifecycle.CheckFeature(target, *u.IsFeatured); err != nil {
			return model.EventDetail{}, err
		}
	}
	// only active events may stay featured
	if u.IsFeatured == nil && cur.IsFeatured && target != model.EventActive {
		u.IsFeatured = ptr(false)
	}

	core, ext, err := projection.EventWritePayload(u)
	if err != nil {
		return model.EventDetail{}, err
	}
	defer s.invalidateOnFailure(ctx, id, &err)
	var written *catalog.Product
	if !core.Empty() {
		written, err = s.catalog.UpdateProduct(ctx, id, core)
		if err != nil {
			return model.EventDetail{}, err
		}
	}
	if err := s.writeExtension(ctx, catalog.ProductGID(id), ext); err != nil {
		if written == nil {
			return model.EventDetail{}, err
		}
		s.log.Warn("event extension write failed after core update",
			zap.String("event_id", id), zap.Error(err))
	}
	if u.Status != nil && !sameStatus(cur.Status, *u.Status) {
		s.log.Info("event status changed", zap.String("event_id", id),
			zap.String("from", string(cur.Status)), zap.String("to", string(*u.Status)))
	}
	return s.afterWrite(ctx, id, written)
}

// Delete removes an event that has sold nothing.
func (s *EventService) Delete(ctx context.Context, id string) (err error) {
	_, cur, err := s.fresh(ctx, id)
	if err != nil {
		return err
	}
	if err := lifecycle.CheckEventDelete(cur.Tickets); err != nil {
		return err
	}
	defer s.invalidateOnFailure(ctx, cur.ID, &err)
	if err := s.catalog.DeleteProduct(ctx, cur.ID); err != nil {
		return err
	}
	s.cache.InvalidateEvent(ctx, cur.ID)
	s.log.Info("event deleted", zap.String("event_id", cur.ID))
	return nil
}

func sameStatus(a, b model.EventStatus) bool {
	return a.Canonical() == b.Canonical()
}
