package service

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/event-ticketing-admin/internal/cache"
	"github.com/iliyamo/event-ticketing-admin/internal/catalog"
	"github.com/iliyamo/event-ticketing-admin/internal/catalog/catalogtest"
	"github.com/iliyamo/event-ticketing-admin/internal/lifecycle"
	"github.com/iliyamo/event-ticketing-admin/internal/model"
)

type env struct {
	events  *EventService
	tickets *TicketService
	fake    *catalogtest.Fake
	cache   *cache.Cache
	mr      *miniredis.Miniredis
}

func newEnv(t *testing.T) *env {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	c := cache.New(rdb, cache.DefaultTTLs(), nil)
	fake := catalogtest.New()
	return &env{
		events:  NewEventService(fake, c, nil),
		tickets: NewTicketService(fake, c, nil),
		fake:    fake,
		cache:   c,
		mr:      mr,
	}
}

func (e *env) createEvent(t *testing.T, title string) model.EventDetail {
	t.Helper()
	d, err := e.events.Create(context.Background(), model.EventCreate{
		Title:     title,
		Category:  model.CategoryMusicConcerts,
		City:      "Lisbon",
		VenueName: "Coliseu",
	})
	require.NoError(t, err)
	return d
}

func (e *env) createTicket(t *testing.T, eventID string, capacity int, price model.Money) model.Ticket {
	t.Helper()
	tk, err := e.tickets.Create(context.Background(), eventID, model.TicketCreate{
		Name:              "Regular",
		Type:              model.TicketRegular,
		Price:             price,
		InventoryQuantity: capacity,
	})
	require.NoError(t, err)
	return tk
}

func violation(t *testing.T, err error) *lifecycle.Violation {
	t.Helper()
	require.ErrorIs(t, err, lifecycle.ErrViolation)
	var v *lifecycle.Violation
	require.True(t, errors.As(err, &v))
	return v
}

func TestPublishRequiresSellableTickets(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	ev := e.createEvent(t, "Jazz Night")
	assert.Equal(t, model.EventDraft, ev.Status)
	assert.Equal(t, "event", ev.ProductType)

	_, err := e.events.Publish(ctx, ev.ID)
	assert.Equal(t, lifecycle.RulePublish, violation(t, err).Rule)

	tk := e.createTicket(t, ev.ID, 100, 5000)
	assert.Equal(t, 100, tk.Capacity)
	assert.Equal(t, 100, tk.Available)
	assert.Equal(t, 0, tk.Sold)

	e.fake.Sell(tk.ID, 100)
	_, err = e.events.Publish(ctx, ev.ID)
	v := violation(t, err)
	assert.Equal(t, lifecycle.RulePublish, v.Rule)
	assert.Contains(t, v.Message, "no available tickets")

	up, err := e.tickets.Update(ctx, ev.ID, tk.ID, model.TicketUpdate{InventoryQuantity: ptr(150)})
	require.NoError(t, err)
	assert.Equal(t, 150, up.Capacity)
	assert.Equal(t, 50, up.Available)
	assert.Equal(t, 100, up.Sold)

	pub, err := e.events.Publish(ctx, ev.ID)
	require.NoError(t, err)
	assert.Equal(t, model.EventActive, pub.Status)

	got, err := e.events.Get(ctx, ev.ID)
	require.NoError(t, err)
	assert.Equal(t, model.EventActive, got.Status)
	assert.Equal(t, 100, got.TotalSold)
	assert.Equal(t, model.Money(500000), got.TotalRevenue)
}

func TestStatusTransitions(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	ev := e.createEvent(t, "Comedy Hour")
	e.createTicket(t, ev.ID, 10, 1500)

	_, err := e.events.Archive(ctx, ev.ID)
	assert.Contains(t, violation(t, err).Message, "must be published")

	_, err = e.events.Publish(ctx, ev.ID)
	require.NoError(t, err)
	_, err = e.events.Publish(ctx, ev.ID)
	assert.Contains(t, violation(t, err).Message, "already active")

	_, err = e.events.SetStatus(ctx, ev.ID, model.EventDraft)
	assert.Contains(t, violation(t, err).Message, "archive it instead")

	arch, err := e.events.Archive(ctx, ev.ID)
	require.NoError(t, err)
	assert.Equal(t, model.EventArchived, arch.Status)

	back, err := e.events.Publish(ctx, ev.ID)
	require.NoError(t, err)
	assert.Equal(t, model.EventActive, back.Status)
}

func TestUpdate_ResendingCurrentStatusIsNotATransition(t *testing.T) {
	e := newEnv(t)
	ev := e.createEvent(t, "Open Air")

	up, err := e.events.Update(context.Background(), ev.ID, model.EventUpdate{
		Status:   ptr(model.EventDraft),
		Subtitle: ptr("Bring a blanket"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Bring a blanket", up.Subtitle)
	assert.Equal(t, model.EventDraft, up.Status)
}

func TestFeature(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	ev := e.createEvent(t, "Gallery Opening")
	e.createTicket(t, ev.ID, 10, 0)

	_, err := e.events.Feature(ctx, ev.ID, true)
	assert.Equal(t, lifecycle.RuleFeature, violation(t, err).Rule)

	_, err = e.events.Publish(ctx, ev.ID)
	require.NoError(t, err)
	f, err := e.events.Feature(ctx, ev.ID, true)
	require.NoError(t, err)
	assert.True(t, f.IsFeatured)

	arch, err := e.events.Archive(ctx, ev.ID)
	require.NoError(t, err)
	assert.False(t, arch.IsFeatured, "archiving drops the featured flag")

	_, err = e.events.Feature(ctx, ev.ID, false)
	require.NoError(t, err)
}

func TestUpdate_PublishAndFeatureTogether(t *testing.T) {
	e := newEnv(t)
	ev := e.createEvent(t, "Derby")
	e.createTicket(t, ev.ID, 10, 2000)

	up, err := e.events.Update(context.Background(), ev.ID, model.EventUpdate{
		Status:     ptr(model.EventActive),
		IsFeatured: ptr(true),
	})
	require.NoError(t, err)
	assert.Equal(t, model.EventActive, up.Status)
	assert.True(t, up.IsFeatured)
}

func TestCreate_Validation(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.events.Create(ctx, model.EventCreate{Title: "  "})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = e.events.Create(ctx, model.EventCreate{Title: "X", Category: "opera"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = e.events.Create(ctx, model.EventCreate{Title: "X", Status: model.EventActive})
	assert.Equal(t, lifecycle.RuleTransition, violation(t, err).Rule)
	assert.Equal(t, 0, e.fake.Calls("CreateProduct"))
}

func TestGet_NotFound(t *testing.T) {
	e := newEnv(t)
	_, err := e.events.Get(context.Background(), "999")
	assert.ErrorIs(t, err, ErrNotFound)

	// products that are not events are invisible
	e.fake.Put(catalog.Product{ID: "500", Title: "T-shirt", ProductType: "apparel", Status: "ACTIVE"})
	_, err = e.events.Get(context.Background(), "gid://shopify/Product/500")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGet_GatewayErrorsPassThrough(t *testing.T) {
	e := newEnv(t)
	ev := e.createEvent(t, "Late Show")
	e.cache.InvalidateAll(context.Background())
	e.fake.FailOn("FetchProduct", &catalog.Error{Kind: catalog.KindTransient, Op: "product", Message: "timeout"})

	_, err := e.events.Get(context.Background(), ev.ID)
	assert.ErrorIs(t, err, catalog.ErrTransient)
}

func TestDelete(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	ev := e.createEvent(t, "Poetry Slam")
	tk := e.createTicket(t, ev.ID, 20, 1000)
	e.fake.Sell(tk.ID, 3)

	err := e.events.Delete(ctx, ev.ID)
	v := violation(t, err)
	assert.Equal(t, lifecycle.RuleEventDelete, v.Rule)
	assert.Contains(t, v.Message, "3 tickets sold")
	assert.Contains(t, v.Message, "archive")

	clean := e.createEvent(t, "Cancelled Gig")
	_, err = e.events.Get(ctx, clean.ID)
	require.NoError(t, err)
	require.NoError(t, e.events.Delete(ctx, clean.ID))
	assert.False(t, e.mr.Exists(cache.FullKey(clean.ID)))
	_, err = e.events.Get(ctx, clean.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestList_FiltersAndPagination(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	for _, title := range []string{"A", "B", "C", "D", "E"} {
		e.createEvent(t, title)
	}
	_, err := e.events.Create(ctx, model.EventCreate{Title: "Kids Fair", Category: model.CategoryFamilyKids, City: "Porto"})
	require.NoError(t, err)

	page, err := e.events.List(ctx, model.EventFilter{Page: 1, PerPage: 4})
	require.NoError(t, err)
	assert.Len(t, page.Events, 4)
	assert.Equal(t, "Kids Fair", page.Events[0].Title, "newest first")
	assert.Equal(t, model.Pagination{CurrentPage: 1, TotalPages: 2, TotalCount: 6, PerPage: 4, HasNext: true}, page.Pagination)

	second, err := e.events.List(ctx, model.EventFilter{Page: 2, PerPage: 4})
	require.NoError(t, err)
	assert.Len(t, second.Events, 2)
	assert.True(t, second.Pagination.HasPrevious)
	assert.False(t, second.Pagination.HasNext)

	beyond, err := e.events.List(ctx, model.EventFilter{Page: 9, PerPage: 4})
	require.NoError(t, err)
	assert.Empty(t, beyond.Events)
	assert.NotNil(t, beyond.Events)

	kids, err := e.events.List(ctx, model.EventFilter{Category: model.CategoryFamilyKids})
	require.NoError(t, err)
	require.Len(t, kids.Events, 1)
	assert.Equal(t, DefaultPerPage, kids.Pagination.PerPage)

	porto, err := e.events.List(ctx, model.EventFilter{Search: " porto "})
	require.NoError(t, err)
	assert.Len(t, porto.Events, 1)

	drafts, err := e.events.List(ctx, model.EventFilter{Status: model.EventDraft, Featured: ptr(false)})
	require.NoError(t, err)
	assert.Equal(t, 6, drafts.Pagination.TotalCount)

	_, err = e.events.List(ctx, model.EventFilter{Status: "deleted"})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestList_SkipsNonEventsAndUnprojectable(t *testing.T) {
	e := newEnv(t)
	e.fake.Put(catalog.Product{ID: "1", Title: "Mug", ProductType: "merch"})
	e.fake.Put(catalog.Product{ID: "2", Title: "Broken", ProductType: "event", Metafields: []catalog.Metafield{
		{Namespace: "event", Key: "city", Type: "rating", Value: "5"},
	}})
	e.fake.Put(catalog.Product{ID: "3", Title: "Fine", ProductType: "event", Status: "DRAFT"})

	page, err := e.events.List(context.Background(), model.EventFilter{})
	require.NoError(t, err)
	require.Len(t, page.Events, 1)
	assert.Equal(t, "Fine", page.Events[0].Title)
}

func TestList_LegacyUnlistedCountsAsDraft(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.fake.Put(catalog.Product{ID: "7", Title: "Old Import", ProductType: "event", Status: "UNLISTED"})
	e.fake.Put(catalog.Product{ID: "8", Title: "Live", ProductType: "event", Status: "ACTIVE"})

	for _, status := range []model.EventStatus{model.EventDraft, model.EventUnlisted} {
		page, err := e.events.List(ctx, model.EventFilter{Status: status})
		require.NoError(t, err)
		require.Len(t, page.Events, 1, status)
		assert.Equal(t, "Old Import", page.Events[0].Title)
		assert.Equal(t, model.EventDraft, page.Events[0].Status)
	}
}

func TestPopular(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	mk := func(title string, sold int) string {
		ev := e.createEvent(t, title)
		tk := e.createTicket(t, ev.ID, 100, 1000)
		_, err := e.events.Publish(ctx, ev.ID)
		require.NoError(t, err)
		e.fake.Sell(tk.ID, sold)
		return ev.ID
	}
	low := mk("Low", 2)
	high := mk("High", 40)
	mid := mk("Mid", 10)
	draft := e.createEvent(t, "Draft")
	tk := e.createTicket(t, draft.ID, 100, 1000)
	e.fake.Sell(tk.ID, 90)

	top, err := e.events.Popular(ctx, 2)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, high, top[0].ID)
	assert.Equal(t, 40, top[0].TotalSold)
	assert.Equal(t, mid, top[1].ID)

	all, err := e.events.Popular(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, low, all[2].ID)
	assert.True(t, e.mr.Exists(cache.PopularKey(DefaultPopularLimit)))
}

func TestMutationsInvalidateEveryFamily(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	ev := e.createEvent(t, "Before")
	tk := e.createTicket(t, ev.ID, 10, 1000)

	warm := func() {
		_, err := e.events.Get(ctx, ev.ID)
		require.NoError(t, err)
		_, err = e.events.Tickets(ctx, ev.ID)
		require.NoError(t, err)
		_, err = e.events.List(ctx, model.EventFilter{})
		require.NoError(t, err)
		_, err = e.events.Popular(ctx, 5)
		require.NoError(t, err)
	}
	listKey := cache.ListKey(normalizeFilter(model.EventFilter{}))

	warm()
	require.True(t, e.mr.Exists(listKey))
	require.True(t, e.mr.Exists(cache.PopularKey(5)))

	_, err := e.events.Update(ctx, ev.ID, model.EventUpdate{Title: ptr("After")})
	require.NoError(t, err)
	assert.False(t, e.mr.Exists(listKey))
	assert.False(t, e.mr.Exists(cache.PopularKey(5)))

	got, err := e.events.Get(ctx, ev.ID)
	require.NoError(t, err)
	assert.Equal(t, "After", got.Title)
	page, err := e.events.List(ctx, model.EventFilter{})
	require.NoError(t, err)
	assert.Equal(t, "After", page.Events[0].Title)

	warm()
	_, err = e.tickets.Update(ctx, ev.ID, tk.ID, model.TicketUpdate{Price: ptr(model.Money(2500))})
	require.NoError(t, err)
	assert.False(t, e.mr.Exists(listKey))
	tickets, err := e.events.Tickets(ctx, ev.ID)
	require.NoError(t, err)
	assert.Equal(t, model.Money(2500), tickets[0].Price)
}

func TestUpdate_ExtensionFailureKeepsCoreWrite(t *testing.T) {
	e := newEnv(t)
	ev := e.createEvent(t, "Original")
	e.fake.FailOn("SetMetafields", &catalog.Error{Kind: catalog.KindTransient, Op: "metafieldsSet", Message: "timeout"})

	up, err := e.events.Update(context.Background(), ev.ID, model.EventUpdate{
		Title: ptr("Renamed"),
		City:  ptr("Madrid"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", up.Title)
	assert.Equal(t, "Lisbon", up.City)

	// with no core change the extension failure is the caller's error
	_, err = e.events.Update(context.Background(), ev.ID, model.EventUpdate{City: ptr("Madrid")})
	assert.ErrorIs(t, err, catalog.ErrTransient)
}

func TestUpdate_PartialFailureInvalidatesCache(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	ev := e.createEvent(t, "Fado")
	_, err := e.events.Get(ctx, ev.ID)
	require.NoError(t, err)
	require.True(t, e.mr.Exists(cache.FullKey(ev.ID)))

	// the set half lands remotely, the clear half times out
	e.fake.FailOn("DeleteMetafields", &catalog.Error{Kind: catalog.KindTransient, Op: "metafieldsDelete", Message: "timeout"})
	_, err = e.events.Update(ctx, ev.ID, model.EventUpdate{City: ptr("Madrid"), Subtitle: ptr("")})
	require.ErrorIs(t, err, catalog.ErrTransient)
	assert.False(t, e.mr.Exists(cache.FullKey(ev.ID)))

	e.fake.FailOn("DeleteMetafields", nil)
	got, err := e.events.Get(ctx, ev.ID)
	require.NoError(t, err)
	assert.Equal(t, "Madrid", got.City)
}

func TestDelete_FailureInvalidatesCache(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	ev := e.createEvent(t, "Gone Maybe")
	_, err := e.events.Get(ctx, ev.ID)
	require.NoError(t, err)

	e.fake.FailOn("DeleteProduct", &catalog.Error{Kind: catalog.KindTransient, Op: "productDelete", Message: "timeout"})
	require.Error(t, e.events.Delete(ctx, ev.ID))
	assert.False(t, e.mr.Exists(cache.FullKey(ev.ID)))
}

func TestCachePassThroughWithoutRedis(t *testing.T) {
	fake := catalogtest.New()
	events := NewEventService(fake, nil, nil)
	ev, err := events.Create(context.Background(), model.EventCreate{Title: "No Cache"})
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		_, err := events.Get(context.Background(), ev.ID)
		require.NoError(t, err)
	}
	// create re-read + two uncached gets
	assert.Equal(t, 3, fake.Calls("FetchProduct"))
}
