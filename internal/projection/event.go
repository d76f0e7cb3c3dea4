package projection

import (
	"strings"

	"github.com/iliyamo/event-ticketing-admin/internal/catalog"
	"github.com/iliyamo/event-ticketing-admin/internal/inventory"
	"github.com/iliyamo/event-ticketing-admin/internal/model"
)

type eventField = field[model.Event, model.EventUpdate]

// eventFields is the routing table for every metafield-backed event field.
// Native fields (title, description, tags, seo_slug, status) are handled
// in ProjectEvent and EventWritePayload.
var eventFields = []eventField{
	text[model.Event, model.EventUpdate]("subtitle", NamespaceEvent, "subtitle", catalog.TypeSingleLine,
		func(e *model.Event) *string { return &e.Subtitle },
		func(u *model.EventUpdate) *string { return u.Subtitle }),
	enum[model.Event, model.EventUpdate, model.Category]("category", NamespaceEvent, "category",
		func(e *model.Event) *model.Category { return &e.Category },
		func(u *model.EventUpdate) *model.Category { return u.Category }),
	text[model.Event, model.EventUpdate]("cover_image", NamespaceEvent, "cover_image", catalog.TypeURL,
		func(e *model.Event) *string { return &e.CoverImage },
		func(u *model.EventUpdate) *string { return u.CoverImage }),
	list[model.Event, model.EventUpdate]("gallery_images", NamespaceEvent, "gallery_images",
		func(e *model.Event) *[]string { return &e.GalleryImages },
		func(u *model.EventUpdate) *[]string { return u.GalleryImages }),
	text[model.Event, model.EventUpdate]("venue_name", NamespaceEvent, "venue_name", catalog.TypeSingleLine,
		func(e *model.Event) *string { return &e.VenueName },
		func(u *model.EventUpdate) *string { return u.VenueName }),
	text[model.Event, model.EventUpdate]("city", NamespaceEvent, "city", catalog.TypeSingleLine,
		func(e *model.Event) *string { return &e.City },
		func(u *model.EventUpdate) *string { return u.City }),
	text[model.Event, model.EventUpdate]("address", NamespaceEvent, "address", catalog.TypeMultiLine,
		func(e *model.Event) *string { return &e.Address },
		func(u *model.EventUpdate) *string { return u.Address }),
	text[model.Event, model.EventUpdate]("country", NamespaceEvent, "country", catalog.TypeSingleLine,
		func(e *model.Event) *string { return &e.Country },
		func(u *model.EventUpdate) *string { return u.Country }),
	text[model.Event, model.EventUpdate]("location_link", NamespaceEvent, "location_link", catalog.TypeURL,
		func(e *model.Event) *string { return &e.LocationLink },
		func(u *model.EventUpdate) *string { return u.LocationLink }),
	text[model.Event, model.EventUpdate]("start_datetime", NamespaceEvent, "start_datetime", catalog.TypeDateTime,
		func(e *model.Event) *string { return &e.StartDatetime },
		func(u *model.EventUpdate) *string { return u.StartDatetime }),
	text[model.Event, model.EventUpdate]("end_datetime", NamespaceEvent, "end_datetime", catalog.TypeDateTime,
		func(e *model.Event) *string { return &e.EndDatetime },
		func(u *model.EventUpdate) *string { return u.EndDatetime }),
	text[model.Event, model.EventUpdate]("organizer_name", NamespaceEvent, "organizer_name", catalog.TypeSingleLine,
		func(e *model.Event) *string { return &e.OrganizerName },
		func(u *model.EventUpdate) *string { return u.OrganizerName }),
	flag[model.Event, model.EventUpdate]("is_featured", NamespaceCustom, "is_featured",
		func(e *model.Event) *bool { return &e.IsFeatured },
		func(u *model.EventUpdate) *bool { return u.IsFeatured }),
}

// ProjectEvent builds an Event from a product and its metafields.
func ProjectEvent(p catalog.Product) (model.Event, error) {
	e := model.Event{
		ID:            p.ID,
		Title:         p.Title,
		Description:   p.DescriptionHTML,
		ProductType:   p.ProductType,
		Tags:          p.Tags,
		GalleryImages: []string{},
		SEOSlug:       p.Handle,
		Status:        model.EventStatus(strings.ToLower(p.Status)).Canonical(),
		TotalTickets:  p.TotalInventory,
	}
	if e.Tags == nil {
		e.Tags = []string{}
	}
	if err := readFields(eventFields, p.Metafields, &e, "event"); err != nil {
		return model.Event{}, err
	}
	return e, nil
}

// ProjectEventDetail projects the event together with its reconciled
// tickets and aggregates.
func ProjectEventDetail(p catalog.Product) (model.EventDetail, error) {
	e, err := ProjectEvent(p)
	if err != nil {
		return model.EventDetail{}, err
	}
	tickets, err := ProjectTickets(p)
	if err != nil {
		return model.EventDetail{}, err
	}
	return model.EventDetail{
		Event:        e,
		Tickets:      tickets,
		TotalSold:    inventory.TotalSold(tickets),
		TotalRevenue: inventory.TotalRevenue(tickets),
	}, nil
}

// EventWritePayload splits a partial update into native product fields
// and metafield writes. Metafield entries carry no owner yet.
func EventWritePayload(u model.EventUpdate) (catalog.ProductInput, Extension, error) {
	var in catalog.ProductInput
	in.Title = u.Title
	in.DescriptionHTML = u.Description
	in.Tags = u.Tags
	in.Handle = u.SEOSlug
	if u.Status != nil {
		in.Status = ptr(strings.ToUpper(string(*u.Status)))
	}
	x, err := writeFields(eventFields, &u)
	if err != nil {
		return catalog.ProductInput{}, Extension{}, err
	}
	return in, x, nil
}

// EventCreatePayload builds the create input with metafields inline.
// Empty optional fields are not written.
func EventCreatePayload(c model.EventCreate) (catalog.ProductInput, error) {
	status := c.Status
	if status == "" {
		status = model.EventDraft
	}
	in, x, err := EventWritePayload(CreateAsUpdate(c))
	if err != nil {
		return catalog.ProductInput{}, err
	}
	if c.Description == "" {
		in.DescriptionHTML = nil
	}
	if len(c.Tags) == 0 {
		in.Tags = nil
	}
	if c.SEOSlug == "" {
		in.Handle = nil
	}
	in.Status = ptr(strings.ToUpper(string(status)))
	in.ProductType = ptr(EventProductType)
	in.Metafields = x.Set
	return in, nil
}

// CreateAsUpdate views a create payload as an update touching every field.
func CreateAsUpdate(c model.EventCreate) model.EventUpdate {
	return model.EventUpdate{
		Title:         ptr(c.Title),
		Subtitle:      ptr(c.Subtitle),
		Description:   ptr(c.Description),
		Category:      ptr(c.Category),
		Tags:          ptr(c.Tags),
		CoverImage:    ptr(c.CoverImage),
		GalleryImages: ptr(c.GalleryImages),
		VenueName:     ptr(c.VenueName),
		City:          ptr(c.City),
		Address:       ptr(c.Address),
		Country:       ptr(c.Country),
		LocationLink:  ptr(c.LocationLink),
		StartDatetime: ptr(c.StartDatetime),
		EndDatetime:   ptr(c.EndDatetime),
		OrganizerName: ptr(c.OrganizerName),
		SEOSlug:       ptr(c.SEOSlug),
	}
}

// FullUpdate is the update that would rewrite every writable field of e.
func FullUpdate(e model.Event) model.EventUpdate {
	return model.EventUpdate{
		Title:         ptr(e.Title),
		Subtitle:      ptr(e.Subtitle),
		Description:   ptr(e.Description),
		Category:      ptr(e.Category),
		Tags:          ptr(e.Tags),
		CoverImage:    ptr(e.CoverImage),
		GalleryImages: ptr(e.GalleryImages),
		VenueName:     ptr(e.VenueName),
		City:          ptr(e.City),
		Address:       ptr(e.Address),
		Country:       ptr(e.Country),
		LocationLink:  ptr(e.LocationLink),
		StartDatetime: ptr(e.StartDatetime),
		EndDatetime:   ptr(e.EndDatetime),
		OrganizerName: ptr(e.OrganizerName),
		SEOSlug:       ptr(e.SEOSlug),
		Status:        ptr(e.Status),
		IsFeatured:    ptr(e.IsFeatured),
	}
}
