package model

// EventStatus is the lifecycle status of an event. The catalog stores it
// upper-cased on the product; the API exposes it lower-case.
type EventStatus string

const (
	EventDraft    EventStatus = "draft"
	EventActive   EventStatus = "active"
	EventArchived EventStatus = "archived"
	// EventUnlisted is a legacy value still present on some products.
	// It is accepted on read and behaves like draft.
	EventUnlisted EventStatus = "unlisted"
)

// Valid reports whether s is one of the writable statuses.
func (s EventStatus) Valid() bool {
	switch s {
	case EventDraft, EventActive, EventArchived:
		return true
	}
	return false
}

// Canonical folds the legacy unlisted value into draft.
func (s EventStatus) Canonical() EventStatus {
	if s == EventUnlisted {
		return EventDraft
	}
	return s
}

// Category is the event category enum.
type Category string

const (
	CategoryMusicConcerts          Category = "music_concerts"
	CategoryNightlifeParties       Category = "nightlife_parties"
	CategoryArtCulture             Category = "art_culture"
	CategoryComedyShows            Category = "comedy_shows"
	CategorySportsFitness          Category = "sports_fitness"
	CategoryFestivalsFairs         Category = "festivals_fairs"
	CategoryWorkshopsExperiences   Category = "workshops_experiences"
	CategoryEntertainmentLifestyle Category = "entertainment_lifestyle"
	CategoryFamilyKids             Category = "family_kids"
)

var categoryLabels = map[Category]string{
	CategoryMusicConcerts:          "Music & Concerts",
	CategoryNightlifeParties:       "Nightlife & Parties",
	CategoryArtCulture:             "Art & Culture",
	CategoryComedyShows:            "Comedy & Shows",
	CategorySportsFitness:          "Sports & Fitness",
	CategoryFestivalsFairs:         "Festivals & Fairs",
	CategoryWorkshopsExperiences:   "Workshops & Experiences",
	CategoryEntertainmentLifestyle: "Entertainment & Lifestyle",
	CategoryFamilyKids:             "Family & Kids",
}

func (c Category) Valid() bool {
	_, ok := categoryLabels[c]
	return ok
}

// Label is the display name used as the catalog product type.
func (c Category) Label() string { return categoryLabels[c] }

// Event is a catalog product projected into the event domain.
type Event struct {
	ID            string      `json:"id"`
	Title         string      `json:"title"`
	Subtitle      string      `json:"subtitle,omitempty"`
	Description   string      `json:"description,omitempty"`
	Category      Category    `json:"category,omitempty"`
	ProductType   string      `json:"product_type,omitempty"`
	Tags          []string    `json:"tags"`
	CoverImage    string      `json:"cover_image,omitempty"`
	GalleryImages []string    `json:"gallery_images"`
	VenueName     string      `json:"venue_name,omitempty"`
	City          string      `json:"city,omitempty"`
	Address       string      `json:"address,omitempty"`
	Country       string      `json:"country,omitempty"`
	LocationLink  string      `json:"location_link,omitempty"`
	StartDatetime string      `json:"start_datetime,omitempty"`
	EndDatetime   string      `json:"end_datetime,omitempty"`
	OrganizerName string      `json:"organizer_name,omitempty"`
	SEOSlug       string      `json:"seo_slug,omitempty"`
	Status        EventStatus `json:"status"`
	IsFeatured    bool        `json:"is_featured"`
	TotalTickets  int         `json:"total_tickets"`
}

// EventDetail is an event with its reconciled tickets and aggregates.
type EventDetail struct {
	Event
	Tickets      []Ticket `json:"tickets"`
	TotalSold    int      `json:"total_sold"`
	TotalRevenue Money    `json:"total_revenue"`
}

// EventCreate is the payload for creating an event. Status defaults to draft.
type EventCreate struct {
	Title         string      `json:"title"`
	Subtitle      string      `json:"subtitle"`
	Description   string      `json:"description"`
	Category      Category    `json:"category"`
	Tags          []string    `json:"tags"`
	CoverImage    string      `json:"cover_image"`
	GalleryImages []string    `json:"gallery_images"`
	VenueName     string      `json:"venue_name"`
	City          string      `json:"city"`
	Address       string      `json:"address"`
	Country       string      `json:"country"`
	LocationLink  string      `json:"location_link"`
	StartDatetime string      `json:"start_datetime"`
	EndDatetime   string      `json:"end_datetime"`
	OrganizerName string      `json:"organizer_name"`
	SEOSlug       string      `json:"seo_slug"`
	Status        EventStatus `json:"status"`
}

// EventUpdate is a partial update; nil fields are left untouched.
type EventUpdate struct {
	Title         *string      `json:"title,omitempty"`
	Subtitle      *string      `json:"subtitle,omitempty"`
	Description   *string      `json:"description,omitempty"`
	Category      *Category    `json:"category,omitempty"`
	Tags          *[]string    `json:"tags,omitempty"`
	CoverImage    *string      `json:"cover_image,omitempty"`
	GalleryImages *[]string    `json:"gallery_images,omitempty"`
	VenueName     *string      `json:"venue_name,omitempty"`
	City          *string      `json:"city,omitempty"`
	Address       *string      `json:"address,omitempty"`
	Country       *string      `json:"country,omitempty"`
	LocationLink  *string      `json:"location_link,omitempty"`
	StartDatetime *string      `json:"start_datetime,omitempty"`
	EndDatetime   *string      `json:"end_datetime,omitempty"`
	OrganizerName *string      `json:"organizer_name,omitempty"`
	SEOSlug       *string      `json:"seo_slug,omitempty"`
	Status        *EventStatus `json:"status,omitempty"`
	IsFeatured    *bool        `json:"is_featured,omitempty"`
}

// EventFilter narrows an event listing.
type EventFilter struct {
	Category Category    `json:"category,omitempty"`
	Status   EventStatus `json:"status,omitempty"`
	Search   string      `json:"search,omitempty"`
	Featured *bool       `json:"featured,omitempty"`
	Page     int         `json:"page"`
	PerPage  int         `json:"per_page"`
}

// Pagination mirrors the listing envelope returned to API callers.
type Pagination struct {
	CurrentPage int  `json:"current_page"`
	TotalPages  int  `json:"total_pages"`
	TotalCount  int  `json:"total_count"`
	PerPage     int  `json:"per_page"`
	HasNext     bool `json:"has_next"`
	HasPrevious bool `json:"has_previous"`
}

// EventPage is one page of an event listing.
type EventPage struct {
	Events     []Event    `json:"events"`
	Pagination Pagination `json:"pagination"`
}

// PopularEvent is an active event ranked by tickets sold.
type PopularEvent struct {
	Event
	TotalSold int `json:"total_sold"`
}
