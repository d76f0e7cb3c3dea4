package service

import (
	"strings"
	"unicode/utf8"

	"github.com/iliyamo/event-ticketing-admin/internal/lifecycle"
	"github.com/iliyamo/event-ticketing-admin/internal/model"
)

const maxTitleLen = 255

func validateTitle(field, s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return invalidf("%s is required", field)
	}
	if utf8.RuneCountInString(s) > maxTitleLen {
		return invalidf("%s must be at most %d characters", field, maxTitleLen)
	}
	return nil
}

func validateCategory(c model.Category) error {
	if c != "" && !c.Valid() {
		return invalidf("unknown category %q", c)
	}
	return nil
}

func validateEventCreate(in *model.EventCreate) error {
	in.Title = strings.TrimSpace(in.Title)
	if err := validateTitle("title", in.Title); err != nil {
		return err
	}
	if err := validateCategory(in.Category); err != nil {
		return err
	}
	if in.Status != "" && in.Status != model.EventDraft {
		return &lifecycle.Violation{
			Rule:    lifecycle.RuleTransition,
			Field:   "status",
			Message: "new events start as draft; add tickets and publish it instead",
		}
	}
	return nil
}

func validateEventUpdate(u *model.EventUpdate) error {
	if u.Title != nil {
		*u.Title = strings.TrimSpace(*u.Title)
		if err := validateTitle("title", *u.Title); err != nil {
			return err
		}
	}
	if u.Category != nil {
		if err := validateCategory(*u.Category); err != nil {
			return err
		}
	}
	if u.Status != nil && !u.Status.Valid() {
		return invalidf("unknown status %q", *u.Status)
	}
	return nil
}

func validateMoney(field string, m *model.Money) error {
	if m != nil && *m < 0 {
		return invalidf("%s must not be negative", field)
	}
	return nil
}

func validateMaxPerOrder(n int) error {
	if n < model.MinMaxPerOrder || n > model.MaxMaxPerOrder {
		return invalidf("max_per_order must be between %d and %d", model.MinMaxPerOrder, model.MaxMaxPerOrder)
	}
	return nil
}

// validateTicketCreate checks the payload and fills type and max-per-order
// defaults.
func validateTicketCreate(in *model.TicketCreate) error {
	in.Name = strings.TrimSpace(in.Name)
	if err := validateTitle("ticket_name", in.Name); err != nil {
		return err
	}
	if in.Type == "" {
		in.Type = model.TicketRegular
	}
	if !in.Type.Valid() {
		return invalidf("unknown ticket_type %q", in.Type)
	}
	if err := validateMoney("price", &in.Price); err != nil {
		return err
	}
	if err := validateMoney("compare_at_price", in.CompareAtPrice); err != nil {
		return err
	}
	if in.InventoryQuantity < 0 {
		return invalidf("inventory_quantity must not be negative")
	}
	if in.MaxPerOrder == 0 {
		in.MaxPerOrder = model.DefaultMaxPerOrder
	}
	return validateMaxPerOrder(in.MaxPerOrder)
}

func validateTicketUpdate(u *model.TicketUpdate) error {
	if u.Name != nil {
		*u.Name = strings.TrimSpace(*u.Name)
		if err := validateTitle("ticket_name", *u.Name); err != nil {
			return err
		}
	}
	if u.Type != nil && !u.Type.Valid() {
		return invalidf("unknown ticket_type %q", *u.Type)
	}
	if err := validateMoney("price", u.Price); err != nil {
		return err
	}
	if err := validateMoney("compare_at_price", u.CompareAtPrice); err != nil {
		return err
	}
	if u.InventoryQuantity != nil && *u.InventoryQuantity < 0 {
		return invalidf("inventory_quantity must not be negative")
	}
	if u.MaxPerOrder != nil {
		return validateMaxPerOrder(*u.MaxPerOrder)
	}
	return nil
}
