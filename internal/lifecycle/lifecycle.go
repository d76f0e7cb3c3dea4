// Package lifecycle holds the rules for event status changes, featuring,
// deletion and ticket field locking. Checks are pure; callers pass in a
// freshly reconciled view of the tickets.
package lifecycle

import (
	"errors"
	"fmt"

	"github.com/iliyamo/event-ticketing-admin/internal/inventory"
	"github.com/iliyamo/event-ticketing-admin/internal/model"
)

// Violation is a rejected operation. Rule names the broken rule and
// Message tells the caller what to do instead.
type Violation struct {
	Rule    string
	Field   string
	Message string
}

func (v *Violation) Error() string { return v.Message }

// ErrViolation matches any *Violation with errors.Is.
var ErrViolation = errors.New("lifecycle violation")

func (v *Violation) Is(target error) bool { return target == ErrViolation }

const (
	RuleTransition   = "illegal_transition"
	RulePublish      = "publish_precondition"
	RuleFeature      = "feature_requires_active"
	RuleEventDelete  = "event_has_sales"
	RuleFieldLocked  = "field_locked"
	RuleCapacity     = "capacity_below_sold"
	RuleTicketDelete = "ticket_has_sales"
)

type edge struct{ from, to model.EventStatus }

// transitions lists the only allowed status changes. Publishing edges
// also require sellable tickets.
var transitions = map[edge]bool{
	{model.EventDraft, model.EventActive}:    true,
	{model.EventActive, model.EventArchived}: true,
	{model.EventArchived, model.EventActive}: true,
}

// guidance is the required action reported for each forbidden pair.
var guidance = map[edge]string{
	{model.EventDraft, model.EventDraft}:       "event is already draft",
	{model.EventActive, model.EventActive}:     "event is already active",
	{model.EventArchived, model.EventArchived}: "event is already archived",
	{model.EventActive, model.EventDraft}:      "an active event cannot return to draft; archive it instead",
	{model.EventArchived, model.EventDraft}:    "an archived event cannot return to draft; reactivate it instead",
	{model.EventDraft, model.EventArchived}:    "a draft event must be published (set active) before it can be archived",
}

func normalize(s model.EventStatus) model.EventStatus { return s.Canonical() }

// CheckTransition validates a status change given the event's current
// tickets. Identity transitions are rejected like any other forbidden pair.
func CheckTransition(from, to model.EventStatus, tickets []model.Ticket) error {
	from, to = normalize(from), normalize(to)
	if !from.Valid() || !to.Valid() {
		return &Violation{
			Rule:    RuleTransition,
			Field:   "status",
			Message: fmt.Sprintf("unknown status transition %q -> %q", from, to),
		}
	}
	e := edge{from, to}
	if !transitions[e] {
		return &Violation{
			Rule:    RuleTransition,
			Field:   "status",
			Message: fmt.Sprintf("cannot change status from %s to %s: %s", from, to, guidance[e]),
		}
	}
	if to == model.EventActive {
		return checkPublishable(tickets)
	}
	return nil
}

func checkPublishable(tickets []model.Ticket) error {
	if len(tickets) == 0 {
		return &Violation{
			Rule:    RulePublish,
			Field:   "status",
			Message: "cannot publish an event without tickets; add at least one ticket first",
		}
	}
	if !inventory.HasSellable(tickets) {
		return &Violation{
			Rule:    RulePublish,
			Field:   "status",
			Message: "cannot publish an event with no available tickets; increase ticket inventory first",
		}
	}
	return nil
}

// CheckFeature validates setting is_featured. Un-featuring always passes.
func CheckFeature(status model.EventStatus, featured bool) error {
	if !featured || status == model.EventActive {
		return nil
	}
	return &Violation{
		Rule:    RuleFeature,
		Field:   "is_featured",
		Message: fmt.Sprintf("only active events can be featured (event is %s); publish it first", normalize(status)),
	}
}

// CheckEventDelete refuses deletion while any ticket has sold.
func CheckEventDelete(tickets []model.Ticket) error {
	if sold := inventory.TotalSold(tickets); sold > 0 {
		return &Violation{
			Rule:    RuleEventDelete,
			Message: fmt.Sprintf("cannot delete an event with %d tickets sold; archive it instead", sold),
		}
	}
	return nil
}

// CheckTicketDelete refuses deletion once the ticket has sold.
func CheckTicketDelete(current model.Ticket) error {
	if current.Sold > 0 {
		return &Violation{
			Rule:    RuleTicketDelete,
			Message: fmt.Sprintf("cannot delete a ticket with %d sold; hide it instead", current.Sold),
		}
	}
	return nil
}

// CheckTicketUpdate validates a partial update against a freshly
// reconciled ticket. Once anything has sold, descriptive fields are frozen
// and capacity cannot drop below sold; price and visibility stay free.
// A locked field sent with its current value is not a change.
func CheckTicketUpdate(current model.Ticket, u model.TicketUpdate) error {
	if u.InventoryQuantity != nil && *u.InventoryQuantity < current.Sold {
		return &Violation{
			Rule:    RuleCapacity,
			Field:   "inventory_quantity",
			Message: fmt.Sprintf("inventory_quantity %d is below the %d tickets already sold", *u.InventoryQuantity, current.Sold),
		}
	}
	if current.Sold == 0 {
		return nil
	}
	locked := lockedChanges(current, u)
	if len(locked) == 0 {
		return nil
	}
	return &Violation{
		Rule:    RuleFieldLocked,
		Field:   locked[0],
		Message: fmt.Sprintf("cannot change %s: ticket has %d sold", locked[0], current.Sold),
	}
}

// lockedChanges lists the locked fields the update would actually change,
// in a stable order.
func lockedChanges(cur model.Ticket, u model.TicketUpdate) []string {
	var out []string
	if u.Name != nil && *u.Name != cur.Name {
		out = append(out, "ticket_name")
	}
	if u.Type != nil && *u.Type != cur.Type {
		out = append(out, "ticket_type")
	}
	if u.Description != nil && *u.Description != cur.Description {
		out = append(out, "description")
	}
	if u.Features != nil && !equalStrings(*u.Features, cur.Features) {
		out = append(out, "features")
	}
	if u.CompareAtPrice != nil && (cur.CompareAtPrice == nil || *u.CompareAtPrice != *cur.CompareAtPrice) {
		out = append(out, "compare_at_price")
	}
	if u.MaxPerOrder != nil && *u.MaxPerOrder != cur.MaxPerOrder {
		out = append(out, "max_per_order")
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
