package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/iliyamo/event-ticketing-admin/internal/model"
)

// OrderRepo stores attendees and the orders reported by webhooks. Writes
// run inside the caller's transaction so they commit together with the
// processed-webhook record.
type OrderRepo struct{ DB *sql.DB }

// NewOrderRepo returns a repository backed by db.
func NewOrderRepo(db *sql.DB) *OrderRepo { return &OrderRepo{DB: db} }

// UpsertAttendeeTx inserts the attendee or refreshes the stored name and
// phone, and returns the row id either way.
func (r *OrderRepo) UpsertAttendeeTx(ctx context.Context, tx *sql.Tx, a model.Attendee) (uint64, error) {
	const q = `INSERT INTO attendees (email, first_name, last_name, phone) VALUES (?,?,?,?)
ON DUPLICATE KEY UPDATE
  first_name = IF(VALUES(first_name) = '', first_name, VALUES(first_name)),
  last_name  = IF(VALUES(last_name) = '', last_name, VALUES(last_name)),
  phone      = IF(VALUES(phone) = '', phone, VALUES(phone)),
  id = LAST_INSERT_ID(id)`
	res, err := tx.ExecContext(ctx, q, normalizeEmail(a.Email), a.FirstName, a.LastName, a.Phone)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// InsertOrderTx stores the order and its line items. An order that is
// already stored only has its financial status refreshed; its items are
// left untouched. It reports whether the order was new.
func (r *OrderRepo) InsertOrderTx(ctx context.Context, tx *sql.Tx, o *model.Order) (bool, error) {
	const q = `INSERT INTO orders (catalog_order_id, order_number, attendee_id, email, total_cents, currency, financial_status)
VALUES (?,?,?,?,?,?,?)
ON DUPLICATE KEY UPDATE financial_status = VALUES(financial_status), id = LAST_INSERT_ID(id)`
	var attendee any
	if o.AttendeeID != 0 {
		attendee = o.AttendeeID
	}
	res, err := tx.ExecContext(ctx, q,
		o.CatalogOrderID, o.OrderNumber, attendee, normalizeEmail(o.Email),
		int64(o.TotalPrice), o.Currency, o.FinancialStatus)
	if err != nil {
		return false, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return false, err
	}
	o.ID = uint64(id)
	// 1 = inserted, 2 = updated, 0 = unchanged
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if n != 1 {
		return false, nil
	}

	const qi = `INSERT INTO order_items (order_id, product_id, variant_id, title, quantity, price_cents) VALUES (?,?,?,?,?,?)`
	for i := range o.Items {
		it := &o.Items[i]
		res, err := tx.ExecContext(ctx, qi, o.ID, it.ProductID, it.VariantID, it.Title, it.Quantity, int64(it.Price))
		if err != nil {
			return false, err
		}
		itemID, err := res.LastInsertId()
		if err != nil {
			return false, err
		}
		it.ID = uint64(itemID)
		it.OrderID = o.ID
	}
	return true, nil
}

// List returns orders newest first with their items. limit defaults to 20
// and is capped at 100; a negative offset is treated as zero. Items are
// loaded with a single IN query for the page rather than one query per
// order.
func (r *OrderRepo) List(ctx context.Context, limit, offset int) ([]model.Order, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := r.DB.QueryContext(ctx, `SELECT id, catalog_order_id, order_number, COALESCE(attendee_id, 0), email,
  total_cents, currency, financial_status, created_at
FROM orders ORDER BY id DESC LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	orders := []model.Order{}
	index := map[uint64]int{}
	for rows.Next() {
		var (
			o     model.Order
			cents int64
		)
		if err := rows.Scan(&o.ID, &o.CatalogOrderID, &o.OrderNumber, &o.AttendeeID, &o.Email,
			&cents, &o.Currency, &o.FinancialStatus, &o.CreatedAt); err != nil {
			return nil, err
		}
		o.TotalPrice = model.Money(cents)
		o.Items = []model.OrderItem{}
		index[o.ID] = len(orders)
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return orders, nil
	}

	ids := make([]any, 0, len(orders))
	for _, o := range orders {
		ids = append(ids, o.ID)
	}
	items, err := r.DB.QueryContext(ctx,
		`SELECT id, order_id, product_id, variant_id, title, quantity, price_cents
FROM order_items WHERE order_id IN (`+placeholders(len(ids))+`) ORDER BY id`, ids...)
	if err != nil {
		return nil, err
	}
	defer items.Close()
	for items.Next() {
		var (
			it    model.OrderItem
			cents int64
		)
		if err := items.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.VariantID, &it.Title, &it.Quantity, &cents); err != nil {
			return nil, err
		}
		it.Price = model.Money(cents)
		if i, ok := index[it.OrderID]; ok {
			orders[i].Items = append(orders[i].Items, it)
		}
	}
	return orders, items.Err()
}

// placeholders returns n comma-separated "?" markers for an IN clause.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat("?,", n-1) + "?"
}
