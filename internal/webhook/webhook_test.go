package webhook

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/event-ticketing-admin/internal/model"
	"github.com/iliyamo/event-ticketing-admin/internal/repository"
)

func TestVerify(t *testing.T) {
	body := []byte(`{"id":1}`)
	sig := Sign(body, "s3cret")

	assert.True(t, Verify(body, sig, "s3cret"))
	assert.True(t, Verify(body, "  "+sig+"\n", "s3cret"))
	assert.False(t, Verify(body, sig, "other"))
	assert.False(t, Verify([]byte(`{"id":2}`), sig, "s3cret"))
	assert.False(t, Verify(body, "", "s3cret"))
	assert.False(t, Verify(body, sig, ""))
	assert.False(t, Verify(nil, sig, "s3cret"))
	assert.False(t, Verify(body, "%%%not-base64", "s3cret"))
	// hex digests are not accepted
	assert.False(t, Verify(body, "7b226964223a317d", "s3cret"))
}

func TestDeliveryID(t *testing.T) {
	body := []byte(`{"id":1}`)
	assert.Equal(t, "abc-123", DeliveryID(" abc-123 ", "orders/create", body))

	a := DeliveryID("", "orders/create", body)
	assert.Equal(t, a, DeliveryID("", "orders/create", body))
	assert.NotEqual(t, a, DeliveryID("", "orders/paid", body))
	assert.NotEqual(t, a, DeliveryID("", "orders/create", []byte(`{"id":2}`)))
	assert.Contains(t, a, "sha256:")
}

func TestParseOrder(t *testing.T) {
	body := []byte(`{
		"id": 820982911946154500,
		"order_number": 1001,
		"email": "",
		"total_price": "100.00",
		"currency": "USD",
		"financial_status": "paid",
		"customer": {"email": "ana@example.com", "first_name": "Ana", "last_name": "Diaz", "phone": null},
		"line_items": [
			{"product_id": 101, "variant_id": 201, "title": "Jazz Night", "quantity": 2, "price": "50.00"},
			{"product_id": "101", "variant_id": "202", "title": "Jazz Night", "quantity": 1, "price": "0.00"},
			{"product_id": null, "variant_id": null, "title": "Tip", "quantity": 1, "price": "5.00"}
		]
	}`)
	n, err := ParseOrder(body)
	require.NoError(t, err)

	assert.Equal(t, "820982911946154500", n.Order.CatalogOrderID)
	assert.Equal(t, "1001", n.Order.OrderNumber)
	assert.Equal(t, "ana@example.com", n.Order.Email)
	assert.Equal(t, model.Money(10000), n.Order.TotalPrice)
	assert.Equal(t, "Ana", n.Attendee.FirstName)
	require.Len(t, n.Order.Items, 3)
	assert.Equal(t, "201", n.Order.Items[0].VariantID)
	assert.Equal(t, model.Money(5000), n.Order.Items[0].Price)
	assert.Equal(t, []string{"101"}, n.ProductIDs())
}

func TestParseOrder_Rejects(t *testing.T) {
	_, err := ParseOrder([]byte(`not json`))
	assert.Error(t, err)
	_, err = ParseOrder([]byte(`{"email":"a@b.c"}`))
	assert.Error(t, err)
}

func TestProductID(t *testing.T) {
	id, err := ProductID([]byte(`{"id": 632910392, "title": "x"}`))
	require.NoError(t, err)
	assert.Equal(t, "632910392", id)
}

func TestTopics(t *testing.T) {
	assert.True(t, IsOrderTopic(TopicOrdersCreate))
	assert.True(t, IsOrderTopic(TopicOrdersPaid))
	assert.False(t, IsOrderTopic(TopicProductsUpdate))
	assert.True(t, IsProductTopic(TopicProductsDelete))
	assert.False(t, IsProductTopic(TopicInventoryLevelsUpdate))
}

func newIntake(t *testing.T) (*Intake, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	return NewIntake(db, repository.NewWebhookRepo(db), nil), mock
}

var recordSQL = regexp.QuoteMeta("INSERT INTO processed_webhooks")

func TestAccept_FirstDeliveryApplies(t *testing.T) {
	in, mock := newIntake(t)
	mock.ExpectBegin()
	mock.ExpectExec(recordSQL).WithArgs("wh-1", "orders/create").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO effects").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	var applied int
	dup, err := in.Accept(context.Background(), Delivery{ID: "wh-1", Topic: "orders/create"}, func(ctx context.Context, tx *sql.Tx) error {
		applied++
		_, err := tx.ExecContext(ctx, "INSERT INTO effects VALUES (1)")
		return err
	})
	require.NoError(t, err)
	assert.False(t, dup)
	assert.Equal(t, 1, applied)
}

func TestAccept_ReplayHasNoEffects(t *testing.T) {
	in, mock := newIntake(t)
	mock.ExpectBegin()
	mock.ExpectExec(recordSQL).WithArgs("wh-1", "orders/create").
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'wh-1'"})
	mock.ExpectRollback()

	dup, err := in.Accept(context.Background(), Delivery{ID: "wh-1", Topic: "orders/create"}, func(context.Context, *sql.Tx) error {
		t.Fatal("apply must not run for a replay")
		return nil
	})
	require.NoError(t, err)
	assert.True(t, dup)
}

func TestAccept_ApplyFailureRollsBackRecord(t *testing.T) {
	in, mock := newIntake(t)
	mock.ExpectBegin()
	mock.ExpectExec(recordSQL).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectRollback()

	boom := errors.New("attendee insert failed")
	dup, err := in.Accept(context.Background(), Delivery{ID: "wh-2", Topic: "orders/paid"}, func(context.Context, *sql.Tx) error {
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.False(t, dup)
}

func TestAccept_RecordFailure(t *testing.T) {
	in, mock := newIntake(t)
	mock.ExpectBegin()
	mock.ExpectExec(recordSQL).WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	_, err := in.Accept(context.Background(), Delivery{ID: "wh-3", Topic: "orders/paid"}, nil)
	assert.ErrorContains(t, err, "connection reset")
}

func TestAccept_RequiresID(t *testing.T) {
	in, _ := newIntake(t)
	_, err := in.Accept(context.Background(), Delivery{Topic: "orders/paid"}, nil)
	assert.Error(t, err)
}
