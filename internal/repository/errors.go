// Package repository holds the MySQL access for the local tables: admin
// users, refresh tokens, processed webhooks and orders. The
// sentinel errors below let higher layers tell failure modes apart.
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

// ErrNotFound is returned when a lookup matches no row. Handlers translate
// it into an HTTP 404 response.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when a write cannot proceed because of existing
// state, such as registering an email that already exists.
var ErrConflict = errors.New("conflict")

// ErrDuplicate is returned when an insert hits a unique key. The webhook
// intake relies on it to detect replays.
var ErrDuplicate = errors.New("duplicate key")

const mysqlDuplicateEntry = 1062

func isDuplicate(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == mysqlDuplicateEntry
}
