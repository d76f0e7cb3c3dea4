package cache

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"strconv"
	"time"

	"github.com/iliyamo/event-ticketing-admin/internal/catalog"
)

// Key families. The names are part of the operational surface: they are
// what an operator sees in Redis.
const (
	FullPrefix    = "event:full:"
	TicketsPrefix = "event:tickets:"
	ListPrefix    = "event:list:"
	PopularPrefix = "event:popular:"
)

// TTLs per key family.
type TTLs struct {
	Full    time.Duration
	Tickets time.Duration
	List    time.Duration
	Popular time.Duration
}

func DefaultTTLs() TTLs {
	return TTLs{
		Full:    600 * time.Second,
		Tickets: 600 * time.Second,
		List:    300 * time.Second,
		Popular: 600 * time.Second,
	}
}

// FullKey is the key of an event's full projection.
func FullKey(eventID string) string { return FullPrefix + catalog.ShortID(eventID) }

// TicketsKey is the key of an event's ticket list.
func TicketsKey(eventID string) string { return TicketsPrefix + catalog.ShortID(eventID) }

// ListKey hashes listing parameters into a key. params must marshal
// deterministically (a struct, not a map with unstable ordering).
func ListKey(params any) string {
	b, err := json.Marshal(params)
	if err != nil {
		b = []byte("invalid")
	}
	sum := sha1.Sum(b)
	return ListPrefix + hex.EncodeToString(sum[:])
}

// PopularKey is the key of the popular ranking for a limit.
func PopularKey(limit int) string { return PopularPrefix + strconv.Itoa(limit) }

var families = []string{FullPrefix, TicketsPrefix, ListPrefix, PopularPrefix}
