package fingerprint

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"hash"
	"strconv"
)

// Op is the logical operation a cached value belongs to.
type Op string

// Cached operations.
const (
	OpList    Op = "list"
	OpSearch  Op = "search"
	OpProduct Op = "product"
)

// ListQuery stands in for the query text of the unfiltered listing.
const ListQuery = "list"

// IsValid checks if the op is one of the supported values.
func (o Op) IsValid() bool {
	return o == OpList || o == OpSearch || o == OpProduct
}

// Fingerprint is a deterministic cache key for one request. The op stays
// readable so keys can be invalidated per operation.
type Fingerprint struct {
	op  Op
	key string
}

// New derives the fingerprint of (op, normalized query, canonical filter, page).
// Each part is length-prefixed before hashing so no two distinct tuples collide
// by concatenation.
func New(op Op, normalizedQuery, filter string, page int) Fingerprint {
	h := sha256.New()
	writeField(h, string(op))
	writeField(h, normalizedQuery)
	writeField(h, filter)
	writeField(h, strconv.Itoa(page))
	return Fingerprint{op: op, key: string(op) + ":" + hex.EncodeToString(h.Sum(nil))}
}

// Op returns the operation.
func (f Fingerprint) Op() Op { return f.op }

// String returns the key without any store prefix.
func (f Fingerprint) String() string { return f.key }

func writeField(h hash.Hash, s string) {
	var n [8]byte
	binary.BigEndian.PutUint64(n[:], uint64(len(s)))
	_, _ = h.Write(n[:])
	_, _ = h.Write([]byte(s))
}
