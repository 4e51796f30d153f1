package domain

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

const (
	// DefaultQuantity is used when a quantity is omitted or not a number.
	DefaultQuantity = 1

	// MaxQuantity bounds every stored quantity to the 32-bit range of the
	// SQL column and of the gRPC messages.
	MaxQuantity = math.MaxInt32
)

var ErrInvalidQuantity = errors.New("invalid quantity")

type Item struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

// Snapshot is the full list of a user's items, ordered by name.
type Snapshot []Item

func NewSnapshot(items []Item) Snapshot {
	s := make(Snapshot, len(items))
	copy(s, items)
	sort.Slice(s, func(i, j int) bool { return s[i].Name < s[j].Name })
	return s
}

// Filter keeps the items whose name contains query, ignoring case.
func (s Snapshot) Filter(query string) Snapshot {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return s
	}

	out := make(Snapshot, 0, len(s))
	for _, item := range s {
		if strings.Contains(strings.ToLower(item.Name), query) {
			out = append(out, item)
		}
	}
	return out
}

func (s Snapshot) Get(name string) (Item, bool) {
	for _, item := range s {
		if item.Name == name {
			return item, true
		}
	}
	return Item{}, false
}

func (s Snapshot) Names() []string {
	names := make([]string, len(s))
	for i, item := range s {
		names[i] = item.Name
	}
	return names
}

// NormalizeName trims surrounding whitespace. Names stay case-sensitive.
func NormalizeName(name string) string {
	return strings.TrimSpace(name)
}

// ParseQuantity reads a user supplied quantity from its leading integer,
// ignoring what follows it ("3abc" and "3.5" read as 3). Input that does not
// start with a number yields DefaultQuantity. A number out of the quantity
// range is an ErrInvalidQuantity; the sign is checked by the ledger.
func ParseQuantity(raw string) (int, error) {
	raw = strings.TrimSpace(raw)

	end := 0
	if end < len(raw) && (raw[end] == '+' || raw[end] == '-') {
		end++
	}
	digits := end
	for end < len(raw) && raw[end] >= '0' && raw[end] <= '9' {
		end++
	}
	if end == digits {
		return DefaultQuantity, nil
	}

	return CheckQuantity(raw[:end])
}

// CheckQuantity parses an integer literal and rejects values that do not fit
// the quantity range.
func CheckQuantity(literal string) (int, error) {
	n, err := strconv.ParseInt(literal, 10, 64)
	if err != nil || n > MaxQuantity || n < -MaxQuantity {
		return 0, fmt.Errorf("%w: %q", ErrInvalidQuantity, literal)
	}
	return int(n), nil
}
