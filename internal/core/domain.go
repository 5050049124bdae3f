package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	FoodAndDining  Category = "Food & Dining"
	Transportation Category = "Transportation"
	Entertainment  Category = "Entertainment"
	Shopping       Category = "Shopping"
	Utilities      Category = "Utilities"
	Health         Category = "Health"
	Other          Category = "Other"
)

// MaxDescriptionLength bounds the optional free-text note on a transaction.
const MaxDescriptionLength = 200

type (
	// Category is one of a closed set of spending categories.
	Category string

	// Transaction is a single spending record. The list of transactions is
	// the whole persisted state of the application.
	Transaction struct {
		ID          string    `json:"id"`
		Amount      Money     `json:"amount"`
		Category    Category  `json:"category"`
		Date        time.Time `json:"date"`
		Description string    `json:"description,omitempty"`
	}

	// Draft is user input for a transaction that has not been persisted yet.
	Draft struct {
		Amount      Money
		Category    Category
		Date        time.Time
		Description string
	}

	// Profile identifies the signed-in user.
	Profile struct {
		Username string `json:"username"`
		Email    string `json:"email,omitempty"`
	}
)

var (
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrInvalidCategory     = errors.New("invalid category")
	ErrInvalidDate         = errors.New("invalid date")
	ErrDescriptionTooLong  = fmt.Errorf("description too long (max %d characters)", MaxDescriptionLength)
	ErrTransactionNotFound = errors.New("transaction not found")
)

var categories = []Category{
	FoodAndDining,
	Transportation,
	Entertainment,
	Shopping,
	Utilities,
	Health,
	Other,
}

// Categories returns every category in display order.
func Categories() []Category {
	out := make([]Category, len(categories))
	copy(out, categories)
	return out
}

// Valid reports whether c belongs to the enumeration.
func (c Category) Valid() bool {
	for _, known := range categories {
		if c == known {
			return true
		}
	}
	return false
}

// ParseCategory matches s exactly against the enumeration.
func ParseCategory(s string) (Category, error) {
	c := Category(strings.TrimSpace(s))
	if !c.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidCategory, s)
	}
	return c, nil
}

func (d Draft) Validate() error {
	if !d.Category.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidCategory, string(d.Category))
	}
	if d.Date.IsZero() {
		return ErrInvalidDate
	}
	if len([]rune(d.Description)) > MaxDescriptionLength {
		return ErrDescriptionTooLong
	}
	return nil
}

// Transaction turns the draft into a record carrying the given id.
func (d Draft) Transaction(id string) Transaction {
	return Transaction{
		ID:          id,
		Amount:      d.Amount,
		Category:    d.Category,
		Date:        d.Date,
		Description: strings.TrimSpace(d.Description),
	}
}

// Accepted layouts for stored dates, most specific first.
var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.000Z07:00",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseDate parses an ISO-8601 timestamp or a bare calendar date (UTC midnight).
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
}

// ParseDateIn is ParseDate with a bare calendar date taken as midnight in loc.
func ParseDateIn(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if loc != nil {
		if t, err := time.ParseInLocation(time.DateOnly, s, loc); err == nil {
			return t, nil
		}
	}
	return ParseDate(s)
}

// UnmarshalJSON accepts any date form ParseDate does, so documents written by
// other clients still load. Categories outside the enumeration are rejected.
func (t *Transaction) UnmarshalJSON(data []byte) error {
	type alias Transaction
	var raw struct {
		alias
		Date string `json:"date"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if !raw.Category.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidCategory, string(raw.Category))
	}
	date, err := ParseDate(raw.Date)
	if err != nil {
		return err
	}
	*t = Transaction(raw.alias)
	t.Date = date
	return nil
}

// DisplayName returns the username or fallback when none is known.
func (p Profile) DisplayName(fallback string) string {
	if name := strings.TrimSpace(p.Username); name != "" {
		return name
	}
	return fallback
}
