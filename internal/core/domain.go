package core

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// Kind is the transaction-kind label written with every ledger row.
const Kind = "Despesa"

// MaxDescriptionLen caps free-text descriptions before they reach the ledger.
const MaxDescriptionLen = 80

type (
	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	// Category is one entry of the closed category set. The lowercase Key is
	// both the session value and the callback payload suffix; Label is what
	// lands in the spreadsheet.
	Category struct {
		Key   string
		Label string
		Emoji string
	}

	Expense struct {
		Date        Date
		Description string
		Category    Category
		Amount      Money
	}
)

var (
	ErrInvalidDate     = errors.New("invalid date")
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrNoAmount        = errors.New("no numeric value found")
	ErrUnknownCategory = errors.New("unknown category")
	ErrDescriptionLen  = errors.New("description too long")
)

// categories is the fixed set, in chooser order.
var categories = []Category{
	{Key: "coimbra", Label: "Coimbra", Emoji: "📚"},
	{Key: "comida", Label: "Comida", Emoji: "🍔"},
	{Key: "gaming", Label: "Gaming", Emoji: "🎮"},
	{Key: "moto", Label: "Moto", Emoji: "🏍️"},
	{Key: "compras", Label: "Compras", Emoji: "🛒"},
	{Key: "bebida", Label: "Bebida", Emoji: "🍺"},
	{Key: "outros", Label: "Outros", Emoji: "💰"},
}

// Categories returns the closed category set in display order.
func Categories() []Category {
	out := make([]Category, len(categories))
	copy(out, categories)
	return out
}

// CategoryByKey resolves a lowercase category key.
func CategoryByKey(key string) (Category, bool) {
	for _, c := range categories {
		if c.Key == key {
			return c, true
		}
	}
	return Category{}, false
}

func (c Category) Validate() error {
	if _, ok := CategoryByKey(c.Key); !ok {
		return ErrUnknownCategory
	}
	return nil
}

// NewDate creates a new Date from year, month, day.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// Today returns the current day in the process-local calendar.
func Today() Date {
	now := time.Now()
	return NewDate(now.Year(), int(now.Month()), now.Day())
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// Ledger renders the date the way the spreadsheet expects it: zero-padded
// day/month/year with two-digit components.
func (d Date) Ledger() string {
	return d.Format("02/01/06")
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// Decimal returns the amount as an exact decimal value.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Cents, -2)
}

// String renders the amount with two decimal places, e.g. "3.50".
func (m Money) String() string {
	return m.Decimal().StringFixed(2)
}

// TruncateDescription caps free text at MaxDescriptionLen runes.
func TruncateDescription(s string) string {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) <= MaxDescriptionLen {
		return s
	}
	return string([]rune(s)[:MaxDescriptionLen])
}

func (e Expense) Validate() error {
	if err := e.Date.Validate(); err != nil {
		return err
	}
	if err := e.Category.Validate(); err != nil {
		return err
	}
	if err := e.Amount.Validate(); err != nil {
		return err
	}
	// Description may be empty, but never longer than the ledger allows.
	if utf8.RuneCountInString(e.Description) > MaxDescriptionLen {
		return ErrDescriptionLen
	}
	return nil
}
