package cart

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

func init() {
	// storefront clients exchange prices as bare JSON numbers
	decimal.MarshalJSONWithoutQuotes = true
}

const (
	MinQuantity = 1
	MaxQuantity = 99
)

type SelectedImage struct {
	Color     string `json:"color"`
	ColorCode string `json:"colorCode"`
	Image     string `json:"image"`
}

// Line is one product selection. At most one line per product id lives in a
// cart at a time.
type Line struct {
	ProductID     string          `json:"id"`
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	Category      string          `json:"category"`
	Brand         string          `json:"brand"`
	SelectedImage SelectedImage   `json:"selectedImg"`
	Price         decimal.Decimal `json:"price"`
	Quantity      int             `json:"quantity"`
}

// Outcome tells the caller what a mutation did. Presentation (toasts etc.)
// is decided by the caller, never here. Mutations that return a non-nil
// error report OutcomeError, the zero value.
type Outcome int

const (
	OutcomeError Outcome = iota
	OutcomeOK
	OutcomeLimitReached
	OutcomeNotFound
)

var ErrInvalidLine = fmt.Errorf("cart line has invalid price or quantity")

// Store holds the client-side cart and mirrors every successful mutation to
// durable storage before returning. It is meant for single-session use and
// is not safe for concurrent callers.
type Store struct {
	storage Storage
	lines   []Line

	totalQuantity int
	totalAmount   decimal.Decimal
}

// NewStore hydrates a cart from storage. Absent stored data yields an empty
// cart; unreadable data is an error.
func NewStore(storage Storage) (*Store, error) {
	s := &Store{
		storage:     storage,
		totalAmount: decimal.Zero,
	}

	data, ok, err := storage.Load()
	if err != nil {
		return nil, fmt.Errorf("load cart from storage: %w", err)
	}
	if ok {
		var lines []Line
		if err := json.Unmarshal(data, &lines); err != nil {
			return nil, fmt.Errorf("decode stored cart: %w", err)
		}
		// stored data is as untrusted as any other client input
		seen := make(map[string]bool, len(lines))
		for _, l := range lines {
			if err := validateLine(l); err != nil {
				return nil, fmt.Errorf("stored cart: %w", err)
			}
			if seen[l.ProductID] {
				return nil, fmt.Errorf("stored cart: %w: duplicate product %s", ErrInvalidLine, l.ProductID)
			}
			seen[l.ProductID] = true
		}
		s.lines = lines
	}

	s.recomputeTotals()
	return s, nil
}

// AddLine puts a product in the cart. Adding a product that is already
// present merges the quantities; a merge that would exceed MaxQuantity is
// rejected with OutcomeLimitReached and no mutation.
func (s *Store) AddLine(line Line) (Outcome, error) {
	if err := validateLine(line); err != nil {
		return OutcomeError, err
	}

	updated := cloneLines(s.lines)
	merged := false
	for i := range updated {
		if updated[i].ProductID == line.ProductID {
			q := updated[i].Quantity + line.Quantity
			if q > MaxQuantity {
				return OutcomeLimitReached, nil
			}
			updated[i].Quantity = q
			merged = true
			break
		}
	}
	if !merged {
		updated = append(updated, line)
	}

	if err := s.commit(updated); err != nil {
		return OutcomeError, err
	}
	return OutcomeOK, nil
}

// RemoveLine drops the line for the product id. Removing an absent product
// is not an error.
func (s *Store) RemoveLine(productID string) (Outcome, error) {
	idx := s.indexOf(productID)
	if idx < 0 {
		return OutcomeNotFound, nil
	}

	updated := cloneLines(s.lines)
	updated = append(updated[:idx], updated[idx+1:]...)

	if err := s.commit(updated); err != nil {
		return OutcomeError, err
	}
	return OutcomeOK, nil
}

func (s *Store) IncreaseQuantity(productID string) (Outcome, error) {
	idx := s.indexOf(productID)
	if idx < 0 {
		return OutcomeNotFound, nil
	}
	if s.lines[idx].Quantity >= MaxQuantity {
		return OutcomeLimitReached, nil
	}

	updated := cloneLines(s.lines)
	updated[idx].Quantity++

	if err := s.commit(updated); err != nil {
		return OutcomeError, err
	}
	return OutcomeOK, nil
}

func (s *Store) DecreaseQuantity(productID string) (Outcome, error) {
	idx := s.indexOf(productID)
	if idx < 0 {
		return OutcomeNotFound, nil
	}
	if s.lines[idx].Quantity <= MinQuantity {
		return OutcomeLimitReached, nil
	}

	updated := cloneLines(s.lines)
	updated[idx].Quantity--

	if err := s.commit(updated); err != nil {
		return OutcomeError, err
	}
	return OutcomeOK, nil
}

// Lines returns a copy of the current line sequence.
func (s *Store) Lines() []Line {
	return cloneLines(s.lines)
}

func (s *Store) TotalQuantity() int {
	return s.totalQuantity
}

func (s *Store) TotalAmount() decimal.Decimal {
	return s.totalAmount
}

// commit persists the candidate line sequence, then swaps it in and
// recomputes totals. A failed write leaves the in-memory cart untouched so
// memory and storage never diverge.
func (s *Store) commit(updated []Line) error {
	data, err := json.Marshal(updated)
	if err != nil {
		return fmt.Errorf("encode cart: %w", err)
	}
	if err := s.storage.Save(data); err != nil {
		return fmt.Errorf("persist cart: %w", err)
	}

	s.lines = updated
	s.recomputeTotals()
	return nil
}

func (s *Store) recomputeTotals() {
	qty := 0
	amount := decimal.Zero
	for _, l := range s.lines {
		qty += l.Quantity
		amount = amount.Add(l.Price.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	s.totalQuantity = qty
	s.totalAmount = amount
}

func (s *Store) indexOf(productID string) int {
	for i, l := range s.lines {
		if l.ProductID == productID {
			return i
		}
	}
	return -1
}

func validateLine(line Line) error {
	if line.ProductID == "" {
		return fmt.Errorf("%w: missing product id", ErrInvalidLine)
	}
	if line.Price.IsNegative() {
		return fmt.Errorf("%w: negative price", ErrInvalidLine)
	}
	if line.Quantity < MinQuantity || line.Quantity > MaxQuantity {
		return fmt.Errorf("%w: quantity %d outside [%d, %d]", ErrInvalidLine, line.Quantity, MinQuantity, MaxQuantity)
	}
	return nil
}

func cloneLines(lines []Line) []Line {
	out := make([]Line, len(lines))
	copy(out, lines)
	return out
}
