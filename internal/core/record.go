package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

const (
	KindFood    Kind = "f"
	KindWorkout Kind = "w"
	KindCardio  Kind = "c"
)

type (
	// Kind is the category of a ledger record.
	Kind string

	// Record is one ledger entry for a day.
	//
	// Done is the single "eaten" marker shared by every kind: consumed for
	// food, completed for workout and cardio.
	Record struct {
		ID       string
		Kind     Kind
		Name     string
		Done     bool
		Calories *float64 // food only
		Quantity *float64 // food only, defaults to 1
	}

	// DayLedger is the ordered list of records stored under one date key.
	// Position is display order; ID is the stable identity.
	DayLedger []Record
)

var (
	ErrInvalidRecord = errors.New("invalid record")
	ErrInvalidKind   = errors.New("invalid record kind")
	ErrEmptyName     = errors.New("empty record name")
)

// ParseKind accepts either the stored letter or the long name.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "f", "food":
		return KindFood, nil
	case "w", "workout":
		return KindWorkout, nil
	case "c", "cardio":
		return KindCardio, nil
	}
	return "", fmt.Errorf("%w %q", ErrInvalidKind, s)
}

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	return k == KindFood || k == KindWorkout || k == KindCardio
}

// String returns the long name of the kind.
func (k Kind) String() string {
	switch k {
	case KindFood:
		return "food"
	case KindWorkout:
		return "workout"
	case KindCardio:
		return "cardio"
	}
	return string(k)
}

// NewFood builds a food record with quantity 1.
func NewFood(name string, calories float64) Record {
	return Record{Kind: KindFood, Name: name, Calories: Float(calories), Quantity: Float(1)}
}

// NewActivity builds a workout or cardio record.
func NewActivity(kind Kind, name string) Record {
	return Record{Kind: kind, Name: name}
}

// Validate checks the record's kind and name.
func (r Record) Validate() error {
	if !r.Kind.Valid() {
		return fmt.Errorf("%w: %w %q", ErrInvalidRecord, ErrInvalidKind, string(r.Kind))
	}
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidRecord, ErrEmptyName)
	}
	if len(r.Name) > 200 {
		return fmt.Errorf("%w: name too long (max 200 characters)", ErrInvalidRecord)
	}
	return nil
}

// Normalize enforces the per-kind field rules: activities carry no calories
// or quantity, and food without a quantity gets 1.
func (r Record) Normalize() Record {
	r.Name = strings.TrimSpace(r.Name)
	if r.Kind != KindFood {
		r.Calories = nil
		r.Quantity = nil
		return r
	}
	if r.Quantity == nil {
		r.Quantity = Float(1)
	}
	return r
}

// EffectiveCalories is calories*quantity for food, else 0.
// Missing calories count as 0 and a missing quantity counts as 1.
func (r Record) EffectiveCalories() float64 {
	if r.Kind != KindFood || r.Calories == nil {
		return 0
	}
	qty := 1.0
	if r.Quantity != nil {
		qty = *r.Quantity
	}
	return *r.Calories * qty
}

// wireRecord is the stored form. Field names follow the original ledger
// layout ({t, n, e, c, q}) so existing data keeps decoding.
type wireRecord struct {
	ID       string          `json:"id,omitempty"`
	Kind     Kind            `json:"t"`
	Name     string          `json:"n"`
	Done     bool            `json:"e"`
	Calories json.RawMessage `json:"c,omitempty"`
	Quantity json.RawMessage `json:"q,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (r Record) MarshalJSON() ([]byte, error) {
	w := wireRecord{ID: r.ID, Kind: r.Kind, Name: r.Name, Done: r.Done}
	var err error
	if r.Calories != nil {
		if w.Calories, err = json.Marshal(*r.Calories); err != nil {
			return nil, err
		}
	}
	if r.Quantity != nil {
		if w.Quantity, err = json.Marshal(*r.Quantity); err != nil {
			return nil, err
		}
	}
	return json.Marshal(w)
}

// UnmarshalJSON implements json.Unmarshaler.
func (r *Record) UnmarshalJSON(data []byte) error {
	var w wireRecord
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	calories, err := decodeNumberLike(w.Calories)
	if err != nil {
		return fmt.Errorf("calories: %w", err)
	}
	quantity, err := decodeNumberLike(w.Quantity)
	if err != nil {
		return fmt.Errorf("quantity: %w", err)
	}
	*r = Record{
		ID:       w.ID,
		Kind:     w.Kind,
		Name:     w.Name,
		Done:     w.Done,
		Calories: calories,
		Quantity: quantity,
	}
	return nil
}

// Clone returns a copy that shares no memory with l.
func (l DayLedger) Clone() DayLedger {
	if l == nil {
		return DayLedger{}
	}
	out := make(DayLedger, len(l))
	for i, r := range l {
		if r.Calories != nil {
			r.Calories = Float(*r.Calories)
		}
		if r.Quantity != nil {
			r.Quantity = Float(*r.Quantity)
		}
		out[i] = r
	}
	return out
}

// IndexOf returns the position of the record with the given ID, or -1.
func (l DayLedger) IndexOf(id string) int {
	if id == "" {
		return -1
	}
	for i, r := range l {
		if r.ID == id {
			return i
		}
	}
	return -1
}

// EncodeLedger serializes a ledger for storage. A nil ledger encodes as [].
func EncodeLedger(l DayLedger) (string, error) {
	if l == nil {
		l = DayLedger{}
	}
	data, err := json.Marshal(l)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// DecodeLedger parses a stored ledger. A JSON null decodes as empty.
func DecodeLedger(s string) (DayLedger, error) {
	var l DayLedger
	if err := json.Unmarshal([]byte(s), &l); err != nil {
		return nil, err
	}
	if l == nil {
		l = DayLedger{}
	}
	return l, nil
}
