package srs

import (
	"encoding"
	"encoding/json"
	"fmt"
	"strings"
)

// Outcome is the learner's grade for a single review, ordered worst to best.
type Outcome int

const (
	Fail Outcome = iota + 1 // Not recalled. Resets learning.
	Hard                    // Recalled with significant difficulty.
	Good                    // Recalled with some effort.
	Easy                    // Recalled effortlessly.
)

var (
	outcomeNames  = [...]string{Fail: "Fail", Hard: "Hard", Good: "Good", Easy: "Easy"}
	outcomeByName = map[string]Outcome{
		"fail": Fail,
		"hard": Hard,
		"good": Good,
		"easy": Easy,
	}
)

var (
	_ fmt.Stringer             = Outcome(0)
	_ json.Marshaler           = Outcome(0)
	_ json.Unmarshaler         = (*Outcome)(nil)
	_ encoding.TextMarshaler   = Outcome(0)
	_ encoding.TextUnmarshaler = (*Outcome)(nil)
)

// IsValid reports whether o is one of Fail, Hard, Good or Easy.
func (o Outcome) IsValid() bool {
	return o >= Fail && o <= Easy
}

// Resets reports whether the outcome restarts learning. Only grades
// strictly below Hard do.
func (o Outcome) Resets() bool {
	return o < Hard
}

// String returns the outcome name, or "Outcome(n)" for invalid values.
func (o Outcome) String() string {
	if o.IsValid() {
		return outcomeNames[o]
	}
	return fmt.Sprintf("Outcome(%d)", int(o))
}

// ParseOutcome parses a grade name case-insensitively.
func ParseOutcome(s string) (Outcome, error) {
	o, ok := outcomeByName[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrInvalidOutcome, s)
	}
	return o, nil
}

// MarshalText implements encoding.TextMarshaler.
func (o Outcome) MarshalText() ([]byte, error) {
	if !o.IsValid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidOutcome, int(o))
	}
	return []byte(outcomeNames[o]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (o *Outcome) UnmarshalText(text []byte) error {
	v, err := ParseOutcome(string(text))
	if err != nil {
		return err
	}
	*o = v
	return nil
}

// MarshalJSON implements json.Marshaler. Outcomes serialize as JSON strings.
func (o Outcome) MarshalJSON() ([]byte, error) {
	text, err := o.MarshalText()
	if err != nil {
		return nil, err
	}
	return json.Marshal(string(text))
}

// UnmarshalJSON implements json.Unmarshaler.
func (o *Outcome) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidOutcome, data)
	}
	return o.UnmarshalText([]byte(s))
}
