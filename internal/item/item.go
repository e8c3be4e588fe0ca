// Package item describes learnable units as seen by the scheduler. Item
// content lives elsewhere; the scheduler only needs identity, CEFR level and
// skill tag.
package item

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned by resolvers when an item id is unknown.
var ErrNotFound = errors.New("item: not found")

// Level is a CEFR proficiency tier. Levels are ordered A1 < A2 < B1 < B2.
type Level int

const (
	A1 Level = iota + 1
	A2
	B1
	B2
)

var levelNames = [...]string{A1: "A1", A2: "A2", B1: "B1", B2: "B2"}

// AllLevels returns the supported levels in ascending order.
func AllLevels() []Level {
	return []Level{A1, A2, B1, B2}
}

// IsValid reports whether l is a supported level.
func (l Level) IsValid() bool {
	return l >= A1 && l <= B2
}

func (l Level) String() string {
	if l.IsValid() {
		return levelNames[l]
	}
	return fmt.Sprintf("Level(%d)", int(l))
}

// ParseLevel parses "A1", "a2", etc.
func ParseLevel(s string) (Level, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	for _, l := range AllLevels() {
		if levelNames[l] == s {
			return l, nil
		}
	}
	return 0, fmt.Errorf("item: unknown CEFR level %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (l Level) MarshalText() ([]byte, error) {
	if !l.IsValid() {
		return nil, fmt.Errorf("item: invalid level %d", int(l))
	}
	return []byte(levelNames[l]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (l *Level) UnmarshalText(text []byte) error {
	v, err := ParseLevel(string(text))
	if err != nil {
		return err
	}
	*l = v
	return nil
}

// Item is an immutable learnable unit.
type Item struct {
	ID    string `json:"id" yaml:"id"`
	Level Level  `json:"level" yaml:"level"`
	Skill string `json:"skill" yaml:"skill"`
}

// Resolver looks items up by id. It is a read-only dependency.
type Resolver interface {
	// Resolve returns the item or an error wrapping ErrNotFound.
	Resolve(ctx context.Context, id string) (Item, error)
}

// Catalog is a Resolver that can also enumerate items, which the due
// queue uses to pick never-seen items.
type Catalog interface {
	Resolver

	// Items returns every item ordered by level, then id.
	Items(ctx context.Context) ([]Item, error)
}
