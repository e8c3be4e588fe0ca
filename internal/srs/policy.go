package srs

import "fmt"

// Policy holds the tunable constants of the scheduling policy.
// Field tags match the keys accepted in the YAML policy file.
type Policy struct {
	InitialEase     float64 `yaml:"initial_ease" json:"initial_ease"`
	MinEase         float64 `yaml:"min_ease" json:"min_ease"`
	FailEasePenalty float64 `yaml:"fail_ease_penalty" json:"fail_ease_penalty"`
	HardEasePenalty float64 `yaml:"hard_ease_penalty" json:"hard_ease_penalty"`
	EasyEaseBonus   float64 `yaml:"easy_ease_bonus" json:"easy_ease_bonus"`
	HardMultiplier  float64 `yaml:"hard_multiplier" json:"hard_multiplier"`
	EasyMultiplier  float64 `yaml:"easy_multiplier" json:"easy_multiplier"`
	MaxIntervalDays int     `yaml:"max_interval_days" json:"max_interval_days"`

	// GraduationThreshold is the number of consecutive successes after
	// which an item is reported in the Review phase.
	GraduationThreshold int `yaml:"graduation_threshold" json:"graduation_threshold"`

	// NewPerDue is the interleave ratio of the due queue: one new item is
	// served after every NewPerDue due items.
	NewPerDue int `yaml:"new_per_due" json:"new_per_due"`

	// NewItemsPerDay caps how many never-seen items a learner is
	// introduced to per calendar day (UTC).
	NewItemsPerDay int `yaml:"new_items_per_day" json:"new_items_per_day"`
}

// DefaultPolicy returns the default SM-2 family policy.
func DefaultPolicy() Policy {
	return Policy{
		InitialEase:         2.5,
		MinEase:             1.3,
		FailEasePenalty:     0.2,
		HardEasePenalty:     0.15,
		EasyEaseBonus:       0.15,
		HardMultiplier:      1.2,
		EasyMultiplier:      1.3,
		MaxIntervalDays:     36500,
		GraduationThreshold: 2,
		NewPerDue:           4,
		NewItemsPerDay:      20,
	}
}

// Validate checks every constant is within a usable range.
func (p Policy) Validate() error {
	switch {
	case p.MinEase <= 0:
		return fmt.Errorf("%w: min_ease %v must be positive", ErrInvalidPolicy, p.MinEase)
	case p.InitialEase < p.MinEase:
		return fmt.Errorf("%w: initial_ease %v below min_ease %v", ErrInvalidPolicy, p.InitialEase, p.MinEase)
	case p.FailEasePenalty < 0:
		return fmt.Errorf("%w: fail_ease_penalty %v is negative", ErrInvalidPolicy, p.FailEasePenalty)
	case p.HardEasePenalty < 0:
		return fmt.Errorf("%w: hard_ease_penalty %v is negative", ErrInvalidPolicy, p.HardEasePenalty)
	case p.EasyEaseBonus < 0:
		return fmt.Errorf("%w: easy_ease_bonus %v is negative", ErrInvalidPolicy, p.EasyEaseBonus)
	case p.HardMultiplier <= 0:
		return fmt.Errorf("%w: hard_multiplier %v must be positive", ErrInvalidPolicy, p.HardMultiplier)
	case p.EasyMultiplier <= 0:
		return fmt.Errorf("%w: easy_multiplier %v must be positive", ErrInvalidPolicy, p.EasyMultiplier)
	case p.MaxIntervalDays < 1:
		return fmt.Errorf("%w: max_interval_days %d must be at least 1", ErrInvalidPolicy, p.MaxIntervalDays)
	case p.GraduationThreshold < 1:
		return fmt.Errorf("%w: graduation_threshold %d must be at least 1", ErrInvalidPolicy, p.GraduationThreshold)
	case p.NewPerDue < 1:
		return fmt.Errorf("%w: new_per_due %d must be at least 1", ErrInvalidPolicy, p.NewPerDue)
	case p.NewItemsPerDay < 0:
		return fmt.Errorf("%w: new_items_per_day %d is negative", ErrInvalidPolicy, p.NewItemsPerDay)
	}
	return nil
}
