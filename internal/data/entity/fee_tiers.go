package entity

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// FeeTiers maps a day-range label to the fraction of the booking value kept
// as a cancellation fee. Labels take three forms:
//
//	">N"   days strictly greater than N
//	"A-B"  days >= A (the upper bound is implied by the next tier up)
//	"<N"   everything below the other tiers
//
// Tiers are tried from the highest lower bound down and the first match wins,
// so with the default schedule exactly 90 days lands in "30-90".
type FeeTiers map[string]float64

var ErrNoMatchingTier = errors.New("no cancellation fee tier matches")

// DefaultFeeTiers applies when a listing carries no schedule of its own.
func DefaultFeeTiers() FeeTiers {
	return FeeTiers{
		">90":   0.0,
		"30-90": 0.10,
		"7-30":  0.25,
		"<7":    0.50,
	}
}

type feeTier struct {
	label  string
	lower  int
	strict bool
	floor  bool
	rate   float64
}

func (t feeTier) matches(days int) bool {
	switch {
	case t.floor:
		return true
	case t.strict:
		return days > t.lower
	default:
		return days >= t.lower
	}
}

func parseTierLabel(label string) (feeTier, error) {
	l := strings.ReplaceAll(label, " ", "")
	switch {
	case strings.HasPrefix(l, ">"):
		n, err := strconv.Atoi(l[1:])
		if err != nil {
			return feeTier{}, fmt.Errorf("invalid tier label %q: %w", label, err)
		}
		return feeTier{label: label, lower: n, strict: true}, nil
	case strings.HasPrefix(l, "<"):
		if _, err := strconv.Atoi(l[1:]); err != nil {
			return feeTier{}, fmt.Errorf("invalid tier label %q: %w", label, err)
		}
		return feeTier{label: label, floor: true}, nil
	case strings.Contains(l, "-"):
		parts := strings.SplitN(l, "-", 2)
		lo, err := strconv.Atoi(parts[0])
		if err != nil {
			return feeTier{}, fmt.Errorf("invalid tier label %q: %w", label, err)
		}
		hi, err := strconv.Atoi(parts[1])
		if err != nil {
			return feeTier{}, fmt.Errorf("invalid tier label %q: %w", label, err)
		}
		if hi < lo {
			return feeTier{}, fmt.Errorf("invalid tier label %q: upper bound below lower bound", label)
		}
		return feeTier{label: label, lower: lo}, nil
	default:
		return feeTier{}, fmt.Errorf("invalid tier label %q", label)
	}
}

func (f FeeTiers) ordered() ([]feeTier, error) {
	tiers := make([]feeTier, 0, len(f))
	for label, rate := range f {
		if rate < 0 || rate > 1 {
			return nil, fmt.Errorf("tier %q rate %v out of range [0,1]", label, rate)
		}
		t, err := parseTierLabel(label)
		if err != nil {
			return nil, err
		}
		t.rate = rate
		tiers = append(tiers, t)
	}

	sort.Slice(tiers, func(i, j int) bool {
		a, b := tiers[i], tiers[j]
		if a.floor != b.floor {
			return !a.floor
		}
		if a.lower != b.lower {
			return a.lower > b.lower
		}
		if a.strict != b.strict {
			return a.strict
		}
		return a.label < b.label
	})
	return tiers, nil
}

// Validate checks every label and rate.
func (f FeeTiers) Validate() error {
	_, err := f.ordered()
	return err
}

// Select returns the label and rate of the tier covering days.
func (f FeeTiers) Select(days int) (string, float64, error) {
	tiers, err := f.ordered()
	if err != nil {
		return "", 0, err
	}
	for _, t := range tiers {
		if t.matches(days) {
			return t.label, t.rate, nil
		}
	}
	return "", 0, fmt.Errorf("%w %d days", ErrNoMatchingTier, days)
}
