package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// Threshold gates a one-time achievement notification: the achievement
// with the given ID is completed once a counter reaches MinScore.
type Threshold struct {
	ID       string
	MinScore int64
}

// Thresholds is a validated achievement table, ordered by ascending MinScore.
type Thresholds struct {
	thresholds []Threshold
}

func NewThresholds(thresholds ...Threshold) (Thresholds, error) {
	if len(thresholds) == 0 {
		return Thresholds{}, fmt.Errorf("%w: empty threshold table", ErrInvalidThresholds)
	}

	seen := make(map[string]struct{}, len(thresholds))
	for i, threshold := range thresholds {
		if threshold.ID == "" {
			return Thresholds{}, fmt.Errorf("%w: threshold %d has empty id", ErrInvalidThresholds, i)
		}
		if _, ok := seen[threshold.ID]; ok {
			return Thresholds{}, fmt.Errorf("%w: duplicate threshold id %s", ErrInvalidThresholds, threshold.ID)
		}
		seen[threshold.ID] = struct{}{}

		if threshold.MinScore < 1 {
			return Thresholds{}, fmt.Errorf("%w: threshold %s has min score %d, must be at least 1", ErrInvalidThresholds, threshold.ID, threshold.MinScore)
		}
		if i > 0 && threshold.MinScore <= thresholds[i-1].MinScore {
			return Thresholds{}, fmt.Errorf(
				"%w: threshold %s has min score %d, not above %s at %d",
				ErrInvalidThresholds,
				threshold.ID,
				threshold.MinScore,
				thresholds[i-1].ID,
				thresholds[i-1].MinScore,
			)
		}
	}

	copied := make([]Threshold, len(thresholds))
	copy(copied, thresholds)

	return Thresholds{thresholds: copied}, nil
}

// ParseThresholds parses a table from a "id:minScore,id:minScore,..." string.
func ParseThresholds(raw string) (Thresholds, error) {
	entries := strings.Split(raw, ",")

	thresholds := make([]Threshold, 0, len(entries))
	for _, entry := range entries {
		id, rawMinScore, found := strings.Cut(strings.TrimSpace(entry), ":")
		if !found {
			return Thresholds{}, fmt.Errorf("%w: entry %q is not id:minScore", ErrInvalidThresholds, entry)
		}

		minScore, err := strconv.ParseInt(rawMinScore, 10, 64)
		if err != nil {
			return Thresholds{}, fmt.Errorf("%w: entry %q has invalid min score: %s", ErrInvalidThresholds, entry, err.Error())
		}

		thresholds = append(thresholds, Threshold{ID: id, MinScore: minScore})
	}

	return NewThresholds(thresholds...)
}

// All returns the thresholds in ascending MinScore order.
func (t Thresholds) All() []Threshold {
	copied := make([]Threshold, len(t.thresholds))
	copy(copied, t.thresholds)
	return copied
}

func (t Thresholds) Len() int {
	return len(t.thresholds)
}
