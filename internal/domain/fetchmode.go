package domain

import "fmt"

// FetchMode determines which offset sub-range of a topic is materialized.
// Newest selects the most recent FetchValue messages per partition (window at
// the high end), Oldest the earliest FetchValue (window at the low end),
// FromTimestamp everything at or after an epoch-millisecond timestamp.
type FetchMode string

const (
	FetchModeAll           FetchMode = "All"
	FetchModeNewest        FetchMode = "Newest"
	FetchModeOldest        FetchMode = "Oldest"
	FetchModeFromTimestamp FetchMode = "FromTimestamp"
)

// FetchModes lists every mode, in display order.
var FetchModes = []FetchMode{FetchModeAll, FetchModeNewest, FetchModeOldest, FetchModeFromTimestamp}

func (m FetchMode) Valid() bool {
	switch m {
	case FetchModeAll, FetchModeNewest, FetchModeOldest, FetchModeFromTimestamp:
		return true
	}
	return false
}

// ParseFetchMode converts a persisted string back into a FetchMode.
func ParseFetchMode(s string) (FetchMode, error) {
	m := FetchMode(s)
	if !m.Valid() {
		return FetchModeAll, fmt.Errorf("unknown fetch mode: %q", s)
	}
	return m, nil
}
