package domain

import (
	"sort"
	"time"
)

// DateKey formats a date the way all calendar-keyed lookups use it.
func DateKey(t time.Time) string {
	return t.Format("2006-01-02")
}

// Day truncates a timestamp to calendar-date granularity (UTC midnight).
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ReferenceSnapshot is an immutable symbol → StockInfo lookup handed to the
// reconstruction pipeline. It replaces any ambient caching: the pipeline only
// ever sees the snapshot it was given.
type ReferenceSnapshot struct {
	stocks map[string]StockInfo
}

// NewReferenceSnapshot builds a snapshot from a symbol-keyed map. The map is
// copied; later mutation of the argument does not leak into the snapshot.
func NewReferenceSnapshot(stocks map[string]StockInfo) ReferenceSnapshot {
	copied := make(map[string]StockInfo, len(stocks))
	for sym, info := range stocks {
		copied[sym] = info
	}
	return ReferenceSnapshot{stocks: copied}
}

// Get returns the reference record for a symbol.
func (s ReferenceSnapshot) Get(symbol string) (StockInfo, bool) {
	info, ok := s.stocks[symbol]
	return info, ok
}

// Symbols returns all symbols present in the snapshot, sorted.
func (s ReferenceSnapshot) Symbols() []string {
	symbols := make([]string, 0, len(s.stocks))
	for sym := range s.stocks {
		symbols = append(symbols, sym)
	}
	sort.Strings(symbols)
	return symbols
}

// Len returns the number of symbols in the snapshot.
func (s ReferenceSnapshot) Len() int { return len(s.stocks) }

// IndexLevels holds the closing levels of the three tracked benchmark
// indices on one date.
type IndexLevels struct {
	Nifty50   float64 `json:"nifty50"`
	BSESensex float64 `json:"bsesensex"`
	NiftyBank float64 `json:"niftybank"`
}

// IndexHistory is a date-ordered series of benchmark index levels with
// on-or-before lookup semantics.
type IndexHistory struct {
	dates  []time.Time // sorted ascending
	levels map[string]IndexLevels
}

// NewIndexHistory builds a history from a date-keyed level map.
func NewIndexHistory(levels map[string]IndexLevels) IndexHistory {
	copied := make(map[string]IndexLevels, len(levels))
	dates := make([]time.Time, 0, len(levels))
	for key, lv := range levels {
		t, err := time.Parse("2006-01-02", key)
		if err != nil {
			continue // unparseable keys are dropped rather than poisoning lookups
		}
		copied[key] = lv
		dates = append(dates, t)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return IndexHistory{dates: dates, levels: copied}
}

// OnOrBefore returns the levels for the latest date not after d.
// The second return is false when no such date exists.
func (h IndexHistory) OnOrBefore(d time.Time) (IndexLevels, bool) {
	day := Day(d)
	// Binary search for the first date after day.
	i := sort.Search(len(h.dates), func(i int) bool { return h.dates[i].After(day) })
	if i == 0 {
		return IndexLevels{}, false
	}
	return h.levels[DateKey(h.dates[i-1])], true
}

// Len returns the number of dates in the history.
func (h IndexHistory) Len() int { return len(h.dates) }
