package stats

import (
	"fmt"
	"sort"
)

// Summary holds the counters for one export run. The run is strictly
// sequential, so the counters are plain values updated in loop order.
type Summary struct {
	Appended         int
	Skipped          int
	Steps            int
	AddressFallbacks int
	DateFallbacks    int
	BytesWritten     int64
}

// LogAttrs flattens the summary into slog key/value pairs.
func (s Summary) LogAttrs() []any {
	return []any{
		"appended", s.Appended,
		"skipped", s.Skipped,
		"steps", s.Steps,
		"addressFallbacks", s.AddressFallbacks,
		"dateFallbacks", s.DateFallbacks,
		"bytesWritten", s.BytesWritten,
	}
}

// Collector accumulates a Summary as the walk progresses.
type Collector struct {
	summary Summary
}

func NewCollector() *Collector {
	return &Collector{}
}

// Appended records one appended message block.
func (c *Collector) Appended(bytes int64, addressFallback, dateFallback bool) {
	c.summary.Appended++
	c.summary.BytesWritten += bytes
	if addressFallback {
		c.summary.AddressFallbacks++
	}
	if dateFallback {
		c.summary.DateFallbacks++
	}
}

// Skipped records one message dropped by a filter.
func (c *Collector) Skipped() {
	c.summary.Skipped++
}

// Stepped records one successful backward step of the checkout.
func (c *Collector) Stepped() {
	c.summary.Steps++
}

func (c *Collector) Snapshot() Summary {
	return c.summary
}

// PrettyPrintTop prints the top N most frequent items in a map.
func PrettyPrintTop(m map[string]int, limit int) {
	type pair struct {
		Key   string
		Value int
	}

	var pairs []pair
	for k, v := range m {
		pairs = append(pairs, pair{k, v})
	}

	sort.Slice(pairs, func(i, j int) bool {
		return pairs[i].Value > pairs[j].Value
	})

	for i := 0; i < limit && i < len(pairs); i++ {
		fmt.Printf("%d. %s (%d)\n", i+1, pairs[i].Key, pairs[i].Value)
	}
}
