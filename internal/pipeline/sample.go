package pipeline

import (
	"math"
	"math/rand"
	"sort"

	"github.com/salmonumbrella/wikigap-cli/internal/annotation"
)

// WeightedSample picks n rows without replacement, weighting each row by the
// share of rows with the same value in column. Rows whose header is common
// are more likely to be picked. The picked rows keep their input order. When
// n is zero or not smaller than len(rows), rows is returned as is.
func WeightedSample(rows []annotation.Row, column string, n int, seed int64) []annotation.Row {
	if n <= 0 || n >= len(rows) {
		return rows
	}

	counts := make(map[string]int)
	keys := make([]string, len(rows))
	for i, row := range rows {
		key, ok := row.Text(column)
		if !ok {
			key = "\x00null"
		}
		keys[i] = key
		counts[key]++
	}

	// Efraimidis-Spirakis: keep the n largest u^(1/w).
	rng := rand.New(rand.NewSource(seed))
	type scored struct {
		index int
		key   float64
	}
	scores := make([]scored, len(rows))
	total := float64(len(rows))
	for i := range rows {
		w := float64(counts[keys[i]]) / total
		scores[i] = scored{index: i, key: math.Pow(rng.Float64(), 1/w)}
	}
	sort.SliceStable(scores, func(a, b int) bool { return scores[a].key > scores[b].key })

	picked := scores[:n]
	sort.Slice(picked, func(a, b int) bool { return picked[a].index < picked[b].index })

	out := make([]annotation.Row, n)
	for i, s := range picked {
		out[i] = rows[s.index]
	}
	return out
}
