package bureau

import (
	"math/rand"
	"sort"
	"strings"
)

// randRange returns a uniform integer in [lo, hi] inclusive.
func randRange(rng *rand.Rand, lo, hi int) int {
	return lo + rng.Intn(hi-lo+1)
}

// uniform returns a uniform float in [lo, hi).
func uniform(rng *rand.Rand, lo, hi float64) float64 {
	return lo + rng.Float64()*(hi-lo)
}

// choice picks one element uniformly.
func choice(rng *rand.Rand, options []string) string {
	return options[rng.Intn(len(options))]
}

func round2(v float64) float64 {
	return float64(int64(v*100+0.5)) / 100
}

func round1(v float64) float64 {
	return float64(int64(v*10+0.5)) / 10
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// titleCase renders a snake_case debt key as a display label.
func titleCase(key string) string {
	parts := strings.Split(key, "_")
	for i, p := range parts {
		if p == "" {
			continue
		}
		parts[i] = strings.ToUpper(p[:1]) + p[1:]
	}
	return strings.Join(parts, " ")
}
