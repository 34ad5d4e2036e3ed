package selector

import "slices"

// MaxSameLevelRun is the longest allowed run of consecutive questions that
// share a cognitive level.
const MaxSameLevelRun = 3

// ApplyCognitiveVariety adjusts a selection so that it spans at least two
// cognitive levels and has no run longer than MaxSameLevelRun, swapping in
// pool questions where possible. It never introduces a duplicate question
// id and is a no-op when the pool has no qualifying candidate. Neither
// input slice is modified.
func ApplyCognitiveVariety(selected, pool []EnrichedQuestion) []EnrichedQuestion {
	out := slices.Clone(selected)
	if len(out) == 0 {
		return out
	}
	remaining := slices.Clone(pool)

	inSelection := make(map[string]bool, len(out))
	for _, q := range out {
		inSelection[q.ID] = true
	}

	// swapIn replaces out[pos] with the best pool candidate whose level
	// differs from avoid. Returns false if no candidate qualifies.
	swapIn := func(pos int, avoid string) bool {
		best := -1
		for i, c := range remaining {
			if c.CognitiveLevel == avoid || inSelection[c.ID] {
				continue
			}
			if best < 0 || c.PriorityScore > remaining[best].PriorityScore {
				best = i
			}
		}
		if best < 0 {
			return false
		}
		cand := remaining[best]
		old := out[pos]
		delete(inSelection, old.ID)
		inSelection[cand.ID] = true
		out[pos] = cand
		remaining[best] = old
		return true
	}

	// Rule 1: at least two distinct levels.
	if len(out) > 1 && distinctLevels(out) < 2 {
		lowest := 0
		for i := range out {
			if out[i].PriorityScore < out[lowest].PriorityScore {
				lowest = i
			}
		}
		swapIn(lowest, out[0].CognitiveLevel)
	}

	// Rule 2: break runs longer than MaxSameLevelRun.
	run := 1
	for i := 1; i < len(out); i++ {
		if out[i].CognitiveLevel != out[i-1].CognitiveLevel {
			run = 1
			continue
		}
		run++
		if run > MaxSameLevelRun && swapIn(i, out[i].CognitiveLevel) {
			run = 1
		}
	}
	return out
}

func distinctLevels(qs []EnrichedQuestion) int {
	seen := make(map[string]bool)
	for _, q := range qs {
		seen[q.CognitiveLevel] = true
	}
	return len(seen)
}
