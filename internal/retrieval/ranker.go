package retrieval

import "sort"

// Match is a vector-similarity search result for one transcript chunk.
// Matches are never mutated by ranking, only filtered, reordered and copied.
type Match struct {
	ID           string  `json:"id"`
	Score        float32 `json:"score"`
	VideoID      string  `json:"video_id"`
	SourceID     string  `json:"source_id,omitempty"`
	Text         string  `json:"text"`
	StartTime    float64 `json:"start_time"`
	EndTime      float64 `json:"end_time"`
	Language     string  `json:"language,omitempty"`
	LanguageCode string  `json:"language_code,omitempty"`
}

const (
	DefaultOverlapThreshold = 0.8
	DefaultMinKeep          = 3
)

// Ranker turns raw vector-search matches into a deduplicated, chronologically
// coherent context. Near-overlapping spans from the same video collapse onto
// the highest-scored match; survivors are grouped per video so each video's
// excerpts read as one contiguous block.
type Ranker struct {
	// OverlapThreshold is the span-overlap fraction above which two chunks
	// from the same video are considered redundant.
	OverlapThreshold float64

	// MinKeep is the safety floor: if deduplication would leave fewer than
	// MinKeep matches while at least MinKeep were available, the dedup
	// result is discarded in favour of the top MinKeep by score.
	MinKeep int
}

func NewRanker(overlapThreshold float64, minKeep int) *Ranker {
	if overlapThreshold <= 0 {
		overlapThreshold = DefaultOverlapThreshold
	}
	if minKeep <= 0 {
		minKeep = DefaultMinKeep
	}
	return &Ranker{OverlapThreshold: overlapThreshold, MinKeep: minKeep}
}

// Rank deduplicates by timestamp overlap, then groups by video and orders
// each group chronologically, most relevant video first. The input slice is
// left untouched. Output is deterministic modulo score ties, which keep
// input order.
func (r *Ranker) Rank(matches []Match) []Match {
	if len(matches) == 0 {
		return nil
	}

	sorted := make([]Match, len(matches))
	copy(sorted, matches)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Score > sorted[j].Score
	})

	kept := r.dedupe(sorted)

	// Over-aggressive pruning must not starve synthesis of context.
	if len(kept) < r.MinKeep && len(matches) >= r.MinKeep {
		kept = sorted[:r.MinKeep]
	}

	return groupByVideo(kept)
}

func (r *Ranker) dedupe(sorted []Match) []Match {
	kept := make([]Match, 0, len(sorted))
	for _, cand := range sorted {
		redundant := false
		for _, k := range kept {
			if k.VideoID != cand.VideoID {
				continue
			}
			if overlapFraction(cand, k) > r.OverlapThreshold {
				redundant = true
				break
			}
		}
		if !redundant {
			kept = append(kept, cand)
		}
	}
	return kept
}

// overlapFraction is the shared span divided by the shorter of the two spans,
// so a chunk fully contained in another scores 1.0 regardless of lengths.
func overlapFraction(a, b Match) float64 {
	inter := min64(a.EndTime, b.EndTime) - max64(a.StartTime, b.StartTime)
	if inter <= 0 {
		return 0
	}
	shorter := min64(a.EndTime-a.StartTime, b.EndTime-b.StartTime)
	if shorter <= 0 {
		return 0
	}
	return inter / shorter
}

// groupByVideo partitions matches per video, orders each group by start time
// and the groups themselves by their best score, then flattens. The output is
// never interleaved chunk-by-chunk across videos.
func groupByVideo(kept []Match) []Match {
	groups := make(map[string][]Match)
	best := make(map[string]float32)
	var order []string

	for _, m := range kept {
		if _, ok := groups[m.VideoID]; !ok {
			order = append(order, m.VideoID)
		}
		groups[m.VideoID] = append(groups[m.VideoID], m)
		if m.Score > best[m.VideoID] {
			best[m.VideoID] = m.Score
		}
	}

	// order starts in kept order (score descending), so the stable sort
	// keeps first-seen order for tied groups.
	sort.SliceStable(order, func(i, j int) bool {
		return best[order[i]] > best[order[j]]
	})

	out := make([]Match, 0, len(kept))
	for _, vid := range order {
		group := groups[vid]
		sort.SliceStable(group, func(i, j int) bool {
			return group[i].StartTime < group[j].StartTime
		})
		out = append(out, group...)
	}
	return out
}

func min64(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func max64(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
