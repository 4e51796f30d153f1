package domain

import "sort"

type Detection struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// RankDetections orders detections by descending score, keeping the input
// order for ties, and drops entries without a label.
func RankDetections(in []Detection) []Detection {
	out := make([]Detection, 0, len(in))
	for _, d := range in {
		if d.Label != "" {
			out = append(out, d)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}
