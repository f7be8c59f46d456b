package civic

import (
	"math"
	"sort"
)

// Rank builds the leaderboard. Public sentiment is the mean review rating
// scaled to 100; the overall score is the mean of whichever scores exist.
// Representatives with no score at all are left out.
func Rank(reps []Representative, cards []ScoreCard, reviews []Review) []RankedRepresentative {
	byRep := make(map[string]ScoreCard, len(cards))
	for _, c := range cards {
		byRep[c.RepresentativeID] = c
	}

	sum := make(map[string]int)
	count := make(map[string]int)
	for _, r := range reviews {
		sum[r.RepresentativeID] += r.Rating
		count[r.RepresentativeID]++
	}

	var out []RankedRepresentative
	for _, rep := range reps {
		entry := RankedRepresentative{Representative: rep}
		if c, ok := byRep[rep.ID]; ok {
			entry.PerformanceScore = c.PerformanceScore
			entry.IntegrityScore = c.IntegrityScore
		}
		if n := count[rep.ID]; n > 0 {
			entry.PublicSentimentScore = Float(round1(float64(sum[rep.ID]) / float64(n) * 20))
		}

		var total float64
		var parts int
		for _, s := range []*float64{entry.PerformanceScore, entry.IntegrityScore, entry.PublicSentimentScore} {
			if s != nil {
				total += *s
				parts++
			}
		}
		if parts == 0 {
			continue
		}
		entry.OverallScore = round1(total / float64(parts))
		out = append(out, entry)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].OverallScore != out[j].OverallScore {
			return out[i].OverallScore > out[j].OverallScore
		}
		return out[i].Name < out[j].Name
	})
	for i := range out {
		out[i].Rank = i + 1
	}
	return out
}

func round1(f float64) float64 {
	return math.Round(f*10) / 10
}
