package quiz

import (
	"sort"

	"github.com/terra-clan/wings-of-wisdom/internal/models"
)

// Rank orders results by percentage, then score, then earliest finish,
// and numbers them from 1. At most limit entries are returned when limit > 0.
func Rank(results []*models.QuizResult, limit int) []models.LeaderboardEntry {
	sorted := make([]*models.QuizResult, len(results))
	copy(sorted, results)

	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.Percentage() != b.Percentage() {
			return a.Percentage() > b.Percentage()
		}
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		return a.FinishedAt.Before(b.FinishedAt)
	})

	if limit > 0 && len(sorted) > limit {
		sorted = sorted[:limit]
	}

	entries := make([]models.LeaderboardEntry, len(sorted))
	for i, r := range sorted {
		nickname := r.Nickname
		if nickname == "" {
			nickname = "Anonymous"
		}
		entries[i] = models.LeaderboardEntry{
			Rank:       i + 1,
			Nickname:   nickname,
			Score:      r.Score,
			Total:      r.Total,
			Percentage: r.Percentage(),
			FinishedAt: r.FinishedAt,
		}
	}
	return entries
}
