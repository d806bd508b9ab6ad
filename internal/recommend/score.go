package recommend

import (
	"sort"
	"strings"

	"github.com/koor-works/koor-backend/pkg/db/models"
)

// Scoring dimensions per posting kind. The top tier keeps candidates that
// match on every dimension except at most one.
const (
	jobDimensions    = 4 // budget, skills, categories, highest education
	tenderDimensions = 5 // budget, tags, categories, tender types, sectors
)

// ScoredJob pairs a candidate with its overlap score.
type ScoredJob struct {
	Job     models.Job
	Matches int
}

// ScoredTender pairs a candidate with its overlap score.
type ScoredTender struct {
	Tender  models.Tender
	Matches int
}

// ScoreJob counts attribute overlaps between a reference job and a candidate.
func ScoreJob(ref, candidate *models.Job) int {
	matches := 0
	if ref.BudgetAmount.Equal(candidate.BudgetAmount) {
		matches++
	}
	if anyOverlap(ref.Skills, candidate.Skills) {
		matches++
	}
	if anyOverlap(ref.Categories, candidate.Categories) {
		matches++
	}
	if ref.HighestEducation != nil && candidate.HighestEducation != nil &&
		strings.EqualFold(*ref.HighestEducation, *candidate.HighestEducation) {
		matches++
	}
	return matches
}

// ScoreTender counts attribute overlaps between a reference tender and a
// candidate.
func ScoreTender(ref, candidate *models.Tender) int {
	matches := 0
	if ref.BudgetAmount.Equal(candidate.BudgetAmount) {
		matches++
	}
	if anyOverlap(ref.Tags, candidate.Tags) {
		matches++
	}
	if anyOverlap(ref.Categories, candidate.Categories) {
		matches++
	}
	if anyOverlap(ref.TenderTypes, candidate.TenderTypes) {
		matches++
	}
	if anyOverlap(ref.Sectors, candidate.Sectors) {
		matches++
	}
	return matches
}

// rankJobs orders by matches descending, then created_at descending, and
// applies the top-tier cut with fallback to the full ranked list.
func rankJobs(scored []ScoredJob, limit int) []ScoredJob {
	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Matches != scored[j].Matches {
			return scored[i].Matches > scored[j].Matches
		}
		return scored[i].Job.CreatedAt.After(scored[j].Job.CreatedAt)
	})

	top := make([]ScoredJob, 0, len(scored))
	for _, s := range scored {
		if s.Matches >= jobDimensions-1 {
			top = append(top, s)
		}
	}
	if len(top) > 0 {
		return clampJobs(top, limit)
	}
	return clampJobs(scored, limit)
}

func rankTenders(scored []ScoredTender, limit int) []ScoredTender {
	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Matches != scored[j].Matches {
			return scored[i].Matches > scored[j].Matches
		}
		return scored[i].Tender.CreatedAt.After(scored[j].Tender.CreatedAt)
	})

	top := make([]ScoredTender, 0, len(scored))
	for _, s := range scored {
		if s.Matches >= tenderDimensions-1 {
			top = append(top, s)
		}
	}
	if len(top) > 0 {
		return clampTenders(top, limit)
	}
	return clampTenders(scored, limit)
}

func clampJobs(rows []ScoredJob, limit int) []ScoredJob {
	if limit > 0 && len(rows) > limit {
		return rows[:limit]
	}
	return rows
}

func clampTenders(rows []ScoredTender, limit int) []ScoredTender {
	if limit > 0 && len(rows) > limit {
		return rows[:limit]
	}
	return rows
}

func anyOverlap(a, b []string) bool {
	if len(a) == 0 || len(b) == 0 {
		return false
	}
	set := make(map[string]struct{}, len(a))
	for _, v := range a {
		set[strings.ToLower(v)] = struct{}{}
	}
	for _, v := range b {
		if _, ok := set[strings.ToLower(v)]; ok {
			return true
		}
	}
	return false
}
