package recommend

import (
	"strings"

	"github.com/koor-works/koor-backend/pkg/db/models"
)

// MatchesJobFilter reports whether a job satisfies every facet the saved
// search specifies. Unset facets match everything.
func MatchesJobFilter(filter *models.JobFilter, job *models.Job) bool {
	if filter.Country != "" && !strings.EqualFold(filter.Country, job.Country) {
		return false
	}
	if filter.City != "" && !strings.EqualFold(filter.City, job.City) {
		return false
	}
	if filter.IsFullTime && !job.IsFullTime {
		return false
	}
	if filter.IsPartTime && !job.IsPartTime {
		return false
	}
	if filter.HasContract && !job.HasContract {
		return false
	}
	if filter.SalaryMin.IsPositive() && job.BudgetAmount.LessThan(filter.SalaryMin) {
		return false
	}
	if filter.SalaryMax.IsPositive() && job.BudgetAmount.GreaterThan(filter.SalaryMax) {
		return false
	}
	if filter.Duration != "" && (job.Duration == nil || !strings.EqualFold(filter.Duration, *job.Duration)) {
		return false
	}
	if filter.Experience != "" && (job.Experience == nil || !strings.EqualFold(filter.Experience, *job.Experience)) {
		return false
	}
	if filter.HighestEducation != "" && (job.HighestEducation == nil || !strings.EqualFold(filter.HighestEducation, *job.HighestEducation)) {
		return false
	}
	if filter.WorkingDays != "" && (job.WorkingDays == nil || !strings.EqualFold(filter.WorkingDays, *job.WorkingDays)) {
		return false
	}
	if len(filter.Categories) > 0 && !anyOverlap(filter.Categories, job.Categories) {
		return false
	}
	return true
}

// MatchesTenderFilter reports whether a tender satisfies every facet the
// saved search specifies.
func MatchesTenderFilter(filter *models.TenderFilter, tender *models.Tender) bool {
	if filter.Country != "" && !strings.EqualFold(filter.Country, tender.Country) {
		return false
	}
	if filter.City != "" && !strings.EqualFold(filter.City, tender.City) {
		return false
	}
	if filter.BudgetMin.IsPositive() && tender.BudgetAmount.LessThan(filter.BudgetMin) {
		return false
	}
	if filter.BudgetMax.IsPositive() && tender.BudgetAmount.GreaterThan(filter.BudgetMax) {
		return false
	}
	if filter.Deadline != nil {
		if tender.Deadline == nil || tender.Deadline.Before(*filter.Deadline) {
			return false
		}
	}
	if len(filter.Categories) > 0 && !anyOverlap(filter.Categories, tender.Categories) {
		return false
	}
	if len(filter.TenderTypes) > 0 && !anyOverlap(filter.TenderTypes, tender.TenderTypes) {
		return false
	}
	if len(filter.Sectors) > 0 && !anyOverlap(filter.Sectors, tender.Sectors) {
		return false
	}
	if len(filter.Tags) > 0 && !anyOverlap(filter.Tags, tender.Tags) {
		return false
	}
	return true
}
