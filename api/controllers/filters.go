package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/koor-works/koor-backend/api/middleware"
	"github.com/koor-works/koor-backend/api/responses"
	"github.com/koor-works/koor-backend/api/validators"
	"github.com/koor-works/koor-backend/internal/filters"
	"github.com/koor-works/koor-backend/pkg/logger"
	"github.com/koor-works/koor-backend/pkg/pagination"
)

type jobFilterRequest struct {
	Title            string          `json:"title" validate:"required"`
	Country          string          `json:"country"`
	City             string          `json:"city"`
	IsFullTime       bool            `json:"is_full_time"`
	IsPartTime       bool            `json:"is_part_time"`
	HasContract      bool            `json:"has_contract"`
	SalaryMin        decimal.Decimal `json:"salary_min"`
	SalaryMax        decimal.Decimal `json:"salary_max"`
	Duration         string          `json:"duration"`
	Experience       string          `json:"experience"`
	HighestEducation string          `json:"highest_education"`
	WorkingDays      string          `json:"working_days"`
	Categories       []string        `json:"categories"`
	IsNotification   bool            `json:"is_notification"`
}

type tenderFilterRequest struct {
	Title          string          `json:"title" validate:"required"`
	Country        string          `json:"country"`
	City           string          `json:"city"`
	BudgetMin      decimal.Decimal `json:"budget_min"`
	BudgetMax      decimal.Decimal `json:"budget_max"`
	Deadline       *string         `json:"deadline"`
	Categories     []string        `json:"categories"`
	TenderTypes    []string        `json:"tender_types"`
	Sectors        []string        `json:"sectors"`
	Tags           []string        `json:"tags"`
	IsNotification bool            `json:"is_notification"`
}

func (req *jobFilterRequest) toParams() filters.JobFilterParams {
	return filters.JobFilterParams{
		Title:            req.Title,
		Country:          req.Country,
		City:             req.City,
		IsFullTime:       req.IsFullTime,
		IsPartTime:       req.IsPartTime,
		HasContract:      req.HasContract,
		SalaryMin:        req.SalaryMin,
		SalaryMax:        req.SalaryMax,
		Duration:         req.Duration,
		Experience:       req.Experience,
		HighestEducation: req.HighestEducation,
		WorkingDays:      req.WorkingDays,
		Categories:       req.Categories,
		IsNotification:   req.IsNotification,
	}
}

func (req *tenderFilterRequest) toParams() (filters.TenderFilterParams, error) {
	deadline, err := parseOptionalDate(req.Deadline, "deadline")
	if err != nil {
		return filters.TenderFilterParams{}, err
	}
	return filters.TenderFilterParams{
		Title:          req.Title,
		Country:        req.Country,
		City:           req.City,
		BudgetMin:      req.BudgetMin,
		BudgetMax:      req.BudgetMax,
		Deadline:       deadline,
		Categories:     req.Categories,
		TenderTypes:    req.TenderTypes,
		Sectors:        req.Sectors,
		Tags:           req.Tags,
		IsNotification: req.IsNotification,
	}, nil
}

// CreateJobFilter stores a saved search for jobs.
func CreateJobFilter(svc filters.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req jobFilterRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		actor := middleware.UserFromContext(r.Context())
		filter, err := svc.CreateJobFilter(r.Context(), actor.ID, req.toParams())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, filter)
	}
}

// UpdateJobFilter rewrites a saved search for jobs.
func UpdateJobFilter(svc filters.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filterID, err := validators.ParseURLUUID(chi.URLParam(r, "filterID"), "filterID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req jobFilterRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		actor := middleware.UserFromContext(r.Context())
		filter, err := svc.UpdateJobFilter(r.Context(), actor.ID, filterID, req.toParams())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, filter)
	}
}

// DeleteJobFilter removes a saved search for jobs.
func DeleteJobFilter(svc filters.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filterID, err := validators.ParseURLUUID(chi.URLParam(r, "filterID"), "filterID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		actor := middleware.UserFromContext(r.Context())
		if err := svc.DeleteJobFilter(r.Context(), actor.ID, filterID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}

// ListJobFilters pages through the caller's job saved searches.
func ListJobFilters(svc filters.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page := pagination.FromRequest(r)
		actor := middleware.UserFromContext(r.Context())
		results, count, err := svc.ListJobFilters(r.Context(), actor.ID, page)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WritePage(w, r, page, count, results)
	}
}

// CreateTenderFilter stores a saved search for tenders.
func CreateTenderFilter(svc filters.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req tenderFilterRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params, err := req.toParams()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		actor := middleware.UserFromContext(r.Context())
		filter, err := svc.CreateTenderFilter(r.Context(), actor.ID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, filter)
	}
}

// UpdateTenderFilter rewrites a saved search for tenders.
func UpdateTenderFilter(svc filters.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filterID, err := validators.ParseURLUUID(chi.URLParam(r, "filterID"), "filterID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req tenderFilterRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params, err := req.toParams()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		actor := middleware.UserFromContext(r.Context())
		filter, err := svc.UpdateTenderFilter(r.Context(), actor.ID, filterID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, filter)
	}
}

// DeleteTenderFilter removes a saved search for tenders.
func DeleteTenderFilter(svc filters.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filterID, err := validators.ParseURLUUID(chi.URLParam(r, "filterID"), "filterID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		actor := middleware.UserFromContext(r.Context())
		if err := svc.DeleteTenderFilter(r.Context(), actor.ID, filterID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}

// ListTenderFilters pages through the caller's tender saved searches.
func ListTenderFilters(svc filters.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page := pagination.FromRequest(r)
		actor := middleware.UserFromContext(r.Context())
		results, count, err := svc.ListTenderFilters(r.Context(), actor.ID, page)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WritePage(w, r, page, count, results)
	}
}
