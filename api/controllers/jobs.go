package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/koor-works/koor-backend/api/middleware"
	"github.com/koor-works/koor-backend/api/responses"
	"github.com/koor-works/koor-backend/api/validators"
	"github.com/koor-works/koor-backend/internal/jobs"
	"github.com/koor-works/koor-backend/internal/recommend"
	"github.com/koor-works/koor-backend/pkg/enums"
	pkgerrors "github.com/koor-works/koor-backend/pkg/errors"
	"github.com/koor-works/koor-backend/pkg/logger"
	"github.com/koor-works/koor-backend/pkg/pagination"
)

type jobLanguageRequest struct {
	Language string `json:"language" validate:"required"`
	Spoken   string `json:"spoken" validate:"required"`
	Written  string `json:"written" validate:"required"`
}

type jobRequest struct {
	Title                  string               `json:"title" validate:"required"`
	Description            string               `json:"description"`
	BudgetCurrency         string               `json:"budget_currency"`
	BudgetAmount           decimal.Decimal      `json:"budget_amount"`
	BudgetPayPeriod        string               `json:"budget_pay_period" validate:"omitempty,oneof=hourly daily weekly monthly yearly"`
	Country                string               `json:"country"`
	City                   string               `json:"city"`
	Address                string               `json:"address"`
	StartDate              *string              `json:"start_date"`
	Deadline               *string              `json:"deadline"`
	CompanyName            string               `json:"company_name"`
	CompanyLogoID          *string              `json:"company_logo_id" validate:"omitempty,uuid"`
	IsFullTime             bool                 `json:"is_full_time"`
	IsPartTime             bool                 `json:"is_part_time"`
	HasContract            bool                 `json:"has_contract"`
	ContactEmail           *string              `json:"contact_email" validate:"omitempty,email"`
	CCEmail                *string              `json:"cc_email" validate:"omitempty,email"`
	ContactWhatsapp        *string              `json:"contact_whatsapp"`
	WorkingDays            *string              `json:"working_days"`
	Duration               *string              `json:"duration"`
	Experience             *string              `json:"experience"`
	HighestEducation       *string              `json:"highest_education"`
	ApplyThrough           string               `json:"apply_through" validate:"omitempty,oneof=koor email website"`
	ApplicationInstruction *string              `json:"application_instruction"`
	Categories             []string             `json:"categories"`
	Skills                 []string             `json:"skills"`
	Languages              []jobLanguageRequest `json:"languages" validate:"dive"`
	AttachmentMediaIDs     []string             `json:"attachment_media_ids" validate:"dive,uuid"`
}

type setStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=active inactive hold"`
}

func (req *jobRequest) toParams(r *http.Request) (jobs.CreateParams, error) {
	startDate, err := parseOptionalDate(req.StartDate, "start_date")
	if err != nil {
		return jobs.CreateParams{}, err
	}
	deadline, err := parseOptionalDate(req.Deadline, "deadline")
	if err != nil {
		return jobs.CreateParams{}, err
	}
	logoID, err := parseOptionalUUID(req.CompanyLogoID, "company_logo_id")
	if err != nil {
		return jobs.CreateParams{}, err
	}
	attachments, err := parseUUIDList(req.AttachmentMediaIDs, "attachment_media_ids")
	if err != nil {
		return jobs.CreateParams{}, err
	}

	languages := make([]jobs.LanguageParams, 0, len(req.Languages))
	for _, lang := range req.Languages {
		languages = append(languages, jobs.LanguageParams{
			Language: lang.Language,
			Spoken:   lang.Spoken,
			Written:  lang.Written,
		})
	}

	actor := middleware.UserFromContext(r.Context())
	return jobs.CreateParams{
		OwnerID:                actor.ID,
		Title:                  req.Title,
		Description:            req.Description,
		BudgetCurrency:         req.BudgetCurrency,
		BudgetAmount:           req.BudgetAmount,
		BudgetPayPeriod:        enums.PayPeriod(req.BudgetPayPeriod),
		Country:                req.Country,
		City:                   req.City,
		Address:                req.Address,
		StartDate:              startDate,
		Deadline:               deadline,
		CompanyName:            req.CompanyName,
		CompanyLogoID:          logoID,
		IsFullTime:             req.IsFullTime,
		IsPartTime:             req.IsPartTime,
		HasContract:            req.HasContract,
		ContactEmail:           req.ContactEmail,
		CCEmail:                req.CCEmail,
		ContactWhatsapp:        req.ContactWhatsapp,
		WorkingDays:            req.WorkingDays,
		Duration:               req.Duration,
		Experience:             req.Experience,
		HighestEducation:       req.HighestEducation,
		ApplyThrough:           enums.ApplyChannel(req.ApplyThrough),
		ApplicationInstruction: req.ApplicationInstruction,
		Categories:             req.Categories,
		Skills:                 req.Skills,
		Languages:              languages,
		AttachmentMediaIDs:     attachments,
	}, nil
}

// CreateJob posts a new job on behalf of the caller.
func CreateJob(svc jobs.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req jobRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params, err := req.toParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		job, err := svc.Create(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, job)
	}
}

// UpdateJob replaces a posting's editable attributes.
func UpdateJob(svc jobs.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jobID, err := validators.ParseURLUUID(chi.URLParam(r, "jobID"), "jobID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req jobRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params, err := req.toParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		actor := middleware.UserFromContext(r.Context())
		job, err := svc.Update(r.Context(), actor, jobID, jobs.UpdateParams{CreateParams: params})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, job)
	}
}

// GetJob resolves a posting by short id or slug.
func GetJob(svc jobs.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		idOrSlug := chi.URLParam(r, "jobID")
		job, err := svc.Get(r.Context(), idOrSlug)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, job)
	}
}

// ListJobs returns a filtered page of postings.
func ListJobs(svc jobs.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, err := jobListParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		results, count, err := svc.List(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WritePage(w, r, params.Page, count, results)
	}
}

// MyJobs lists the caller's own postings, regardless of status.
func MyJobs(svc jobs.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, err := jobListParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		actor := middleware.UserFromContext(r.Context())
		params.OwnerID = actor.ID
		if params.Statuses == nil {
			params.Statuses = []enums.PostingStatus{
				enums.PostingStatusActive,
				enums.PostingStatusInactive,
				enums.PostingStatusHold,
			}
		}
		results, count, err := svc.List(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WritePage(w, r, params.Page, count, results)
	}
}

// SetJobStatus switches a posting between active, inactive and hold.
func SetJobStatus(svc jobs.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jobID, err := validators.ParseURLUUID(chi.URLParam(r, "jobID"), "jobID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req setStatusRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		actor := middleware.UserFromContext(r.Context())
		if err := svc.SetStatus(r.Context(), actor, jobID, enums.PostingStatus(req.Status)); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}

// DeleteJob soft-removes a posting.
func DeleteJob(svc jobs.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jobID, err := validators.ParseURLUUID(chi.URLParam(r, "jobID"), "jobID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		actor := middleware.UserFromContext(r.Context())
		if err := svc.Delete(r.Context(), actor, jobID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}

// RestoreJob brings a soft-deleted posting back. Admin only.
func RestoreJob(svc jobs.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jobID, err := validators.ParseURLUUID(chi.URLParam(r, "jobID"), "jobID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		actor := middleware.UserFromContext(r.Context())
		if err := svc.Restore(r.Context(), actor, jobID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}

// SimilarJobs returns suggestion-ranked postings near the given one.
func SimilarJobs(svc recommend.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jobID, err := validators.ParseURLUUID(chi.URLParam(r, "jobID"), "jobID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", 0, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		results, err := svc.SimilarJobs(r.Context(), jobID, limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, results)
	}
}

func jobListParams(r *http.Request) (jobs.ListParams, error) {
	params := jobs.ListParams{
		Search:   strings.TrimSpace(r.URL.Query().Get("search")),
		Country:  strings.TrimSpace(r.URL.Query().Get("country")),
		City:     strings.TrimSpace(r.URL.Query().Get("city")),
		Category: strings.TrimSpace(r.URL.Query().Get("category")),
		Page:     pagination.FromRequest(r),
	}

	for _, flag := range []struct {
		key  string
		dest **bool
	}{
		{"is_full_time", &params.IsFullTime},
		{"is_part_time", &params.IsPartTime},
		{"has_contract", &params.HasContract},
	} {
		if raw := strings.TrimSpace(r.URL.Query().Get(flag.key)); raw != "" {
			value, err := validators.ParseQueryBool(r, flag.key)
			if err != nil {
				return jobs.ListParams{}, err
			}
			*flag.dest = &value
		}
	}

	for _, bound := range []struct {
		key  string
		dest **decimal.Decimal
	}{
		{"budget_min", &params.BudgetMin},
		{"budget_max", &params.BudgetMax},
	} {
		if raw := strings.TrimSpace(r.URL.Query().Get(bound.key)); raw != "" {
			value, err := decimal.NewFromString(raw)
			if err != nil {
				return jobs.ListParams{}, pkgerrors.New(pkgerrors.CodeValidation, "must be a number").WithField(bound.key)
			}
			*bound.dest = &value
		}
	}

	return params, nil
}
