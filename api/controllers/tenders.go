package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/koor-works/koor-backend/api/middleware"
	"github.com/koor-works/koor-backend/api/responses"
	"github.com/koor-works/koor-backend/api/validators"
	"github.com/koor-works/koor-backend/internal/recommend"
	"github.com/koor-works/koor-backend/internal/tenders"
	"github.com/koor-works/koor-backend/pkg/enums"
	pkgerrors "github.com/koor-works/koor-backend/pkg/errors"
	"github.com/koor-works/koor-backend/pkg/logger"
	"github.com/koor-works/koor-backend/pkg/pagination"
)

type tenderRequest struct {
	Title              string          `json:"title" validate:"required"`
	Description        string          `json:"description"`
	BudgetCurrency     string          `json:"budget_currency"`
	BudgetAmount       decimal.Decimal `json:"budget_amount"`
	Country            string          `json:"country"`
	City               string          `json:"city"`
	Address            string          `json:"address"`
	StartDate          *string         `json:"start_date"`
	Deadline           *string         `json:"deadline"`
	CompanyName        string          `json:"company_name"`
	CompanyLogoID      *string         `json:"company_logo_id" validate:"omitempty,uuid"`
	Tags               []string        `json:"tags"`
	Categories         []string        `json:"categories"`
	TenderTypes        []string        `json:"tender_types"`
	Sectors            []string        `json:"sectors"`
	AttachmentMediaIDs []string        `json:"attachment_media_ids" validate:"dive,uuid"`
}

func (req *tenderRequest) toParams(r *http.Request) (tenders.CreateParams, error) {
	startDate, err := parseOptionalDate(req.StartDate, "start_date")
	if err != nil {
		return tenders.CreateParams{}, err
	}
	deadline, err := parseOptionalDate(req.Deadline, "deadline")
	if err != nil {
		return tenders.CreateParams{}, err
	}
	logoID, err := parseOptionalUUID(req.CompanyLogoID, "company_logo_id")
	if err != nil {
		return tenders.CreateParams{}, err
	}
	attachments, err := parseUUIDList(req.AttachmentMediaIDs, "attachment_media_ids")
	if err != nil {
		return tenders.CreateParams{}, err
	}

	actor := middleware.UserFromContext(r.Context())
	return tenders.CreateParams{
		OwnerID:            actor.ID,
		Title:              req.Title,
		Description:        req.Description,
		BudgetCurrency:     req.BudgetCurrency,
		BudgetAmount:       req.BudgetAmount,
		Country:            req.Country,
		City:               req.City,
		Address:            req.Address,
		StartDate:          startDate,
		Deadline:           deadline,
		CompanyName:        req.CompanyName,
		CompanyLogoID:      logoID,
		Tags:               req.Tags,
		Categories:         req.Categories,
		TenderTypes:        req.TenderTypes,
		Sectors:            req.Sectors,
		AttachmentMediaIDs: attachments,
	}, nil
}

// CreateTender posts a new tender on behalf of the caller.
func CreateTender(svc tenders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req tenderRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params, err := req.toParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		tender, err := svc.Create(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, tender)
	}
}

// UpdateTender replaces a posting's editable attributes.
func UpdateTender(svc tenders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenderID, err := validators.ParseURLUUID(chi.URLParam(r, "tenderID"), "tenderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req tenderRequest
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
		tender, err := svc.Update(r.Context(), actor, tenderID, tenders.UpdateParams{CreateParams: params})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, tender)
	}
}

// GetTender resolves a posting by short id or slug.
func GetTender(svc tenders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tender, err := svc.Get(r.Context(), chi.URLParam(r, "tenderID"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, tender)
	}
}

// ListTenders returns a filtered page of postings.
func ListTenders(svc tenders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, err := tenderListParams(r)
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

// MyTenders lists the caller's own postings, regardless of status.
func MyTenders(svc tenders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, err := tenderListParams(r)
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

// SetTenderStatus switches a posting between active, inactive and hold.
func SetTenderStatus(svc tenders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenderID, err := validators.ParseURLUUID(chi.URLParam(r, "tenderID"), "tenderID")
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
		if err := svc.SetStatus(r.Context(), actor, tenderID, enums.PostingStatus(req.Status)); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}

// DeleteTender soft-removes a posting.
func DeleteTender(svc tenders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenderID, err := validators.ParseURLUUID(chi.URLParam(r, "tenderID"), "tenderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		actor := middleware.UserFromContext(r.Context())
		if err := svc.Delete(r.Context(), actor, tenderID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}

// RestoreTender brings a soft-deleted posting back. Admin only.
func RestoreTender(svc tenders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenderID, err := validators.ParseURLUUID(chi.URLParam(r, "tenderID"), "tenderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		actor := middleware.UserFromContext(r.Context())
		if err := svc.Restore(r.Context(), actor, tenderID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}

// SimilarTenders returns suggestion-ranked postings near the given one.
func SimilarTenders(svc recommend.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenderID, err := validators.ParseURLUUID(chi.URLParam(r, "tenderID"), "tenderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", 0, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		results, err := svc.SimilarTenders(r.Context(), tenderID, limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, results)
	}
}

func tenderListParams(r *http.Request) (tenders.ListParams, error) {
	params := tenders.ListParams{
		Search:     strings.TrimSpace(r.URL.Query().Get("search")),
		Country:    strings.TrimSpace(r.URL.Query().Get("country")),
		City:       strings.TrimSpace(r.URL.Query().Get("city")),
		Category:   strings.TrimSpace(r.URL.Query().Get("category")),
		TenderType: strings.TrimSpace(r.URL.Query().Get("tender_type")),
		Sector:     strings.TrimSpace(r.URL.Query().Get("sector")),
		Tag:        strings.TrimSpace(r.URL.Query().Get("tag")),
		Page:       pagination.FromRequest(r),
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
				return tenders.ListParams{}, pkgerrors.New(pkgerrors.CodeValidation, "must be a number").WithField(bound.key)
			}
			*bound.dest = &value
		}
	}

	return params, nil
}
