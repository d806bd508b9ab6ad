package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/koor-works/koor-backend/api/middleware"
	"github.com/koor-works/koor-backend/api/responses"
	"github.com/koor-works/koor-backend/api/validators"
	"github.com/koor-works/koor-backend/internal/saved"
	"github.com/koor-works/koor-backend/pkg/logger"
	"github.com/koor-works/koor-backend/pkg/pagination"
)

// SaveJob bookmarks a job for the caller.
func SaveJob(svc saved.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jobID, err := validators.ParseURLUUID(chi.URLParam(r, "jobID"), "jobID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		actor := middleware.UserFromContext(r.Context())
		bookmark, err := svc.SaveJob(r.Context(), actor.ID, jobID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, bookmark)
	}
}

// UnsaveJob removes a job bookmark.
func UnsaveJob(svc saved.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jobID, err := validators.ParseURLUUID(chi.URLParam(r, "jobID"), "jobID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		actor := middleware.UserFromContext(r.Context())
		if err := svc.UnsaveJob(r.Context(), actor.ID, jobID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}

// ListSavedJobs pages through the caller's job bookmarks.
func ListSavedJobs(svc saved.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page := pagination.FromRequest(r)
		actor := middleware.UserFromContext(r.Context())
		results, count, err := svc.ListJobs(r.Context(), actor.ID, page)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WritePage(w, r, page, count, results)
	}
}

// SaveTender bookmarks a tender for the caller.
func SaveTender(svc saved.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenderID, err := validators.ParseURLUUID(chi.URLParam(r, "tenderID"), "tenderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		actor := middleware.UserFromContext(r.Context())
		bookmark, err := svc.SaveTender(r.Context(), actor.ID, tenderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, bookmark)
	}
}

// UnsaveTender removes a tender bookmark.
func UnsaveTender(svc saved.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenderID, err := validators.ParseURLUUID(chi.URLParam(r, "tenderID"), "tenderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		actor := middleware.UserFromContext(r.Context())
		if err := svc.UnsaveTender(r.Context(), actor.ID, tenderID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}

// ListSavedTenders pages through the caller's tender bookmarks.
func ListSavedTenders(svc saved.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page := pagination.FromRequest(r)
		actor := middleware.UserFromContext(r.Context())
		results, count, err := svc.ListTenders(r.Context(), actor.ID, page)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WritePage(w, r, page, count, results)
	}
}
