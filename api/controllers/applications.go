package controllers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/koor-works/koor-backend/api/middleware"
	"github.com/koor-works/koor-backend/api/responses"
	"github.com/koor-works/koor-backend/api/validators"
	"github.com/koor-works/koor-backend/internal/applications"
	"github.com/koor-works/koor-backend/pkg/enums"
	"github.com/koor-works/koor-backend/pkg/logger"
	"github.com/koor-works/koor-backend/pkg/pagination"
)

type applyJobRequest struct {
	JobID       string  `json:"job_id" validate:"required,uuid"`
	ShortLetter string  `json:"short_letter"`
	ResumeID    *string `json:"resume_id" validate:"omitempty,uuid"`
}

type applyTenderRequest struct {
	TenderID     string  `json:"tender_id" validate:"required,uuid"`
	ShortLetter  string  `json:"short_letter"`
	AttachmentID *string `json:"attachment_id" validate:"omitempty,uuid"`
}

type decideRequest struct {
	Action      string  `json:"action" validate:"required,oneof=shortlisted rejected blacklisted planned_interviews"`
	InterviewAt *string `json:"interview_at"`
	Reason      string  `json:"reason"`
}

type blacklistRequest struct {
	UserID string `json:"user_id" validate:"required,uuid"`
	Reason string `json:"reason"`
}

func (req *decideRequest) toParams() (applications.DecideParams, error) {
	params := applications.DecideParams{
		Action: enums.DecideAction(req.Action),
		Reason: req.Reason,
	}
	if req.InterviewAt != nil && *req.InterviewAt != "" {
		at, err := time.Parse(time.RFC3339, *req.InterviewAt)
		if err != nil {
			return applications.DecideParams{}, invalidField("interview_at", "must be an RFC3339 timestamp")
		}
		params.InterviewAt = &at
	}
	return params, nil
}

// ApplyToJob submits a job application for the caller.
func ApplyToJob(svc applications.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req applyJobRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		jobID, err := validators.ParseURLUUID(req.JobID, "job_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		resumeID, err := parseOptionalUUID(req.ResumeID, "resume_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		actor := middleware.UserFromContext(r.Context())
		application, err := svc.ApplyToJob(r.Context(), actor, applications.ApplyJobParams{
			JobID:       jobID,
			ShortLetter: req.ShortLetter,
			ResumeID:    resumeID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, application)
	}
}

// UpdateJobApplication edits an application within its same-day window.
func UpdateJobApplication(svc applications.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		applicationID, err := validators.ParseURLUUID(chi.URLParam(r, "applicationID"), "applicationID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req applyJobRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		jobID, err := validators.ParseURLUUID(req.JobID, "job_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		resumeID, err := parseOptionalUUID(req.ResumeID, "resume_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		actor := middleware.UserFromContext(r.Context())
		application, err := svc.UpdateJobApplication(r.Context(), actor, applicationID, applications.ApplyJobParams{
			JobID:       jobID,
			ShortLetter: req.ShortLetter,
			ResumeID:    resumeID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, application)
	}
}

// RevokeJobApplication withdraws an application within its same-day window.
func RevokeJobApplication(svc applications.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		applicationID, err := validators.ParseURLUUID(chi.URLParam(r, "applicationID"), "applicationID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		actor := middleware.UserFromContext(r.Context())
		if err := svc.RevokeJobApplication(r.Context(), actor, applicationID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}

// DecideJob records the employer's verdict on one application.
func DecideJob(svc applications.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		applicationID, err := validators.ParseURLUUID(chi.URLParam(r, "applicationID"), "applicationID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req decideRequest
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
		application, err := svc.DecideJob(r.Context(), actor, applicationID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, application)
	}
}

// JobApplicants lists applications for an owned posting, oldest first.
func JobApplicants(svc applications.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jobID, err := validators.ParseURLUUID(chi.URLParam(r, "jobID"), "jobID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		includeBlacklisted, err := validators.ParseQueryBool(r, "include_blacklisted")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		page := pagination.FromRequest(r)
		actor := middleware.UserFromContext(r.Context())
		results, count, err := svc.JobApplicants(r.Context(), actor, jobID, includeBlacklisted, page)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WritePage(w, r, page, count, results)
	}
}

// MyJobApplications lists the caller's applications, newest first.
func MyJobApplications(svc applications.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page := pagination.FromRequest(r)
		actor := middleware.UserFromContext(r.Context())
		results, count, err := svc.MyJobApplications(r.Context(), actor.ID, page)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WritePage(w, r, page, count, results)
	}
}

// ApplyToTender submits a tender application for the caller.
func ApplyToTender(svc applications.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req applyTenderRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		tenderID, err := validators.ParseURLUUID(req.TenderID, "tender_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		attachmentID, err := parseOptionalUUID(req.AttachmentID, "attachment_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		actor := middleware.UserFromContext(r.Context())
		application, err := svc.ApplyToTender(r.Context(), actor, applications.ApplyTenderParams{
			TenderID:     tenderID,
			ShortLetter:  req.ShortLetter,
			AttachmentID: attachmentID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, application)
	}
}

// UpdateTenderApplication edits a submission within its same-day window.
func UpdateTenderApplication(svc applications.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		applicationID, err := validators.ParseURLUUID(chi.URLParam(r, "applicationID"), "applicationID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req applyTenderRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		tenderID, err := validators.ParseURLUUID(req.TenderID, "tender_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		attachmentID, err := parseOptionalUUID(req.AttachmentID, "attachment_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		actor := middleware.UserFromContext(r.Context())
		application, err := svc.UpdateTenderApplication(r.Context(), actor, applicationID, applications.ApplyTenderParams{
			TenderID:     tenderID,
			ShortLetter:  req.ShortLetter,
			AttachmentID: attachmentID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, application)
	}
}

// RevokeTenderApplication withdraws a submission within its same-day window.
func RevokeTenderApplication(svc applications.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		applicationID, err := validators.ParseURLUUID(chi.URLParam(r, "applicationID"), "applicationID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		actor := middleware.UserFromContext(r.Context())
		if err := svc.RevokeTenderApplication(r.Context(), actor, applicationID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}

// DecideTender records the owner's verdict on one submission.
func DecideTender(svc applications.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		applicationID, err := validators.ParseURLUUID(chi.URLParam(r, "applicationID"), "applicationID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req decideRequest
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
		application, err := svc.DecideTender(r.Context(), actor, applicationID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, application)
	}
}

// TenderApplicants lists submissions for an owned posting, oldest first.
func TenderApplicants(svc applications.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenderID, err := validators.ParseURLUUID(chi.URLParam(r, "tenderID"), "tenderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		includeBlacklisted, err := validators.ParseQueryBool(r, "include_blacklisted")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		page := pagination.FromRequest(r)
		actor := middleware.UserFromContext(r.Context())
		results, count, err := svc.TenderApplicants(r.Context(), actor, tenderID, includeBlacklisted, page)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WritePage(w, r, page, count, results)
	}
}

// MyTenderApplications lists the caller's submissions, newest first.
func MyTenderApplications(svc applications.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page := pagination.FromRequest(r)
		actor := middleware.UserFromContext(r.Context())
		results, count, err := svc.MyTenderApplications(r.Context(), actor.ID, page)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WritePage(w, r, page, count, results)
	}
}

// BlacklistUser adds an applicant to the caller's blacklist.
func BlacklistUser(svc applications.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req blacklistRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		userID, err := validators.ParseURLUUID(req.UserID, "user_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		actor := middleware.UserFromContext(r.Context())
		if err := svc.BlacklistUser(r.Context(), actor, userID, req.Reason); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]string{"detail": "user blacklisted"})
	}
}

// UnblacklistUser removes an applicant from the caller's blacklist.
func UnblacklistUser(svc applications.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := validators.ParseURLUUID(chi.URLParam(r, "userID"), "userID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		actor := middleware.UserFromContext(r.Context())
		if err := svc.UnblacklistUser(r.Context(), actor, userID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}

// ListBlacklist pages through the caller's blacklist.
func ListBlacklist(svc applications.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page := pagination.FromRequest(r)
		actor := middleware.UserFromContext(r.Context())
		results, count, err := svc.ListBlacklist(r.Context(), actor, page)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WritePage(w, r, page, count, results)
	}
}
