package controllers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/koor-works/koor-backend/api/middleware"
	"github.com/koor-works/koor-backend/api/responses"
	"github.com/koor-works/koor-backend/api/validators"
	"github.com/koor-works/koor-backend/internal/users"
	"github.com/koor-works/koor-backend/pkg/db/models"
	"github.com/koor-works/koor-backend/pkg/logger"
)

type profileResponse struct {
	User    *models.User             `json:"user"`
	Profile *models.JobSeekerProfile `json:"profile"`
}

type updateProfileRequest struct {
	Name             *string `json:"name"`
	Gender           *string `json:"gender"`
	DOB              *string `json:"dob"`
	EmploymentStatus *string `json:"employment_status"`
	Country          *string `json:"country"`
	City             *string `json:"city"`
	HighestEducation *string `json:"highest_education"`
	MarketingInfo    *bool   `json:"marketing_info"`
	ProfileImageID   *string `json:"profile_image_id" validate:"omitempty,uuid"`
}

type notificationPrefsRequest struct {
	GetEmail        *bool `json:"get_email"`
	GetNotification *bool `json:"get_notification"`
}

// Me returns the caller's account and job seeker profile.
func Me(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor := middleware.UserFromContext(r.Context())
		user, profile, err := svc.GetProfile(r.Context(), actor.ID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, profileResponse{User: user, Profile: profile})
	}
}

// GetUser returns a public view of another account.
func GetUser(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseURLUUID(chi.URLParam(r, "userID"), "userID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		user, err := svc.GetUser(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, user)
	}
}

// UpdateProfile patches the caller's account and profile attributes.
func UpdateProfile(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req updateProfileRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params := users.UpdateProfileParams{
			Name:             req.Name,
			Gender:           req.Gender,
			EmploymentStatus: req.EmploymentStatus,
			Country:          req.Country,
			City:             req.City,
			HighestEducation: req.HighestEducation,
			MarketingInfo:    req.MarketingInfo,
		}
		if req.DOB != nil {
			dob, err := time.Parse("2006-01-02", *req.DOB)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, invalidField("dob", "must be a YYYY-MM-DD date"))
				return
			}
			params.DOB = &dob
		}
		if req.ProfileImageID != nil {
			id, err := validators.ParseURLUUID(*req.ProfileImageID, "profile_image_id")
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			params.ProfileImageID = &id
		}

		actor := middleware.UserFromContext(r.Context())
		if err := svc.UpdateProfile(r.Context(), actor.ID, params); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		user, profile, err := svc.GetProfile(r.Context(), actor.ID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, profileResponse{User: user, Profile: profile})
	}
}

// UpdateNotificationPrefs toggles email and in-app delivery.
func UpdateNotificationPrefs(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req notificationPrefsRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		actor := middleware.UserFromContext(r.Context())
		err := svc.UpdateNotificationPrefs(r.Context(), actor.ID, users.NotificationPrefsParams{
			GetEmail:        req.GetEmail,
			GetNotification: req.GetNotification,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}

// DeactivateAccount soft-disables the caller's account.
func DeactivateAccount(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor := middleware.UserFromContext(r.Context())
		if err := svc.Deactivate(r.Context(), actor.ID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}
