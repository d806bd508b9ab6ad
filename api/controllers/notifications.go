package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/koor-works/koor-backend/api/middleware"
	"github.com/koor-works/koor-backend/api/responses"
	"github.com/koor-works/koor-backend/api/validators"
	"github.com/koor-works/koor-backend/internal/notifications"
	"github.com/koor-works/koor-backend/pkg/logger"
	"github.com/koor-works/koor-backend/pkg/pagination"
)

// ListNotifications pages through the caller's feed, newest first.
func ListNotifications(svc notifications.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page := pagination.FromRequest(r)
		actor := middleware.UserFromContext(r.Context())
		results, count, err := svc.List(r.Context(), actor.ID, page)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WritePage(w, r, page, count, results)
	}
}

// MarkNotificationSeen flags a single notification as read.
func MarkNotificationSeen(svc notifications.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		notificationID, err := validators.ParseURLUUID(chi.URLParam(r, "notificationID"), "notificationID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		actor := middleware.UserFromContext(r.Context())
		if err := svc.MarkSeen(r.Context(), actor.ID, notificationID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}

// MarkAllNotificationsSeen clears the caller's unseen counter.
func MarkAllNotificationsSeen(svc notifications.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor := middleware.UserFromContext(r.Context())
		if err := svc.MarkAllSeen(r.Context(), actor.ID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}

// UnseenNotificationCount returns the badge counter.
func UnseenNotificationCount(svc notifications.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor := middleware.UserFromContext(r.Context())
		count, err := svc.UnseenCount(r.Context(), actor.ID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]int64{"unseen": count})
	}
}
