package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/koor-works/koor-backend/api/controllers"
	"github.com/koor-works/koor-backend/api/middleware"
	"github.com/koor-works/koor-backend/internal/applications"
	"github.com/koor-works/koor-backend/internal/auth"
	"github.com/koor-works/koor-backend/internal/chat"
	"github.com/koor-works/koor-backend/internal/filters"
	"github.com/koor-works/koor-backend/internal/jobs"
	"github.com/koor-works/koor-backend/internal/media"
	"github.com/koor-works/koor-backend/internal/notifications"
	"github.com/koor-works/koor-backend/internal/recommend"
	"github.com/koor-works/koor-backend/internal/saved"
	"github.com/koor-works/koor-backend/internal/tenders"
	"github.com/koor-works/koor-backend/internal/users"
	"github.com/koor-works/koor-backend/pkg/config"
	"github.com/koor-works/koor-backend/pkg/enums"
	"github.com/koor-works/koor-backend/pkg/logger"
)

// RouterParams carries everything the HTTP surface depends on.
type RouterParams struct {
	Config   *config.Config
	Logger   *logger.Logger
	Database controllers.Pinger
	Cache    controllers.Pinger

	Auth          auth.Service
	Users         users.Service
	Jobs          jobs.Service
	Tenders       tenders.Service
	Applications  applications.Service
	Saved         saved.Service
	Filters       filters.Service
	Recommend     recommend.Service
	Chat          chat.Service
	Notifications notifications.Service
	Media         media.Service
}

// NewRouter builds the full route tree. Authentication is a router-level
// concern: everything under /api/v1 except the auth entry points requires a
// valid access token.
func NewRouter(p RouterParams) http.Handler {
	cfg, logg := p.Config, p.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.CORS),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, p.Database, p.Cache))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Post("/register", controllers.Register(p.Auth, logg))
		r.Post("/login", controllers.Login(p.Auth, logg))
		r.Post("/refresh", controllers.Refresh(p.Auth, logg))
		r.Post("/otp/send", controllers.SendOTP(p.Auth, logg))
		r.Post("/otp/verify", controllers.VerifyOTP(p.Auth, logg))
		r.Post("/password/reset", controllers.ResetPassword(p.Auth, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(p.Auth, logg))
			r.Post("/logout", controllers.Logout(p.Auth, logg))
			r.Post("/logout-all", controllers.LogoutAll(p.Auth, logg))
			r.Post("/password/change", controllers.ChangePassword(p.Auth, logg))
		})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(p.Auth, logg))

		r.Route("/users", func(r chi.Router) {
			r.Get("/me", controllers.Me(p.Users, logg))
			r.Patch("/me/profile", controllers.UpdateProfile(p.Users, logg))
			r.Patch("/me/notification-prefs", controllers.UpdateNotificationPrefs(p.Users, logg))
			r.Post("/me/deactivate", controllers.DeactivateAccount(p.Users, logg))
			r.Get("/{userID}", controllers.GetUser(p.Users, logg))
		})

		r.Route("/jobs", func(r chi.Router) {
			r.Get("/", controllers.ListJobs(p.Jobs, logg))
			r.Get("/{jobID}", controllers.GetJob(p.Jobs, logg))
			r.Get("/{jobID}/similar", controllers.SimilarJobs(p.Recommend, logg))

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(logg, enums.RoleEmployer))
				r.Post("/", controllers.CreateJob(p.Jobs, logg))
				r.Get("/mine", controllers.MyJobs(p.Jobs, logg))
				r.Patch("/{jobID}", controllers.UpdateJob(p.Jobs, logg))
				r.Post("/{jobID}/status", controllers.SetJobStatus(p.Jobs, logg))
				r.Delete("/{jobID}", controllers.DeleteJob(p.Jobs, logg))
			})

			r.With(middleware.RequireRole(logg, enums.RoleAdmin)).
				Post("/{jobID}/restore", controllers.RestoreJob(p.Jobs, logg))
		})

		r.Route("/tenders", func(r chi.Router) {
			r.Get("/", controllers.ListTenders(p.Tenders, logg))
			r.Get("/{tenderID}", controllers.GetTender(p.Tenders, logg))
			r.Get("/{tenderID}/similar", controllers.SimilarTenders(p.Recommend, logg))

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(logg, enums.RoleEmployer))
				r.Post("/", controllers.CreateTender(p.Tenders, logg))
				r.Get("/mine", controllers.MyTenders(p.Tenders, logg))
				r.Patch("/{tenderID}", controllers.UpdateTender(p.Tenders, logg))
				r.Post("/{tenderID}/status", controllers.SetTenderStatus(p.Tenders, logg))
				r.Delete("/{tenderID}", controllers.DeleteTender(p.Tenders, logg))
			})

			r.With(middleware.RequireRole(logg, enums.RoleAdmin)).
				Post("/{tenderID}/restore", controllers.RestoreTender(p.Tenders, logg))
		})

		r.Route("/applications", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(logg, enums.RoleJobSeeker))
				r.Post("/jobs", controllers.ApplyToJob(p.Applications, logg))
				r.Get("/jobs/mine", controllers.MyJobApplications(p.Applications, logg))
				r.Patch("/jobs/{applicationID}", controllers.UpdateJobApplication(p.Applications, logg))
				r.Delete("/jobs/{applicationID}", controllers.RevokeJobApplication(p.Applications, logg))
			})

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(logg, enums.RoleVendor))
				r.Post("/tenders", controllers.ApplyToTender(p.Applications, logg))
				r.Get("/tenders/mine", controllers.MyTenderApplications(p.Applications, logg))
				r.Patch("/tenders/{applicationID}", controllers.UpdateTenderApplication(p.Applications, logg))
				r.Delete("/tenders/{applicationID}", controllers.RevokeTenderApplication(p.Applications, logg))
			})

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(logg, enums.RoleEmployer))
				r.Get("/jobs/{jobID}/applicants", controllers.JobApplicants(p.Applications, logg))
				r.Post("/jobs/{applicationID}/decide", controllers.DecideJob(p.Applications, logg))
				r.Get("/tenders/{tenderID}/applicants", controllers.TenderApplicants(p.Applications, logg))
				r.Post("/tenders/{applicationID}/decide", controllers.DecideTender(p.Applications, logg))
			})
		})

		r.Route("/blacklist", func(r chi.Router) {
			r.Use(middleware.RequireRole(logg, enums.RoleEmployer))
			r.Get("/", controllers.ListBlacklist(p.Applications, logg))
			r.Post("/", controllers.BlacklistUser(p.Applications, logg))
			r.Delete("/{userID}", controllers.UnblacklistUser(p.Applications, logg))
		})

		r.Route("/saved", func(r chi.Router) {
			r.Get("/jobs", controllers.ListSavedJobs(p.Saved, logg))
			r.Post("/jobs/{jobID}", controllers.SaveJob(p.Saved, logg))
			r.Delete("/jobs/{jobID}", controllers.UnsaveJob(p.Saved, logg))
			r.Get("/tenders", controllers.ListSavedTenders(p.Saved, logg))
			r.Post("/tenders/{tenderID}", controllers.SaveTender(p.Saved, logg))
			r.Delete("/tenders/{tenderID}", controllers.UnsaveTender(p.Saved, logg))
		})

		r.Route("/filters", func(r chi.Router) {
			r.Get("/jobs", controllers.ListJobFilters(p.Filters, logg))
			r.Post("/jobs", controllers.CreateJobFilter(p.Filters, logg))
			r.Patch("/jobs/{filterID}", controllers.UpdateJobFilter(p.Filters, logg))
			r.Delete("/jobs/{filterID}", controllers.DeleteJobFilter(p.Filters, logg))
			r.Get("/tenders", controllers.ListTenderFilters(p.Filters, logg))
			r.Post("/tenders", controllers.CreateTenderFilter(p.Filters, logg))
			r.Patch("/tenders/{filterID}", controllers.UpdateTenderFilter(p.Filters, logg))
			r.Delete("/tenders/{filterID}", controllers.DeleteTenderFilter(p.Filters, logg))
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", controllers.ListNotifications(p.Notifications, logg))
			r.Get("/unseen-count", controllers.UnseenNotificationCount(p.Notifications, logg))
			r.Post("/{notificationID}/seen", controllers.MarkNotificationSeen(p.Notifications, logg))
			r.Post("/seen-all", controllers.MarkAllNotificationsSeen(p.Notifications, logg))
		})

		r.Route("/chat", func(r chi.Router) {
			r.Post("/conversations", controllers.ResolveConversation(p.Chat, logg))
			r.Get("/conversations", controllers.ListConversations(p.Chat, logg))
			r.Get("/conversations/{conversationID}/messages", controllers.ConversationHistory(p.Chat, logg))
			r.Post("/conversations/{conversationID}/messages", controllers.SendMessage(p.Chat, logg))
			r.Post("/conversations/{conversationID}/read", controllers.MarkConversationRead(p.Chat, logg))
			r.Delete("/conversations/{conversationID}", controllers.LeaveConversation(p.Chat, logg))
			r.Get("/ws", controllers.ChatSocket(p.Chat, logg))
		})

		r.Route("/media", func(r chi.Router) {
			r.Post("/", controllers.UploadMedia(p.Media, logg))
			r.Get("/mine", controllers.MyMedia(p.Media, logg))
			r.Get("/{mediaID}", controllers.GetMedia(p.Media, logg))
			r.Get("/{mediaID}/download", controllers.DownloadMedia(p.Media, logg))
			r.Delete("/{mediaID}", controllers.DeleteMedia(p.Media, logg))
		})
	})

	return r
}
