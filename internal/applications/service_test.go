package applications

import (
	"context"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/koor-works/koor-backend/internal/jobs"
	"github.com/koor-works/koor-backend/internal/notifications"
	"github.com/koor-works/koor-backend/internal/tenders"
	"github.com/koor-works/koor-backend/internal/users"
	"github.com/koor-works/koor-backend/pkg/db/models"
	"github.com/koor-works/koor-backend/pkg/enums"
	pkgerrors "github.com/koor-works/koor-backend/pkg/errors"
	"github.com/koor-works/koor-backend/pkg/logger"
	"github.com/koor-works/koor-backend/pkg/pagination"
)

type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time { return c.now }

type appFixture struct {
	svc      Service
	userSvc  users.Service
	notifier notifications.Service
	db       *gorm.DB
	clock    *testClock
}

func newAppFixture(t *testing.T) *appFixture {
	t.Helper()
	dsn := fmt.Sprintf("file:applications_%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{}, &models.JobSeekerProfile{}, &models.Media{},
		&models.Job{}, &models.JobLanguage{}, &models.JobAttachment{},
		&models.Tender{}, &models.TenderAttachment{},
		&models.AppliedJob{}, &models.AppliedTender{}, &models.BlackList{},
		&models.Notification{},
	))

	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	userRepo := users.NewRepository(db)

	userSvc, err := users.NewService(users.ServiceParams{Repo: userRepo, Logger: logg})
	require.NoError(t, err)
	notifier, err := notifications.NewService(notifications.ServiceParams{
		Repo:     notifications.NewRepository(db),
		UserRepo: userRepo,
		Logger:   logg,
	})
	require.NoError(t, err)

	clock := &testClock{now: time.Now().Truncate(time.Second)}
	svc, err := NewService(ServiceParams{
		Repo:       NewRepository(db),
		JobRepo:    jobs.NewRepository(db),
		TenderRepo: tenders.NewRepository(db),
		Users:      userSvc,
		Notifier:   notifier,
		Logger:     logg,
		Now:        clock.Now,
	})
	require.NoError(t, err)
	return &appFixture{svc: svc, userSvc: userSvc, notifier: notifier, db: db, clock: clock}
}

func (f *appFixture) seedUser(t *testing.T, role enums.Role) *models.User {
	t.Helper()
	addr := fmt.Sprintf("%s@example.com", uuid.NewString())
	user := &models.User{Email: &addr, Role: role, Name: "Test User", IsActive: true, GetNotification: true}
	require.NoError(t, f.db.Create(user).Error)
	return user
}

func (f *appFixture) seedSeeker(t *testing.T) *models.User {
	t.Helper()
	user := f.seedUser(t, enums.RoleJobSeeker)
	gender, status, country, city, edu := "male", "unemployed", "Qatar", "Doha", "bachelor"
	dob := time.Date(1995, 3, 14, 0, 0, 0, 0, time.UTC)
	profile := &models.JobSeekerProfile{
		UserID: user.ID, Gender: &gender, EmploymentStatus: &status,
		Country: &country, City: &city, HighestEducation: &edu, DOB: &dob,
	}
	require.NoError(t, f.db.Create(profile).Error)
	return user
}

func (f *appFixture) seedJob(t *testing.T, ownerID uuid.UUID) *models.Job {
	t.Helper()
	job := &models.Job{
		JobID:  fmt.Sprintf("1%03d-%04d", len(t.Name())%1000, 1000+len(t.Name())),
		Slug:   fmt.Sprintf("job-%s", uuid.NewString()),
		UserID: ownerID,
		Title:  "Site Engineer",
		Status: enums.PostingStatusActive,
	}
	require.NoError(t, f.db.Create(job).Error)
	return job
}

func (f *appFixture) seedTender(t *testing.T, ownerID uuid.UUID) *models.Tender {
	t.Helper()
	tender := &models.Tender{
		TenderID: fmt.Sprintf("2%03d-%04d", len(t.Name())%1000, 1000+len(t.Name())),
		Slug:     fmt.Sprintf("tender-%s", uuid.NewString()),
		UserID:   ownerID,
		Title:    "HVAC Install",
		Status:   enums.PostingStatusActive,
	}
	require.NoError(t, f.db.Create(tender).Error)
	return tender
}

func TestApplyToJobRequiresCompleteProfile(t *testing.T) {
	f := newAppFixture(t)
	seeker := f.seedUser(t, enums.RoleJobSeeker) // no profile row
	job := f.seedJob(t, f.seedUser(t, enums.RoleEmployer).ID)

	_, err := f.svc.ApplyToJob(context.Background(), seeker, ApplyJobParams{JobID: job.ID})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeProfileIncomplete, typed.Code())
}

func TestApplyToJobNotifiesOwnerAndRejectsDuplicates(t *testing.T) {
	f := newAppFixture(t)
	seeker := f.seedSeeker(t)
	employer := f.seedUser(t, enums.RoleEmployer)
	job := f.seedJob(t, employer.ID)

	app, err := f.svc.ApplyToJob(context.Background(), seeker, ApplyJobParams{JobID: job.ID, ShortLetter: "I can start Monday."})
	require.NoError(t, err)
	require.Equal(t, seeker.ID, app.UserID)

	rows, _, err := f.notifier.List(context.Background(), employer.ID, pagination.Params{Limit: 20})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, enums.NotificationTypeApplied, rows[0].Kind)

	_, err = f.svc.ApplyToJob(context.Background(), seeker, ApplyJobParams{JobID: job.ID})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeConflict, typed.Code())
}

func TestApplyToClosedJobIsRejected(t *testing.T) {
	f := newAppFixture(t)
	seeker := f.seedSeeker(t)
	job := f.seedJob(t, f.seedUser(t, enums.RoleEmployer).ID)
	require.NoError(t, f.db.Model(job).Update("status", enums.PostingStatusInactive).Error)

	_, err := f.svc.ApplyToJob(context.Background(), seeker, ApplyJobParams{JobID: job.ID})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeClosed, typed.Code())
}

func TestJobApplicationEditableSameDayOnly(t *testing.T) {
	f := newAppFixture(t)
	seeker := f.seedSeeker(t)
	job := f.seedJob(t, f.seedUser(t, enums.RoleEmployer).ID)

	app, err := f.svc.ApplyToJob(context.Background(), seeker, ApplyJobParams{JobID: job.ID, ShortLetter: "v1"})
	require.NoError(t, err)

	updated, err := f.svc.UpdateJobApplication(context.Background(), seeker, app.ID, ApplyJobParams{ShortLetter: "v2"})
	require.NoError(t, err)
	require.Equal(t, "v2", updated.ShortLetter)

	f.clock.now = f.clock.now.Add(48 * time.Hour)
	_, err = f.svc.UpdateJobApplication(context.Background(), seeker, app.ID, ApplyJobParams{ShortLetter: "v3"})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeClosed, typed.Code())

	err = f.svc.RevokeJobApplication(context.Background(), seeker, app.ID)
	typed = pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeClosed, typed.Code())
}

func TestDecideJobShortlistAndInterview(t *testing.T) {
	f := newAppFixture(t)
	seeker := f.seedSeeker(t)
	employer := f.seedUser(t, enums.RoleEmployer)
	job := f.seedJob(t, employer.ID)
	app, err := f.svc.ApplyToJob(context.Background(), seeker, ApplyJobParams{JobID: job.ID})
	require.NoError(t, err)

	decided, err := f.svc.DecideJob(context.Background(), employer, app.ID, DecideParams{Action: enums.DecideActionShortlisted})
	require.NoError(t, err)
	require.NotNil(t, decided.ShortlistedAt)
	require.Nil(t, decided.RejectedAt)

	interviewAt := f.clock.now.Add(72 * time.Hour)
	decided, err = f.svc.DecideJob(context.Background(), employer, app.ID, DecideParams{
		Action:      enums.DecideActionPlannedInterviews,
		InterviewAt: &interviewAt,
	})
	require.NoError(t, err)
	require.NotNil(t, decided.InterviewAt)

	rows, _, err := f.notifier.List(context.Background(), seeker.ID, pagination.Params{Limit: 20})
	require.NoError(t, err)
	require.Len(t, rows, 2)
}

func TestDecideJobByStrangerIsForbidden(t *testing.T) {
	f := newAppFixture(t)
	seeker := f.seedSeeker(t)
	employer := f.seedUser(t, enums.RoleEmployer)
	stranger := f.seedUser(t, enums.RoleEmployer)
	job := f.seedJob(t, employer.ID)
	app, err := f.svc.ApplyToJob(context.Background(), seeker, ApplyJobParams{JobID: job.ID})
	require.NoError(t, err)

	_, err = f.svc.DecideJob(context.Background(), stranger, app.ID, DecideParams{Action: enums.DecideActionRejected})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeForbidden, typed.Code())
	require.Equal(t, pkgerrors.PermissionDeniedMessage, typed.Message())
}

func TestBlacklistExcludesApplicantFromListing(t *testing.T) {
	f := newAppFixture(t)
	first := f.seedSeeker(t)
	second := f.seedSeeker(t)
	employer := f.seedUser(t, enums.RoleEmployer)
	job := f.seedJob(t, employer.ID)

	firstApp, err := f.svc.ApplyToJob(context.Background(), first, ApplyJobParams{JobID: job.ID})
	require.NoError(t, err)
	_, err = f.svc.ApplyToJob(context.Background(), second, ApplyJobParams{JobID: job.ID})
	require.NoError(t, err)

	_, err = f.svc.DecideJob(context.Background(), employer, firstApp.ID, DecideParams{
		Action: enums.DecideActionBlacklisted,
		Reason: "fabricated references",
	})
	require.NoError(t, err)

	rows, count, err := f.svc.JobApplicants(context.Background(), employer, job.ID, false, pagination.Params{Limit: 20})
	require.NoError(t, err)
	require.EqualValues(t, 1, count)
	require.Equal(t, second.ID, rows[0].UserID)

	// Explicit include shows the blacklisted applicant again.
	_, count, err = f.svc.JobApplicants(context.Background(), employer, job.ID, true, pagination.Params{Limit: 20})
	require.NoError(t, err)
	require.EqualValues(t, 2, count)

	entries, _, err := f.svc.ListBlacklist(context.Background(), employer, pagination.Params{Limit: 20})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, first.ID, entries[0].BlacklistedUserID)

	require.NoError(t, f.svc.UnblacklistUser(context.Background(), employer, first.ID))
	_, count, err = f.svc.JobApplicants(context.Background(), employer, job.ID, false, pagination.Params{Limit: 20})
	require.NoError(t, err)
	require.EqualValues(t, 2, count)
}

func TestApplyToTenderRequiresVendorRole(t *testing.T) {
	f := newAppFixture(t)
	seeker := f.seedSeeker(t)
	tender := f.seedTender(t, f.seedUser(t, enums.RoleEmployer).ID)

	_, err := f.svc.ApplyToTender(context.Background(), seeker, ApplyTenderParams{TenderID: tender.ID})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeForbidden, typed.Code())
}

func TestTenderApplicationFlow(t *testing.T) {
	f := newAppFixture(t)
	vendor := f.seedUser(t, enums.RoleVendor)
	employer := f.seedUser(t, enums.RoleEmployer)
	tender := f.seedTender(t, employer.ID)

	app, err := f.svc.ApplyToTender(context.Background(), vendor, ApplyTenderParams{TenderID: tender.ID, ShortLetter: "Quote attached."})
	require.NoError(t, err)

	_, err = f.svc.DecideTender(context.Background(), employer, app.ID, DecideParams{Action: enums.DecideActionShortlisted})
	require.NoError(t, err)

	mine, count, err := f.svc.MyTenderApplications(context.Background(), vendor.ID, pagination.Params{Limit: 20})
	require.NoError(t, err)
	require.EqualValues(t, 1, count)
	require.NotNil(t, mine[0].ShortlistedAt)

	// Interview scheduling is a job-side action only.
	at := time.Now()
	_, err = f.svc.DecideTender(context.Background(), employer, app.ID, DecideParams{Action: enums.DecideActionPlannedInterviews, InterviewAt: &at})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeValidation, typed.Code())
}
