package jobs

import (
	"context"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/koor-works/koor-backend/internal/users"
	"github.com/koor-works/koor-backend/pkg/db/models"
	"github.com/koor-works/koor-backend/pkg/enums"
	pkgerrors "github.com/koor-works/koor-backend/pkg/errors"
	"github.com/koor-works/koor-backend/pkg/logger"
	"github.com/koor-works/koor-backend/pkg/pagination"
	"github.com/koor-works/koor-backend/pkg/shortid"
)

func setupJobsTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:jobs_%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{}, &models.JobSeekerProfile{}, &models.Media{},
		&models.Job{}, &models.JobLanguage{}, &models.JobAttachment{},
	))
	return db
}

func newTestJobService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()
	db := setupJobsTestDB(t)
	svc, err := NewService(ServiceParams{
		Repo:     NewRepository(db),
		UserRepo: users.NewRepository(db),
		Logger:   logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
	})
	require.NoError(t, err)
	return svc, db
}

func seedUser(t *testing.T, db *gorm.DB, role enums.Role) *models.User {
	t.Helper()
	addr := fmt.Sprintf("%s@example.com", uuid.NewString())
	user := &models.User{Email: &addr, Role: role, IsActive: true}
	require.NoError(t, db.Create(user).Error)
	return user
}

func basicPosting(ownerID uuid.UUID, title string) CreateParams {
	return CreateParams{
		OwnerID:         ownerID,
		Title:           title,
		Description:     "Pour foundations and supervise the crew.",
		BudgetCurrency:  "USD",
		BudgetAmount:    decimal.NewFromInt(3500),
		BudgetPayPeriod: enums.PayPeriodMonthly,
		Country:         "Qatar",
		City:            "Doha",
		CompanyName:     "Halcyon Build",
		IsFullTime:      true,
		Categories:      []string{"construction"},
		Languages: []LanguageParams{
			{Language: "English", Spoken: "basic", Written: "basic"},
		},
	}
}

func TestCreateAssignsShortIDAndSlug(t *testing.T) {
	svc, db := newTestJobService(t)
	employer := seedUser(t, db, enums.RoleEmployer)

	job, err := svc.Create(context.Background(), basicPosting(employer.ID, "Site Engineer"))
	require.NoError(t, err)
	require.True(t, shortid.Valid(job.JobID))
	require.Equal(t, "site-engineer-"+job.JobID, job.Slug)
	require.Equal(t, enums.PostingStatusActive, job.Status)
	require.Len(t, job.Languages, 1)
}

func TestCreateRejectsJobSeeker(t *testing.T) {
	svc, db := newTestJobService(t)
	seeker := seedUser(t, db, enums.RoleJobSeeker)

	_, err := svc.Create(context.Background(), basicPosting(seeker.ID, "Site Engineer"))
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeForbidden, typed.Code())
	require.Equal(t, pkgerrors.PermissionDeniedMessage, typed.Message())
}

func TestCreateValidatesLanguages(t *testing.T) {
	svc, db := newTestJobService(t)
	employer := seedUser(t, db, enums.RoleEmployer)

	params := basicPosting(employer.ID, "Site Engineer")
	params.Languages = []LanguageParams{{Language: "English", Spoken: "fluent"}}

	_, err := svc.Create(context.Background(), params)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeValidation, typed.Code())
	require.Contains(t, typed.Fields(), "languages")
}

func TestCreateByAdminFlagsPosting(t *testing.T) {
	svc, db := newTestJobService(t)
	admin := seedUser(t, db, enums.RoleAdmin)

	job, err := svc.Create(context.Background(), basicPosting(admin.ID, "Welder"))
	require.NoError(t, err)
	require.True(t, job.PostedByAdmin)
}

func TestGetResolvesShortIDAndSlug(t *testing.T) {
	svc, db := newTestJobService(t)
	employer := seedUser(t, db, enums.RoleEmployer)
	created, err := svc.Create(context.Background(), basicPosting(employer.ID, "Crane Operator"))
	require.NoError(t, err)

	byShortID, err := svc.Get(context.Background(), created.JobID)
	require.NoError(t, err)
	require.Equal(t, created.ID, byShortID.ID)

	bySlug, err := svc.Get(context.Background(), created.Slug)
	require.NoError(t, err)
	require.Equal(t, created.ID, bySlug.ID)

	_, err = svc.Get(context.Background(), "9999-0000")
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestUpdateRegeneratesSlugOnRename(t *testing.T) {
	svc, db := newTestJobService(t)
	employer := seedUser(t, db, enums.RoleEmployer)
	created, err := svc.Create(context.Background(), basicPosting(employer.ID, "Electrician"))
	require.NoError(t, err)

	params := UpdateParams{CreateParams: basicPosting(employer.ID, "Senior Electrician")}
	params.Languages = []LanguageParams{
		{Language: "English", Spoken: "fluent", Written: "fluent"},
		{Language: "Arabic", Spoken: "basic", Written: "none"},
	}
	updated, err := svc.Update(context.Background(), employer, created.ID, params)
	require.NoError(t, err)
	require.Equal(t, "Senior Electrician", updated.Title)
	require.Equal(t, "senior-electrician-"+created.JobID, updated.Slug)
	require.Len(t, updated.Languages, 2)
}

func TestUpdateByStrangerIsForbidden(t *testing.T) {
	svc, db := newTestJobService(t)
	owner := seedUser(t, db, enums.RoleEmployer)
	other := seedUser(t, db, enums.RoleEmployer)
	created, err := svc.Create(context.Background(), basicPosting(owner.ID, "Plumber"))
	require.NoError(t, err)

	_, err = svc.Update(context.Background(), other, created.ID, UpdateParams{CreateParams: basicPosting(owner.ID, "Plumber")})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeForbidden, typed.Code())
}

func TestSetStatusAndDelete(t *testing.T) {
	svc, db := newTestJobService(t)
	employer := seedUser(t, db, enums.RoleEmployer)
	created, err := svc.Create(context.Background(), basicPosting(employer.ID, "Foreman"))
	require.NoError(t, err)

	require.NoError(t, svc.SetStatus(context.Background(), employer, created.ID, enums.PostingStatusHold))
	held, err := svc.GetByID(context.Background(), created.ID)
	require.NoError(t, err)
	require.Equal(t, enums.PostingStatusHold, held.Status)

	err = svc.SetStatus(context.Background(), employer, created.ID, enums.PostingStatus("archived"))
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeValidation, typed.Code())

	require.NoError(t, svc.Delete(context.Background(), employer, created.ID))
	_, err = svc.GetByID(context.Background(), created.ID)
	typed = pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestListFiltersByOwnerAndStatus(t *testing.T) {
	svc, db := newTestJobService(t)
	first := seedUser(t, db, enums.RoleEmployer)
	second := seedUser(t, db, enums.RoleEmployer)

	mine, err := svc.Create(context.Background(), basicPosting(first.ID, "Mason"))
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), basicPosting(second.ID, "Painter"))
	require.NoError(t, err)
	require.NoError(t, svc.SetStatus(context.Background(), first, mine.ID, enums.PostingStatusInactive))

	// Public listing only shows active postings.
	rows, count, err := svc.List(context.Background(), ListParams{Page: pagination.Params{Limit: 20}})
	require.NoError(t, err)
	require.EqualValues(t, 1, count)
	require.Equal(t, "Painter", rows[0].Title)

	// Owner dashboard sees every status.
	rows, count, err = svc.List(context.Background(), ListParams{
		OwnerID:  first.ID,
		Statuses: []enums.PostingStatus{enums.PostingStatusActive, enums.PostingStatusInactive, enums.PostingStatusHold},
		Page:     pagination.Params{Limit: 20},
	})
	require.NoError(t, err)
	require.EqualValues(t, 1, count)
	require.Equal(t, "Mason", rows[0].Title)
}

func TestExpiredIsDerivedFromDeadline(t *testing.T) {
	past := time.Now().Add(-72 * time.Hour)
	job := &models.Job{Deadline: &past}
	require.True(t, job.Expired(time.Now()))

	future := time.Now().Add(72 * time.Hour)
	job.Deadline = &future
	require.False(t, job.Expired(time.Now()))
}

func TestRestoreIsAdminOnly(t *testing.T) {
	svc, db := newTestJobService(t)
	employer := seedUser(t, db, enums.RoleEmployer)
	admin := seedUser(t, db, enums.RoleAdmin)

	created, err := svc.Create(context.Background(), basicPosting(employer.ID, "Surveyor"))
	require.NoError(t, err)
	require.NoError(t, svc.Delete(context.Background(), employer, created.ID))

	err = svc.Restore(context.Background(), employer, created.ID)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeForbidden, typed.Code())

	require.NoError(t, svc.Restore(context.Background(), admin, created.ID))
	restored, err := svc.GetByID(context.Background(), created.ID)
	require.NoError(t, err)
	require.Equal(t, enums.PostingStatusInactive, restored.Status)
}

func TestRestoreLivePostingIsNotFound(t *testing.T) {
	svc, db := newTestJobService(t)
	employer := seedUser(t, db, enums.RoleEmployer)
	admin := seedUser(t, db, enums.RoleAdmin)

	created, err := svc.Create(context.Background(), basicPosting(employer.ID, "Estimator"))
	require.NoError(t, err)

	err = svc.Restore(context.Background(), admin, created.ID)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}
