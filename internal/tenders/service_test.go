package tenders

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

func setupTendersTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:tenders_%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{}, &models.JobSeekerProfile{}, &models.Media{},
		&models.Tender{}, &models.TenderAttachment{},
	))
	return db
}

func newTestTenderService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()
	db := setupTendersTestDB(t)
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

func basicTender(ownerID uuid.UUID, title string) CreateParams {
	return CreateParams{
		OwnerID:        ownerID,
		Title:          title,
		Description:    "Supply and install HVAC units across three sites.",
		BudgetCurrency: "USD",
		BudgetAmount:   decimal.NewFromInt(250000),
		Country:        "Qatar",
		City:           "Doha",
		CompanyName:    "Halcyon Build",
		Tags:           []string{"hvac"},
		Categories:     []string{"mechanical"},
		TenderTypes:    []string{"supply"},
		Sectors:        []string{"construction"},
	}
}

func TestCreateAssignsShortIDAndSlug(t *testing.T) {
	svc, db := newTestTenderService(t)
	employer := seedUser(t, db, enums.RoleEmployer)

	tender, err := svc.Create(context.Background(), basicTender(employer.ID, "HVAC Install"))
	require.NoError(t, err)
	require.True(t, shortid.Valid(tender.TenderID))
	require.Equal(t, "hvac-install-"+tender.TenderID, tender.Slug)
	require.Equal(t, enums.PostingStatusActive, tender.Status)
}

func TestCreateRejectsNonEmployer(t *testing.T) {
	svc, db := newTestTenderService(t)
	seeker := seedUser(t, db, enums.RoleJobSeeker)

	_, err := svc.Create(context.Background(), basicTender(seeker.ID, "HVAC Install"))
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeForbidden, typed.Code())
}

func TestGetResolvesShortIDAndSlug(t *testing.T) {
	svc, db := newTestTenderService(t)
	employer := seedUser(t, db, enums.RoleEmployer)
	created, err := svc.Create(context.Background(), basicTender(employer.ID, "Road Resurfacing"))
	require.NoError(t, err)

	byShortID, err := svc.Get(context.Background(), created.TenderID)
	require.NoError(t, err)
	require.Equal(t, created.ID, byShortID.ID)

	bySlug, err := svc.Get(context.Background(), created.Slug)
	require.NoError(t, err)
	require.Equal(t, created.ID, bySlug.ID)
}

func TestUpdateByStrangerIsForbidden(t *testing.T) {
	svc, db := newTestTenderService(t)
	owner := seedUser(t, db, enums.RoleEmployer)
	other := seedUser(t, db, enums.RoleEmployer)
	created, err := svc.Create(context.Background(), basicTender(owner.ID, "Fit Out"))
	require.NoError(t, err)

	_, err = svc.Update(context.Background(), other, created.ID, UpdateParams{CreateParams: basicTender(owner.ID, "Fit Out")})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeForbidden, typed.Code())
}

func TestUpdateRegeneratesSlugOnRename(t *testing.T) {
	svc, db := newTestTenderService(t)
	employer := seedUser(t, db, enums.RoleEmployer)
	created, err := svc.Create(context.Background(), basicTender(employer.ID, "Warehouse Build"))
	require.NoError(t, err)

	params := UpdateParams{CreateParams: basicTender(employer.ID, "Warehouse Expansion")}
	updated, err := svc.Update(context.Background(), employer, created.ID, params)
	require.NoError(t, err)
	require.Equal(t, "warehouse-expansion-"+created.TenderID, updated.Slug)
}

func TestSetStatusAndDelete(t *testing.T) {
	svc, db := newTestTenderService(t)
	employer := seedUser(t, db, enums.RoleEmployer)
	created, err := svc.Create(context.Background(), basicTender(employer.ID, "Bridge Repair"))
	require.NoError(t, err)

	require.NoError(t, svc.SetStatus(context.Background(), employer, created.ID, enums.PostingStatusInactive))
	row, err := svc.GetByID(context.Background(), created.ID)
	require.NoError(t, err)
	require.Equal(t, enums.PostingStatusInactive, row.Status)

	require.NoError(t, svc.Delete(context.Background(), employer, created.ID))
	_, err = svc.GetByID(context.Background(), created.ID)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestListDefaultsToActive(t *testing.T) {
	svc, db := newTestTenderService(t)
	employer := seedUser(t, db, enums.RoleEmployer)

	live, err := svc.Create(context.Background(), basicTender(employer.ID, "Live Tender"))
	require.NoError(t, err)
	parked, err := svc.Create(context.Background(), basicTender(employer.ID, "Parked Tender"))
	require.NoError(t, err)
	require.NoError(t, svc.SetStatus(context.Background(), employer, parked.ID, enums.PostingStatusHold))

	rows, count, err := svc.List(context.Background(), ListParams{Page: pagination.Params{Limit: 20}})
	require.NoError(t, err)
	require.EqualValues(t, 1, count)
	require.Equal(t, live.ID, rows[0].ID)
}

func TestExpiringBetween(t *testing.T) {
	svc, db := newTestTenderService(t)
	employer := seedUser(t, db, enums.RoleEmployer)

	soon := time.Now().Add(24 * time.Hour)
	params := basicTender(employer.ID, "Closing Soon")
	params.Deadline = &soon
	created, err := svc.Create(context.Background(), params)
	require.NoError(t, err)

	repo := NewRepository(db)
	rows, err := repo.ExpiringBetween(context.Background(), time.Now(), time.Now().Add(48*time.Hour))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, created.ID, rows[0].ID)
}

func TestRestoreIsAdminOnly(t *testing.T) {
	svc, db := newTestTenderService(t)
	employer := seedUser(t, db, enums.RoleEmployer)
	admin := seedUser(t, db, enums.RoleAdmin)

	created, err := svc.Create(context.Background(), basicTender(employer.ID, "Bridge Works"))
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
