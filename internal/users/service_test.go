package users

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

	"github.com/koor-works/koor-backend/pkg/db/models"
	"github.com/koor-works/koor-backend/pkg/enums"
	pkgerrors "github.com/koor-works/koor-backend/pkg/errors"
	"github.com/koor-works/koor-backend/pkg/logger"
)

func setupUsersTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:users_%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.JobSeekerProfile{}, &models.Media{}))
	return db
}

func newTestService(t *testing.T) (Service, *Repository) {
	t.Helper()
	repo := NewRepository(setupUsersTestDB(t))
	svc, err := NewService(ServiceParams{
		Repo:   repo,
		Logger: logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
	})
	require.NoError(t, err)
	return svc, repo
}

func seedUser(t *testing.T, repo *Repository, role enums.Role) *models.User {
	t.Helper()
	email := fmt.Sprintf("%s@example.com", uuid.NewString())
	user := &models.User{
		Email: &email,
		Role:  role,
	}
	require.NoError(t, repo.Create(context.Background(), user))
	return user
}

func TestGetUserNotFound(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.GetUser(context.Background(), uuid.New())
	var typed *pkgerrors.Error
	require.ErrorAs(t, err, &typed)
	require.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestUpdateProfileCreatesProfileRow(t *testing.T) {
	svc, repo := newTestService(t)
	user := seedUser(t, repo, enums.RoleJobSeeker)

	name := "Asel"
	gender := "female"
	country := "KZ"
	require.NoError(t, svc.UpdateProfile(context.Background(), user.ID, UpdateProfileParams{
		Name:    &name,
		Gender:  &gender,
		Country: &country,
	}))

	got, profile, err := svc.GetProfile(context.Background(), user.ID)
	require.NoError(t, err)
	require.Equal(t, "Asel", got.Name)
	require.NotNil(t, profile)
	require.Equal(t, "female", *profile.Gender)
	require.Equal(t, "KZ", *profile.Country)
}

func TestEnsureProfileCompleteReportsMissingFields(t *testing.T) {
	svc, repo := newTestService(t)
	user := seedUser(t, repo, enums.RoleJobSeeker)

	err := svc.EnsureProfileComplete(context.Background(), user.ID)
	var typed *pkgerrors.Error
	require.ErrorAs(t, err, &typed)
	require.Equal(t, pkgerrors.CodeProfileIncomplete, typed.Code())

	fields := typed.Fields()
	require.Contains(t, fields, "name")
	require.Contains(t, fields, "gender")
	require.Contains(t, fields, "dob")
}

func TestEnsureProfileCompletePassesWhenFilled(t *testing.T) {
	svc, repo := newTestService(t)
	user := seedUser(t, repo, enums.RoleJobSeeker)

	name := "Daniyar"
	gender := "male"
	employment := "employed"
	country := "KZ"
	city := "Almaty"
	education := "bachelor"
	dob := time.Date(1992, 4, 10, 0, 0, 0, 0, time.UTC)
	require.NoError(t, svc.UpdateProfile(context.Background(), user.ID, UpdateProfileParams{
		Name:             &name,
		Gender:           &gender,
		EmploymentStatus: &employment,
		Country:          &country,
		City:             &city,
		HighestEducation: &education,
		DOB:              &dob,
	}))

	require.NoError(t, svc.EnsureProfileComplete(context.Background(), user.ID))
}

func TestDeactivateFreesIdentifier(t *testing.T) {
	svc, repo := newTestService(t)
	user := seedUser(t, repo, enums.RoleEmployer)

	require.NoError(t, svc.Deactivate(context.Background(), user.ID))

	_, err := repo.FindByID(context.Background(), user.ID)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)

	// The same email can register again because uniqueness only covers
	// live rows.
	clone := &models.User{Email: user.Email, Role: enums.RoleEmployer}
	require.NoError(t, repo.Create(context.Background(), clone))
}

func TestUpdateNotificationPrefs(t *testing.T) {
	svc, repo := newTestService(t)
	user := seedUser(t, repo, enums.RoleJobSeeker)

	off := false
	require.NoError(t, svc.UpdateNotificationPrefs(context.Background(), user.ID, NotificationPrefsParams{GetEmail: &off}))

	got, err := svc.GetUser(context.Background(), user.ID)
	require.NoError(t, err)
	require.False(t, got.GetEmail)
	require.True(t, got.GetNotification)
}
