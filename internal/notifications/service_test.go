package notifications

import (
	"context"
	"fmt"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/koor-works/koor-backend/internal/users"
	"github.com/koor-works/koor-backend/pkg/db/models"
	"github.com/koor-works/koor-backend/pkg/email"
	"github.com/koor-works/koor-backend/pkg/enums"
	pkgerrors "github.com/koor-works/koor-backend/pkg/errors"
	"github.com/koor-works/koor-backend/pkg/logger"
	"github.com/koor-works/koor-backend/pkg/pagination"
)

type fakeSender struct {
	sent []email.Message
}

func (f *fakeSender) Send(_ context.Context, msg email.Message) error {
	f.sent = append(f.sent, msg)
	return nil
}

func setupNotificationsTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:notifications_%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Media{}, &models.Notification{}))
	return db
}

func newTestNotificationService(t *testing.T) (Service, *fakeSender, *gorm.DB) {
	t.Helper()
	db := setupNotificationsTestDB(t)
	sender := &fakeSender{}
	svc, err := NewService(ServiceParams{
		Repo:     NewRepository(db),
		UserRepo: users.NewRepository(db),
		Email:    sender,
		Logger:   logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
	})
	require.NoError(t, err)
	return svc, sender, db
}

func seedRecipient(t *testing.T, db *gorm.DB, getEmail, getNotification bool) *models.User {
	t.Helper()
	addr := fmt.Sprintf("%s@example.com", uuid.NewString())
	user := &models.User{
		Email:           &addr,
		Role:            enums.RoleJobSeeker,
		IsActive:        true,
		GetEmail:        getEmail,
		GetNotification: getNotification,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func TestNotifyCreatesRowAndEmail(t *testing.T) {
	svc, sender, db := newTestNotificationService(t)
	user := seedRecipient(t, db, true, true)

	svc.Notify(context.Background(), NotifyParams{
		UserID:       user.ID,
		Kind:         enums.NotificationTypeShortlisted,
		EmailSubject: "You were shortlisted",
		EmailHTML:    "<p>Good news.</p>",
	})

	rows, count, err := svc.List(context.Background(), user.ID, pagination.Params{Limit: 20})
	require.NoError(t, err)
	require.EqualValues(t, 1, count)
	require.Equal(t, enums.NotificationTypeShortlisted, rows[0].Kind)
	require.Len(t, sender.sent, 1)
	require.Equal(t, "You were shortlisted", sender.sent[0].Subject)
}

func TestNotifyHonorsPreferences(t *testing.T) {
	svc, sender, db := newTestNotificationService(t)
	user := seedRecipient(t, db, false, false)

	svc.Notify(context.Background(), NotifyParams{
		UserID:       user.ID,
		Kind:         enums.NotificationTypeMessage,
		EmailSubject: "New message",
	})

	_, count, err := svc.List(context.Background(), user.ID, pagination.Params{Limit: 20})
	require.NoError(t, err)
	require.EqualValues(t, 0, count)
	require.Empty(t, sender.sent)
}

func TestMarkSeenAndUnseenCount(t *testing.T) {
	svc, _, db := newTestNotificationService(t)
	user := seedRecipient(t, db, false, true)

	svc.Notify(context.Background(), NotifyParams{UserID: user.ID, Kind: enums.NotificationTypeApplied})
	svc.Notify(context.Background(), NotifyParams{UserID: user.ID, Kind: enums.NotificationTypeMessage})

	count, err := svc.UnseenCount(context.Background(), user.ID)
	require.NoError(t, err)
	require.EqualValues(t, 2, count)

	rows, _, err := svc.List(context.Background(), user.ID, pagination.Params{Limit: 20})
	require.NoError(t, err)
	require.NoError(t, svc.MarkSeen(context.Background(), user.ID, rows[0].ID))

	count, err = svc.UnseenCount(context.Background(), user.ID)
	require.NoError(t, err)
	require.EqualValues(t, 1, count)

	require.NoError(t, svc.MarkAllSeen(context.Background(), user.ID))
	count, err = svc.UnseenCount(context.Background(), user.ID)
	require.NoError(t, err)
	require.EqualValues(t, 0, count)
}

func TestMarkSeenScopedToOwner(t *testing.T) {
	svc, _, db := newTestNotificationService(t)
	owner := seedRecipient(t, db, false, true)
	stranger := seedRecipient(t, db, false, true)

	svc.Notify(context.Background(), NotifyParams{UserID: owner.ID, Kind: enums.NotificationTypeApplied})
	rows, _, err := svc.List(context.Background(), owner.ID, pagination.Params{Limit: 20})
	require.NoError(t, err)

	err = svc.MarkSeen(context.Background(), stranger.ID, rows[0].ID)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}
