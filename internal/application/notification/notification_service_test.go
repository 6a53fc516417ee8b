package notification

import (
	"context"
	"testing"

	"github.com/fintrack/backend/internal/application/apptest"
	"github.com/fintrack/backend/internal/domain/notification"
	"github.com/fintrack/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type notificationFixture struct {
	service *NotificationService
	repo    *apptest.MemoryNotificationRepo
	userID  uuid.UUID
}

func newNotificationFixture(t *testing.T) *notificationFixture {
	t.Helper()
	f := &notificationFixture{
		repo:   apptest.NewMemoryNotificationRepo(),
		userID: uuid.New(),
	}
	f.service = NewNotificationService(f.repo, zap.NewNop())
	return f
}

func (f *notificationFixture) seed(t *testing.T, target string, title string) *notification.Notification {
	t.Helper()
	n, err := notification.NewNotification(target, notification.TypePaymentApproval, title, "A step awaits your decision", nil, "")
	require.NoError(t, err)
	require.NoError(t, f.repo.Save(context.Background(), n))
	return n
}

func TestNotificationService_ListForUser(t *testing.T) {
	f := newNotificationFixture(t)
	f.seed(t, f.userID.String(), "Mine")
	f.seed(t, uuid.NewString(), "Someone else's")

	items, err := f.service.ListForUser(context.Background(), f.userID, notification.NotificationFilter{})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Mine", items[0].Title)
}

func TestNotificationService_CountUnread(t *testing.T) {
	f := newNotificationFixture(t)
	f.seed(t, f.userID.String(), "One")
	f.seed(t, f.userID.String(), "Two")

	count, err := f.service.CountUnread(context.Background(), f.userID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestNotificationService_MarkRead(t *testing.T) {
	t.Run("marks own notification", func(t *testing.T) {
		f := newNotificationFixture(t)
		n := f.seed(t, f.userID.String(), "Mine")

		marked, err := f.service.MarkRead(context.Background(), n.ID, f.userID)
		require.NoError(t, err)
		assert.True(t, marked.Read)

		count, err := f.service.CountUnread(context.Background(), f.userID)
		require.NoError(t, err)
		assert.Equal(t, int64(0), count)
	})

	t.Run("is idempotent", func(t *testing.T) {
		f := newNotificationFixture(t)
		n := f.seed(t, f.userID.String(), "Mine")

		_, err := f.service.MarkRead(context.Background(), n.ID, f.userID)
		require.NoError(t, err)
		marked, err := f.service.MarkRead(context.Background(), n.ID, f.userID)
		require.NoError(t, err)
		assert.True(t, marked.Read)
	})

	t.Run("cannot mark another user's notification", func(t *testing.T) {
		f := newNotificationFixture(t)
		n := f.seed(t, uuid.NewString(), "Not mine")

		_, err := f.service.MarkRead(context.Background(), n.ID, f.userID)
		require.Error(t, err)
		assert.True(t, shared.IsCode(err, shared.CodeUnauthorized))
	})

	t.Run("broadcast can be marked by anyone", func(t *testing.T) {
		f := newNotificationFixture(t)
		n, err := notification.NewBroadcast(notification.TypePaymentOverdue, "Overdue sweep", "3 payments went overdue", nil, "")
		require.NoError(t, err)
		require.NoError(t, f.repo.Save(context.Background(), n))

		marked, err := f.service.MarkRead(context.Background(), n.ID, f.userID)
		require.NoError(t, err)
		assert.True(t, marked.Read)
	})

	t.Run("unknown notification", func(t *testing.T) {
		f := newNotificationFixture(t)
		_, err := f.service.MarkRead(context.Background(), uuid.New(), f.userID)
		require.Error(t, err)
	})
}

func TestNotificationService_MarkAllRead(t *testing.T) {
	f := newNotificationFixture(t)
	f.seed(t, f.userID.String(), "One")
	f.seed(t, f.userID.String(), "Two")
	f.seed(t, uuid.NewString(), "Not mine")

	marked, err := f.service.MarkAllRead(context.Background(), f.userID)
	require.NoError(t, err)
	assert.Equal(t, 2, marked)

	count, err := f.service.CountUnread(context.Background(), f.userID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}
