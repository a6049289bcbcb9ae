package repository

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sikayetim/backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotificationRepository_ReadFlow(t *testing.T) {
	db := setupTestDB(t)
	repo := NewNotificationRepository(db)
	owner, other := uuid.New(), uuid.New()

	require.NoError(t, repo.CreateBatch([]domain.Notification{
		{UserID: owner, Type: domain.NotifComplaintAnswered, Title: "Şikayetiniz yanıtlandı"},
		{UserID: owner, Type: domain.NotifComplaintModerated, Title: "Şikayetiniz yayınlandı"},
		{UserID: other, Type: domain.NotifComplaintAnswered, Title: "Başka kullanıcı"},
	}))

	unread, err := repo.CountUnread(owner)
	require.NoError(t, err)
	assert.Equal(t, int64(2), unread)

	list, total, err := repo.FindByUserID(owner, true, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, list, 2)

	require.NoError(t, repo.MarkAsRead(list[0].ID))
	unread, _ = repo.CountUnread(owner)
	assert.Equal(t, int64(1), unread)

	require.NoError(t, repo.MarkAllAsRead(owner))
	unread, _ = repo.CountUnread(owner)
	assert.Zero(t, unread)

	otherUnread, _ := repo.CountUnread(other)
	assert.Equal(t, int64(1), otherUnread)
}

func TestNotificationRepository_DeleteOlderThan(t *testing.T) {
	db := setupTestDB(t)
	repo := NewNotificationRepository(db)
	userID := uuid.New()

	old := domain.Notification{UserID: userID, Type: domain.NotifComplaintAnswered, Title: "eski"}
	require.NoError(t, repo.Create(&old))
	require.NoError(t, db.Model(&domain.Notification{}).Where("id = ?", old.ID).
		Update("created_at", time.Now().AddDate(0, 0, -120)).Error)
	require.NoError(t, repo.Create(&domain.Notification{UserID: userID, Type: domain.NotifComplaintAnswered, Title: "yeni"}))

	deleted, err := repo.DeleteOlderThan(time.Now().AddDate(0, 0, -90))
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	_, total, err := repo.FindByUserID(userID, false, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
}
