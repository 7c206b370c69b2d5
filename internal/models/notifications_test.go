package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"RescueHub/pkg/errors"
)

func TestMarkNotificationReadStampsOnce(t *testing.T) {
	db := testDB(t)
	user := seedUser(t, db, RoleCitizen)

	n := &Notification{UserID: user.ID, Type: NotificationInfo, Title: "Привет"}
	require.NoError(t, CreateNotification(db, n))

	first, err := MarkNotificationRead(db, user.ID, n.ID)
	require.NoError(t, err)
	require.NotNil(t, first.ReadAt)
	stamp := *first.ReadAt

	time.Sleep(10 * time.Millisecond)
	second, err := MarkNotificationRead(db, user.ID, n.ID)
	require.NoError(t, err)
	require.NotNil(t, second.ReadAt)
	assert.Equal(t, stamp.Unix(), second.ReadAt.Unix())
}

func TestUnreadCountAndMarkAll(t *testing.T) {
	db := testDB(t)
	user := seedUser(t, db, RoleCitizen)
	stranger := seedUser(t, db, RoleCitizen)

	for i := 0; i < 3; i++ {
		require.NoError(t, CreateNotification(db, &Notification{UserID: user.ID, Type: NotificationInfo, Title: "n"}))
	}
	require.NoError(t, CreateNotification(db, &Notification{UserID: stranger.ID, Type: NotificationInfo, Title: "x"}))

	count, err := UnreadCount(db, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	updated, err := MarkAllNotificationsRead(db, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), updated)

	count, _ = UnreadCount(db, user.ID)
	assert.Equal(t, int64(0), count)
	strangerCount, _ := UnreadCount(db, stranger.ID)
	assert.Equal(t, int64(1), strangerCount)
}

func TestNotificationOwnershipScoping(t *testing.T) {
	db := testDB(t)
	owner := seedUser(t, db, RoleCitizen)
	intruder := seedUser(t, db, RoleCitizen)

	n := &Notification{UserID: owner.ID, Type: NotificationWarning, Title: "w"}
	require.NoError(t, CreateNotification(db, n))

	_, err := MarkNotificationRead(db, intruder.ID, n.ID)
	assert.Equal(t, errors.CodeNotFound, errors.GetCode(err))
	err = DeleteNotification(db, intruder.ID, n.ID)
	assert.Equal(t, errors.CodeNotFound, errors.GetCode(err))

	require.NoError(t, DeleteNotification(db, owner.ID, n.ID))
}

func TestPurgeReadNotifications(t *testing.T) {
	db := testDB(t)
	user := seedUser(t, db, RoleCitizen)

	old := &Notification{UserID: user.ID, Type: NotificationInfo, Title: "old"}
	require.NoError(t, CreateNotification(db, old))
	_, err := MarkNotificationRead(db, user.ID, old.ID)
	require.NoError(t, err)
	// Backdate past the retention window.
	require.NoError(t, db.Model(old).Update("created_at", time.Now().AddDate(0, 0, -40)).Error)

	fresh := &Notification{UserID: user.ID, Type: NotificationInfo, Title: "fresh"}
	require.NoError(t, CreateNotification(db, fresh))

	purged, err := PurgeReadNotifications(db, time.Now().AddDate(0, 0, -30))
	require.NoError(t, err)
	assert.Equal(t, int64(1), purged)

	var remaining int64
	db.Model(&Notification{}).Where("user_id = ?", user.ID).Count(&remaining)
	assert.Equal(t, int64(1), remaining)
}
