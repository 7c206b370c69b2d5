package models

import (
	stderrors "errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"RescueHub/pkg/errors"
)

// Notification type values.
const (
	NotificationSOSCreated   = "sos_created"
	NotificationSOSAssigned  = "sos_assigned"
	NotificationSOSUpdated   = "sos_updated"
	NotificationSOSCompleted = "sos_completed"
	NotificationTeamAssigned = "team_assigned"
	NotificationSystem       = "system"
	NotificationWarning      = "warning"
	NotificationInfo         = "info"
)

// Notification is the durable delivery record. Rows are only ever
// mutated to flip the read flag; the websocket push is a best-effort
// nudge layered on top.
type Notification struct {
	ID        string     `gorm:"primaryKey;size:36" json:"id"`
	UserID    string     `gorm:"size:36;not null;index" json:"user_id"`
	Type      string     `gorm:"size:32;not null" json:"type"`
	Title     string     `gorm:"size:255;not null" json:"title"`
	Message   string     `gorm:"type:text" json:"message"`
	AlertID   *string    `gorm:"size:36" json:"alert_id,omitempty"`
	TeamID    *string    `gorm:"size:36" json:"team_id,omitempty"`
	IsRead    bool       `gorm:"default:false;index" json:"is_read"`
	ReadAt    *time.Time `json:"read_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

func (Notification) TableName() string { return "notifications" }

// CreateNotification persists one delivery record.
func CreateNotification(db *gorm.DB, n *Notification) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	return errors.Wrap(db.Create(n).Error, "create notification")
}

// ListNotifications returns the user's notifications, newest first.
func ListNotifications(db *gorm.DB, userID string, unreadOnly bool, skip, limit int) ([]Notification, error) {
	q := db.Where("user_id = ?", userID)
	if unreadOnly {
		q = q.Where("is_read = ?", false)
	}
	var items []Notification
	err := q.Order("created_at DESC").Offset(skip).Limit(normalizeLimit(limit)).Find(&items).Error
	if err != nil {
		return nil, errors.Wrap(err, "list notifications")
	}
	return items, nil
}

// GetNotification loads one of the user's notifications.
func GetNotification(db *gorm.DB, userID, id string) (*Notification, error) {
	var n Notification
	err := db.First(&n, "id = ? AND user_id = ?", id, userID).Error
	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.NotFound("notification not found")
	}
	if err != nil {
		return nil, errors.Wrap(err, "load notification")
	}
	return &n, nil
}

// UnreadCount returns how many notifications the user has not read.
func UnreadCount(db *gorm.DB, userID string) (int64, error) {
	var count int64
	err := db.Model(&Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).Count(&count).Error
	if err != nil {
		return 0, errors.Wrap(err, "count unread")
	}
	return count, nil
}

// MarkNotificationRead flips the read flag, stamping read_at once.
func MarkNotificationRead(db *gorm.DB, userID, id string) (*Notification, error) {
	var n Notification
	err := db.First(&n, "id = ? AND user_id = ?", id, userID).Error
	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.NotFound("notification not found")
	}
	if err != nil {
		return nil, errors.Wrap(err, "load notification")
	}
	if n.IsRead {
		return &n, nil
	}
	now := time.Now()
	err = db.Model(&n).Updates(map[string]interface{}{"is_read": true, "read_at": now}).Error
	if err != nil {
		return nil, errors.Wrap(err, "mark read")
	}
	n.IsRead = true
	n.ReadAt = &now
	return &n, nil
}

// MarkAllNotificationsRead flips every unread row for the user.
func MarkAllNotificationsRead(db *gorm.DB, userID string) (int64, error) {
	now := time.Now()
	res := db.Model(&Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Updates(map[string]interface{}{"is_read": true, "read_at": now})
	if res.Error != nil {
		return 0, errors.Wrap(res.Error, "mark all read")
	}
	return res.RowsAffected, nil
}

// DeleteNotification removes one of the user's notifications.
func DeleteNotification(db *gorm.DB, userID, id string) error {
	res := db.Delete(&Notification{}, "id = ? AND user_id = ?", id, userID)
	if res.Error != nil {
		return errors.Wrap(res.Error, "delete notification")
	}
	if res.RowsAffected == 0 {
		return errors.NotFound("notification not found")
	}
	return nil
}

// PurgeReadNotifications removes read rows older than the retention
// window. Called from the nightly cleanup job.
func PurgeReadNotifications(db *gorm.DB, olderThan time.Time) (int64, error) {
	res := db.Delete(&Notification{}, "is_read = ? AND created_at < ?", true, olderThan)
	if res.Error != nil {
		return 0, errors.Wrap(res.Error, "purge notifications")
	}
	return res.RowsAffected, nil
}
