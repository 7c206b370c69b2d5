package notification

import (
	"gorm.io/gorm"

	"RescueHub/internal/models"
	"RescueHub/pkg/logger"
	"RescueHub/pkg/metrics"
	"RescueHub/pkg/websocket"
)

// Notifier persists notification rows and nudges connected clients over
// the websocket hub. Delivery failures are logged and swallowed; the
// row is the durable record.
type Notifier struct {
	db  *gorm.DB
	hub *websocket.Hub
}

func New(db *gorm.DB, hub *websocket.Hub) *Notifier {
	return &Notifier{db: db, hub: hub}
}

// NotifyUser writes one row and pushes one frame. The error from the
// row write is returned so callers that need the durable record can
// react; the push never fails the call.
func (n *Notifier) NotifyUser(userID string, notif models.Notification, event *websocket.Event) error {
	notif.UserID = userID
	if err := models.CreateNotification(n.db, &notif); err != nil {
		return err
	}
	metrics.NotificationSent(notif.Type)
	if n.hub != nil && event != nil {
		n.hub.SendToUser(userID, *event)
	}
	return nil
}

// Dispatch fans an alert event out to every user in the plan. Run it in
// a goroutine; the triggering request must not wait for delivery. Each
// target gets exactly one notification row.
func (n *Notifier) Dispatch(plan *models.FanoutPlan) {
	if plan == nil {
		return
	}
	event := &websocket.Event{Type: plan.Event, Payload: plan.Alert}
	for _, userID := range plan.UserIDs {
		notif := models.Notification{
			Type:    plan.NotificationType,
			Title:   plan.Title,
			Message: plan.Message,
		}
		if plan.Alert != nil {
			id := plan.Alert.ID
			notif.AlertID = &id
			notif.TeamID = plan.Alert.TeamID
		}
		if err := n.NotifyUser(userID, notif, event); err != nil {
			logger.Errorf("notification to %s failed: %v", userID, err)
		}
	}
}
