package models

import (
	stderrors "errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"RescueHub/pkg/errors"
)

// Alert emergency categories.
const (
	AlertTypeFire           = "fire"
	AlertTypeMedical        = "medical"
	AlertTypePolice         = "police"
	AlertTypeWaterRescue    = "water_rescue"
	AlertTypeMountainRescue = "mountain_rescue"
	AlertTypeSearchRescue   = "search_rescue"
	AlertTypeEcological     = "ecological"
	AlertTypeGeneral        = "general"
)

// Alert lifecycle states. pending -> assigned -> in_progress ->
// completed; cancelled is reachable from pending or assigned.
const (
	AlertStatusPending    = "pending"
	AlertStatusAssigned   = "assigned"
	AlertStatusInProgress = "in_progress"
	AlertStatusCompleted  = "completed"
	AlertStatusCancelled  = "cancelled"
)

// Priority runs 1 (critical) to 5 (informational).
const (
	PriorityCritical      = 1
	PriorityHigh          = 2
	PriorityMedium        = 3
	PriorityLow           = 4
	PriorityInformational = 5
)

// SOSAlert is one emergency report and its handling state.
type SOSAlert struct {
	ID          string     `gorm:"primaryKey;size:36" json:"id"`
	UserID      string     `gorm:"size:36;not null;index" json:"user_id"`
	Type        string     `gorm:"size:32;not null" json:"type"`
	Status      string     `gorm:"size:20;not null;default:pending;index" json:"status"`
	Priority    int        `gorm:"not null;default:3" json:"priority"`
	Latitude    float64    `gorm:"type:decimal(10,7)" json:"latitude"`
	Longitude   float64    `gorm:"type:decimal(10,7)" json:"longitude"`
	Address     string     `gorm:"size:500" json:"address"`
	Title       string     `gorm:"size:255" json:"title"`
	Description string     `gorm:"type:text" json:"description"`
	MediaURLs   JSONList   `gorm:"type:text" json:"media_urls"`
	AIAnalysis  JSONMap    `gorm:"type:text" json:"ai_analysis,omitempty"`
	AssignedTo  *string    `gorm:"size:36;index" json:"assigned_to,omitempty"`
	TeamID      *string    `gorm:"size:36;index" json:"team_id,omitempty"`
	AssignedAt  *time.Time `json:"assigned_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Timestamps
}

func (SOSAlert) TableName() string { return "sos_alerts" }

func (a *SOSAlert) terminal() bool {
	return a.Status == AlertStatusCompleted || a.Status == AlertStatusCancelled
}

// AlertView is an alert enriched with display names for responses and
// websocket pushes.
type AlertView struct {
	SOSAlert
	ReporterName string `json:"reporter_name,omitempty"`
	AssigneeName string `json:"assignee_name,omitempty"`
	TeamName     string `json:"team_name,omitempty"`
}

// FanoutPlan tells the caller who to notify after a successful update.
// Delivery happens outside the transaction, fire and forget.
type FanoutPlan struct {
	Event            string // websocket frame type
	NotificationType string
	Title            string
	Message          string
	UserIDs          []string
	Alert            *AlertView
}

var validAlertTypes = map[string]bool{
	AlertTypeFire: true, AlertTypeMedical: true, AlertTypePolice: true,
	AlertTypeWaterRescue: true, AlertTypeMountainRescue: true,
	AlertTypeSearchRescue: true, AlertTypeEcological: true, AlertTypeGeneral: true,
}

// AlertCreateInput is the citizen SOS payload.
type AlertCreateInput struct {
	Type        string   `json:"type" binding:"required"`
	Latitude    float64  `json:"latitude"`
	Longitude   float64  `json:"longitude"`
	Address     string   `json:"address"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	MediaURLs   []string `json:"media_urls"`
	AIAnalysis  JSONMap  `json:"ai_analysis"`
}

// CreateAlert files a new SOS in pending state with medium priority.
func CreateAlert(db *gorm.DB, reporter *User, in AlertCreateInput) (*SOSAlert, error) {
	if !validAlertTypes[in.Type] {
		return nil, errors.BadRequest("unknown alert type")
	}
	if err := validateCoordinates(in.Latitude, in.Longitude); err != nil {
		return nil, err
	}

	alert := &SOSAlert{
		ID:          uuid.NewString(),
		UserID:      reporter.ID,
		Type:        in.Type,
		Status:      AlertStatusPending,
		Priority:    PriorityMedium,
		Latitude:    in.Latitude,
		Longitude:   in.Longitude,
		Address:     in.Address,
		Title:       in.Title,
		Description: in.Description,
		MediaURLs:   in.MediaURLs,
		AIAnalysis:  in.AIAnalysis,
	}
	if err := db.Create(alert).Error; err != nil {
		return nil, errors.Wrap(err, "create alert")
	}
	return alert, nil
}

// GetAlert loads an alert, enforcing citizen ownership.
func GetAlert(db *gorm.DB, actor *User, id string) (*SOSAlert, error) {
	var alert SOSAlert
	err := db.First(&alert, "id = ?", id).Error
	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.NotFound("alert not found")
	}
	if err != nil {
		return nil, errors.Wrap(err, "load alert")
	}
	if actor.Role == RoleCitizen && alert.UserID != actor.ID {
		return nil, errors.Forbidden("you may only view your own alerts")
	}
	return &alert, nil
}

// AlertFilter narrows alert listings.
type AlertFilter struct {
	Status string
	Type   string
	Skip   int
	Limit  int
}

// ListAlerts returns alerts scoped by role: citizens see their own,
// rescuers see their team's work plus individual assignments plus the
// unclaimed pool, operators and above see everything.
func ListAlerts(db *gorm.DB, actor *User, f AlertFilter) ([]AlertView, error) {
	q := db.Model(&SOSAlert{})

	switch {
	case actor.Role == RoleCitizen:
		q = q.Where("user_id = ?", actor.ID)
	case actor.Role == RoleRescuer:
		// Team work, personal assignments without a team, and the
		// unclaimed pool of assigned-but-unowned alerts.
		if actor.TeamID != nil {
			q = q.Where(
				"team_id = ? OR (assigned_to = ? AND team_id IS NULL) OR (status = ? AND team_id IS NULL AND assigned_to IS NULL)",
				*actor.TeamID, actor.ID, AlertStatusAssigned,
			)
		} else {
			q = q.Where(
				"(assigned_to = ? AND team_id IS NULL) OR (status = ? AND team_id IS NULL AND assigned_to IS NULL)",
				actor.ID, AlertStatusAssigned,
			)
		}
	case Allowed(actor.Role, ActionAlertViewAll):
		// unscoped
	default:
		return nil, errors.Forbidden("insufficient role to list alerts")
	}

	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.Type != "" {
		q = q.Where("type = ?", f.Type)
	}

	var alerts []SOSAlert
	err := q.Order("created_at DESC").Offset(f.Skip).Limit(normalizeLimit(f.Limit)).Find(&alerts).Error
	if err != nil {
		return nil, errors.Wrap(err, "list alerts")
	}

	views := make([]AlertView, 0, len(alerts))
	for i := range alerts {
		views = append(views, *enrichAlert(db, &alerts[i]))
	}
	return views, nil
}

// enrichAlert attaches display names. Lookup failures leave the name
// blank rather than failing the read.
func enrichAlert(db *gorm.DB, alert *SOSAlert) *AlertView {
	view := &AlertView{SOSAlert: *alert}
	if reporter, err := GetUser(db, alert.UserID); err == nil {
		view.ReporterName = reporter.FullName
	}
	if alert.AssignedTo != nil {
		if assignee, err := GetUser(db, *alert.AssignedTo); err == nil {
			view.AssigneeName = assignee.FullName
		}
	}
	if alert.TeamID != nil {
		if team, err := GetTeam(db, *alert.TeamID); err == nil {
			view.TeamName = team.Name
		}
	}
	return view
}

// AlertUpdateInput carries the patchable alert fields.
type AlertUpdateInput struct {
	Status      *string `json:"status"`
	Priority    *int    `json:"priority"`
	AssignedTo  *string `json:"assigned_to"`
	TeamID      *string `json:"team_id"`
	Title       *string `json:"title"`
	Description *string `json:"description"`
}

// UpdateAlert applies the role-gated state machine and returns the
// refreshed view plus a fan-out plan for the caller to dispatch.
func UpdateAlert(db *gorm.DB, actor *User, id string, in AlertUpdateInput) (*AlertView, *FanoutPlan, error) {
	var alert SOSAlert
	err := db.First(&alert, "id = ?", id).Error
	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, errors.NotFound("alert not found")
	}
	if err != nil {
		return nil, nil, errors.Wrap(err, "load alert")
	}

	now := time.Now()
	updates := map[string]interface{}{}

	switch {
	case Allowed(actor.Role, ActionAlertTriage):
		if err := applyTriageUpdate(&alert, in, now, updates); err != nil {
			return nil, nil, err
		}
	case actor.Role == RoleRescuer:
		if err := applyRescuerUpdate(&alert, actor, in, now, updates); err != nil {
			return nil, nil, err
		}
	case actor.Role == RoleCitizen:
		if err := applyCitizenUpdate(&alert, actor, in, updates); err != nil {
			return nil, nil, err
		}
	default:
		return nil, nil, errors.Forbidden("insufficient role to modify alerts")
	}

	if len(updates) > 0 {
		if err := db.Model(&alert).Updates(updates).Error; err != nil {
			return nil, nil, errors.Wrap(err, "update alert")
		}
	}
	if err := db.First(&alert, "id = ?", id).Error; err != nil {
		return nil, nil, errors.Wrap(err, "reload alert")
	}

	view := enrichAlert(db, &alert)
	plan, err := buildFanoutPlan(db, view, in)
	if err != nil {
		return nil, nil, err
	}
	return view, plan, nil
}

// applyTriageUpdate handles the operator/coordinator/admin branch.
// Direct field edits bypass the state machine; status changes are
// limited to assigning pending work and cancelling non-terminal work.
func applyTriageUpdate(alert *SOSAlert, in AlertUpdateInput, now time.Time, updates map[string]interface{}) error {
	if in.Status != nil {
		switch *in.Status {
		case AlertStatusAssigned:
			if alert.Status != AlertStatusPending {
				return errors.BadRequest(fmt.Sprintf("cannot assign an alert in status %s", alert.Status))
			}
			updates["status"] = AlertStatusAssigned
			if alert.AssignedAt == nil {
				updates["assigned_at"] = now
			}
		case AlertStatusCancelled:
			if alert.terminal() {
				return errors.BadRequest("alert is already closed")
			}
			updates["status"] = AlertStatusCancelled
		default:
			return errors.Forbidden("operators may only assign or cancel alerts")
		}
	}
	if in.Priority != nil {
		if *in.Priority < PriorityCritical || *in.Priority > PriorityInformational {
			return errors.BadRequest("priority must be between 1 and 5")
		}
		updates["priority"] = *in.Priority
	}
	if in.AssignedTo != nil {
		updates["assigned_to"] = nilIfEmpty(*in.AssignedTo)
	}
	if in.TeamID != nil {
		updates["team_id"] = nilIfEmpty(*in.TeamID)
	}
	if in.Title != nil {
		updates["title"] = *in.Title
	}
	if in.Description != nil {
		updates["description"] = *in.Description
	}
	return nil
}

// applyRescuerUpdate handles the team-leader branch: accept assigned
// work, then complete it. Non-leaders are always rejected.
func applyRescuerUpdate(alert *SOSAlert, actor *User, in AlertUpdateInput, now time.Time, updates map[string]interface{}) error {
	if !actor.IsTeamLeader {
		return errors.Forbidden("only team leaders may act on alerts")
	}
	if in.Status == nil {
		return errors.Forbidden("rescuers may only change alert status")
	}

	switch *in.Status {
	case AlertStatusInProgress:
		if alert.Status != AlertStatusAssigned {
			return errors.BadRequest(fmt.Sprintf("cannot start work on an alert in status %s", alert.Status))
		}
		claimedByOther := alert.AssignedTo != nil && *alert.AssignedTo != actor.ID
		foreignTeam := alert.TeamID != nil && (actor.TeamID == nil || *alert.TeamID != *actor.TeamID)
		if claimedByOther || foreignTeam {
			return errors.Forbidden("alert belongs to another rescuer or team")
		}
		updates["status"] = AlertStatusInProgress
		updates["assigned_to"] = actor.ID
		if alert.TeamID == nil && actor.TeamID != nil {
			updates["team_id"] = *actor.TeamID
		}
		if alert.AssignedAt == nil {
			updates["assigned_at"] = now
		}
	case AlertStatusCompleted:
		if alert.Status != AlertStatusInProgress {
			return errors.BadRequest(fmt.Sprintf("cannot complete an alert in status %s", alert.Status))
		}
		if alert.AssignedTo == nil || *alert.AssignedTo != actor.ID {
			return errors.Forbidden("alert is assigned to another rescuer")
		}
		updates["status"] = AlertStatusCompleted
		if alert.CompletedAt == nil {
			updates["completed_at"] = now
		}
	default:
		return errors.Forbidden("rescuers may only accept or complete alerts")
	}
	return nil
}

// applyCitizenUpdate lets a reporter cancel their own pending alert and
// nothing else.
func applyCitizenUpdate(alert *SOSAlert, actor *User, in AlertUpdateInput, updates map[string]interface{}) error {
	if alert.UserID != actor.ID {
		return errors.Forbidden("you may only modify your own alerts")
	}
	if in.Status == nil || *in.Status != AlertStatusCancelled ||
		in.Priority != nil || in.AssignedTo != nil || in.TeamID != nil {
		return errors.Forbidden("citizens may only cancel their own alerts")
	}
	if alert.Status != AlertStatusPending {
		return errors.BadRequest("only pending alerts can be cancelled")
	}
	updates["status"] = AlertStatusCancelled
	return nil
}

// buildFanoutPlan decides who gets notified: a newly assigned team gets
// a full team fan-out, otherwise the individual assignee is told.
func buildFanoutPlan(db *gorm.DB, view *AlertView, in AlertUpdateInput) (*FanoutPlan, error) {
	if in.Status == nil && in.AssignedTo == nil && in.TeamID == nil {
		return nil, nil
	}

	ntype := NotificationSOSUpdated
	if view.Status == AlertStatusAssigned {
		ntype = NotificationSOSAssigned
	} else if view.Status == AlertStatusCompleted {
		ntype = NotificationSOSCompleted
	}

	if view.Status == AlertStatusAssigned && view.TeamID != nil {
		var members []User
		if err := db.Where("team_id = ?", *view.TeamID).Find(&members).Error; err != nil {
			return nil, errors.Wrap(err, "load team members")
		}
		ids := make([]string, 0, len(members))
		for _, m := range members {
			ids = append(ids, m.ID)
		}
		return &FanoutPlan{
			Event:            "new_alert",
			NotificationType: ntype,
			Title:            "New SOS assignment",
			Message:          fmt.Sprintf("Alert %q was assigned to your team", view.Title),
			UserIDs:          ids,
			Alert:            view,
		}, nil
	}

	if view.AssignedTo != nil {
		return &FanoutPlan{
			Event:            "alert_updated",
			NotificationType: ntype,
			Title:            "SOS alert updated",
			Message:          fmt.Sprintf("Alert %q changed status to %s", view.Title, view.Status),
			UserIDs:          []string{*view.AssignedTo},
			Alert:            view,
		}, nil
	}
	return nil, nil
}

// DeleteAlert hard-deletes an alert. Admin only, enforced by caller.
func DeleteAlert(db *gorm.DB, id string) error {
	res := db.Delete(&SOSAlert{}, "id = ?", id)
	if res.Error != nil {
		return errors.Wrap(res.Error, "delete alert")
	}
	if res.RowsAffected == 0 {
		return errors.NotFound("alert not found")
	}
	return nil
}

// AppendAlertMedia adds an uploaded media URL to the alert.
func AppendAlertMedia(db *gorm.DB, actor *User, id, url string) (*SOSAlert, error) {
	alert, err := GetAlert(db, actor, id)
	if err != nil {
		return nil, err
	}
	media := append(alert.MediaURLs, url)
	if err := db.Model(alert).Update("media_urls", media).Error; err != nil {
		return nil, errors.Wrap(err, "store media url")
	}
	alert.MediaURLs = media
	return alert, nil
}

// AlertStats is the dashboard summary.
type AlertStats struct {
	Total    int64            `json:"total"`
	Active   int64            `json:"active"`
	Today    int64            `json:"today"`
	ByStatus map[string]int64 `json:"by_status"`
	ByType   map[string]int64 `json:"by_type"`
}

// GetAlertStats aggregates counts for the analytics dashboard.
func GetAlertStats(db *gorm.DB) (*AlertStats, error) {
	stats := &AlertStats{
		ByStatus: map[string]int64{},
		ByType:   map[string]int64{},
	}
	if err := db.Model(&SOSAlert{}).Count(&stats.Total).Error; err != nil {
		return nil, errors.Wrap(err, "count alerts")
	}
	err := db.Model(&SOSAlert{}).
		Where("status IN ?", []string{AlertStatusPending, AlertStatusAssigned, AlertStatusInProgress}).
		Count(&stats.Active).Error
	if err != nil {
		return nil, errors.Wrap(err, "count active alerts")
	}
	midnight := time.Now().Truncate(24 * time.Hour)
	if err := db.Model(&SOSAlert{}).Where("created_at >= ?", midnight).Count(&stats.Today).Error; err != nil {
		return nil, errors.Wrap(err, "count today's alerts")
	}

	type bucket struct {
		Key   string
		Count int64
	}
	var byStatus []bucket
	err = db.Model(&SOSAlert{}).Select("status AS key, COUNT(*) AS count").
		Group("status").Scan(&byStatus).Error
	if err != nil {
		return nil, errors.Wrap(err, "group by status")
	}
	for _, b := range byStatus {
		stats.ByStatus[b.Key] = b.Count
	}
	var byType []bucket
	err = db.Model(&SOSAlert{}).Select("type AS key, COUNT(*) AS count").
		Group("type").Scan(&byType).Error
	if err != nil {
		return nil, errors.Wrap(err, "group by type")
	}
	for _, b := range byType {
		stats.ByType[b.Key] = b.Count
	}
	return stats, nil
}

func nilIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
