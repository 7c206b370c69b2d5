package models

import (
	stderrors "errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"RescueHub/pkg/errors"
)

// Team type values mirror the emergency categories teams are equipped
// for.
const (
	TeamTypeFire           = "fire"
	TeamTypeMedical        = "medical"
	TeamTypePolice         = "police"
	TeamTypeWaterRescue    = "water_rescue"
	TeamTypeMountainRescue = "mountain_rescue"
	TeamTypeSearchRescue   = "search_rescue"
	TeamTypeEcological     = "ecological"
	TeamTypeMultiPurpose   = "multi_purpose"
)

const (
	TeamStatusAvailable = "available"
	TeamStatusBusy      = "busy"
	TeamStatusOffline   = "offline"
)

// RescueTeam is a squad of rescuers. Members is a denormalized roster
// snapshot: it is recomputed from the users table on every
// membership-changing write, never patched incrementally.
type RescueTeam struct {
	ID             string         `gorm:"primaryKey;size:36" json:"id"`
	Name           string         `gorm:"size:255;not null" json:"name"`
	Type           string         `gorm:"size:32;not null" json:"type"`
	Status         string         `gorm:"size:20;not null;default:available" json:"status"`
	LeaderID       *string        `gorm:"size:36" json:"leader_id,omitempty"`
	Members        TeamMemberList `gorm:"type:text" json:"members"`
	Equipment      JSONList       `gorm:"type:text" json:"equipment"`
	BaseLocation   string         `gorm:"size:255" json:"base_location"`
	Latitude       *float64       `gorm:"type:decimal(10,7)" json:"latitude,omitempty"`
	Longitude      *float64       `gorm:"type:decimal(10,7)" json:"longitude,omitempty"`
	Capacity       int            `gorm:"default:0" json:"capacity"`
	Specialization JSONList       `gorm:"type:text" json:"specialization"`
	Timestamps
}

func (RescueTeam) TableName() string { return "rescue_teams" }

// TeamView is a team enriched with display data for responses.
type TeamView struct {
	RescueTeam
	LeaderName  string `json:"leader_name,omitempty"`
	MemberCount int    `json:"member_count"`
}

// TeamCreateInput is the team creation payload.
type TeamCreateInput struct {
	Name           string   `json:"name" binding:"required"`
	Type           string   `json:"type" binding:"required"`
	LeaderID       *string  `json:"leader_id"`
	MemberIDs      []string `json:"member_ids"`
	Equipment      []string `json:"equipment"`
	BaseLocation   string   `json:"base_location"`
	Latitude       *float64 `json:"latitude"`
	Longitude      *float64 `json:"longitude"`
	Capacity       int      `json:"capacity"`
	Specialization []string `json:"specialization"`
}

var validTeamTypes = map[string]bool{
	TeamTypeFire: true, TeamTypeMedical: true, TeamTypePolice: true,
	TeamTypeWaterRescue: true, TeamTypeMountainRescue: true,
	TeamTypeSearchRescue: true, TeamTypeEcological: true, TeamTypeMultiPurpose: true,
}

var validTeamStatuses = map[string]bool{
	TeamStatusAvailable: true, TeamStatusBusy: true, TeamStatusOffline: true,
}

// validateLeader checks a prospective leader is an active rescuer.
func validateLeader(db *gorm.DB, leaderID string) (*User, error) {
	leader, err := GetUser(db, leaderID)
	if err != nil {
		if errors.GetCode(err) == errors.CodeNotFound {
			return nil, errors.BadRequest("leader does not exist")
		}
		return nil, err
	}
	if leader.Role != RoleRescuer {
		return nil, errors.BadRequest("team leader must be a rescuer")
	}
	return leader, nil
}

// CreateTeam creates a squad and assigns its initial roster. Member ids
// that do not resolve to rescuers are skipped rather than rejected.
func CreateTeam(db *gorm.DB, in TeamCreateInput) (*RescueTeam, error) {
	if !validTeamTypes[in.Type] {
		return nil, errors.BadRequest("unknown team type")
	}
	if in.Latitude != nil || in.Longitude != nil {
		if in.Latitude == nil || in.Longitude == nil {
			return nil, errors.BadRequest("latitude and longitude must be set together")
		}
		if err := validateCoordinates(*in.Latitude, *in.Longitude); err != nil {
			return nil, err
		}
	}
	if in.LeaderID != nil {
		if _, err := validateLeader(db, *in.LeaderID); err != nil {
			return nil, err
		}
	}

	team := &RescueTeam{
		ID:             uuid.NewString(),
		Name:           in.Name,
		Type:           in.Type,
		Status:         TeamStatusAvailable,
		LeaderID:       in.LeaderID,
		Equipment:      in.Equipment,
		BaseLocation:   in.BaseLocation,
		Latitude:       in.Latitude,
		Longitude:      in.Longitude,
		Capacity:       in.Capacity,
		Specialization: in.Specialization,
		Members:        TeamMemberList{},
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(team).Error; err != nil {
			return errors.Wrap(err, "create team")
		}
		memberIDs := in.MemberIDs
		if in.LeaderID != nil && !containsID(memberIDs, *in.LeaderID) {
			memberIDs = append(memberIDs, *in.LeaderID)
		}
		if err := applyMembership(tx, team, memberIDs); err != nil {
			return err
		}
		return recomputeMembers(tx, team)
	})
	if err != nil {
		return nil, err
	}
	return team, nil
}

// applyMembership points the listed rescuers at the team. Non-rescuer
// ids are silently skipped.
func applyMembership(tx *gorm.DB, team *RescueTeam, memberIDs []string) error {
	for _, id := range memberIDs {
		var user User
		err := tx.First(&user, "id = ?", id).Error
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			continue
		}
		if err != nil {
			return errors.Wrap(err, "load member")
		}
		if user.Role != RoleRescuer {
			continue
		}
		isLeader := team.LeaderID != nil && *team.LeaderID == user.ID
		err = tx.Model(&user).Updates(map[string]interface{}{
			"team_id":        team.ID,
			"is_team_leader": isLeader,
		}).Error
		if err != nil {
			return errors.Wrap(err, "assign member")
		}
	}
	return nil
}

// recomputeMembers rebuilds the roster snapshot from the users table.
// Full recomputation keeps the snapshot provably consistent with
// User.TeamID at the cost of a write-time query.
func recomputeMembers(tx *gorm.DB, team *RescueTeam) error {
	var users []User
	if err := tx.Where("team_id = ?", team.ID).Order("full_name").Find(&users).Error; err != nil {
		return errors.Wrap(err, "load roster")
	}
	members := make(TeamMemberList, 0, len(users))
	for _, u := range users {
		members = append(members, TeamMember{
			UserID:         u.ID,
			Name:           u.FullName,
			Specialization: u.Specialization,
		})
	}
	team.Members = members
	return errors.Wrap(tx.Model(team).Update("members", members).Error, "store roster")
}

// GetTeam loads a team by id.
func GetTeam(db *gorm.DB, id string) (*RescueTeam, error) {
	var team RescueTeam
	err := db.First(&team, "id = ?", id).Error
	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.NotFound("team not found")
	}
	if err != nil {
		return nil, errors.Wrap(err, "load team")
	}
	return &team, nil
}

// GetTeamView returns a team with leader name and member count.
func GetTeamView(db *gorm.DB, id string) (*TeamView, error) {
	team, err := GetTeam(db, id)
	if err != nil {
		return nil, err
	}
	view := &TeamView{RescueTeam: *team, MemberCount: len(team.Members)}
	if team.LeaderID != nil {
		if leader, err := GetUser(db, *team.LeaderID); err == nil {
			view.LeaderName = leader.FullName
		}
	}
	return view, nil
}

// ListTeams returns teams with optional status/type filters.
func ListTeams(db *gorm.DB, status, teamType string, skip, limit int) ([]TeamView, error) {
	q := db.Model(&RescueTeam{})
	if status != "" {
		q = q.Where("status = ?", status)
	}
	if teamType != "" {
		q = q.Where("type = ?", teamType)
	}
	var teams []RescueTeam
	err := q.Order("created_at DESC").Offset(skip).Limit(normalizeLimit(limit)).Find(&teams).Error
	if err != nil {
		return nil, errors.Wrap(err, "list teams")
	}

	views := make([]TeamView, 0, len(teams))
	for _, t := range teams {
		view := TeamView{RescueTeam: t, MemberCount: len(t.Members)}
		if t.LeaderID != nil {
			if leader, err := GetUser(db, *t.LeaderID); err == nil {
				view.LeaderName = leader.FullName
			}
		}
		views = append(views, view)
	}
	return views, nil
}

// TeamUpdateInput carries patchable team fields. LeaderID and MemberIDs
// require the team:manage grant.
type TeamUpdateInput struct {
	Name         *string   `json:"name"`
	Status       *string   `json:"status"`
	BaseLocation *string   `json:"base_location"`
	Latitude     *float64  `json:"latitude"`
	Longitude    *float64  `json:"longitude"`
	Equipment    []string  `json:"equipment"`
	Capacity     *int      `json:"capacity"`
	LeaderID     *string   `json:"leader_id"`
	MemberIDs    *[]string `json:"member_ids"`
}

// UpdateTeam patches a team. Basic fields need team:edit_basic; leader
// reassignment and membership replacement need team:manage.
func UpdateTeam(db *gorm.DB, actor *User, id string, in TeamUpdateInput) (*RescueTeam, error) {
	team, err := GetTeam(db, id)
	if err != nil {
		return nil, err
	}

	touchesRoster := in.LeaderID != nil || in.MemberIDs != nil
	if touchesRoster && !Allowed(actor.Role, ActionTeamManage) {
		return nil, errors.Forbidden("only coordinators and admins may change leadership or membership")
	}
	if !touchesRoster && !Allowed(actor.Role, ActionTeamEditBasic) {
		return nil, errors.Forbidden("insufficient role to modify a team")
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{}
		if in.Name != nil {
			updates["name"] = *in.Name
		}
		if in.Status != nil {
			if !validTeamStatuses[*in.Status] {
				return errors.BadRequest("unknown team status")
			}
			updates["status"] = *in.Status
		}
		if in.BaseLocation != nil {
			updates["base_location"] = *in.BaseLocation
		}
		if in.Latitude != nil || in.Longitude != nil {
			if in.Latitude == nil || in.Longitude == nil {
				return errors.BadRequest("latitude and longitude must be set together")
			}
			if err := validateCoordinates(*in.Latitude, *in.Longitude); err != nil {
				return err
			}
			updates["latitude"] = *in.Latitude
			updates["longitude"] = *in.Longitude
		}
		if in.Equipment != nil {
			updates["equipment"] = JSONList(in.Equipment)
		}
		if in.Capacity != nil {
			updates["capacity"] = *in.Capacity
		}
		if len(updates) > 0 {
			if err := tx.Model(team).Updates(updates).Error; err != nil {
				return errors.Wrap(err, "update team")
			}
		}

		if in.LeaderID != nil {
			if err := reassignLeader(tx, team, *in.LeaderID); err != nil {
				return err
			}
		}
		if in.MemberIDs != nil {
			if err := replaceMembership(tx, team, *in.MemberIDs); err != nil {
				return err
			}
		}
		if touchesRoster {
			return recomputeMembers(tx, team)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return GetTeam(db, id)
}

// reassignLeader moves the leader flag from the previous leader to the
// new one and pulls the new leader into the team.
func reassignLeader(tx *gorm.DB, team *RescueTeam, newLeaderID string) error {
	leader, err := validateLeader(tx, newLeaderID)
	if err != nil {
		return err
	}
	if team.LeaderID != nil && *team.LeaderID != newLeaderID {
		err := tx.Model(&User{}).Where("id = ?", *team.LeaderID).
			Update("is_team_leader", false).Error
		if err != nil {
			return errors.Wrap(err, "demote previous leader")
		}
	}
	err = tx.Model(leader).Updates(map[string]interface{}{
		"team_id":        team.ID,
		"is_team_leader": true,
	}).Error
	if err != nil {
		return errors.Wrap(err, "promote leader")
	}
	team.LeaderID = &newLeaderID
	return errors.Wrap(tx.Model(team).Update("leader_id", newLeaderID).Error, "store leader")
}

// replaceMembership swaps the full roster: everyone currently on the
// team but absent from the new list is released, then the new list is
// applied as in create.
func replaceMembership(tx *gorm.DB, team *RescueTeam, memberIDs []string) error {
	keep := make(map[string]bool, len(memberIDs))
	for _, id := range memberIDs {
		keep[id] = true
	}
	if team.LeaderID != nil {
		keep[*team.LeaderID] = true
		if !containsID(memberIDs, *team.LeaderID) {
			memberIDs = append(memberIDs, *team.LeaderID)
		}
	}

	var current []User
	if err := tx.Where("team_id = ?", team.ID).Find(&current).Error; err != nil {
		return errors.Wrap(err, "load roster")
	}
	for _, u := range current {
		if keep[u.ID] {
			continue
		}
		err := tx.Model(&u).Updates(map[string]interface{}{
			"team_id":        nil,
			"is_team_leader": false,
		}).Error
		if err != nil {
			return errors.Wrap(err, "release member")
		}
	}
	return applyMembership(tx, team, memberIDs)
}

// DeleteTeam hard-deletes a team and releases its members.
func DeleteTeam(db *gorm.DB, id string) error {
	return db.Transaction(func(tx *gorm.DB) error {
		team, err := GetTeam(tx, id)
		if err != nil {
			return err
		}
		err = tx.Model(&User{}).Where("team_id = ?", team.ID).Updates(map[string]interface{}{
			"team_id":        nil,
			"is_team_leader": false,
		}).Error
		if err != nil {
			return errors.Wrap(err, "release members")
		}
		return errors.Wrap(tx.Delete(team).Error, "delete team")
	})
}

func containsID(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
