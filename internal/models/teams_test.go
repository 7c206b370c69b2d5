package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"RescueHub/pkg/errors"
)

// assertRosterInvariant checks both directions of the denormalized
// members snapshot: every user pointing at the team appears in it, and
// nobody else does.
func assertRosterInvariant(t *testing.T, db *gorm.DB, teamID string) {
	t.Helper()
	team, err := GetTeam(db, teamID)
	require.NoError(t, err)

	var users []User
	require.NoError(t, db.Where("team_id = ?", teamID).Find(&users).Error)

	byID := map[string]User{}
	for _, u := range users {
		byID[u.ID] = u
	}
	require.Len(t, team.Members, len(users), "snapshot size differs from users pointing at the team")
	for _, m := range team.Members {
		u, ok := byID[m.UserID]
		require.True(t, ok, "snapshot contains %s who does not point at the team", m.UserID)
		assert.Equal(t, u.FullName, m.Name)
		assert.Equal(t, u.Specialization, m.Specialization)
	}
}

func TestCreateTeamBuildsRoster(t *testing.T) {
	db := testDB(t)
	leader := seedUser(t, db, RoleRescuer)
	member := seedUser(t, db, RoleRescuer)
	civilian := seedUser(t, db, RoleCitizen) // must be skipped

	team, err := CreateTeam(db, TeamCreateInput{
		Name:     "Отряд-1",
		Type:     TeamTypeFire,
		LeaderID: &leader.ID,
		MemberIDs: []string{
			member.ID, civilian.ID, "missing-id",
		},
	})
	require.NoError(t, err)
	assertRosterInvariant(t, db, team.ID)
	assert.Len(t, team.Members, 2)

	reloaded, err := GetUser(db, leader.ID)
	require.NoError(t, err)
	assert.True(t, reloaded.IsTeamLeader)
	require.NotNil(t, reloaded.TeamID)
	assert.Equal(t, team.ID, *reloaded.TeamID)
}

func TestCreateTeamRejectsNonRescuerLeader(t *testing.T) {
	db := testDB(t)
	operator := seedUser(t, db, RoleOperator)

	_, err := CreateTeam(db, TeamCreateInput{Name: "X", Type: TeamTypeMedical, LeaderID: &operator.ID})
	assert.Equal(t, errors.CodeBadRequest, errors.GetCode(err))
}

func TestReassignLeaderMovesFlag(t *testing.T) {
	db := testDB(t)
	coordinator := seedUser(t, db, RoleCoordinator)
	oldLeader := seedUser(t, db, RoleRescuer)
	newLeader := seedUser(t, db, RoleRescuer)
	team := seedTeam(t, db, oldLeader, newLeader)

	_, err := UpdateTeam(db, coordinator, team.ID, TeamUpdateInput{LeaderID: &newLeader.ID})
	require.NoError(t, err)

	prev, _ := GetUser(db, oldLeader.ID)
	next, _ := GetUser(db, newLeader.ID)
	assert.False(t, prev.IsTeamLeader)
	assert.True(t, next.IsTeamLeader)
	assertRosterInvariant(t, db, team.ID)
}

func TestReplaceMembershipClearsDeparted(t *testing.T) {
	db := testDB(t)
	coordinator := seedUser(t, db, RoleCoordinator)
	leader := seedUser(t, db, RoleRescuer)
	oldMember := seedUser(t, db, RoleRescuer)
	newMember := seedUser(t, db, RoleRescuer)
	team := seedTeam(t, db, leader, oldMember)

	members := []string{newMember.ID}
	_, err := UpdateTeam(db, coordinator, team.ID, TeamUpdateInput{MemberIDs: &members})
	require.NoError(t, err)

	departed, _ := GetUser(db, oldMember.ID)
	assert.Nil(t, departed.TeamID)
	assert.False(t, departed.IsTeamLeader)

	joined, _ := GetUser(db, newMember.ID)
	require.NotNil(t, joined.TeamID)
	assert.Equal(t, team.ID, *joined.TeamID)

	// The leader survives a membership replacement that omits them.
	keptLeader, _ := GetUser(db, leader.ID)
	require.NotNil(t, keptLeader.TeamID)
	assert.True(t, keptLeader.IsTeamLeader)

	assertRosterInvariant(t, db, team.ID)
}

func TestRosterChangesRequireManageGrant(t *testing.T) {
	db := testDB(t)
	operator := seedUser(t, db, RoleOperator)
	leader := seedUser(t, db, RoleRescuer)
	team := seedTeam(t, db, leader)

	other := seedUser(t, db, RoleRescuer)
	members := []string{other.ID}
	_, err := UpdateTeam(db, operator, team.ID, TeamUpdateInput{MemberIDs: &members})
	assert.Equal(t, errors.CodeForbidden, errors.GetCode(err))

	// Basic fields stay open to operators.
	status := TeamStatusBusy
	updated, err := UpdateTeam(db, operator, team.ID, TeamUpdateInput{Status: &status})
	require.NoError(t, err)
	assert.Equal(t, TeamStatusBusy, updated.Status)
}

func TestDeleteTeamReleasesMembers(t *testing.T) {
	db := testDB(t)
	leader := seedUser(t, db, RoleRescuer)
	member := seedUser(t, db, RoleRescuer)
	team := seedTeam(t, db, leader, member)

	require.NoError(t, DeleteTeam(db, team.ID))

	_, err := GetTeam(db, team.ID)
	assert.Equal(t, errors.CodeNotFound, errors.GetCode(err))
	released, _ := GetUser(db, member.ID)
	assert.Nil(t, released.TeamID)
}
