package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"RescueHub/pkg/errors"
)

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

func TestAlertLifecycleTimestamps(t *testing.T) {
	db := testDB(t)
	citizen := seedUser(t, db, RoleCitizen)
	operator := seedUser(t, db, RoleOperator)
	leader := seedUser(t, db, RoleRescuer)
	team := seedTeam(t, db, leader)
	alert := seedAlert(t, db, citizen)

	assert.Equal(t, AlertStatusPending, alert.Status)
	assert.Equal(t, PriorityMedium, alert.Priority)
	assert.Nil(t, alert.AssignedAt)

	// pending -> assigned by operator stamps assigned_at.
	view, _, err := UpdateAlert(db, operator, alert.ID, AlertUpdateInput{
		Status: strPtr(AlertStatusAssigned),
		TeamID: &team.ID,
	})
	require.NoError(t, err)
	require.NotNil(t, view.AssignedAt)
	firstAssigned := *view.AssignedAt
	assert.False(t, firstAssigned.Before(view.CreatedAt))

	// assigned -> in_progress by the team leader keeps assigned_at.
	reloadedLeader, _ := GetUser(db, leader.ID)
	view, _, err = UpdateAlert(db, reloadedLeader, alert.ID, AlertUpdateInput{
		Status: strPtr(AlertStatusInProgress),
	})
	require.NoError(t, err)
	require.NotNil(t, view.AssignedAt)
	assert.Equal(t, firstAssigned.Unix(), view.AssignedAt.Unix())
	require.NotNil(t, view.AssignedTo)
	assert.Equal(t, leader.ID, *view.AssignedTo)

	// in_progress -> completed stamps completed_at after assigned_at.
	view, _, err = UpdateAlert(db, reloadedLeader, alert.ID, AlertUpdateInput{
		Status: strPtr(AlertStatusCompleted),
	})
	require.NoError(t, err)
	require.NotNil(t, view.CompletedAt)
	assert.False(t, view.CompletedAt.Before(*view.AssignedAt))
}

func TestNonLeaderRescuerAlwaysForbidden(t *testing.T) {
	db := testDB(t)
	citizen := seedUser(t, db, RoleCitizen)
	operator := seedUser(t, db, RoleOperator)
	leader := seedUser(t, db, RoleRescuer)
	regular := seedUser(t, db, RoleRescuer)
	team := seedTeam(t, db, leader, regular)
	alert := seedAlert(t, db, citizen)

	reloadedRegular, _ := GetUser(db, regular.ID)

	for _, status := range []string{AlertStatusAssigned, AlertStatusInProgress, AlertStatusCompleted, AlertStatusCancelled} {
		_, _, err := UpdateAlert(db, reloadedRegular, alert.ID, AlertUpdateInput{Status: strPtr(status)})
		assert.Equal(t, errors.CodeForbidden, errors.GetCode(err), "status %s must be forbidden", status)
	}

	// Still forbidden after the alert is assigned to their own team.
	_, _, err := UpdateAlert(db, operator, alert.ID, AlertUpdateInput{
		Status: strPtr(AlertStatusAssigned),
		TeamID: &team.ID,
	})
	require.NoError(t, err)
	_, _, err = UpdateAlert(db, reloadedRegular, alert.ID, AlertUpdateInput{Status: strPtr(AlertStatusInProgress)})
	assert.Equal(t, errors.CodeForbidden, errors.GetCode(err))
}

func TestLeaderCannotTakeForeignTeamAlert(t *testing.T) {
	db := testDB(t)
	citizen := seedUser(t, db, RoleCitizen)
	operator := seedUser(t, db, RoleOperator)
	leaderA := seedUser(t, db, RoleRescuer)
	leaderB := seedUser(t, db, RoleRescuer)
	teamA := seedTeam(t, db, leaderA)
	seedTeam(t, db, leaderB)
	alert := seedAlert(t, db, citizen)

	_, _, err := UpdateAlert(db, operator, alert.ID, AlertUpdateInput{
		Status: strPtr(AlertStatusAssigned),
		TeamID: &teamA.ID,
	})
	require.NoError(t, err)

	reloadedB, _ := GetUser(db, leaderB.ID)
	_, _, err = UpdateAlert(db, reloadedB, alert.ID, AlertUpdateInput{Status: strPtr(AlertStatusInProgress)})
	assert.Equal(t, errors.CodeForbidden, errors.GetCode(err))
}

func TestLeaderClaimsUnassignedAlertFromPool(t *testing.T) {
	db := testDB(t)
	citizen := seedUser(t, db, RoleCitizen)
	operator := seedUser(t, db, RoleOperator)
	leader := seedUser(t, db, RoleRescuer)
	team := seedTeam(t, db, leader)
	alert := seedAlert(t, db, citizen)

	// Assigned without a team: the unclaimed pool.
	_, _, err := UpdateAlert(db, operator, alert.ID, AlertUpdateInput{Status: strPtr(AlertStatusAssigned)})
	require.NoError(t, err)

	reloadedLeader, _ := GetUser(db, leader.ID)
	view, _, err := UpdateAlert(db, reloadedLeader, alert.ID, AlertUpdateInput{Status: strPtr(AlertStatusInProgress)})
	require.NoError(t, err)
	require.NotNil(t, view.TeamID)
	assert.Equal(t, team.ID, *view.TeamID) // leader's team backfilled
}

func TestOperatorStatusChangesRestricted(t *testing.T) {
	db := testDB(t)
	citizen := seedUser(t, db, RoleCitizen)
	operator := seedUser(t, db, RoleOperator)
	alert := seedAlert(t, db, citizen)

	// Operators cannot push work straight to completion.
	_, _, err := UpdateAlert(db, operator, alert.ID, AlertUpdateInput{Status: strPtr(AlertStatusCompleted)})
	assert.Equal(t, errors.CodeForbidden, errors.GetCode(err))

	// Cancel works from pending, then the alert is terminal.
	_, _, err = UpdateAlert(db, operator, alert.ID, AlertUpdateInput{Status: strPtr(AlertStatusCancelled)})
	require.NoError(t, err)
	_, _, err = UpdateAlert(db, operator, alert.ID, AlertUpdateInput{Status: strPtr(AlertStatusAssigned)})
	assert.Equal(t, errors.CodeBadRequest, errors.GetCode(err))
}

func TestOperatorDirectFieldEdits(t *testing.T) {
	db := testDB(t)
	citizen := seedUser(t, db, RoleCitizen)
	operator := seedUser(t, db, RoleOperator)
	alert := seedAlert(t, db, citizen)

	view, _, err := UpdateAlert(db, operator, alert.ID, AlertUpdateInput{
		Priority:    intPtr(PriorityCritical),
		Description: strPtr("Уточнение: человек не дышит"),
	})
	require.NoError(t, err)
	assert.Equal(t, PriorityCritical, view.Priority)
	assert.Equal(t, AlertStatusPending, view.Status) // no state change

	_, _, err = UpdateAlert(db, operator, alert.ID, AlertUpdateInput{Priority: intPtr(9)})
	assert.Equal(t, errors.CodeBadRequest, errors.GetCode(err))
}

func TestCitizenMayOnlyCancelOwnPending(t *testing.T) {
	db := testDB(t)
	reporter := seedUser(t, db, RoleCitizen)
	other := seedUser(t, db, RoleCitizen)
	alert := seedAlert(t, db, reporter)

	_, _, err := UpdateAlert(db, other, alert.ID, AlertUpdateInput{Status: strPtr(AlertStatusCancelled)})
	assert.Equal(t, errors.CodeForbidden, errors.GetCode(err))

	_, _, err = UpdateAlert(db, reporter, alert.ID, AlertUpdateInput{Status: strPtr(AlertStatusCompleted)})
	assert.Equal(t, errors.CodeForbidden, errors.GetCode(err))

	view, _, err := UpdateAlert(db, reporter, alert.ID, AlertUpdateInput{Status: strPtr(AlertStatusCancelled)})
	require.NoError(t, err)
	assert.Equal(t, AlertStatusCancelled, view.Status)
}

func TestCitizenListingOnlyOwnAlerts(t *testing.T) {
	db := testDB(t)
	a := seedUser(t, db, RoleCitizen)
	b := seedUser(t, db, RoleCitizen)
	seedAlert(t, db, a)
	seedAlert(t, db, b)
	seedAlert(t, db, b)

	alerts, err := ListAlerts(db, a, AlertFilter{})
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	for _, al := range alerts {
		assert.Equal(t, a.ID, al.UserID)
	}

	_, err = GetAlert(db, a, alerts[0].ID)
	require.NoError(t, err)
	other, listErr := ListAlerts(db, b, AlertFilter{})
	require.NoError(t, listErr)
	_, err = GetAlert(db, a, other[0].ID)
	assert.Equal(t, errors.CodeForbidden, errors.GetCode(err))
}

func TestRescuerListingIncludesUnclaimedPool(t *testing.T) {
	db := testDB(t)
	citizen := seedUser(t, db, RoleCitizen)
	operator := seedUser(t, db, RoleOperator)
	// Rescuer on a completely unrelated team.
	leader := seedUser(t, db, RoleRescuer)
	seedTeam(t, db, leader)

	pool := seedAlert(t, db, citizen)
	_, _, err := UpdateAlert(db, operator, pool.ID, AlertUpdateInput{Status: strPtr(AlertStatusAssigned)})
	require.NoError(t, err)

	foreign := seedAlert(t, db, citizen) // stays pending, not visible

	reloadedLeader, _ := GetUser(db, leader.ID)
	alerts, err := ListAlerts(db, reloadedLeader, AlertFilter{})
	require.NoError(t, err)

	ids := map[string]bool{}
	for _, a := range alerts {
		ids[a.ID] = true
	}
	assert.True(t, ids[pool.ID], "unclaimed assigned alert must be visible to any rescuer")
	assert.False(t, ids[foreign.ID], "pending alert of a stranger must be hidden")
}

func TestFanoutPlanCoversWholeTeam(t *testing.T) {
	db := testDB(t)
	citizen := seedUser(t, db, RoleCitizen)
	operator := seedUser(t, db, RoleOperator)
	leader := seedUser(t, db, RoleRescuer)
	m1 := seedUser(t, db, RoleRescuer)
	m2 := seedUser(t, db, RoleRescuer)
	team := seedTeam(t, db, leader, m1, m2)
	alert := seedAlert(t, db, citizen)

	_, plan, err := UpdateAlert(db, operator, alert.ID, AlertUpdateInput{
		Status: strPtr(AlertStatusAssigned),
		TeamID: &team.ID,
	})
	require.NoError(t, err)
	require.NotNil(t, plan)
	assert.Equal(t, "new_alert", plan.Event)
	assert.Equal(t, NotificationSOSAssigned, plan.NotificationType)
	assert.ElementsMatch(t, []string{leader.ID, m1.ID, m2.ID}, plan.UserIDs)
}

func TestFanoutPlanIndividualAssignee(t *testing.T) {
	db := testDB(t)
	citizen := seedUser(t, db, RoleCitizen)
	operator := seedUser(t, db, RoleOperator)
	rescuer := seedUser(t, db, RoleRescuer)
	alert := seedAlert(t, db, citizen)

	_, plan, err := UpdateAlert(db, operator, alert.ID, AlertUpdateInput{AssignedTo: &rescuer.ID})
	require.NoError(t, err)
	require.NotNil(t, plan)
	assert.Equal(t, "alert_updated", plan.Event)
	assert.Equal(t, []string{rescuer.ID}, plan.UserIDs)
}

func TestAlertStats(t *testing.T) {
	db := testDB(t)
	citizen := seedUser(t, db, RoleCitizen)
	operator := seedUser(t, db, RoleOperator)
	a1 := seedAlert(t, db, citizen)
	seedAlert(t, db, citizen)

	_, _, err := UpdateAlert(db, operator, a1.ID, AlertUpdateInput{Status: strPtr(AlertStatusCancelled)})
	require.NoError(t, err)

	stats, err := GetAlertStats(db)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.Total)
	assert.Equal(t, int64(1), stats.Active)
	assert.Equal(t, int64(1), stats.ByStatus[AlertStatusCancelled])
	assert.Equal(t, int64(2), stats.ByType[AlertTypeMedical])
}
