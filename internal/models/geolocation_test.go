package models

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"RescueHub/pkg/errors"
)

func seedTeamAt(t *testing.T, db *gorm.DB, name, status string, lat, lng float64) *RescueTeam {
	t.Helper()
	team := &RescueTeam{
		ID:        uuid.NewString(),
		Name:      name,
		Type:      TeamTypeSearchRescue,
		Status:    status,
		Latitude:  &lat,
		Longitude: &lng,
		Members:   TeamMemberList{},
	}
	require.NoError(t, db.Create(team).Error)
	return team
}

func TestNearestTeamsFiltersByRadiusAndOrdersByDistance(t *testing.T) {
	db := testDB(t)

	// Tver city center as the query point; the second team is a few
	// kilometers out, the third is Moscow (~160 km away).
	seedTeamAt(t, db, "близкая", TeamStatusAvailable, 56.8587, 35.9176)
	seedTeamAt(t, db, "в городе", TeamStatusAvailable, 56.90, 35.95)
	seedTeamAt(t, db, "далёкая", TeamStatusAvailable, 55.7558, 37.6173)

	teams, err := NearestTeams(db, 56.8587, 35.9176, 50)
	require.NoError(t, err)
	require.Len(t, teams, 2)
	assert.Equal(t, "близкая", teams[0].Name)
	assert.Equal(t, "в городе", teams[1].Name)
	assert.Less(t, teams[0].DistanceKm, teams[1].DistanceKm)

	// A wide enough radius pulls in the distant team too.
	teams, err = NearestTeams(db, 56.8587, 35.9176, 300)
	require.NoError(t, err)
	assert.Len(t, teams, 3)
	assert.Equal(t, "далёкая", teams[2].Name)
}

func TestNearestTeamsSkipsBusyAndUnpositionedTeams(t *testing.T) {
	db := testDB(t)

	seedTeamAt(t, db, "свободная", TeamStatusAvailable, 56.86, 35.92)
	seedTeamAt(t, db, "занятая", TeamStatusBusy, 56.86, 35.92)

	// Team without coordinates is never a dispatch candidate.
	leader := seedUser(t, db, RoleRescuer)
	seedTeam(t, db, leader)

	teams, err := NearestTeams(db, 56.8587, 35.9176, 50)
	require.NoError(t, err)
	require.Len(t, teams, 1)
	assert.Equal(t, "свободная", teams[0].Name)
}

func TestNearestTeamsValidatesInput(t *testing.T) {
	db := testDB(t)

	_, err := NearestTeams(db, 91, 35.9, 50)
	assert.Equal(t, errors.CodeBadRequest, errors.GetCode(err))

	_, err = NearestTeams(db, 56.8, 181, 50)
	assert.Equal(t, errors.CodeBadRequest, errors.GetCode(err))

	_, err = NearestTeams(db, 56.8, 35.9, 0)
	assert.Equal(t, errors.CodeBadRequest, errors.GetCode(err))
}

func TestTeamCoordinatesValidatedOnWrite(t *testing.T) {
	db := testDB(t)
	coordinator := seedUser(t, db, RoleCoordinator)

	lat, lng := 95.0, 35.9
	_, err := CreateTeam(db, TeamCreateInput{
		Name: "плохие координаты", Type: TeamTypeFire, Latitude: &lat, Longitude: &lng,
	})
	assert.Equal(t, errors.CodeBadRequest, errors.GetCode(err))

	leader := seedUser(t, db, RoleRescuer)
	team := seedTeam(t, db, leader)

	goodLat, goodLng := 56.86, 35.92
	updated, err := UpdateTeam(db, coordinator, team.ID, TeamUpdateInput{
		Latitude: &goodLat, Longitude: &goodLng,
	})
	require.NoError(t, err)
	require.NotNil(t, updated.Latitude)
	assert.InDelta(t, goodLat, *updated.Latitude, 1e-6)

	_, err = UpdateTeam(db, coordinator, team.ID, TeamUpdateInput{Latitude: &goodLat})
	assert.Equal(t, errors.CodeBadRequest, errors.GetCode(err))
}
