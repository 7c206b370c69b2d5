package models

import (
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var testDBSeq atomic.Int64

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:models_test_%d?mode=memory&cache=shared", testDBSeq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, AutoMigrate(db))
	return db
}

func seedUser(t *testing.T, db *gorm.DB, role string, mutate ...func(*User)) *User {
	t.Helper()
	id := uuid.NewString()
	user := &User{
		ID:           id,
		Email:        id[:8] + "@test.ru",
		Phone:        "+7" + id[:10],
		PasswordHash: "x",
		Role:         role,
		FullName:     "User " + id[:8],
		IsActive:     true,
	}
	for _, m := range mutate {
		m(user)
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func seedTeam(t *testing.T, db *gorm.DB, leader *User, members ...*User) *RescueTeam {
	t.Helper()
	ids := make([]string, 0, len(members))
	for _, m := range members {
		ids = append(ids, m.ID)
	}
	in := TeamCreateInput{Name: "Squad " + uuid.NewString()[:8], Type: TeamTypeSearchRescue, MemberIDs: ids}
	if leader != nil {
		in.LeaderID = &leader.ID
	}
	team, err := CreateTeam(db, in)
	require.NoError(t, err)
	return team
}

func seedAlert(t *testing.T, db *gorm.DB, reporter *User) *SOSAlert {
	t.Helper()
	alert, err := CreateAlert(db, reporter, AlertCreateInput{
		Type:        AlertTypeMedical,
		Latitude:    55.75,
		Longitude:   37.61,
		Title:       "Человеку плохо",
		Description: "Мужчина без сознания у входа в метро",
	})
	require.NoError(t, err)
	return alert
}
