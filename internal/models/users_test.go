package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"RescueHub/pkg/errors"
)

func TestRegisterNormalizesEmailAndRejectsDuplicate(t *testing.T) {
	db := testDB(t)

	user, err := RegisterUser(db, RegisterInput{
		Email:    "A@Test.ru",
		Phone:    "+7 (900) 123-45-67",
		Password: "secret123",
		FullName: "Анна Иванова",
	})
	require.NoError(t, err)
	assert.Equal(t, "a@test.ru", user.Email)
	assert.Equal(t, "+79001234567", user.Phone)
	assert.Equal(t, RoleCitizen, user.Role)

	_, err = RegisterUser(db, RegisterInput{
		Email:    "a@TEST.RU",
		Phone:    "+79009999999",
		Password: "secret123",
		FullName: "Другой Пользователь",
	})
	require.Error(t, err)
	assert.Equal(t, errors.CodeBadRequest, errors.GetCode(err))
	assert.Contains(t, err.Error(), "email")
}

func TestRegisterRejectsDuplicatePhone(t *testing.T) {
	db := testDB(t)

	_, err := RegisterUser(db, RegisterInput{
		Email: "first@test.ru", Phone: "+7 900 111 22 33",
		Password: "secret123", FullName: "First",
	})
	require.NoError(t, err)

	_, err = RegisterUser(db, RegisterInput{
		Email: "second@test.ru", Phone: "+79001112233",
		Password: "secret123", FullName: "Second",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "phone")
}

func TestAuthenticateUser(t *testing.T) {
	db := testDB(t)
	_, err := RegisterUser(db, RegisterInput{
		Email: "login@test.ru", Phone: "+79001234500",
		Password: "secret123", FullName: "Логин Тест",
	})
	require.NoError(t, err)

	user, err := AuthenticateUser(db, "LOGIN@test.ru", "secret123")
	require.NoError(t, err)
	assert.Equal(t, "login@test.ru", user.Email)

	_, err = AuthenticateUser(db, "login@test.ru", "wrong")
	assert.Equal(t, errors.CodeUnauthorized, errors.GetCode(err))

	require.NoError(t, db.Model(user).Update("is_active", false).Error)
	_, err = AuthenticateUser(db, "login@test.ru", "secret123")
	assert.Equal(t, errors.CodeForbidden, errors.GetCode(err))
}

func TestUpdateUserRoleRequiresManageGrant(t *testing.T) {
	db := testDB(t)
	citizen := seedUser(t, db, RoleCitizen)
	coordinator := seedUser(t, db, RoleCoordinator)

	role := RoleRescuer
	_, err := UpdateUser(db, citizen, citizen.ID, UserUpdateInput{Role: &role})
	assert.Equal(t, errors.CodeForbidden, errors.GetCode(err))

	updated, err := UpdateUser(db, coordinator, citizen.ID, UserUpdateInput{Role: &role})
	require.NoError(t, err)
	assert.Equal(t, RoleRescuer, updated.Role)
}

func TestUpdateUserSpecializationRescuersOnly(t *testing.T) {
	db := testDB(t)
	citizen := seedUser(t, db, RoleCitizen)
	admin := seedUser(t, db, RoleAdmin)

	spec := "alpinist"
	_, err := UpdateUser(db, admin, citizen.ID, UserUpdateInput{Specialization: &spec})
	assert.Equal(t, errors.CodeBadRequest, errors.GetCode(err))

	rescuer := seedUser(t, db, RoleRescuer)
	updated, err := UpdateUser(db, admin, rescuer.ID, UserUpdateInput{Specialization: &spec})
	require.NoError(t, err)
	assert.Equal(t, "alpinist", updated.Specialization)
}

func TestUpdateUserCannotTouchStranger(t *testing.T) {
	db := testDB(t)
	a := seedUser(t, db, RoleCitizen)
	b := seedUser(t, db, RoleCitizen)

	name := "Hacked"
	_, err := UpdateUser(db, a, b.ID, UserUpdateInput{FullName: &name})
	assert.Equal(t, errors.CodeForbidden, errors.GetCode(err))
}
