package models

import (
	stderrors "errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"RescueHub/pkg/auth"
	"RescueHub/pkg/errors"
	"RescueHub/pkg/middleware"
	"RescueHub/pkg/util"
)

// Role values. Citizens file alerts, rescuers work them, operators and
// coordinators triage, admin does everything.
const (
	RoleCitizen     = "citizen"
	RoleRescuer     = "rescuer"
	RoleOperator    = "operator"
	RoleCoordinator = "coordinator"
	RoleAdmin       = "admin"
)

// User is an account of any role.
type User struct {
	ID             string  `gorm:"primaryKey;size:36" json:"id"`
	Email          string  `gorm:"uniqueIndex;size:255;not null" json:"email"`
	Phone          string  `gorm:"uniqueIndex;size:32;not null" json:"phone"`
	PasswordHash   string  `gorm:"size:255;not null" json:"-"`
	Role           string  `gorm:"size:20;not null;default:citizen" json:"role"`
	FullName       string  `gorm:"size:255;not null" json:"full_name"`
	Specialization string  `gorm:"size:100" json:"specialization,omitempty"`
	TeamID         *string `gorm:"size:36;index" json:"team_id,omitempty"`
	IsTeamLeader   bool    `gorm:"default:false" json:"is_team_leader"`
	IsActive       bool    `gorm:"default:true" json:"is_active"`
	IsVerified     bool    `gorm:"default:false" json:"is_verified"`
	Timestamps
}

func (User) TableName() string { return "users" }

// RegisterInput is the self-service signup payload. Role is always
// citizen; elevated roles are granted by an admin afterwards.
type RegisterInput struct {
	Email    string `json:"email" binding:"required,email"`
	Phone    string `json:"phone" binding:"required"`
	Password string `json:"password" binding:"required,min=8"`
	FullName string `json:"full_name" binding:"required"`
}

// RegisterUser creates a citizen account. Email and phone are
// normalized before the uniqueness checks so case and formatting
// variants collide with existing accounts.
func RegisterUser(db *gorm.DB, in RegisterInput) (*User, error) {
	email := util.NormalizeEmail(in.Email)
	phone := util.NormalizePhone(in.Phone)

	var count int64
	if err := db.Model(&User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return nil, errors.Wrap(err, "check email")
	}
	if count > 0 {
		return nil, errors.BadRequest("email already registered")
	}
	if err := db.Model(&User{}).Where("phone = ?", phone).Count(&count).Error; err != nil {
		return nil, errors.Wrap(err, "check phone")
	}
	if count > 0 {
		return nil, errors.BadRequest("phone already registered")
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, errors.Wrap(err, "hash password")
	}

	user := &User{
		ID:           uuid.NewString(),
		Email:        email,
		Phone:        phone,
		PasswordHash: hash,
		Role:         RoleCitizen,
		FullName:     in.FullName,
		IsActive:     true,
	}
	if err := db.Create(user).Error; err != nil {
		return nil, errors.Wrap(err, "create user")
	}
	return user, nil
}

// AuthenticateUser validates credentials for login.
func AuthenticateUser(db *gorm.DB, email, password string) (*User, error) {
	var user User
	err := db.Where("email = ?", util.NormalizeEmail(email)).First(&user).Error
	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.Unauthorized("invalid email or password")
	}
	if err != nil {
		return nil, errors.Wrap(err, "load user")
	}
	if !auth.VerifyPassword(password, user.PasswordHash) {
		return nil, errors.Unauthorized("invalid email or password")
	}
	if !user.IsActive {
		return nil, errors.Forbidden("account is deactivated")
	}
	return &user, nil
}

// GetUser loads a user by id.
func GetUser(db *gorm.DB, id string) (*User, error) {
	var user User
	err := db.First(&user, "id = ?", id).Error
	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.NotFound("user not found")
	}
	if err != nil {
		return nil, errors.Wrap(err, "load user")
	}
	return &user, nil
}

// CurrentUser resolves the authenticated user from the request context.
func CurrentUser(c *gin.Context, db *gorm.DB) (*User, error) {
	uid := middleware.UserID(c)
	if uid == "" {
		return nil, errors.Unauthorized("authentication required")
	}
	user, err := GetUser(db, uid)
	if err != nil {
		if errors.GetCode(err) == errors.CodeNotFound {
			return nil, errors.Unauthorized("account no longer exists")
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, errors.Forbidden("account is deactivated")
	}
	return user, nil
}

// ListUsers returns accounts with optional role filter, newest first.
func ListUsers(db *gorm.DB, role string, skip, limit int) ([]User, error) {
	q := db.Model(&User{})
	if role != "" {
		q = q.Where("role = ?", role)
	}
	var users []User
	err := q.Order("created_at DESC").Offset(skip).Limit(normalizeLimit(limit)).Find(&users).Error
	if err != nil {
		return nil, errors.Wrap(err, "list users")
	}
	return users, nil
}

// UserUpdateInput carries the patchable user fields. Pointer fields
// distinguish "absent" from zero values.
type UserUpdateInput struct {
	FullName       *string `json:"full_name"`
	Phone          *string `json:"phone"`
	Role           *string `json:"role"`
	Specialization *string `json:"specialization"`
	IsActive       *bool   `json:"is_active"`
	IsVerified     *bool   `json:"is_verified"`
}

var validRoles = map[string]bool{
	RoleCitizen: true, RoleRescuer: true, RoleOperator: true,
	RoleCoordinator: true, RoleAdmin: true,
}

// UpdateUser patches an account. Basic fields may be edited by the
// account owner; role, activity and specialization changes require the
// coordinator/admin grant checked by the caller via the policy table.
func UpdateUser(db *gorm.DB, actor *User, id string, in UserUpdateInput) (*User, error) {
	user, err := GetUser(db, id)
	if err != nil {
		return nil, err
	}

	self := actor.ID == user.ID
	manage := Allowed(actor.Role, ActionUserManage)
	if !self && !manage {
		return nil, errors.Forbidden("cannot modify another user's account")
	}

	updates := map[string]interface{}{}
	if in.FullName != nil {
		updates["full_name"] = *in.FullName
	}
	if in.Phone != nil {
		phone := util.NormalizePhone(*in.Phone)
		var count int64
		if err := db.Model(&User{}).Where("phone = ? AND id <> ?", phone, user.ID).Count(&count).Error; err != nil {
			return nil, errors.Wrap(err, "check phone")
		}
		if count > 0 {
			return nil, errors.BadRequest("phone already registered")
		}
		updates["phone"] = phone
	}
	if in.Role != nil {
		if !manage {
			return nil, errors.Forbidden("only coordinators and admins may change roles")
		}
		if !validRoles[*in.Role] {
			return nil, errors.BadRequest("unknown role")
		}
		updates["role"] = *in.Role
	}
	if in.Specialization != nil {
		if !manage {
			return nil, errors.Forbidden("only coordinators and admins may set specialization")
		}
		role := user.Role
		if in.Role != nil {
			role = *in.Role
		}
		if role != RoleRescuer {
			return nil, errors.BadRequest("specialization applies to rescuers only")
		}
		updates["specialization"] = *in.Specialization
	}
	if in.IsActive != nil {
		if !manage {
			return nil, errors.Forbidden("only coordinators and admins may change account status")
		}
		updates["is_active"] = *in.IsActive
	}
	if in.IsVerified != nil {
		if !manage {
			return nil, errors.Forbidden("only coordinators and admins may verify accounts")
		}
		updates["is_verified"] = *in.IsVerified
	}

	if len(updates) == 0 {
		return user, nil
	}
	if err := db.Model(user).Updates(updates).Error; err != nil {
		return nil, errors.Wrap(err, "update user")
	}
	return GetUser(db, id)
}

// DeleteUser removes an account. Admin only, enforced by the caller.
func DeleteUser(db *gorm.DB, id string) error {
	res := db.Delete(&User{}, "id = ?", id)
	if res.Error != nil {
		return errors.Wrap(res.Error, "delete user")
	}
	if res.RowsAffected == 0 {
		return errors.NotFound("user not found")
	}
	return nil
}
