package models

// Action is a guarded operation checked against the role policy table.
type Action string

const (
	ActionAlertTriage     Action = "alert:triage"    // assign, cancel, direct field edits
	ActionAlertAccept     Action = "alert:accept"    // leader takes assigned work
	ActionAlertViewAll    Action = "alert:view_all"  // unscoped listing
	ActionAlertDelete     Action = "alert:delete"    // hard delete
	ActionTeamManage      Action = "team:manage"     // create, leader/membership changes
	ActionTeamEditBasic   Action = "team:edit_basic" // name/status/location/equipment
	ActionTeamDelete      Action = "team:delete"
	ActionUserList        Action = "user:list"
	ActionUserManage      Action = "user:manage" // role/activity/specialization edits
	ActionUserDelete      Action = "user:delete"
	ActionAnalyticsView   Action = "analytics:view"
	ActionSystemConfigure Action = "system:configure"
)

// policy is the authorization matrix, declared once instead of being
// scattered through handlers as role conditionals.
var policy = map[Action]map[string]bool{
	ActionAlertTriage:     {RoleOperator: true, RoleCoordinator: true, RoleAdmin: true},
	ActionAlertAccept:     {RoleRescuer: true},
	ActionAlertViewAll:    {RoleOperator: true, RoleCoordinator: true, RoleAdmin: true},
	ActionAlertDelete:     {RoleAdmin: true},
	ActionTeamManage:      {RoleCoordinator: true, RoleAdmin: true},
	ActionTeamEditBasic:   {RoleOperator: true, RoleCoordinator: true, RoleAdmin: true},
	ActionTeamDelete:      {RoleAdmin: true},
	ActionUserList:        {RoleOperator: true, RoleCoordinator: true, RoleAdmin: true},
	ActionUserManage:      {RoleCoordinator: true, RoleAdmin: true},
	ActionUserDelete:      {RoleAdmin: true},
	ActionAnalyticsView:   {RoleOperator: true, RoleCoordinator: true, RoleAdmin: true},
	ActionSystemConfigure: {RoleAdmin: true},
}

// Allowed reports whether the role may perform the action.
func Allowed(role string, action Action) bool {
	return policy[action][role]
}
