package crm

// Permission names granted by the server.
const (
	PermProspectsRead   = "prospects.read"
	PermProspectsCreate = "prospects.create"
	PermProspectsUpdate = "prospects.update"
	PermProspectsDelete = "prospects.delete"
	PermProspectsAssign = "prospects.assign"

	PermUsersRead           = "users.read"
	PermUsersCreate         = "users.create"
	PermUsersUpdate         = "users.update"
	PermUsersDelete         = "users.delete"
	PermUsersUpdatePassword = "users.update_password"

	PermRolesRead   = "roles.read"
	PermRolesManage = "roles.manage"

	PermPermissionsRead = "permissions.read"

	PermCommentsRead   = "comments.read"
	PermCommentsCreate = "comments.create"
	PermCommentsDelete = "comments.delete"

	PermInteractionsRead   = "interactions.read"
	PermInteractionsCreate = "interactions.create"
	PermInteractionsDelete = "interactions.delete"

	PermFormationsRead    = "formations.read"
	PermFormationsManage  = "formations.manage"
	PermSimulateursRead   = "simulateurs.read"
	PermSimulateursManage = "simulateurs.manage"

	PermStatsRead = "stats.read"
)
