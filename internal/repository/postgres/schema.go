package postgres

// Sandbox schema identifiers. Tables are resolved through the connection's
// search_path, so they are left unqualified; all names are quoted because the
// schema uses mixed-case identifiers.
const (
	tableUsers             = `"User"`
	tablePasswords         = `"Passwords"`
	tableRequestRights     = `"RequestRight"`
	tableITRoles           = `"ItRole"`
	tableUserRequestRights = `"UserRequestRight"`
	tableUserITRoles       = `"UserITRole"`

	colLogin           = `"login"`
	colLastName        = `"lastName"`
	colFirstName       = `"firstName"`
	colMiddleName      = `"middleName"`
	colTelephoneNumber = `"telephoneNumber"`
	colIsLead          = `"isLead"`

	colID       = `"id"`
	colName     = `"name"`
	colUserID   = `"userId"`
	colPassword = `"password"`
	colRoleID   = `"roleId"`
	colRightID  = `"rightId"`
)
