package model

// RoleInfo describes a role known to a registry.
type RoleInfo struct {
	Name      string `json:"name"`      // e.g. "CONTRIBUTOR_ROLE"
	ID        string `json:"id"`        // bytes32 role id, 0x hex
	AdminRole string `json:"adminRole"` // bytes32 id of the administering role
}

// RoleMember is one (role, account) membership row.
type RoleMember struct {
	Role    string `json:"role"`
	Account string `json:"account"`
}
