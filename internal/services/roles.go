package services

// Known roles, lowest privilege first.
const (
	RoleCustomer = "customer"
	RoleSeller   = "seller"
	RoleAdmin    = "admin"
)

var roleRank = map[string]int{
	RoleCustomer: 1,
	RoleSeller:   2,
	RoleAdmin:    3,
}

// RoleSatisfies reports whether a holder of role may access a route requiring required.
// Ranked roles satisfy every role ranked at or below them; unranked roles only match exactly.
func RoleSatisfies(role, required string) bool {
	if required == "" {
		return true
	}
	if role == "" {
		return false
	}
	have, okHave := roleRank[role]
	need, okNeed := roleRank[required]
	if !okHave || !okNeed {
		return role == required
	}
	return have >= need
}
