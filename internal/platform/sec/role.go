// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

// # User Roles

// UserRole is the authorization level carried in the token's role claim.
type UserRole string

const (
	// RoleAdmin manages every session.
	RoleAdmin UserRole = "admin"

	// RoleTrainer schedules sessions and manages other participants' enrollments.
	RoleTrainer UserRole = "trainer"

	// RoleMember enrolls and cancels for itself only.
	RoleMember UserRole = "member"
)

var roleLevels = map[UserRole]int{
	RoleMember:  1,
	RoleTrainer: 2,
	RoleAdmin:   3,
}

// Known reports whether the role is part of the hierarchy.
func (r UserRole) Known() bool {
	_, found := roleLevels[r]
	return found
}

// AtLeast checks if the role meets or exceeds target. Unknown roles never do.
func (r UserRole) AtLeast(target UserRole) bool {
	return r.Known() && roleLevels[r] >= roleLevels[target]
}
