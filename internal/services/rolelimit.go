package services

import (
	"communityhub/internal/domain"
)

// guestRoleLimit caps guests at one active role per event system-wide.
const guestRoleLimit = 1

// fallbackRoleLimit applies to tiers missing from the limit table, so a
// custom table that omits a tier still admits rather than blocking it.
const fallbackRoleLimit = 3

// defaultRoleLimits maps authorization tiers to their per-event role ceiling.
// The numbers are product policy; change them here, not in the orchestrator.
var defaultRoleLimits = map[domain.AuthLevel]int{
	domain.AuthLevelSuperAdmin:    domain.UnlimitedRoles,
	domain.AuthLevelAdministrator: domain.UnlimitedRoles,
	domain.AuthLevelLeader:        5,
	domain.AuthLevelParticipant:   3,
}

type roleLimitPolicy struct {
	limits map[domain.AuthLevel]int
}

// NewRoleLimitPolicy returns the default table-driven RoleLimiter.
func NewRoleLimitPolicy() domain.RoleLimiter {
	return NewRoleLimitPolicyWithTable(defaultRoleLimits)
}

// NewRoleLimitPolicyWithTable returns a RoleLimiter backed by the given table.
// Tiers absent from the table fall back to fallbackRoleLimit.
func NewRoleLimitPolicyWithTable(limits map[domain.AuthLevel]int) domain.RoleLimiter {
	copied := make(map[domain.AuthLevel]int, len(limits))
	for k, v := range limits {
		copied[k] = v
	}
	return &roleLimitPolicy{limits: copied}
}

func (p *roleLimitPolicy) MaxRolesPerEvent(level domain.AuthLevel) int {
	if level == "" {
		return guestRoleLimit
	}
	if limit, ok := p.limits[level]; ok {
		return limit
	}
	return fallbackRoleLimit
}
