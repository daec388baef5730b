package drivemap

import (
	"fmt"
	"strings"

	"google.golang.org/api/drive/v3"
)

// Permission describes the access granted when a shareable link is generated with Reader.URL.
type Permission interface {
	Grantee() Grantee
	Role() Role
	AllowFileDiscovery() bool
	doNotImplement(Permission)
}

type permission struct {
	grantee            Grantee
	role               Role
	allowFileDiscovery bool
}

func UserPermission(email string, role Role) Permission {
	return permission{grantee: User(email), role: role}
}

func GroupPermission(email string, role Role) Permission {
	return permission{grantee: Group(email), role: role}
}

func DomainPermission(domain string, role Role, allowFileDiscovery bool) Permission {
	return permission{grantee: Domain(domain), role: role, allowFileDiscovery: allowFileDiscovery}
}

func AnyonePermission(role Role, allowFileDiscovery bool) Permission {
	return permission{grantee: Anyone(), role: role, allowFileDiscovery: allowFileDiscovery}
}

// ParsePermission builds a Permission from a grantee type ("anyone", "user", "group" or "domain"),
// a role name and the email address or domain the grantee type needs.
func ParsePermission(granteeType string, role string, target string) (Permission, error) {
	r := Role(role)
	if !r.valid() {
		return nil, fmt.Errorf("unknown permission role %q", role)
	}
	switch granteeType {
	case granteeTypeAnyone:
		return AnyonePermission(r, false), nil
	case granteeTypeUser, granteeTypeGroup, granteeTypeDomain:
		if target == "" {
			return nil, fmt.Errorf("permission type %q requires an email address or domain", granteeType)
		}
		switch granteeType {
		case granteeTypeUser:
			return UserPermission(target, r), nil
		case granteeTypeGroup:
			return GroupPermission(target, r), nil
		}
		return DomainPermission(target, r, false), nil
	}
	return nil, fmt.Errorf("unknown permission type %q", granteeType)
}

func (p permission) Grantee() Grantee {
	return p.grantee
}

func (p permission) Role() Role {
	return p.role
}

func (p permission) AllowFileDiscovery() bool {
	return p.allowFileDiscovery
}

func (p permission) doNotImplement(Permission) {}

func newDrivePermission(p Permission) *drive.Permission {
	perm := &drive.Permission{
		Type: p.Grantee().Type(),
		Role: string(p.Role()),
	}
	switch grantee := p.Grantee().(type) {
	case GranteeUser:
		perm.EmailAddress = grantee.Email
	case GranteeGroup:
		perm.EmailAddress = grantee.Email
	case GranteeDomain:
		perm.Domain = grantee.Domain
		perm.AllowFileDiscovery = p.AllowFileDiscovery()
	case GranteeAnyone:
		perm.AllowFileDiscovery = p.AllowFileDiscovery()
	}
	return perm
}

func granteeMatch(perm *drive.Permission, grantee Grantee) bool {
	switch grantee := grantee.(type) {
	case GranteeUser:
		return perm.Type == granteeTypeUser && strings.EqualFold(perm.EmailAddress, grantee.Email)
	case GranteeGroup:
		return perm.Type == granteeTypeGroup && strings.EqualFold(perm.EmailAddress, grantee.Email)
	case GranteeDomain:
		return perm.Type == granteeTypeDomain && strings.EqualFold(perm.Domain, grantee.Domain)
	case GranteeAnyone:
		return perm.Type == granteeTypeAnyone
	}
	return false
}
