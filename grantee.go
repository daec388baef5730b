package drivemap

const (
	granteeTypeUser   = "user"
	granteeTypeGroup  = "group"
	granteeTypeDomain = "domain"
	granteeTypeAnyone = "anyone"
)

// Grantee is who a shareable link is opened to.
// This is a sealed interface - use the constructor functions User, Group, Domain, or Anyone.
type Grantee interface {
	// Type returns the Drive permission type: "user", "group", "domain" or "anyone".
	Type() string
	doNotImplement(Grantee)
}

func User(email string) Grantee {
	return GranteeUser{Email: email}
}

func Group(email string) Grantee {
	return GranteeGroup{Email: email}
}

// Domain creates a Grantee representing all users in a Google Workspace domain.
func Domain(domain string) Grantee {
	return GranteeDomain{Domain: domain}
}

// Anyone creates a Grantee representing public access to whoever has the link.
func Anyone() Grantee {
	return GranteeAnyone{}
}

type GranteeUser struct {
	Email string
}

func (GranteeUser) Type() string { return granteeTypeUser }

func (GranteeUser) doNotImplement(Grantee) {}

type GranteeGroup struct {
	Email string
}

func (GranteeGroup) Type() string { return granteeTypeGroup }

func (GranteeGroup) doNotImplement(Grantee) {}

type GranteeDomain struct {
	Domain string
}

func (GranteeDomain) Type() string { return granteeTypeDomain }

func (GranteeDomain) doNotImplement(Grantee) {}

type GranteeAnyone struct{}

func (GranteeAnyone) Type() string { return granteeTypeAnyone }

func (GranteeAnyone) doNotImplement(Grantee) {}
