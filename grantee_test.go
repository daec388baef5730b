package drivemap_test

import (
	"reflect"
	"testing"

	"github.com/Jumpaku/go-drivemap"
)

func TestGrantee_ConstructorsReturnExpectedConcreteTypes(t *testing.T) {
	cases := []struct {
		name     string
		got      drivemap.Grantee
		want     drivemap.Grantee
		wantType string
	}{
		{"User", drivemap.User("alice@example.com"), drivemap.GranteeUser{Email: "alice@example.com"}, "user"},
		{"Group", drivemap.Group("team@example.com"), drivemap.GranteeGroup{Email: "team@example.com"}, "group"},
		{"Domain", drivemap.Domain("example.com"), drivemap.GranteeDomain{Domain: "example.com"}, "domain"},
		{"Anyone", drivemap.Anyone(), drivemap.GranteeAnyone{}, "anyone"},
	}

	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			if !reflect.DeepEqual(c.got, c.want) {
				t.Fatalf("mismatch for %s: got (%T) %#v, want (%T) %#v", c.name, c.got, c.got, c.want, c.want)
			}
			if got := c.got.Type(); got != c.wantType {
				t.Fatalf("Type() = %q, want %q", got, c.wantType)
			}
		})
	}
}
