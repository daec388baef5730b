package drivemap

type Role string

const (
	RoleOwner         Role = "owner"
	RoleOrganizer     Role = "organizer"
	RoleFileOrganizer Role = "fileOrganizer"
	RoleWriter        Role = "writer"
	RoleCommenter     Role = "commenter"
	RoleReader        Role = "reader"
)

func (r Role) valid() bool {
	switch r {
	case RoleOwner, RoleOrganizer, RoleFileOrganizer, RoleWriter, RoleCommenter, RoleReader:
		return true
	}
	return false
}
