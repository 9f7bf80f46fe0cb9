package authorize

type Role string
type Resource string
type Action string

const (
	RoleAdmin   Role = "admin"
	RoleDoctor  Role = "doctor"
	RoleNurse   Role = "nurse"
	RolePatient Role = "patient"
)

// KnownRoles is the set of roles a token may carry.
var KnownRoles = map[Role]struct{}{
	RoleAdmin: {}, RoleDoctor: {}, RoleNurse: {}, RolePatient: {},
}

const (
	ResourceTreatment Resource = "treatment"
	ResourceVisit     Resource = "visit"
	ResourceReport    Resource = "report"
)

const (
	ActionCreate     Action = "create"
	ActionRead       Action = "read"
	ActionList       Action = "list"
	ActionUpdate     Action = "update"
	ActionComplete   Action = "complete"
	ActionReschedule Action = "reschedule"
	ActionArchive    Action = "archive"
	ActionRecord     Action = "record"

	WildcardAction Action = "*"
)

// Actor is the authenticated caller of a request.
type Actor struct {
	UserID uint `json:"user_id"`
	Role   Role `json:"role"`
}

// IsStaff reports whether the actor is clinical or administrative staff.
func (a Actor) IsStaff() bool {
	return a.Role == RoleAdmin || a.Role == RoleDoctor || a.Role == RoleNurse
}

// IsPatient reports whether the actor is a patient viewing their own records.
func (a Actor) IsPatient() bool {
	return a.Role == RolePatient
}
