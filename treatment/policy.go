package treatment

import (
	"time"

	"github.com/ariebrainware/tbcare/apperr"
	"github.com/ariebrainware/tbcare/authorize"
	"github.com/ariebrainware/tbcare/model"
)

// UpdateInput holds the fields of a partial treatment update. Nil fields are
// left untouched.
type UpdateInput struct {
	Regimen   *model.Regimen
	StartDate *time.Time
	WeightKg  *float64
	Status    *model.TreatmentStatus
}

type field string

const (
	fieldRegimen   field = "regimen"
	fieldStartDate field = "start_date"
	fieldWeight    field = "weight_kg"
	fieldStatus    field = "status"
)

// updatableFields is the per-role allow-list applied to update payloads.
var updatableFields = map[authorize.Role]map[field]bool{
	authorize.RoleAdmin:  {fieldRegimen: true, fieldStartDate: true, fieldWeight: true, fieldStatus: true},
	authorize.RoleDoctor: {fieldRegimen: true, fieldWeight: true, fieldStatus: true},
	authorize.RoleNurse:  {fieldWeight: true, fieldStatus: true},
}

// restrictUpdate applies the allow-list for role. A regimen change without
// doctor or admin oversight is rejected; other disallowed fields are dropped.
func restrictUpdate(role authorize.Role, in UpdateInput) (UpdateInput, error) {
	allowed := updatableFields[role]
	if allowed == nil {
		return UpdateInput{}, apperr.Forbidden("role %q may not update treatments", role)
	}
	if in.Regimen != nil && !allowed[fieldRegimen] {
		return UpdateInput{}, apperr.Forbidden("only doctors and admins may change the regimen")
	}

	out := UpdateInput{}
	if allowed[fieldRegimen] {
		out.Regimen = in.Regimen
	}
	if allowed[fieldStartDate] {
		out.StartDate = in.StartDate
	}
	if allowed[fieldWeight] {
		out.WeightKg = in.WeightKg
	}
	if allowed[fieldStatus] {
		out.Status = in.Status
	}
	return out, nil
}
