// Package authorize answers "may this role perform this action on this
// resource" using a casbin policy table.
package authorize

import (
	"fmt"

	"github.com/ariebrainware/tbcare/apperr"
	casbin "github.com/casbin/casbin/v2"
	casbinmodel "github.com/casbin/casbin/v2/model"
)

const rbacModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = r.sub == p.sub && r.obj == p.obj && (p.act == "*" || r.act == p.act)
`

// Policy is one "role may do action on resource" rule.
type Policy struct {
	Role     Role
	Resource Resource
	Action   Action
}

// DefaultPolicies grants staff the clinical workflow and patients read access
// to their own records (ownership is checked by the services).
var DefaultPolicies = []Policy{
	{RoleAdmin, ResourceTreatment, WildcardAction},
	{RoleAdmin, ResourceVisit, WildcardAction},
	{RoleAdmin, ResourceReport, WildcardAction},

	{RoleDoctor, ResourceTreatment, ActionCreate},
	{RoleDoctor, ResourceTreatment, ActionRead},
	{RoleDoctor, ResourceTreatment, ActionList},
	{RoleDoctor, ResourceTreatment, ActionUpdate},
	{RoleDoctor, ResourceTreatment, ActionComplete},
	{RoleDoctor, ResourceTreatment, ActionReschedule},
	{RoleDoctor, ResourceVisit, ActionRead},
	{RoleDoctor, ResourceVisit, ActionRecord},
	{RoleDoctor, ResourceReport, ActionRead},

	{RoleNurse, ResourceTreatment, ActionRead},
	{RoleNurse, ResourceTreatment, ActionList},
	{RoleNurse, ResourceTreatment, ActionUpdate},
	{RoleNurse, ResourceVisit, ActionRead},
	{RoleNurse, ResourceVisit, ActionRecord},
	{RoleNurse, ResourceReport, ActionRead},

	{RolePatient, ResourceTreatment, ActionRead},
	{RolePatient, ResourceTreatment, ActionList},
	{RolePatient, ResourceVisit, ActionRead},
	{RolePatient, ResourceReport, ActionRead},
}

// Authorizer is a thin typed wrapper around a casbin enforcer.
type Authorizer struct {
	enforcer *casbin.Enforcer
}

// New builds an Authorizer loaded with policies. When no policies are given
// DefaultPolicies is used.
func New(policies ...Policy) (*Authorizer, error) {
	m, err := casbinmodel.NewModelFromString(rbacModel)
	if err != nil {
		return nil, fmt.Errorf("load casbin model: %w", err)
	}
	e, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("create casbin enforcer: %w", err)
	}

	if len(policies) == 0 {
		policies = DefaultPolicies
	}
	rules := make([][]string, 0, len(policies))
	for _, p := range policies {
		rules = append(rules, []string{string(p.Role), string(p.Resource), string(p.Action)})
	}
	if _, err := e.AddPolicies(rules); err != nil {
		return nil, fmt.Errorf("load policies: %w", err)
	}
	return &Authorizer{enforcer: e}, nil
}

// Enforce reports whether role may perform action on resource.
func (a *Authorizer) Enforce(role Role, resource Resource, action Action) (bool, error) {
	if _, ok := KnownRoles[role]; !ok {
		return false, nil
	}
	return a.enforcer.Enforce(string(role), string(resource), string(action))
}

// MustEnforce returns an apperr.ErrForbidden error when the actor is not allowed.
func (a *Authorizer) MustEnforce(actor Actor, resource Resource, action Action) error {
	ok, err := a.Enforce(actor.Role, resource, action)
	if err != nil {
		return fmt.Errorf("enforce %s:%s: %w", resource, action, err)
	}
	if !ok {
		return apperr.Forbidden("role %q may not %s %s", actor.Role, action, resource)
	}
	return nil
}
