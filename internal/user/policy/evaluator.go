// Package policy decides whether an actor may mutate a user record. The decision table is a Rego
// module evaluated in-process with OPA.
package policy

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"sort"

	"github.com/open-policy-agent/opa/v1/rego"

	userdomain "casas-auth/internal/user/domain"
)

//go:embed user_mutation.rego
var userMutationPolicy string

const query = "data.casas.user_mutation"

// Operation is a user mutation subject to policy.
type Operation string

const (
	OpUpdateRoles   Operation = "update_roles"
	OpDeactivate    Operation = "deactivate"
	OpUpdateProfile Operation = "update_profile"
)

// Subject identifies a user taking part in a decision.
type Subject struct {
	ID    string
	Roles []userdomain.Role
}

// Request is one decision input. RequestedRoles is only read for OpUpdateRoles.
type Request struct {
	Operation      Operation
	Actor          Subject
	Target         Subject
	RequestedRoles []userdomain.Role
}

// Decision is the policy outcome. Reasons lists every violated rule, sorted; empty when allowed.
type Decision struct {
	Allow   bool
	Reasons []string
}

// Evaluator evaluates the user mutation policy. Safe for concurrent use.
type Evaluator struct {
	query rego.PreparedEvalQuery
}

// NewEvaluator compiles the embedded policy.
func NewEvaluator(ctx context.Context) (*Evaluator, error) {
	pq, err := rego.New(
		rego.Query(query),
		rego.Module("user_mutation.rego", userMutationPolicy),
	).PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("compile user mutation policy: %w", err)
	}
	return &Evaluator{query: pq}, nil
}

// Decide evaluates req. An evaluation error is returned as an error with a deny decision.
func (e *Evaluator) Decide(ctx context.Context, req Request) (Decision, error) {
	rs, err := e.query.Eval(ctx, rego.EvalInput(buildInput(req)))
	if err != nil {
		return Decision{}, fmt.Errorf("eval user mutation policy: %w", err)
	}
	if len(rs) == 0 || len(rs[0].Expressions) == 0 {
		return Decision{}, errors.New("user mutation policy returned no result")
	}
	doc, ok := rs[0].Expressions[0].Value.(map[string]interface{})
	if !ok {
		return Decision{}, fmt.Errorf("user mutation policy: unexpected result %T", rs[0].Expressions[0].Value)
	}
	var out Decision
	out.Allow, _ = doc["allow"].(bool)
	if deny, ok := doc["deny"].([]interface{}); ok {
		for _, d := range deny {
			if s, ok := d.(string); ok {
				out.Reasons = append(out.Reasons, s)
			}
		}
	}
	sort.Strings(out.Reasons)
	if len(out.Reasons) > 0 {
		out.Allow = false
	}
	return out, nil
}

// HealthCheck evaluates a fixed request against the compiled policy.
func (e *Evaluator) HealthCheck(ctx context.Context) error {
	d, err := e.Decide(ctx, Request{
		Operation: OpUpdateProfile,
		Actor:     Subject{ID: "health", Roles: []userdomain.Role{userdomain.RoleUser}},
		Target:    Subject{ID: "health", Roles: []userdomain.Role{userdomain.RoleUser}},
	})
	if err != nil {
		return err
	}
	if !d.Allow {
		return errors.New("user mutation policy denied a self profile update")
	}
	return nil
}

func buildInput(req Request) map[string]interface{} {
	return map[string]interface{}{
		"operation":       string(req.Operation),
		"actor":           subjectInput(req.Actor),
		"target":          subjectInput(req.Target),
		"requested_roles": rolesInput(req.RequestedRoles),
	}
}

func subjectInput(s Subject) map[string]interface{} {
	return map[string]interface{}{"id": s.ID, "roles": rolesInput(s.Roles)}
}

func rolesInput(roles []userdomain.Role) []interface{} {
	out := make([]interface{}, len(roles))
	for i, r := range roles {
		out[i] = string(r)
	}
	return out
}
