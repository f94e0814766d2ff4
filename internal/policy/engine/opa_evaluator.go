package engine

import (
	"context"
	"fmt"

	"github.com/open-policy-agent/opa/v1/ast"
	"github.com/open-policy-agent/opa/v1/rego"

	"brand-analytics-platform/identity/internal/identity/domain"
)

// Session-gate policy. Authors bypass brand membership; everyone else needs
// an active identity plus at least one active brand membership.
const sessionGatePolicy = `package identity.session_gate

default allow := false
default reason := ""

active_brand_ids := [m.brand_id | some m in input.memberships; m.status == "active"]

allow if {
	input.identity.status == "active"
	input.identity.role == "author"
}

allow if {
	input.identity.status == "active"
	count(active_brand_ids) > 0
}

reason := "suspended" if {
	input.identity.status != "active"
}

reason := "no_active_brand" if {
	input.identity.status == "active"
	input.identity.role != "author"
	count(active_brand_ids) == 0
}
`

// OPAEvaluator evaluates the session gate using an in-process OPA Rego module
// compiled once at construction.
type OPAEvaluator struct {
	compiler *ast.Compiler
}

// NewOPAEvaluator compiles the session-gate policy and returns the evaluator.
func NewOPAEvaluator() (*OPAEvaluator, error) {
	compiler, err := ast.CompileModules(map[string]string{"session_gate.rego": sessionGatePolicy})
	if err != nil {
		return nil, fmt.Errorf("compile session gate policy: %w", err)
	}
	return &OPAEvaluator{compiler: compiler}, nil
}

// EvaluateSessionGate evaluates the policy for ident and returns the decision.
func (e *OPAEvaluator) EvaluateSessionGate(ctx context.Context, ident *domain.Identity) (Decision, error) {
	memberships := make([]map[string]interface{}, 0, len(ident.BrandMemberships))
	for _, m := range ident.BrandMemberships {
		memberships = append(memberships, map[string]interface{}{
			"brand_id": m.BrandID,
			"status":   string(m.Status),
		})
	}
	input := map[string]interface{}{
		"identity": map[string]interface{}{
			"status": string(ident.Status),
			"role":   string(ident.Role),
		},
		"memberships": memberships,
	}

	q := rego.New(
		rego.Query("data.identity.session_gate"),
		rego.Compiler(e.compiler),
		rego.Input(input),
	)
	rs, err := q.Eval(ctx)
	if err != nil {
		return Decision{}, fmt.Errorf("eval session gate: %w", err)
	}
	if len(rs) == 0 || len(rs[0].Expressions) == 0 {
		return Decision{}, fmt.Errorf("session gate query returned no result")
	}
	result, ok := rs[0].Expressions[0].Value.(map[string]interface{})
	if !ok {
		return Decision{}, fmt.Errorf("session gate result has unexpected shape %T", rs[0].Expressions[0].Value)
	}
	allow, _ := result["allow"].(bool)
	reason, _ := result["reason"].(string)
	return Decision{Allow: allow, Reason: reason}, nil
}
