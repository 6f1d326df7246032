package rules_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/open-eyes/handheld/internal/rules"
)

// TestDefaultRuleSetOrdering golden-checks the name/priority table of the
// default rule set, so an accidental priority change or reordering during
// refactors shows up as a diff instead of silently changing which rule
// wins ties.
//
// Regenerate with: go test ./internal/rules -run TestDefaultRuleSetOrdering -update
func TestDefaultRuleSetOrdering(t *testing.T) {
	e := rules.NewEngine(rules.DefaultRuleSet())

	var b strings.Builder
	for _, r := range e.Rules() {
		fmt.Fprintf(&b, "%3d %s\n", r.Priority(), r.Name())
	}

	g := goldie.New(t, goldie.WithFixtureDir("testdata/golden"))
	g.Assert(t, "default_rule_order", []byte(b.String()))
}
