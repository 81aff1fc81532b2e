package check

import (
	"fmt"
	"strings"

	"github.com/samber/lo"
	"github.com/smasher164/tq/ast"
	"github.com/smasher164/tq/types"
)

// Resolve selects the overload of name that a call with the given
// argument types and labels binds to. If several overloads are
// compatible, the one whose fixed parameters are all subtypes of every
// other's wins.
func (c *Checker) Resolve(name string, args []types.Type, labels []types.Label) (*Callable, error) {
	candidates := c.callables[name]
	if len(candidates) == 0 {
		return nil, fmt.Errorf("unknown callable %q", name)
	}
	compatible := lo.Filter(candidates, func(cand *Callable, _ int) bool {
		return c.reg.IsCompatibleSignature(cand.Signature, args, labels)
	})
	switch len(compatible) {
	case 0:
		return nil, fmt.Errorf("cannot find suitable callable with name %s and parameter types (%s), candidates are:%s",
			name, types.TypeVector(args), listCandidates(candidates))
	case 1:
		return compatible[0], nil
	}
	best := lo.Filter(compatible, func(cand *Callable, _ int) bool {
		return lo.EveryBy(compatible, func(other *Callable) bool {
			return other == cand || moreSpecific(cand.Signature, other.Signature)
		})
	})
	if len(best) != 1 {
		return nil, fmt.Errorf("ambiguous callable %s(%s), candidates are:%s",
			name, types.TypeVector(args), listCandidates(compatible))
	}
	return best[0], nil
}

// moreSpecific reports whether every fixed parameter of a is a subtype
// of the corresponding parameter of b. A variadic a is never more
// specific than a non-variadic b.
func moreSpecific(a, b *types.Signature) bool {
	ap, bp := a.ParameterTypes, b.ParameterTypes
	if len(ap.Types) != len(bp.Types) {
		return false
	}
	if ap.VarArgs && !bp.VarArgs {
		return false
	}
	for i := range ap.Types {
		if !ap.Types[i].IsSubtypeOf(bp.Types[i]) {
			return false
		}
	}
	return true
}

func listCandidates(cands []*Callable) string {
	var sb strings.Builder
	for _, cand := range cands {
		fmt.Fprintf(&sb, "\n  %s", cand)
	}
	return sb.String()
}

// ResolveCallSite reifies the argument and label types of cs and
// resolves it.
func (c *Checker) ResolveCallSite(cs *ast.CallSite) (*Callable, error) {
	args := make([]types.Type, 0, len(cs.Args))
	for _, a := range cs.Args {
		t, err := c.ReifyType(a)
		if err != nil {
			return nil, err
		}
		args = append(args, t)
	}
	labels, err := c.reifyLabels(cs.Labels)
	if err != nil {
		return nil, err
	}
	return c.Resolve(cs.Name.Data, args, labels)
}
