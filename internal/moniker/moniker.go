// Package moniker resolves version labels ("monikers") for documents and
// version-range expressions for moniker zones.
package moniker

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/docset/internal/config"
	"git.home.luguber.info/inful/docset/internal/docset"
	"git.home.luguber.info/inful/docset/internal/util/sets"
)

// Service answers moniker questions for the build. Implementations must be
// safe for concurrent use once constructed.
type Service interface {
	// Monikers returns the version labels applicable to a document. An empty
	// set means the document is unversioned and applies everywhere.
	Monikers(doc docset.Identity) (sets.Set[string], error)

	// ResolveRange resolves a raw version-range expression in the context of
	// a document to the concrete label list for a moniker zone.
	ResolveRange(doc docset.Identity, rangeExpr string) ([]string, error)
}

// groupNamespace seeds stable moniker-group ids. Fixed so that the same
// moniker set always hashes to the same group across builds.
var groupNamespace = uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")

// Group derives the stable group identifier for a moniker set. Empty sets
// have no group.
func Group(monikers sets.Set[string]) string {
	if len(monikers) == 0 {
		return ""
	}
	joined := strings.Join(sets.SortedStrings(monikers), ",")
	id := uuid.NewSHA1(groupNamespace, []byte(joined))
	return strings.ReplaceAll(id.String(), "-", "")[:12]
}

// RangeResolver is the default Service. Document monikers come from a
// per-path assignment map; ranges resolve against the ordered definition
// list from configuration (oldest first).
type RangeResolver struct {
	order   []string
	index   map[string]int
	perFile map[docset.Identity]sets.Set[string]
}

// NewRangeResolver builds a resolver from the configured moniker order.
func NewRangeResolver(cfg *config.Config) *RangeResolver {
	r := &RangeResolver{
		index:   make(map[string]int, len(cfg.Monikers)),
		perFile: make(map[docset.Identity]sets.Set[string]),
	}
	for i, m := range cfg.Monikers {
		r.order = append(r.order, m.Name)
		r.index[m.Name] = i
	}
	return r
}

// Assign records the moniker set for a document. Called during build-scope
// enumeration, before any parallel page builds start.
func (r *RangeResolver) Assign(doc docset.Identity, monikers ...string) {
	r.perFile[doc] = sets.New(monikers...)
}

// Monikers implements Service.
func (r *RangeResolver) Monikers(doc docset.Identity) (sets.Set[string], error) {
	if s, ok := r.perFile[doc]; ok {
		return s.Clone(), nil
	}
	return sets.New[string](), nil
}

// ResolveRange implements Service. The grammar is a disjunction ("||") of
// conjunctions ("&&") of comparator terms: "name", "= name", "> name",
// ">= name", "< name", "<= name".
func (r *RangeResolver) ResolveRange(doc docset.Identity, rangeExpr string) ([]string, error) {
	rangeExpr = strings.TrimSpace(rangeExpr)
	if rangeExpr == "" {
		return nil, fmt.Errorf("empty moniker range")
	}

	result := sets.New[string]()
	for _, clause := range strings.Split(rangeExpr, "||") {
		matched, err := r.resolveConjunction(clause)
		if err != nil {
			return nil, err
		}
		for _, m := range matched {
			result.Add(m)
		}
	}
	return sets.SortedStrings(result), nil
}

func (r *RangeResolver) resolveConjunction(clause string) ([]string, error) {
	clause = strings.TrimSpace(clause)
	if clause == "" {
		return nil, fmt.Errorf("empty moniker range clause")
	}

	// Start from all known monikers, intersect with each term.
	keep := make([]bool, len(r.order))
	for i := range keep {
		keep[i] = true
	}
	for _, term := range strings.Split(clause, "&&") {
		op, name, err := splitTerm(term)
		if err != nil {
			return nil, err
		}
		pivot, ok := r.index[name]
		if !ok {
			return nil, fmt.Errorf("unknown moniker %q", name)
		}
		for i := range keep {
			if !keep[i] {
				continue
			}
			switch op {
			case "=":
				keep[i] = i == pivot
			case ">":
				keep[i] = i > pivot
			case ">=":
				keep[i] = i >= pivot
			case "<":
				keep[i] = i < pivot
			case "<=":
				keep[i] = i <= pivot
			}
		}
	}

	var out []string
	for i, k := range keep {
		if k {
			out = append(out, r.order[i])
		}
	}
	return out, nil
}

func splitTerm(term string) (op, name string, err error) {
	term = strings.TrimSpace(term)
	for _, candidate := range []string{">=", "<=", ">", "<", "="} {
		if strings.HasPrefix(term, candidate) {
			name = strings.TrimSpace(strings.TrimPrefix(term, candidate))
			if name == "" {
				return "", "", fmt.Errorf("moniker range term %q has no operand", term)
			}
			return candidate, name, nil
		}
	}
	if term == "" {
		return "", "", fmt.Errorf("empty moniker range term")
	}
	return "=", term, nil
}
