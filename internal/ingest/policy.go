package ingest

import (
	"fmt"
	"slices"
	"strings"

	"github.com/rajuthattil19-prog/datacol/internal/model"
)

// Policy decides which origins have their events stored. Commands are
// answered regardless of policy.
type Policy struct {
	// Categories lists the allowed origin categories. Empty allows all.
	Categories []string
}

// ParsePolicy builds a policy from a comma separated list of origin
// categories (direct, group, broadcast) or platform chat types (private,
// group, supergroup, channel). An empty list allows every origin.
func ParsePolicy(list string) (Policy, error) {
	var p Policy
	for _, tok := range strings.Split(list, ",") {
		tok = strings.ToLower(strings.TrimSpace(tok))
		if tok == "" {
			continue
		}
		var cat string
		switch {
		case tok == model.CategoryDirect || tok == model.CategoryGroup || tok == model.CategoryBroadcast:
			cat = tok
		case model.OriginKind(tok).IsValid():
			cat = model.OriginKind(tok).Category()
		default:
			return Policy{}, fmt.Errorf("unknown origin kind %q", tok)
		}
		if !slices.Contains(p.Categories, cat) {
			p.Categories = append(p.Categories, cat)
		}
	}
	return p, nil
}

// Allows reports whether events from an origin of the given kind are stored.
func (p Policy) Allows(kind model.OriginKind) bool {
	if len(p.Categories) == 0 {
		return true
	}
	return slices.Contains(p.Categories, kind.Category())
}

func (p Policy) String() string {
	if len(p.Categories) == 0 {
		return "all"
	}
	return strings.Join(p.Categories, ",")
}
