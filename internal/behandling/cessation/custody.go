package cessation

import (
	"fmt"
	"strings"
	"time"

	"bidrag/internal/behandling/models"
)

// CustodyScope selects the cutoff for household-membership periods.
type CustodyScope string

const (
	// CustodyScopeCase reconciles every member against the case-wide date.
	CustodyScopeCase CustodyScope = "case"
	// CustodyScopeMember uses the member's own date when the member is a
	// subject child, and the case-wide date for everyone else.
	CustodyScopeMember CustodyScope = "member"
)

// ParseCustodyScope parses a configured scope; empty means CustodyScopeCase.
func ParseCustodyScope(s string) (CustodyScope, error) {
	switch CustodyScope(strings.ToLower(strings.TrimSpace(s))) {
	case "", CustodyScopeCase:
		return CustodyScopeCase, nil
	case CustodyScopeMember:
		return CustodyScopeMember, nil
	default:
		return "", fmt.Errorf("unknown custody scope %q", s)
	}
}

func reconcileCustody(r Reconciler, c *models.Case, cs cutoffs, scope CustodyScope) (Stats, error) {
	cutoffFor := func(k models.GroupKey) *time.Time {
		if scope == CustodyScopeMember {
			if d, ok := cs.child(k.Subject); ok {
				return d
			}
		}
		return cs.caseWide
	}
	live, archived, stats, err := reconcileFamily(r, c.Custody, c.Removed.Custody, cutoffFor, RemoveDelete)
	if err != nil {
		return Stats{}, err
	}
	c.Custody, c.Removed.Custody = live, archived
	return stats, nil
}
