package postgres

import (
	"strings"
	"testing"
)

// Concurrent activity writes to one plan serialize on the plan row lock
// taken by the owner lookup. Dropping the locking clause would let two
// transactions read the same sibling snapshot and commit an overlap.
func TestPlanOwnerLocksPlanRow(t *testing.T) {
	if !strings.Contains(planOwnerQuery, "FOR UPDATE") {
		t.Fatalf("plan owner lookup must lock the plan row, got %q", planOwnerQuery)
	}
}
