package organize

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// ViolationKind names one clause of the assignment invariant.
type ViolationKind string

const (
	ViolationMalformed    ViolationKind = "Malformed response"
	ViolationDuplicate    ViolationKind = "Duplicate tab IDs"
	ViolationMissing      ViolationKind = "Missing tab IDs"
	ViolationHallucinated ViolationKind = "Hallucinated tab IDs"
	ViolationEmptyGroup   ViolationKind = "Empty group names for tab IDs"
)

// Violation is one broken clause with the offending tab ids.
type Violation struct {
	Kind   ViolationKind
	TabIDs []int
	// Detail explains a malformed reply.
	Detail string
}

func (v Violation) String() string {
	if v.Kind == ViolationMalformed {
		return fmt.Sprintf("%s: %s", v.Kind, v.Detail)
	}
	return fmt.Sprintf("%s: %s", v.Kind, formatIDs(v.TabIDs))
}

// Validate checks that assignments place every tab exactly once under a
// non-empty group name. It returns nil for a valid set.
func Validate(tabs []Tab, assignments []Assignment) []Violation {
	valid := make(map[int]bool, len(tabs))
	for _, t := range tabs {
		valid[t.ID] = true
	}

	seen := make(map[int]int, len(assignments))
	var duplicate, hallucinated, emptyGroup []int
	for _, a := range assignments {
		seen[a.TabID]++
		if seen[a.TabID] == 2 {
			duplicate = append(duplicate, a.TabID)
		}
		if !valid[a.TabID] && seen[a.TabID] == 1 {
			hallucinated = append(hallucinated, a.TabID)
		}
		if strings.TrimSpace(a.Group) == "" {
			emptyGroup = append(emptyGroup, a.TabID)
		}
	}

	var missing []int
	for _, t := range tabs {
		if seen[t.ID] == 0 {
			missing = append(missing, t.ID)
		}
	}

	var out []Violation
	add := func(kind ViolationKind, ids []int) {
		if len(ids) == 0 {
			return
		}
		ids = uniqueSorted(ids)
		out = append(out, Violation{Kind: kind, TabIDs: ids})
	}
	add(ViolationDuplicate, duplicate)
	add(ViolationMissing, missing)
	add(ViolationHallucinated, hallucinated)
	add(ViolationEmptyGroup, emptyGroup)
	return out
}

// ValidationError is returned when every attempt produced an invalid reply.
type ValidationError struct {
	Violations []Violation
	// Raw is the last model reply, verbatim.
	Raw      string
	Attempts int
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("model returned an invalid tab assignment after %d attempts: %s",
		e.Attempts, joinViolations(e.Violations))
}

func joinViolations(vs []Violation) string {
	parts := make([]string, 0, len(vs))
	for _, v := range vs {
		parts = append(parts, v.String())
	}
	return strings.Join(parts, "; ")
}

func formatIDs(ids []int) string {
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, strconv.Itoa(id))
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func uniqueSorted(ids []int) []int {
	out := append([]int(nil), ids...)
	sort.Ints(out)
	n := 0
	for i, id := range out {
		if i == 0 || id != out[n-1] {
			out[n] = id
			n++
		}
	}
	return out[:n]
}
