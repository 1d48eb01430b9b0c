package models

// Priority tags a column with how urgently its quality matters.
type Priority string

const (
	PriorityCritical Priority = "critical"
	PriorityHigh     Priority = "high"
	PriorityMedium   Priority = "medium"
	PriorityLow      Priority = "low"
)

// IsValid reports whether p is a known priority tag.
func (p Priority) IsValid() bool {
	switch p {
	case PriorityCritical, PriorityHigh, PriorityMedium, PriorityLow:
		return true
	}
	return false
}

// SelectionSource records which selector produced a DimensionSelection.
type SelectionSource string

const (
	SelectionRuleBased SelectionSource = "rule_based"
	SelectionSemantic  SelectionSource = "semantic"
)

// DimensionSelection is the per-column decision about which dimensions to
// check, which to skip and why, and how important the column is. Produced
// once per assessment run.
type DimensionSelection struct {
	Column          string               `json:"column"`
	Check           []Dimension          `json:"dimensions_to_check"`
	Skip            []Dimension          `json:"dimensions_to_skip"`
	Reasoning       map[Dimension]string `json:"reasoning,omitempty"`
	Priority        Priority             `json:"priority"`
	Source          SelectionSource      `json:"source"`
	FallbackApplied bool                 `json:"fallback_applied,omitempty"`
}

// ShouldCheck reports whether the given dimension was selected.
func (s *DimensionSelection) ShouldCheck(d Dimension) bool {
	for _, dim := range s.Check {
		if dim == d {
			return true
		}
	}
	return false
}
