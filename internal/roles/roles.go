package roles

import (
	"errors"
	"strings"
)

// Role is a canonical role tag in the qualification pipeline.
type Role string

const (
	GlobalHead        Role = "GH"
	PracticeHead      Role = "PH"
	SalesHead         Role = "SH"
	SolutionArchitect Role = "SA"
	SalesPerson       Role = "SP"
)

var ErrUnknownRole = errors.New("unknown role")

// aliases maps the role spellings seen in upstream systems to canonical tags.
// Normalization happens once at the boundary; the core only compares tags.
var aliases = map[string]Role{
	"GH":                 GlobalHead,
	"GLOBAL_HEAD":        GlobalHead,
	"MANAGEMENT":         GlobalHead,
	"PH":                 PracticeHead,
	"PRACTICE_HEAD":      PracticeHead,
	"PRACTICE_LEAD":      PracticeHead,
	"SH":                 SalesHead,
	"SALES_HEAD":         SalesHead,
	"SALES_LEAD":         SalesHead,
	"SA":                 SolutionArchitect,
	"SOLUTION_ARCHITECT": SolutionArchitect,
	"SP":                 SalesPerson,
	"SALES_PERSON":       SalesPerson,
	"SALES_REP":          SalesPerson,
	"SALES_REPRESENTATIVE": SalesPerson,
}

// Normalize resolves a free-form role string to its canonical tag.
func Normalize(s string) (Role, error) {
	key := strings.ToUpper(strings.TrimSpace(s))
	key = strings.NewReplacer(" ", "_", "-", "_").Replace(key)
	if role, ok := aliases[key]; ok {
		return role, nil
	}
	return "", ErrUnknownRole
}

// All returns the fixed role set.
func All() []Role {
	return []Role{GlobalHead, PracticeHead, SalesHead, SolutionArchitect, SalesPerson}
}

// Set is a user's role membership. A user may hold several roles at once;
// every authorization check tests membership, never equality against a
// single current role.
type Set []Role

// NewSet normalizes a list of raw role strings into a Set.
func NewSet(raw []string) (Set, error) {
	set := make(Set, 0, len(raw))
	for _, r := range raw {
		role, err := Normalize(r)
		if err != nil {
			return nil, err
		}
		if !set.Has(role) {
			set = append(set, role)
		}
	}
	return set, nil
}

// Has reports whether the set contains the given role.
func (s Set) Has(role Role) bool {
	for _, r := range s {
		if r == role {
			return true
		}
	}
	return false
}

// HasAny reports whether the set contains any of the given roles.
func (s Set) HasAny(candidates ...Role) bool {
	for _, c := range candidates {
		if s.Has(c) {
			return true
		}
	}
	return false
}

// Strings returns the canonical tags as plain strings, for storage.
func (s Set) Strings() []string {
	out := make([]string, len(s))
	for i, r := range s {
		out[i] = string(r)
	}
	return out
}

// assignTargets is the capability table for assignment: which roles an actor
// may assign into. GH seats the practice and sales lines, SH may also seat
// the practice line and their own sales people, PH seats architects.
var assignTargets = map[Role][]Role{
	GlobalHead:   {PracticeHead, SalesHead},
	SalesHead:    {PracticeHead, SalesPerson},
	PracticeHead: {SolutionArchitect},
}

// CanAssign reports whether any role held by the actor may assign into target.
func CanAssign(actor Set, target Role) bool {
	for _, held := range actor {
		for _, t := range assignTargets[held] {
			if t == target {
				return true
			}
		}
	}
	return false
}

// CanReviewGate reports whether the actor may decide the PH or SH review gate.
func CanReviewGate(actor Set, gate Role) bool {
	if gate != PracticeHead && gate != SalesHead {
		return false
	}
	return actor.Has(gate)
}

// CanDecideFinal reports whether the actor may record the GO/NO-GO decision.
func CanDecideFinal(actor Set) bool {
	return actor.Has(GlobalHead)
}

// IsAssessor reports whether the role executes scoring assessments.
func IsAssessor(role Role) bool {
	return role == SolutionArchitect || role == SalesPerson
}
