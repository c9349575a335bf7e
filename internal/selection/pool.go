// Package selection builds the ordered pool of candidates a run will try.
package selection

import (
	"strings"

	"github.com/jonathan/outreach-agent/internal/types"
)

// DefaultOversample is the pool-size multiplier applied to the number of
// successes still needed, absorbing resolution, generation and delivery failures.
const DefaultOversample = 2

// studentMarkers identify profiles of students rather than the intended role.
var studentMarkers = []string{"graduate student", "phd student", "doctoral student"}

// PoolSize returns how many candidates to draw for needed successes.
func PoolSize(needed, oversample int) int {
	if needed <= 0 {
		return 0
	}
	if oversample < 1 {
		oversample = DefaultOversample
	}
	return needed * oversample
}

// BuildPool walks sources in priority order, keeping scraped order within a
// source, and returns up to size candidates whose names are not in contacted.
// A later source only contributes once every earlier source is exhausted or
// the pool is full. Sources flagged ExcludeStudents skip student profiles.
func BuildPool(dir *types.Directory, contacted map[string]struct{}, size int) []types.Candidate {
	if dir == nil || size <= 0 {
		return nil
	}

	pool := make([]types.Candidate, 0, size)
	seen := make(map[string]struct{})
	for _, src := range dir.Sources {
		for _, c := range src.Candidates {
			if len(pool) >= size {
				return pool
			}
			if _, done := contacted[c.Name]; done {
				continue
			}
			if _, dup := seen[c.Name]; dup {
				continue
			}
			if src.ExcludeStudents && LooksLikeStudent(c.ProfileText) {
				continue
			}
			seen[c.Name] = struct{}{}
			pool = append(pool, c)
		}
	}
	return pool
}

// LooksLikeStudent reports whether a profile describes a graduate student.
func LooksLikeStudent(profile string) bool {
	lower := strings.ToLower(profile)
	for _, marker := range studentMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}
