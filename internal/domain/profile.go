package domain

import (
	"strings"
	"time"
)

// UserProfile describes the reader a feed is ranked for. It is immutable for
// the duration of a single pipeline run and is never persisted by the core.
type UserProfile struct {
	Role      string
	Interests []string
	Projects  string
	CreatedAt time.Time
}

// Validate checks that the required profile fields are present. A failure is
// a client error: the pipeline is never invoked for an invalid profile.
func (p UserProfile) Validate() error {
	if strings.TrimSpace(p.Role) == "" {
		return &ValidationError{Field: "role", Reason: "role must not be empty"}
	}
	if strings.TrimSpace(p.Projects) == "" {
		return &ValidationError{Field: "projects", Reason: "projects must not be empty"}
	}
	hasInterest := false
	for _, it := range p.Interests {
		if strings.TrimSpace(it) != "" {
			hasInterest = true
			break
		}
	}
	if !hasInterest {
		return &ValidationError{Field: "interests", Reason: "at least one interest is required"}
	}
	return nil
}
