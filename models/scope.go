package models

import "github.com/google/uuid"

// ProjectScope is the set of projects a user may read.
type ProjectScope struct {
	All bool
	IDs []uuid.UUID
}

// Allows reports whether id is inside the scope.
func (s *ProjectScope) Allows(id uuid.UUID) bool {
	if s == nil || s.All {
		return true
	}
	for _, v := range s.IDs {
		if v == id {
			return true
		}
	}
	return false
}
