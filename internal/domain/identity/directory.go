// Package identity resolves parsed player references to stable identifiers.
package identity

import (
	"context"
	"strings"

	"github.com/guessrank/guessrank/internal/domain/model"
)

// Directory is the guild member lookup collaborator. Implementations wrap
// whatever the chat gateway exposes; the pipeline never talks to the gateway
// itself.
type Directory interface {
	// ResolveByID returns the current display name for a stable id.
	// Returns ErrMemberNotFound when the id is no longer resolvable.
	ResolveByID(ctx context.Context, id string) (string, error)

	// FindByDisplayName matches a bare name against the member population,
	// checking username, display name and nickname in that order with
	// case-insensitive exact comparison.
	FindByDisplayName(ctx context.Context, name string) (*model.Member, error)
}

// Snapshot is a Directory over a fixed member list, typically the directory
// snapshot shipped alongside an announcement.
type Snapshot struct {
	members []model.Member
}

// NewSnapshot builds a Snapshot directory.
func NewSnapshot(members []model.Member) *Snapshot {
	return &Snapshot{members: members}
}

// ResolveByID implements Directory.
func (s *Snapshot) ResolveByID(_ context.Context, id string) (string, error) {
	for _, m := range s.members {
		if m.ID != id {
			continue
		}
		if m.DisplayName != "" {
			return m.DisplayName, nil
		}
		return m.Username, nil
	}
	return "", ErrMemberNotFound
}

// FindByDisplayName implements Directory. Lookup priority: username, then
// effective display name, then nickname.
func (s *Snapshot) FindByDisplayName(_ context.Context, name string) (*model.Member, error) {
	for _, m := range s.members {
		if strings.EqualFold(m.Username, name) {
			return &m, nil
		}
	}
	for _, m := range s.members {
		if strings.EqualFold(m.DisplayName, name) {
			return &m, nil
		}
	}
	for _, m := range s.members {
		if strings.EqualFold(m.Nickname, name) {
			return &m, nil
		}
	}
	return nil, ErrMemberNotFound
}
