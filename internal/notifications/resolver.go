package notifications

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charlesng35/releasetrack/internal/models"
)

// UserDirectory loads user records by identifier. Unknown ids are simply absent
// from the result.
type UserDirectory interface {
	UsersByIDs(ctx context.Context, ids []string) ([]models.User, error)
}

// ResolveInput describes the candidates for a single notification.
type ResolveInput struct {
	// Ticket contributes its assignee then its requester when non-nil.
	Ticket  *models.Ticket
	ActorID string
	// Extra ids follow the ticket participants (previous assignee, mentioned users).
	Extra []string
	// Exclude ids never receive this notification.
	Exclude []string
}

// Resolver turns a ticket mutation into the ordered, deduplicated list of users to notify.
type Resolver struct {
	users        UserDirectory
	excludeActor bool
}

// NewResolver constructs a Resolver. When excludeActor is set the user who triggered the
// change is never notified about it.
func NewResolver(users UserDirectory, excludeActor bool) (*Resolver, error) {
	if users == nil {
		return nil, errors.New("resolver: user directory is required")
	}
	return &Resolver{users: users, excludeActor: excludeActor}, nil
}

// Candidates returns the candidate user ids in notification order without loading them.
func (r *Resolver) Candidates(input ResolveInput) []string {
	skip := make(map[string]struct{}, len(input.Exclude)+1)
	for _, id := range input.Exclude {
		if id = strings.TrimSpace(id); id != "" {
			skip[id] = struct{}{}
		}
	}
	if actor := strings.TrimSpace(input.ActorID); r.excludeActor && actor != "" {
		skip[actor] = struct{}{}
	}

	var raw []string
	if input.Ticket != nil {
		raw = append(raw, input.Ticket.Assignee(), input.Ticket.Requester())
	}
	raw = append(raw, input.Extra...)

	seen := make(map[string]struct{}, len(raw))
	out := make([]string, 0, len(raw))
	for _, id := range raw {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, excluded := skip[id]; excluded {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// Resolve loads the candidate users, preserving candidate order. Ids that do not
// resolve to a user are dropped.
func (r *Resolver) Resolve(ctx context.Context, input ResolveInput) ([]models.User, error) {
	ids := r.Candidates(input)
	if len(ids) == 0 {
		return nil, nil
	}

	users, err := r.users.UsersByIDs(ensureContext(ctx), ids)
	if err != nil {
		return nil, fmt.Errorf("resolver: load users: %w", err)
	}

	byID := make(map[string]models.User, len(users))
	for _, user := range users {
		byID[user.ID] = user
	}

	out := make([]models.User, 0, len(ids))
	for _, id := range ids {
		if user, ok := byID[id]; ok {
			out = append(out, user)
		}
	}
	return out, nil
}
