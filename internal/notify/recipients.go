package notify

import (
	"context"
	"log/slog"

	"github.com/planora/notify/internal/domain"
	"github.com/planora/notify/internal/store"
)

// RecipientSet is a deduplicated, insertion-ordered collection of email
// addresses. Visiting order is fixed by the resolvers (owner first, then
// assignees or members), so the same inputs always produce the same list.
type RecipientSet struct {
	seen  map[string]struct{}
	addrs []string
}

func newRecipientSet() *RecipientSet {
	return &RecipientSet{seen: map[string]struct{}{}}
}

// Add inserts an address unless it is empty or already present.
func (s *RecipientSet) Add(addr string) {
	if addr == "" {
		return
	}
	if _, dup := s.seen[addr]; dup {
		return
	}
	s.seen[addr] = struct{}{}
	s.addrs = append(s.addrs, addr)
}

// Addresses returns the collected addresses in insertion order.
func (s *RecipientSet) Addresses() []string {
	return s.addrs
}

// Empty reports whether nothing resolved. Callers must skip the send
// entirely in that case.
func (s *RecipientSet) Empty() bool {
	return len(s.addrs) == 0
}

// Count returns the number of distinct recipients.
func (s *RecipientSet) Count() int {
	return len(s.addrs)
}

// taskRecipients resolves who cares about a task event: the project owner
// and co-owners first, then the task's assignees. Partial resolution
// failures reduce the set but never abort it.
func taskRecipients(ctx context.Context, st store.Store, logger *slog.Logger, p *domain.Project, t *domain.Task) *RecipientSet {
	set := newRecipientSet()
	addProjectOwners(ctx, st, logger, set, p)
	addAssignees(ctx, st, logger, set, t)
	return set
}

// projectRecipients resolves the owner and co-owners; for project deletion
// the members list is walked as well.
func projectRecipients(ctx context.Context, st store.Store, logger *slog.Logger, p *domain.Project, includeMembers bool) *RecipientSet {
	set := newRecipientSet()
	addProjectOwners(ctx, st, logger, set, p)
	if includeMembers {
		for _, id := range p.Members {
			if email, ok := lookupEmail(ctx, st, logger, id); ok {
				set.Add(email)
			}
		}
	}
	return set
}

func addProjectOwners(ctx context.Context, st store.Store, logger *slog.Logger, set *RecipientSet, p *domain.Project) {
	if p == nil {
		return
	}
	if email, ok := lookupEmail(ctx, st, logger, p.OwnerID); ok {
		set.Add(email)
	}
	for _, id := range p.Owners {
		if email, ok := lookupEmail(ctx, st, logger, id); ok {
			set.Add(email)
		}
	}
}

// addAssignees contributes the task's assignees via the legacy-compatible
// field logic. A legacy object with an unresolvable userId falls back to
// its embedded email; a malformed field contributes nothing.
func addAssignees(ctx context.Context, st store.Store, logger *slog.Logger, set *RecipientSet, t *domain.Task) {
	a := domain.ParseAssignees(t)
	switch a.Kind {
	case domain.AssigneeIDList, domain.AssigneeSingleID:
		for _, id := range a.UserIDs() {
			if email, ok := lookupEmail(ctx, st, logger, id); ok {
				set.Add(email)
			}
		}
	case domain.AssigneeSingleEmail:
		set.Add(a.Email)
	case domain.AssigneeSingleObject:
		if a.ID != "" {
			if email, ok := lookupEmail(ctx, st, logger, a.ID); ok {
				set.Add(email)
				return
			}
		}
		set.Add(a.Email)
	}
}
