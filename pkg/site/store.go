package site

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/mchmarny/actionmenu/pkg/menu"
	"github.com/mchmarny/actionmenu/pkg/model"
)

// Store keeps users and review requests in memory. It is safe for
// concurrent use.
type Store struct {
	mu       sync.RWMutex
	users    map[string]model.User
	requests map[int]*model.ReviewRequest
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		users:    make(map[string]model.User),
		requests: make(map[int]*model.ReviewRequest),
	}
}

// NewSampleStore creates a store with a few users and review requests.
func NewSampleStore() *Store {
	s := NewStore()

	admin := s.AddUser("admin", true)
	alice := s.AddUser("alice", false)
	bob := s.AddUser("bob", false)
	repo := int64(1)

	s.PutReviewRequest(&model.ReviewRequest{
		ID: 1, DisplayID: 1, Summary: "Add the action registry",
		SubmitterID: alice.ID, Status: model.StatusPending, Public: true,
		RepositoryID: &repo, DiffsetCount: 2,
	})
	s.PutReviewRequest(&model.ReviewRequest{
		ID: 2, DisplayID: 2, Summary: "Draft: document extension manifests",
		SubmitterID: bob.ID, Status: model.StatusPending,
	})
	s.PutReviewRequest(&model.ReviewRequest{
		ID: 3, DisplayID: 3, Summary: "Fix menu rendering",
		SubmitterID: admin.ID, Status: model.StatusSubmitted, Public: true,
		RepositoryID: &repo, DiffsetCount: 1,
	})

	return s
}

// AddUser adds an authenticated user and returns it.
func (s *Store) AddUser(username string, superuser bool) model.User {
	s.mu.Lock()
	defer s.mu.Unlock()

	if u, ok := s.users[username]; ok {
		return u
	}

	u := model.User{
		ID:            int64(len(s.users) + 1),
		Username:      username,
		Authenticated: true,
		Superuser:     superuser,
	}
	s.users[username] = u

	return u
}

// User looks a user up by name.
func (s *Store) User(_ context.Context, username string) (model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[username]
	if !ok {
		return model.User{}, fmt.Errorf("%w: user %q", menu.ErrNotFound, username)
	}
	return u, nil
}

// PutReviewRequest adds or replaces rr, keyed by its display id.
func (s *Store) PutReviewRequest(rr *model.ReviewRequest) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := *rr
	s.requests[rr.DisplayID] = &c
}

// ReviewRequest returns a copy of the review request with displayID.
func (s *Store) ReviewRequest(_ context.Context, displayID int) (*model.ReviewRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rr, ok := s.requests[displayID]
	if !ok {
		return nil, fmt.Errorf("%w: review request %d", menu.ErrNotFound, displayID)
	}
	c := *rr
	return &c, nil
}

// ReviewRequests returns copies of all review requests ordered by display id.
func (s *Store) ReviewRequests(_ context.Context) []*model.ReviewRequest {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*model.ReviewRequest, 0, len(s.requests))
	for _, rr := range s.requests {
		c := *rr
		out = append(out, &c)
	}
	slices.SortFunc(out, func(a, b *model.ReviewRequest) int { return cmp.Compare(a.DisplayID, b.DisplayID) })

	return out
}
