package model

import "strings"

// Status is the lifecycle state of a review request.
type Status string

const (
	// StatusPending means the review request is still open for review.
	StatusPending Status = "P"

	// StatusSubmitted means the change was submitted (closed as completed).
	StatusSubmitted Status = "S"

	// StatusDiscarded means the review request was discarded.
	StatusDiscarded Status = "D"
)

// User is the authenticated identity of the requesting user.
// The zero value is an anonymous user.
type User struct {
	// ID is the primary key of the user. Zero for anonymous users.
	ID int64 `json:"id"`

	// Username is the login name of the user.
	Username string `json:"username,omitempty"`

	// Authenticated is true when the request carries a logged-in user.
	Authenticated bool `json:"authenticated"`

	// Superuser is true for site administrators.
	Superuser bool `json:"superuser"`
}

// Anonymous returns the anonymous user.
func Anonymous() User {
	return User{}
}

// Permissions holds pre-computed permission flags keyed by domain and
// capability, e.g. perms["reviews"]["can_change_status"].
type Permissions map[string]map[string]bool

// Has reports whether the capability is granted within the domain.
// Missing domains and capabilities are treated as not granted.
func (p Permissions) Has(domain, capability string) bool {
	if p == nil {
		return false
	}
	return p[domain][capability]
}

// Grant sets the capability within the domain and returns p for chaining.
// A nil p is replaced by a new map, so callers must use the result.
func (p Permissions) Grant(domain, capability string) Permissions {
	if p == nil {
		p = Permissions{}
	}
	caps, ok := p[domain]
	if !ok {
		caps = make(map[string]bool)
		p[domain] = caps
	}
	caps[capability] = true
	return p
}

// ParsePermissions parses a comma-separated list of "domain.capability"
// entries, e.g. "reviews.can_change_status,reviews.delete_reviewrequest".
// Malformed entries are skipped.
func ParsePermissions(s string) Permissions {
	p := Permissions{}
	for _, part := range strings.Split(s, ",") {
		domain, capability, ok := strings.Cut(strings.TrimSpace(part), ".")
		if !ok || domain == "" || capability == "" {
			continue
		}
		p.Grant(domain, capability)
	}
	return p
}

// ReviewRequest is the subset of review request state consulted when
// deciding which actions to show.
type ReviewRequest struct {
	// ID is the global primary key.
	ID int `json:"id"`

	// DisplayID is the id shown in URLs, which may be local to a site.
	DisplayID int `json:"display_id"`

	// Summary is a one-line description.
	Summary string `json:"summary,omitempty"`

	// SubmitterID is the user id of the owner.
	SubmitterID int64 `json:"submitter_id"`

	// Status is the lifecycle state.
	Status Status `json:"status"`

	// Public is true once the review request has been published.
	Public bool `json:"public"`

	// RepositoryID is the attached repository, if any.
	RepositoryID *int64 `json:"repository_id,omitempty"`

	// DiffsetCount is the number of published diff revisions.
	DiffsetCount int `json:"diffset_count"`

	// DraftDiff is true when the caller's draft carries a new diff.
	DraftDiff bool `json:"draft_diff"`
}

// HasRepository reports whether a repository is attached.
func (r *ReviewRequest) HasRepository() bool {
	return r != nil && r.RepositoryID != nil
}

// HasDiffs reports whether any diff exists, either published or in the draft.
func (r *ReviewRequest) HasDiffs() bool {
	return r != nil && (r.DraftDiff || r.DiffsetCount > 0)
}

// IsPending reports whether the review request is still open.
func (r *ReviewRequest) IsPending() bool {
	return r != nil && r.Status == StatusPending
}

// OwnedBy reports whether u submitted the review request.
func (r *ReviewRequest) OwnedBy(u User) bool {
	return r != nil && u.Authenticated && u.ID == r.SubmitterID
}
