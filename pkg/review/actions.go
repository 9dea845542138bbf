// Package review provides the actions shown on review request pages.
package review

import (
	"strconv"

	"github.com/mchmarny/actionmenu/pkg/action"
	"github.com/mchmarny/actionmenu/pkg/logger"
	"github.com/mchmarny/actionmenu/pkg/urls"
)

// RegistryName is the name of the review request action registry.
const RegistryName = "review-request"

// FeatureGeneralComments gates the general comment action.
const FeatureGeneralComments = "general-comments"

// Action ids of the default review request actions.
const (
	CloseMenuID         = "close-review-request-action"
	SubmitID            = "submit-review-request-action"
	DiscardID           = "discard-review-request-action"
	DeleteID            = "delete-review-request-action"
	UpdateMenuID        = "update-review-request-action"
	UploadDiffID        = "upload-diff-action"
	UploadFileID        = "upload-file-action"
	DownloadDiffID      = "download-diff-action"
	EditReviewID        = "review-action"
	AddGeneralCommentID = "general-comment-action"
	ShipItID            = "ship-it-action"
)

const (
	templateAction = "review_action"
	templateMenu   = "review_menu"
)

// NewAction creates an action rendered in the review request header.
func NewAction(id, label string, opts ...action.Option) *action.Item {
	return action.New(id, label, append([]action.Option{action.WithTemplate(templateAction)}, opts...)...)
}

// NewMenu creates a review request menu whose children live in r.
func NewMenu(r action.ChildLookup, id, label string, opts ...action.Option) *action.Menu {
	return action.NewMenu(r, id, label, append([]action.Option{action.WithTemplate(templateMenu)}, opts...)...)
}

// NewRegistry creates the review request registry with its default actions.
func NewRegistry(opts ...action.RegistryOption) *action.Registry {
	return action.NewRegistry(RegistryName, append([]action.RegistryOption{action.WithDefaults(Defaults)}, opts...)...)
}

// Defaults returns the default review request actions.
func Defaults(r *action.Registry) []action.Entry {
	return []action.Entry{
		action.Group(CloseMenu(r), Submit(), Discard(), Delete()),
		action.Group(UpdateMenu(r), UploadDiff(), UploadFile()),
		action.Single(DownloadDiff()),
		action.Single(EditReview()),
		action.Single(AddGeneralComment()),
		action.Single(ShipIt()),
	}
}

// CloseMenu groups the ways of closing a review request. It is shown while
// the review request is pending, to its owner or to anyone allowed to change
// the status of a published review request.
func CloseMenu(r action.ChildLookup) *action.Menu {
	return NewMenu(r, CloseMenuID, "Close",
		action.WithRenderIf(func(rc *action.Context) bool {
			rr := rc.ReviewRequest()
			return rr.IsPending() &&
				(rr.OwnedBy(rc.User()) ||
					(rc.HasPerm("reviews", "can_change_status") && rr.Public))
		}),
	)
}

// Submit closes the review request as submitted.
func Submit() *action.Item {
	return NewAction(SubmitID, "Submitted",
		action.WithRenderIf(func(rc *action.Context) bool {
			rr := rc.ReviewRequest()
			return rr != nil && rr.Public
		}),
	)
}

// Discard closes the review request as discarded.
func Discard() *action.Item {
	return NewAction(DiscardID, "Discarded")
}

// Delete permanently deletes the review request.
func Delete() *action.Item {
	return NewAction(DeleteID, "Delete Permanently",
		action.WithRenderIf(func(rc *action.Context) bool {
			return rc.HasPerm("reviews", "delete_reviewrequest")
		}),
	)
}

// UpdateMenu groups the ways of updating a review request.
func UpdateMenu(r action.ChildLookup) *action.Menu {
	return NewMenu(r, UpdateMenuID, "Update",
		action.WithRenderIf(func(rc *action.Context) bool {
			rr := rc.ReviewRequest()
			return rr.IsPending() &&
				(rr.OwnedBy(rc.User()) || rc.HasPerm("reviews", "can_edit_reviewrequest"))
		}),
	)
}

// UploadDiff uploads a new diff. It needs a repository, and its label
// depends on whether a diff exists already.
func UploadDiff() *action.Item {
	return NewAction(UploadDiffID, "Upload Diff",
		action.WithLabelFunc(func(rc *action.Context) string {
			if rc.ReviewRequest().HasDiffs() {
				return "Update Diff"
			}
			return "Upload Diff"
		}),
		action.WithRenderIf(func(rc *action.Context) bool {
			return rc.ReviewRequest().HasRepository()
		}),
	)
}

// UploadFile attaches a file to the review request.
func UploadFile() *action.Item {
	return NewAction(UploadFileID, "Add File")
}

// DownloadDiff links to the raw diff. Inside the diff viewer it is always
// rendered, links relative to the current revision and starts hidden on
// interdiffs; elsewhere it needs a repository.
func DownloadDiff() *action.Item {
	return NewAction(DownloadDiffID, "Download Diff",
		action.ReadOnlyExempt(),
		action.WithURLFunc(downloadDiffURL),
		action.WithHiddenFunc(func(rc *action.Context) bool {
			if urls.IsDiffViewer(rc.RouteName()) {
				return rc.RouteName() == urls.RouteViewInterdiff
			}
			return false
		}),
		action.WithRenderIf(func(rc *action.Context) bool {
			if urls.IsDiffViewer(rc.RouteName()) {
				return true
			}
			return rc.ReviewRequest().HasRepository()
		}),
	)
}

func downloadDiffURL(rc *action.Context) string {
	// Relative so switching revisions in the viewer needs no re-render.
	if urls.IsDiffViewer(rc.RouteName()) {
		return "raw/"
	}

	rr := rc.ReviewRequest()
	if rr == nil {
		return action.DefaultURL
	}

	u, err := rc.Reverse(urls.RouteRawDiff, map[string]string{
		"review_request_id": strconv.Itoa(rr.DisplayID),
	})
	if err != nil {
		logger.FromContext(rc.Context()).Warn("failed to reverse raw diff URL",
			"review_request_id", rr.DisplayID,
			"error", err)
		return action.DefaultURL
	}

	return u
}

// EditReview opens the review editor. Requires a logged-in user.
func EditReview() *action.Item {
	return NewAction(EditReviewID, "Review", action.WithRenderIf(authenticated))
}

// AddGeneralComment starts a new general comment.
func AddGeneralComment() *action.Item {
	return NewAction(AddGeneralCommentID, "Add General Comment",
		action.WithRenderIf(authenticated),
		action.WithRenderIf(func(rc *action.Context) bool {
			return rc.Feature(FeatureGeneralComments)
		}),
	)
}

// ShipIt approves the review request without comments.
func ShipIt() *action.Item {
	return NewAction(ShipItID, "Ship It!", action.WithRenderIf(authenticated))
}

func authenticated(rc *action.Context) bool {
	return rc.User().Authenticated
}
