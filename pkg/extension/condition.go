package extension

import (
	"github.com/hashicorp/hcl/v2"
	"github.com/mchmarny/actionmenu/pkg/action"
	"github.com/mchmarny/actionmenu/pkg/model"
	"github.com/mchmarny/actionmenu/pkg/urls"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
)

// conditionVariables are the root variables render_if may reference.
var conditionVariables = []string{
	"user",
	"review_request",
	"route",
	"diff_viewer",
	"read_only",
	"local_site",
}

// evalContext exposes the request to render_if expressions:
//
//	user.{id,username,authenticated,superuser}
//	review_request.{exists,id,display_id,status,public,pending,has_repository,has_diffs,owned}
//	route, diff_viewer, read_only, local_site
//	has_perm(domain, capability), feature(name)
func evalContext(rc *action.Context) *hcl.EvalContext {
	u := rc.User()

	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"user": cty.ObjectVal(map[string]cty.Value{
				"id":            cty.NumberIntVal(u.ID),
				"username":      cty.StringVal(u.Username),
				"authenticated": cty.BoolVal(u.Authenticated),
				"superuser":     cty.BoolVal(u.Superuser),
			}),
			"review_request": reviewRequestVal(rc.ReviewRequest(), u),
			"route":          cty.StringVal(rc.RouteName()),
			"diff_viewer":    cty.BoolVal(urls.IsDiffViewer(rc.RouteName())),
			"read_only":      cty.BoolVal(rc.ReadOnly()),
			"local_site":     cty.StringVal(rc.LocalSite()),
		},
		Functions: map[string]function.Function{
			"has_perm": function.New(&function.Spec{
				Params: []function.Parameter{
					{Name: "domain", Type: cty.String},
					{Name: "capability", Type: cty.String},
				},
				Type: function.StaticReturnType(cty.Bool),
				Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
					return cty.BoolVal(rc.HasPerm(args[0].AsString(), args[1].AsString())), nil
				},
			}),
			"feature": function.New(&function.Spec{
				Params: []function.Parameter{{Name: "name", Type: cty.String}},
				Type:   function.StaticReturnType(cty.Bool),
				Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
					return cty.BoolVal(rc.Feature(args[0].AsString())), nil
				},
			}),
		},
	}
}

func reviewRequestVal(rr *model.ReviewRequest, u model.User) cty.Value {
	attrs := map[string]cty.Value{
		"exists":         cty.False,
		"id":             cty.NumberIntVal(0),
		"display_id":     cty.NumberIntVal(0),
		"status":         cty.StringVal(""),
		"public":         cty.False,
		"pending":        cty.False,
		"has_repository": cty.False,
		"has_diffs":      cty.False,
		"owned":          cty.False,
	}

	if rr != nil {
		attrs["exists"] = cty.True
		attrs["id"] = cty.NumberIntVal(int64(rr.ID))
		attrs["display_id"] = cty.NumberIntVal(int64(rr.DisplayID))
		attrs["status"] = cty.StringVal(string(rr.Status))
		attrs["public"] = cty.BoolVal(rr.Public)
		attrs["pending"] = cty.BoolVal(rr.IsPending())
		attrs["has_repository"] = cty.BoolVal(rr.HasRepository())
		attrs["has_diffs"] = cty.BoolVal(rr.HasDiffs())
		attrs["owned"] = cty.BoolVal(rr.OwnedBy(u))
	}

	return cty.ObjectVal(attrs)
}
