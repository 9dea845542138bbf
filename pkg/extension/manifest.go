package extension

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/mchmarny/actionmenu/pkg/action"
	"github.com/mchmarny/actionmenu/pkg/header"
	"github.com/mchmarny/actionmenu/pkg/logger"
	"github.com/mchmarny/actionmenu/pkg/review"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
)

// ManifestExt is the file extension of action manifests.
const ManifestExt = ".hcl"

// manifestFile is the top level of a manifest.
type manifestFile struct {
	Actions []*actionBlock `hcl:"action,block"`
}

type actionBlock struct {
	ID             string         `hcl:"id,label"`
	Registry       string         `hcl:"registry"`
	Label          string         `hcl:"label"`
	URL            *string        `hcl:"url,optional"`
	Hidden         *bool          `hcl:"hidden,optional"`
	Parent         *string        `hcl:"parent,optional"`
	Menu           *bool          `hcl:"menu,optional"`
	ReadOnlyExempt *bool          `hcl:"read_only_exempt,optional"`
	RenderIf       hcl.Expression `hcl:"render_if,optional"`
	Image          *imageBlock    `hcl:"image,block"`
}

type imageBlock struct {
	URL    string `hcl:"url"`
	Width  *int   `hcl:"width,optional"`
	Height *int   `hcl:"height,optional"`
}

// Definition is an action declared in a manifest:
//
//	action "chat-action" {
//	  registry  = "header"
//	  label     = "Chat"
//	  url       = "https://chat.example.com/"
//	  parent    = "support-menu"
//	  render_if = user.authenticated && has_perm("reviews", "can_edit_reviewrequest")
//	}
type Definition struct {
	ID             string
	Registry       string
	Label          string
	URL            string
	Hidden         bool
	Parent         string
	Menu           bool
	ReadOnlyExempt bool
	Image          *header.Image

	// Source is the file the definition was read from.
	Source string

	renderIf hcl.Expression
}

// LoadManifests reads every manifest under paths. A path may be a file or a
// directory, which is searched recursively. Definitions keep file order.
func LoadManifests(ctx context.Context, paths ...string) ([]*Definition, error) {
	log := logger.FromContext(ctx)

	files, err := findManifests(paths)
	if err != nil {
		return nil, err
	}

	if len(files) == 0 {
		log.Warn("no action manifests found", "paths", paths)
		return nil, nil
	}

	parser := hclparse.NewParser()

	var defs []*Definition
	for _, path := range files {
		f, diags := parser.ParseHCLFile(path)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse manifest %s: %w", path, diags)
		}

		fileDefs, err := decodeManifest(f, path)
		if err != nil {
			return nil, err
		}

		log.Debug("loaded action manifest", "file", path, "actions", len(fileDefs))
		defs = append(defs, fileDefs...)
	}

	return defs, nil
}

// ParseManifest parses a single manifest from memory.
func ParseManifest(filename string, src []byte) ([]*Definition, error) {
	f, diags := hclparse.NewParser().ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse manifest %s: %w", filename, diags)
	}
	return decodeManifest(f, filename)
}

func decodeManifest(f *hcl.File, source string) ([]*Definition, error) {
	var root manifestFile
	if diags := gohcl.DecodeBody(f.Body, nil, &root); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode manifest %s: %w", source, diags)
	}

	defs := make([]*Definition, 0, len(root.Actions))
	for _, b := range root.Actions {
		d, err := b.definition(source)
		if err != nil {
			return nil, err
		}
		defs = append(defs, d)
	}

	return defs, nil
}

func (b *actionBlock) definition(source string) (*Definition, error) {
	d := &Definition{
		ID:       b.ID,
		Registry: b.Registry,
		Label:    b.Label,
		Source:   source,
		renderIf: b.RenderIf,
	}

	if b.URL != nil {
		d.URL = *b.URL
	}
	if b.Hidden != nil {
		d.Hidden = *b.Hidden
	}
	if b.Parent != nil {
		d.Parent = *b.Parent
	}
	if b.Menu != nil {
		d.Menu = *b.Menu
	}
	if b.ReadOnlyExempt != nil {
		d.ReadOnlyExempt = *b.ReadOnlyExempt
	}
	if b.Image != nil {
		d.Image = &header.Image{URL: b.Image.URL}
		if b.Image.Width != nil {
			d.Image.Width = *b.Image.Width
		}
		if b.Image.Height != nil {
			d.Image.Height = *b.Image.Height
		}
	}

	if d.ID == "" {
		return nil, fmt.Errorf("%w: %s: action block needs an id", action.ErrInvalidAction, source)
	}
	if d.Menu && d.Parent != "" {
		return nil, fmt.Errorf("%w: %s: menu %s cannot have a parent", action.ErrDepthLimitExceeded, source, d.ID)
	}

	if d.renderIf != nil {
		for _, tr := range d.renderIf.Variables() {
			if !slices.Contains(conditionVariables, tr.RootName()) {
				return nil, fmt.Errorf("%w: %s: render_if of %s references unknown variable %q",
					action.ErrInvalidAction, source, d.ID, tr.RootName())
			}
		}
	}

	return d, nil
}

// Build creates the action. Menus resolve their children through children.
func (d *Definition) Build(children action.ChildLookup) action.Action {
	opts := []action.Option{action.WithHidden(d.Hidden)}
	if d.URL != "" {
		opts = append(opts, action.WithURL(d.URL))
	}
	if d.ReadOnlyExempt {
		opts = append(opts, action.ReadOnlyExempt())
	}
	if d.renderIf != nil {
		opts = append(opts, action.WithRenderIf(d.evalRenderIf))
	}

	switch {
	case d.Registry == header.RegistryName && d.Menu:
		return header.NewMenu(children, d.ID, d.Label, d.Image, opts...)
	case d.Registry == header.RegistryName:
		return header.NewAction(d.ID, d.Label, d.Image, opts...)
	case d.Registry == review.RegistryName && d.Menu:
		return review.NewMenu(children, d.ID, d.Label, opts...)
	case d.Registry == review.RegistryName:
		return review.NewAction(d.ID, d.Label, opts...)
	case d.Menu:
		return action.NewMenu(children, d.ID, d.Label, opts...)
	default:
		return action.New(d.ID, d.Label, opts...)
	}
}

// evalRenderIf evaluates render_if against the request. A missing or null
// condition renders; an error or a non-boolean result does not.
func (d *Definition) evalRenderIf(rc *action.Context) bool {
	v, diags := d.renderIf.Value(evalContext(rc))
	if diags.HasErrors() {
		logger.FromContext(rc.Context()).Warn("failed to evaluate render_if",
			"action_id", d.ID,
			"source", d.Source,
			"error", diags.Error())
		return false
	}

	if v.IsNull() {
		return true
	}

	b, err := convert.Convert(v, cty.Bool)
	if err != nil || !b.IsKnown() || b.IsNull() {
		logger.FromContext(rc.Context()).Warn("render_if is not a boolean",
			"action_id", d.ID,
			"source", d.Source,
			"type", v.Type().FriendlyName())
		return false
	}

	return b.True()
}

func findManifests(paths []string) ([]string, error) {
	var files []string

	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("failed to stat manifest path %s: %w", p, err)
		}

		if !info.IsDir() {
			files = append(files, p)
			continue
		}

		err = filepath.WalkDir(p, func(path string, e fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !e.IsDir() && strings.EqualFold(filepath.Ext(path), ManifestExt) {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to walk manifest directory %s: %w", p, err)
		}
	}

	return files, nil
}
