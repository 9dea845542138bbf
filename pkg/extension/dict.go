package extension

import (
	"fmt"
	"strings"

	"github.com/mchmarny/actionmenu/pkg/action"
	"github.com/mchmarny/actionmenu/pkg/header"
)

// AppliesTo limits a dictionary action to the requests fn accepts.
func AppliesTo(fn func(rc *action.Context) bool) action.Option {
	return action.WithRenderIf(fn)
}

// FromDict builds a header-style action from a legacy dictionary with the
// keys "id", "label", "url", "image", "image_width" and "image_height".
// Only "label" is required; a missing "id" is derived from the label, so
// "Do Something" becomes "do-something-action".
func FromDict(info map[string]any, opts ...action.Option) (*action.Item, error) {
	label, err := stringField(info, "label")
	if err != nil {
		return nil, err
	}
	if label == "" {
		return nil, fmt.Errorf("%w: dictionary action needs a label", action.ErrInvalidAction)
	}

	id, err := stringField(info, "id")
	if err != nil {
		return nil, err
	}
	if id == "" {
		id = strings.ReplaceAll(strings.ToLower(label), " ", "-") + "-action"
	}

	url, err := stringField(info, "url")
	if err != nil {
		return nil, err
	}
	if url != "" {
		opts = append([]action.Option{action.WithURL(url)}, opts...)
	}

	var img *header.Image
	if src, err := stringField(info, "image"); err != nil {
		return nil, err
	} else if src != "" {
		img = &header.Image{URL: src}
		if img.Width, err = intField(info, "image_width"); err != nil {
			return nil, err
		}
		if img.Height, err = intField(info, "image_height"); err != nil {
			return nil, err
		}
	}

	return header.NewAction(id, label, img, opts...), nil
}

func stringField(info map[string]any, key string) (string, error) {
	v, ok := info[key]
	if !ok || v == nil {
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%w: %q must be a string, got %T", action.ErrInvalidAction, key, v)
	}
	return s, nil
}

func intField(info map[string]any, key string) (int, error) {
	switch v := info[key].(type) {
	case nil:
		return 0, nil
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		return int(v), nil
	default:
		return 0, fmt.Errorf("%w: %q must be a number, got %T", action.ErrInvalidAction, key, v)
	}
}
