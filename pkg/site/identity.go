package site

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/mchmarny/actionmenu/pkg/model"
)

// Identity headers. The site trusts them as set by an authenticating proxy.
const (
	HeaderUser      = "X-User"
	HeaderSuperuser = "X-Superuser"
	HeaderPerms     = "X-Perms"
)

// identify resolves the requesting user and their permissions. Requests
// without X-User are anonymous. X-Superuser can only lower the stored flag.
func (s *Site) identify(r *http.Request) (model.User, model.Permissions, error) {
	perms := model.ParsePermissions(r.Header.Get(HeaderPerms))

	name := strings.TrimSpace(r.Header.Get(HeaderUser))
	if name == "" {
		return model.Anonymous(), perms, nil
	}

	u, err := s.store.User(r.Context(), name)
	if err != nil {
		return model.User{}, nil, err
	}

	if v := r.Header.Get(HeaderSuperuser); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return model.User{}, nil, fmt.Errorf("invalid %s header %q", HeaderSuperuser, v)
		}
		u.Superuser = u.Superuser && b
	}

	return u, perms, nil
}
