package query

import (
	"fmt"
	"net/url"
	"strings"
)

// Key identifies a cached read: a resource name plus its canonical params.
type Key struct {
	Resource string
	Params   string
}

// NewKey builds a key. url.Values and types with a Values() url.Values method
// are encoded with sorted keys; anything else is formatted with fmt.
// Empty params are dropped, so NewKey("projects", model.PageParams{}) equals
// NewKey("projects").
func NewKey(resource string, params ...any) Key {
	parts := make([]string, 0, len(params))
	for _, p := range params {
		var s string
		switch v := p.(type) {
		case nil:
		case url.Values:
			s = v.Encode()
		case interface{ Values() url.Values }:
			s = v.Values().Encode()
		default:
			s = fmt.Sprint(v)
		}
		if s != "" {
			parts = append(parts, s)
		}
	}
	return Key{Resource: resource, Params: strings.Join(parts, "/")}
}

// Resource is the key matching every params variant of name.
func Resource(name string) Key { return Key{Resource: name} }

func (k Key) String() string {
	if k.Params == "" {
		return k.Resource
	}
	return k.Resource + "?" + k.Params
}

// matches reports whether k is covered by an invalidation of pattern.
func (k Key) matches(pattern Key) bool {
	return k.Resource == pattern.Resource && (pattern.Params == "" || k.Params == pattern.Params)
}
