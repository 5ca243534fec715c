package router

import (
	"net/url"
	"strings"
)

// Hash is a parsed location hash.
type Hash struct {
	Path  []string
	Query map[string]string
}

// ParseHash percent-decodes hash and splits it into path segments and
// query parameters. Empty segments are dropped, so "/a//b/" and "a/b" have
// the same path.
//
//	ParseHash("path/ssvxs/211?search=url&name=formater")
//	// Path: [path ssvxs 211], Query: {search: url, name: formater}
func ParseHash(hash string) Hash {
	if decoded, err := url.PathUnescape(hash); err == nil {
		hash = decoded
	}
	path, rawQuery, _ := strings.Cut(hash, "?")

	h := Hash{Query: map[string]string{}}
	for _, seg := range strings.Split(path, "/") {
		if seg != "" {
			h.Path = append(h.Path, seg)
		}
	}
	if rawQuery, _, _ = strings.Cut(rawQuery, "?"); rawQuery != "" {
		for _, pair := range strings.Split(rawQuery, "&") {
			if pair == "" {
				continue
			}
			key, val, _ := strings.Cut(pair, "=")
			h.Query[key] = val
		}
	}
	return h
}

// Match matches hash against pattern. Pattern segments starting with ':'
// capture the hash segment at the same position; other segments must be
// equal. The segment counts must match.
//
//	Match("/main/1022", "/main/:uid") // {uid: 1022}, true
func Match(hash, pattern string) (map[string]string, bool) {
	path := ParseHash(hash).Path
	var segments []string
	for _, seg := range strings.Split(pattern, "/") {
		if seg != "" {
			segments = append(segments, seg)
		}
	}
	if len(segments) != len(path) {
		return nil, false
	}
	params := map[string]string{}
	for i, seg := range segments {
		if name, ok := strings.CutPrefix(seg, ":"); ok {
			params[name] = path[i]
			continue
		}
		if seg != path[i] {
			return nil, false
		}
	}
	return params, true
}

// Rest returns a middleware that rewrites ctx.Hash to the matching pattern
// and stores the captured parameters in ctx.RestParams. When several
// patterns match, the last one wins. ctx.Query is always set from the
// original hash.
func Rest(patterns []string) Middleware {
	patterns = append([]string(nil), patterns...)
	return func(ctx *Context, next Next) {
		hash := ctx.Hash
		ctx.Query = ParseHash(hash).Query
		for _, pattern := range patterns {
			if params, ok := Match(hash, pattern); ok {
				ctx.Hash = pattern
				ctx.RestParams = params
			}
		}
		if next != nil {
			next(ctx)
		}
	}
}
