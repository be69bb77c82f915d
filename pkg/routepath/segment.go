// Package routepath provides the slash and segment helpers shared by the
// route tree, the location adapters and the routerd service.
//
// A segment is the router-relevant part of a location: a path, optionally
// followed by "?query" and "#fragment". Matching only ever looks at the path
// part; the query is parsed separately and the fragment is discarded.
package routepath

import "strings"

// TrimTrailingSlash removes every trailing "/" from path.
//
//	TrimTrailingSlash("/app//") == "/app"
//	TrimTrailingSlash("/")      == ""
func TrimTrailingSlash(path string) string {
	return strings.TrimRight(path, "/")
}

// EnsureLeadingSlash replaces any run of leading slashes with exactly one.
//
//	EnsureLeadingSlash("detail") == "/detail"
//	EnsureLeadingSlash("//x")    == "/x"
//	EnsureLeadingSlash("")       == "/"
func EnsureLeadingSlash(path string) string {
	return "/" + strings.TrimLeft(path, "/")
}

// TrimLeadingSlash removes every leading "/" from path.
func TrimLeadingSlash(path string) string {
	return strings.TrimLeft(path, "/")
}

// JoinTemplate appends a child template to its parent's full template.
// The parent loses its trailing slashes, the child gains a leading one.
//
//	JoinTemplate("/", "/app")           == "/app"
//	JoinTemplate("/app/", "detail/:id") == "/app/detail/:id"
func JoinTemplate(parent, child string) string {
	return TrimTrailingSlash(parent) + EnsureLeadingSlash(child)
}

// Split separates a segment into its path and query parts and drops any
// "#fragment" from both. The query is returned without the leading "?".
//
//	Split("/a/b?x=1#top") == ("/a/b", "x=1")
//	Split("/a#frag?x=1")  == ("/a", "")
func Split(segment string) (path, query string) {
	path, query, _ = strings.Cut(StripFragment(segment), "?")
	return path, query
}

// StripFragment drops the first "#" and everything after it.
func StripFragment(s string) string {
	if i := strings.IndexByte(s, '#'); i >= 0 {
		return s[:i]
	}
	return s
}

// NormalizeAlias turns a user supplied alias into a template rooted at "/".
// Leading runs of slashes collapse to one and a missing slash is added.
func NormalizeAlias(path string) string {
	return EnsureLeadingSlash(path)
}

// WithQuery appends an already encoded query string to path.
// An empty query leaves the path untouched.
func WithQuery(path, query string) string {
	if query == "" {
		return path
	}
	return path + "?" + query
}
