package routepath

import "testing"

func TestSlashHelpers(t *testing.T) {
	tests := []struct {
		name string
		fn   func(string) string
		in   string
		want string
	}{
		{"trim trailing", TrimTrailingSlash, "/app//", "/app"},
		{"trim trailing root", TrimTrailingSlash, "/", ""},
		{"ensure leading missing", EnsureLeadingSlash, "detail", "/detail"},
		{"ensure leading collapse", EnsureLeadingSlash, "///x", "/x"},
		{"ensure leading empty", EnsureLeadingSlash, "", "/"},
		{"trim leading", TrimLeadingSlash, "//a/b", "a/b"},
		{"strip fragment", StripFragment, "/a#top", "/a"},
		{"no fragment", StripFragment, "/a", "/a"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.fn(tt.in); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestJoinTemplate(t *testing.T) {
	tests := []struct {
		parent, child, want string
	}{
		{"/", "/app", "/app"},
		{"/app/", "detail/:id", "/app/detail/:id"},
		{"/app", "", "/app/"},
		{"", "/", "/"},
	}

	for _, tt := range tests {
		if got := JoinTemplate(tt.parent, tt.child); got != tt.want {
			t.Errorf("JoinTemplate(%q, %q) = %q, want %q", tt.parent, tt.child, got, tt.want)
		}
	}
}

func TestSplit(t *testing.T) {
	tests := []struct {
		in        string
		wantPath  string
		wantQuery string
	}{
		{"/a/b", "/a/b", ""},
		{"/a/b?x=1", "/a/b", "x=1"},
		{"/a/b?x=1#top", "/a/b", "x=1"},
		{"/a#frag", "/a", ""},
		{"/a#frag?x=1", "/a", ""},
		{"", "", ""},
	}

	for _, tt := range tests {
		path, query := Split(tt.in)
		if path != tt.wantPath || query != tt.wantQuery {
			t.Errorf("Split(%q) = (%q, %q), want (%q, %q)", tt.in, path, query, tt.wantPath, tt.wantQuery)
		}
	}
}

func TestCanonicalize(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		wantPath    string
		wantQuery   string
		wantChanged bool
		wantErr     error
	}{
		{name: "root", input: "/", wantPath: "/"},
		{name: "empty", input: "", wantPath: "/", wantChanged: true},
		{name: "relative", input: "about", wantPath: "/about", wantChanged: true},
		{name: "collapse slashes", input: "/blog//post", wantPath: "/blog/post", wantChanged: true},
		{name: "dot segments", input: "/blog/./a/../post", wantPath: "/blog/post", wantChanged: true},
		{name: "trailing slash", input: "/projects/", wantPath: "/projects", wantChanged: true},
		{name: "query kept", input: "/p/1?tab=x", wantPath: "/p/1", wantQuery: "tab=x"},
		{name: "fragment dropped", input: "/p#top", wantPath: "/p"},
		{name: "backslash", input: "/a\\b", wantErr: ErrBackslashInPath},
		{name: "nul", input: "/a%00", wantErr: ErrNullByteInPath},
		{name: "bad escape", input: "/a%GG", wantErr: ErrInvalidPercentEscape},
		{name: "short escape", input: "/a%2", wantErr: ErrInvalidPercentEscape},
		{name: "escapes root", input: "/../etc", wantErr: ErrPathEscapesRoot},
		{name: "absolute url", input: "https://evil.example/x", wantErr: ErrAbsoluteURL},
		{name: "protocol relative", input: "//evil.example", wantErr: ErrAbsoluteURL},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Canonicalize(tt.input)
			if err != tt.wantErr {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if got.Path != tt.wantPath {
				t.Errorf("Path = %q, want %q", got.Path, tt.wantPath)
			}
			if got.Query != tt.wantQuery {
				t.Errorf("Query = %q, want %q", got.Query, tt.wantQuery)
			}
			if got.Changed != tt.wantChanged {
				t.Errorf("Changed = %v, want %v", got.Changed, tt.wantChanged)
			}
		})
	}
}

func TestCanonicalString(t *testing.T) {
	c := Canonical{Path: "/a", Query: "x=1"}
	if c.String() != "/a?x=1" {
		t.Errorf("String() = %q, want %q", c.String(), "/a?x=1")
	}
	c.Query = ""
	if c.String() != "/a" {
		t.Errorf("String() = %q, want %q", c.String(), "/a")
	}
}
