package pathpattern

import (
	"errors"
	"reflect"
	"testing"
)

func TestCompileMatch(t *testing.T) {
	tests := []struct {
		template string
		path     string
		want     bool
	}{
		{"/", "", true},
		{"/", "/", true},
		{"/", "/a", false},
		{"/app", "/app", true},
		{"/app", "/APP", true},
		{"/app", "/app/", true},
		{"/app", "/app//", false},
		{"/app", "/app/x", false},
		{"/app/", "/app", true},
		{"/user/:id", "/user/42", true},
		{"/user/:id", "/user", false},
		{"/user/:id", "/user/42/x", false},
		{"/user/:id?", "/user", true},
		{"/user/:id?", "/user/42", true},
		{"/files/:path+", "/files", false},
		{"/files/:path+", "/files/a/b/c", true},
		{"/files/:path*", "/files", true},
		{"/post/:id(\\d+)", "/post/12", true},
		{"/post/:id(\\d+)", "/post/ab", false},
		{"/static/*", "/static/css/app.css", true},
		{"/file.:ext", "/file.json", true},
		{"/a\\:b", "/a:b", true},
	}

	for _, tt := range tests {
		p, err := Compile(tt.template)
		if err != nil {
			t.Fatalf("Compile(%q) error: %v", tt.template, err)
		}
		if got := p.Match(tt.path); got != tt.want {
			t.Errorf("Compile(%q).Match(%q) = %v, want %v", tt.template, tt.path, got, tt.want)
		}
	}
}

func TestKeys(t *testing.T) {
	p := MustCompile("/files/:path+/:rev?/(.*)")
	keys := p.Keys()
	if len(keys) != 3 {
		t.Fatalf("len(Keys()) = %d, want 3", len(keys))
	}

	if keys[0].Name != "path" || !keys[0].Repeat || keys[0].Optional || keys[0].Delimiter != "/" {
		t.Errorf("keys[0] = %+v", keys[0])
	}
	if keys[1].Name != "rev" || !keys[1].Optional || keys[1].Repeat {
		t.Errorf("keys[1] = %+v", keys[1])
	}
	if keys[2].Name != "0" || keys[2].Pattern != ".*" {
		t.Errorf("keys[2] = %+v", keys[2])
	}
}

func TestExec(t *testing.T) {
	tests := []struct {
		template string
		path     string
		want     []string
	}{
		{"/user/:id", "/user/42", []string{"42"}},
		{"/user/:id?", "/user", []string{""}},
		{"/files/:path+", "/files/a/b/c", []string{"a/b/c"}},
		{"/app/detail/:id", "/app/detail/7/", []string{"7"}},
		{"/app", "/other", nil},
	}

	for _, tt := range tests {
		got := MustCompile(tt.template).Exec(tt.path)
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("Exec(%q, %q) = %#v, want %#v", tt.template, tt.path, got, tt.want)
		}
	}
}

func TestReverse(t *testing.T) {
	tests := []struct {
		name     string
		template string
		params   map[string][]string
		want     string
		wantErr  error
	}{
		{"single", "/user/:id", map[string][]string{"id": {"42"}}, "/user/42", nil},
		{"escaped", "/user/:id", map[string][]string{"id": {"a b"}}, "/user/a%20b", nil},
		{"repeat", "/files/:path+", map[string][]string{"path": {"a", "b", "c"}}, "/files/a/b/c", nil},
		{"optional missing", "/user/:id?", nil, "/user", nil},
		{"required missing", "/user/:id", nil, "", ErrMissingParam},
		{"pattern mismatch", "/post/:id(\\d+)", map[string][]string{"id": {"x"}}, "", ErrInvalidParam},
		{"too many values", "/user/:id", map[string][]string{"id": {"1", "2"}}, "", ErrUnexpectedRepeat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MustCompile(tt.template).Reverse(tt.params)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("Reverse() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestReverseRoundTrip(t *testing.T) {
	p := MustCompile("/user/:id")
	path, err := p.Reverse(map[string][]string{"id": {"42"}})
	if err != nil {
		t.Fatalf("Reverse error: %v", err)
	}
	if got := p.Exec(path); len(got) != 1 || got[0] != "42" {
		t.Errorf("Exec(Reverse()) = %v, want [42]", got)
	}
}

func TestCompileErrors(t *testing.T) {
	tests := []struct {
		template string
		wantErr  error
	}{
		{"/a/:id(\\d+", ErrUnclosedGroup},
		{"/a/:id((x))", ErrNestedGroup},
		{"/a/()", ErrUnclosedGroup},
	}

	for _, tt := range tests {
		_, err := Compile(tt.template)
		if !errors.Is(err, tt.wantErr) {
			t.Errorf("Compile(%q) err = %v, want %v", tt.template, err, tt.wantErr)
		}
	}
}
