package server

import (
	"context"
	"io"
	"log/slog"

	"github.com/vango-dev/nestroute/pkg/location"
	"github.com/vango-dev/nestroute/pkg/manifest"
	"github.com/vango-dev/nestroute/pkg/router"
)

// RouteInfo describes one active node.
type RouteInfo struct {
	Name     string   `json:"name"`
	FullName string   `json:"fullName"`
	Path     string   `json:"path"`
	FullPath string   `json:"fullPath"`
	Aliases  []string `json:"aliases,omitempty"`
	Depth    int      `json:"depth"`
}

// MatchResult is a resolved segment.
type MatchResult struct {
	Segment  string              `json:"segment"`
	Matched  bool                `json:"matched"`
	Route    string              `json:"route,omitempty"`
	FullPath string              `json:"fullPath,omitempty"`
	Params   map[string][]string `json:"params,omitempty"`
	Query    map[string][]string `json:"query,omitempty"`
	Traces   []string            `json:"traces,omitempty"`
}

// Catalog is a started, hookless copy of a manifest's tree used to answer
// route table and match queries.
type Catalog struct {
	manifest *manifest.Manifest
	router   *router.Router
}

// NewCatalog builds and starts the tree described by m.
func NewCatalog(m *manifest.Manifest) (*Catalog, error) {
	root, err := m.Build(manifest.BuildOptions{})
	if err != nil {
		return nil, err
	}
	sess := router.NewSession(location.NewMemory("/"),
		router.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	r := sess.Router(root)
	if _, err := r.Start(context.Background()); err != nil {
		return nil, err
	}
	return &Catalog{manifest: m, router: r}, nil
}

// Manifest returns the manifest the catalog was built from.
func (c *Catalog) Manifest() *manifest.Manifest { return c.manifest }

// Routes lists every node in pre-order.
func (c *Catalog) Routes() []RouteInfo {
	var out []RouteInfo
	c.router.Root().Walk(func(n *router.Node) {
		out = append(out, RouteInfo{
			Name:     n.Name(),
			FullName: n.FullName(),
			Path:     n.Options().Path,
			FullPath: n.FullPath(),
			Aliases:  n.Aliases(),
			Depth:    n.Depth(),
		})
	})
	return out
}

// Match resolves segment without running any hook.
func (c *Catalog) Match(segment string) (*MatchResult, error) {
	res, err := c.router.Match(segment)
	if err != nil {
		return nil, err
	}
	out := &MatchResult{Segment: segment}
	if res == nil {
		return out, nil
	}
	out.Matched = true
	out.Segment = res.Segment
	out.Route = res.Router.FullName()
	out.FullPath = res.Router.FullPath()
	if len(res.Params) > 0 {
		out.Params = res.Params
	}
	if len(res.Query) > 0 {
		out.Query = res.Query
	}
	for _, n := range res.Traces {
		out.Traces = append(out.Traces, n.FullName())
	}
	return out, nil
}

// Close stops the catalog's router.
func (c *Catalog) Close() {
	c.router.Stop()
}
