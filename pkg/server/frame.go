package server

import (
	"encoding/json"
	"fmt"

	"github.com/vango-dev/nestroute/pkg/routepath"
)

// Frame types.
const (
	FrameHello      = "hello"
	FrameChange     = "change"
	FrameBack       = "back"
	FrameForward    = "forward"
	FrameNavigate   = "navigate"
	FramePush       = "push"
	FrameReplace    = "replace"
	FrameLifecycle  = "lifecycle"
	FrameTransition = "transition"
	FrameNotFound   = "notfound"
	FrameError      = "error"
)

// Frame is one WebSocket message in either direction. Only the fields of
// its type are set.
type Frame struct {
	Type string `json:"type"`

	// Conn is the connection ID (hello).
	Conn string `json:"conn,omitempty"`

	// Segment is the location (hello, change, push, replace, notfound).
	Segment string `json:"segment,omitempty"`

	// Navigate targets either Path or Name with Params.
	Path    string              `json:"path,omitempty"`
	Name    string              `json:"name,omitempty"`
	Params  map[string][]string `json:"params,omitempty"`
	Query   map[string][]string `json:"query,omitempty"`
	Replace bool                `json:"replace,omitempty"`

	// Hook is enter, leave or update (lifecycle).
	Hook string `json:"hook,omitempty"`

	// Route is a node full name (lifecycle, transition).
	Route string `json:"route,omitempty"`

	TransitionID string `json:"transitionId,omitempty"`
	Kind         string `json:"kind,omitempty"`
	Outcome      string `json:"outcome,omitempty"`

	// Code and Message describe an error frame.
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

// frameError is a decoding failure with the code to report.
type frameError struct {
	code string
	kind string
	msg  string
}

func (e *frameError) Error() string { return e.code + ": " + e.msg }

// decodeFrame parses and checks an inbound frame.
func decodeFrame(data []byte) (*Frame, error) {
	var f Frame
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, &frameError{code: "R301", kind: "malformed", msg: err.Error()}
	}
	switch f.Type {
	case FrameChange:
		if f.Segment == "" {
			return nil, &frameError{code: "R301", kind: "malformed", msg: "change frame without segment"}
		}
		seg, err := canonical(f.Segment)
		if err != nil {
			return nil, err
		}
		f.Segment = seg
	case FrameBack:
	case FrameNavigate:
		if f.Path == "" && f.Name == "" {
			return nil, &frameError{code: "R301", kind: "malformed", msg: "navigate frame needs path or name"}
		}
		if f.Path != "" && f.Name != "" {
			return nil, &frameError{code: "R301", kind: "malformed", msg: "navigate frame has both path and name"}
		}
		if f.Path != "" {
			p, err := canonical(f.Path)
			if err != nil {
				return nil, err
			}
			f.Path = p
		}
	case "":
		return nil, &frameError{code: "R301", kind: "malformed", msg: "frame without type"}
	default:
		return nil, &frameError{code: "R302", kind: "unknown_type", msg: fmt.Sprintf("unknown frame type %q", f.Type)}
	}
	return &f, nil
}

// canonical cleans a client supplied segment.
func canonical(segment string) (string, error) {
	c, err := routepath.Canonicalize(segment)
	if err != nil {
		return "", &frameError{code: "R301", kind: "segment", msg: fmt.Sprintf("segment %q: %v", segment, err)}
	}
	return c.String(), nil
}
