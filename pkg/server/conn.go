package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/vango-dev/nestroute/internal/errors"
	"github.com/vango-dev/nestroute/pkg/location"
	"github.com/vango-dev/nestroute/pkg/manifest"
	"github.com/vango-dev/nestroute/pkg/router"
)

// conn is one client with its own routing session.
type conn struct {
	id     string
	ws     *websocket.Conn
	server *Server
	logger *slog.Logger

	remote *location.Remote
	router *router.Router

	out       chan *Frame
	done      chan struct{}
	closeOnce sync.Once
}

func newConn(s *Server, ws *websocket.Conn) *conn {
	id := uuid.NewString()
	return &conn{
		id:     id,
		ws:     ws,
		server: s,
		logger: s.logger.With("conn", id),
		out:    make(chan *Frame, s.config.SendBuffer),
		done:   make(chan struct{}),
	}
}

// start builds the connection's tree from m and runs the initial
// transition to segment.
func (c *conn) start(ctx context.Context, m *manifest.Manifest, segment string) error {
	root, err := m.Build(manifest.BuildOptions{Hooks: c.hooks})
	if err != nil {
		return err
	}
	root.On(router.EventNotFound, func(n router.Notification) {
		c.send(&Frame{Type: FrameNotFound, Segment: n.Segment})
	})

	c.remote = location.NewRemote(segment, c.command)
	mw := append([]router.Middleware{router.MiddlewareFunc(c.report)}, c.server.config.Middleware...)
	sess := router.NewSession(c.remote,
		router.WithLogger(c.logger.With("component", "router")),
		router.WithMiddleware(mw...),
	)
	c.router = sess.Router(root)

	c.send(&Frame{Type: FrameHello, Conn: c.id, Segment: c.remote.Segment("")})
	_, err = c.router.Start(ctx)
	return err
}

func (c *conn) hooks(*manifest.Route) router.Options {
	return router.Options{
		Enter:  c.lifecycle("enter"),
		Leave:  c.lifecycle("leave"),
		Update: c.lifecycle("update"),
	}
}

func (c *conn) lifecycle(hook string) router.Hook {
	return func(hc *router.HookContext) error {
		c.send(&Frame{
			Type:         FrameLifecycle,
			Hook:         hook,
			Route:        hc.Node().FullName(),
			Params:       hc.Params,
			TransitionID: hc.Transition().ID,
		})
		return nil
	}
}

// report sends a transition frame once the lifecycle has settled.
func (c *conn) report(ctx context.Context, t *router.Transition, next func(context.Context) error) error {
	err := next(ctx)
	f := &Frame{
		Type:         FrameTransition,
		TransitionID: t.ID,
		Kind:         t.Kind.String(),
		Outcome:      t.Outcome.String(),
	}
	if t.To != nil && t.To.Router != nil {
		f.Route = t.To.Router.FullName()
	}
	c.send(f)
	return err
}

// command relays a location command from the router to the client.
func (c *conn) command(cmd location.Command) {
	c.send(&Frame{Type: string(cmd.Op), Segment: cmd.Segment})
}

// send queues f. A client whose queue is full is disconnected.
func (c *conn) send(f *Frame) {
	select {
	case <-c.done:
		return
	default:
	}
	select {
	case c.out <- f:
	default:
		c.logger.Warn("send buffer full, closing connection")
		c.close()
	}
}

func (c *conn) sendError(err error, fallback string) {
	rerr := errors.Classify(err, fallback)
	c.send(&Frame{Type: FrameError, Code: rerr.Code, Message: rerr.Error()})
}

// readLoop processes client frames until the connection fails.
func (c *conn) readLoop(ctx context.Context) {
	defer c.close()

	cfg := c.server.config
	c.ws.SetReadDeadline(time.Now().Add(cfg.ReadTimeout))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(cfg.ReadTimeout))
	})

	for {
		_, msg, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure,
				websocket.CloseNormalClosure) {
				c.logger.Error("read error", "error", err)
			}
			return
		}
		c.ws.SetReadDeadline(time.Now().Add(cfg.ReadTimeout))

		f, err := decodeFrame(msg)
		if err != nil {
			fe := err.(*frameError)
			c.logger.Debug("bad frame", "error", err)
			if m := cfg.Metrics; m != nil {
				m.ProtocolError(fe.kind)
			}
			c.send(&Frame{Type: FrameError, Code: fe.code, Message: fe.msg})
			continue
		}
		c.handle(ctx, f)
	}
}

func (c *conn) handle(ctx context.Context, f *Frame) {
	switch f.Type {
	case FrameChange:
		c.remote.Report(f.Segment)

	case FrameBack:
		c.remote.ReportBack()

	case FrameNavigate:
		route := router.Path(f.Path)
		if f.Name != "" {
			route = router.Named(f.Name, f.Params)
		}
		var opts []router.NavigateOption
		if len(f.Query) > 0 {
			opts = append(opts, router.WithQuery(url.Values(f.Query)))
		}
		if f.Replace {
			opts = append(opts, router.WithReplace())
		}
		if _, err := c.router.Navigate(ctx, route, opts...); err != nil {
			c.logger.Info("navigation failed", "path", f.Path, "name", f.Name, "error", err)
			c.sendError(err, "R304")
		}
	}
}

// writeLoop drains the send queue and pings until the connection closes.
func (c *conn) writeLoop() {
	cfg := c.server.config
	ticker := time.NewTicker(cfg.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return

		case f := <-c.out:
			data, err := json.Marshal(f)
			if err != nil {
				c.logger.Error("frame encode error", "error", err)
				continue
			}
			c.ws.SetWriteDeadline(time.Now().Add(cfg.WriteTimeout))
			if err := c.ws.WriteMessage(websocket.TextMessage, data); err != nil {
				c.logger.Debug("write error", "error", err)
				c.close()
				return
			}

		case <-ticker.C:
			c.ws.SetWriteDeadline(time.Now().Add(cfg.WriteTimeout))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.close()
				return
			}
		}
	}
}

// close tears down the socket. Safe to call more than once.
func (c *conn) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.ws.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second),
		)
		c.ws.Close()
	})
}
