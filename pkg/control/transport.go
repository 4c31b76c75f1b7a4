// Package control is the remote control surface (C8): a WebRTC transport
// that carries JSON-encoded set/apply/reset messages from an upstream
// engine to a mixer.Mixer over a single SCTP data channel per connection,
// standing in for the cloud signalling and media-publishing roles the
// teacher client handled, neither of which this module needs.
package control

import (
	"context"
	"errors"
	"iter"
	"sync"

	"github.com/go-kit/kit/log"
	"github.com/pion/interceptor"
	"github.com/pion/webrtc/v4"
)

var ErrConnectionExists = errors.New("control: connection already exists")
var ErrConnectionNotFound = errors.New("control: connection not found")

// Transport owns the webrtc.API every Connection is built from and the
// registry of live connections, keyed by an application-chosen id (the
// remote engine's instance name, typically).
type Transport struct {
	conns map[string]*Connection

	mediaEngine         *webrtc.MediaEngine
	settingEngine       *webrtc.SettingEngine
	interceptorRegistry *interceptor.Registry
	api                 *webrtc.API

	logger log.Logger

	mu  sync.RWMutex
	ctx context.Context
}

// NewTransport builds the shared webrtc.API from options and returns an
// empty Transport ready to accept connections.
func NewTransport(ctx context.Context, options ...Option) (*Transport, error) {
	mediaEngine := &webrtc.MediaEngine{}
	interceptorRegistry := &interceptor.Registry{}
	settingEngine := &webrtc.SettingEngine{}

	t := &Transport{
		conns:               make(map[string]*Connection),
		mediaEngine:         mediaEngine,
		interceptorRegistry: interceptorRegistry,
		settingEngine:       settingEngine,
		logger:              log.NewNopLogger(),
		ctx:                 ctx,
	}

	for _, option := range options {
		if err := option(t); err != nil {
			return nil, err
		}
	}

	t.api = webrtc.NewAPI(
		webrtc.WithMediaEngine(t.mediaEngine),
		webrtc.WithInterceptorRegistry(t.interceptorRegistry),
		webrtc.WithSettingEngine(*t.settingEngine),
	)

	return t, nil
}

// WithLogger overrides the transport's and every connection it creates'
// logger. The default is a no-op logger.
func WithLogger(logger log.Logger) Option {
	return func(t *Transport) error {
		t.logger = logger
		return nil
	}
}

// CreateConnection opens a new Connection under id, wired to dispatch
// incoming control messages to mixer via dispatch. config carries the ICE
// server list; signal drives the SDP exchange.
func (t *Transport) CreateConnection(id string, config webrtc.Configuration, signal BaseSignal, dispatch MessageHandler) (*Connection, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, exists := t.conns[id]; exists {
		return nil, ErrConnectionExists
	}

	conn, err := newConnection(t.ctx, id, t.api, config, t.logger, dispatch)
	if err != nil {
		return nil, err
	}
	conn.signal = signal

	t.conns[id] = conn
	return conn, nil
}

// GetConnection looks up a previously created connection by id.
func (t *Transport) GetConnection(id string) (*Connection, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	conn, exists := t.conns[id]
	if !exists {
		return nil, ErrConnectionNotFound
	}
	return conn, nil
}

// Connections iterates every live connection.
func (t *Transport) Connections() iter.Seq2[string, *Connection] {
	return func(yield func(string, *Connection) bool) {
		t.mu.RLock()
		defer t.mu.RUnlock()

		for id, conn := range t.conns {
			if !yield(id, conn) {
				return
			}
		}
	}
}

// Connect runs signal's exchange, identified by category, against every
// live connection, joining every error rather than stopping at the first.
func (t *Transport) Connect(category string, signal BaseSignal) error {
	var errs []error
	for _, conn := range t.Connections() {
		if err := signal.Connect(category, conn); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// CloseConnection tears down and forgets the connection registered under
// id.
func (t *Transport) CloseConnection(id string) error {
	conn, err := t.GetConnection(id)
	if err != nil {
		return err
	}
	if err := conn.Close(); err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.conns, id)
	return nil
}

// Close tears down every live connection, joining every error rather than
// stopping at the first.
func (t *Transport) Close() error {
	var errs []error
	for _, conn := range t.Connections() {
		if err := conn.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.conns = make(map[string]*Connection)
	return errors.Join(errs...)
}
