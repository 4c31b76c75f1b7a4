package control

import (
	"context"
	"errors"
	"sync"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/pion/webrtc/v4"
)

// ErrChannelNotReady is returned by Send while the control channel is not
// open yet: it is created with the connection but only opens once the SDP
// exchange has completed and the remote side has connected.
var ErrChannelNotReady = errors.New("control: channel not ready")

// Connection is one remote control-surface peer: a PeerConnection plus
// the one control data channel it carries.
type Connection struct {
	id   string
	pc   *webrtc.PeerConnection
	ctx  context.Context
	once sync.Once

	mu      sync.RWMutex
	channel *ControlChannel

	bandwidth *BandwidthSizer
	signal    BaseSignal
	logger    log.Logger
}

func newConnection(ctx context.Context, id string, api *webrtc.API, config webrtc.Configuration, logger log.Logger, dispatch MessageHandler) (*Connection, error) {
	pc, err := api.NewPeerConnection(config)
	if err != nil {
		return nil, err
	}

	conn := &Connection{id: id, pc: pc, ctx: ctx, logger: logger}

	channel, err := createControlChannel(ctx, pc, logger, dispatch)
	if err != nil {
		_ = pc.Close()
		return nil, err
	}
	conn.channel = channel

	pc.OnDataChannel(func(dc *webrtc.DataChannel) {
		if dc.Label() != ControlChannelLabel {
			return
		}
		conn.mu.Lock()
		conn.channel = wrapControlChannel(ctx, dc, logger, dispatch)
		conn.mu.Unlock()
	})

	conn.onConnectionStateChange()
	conn.onICEConnectionStateChange()
	conn.onICECandidate()

	return conn, nil
}

// ID returns the application-chosen connection id.
func (c *Connection) ID() string {
	return c.id
}

// PeerConnection exposes the underlying pion connection for the signal
// exchange to drive.
func (c *Connection) PeerConnection() *webrtc.PeerConnection {
	return c.pc
}

// AttachBandwidthSizer ties sizer's lifetime to this connection: Close
// also closes the sizer. The connection does not read the sizer's
// estimates itself; they reach only the callback the sizer was created
// with.
func (c *Connection) AttachBandwidthSizer(sizer *BandwidthSizer) {
	c.bandwidth = sizer
}

// Send writes msg to the control channel, failing with ErrChannelNotReady
// if the channel is not open yet.
func (c *Connection) Send(msg Message) error {
	c.mu.RLock()
	channel := c.channel
	c.mu.RUnlock()

	if channel == nil || channel.datachannel.ReadyState() != webrtc.DataChannelStateOpen {
		return ErrChannelNotReady
	}
	return channel.Send(msg)
}

func (c *Connection) onConnectionStateChange() {
	c.pc.OnConnectionStateChange(func(state webrtc.PeerConnectionState) {
		_ = level.Info(c.logger).Log("msg", "connection state changed", "id", c.id, "state", state.String())

		if state == webrtc.PeerConnectionStateDisconnected || state == webrtc.PeerConnectionStateFailed {
			if err := c.Close(); err != nil {
				_ = level.Warn(c.logger).Log("msg", "error closing connection", "id", c.id, "err", err)
			}
		}
	})
}

func (c *Connection) onICEConnectionStateChange() {
	c.pc.OnICEConnectionStateChange(func(state webrtc.ICEConnectionState) {
		_ = level.Debug(c.logger).Log("msg", "ICE connection state changed", "id", c.id, "state", state.String())
	})
}

func (c *Connection) onICECandidate() {
	c.pc.OnICECandidate(func(candidate *webrtc.ICECandidate) {
		if candidate == nil {
			_ = level.Debug(c.logger).Log("msg", "ICE gathering complete", "id", c.id)
			return
		}
		_ = level.Debug(c.logger).Log("msg", "found ICE candidate", "id", c.id, "type", candidate.Typ.String())
	})
}

// Close tears the connection down exactly once, closing the peer
// connection and the attached bandwidth sizer, if any. Only the peer
// connection's close error is returned; later calls return nil.
func (c *Connection) Close() error {
	var errs []error
	c.once.Do(func() {
		if err := c.pc.Close(); err != nil {
			errs = append(errs, err)
		}
		if c.bandwidth != nil {
			c.bandwidth.Close()
		}
	})
	return errors.Join(errs...)
}
