package control

import (
	"context"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/pion/webrtc/v4"
)

// ControlChannel wraps the single SCTP data channel a Connection carries,
// decoding every inbound message and routing it to dispatch.
type ControlChannel struct {
	label       string
	datachannel *webrtc.DataChannel
	dispatch    MessageHandler
	logger      log.Logger
	ctx         context.Context
}

// createControlChannel opens ControlChannelLabel as the offering side of
// pc.
func createControlChannel(ctx context.Context, pc *webrtc.PeerConnection, logger log.Logger, dispatch MessageHandler) (*ControlChannel, error) {
	dc, err := pc.CreateDataChannel(ControlChannelLabel, nil)
	if err != nil {
		return nil, err
	}
	return wrapControlChannel(ctx, dc, logger, dispatch), nil
}

// wrapControlChannel adapts an already-created *webrtc.DataChannel,
// whichever side opened it, into a ControlChannel.
func wrapControlChannel(ctx context.Context, dc *webrtc.DataChannel, logger log.Logger, dispatch MessageHandler) *ControlChannel {
	c := &ControlChannel{label: dc.Label(), datachannel: dc, dispatch: dispatch, logger: logger, ctx: ctx}

	dc.OnOpen(func() {
		_ = level.Info(c.logger).Log("msg", "control channel open", "label", c.label)
	})
	dc.OnClose(func() {
		_ = level.Info(c.logger).Log("msg", "control channel closed", "label", c.label)
	})
	dc.OnMessage(c.onMessage)

	return c
}

func (c *ControlChannel) onMessage(msg webrtc.DataChannelMessage) {
	decoded, err := Decode(msg.Data)
	if err != nil {
		_ = level.Warn(c.logger).Log("msg", "dropping malformed control message", "err", err)
		return
	}
	if err := c.dispatch(decoded); err != nil {
		_ = level.Warn(c.logger).Log("msg", "control message dispatch failed", "op", decoded.Op, "err", err)
	}
}

// Send marshals msg and writes it to the channel.
func (c *ControlChannel) Send(msg Message) error {
	data, err := Encode(msg)
	if err != nil {
		return err
	}
	return c.datachannel.SendText(string(data))
}

// Label returns the channel's SCTP label.
func (c *ControlChannel) Label() string {
	return c.label
}

// Close closes the underlying data channel.
func (c *ControlChannel) Close() error {
	return c.datachannel.Close()
}
