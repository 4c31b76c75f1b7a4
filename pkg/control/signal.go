package control

import (
	"context"
	"fmt"

	"github.com/pion/sdp/v3"
)

// BaseSignal drives the SDP offer/answer exchange for one connection,
// however the two sides happen to swap SDP (a callback pair is the only
// case this module implements; a networked signalling channel is a
// different BaseSignal).
type BaseSignal interface {
	Connect(category string, conn *Connection) error
	Close() error
}

// OnOffer is given the local offer, e.g. to deliver it to the remote
// peer over whatever channel the caller already has open to it.
type OnOffer = func(ctx context.Context, offer string) error

// ForAnswer blocks until the remote side's answer is available.
type ForAnswer = func(ctx context.Context) (answer string, err error)

// ForOffer blocks until the remote side's offer is available.
type ForOffer = func(ctx context.Context) (offer string, err error)

// OnAnswer is given the local answer, once set, e.g. to deliver it back
// to the remote peer over whatever channel the caller already has open.
type OnAnswer = func(ctx context.Context, answer string) error

// validateSDP parses raw as an SDP session description, rejecting a
// malformed exchange before it ever reaches SetRemoteDescription.
func validateSDP(raw string) error {
	var desc sdp.SessionDescription
	if err := desc.Unmarshal([]byte(raw)); err != nil {
		return fmt.Errorf("control: invalid SDP: %w", err)
	}
	return nil
}
