package control

import (
	"context"
	"errors"
	"fmt"

	"github.com/pion/webrtc/v4"
)

// GenericOfferSignal drives the offering side of an SDP exchange through
// a pair of caller-supplied callbacks rather than a specific signalling
// transport, so the same type works whether the offer travels over a
// websocket, a REST call, or a file the two ends share out of band.
type GenericOfferSignal struct {
	ctx context.Context

	onOffer   OnOffer
	forAnswer ForAnswer
}

// NewGenericOfferSignal creates an offer-side signal. onOffer delivers
// the local offer to the remote peer; forAnswer blocks until that peer's
// answer is available.
func NewGenericOfferSignal(ctx context.Context, onOffer OnOffer, forAnswer ForAnswer) *GenericOfferSignal {
	return &GenericOfferSignal{ctx: ctx, onOffer: onOffer, forAnswer: forAnswer}
}

func (s *GenericOfferSignal) Connect(_ string, conn *Connection) error {
	if s.onOffer == nil || s.forAnswer == nil {
		return errors.New("control: generic offer signal requires both onOffer and forAnswer")
	}

	offer, err := s.Offer(conn)
	if err != nil {
		return err
	}

	if err := s.onOffer(s.ctx, offer); err != nil {
		return err
	}

	answer, err := s.forAnswer(s.ctx)
	if err != nil {
		return err
	}

	return s.Answer(conn, answer)
}

// Offer creates the local offer, sets it, waits for ICE gathering to
// finish, and returns the resulting SDP.
func (s *GenericOfferSignal) Offer(conn *Connection) (string, error) {
	pc := conn.PeerConnection()

	offer, err := pc.CreateOffer(nil)
	if err != nil {
		return "", fmt.Errorf("control: creating offer: %w", err)
	}
	if err := pc.SetLocalDescription(offer); err != nil {
		return "", fmt.Errorf("control: setting local description: %w", err)
	}

	select {
	case <-s.ctx.Done():
		return "", fmt.Errorf("control: ICE gathering did not complete: %w", s.ctx.Err())
	case <-webrtc.GatheringCompletePromise(pc):
	}

	return pc.LocalDescription().SDP, nil
}

// Answer applies the remote peer's answer SDP.
func (s *GenericOfferSignal) Answer(conn *Connection, sdp string) error {
	if err := validateSDP(sdp); err != nil {
		return err
	}

	pc := conn.PeerConnection()
	if err := pc.SetRemoteDescription(webrtc.SessionDescription{Type: webrtc.SDPTypeAnswer, SDP: sdp}); err != nil {
		return fmt.Errorf("control: setting remote description (id=%s): %w", conn.ID(), err)
	}
	return nil
}

func (s *GenericOfferSignal) Close() error {
	return nil
}
