package control

import (
	"context"
	"errors"
	"fmt"

	"github.com/pion/webrtc/v4"
)

// GenericAnswerSignal drives the answering side of an SDP exchange
// through a pair of caller-supplied callbacks, symmetric with
// GenericOfferSignal.
type GenericAnswerSignal struct {
	ctx context.Context

	forOffer ForOffer
	onAnswer OnAnswer
}

// NewGenericAnswerSignal creates an answer-side signal. forOffer blocks
// until the remote peer's offer is available; onAnswer delivers the
// local answer back to it.
func NewGenericAnswerSignal(ctx context.Context, onAnswer OnAnswer, forOffer ForOffer) *GenericAnswerSignal {
	return &GenericAnswerSignal{ctx: ctx, forOffer: forOffer, onAnswer: onAnswer}
}

func (s *GenericAnswerSignal) Connect(_ string, conn *Connection) error {
	if s.onAnswer == nil || s.forOffer == nil {
		return errors.New("control: generic answer signal requires both forOffer and onAnswer")
	}

	offerSDP, err := s.forOffer(s.ctx)
	if err != nil {
		return err
	}

	if err := s.Offer(conn, offerSDP); err != nil {
		return err
	}

	answerSDP, err := s.Answer(conn)
	if err != nil {
		return err
	}

	return s.onAnswer(s.ctx, answerSDP)
}

// Offer applies the remote peer's offer SDP.
func (s *GenericAnswerSignal) Offer(conn *Connection, sdp string) error {
	if err := validateSDP(sdp); err != nil {
		return err
	}

	pc := conn.PeerConnection()
	if err := pc.SetRemoteDescription(webrtc.SessionDescription{Type: webrtc.SDPTypeOffer, SDP: sdp}); err != nil {
		return fmt.Errorf("control: setting remote description (id=%s): %w", conn.ID(), err)
	}
	return nil
}

// Answer creates and sets the local answer, waits for ICE gathering to
// finish, and returns the resulting SDP.
func (s *GenericAnswerSignal) Answer(conn *Connection) (string, error) {
	pc := conn.PeerConnection()

	answer, err := pc.CreateAnswer(nil)
	if err != nil {
		return "", fmt.Errorf("control: creating answer: %w", err)
	}
	if err := pc.SetLocalDescription(answer); err != nil {
		return "", fmt.Errorf("control: setting local description: %w", err)
	}

	select {
	case <-s.ctx.Done():
		return "", fmt.Errorf("control: ICE gathering did not complete: %w", s.ctx.Err())
	case <-webrtc.GatheringCompletePromise(pc):
	}

	return pc.LocalDescription().SDP, nil
}

func (s *GenericAnswerSignal) Close() error {
	return nil
}
