package control

import (
	"encoding/json"
	"fmt"

	"github.com/harshabose/framemixer/pkg/mixer"
	"github.com/harshabose/framemixer/pkg/transform"
)

// Op names one of the mixer's control-surface operations.
type Op string

const (
	OpSetImage        Op = "set_image"
	OpSetImageLayer   Op = "set_image_layer"
	OpSetAudio        Op = "set_audio"
	OpSetAudioLayer   Op = "set_audio_layer"
	OpApplyImage      Op = "apply_image"
	OpApplyImageLayer Op = "apply_image_layer"
	OpApplyAudio      Op = "apply_audio"
	OpApplyAudioLayer Op = "apply_audio_layer"
	OpResetImage      Op = "reset_image"
	OpResetAudio      Op = "reset_audio"
)

// Message is the wire format carried over a control channel: one
// set/apply/reset call against the mixer's image or audio registry.
// Apply operations cannot carry a function across the wire, so Image/
// Audio is read as a multiplicative delta composed onto the current
// value (current.Mul(delta)) rather than a replacement.
type Message struct {
	Op            Op               `json:"op"`
	Layer         int              `json:"layer,omitempty"`
	Image         *transform.Image `json:"image,omitempty"`
	Audio         *transform.Audio `json:"audio,omitempty"`
	DurationTicks int              `json:"duration_ticks"`
	Easing        string           `json:"easing"`
}

// MessageHandler is invoked once per decoded control message.
type MessageHandler func(Message) error

// Dispatch applies msg to m, routing by Op to the matching control-surface
// method.
func Dispatch(m *mixer.Mixer, msg Message) error {
	switch msg.Op {
	case OpSetImage:
		if msg.Image == nil {
			return fmt.Errorf("control: %s requires image", msg.Op)
		}
		return m.SetImageTransform(*msg.Image, msg.DurationTicks, msg.Easing)
	case OpSetImageLayer:
		if msg.Image == nil {
			return fmt.Errorf("control: %s requires image", msg.Op)
		}
		return m.SetImageTransformLayer(msg.Layer, *msg.Image, msg.DurationTicks, msg.Easing)
	case OpSetAudio:
		if msg.Audio == nil {
			return fmt.Errorf("control: %s requires audio", msg.Op)
		}
		return m.SetAudioTransform(*msg.Audio, msg.DurationTicks, msg.Easing)
	case OpSetAudioLayer:
		if msg.Audio == nil {
			return fmt.Errorf("control: %s requires audio", msg.Op)
		}
		return m.SetAudioTransformLayer(msg.Layer, *msg.Audio, msg.DurationTicks, msg.Easing)
	case OpApplyImage:
		if msg.Image == nil {
			return fmt.Errorf("control: %s requires image", msg.Op)
		}
		delta := *msg.Image
		return m.ApplyImageTransform(func(cur transform.Image) transform.Image { return cur.Mul(delta) }, msg.DurationTicks, msg.Easing)
	case OpApplyImageLayer:
		if msg.Image == nil {
			return fmt.Errorf("control: %s requires image", msg.Op)
		}
		delta := *msg.Image
		return m.ApplyImageTransformLayer(msg.Layer, func(cur transform.Image) transform.Image { return cur.Mul(delta) }, msg.DurationTicks, msg.Easing)
	case OpApplyAudio:
		if msg.Audio == nil {
			return fmt.Errorf("control: %s requires audio", msg.Op)
		}
		delta := *msg.Audio
		return m.ApplyAudioTransform(func(cur transform.Audio) transform.Audio { return cur.Mul(delta) }, msg.DurationTicks, msg.Easing)
	case OpApplyAudioLayer:
		if msg.Audio == nil {
			return fmt.Errorf("control: %s requires audio", msg.Op)
		}
		delta := *msg.Audio
		return m.ApplyAudioTransformLayer(msg.Layer, func(cur transform.Audio) transform.Audio { return cur.Mul(delta) }, msg.DurationTicks, msg.Easing)
	case OpResetImage:
		return m.ResetImageTransform(msg.DurationTicks, msg.Easing)
	case OpResetAudio:
		return m.ResetAudioTransform(msg.DurationTicks, msg.Easing)
	default:
		return fmt.Errorf("control: unknown op %q", msg.Op)
	}
}

// Encode marshals msg for sending over a control channel.
func Encode(msg Message) ([]byte, error) {
	return json.Marshal(msg)
}

// Decode unmarshals one message off a control channel.
func Decode(data []byte) (Message, error) {
	var msg Message
	err := json.Unmarshal(data, &msg)
	return msg, err
}
