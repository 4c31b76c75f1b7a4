//go:build cgo_enabled

// Package demux implements the input demux pump: it owns a container's
// format context, opens the first video and first audio stream it finds,
// and runs a single worker that reads packets into per-stream bounded
// queues, seeking back to the start on end-of-stream when looping.
package demux

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/asticode/go-astiav"
	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"golang.org/x/sync/errgroup"

	"github.com/harshabose/framemixer/pkg/executor"
	"github.com/harshabose/framemixer/pkg/metrics"
	"github.com/harshabose/framemixer/pkg/packet"
	"github.com/harshabose/framemixer/pkg/queue"
)

// Error kinds. FileReadError and NoUsableStream are fatal at construction;
// the others are recoverable and only ever logged.
var (
	ErrFileReadError  = errors.New("demux: container open or stream-info read failed")
	ErrNoUsableStream = errors.New("demux: neither a video nor an audio stream could be opened")
)

// Pump is the input demux pump (see the package doc). It is safe to call
// its accessor methods from any goroutine; GetVideoPacket/GetAudioPacket
// are also safe to call concurrently with each other and with the worker.
type Pump struct {
	path    string
	looping bool
	logger  log.Logger

	formatContext *astiav.FormatContext
	scratch       *astiav.Packet

	videoStream *astiav.Stream
	audioStream *astiav.Stream
	videoCtx    *astiav.CodecContext
	audioCtx    *astiav.CodecContext
	videoDesc   packet.Descriptor
	audioDesc   packet.Descriptor

	videoQueue *queue.Bounded[packet.Packet]
	audioQueue *queue.Bounded[packet.Packet]

	cond *backpressureCond

	running atomic.Bool
	exec    *executor.Executor

	ctx    context.Context
	cancel context.CancelFunc
	once   sync.Once
}

// Option configures a Pump at construction time.
type Option func(*Pump) error

// WithLooping enables or disables seek-to-start on end-of-stream.
func WithLooping(looping bool) Option {
	return func(p *Pump) error {
		p.looping = looping
		return nil
	}
}

// WithLogger overrides the pump's logger. The default is a no-op logger.
func WithLogger(logger log.Logger) Option {
	return func(p *Pump) error {
		p.logger = logger
		return nil
	}
}

// WithQueueCapacity overrides the soft capacity of both packet queues. The
// default is queue.DefaultCapacity.
func WithQueueCapacity(capacity int) Option {
	return func(p *Pump) error {
		p.videoQueue = queue.New[packet.Packet](capacity)
		p.audioQueue = queue.New[packet.Packet](capacity)
		return nil
	}
}

// Open opens path as a media container, locates its first video and first
// audio stream, and opens a decoder context for each one found. At least
// one of the two must open successfully, or Open returns
// ErrNoUsableStream.
func Open(ctx context.Context, path string, options ...Option) (*Pump, error) {
	ctx2, cancel := context.WithCancel(ctx)

	p := &Pump{
		path:          path,
		logger:        log.NewNopLogger(),
		formatContext: astiav.AllocFormatContext(),
		videoQueue:    queue.New[packet.Packet](queue.DefaultCapacity),
		audioQueue:    queue.New[packet.Packet](queue.DefaultCapacity),
		cond:          newBackpressureCond(),
		ctx:           ctx2,
		cancel:        cancel,
	}

	if p.formatContext == nil {
		cancel()
		return nil, fmt.Errorf("%w: allocate format context", ErrFileReadError)
	}

	for _, option := range options {
		if err := option(p); err != nil {
			cancel()
			return nil, err
		}
	}

	if err := p.formatContext.OpenInput(path, nil, nil); err != nil {
		cancel()
		return nil, fmt.Errorf("%w: %v", ErrFileReadError, err)
	}

	if err := p.formatContext.FindStreamInfo(nil); err != nil {
		cancel()
		p.formatContext.CloseInput()
		p.formatContext.Free()
		return nil, fmt.Errorf("%w: %v", ErrFileReadError, err)
	}

	for _, stream := range p.formatContext.Streams() {
		mediaType := stream.CodecParameters().MediaType()
		if mediaType == astiav.MediaTypeVideo && p.videoStream == nil {
			p.videoStream = stream
		}
		if mediaType == astiav.MediaTypeAudio && p.audioStream == nil {
			p.audioStream = stream
		}
	}

	// Video and audio codecs open independently of each other (warn-and-
	// continue on either failing, per the original's partial-failure
	// behaviour); an errgroup lets the two opens run concurrently instead
	// of paying their cgo open-codec cost serially.
	var eg errgroup.Group
	if p.videoStream != nil {
		stream := p.videoStream
		eg.Go(func() error {
			ctx, desc, err := openCodec(stream)
			if err != nil {
				level.Warn(p.logger).Log("event", "CodecOpen", "kind", "video", "err", err)
				p.videoStream = nil
				return nil
			}
			p.videoCtx, p.videoDesc = ctx, desc
			return nil
		})
	}
	if p.audioStream != nil {
		stream := p.audioStream
		eg.Go(func() error {
			ctx, desc, err := openCodec(stream)
			if err != nil {
				level.Warn(p.logger).Log("event", "CodecOpen", "kind", "audio", "err", err)
				p.audioStream = nil
				return nil
			}
			p.audioCtx, p.audioDesc = ctx, desc
			return nil
		})
	}
	_ = eg.Wait()

	if p.videoStream == nil && p.audioStream == nil {
		cancel()
		p.formatContext.CloseInput()
		p.formatContext.Free()
		return nil, ErrNoUsableStream
	}

	p.scratch = astiav.AllocPacket()
	p.exec = executor.New(ctx2, 1)

	return p, nil
}

func openCodec(stream *astiav.Stream) (*astiav.CodecContext, packet.Descriptor, error) {
	params := stream.CodecParameters()
	codec := astiav.FindDecoder(params.CodecID())
	if codec == nil {
		return nil, packet.Descriptor{}, fmt.Errorf("no decoder for codec id %v", params.CodecID())
	}

	codecCtx := astiav.AllocCodecContext(codec)
	if codecCtx == nil {
		return nil, packet.Descriptor{}, errors.New("allocate codec context failed")
	}

	if err := params.ToCodecContext(codecCtx); err != nil {
		codecCtx.Free()
		return nil, packet.Descriptor{}, err
	}

	if err := codecCtx.Open(codec, nil); err != nil {
		codecCtx.Free()
		return nil, packet.Descriptor{}, err
	}

	tb := stream.TimeBase()
	desc := packet.Descriptor{
		StreamIndex: stream.Index(),
		Kind:        kindOf(params.MediaType()),
		TimeBase:    packet.Rational{Num: tb.Num(), Den: tb.Den()},
	}
	desc.Repair()

	return codecCtx, desc, nil
}

func kindOf(mediaType astiav.MediaType) packet.Kind {
	switch mediaType {
	case astiav.MediaTypeVideo:
		return packet.KindVideo
	case astiav.MediaTypeAudio:
		return packet.KindAudio
	default:
		return packet.KindUnknown
	}
}

// Start launches the pump's single worker. Safe to call once per Pump.
func (p *Pump) Start() {
	p.running.Store(true)
	p.exec.Start()
	if _, err := p.exec.BeginInvoke(p.run); err != nil {
		p.running.Store(false)
	}
}

// run is the pump's sole long-lived task: it loops the read/route/seek
// algorithm until its context is cancelled, yielding to the scheduler and
// waiting on backpressure exactly as each iteration requires.
func (p *Pump) run() error {
	for {
		if p.ctx.Err() != nil {
			p.running.Store(false)
			return p.ctx.Err()
		}

		if err := p.formatContext.ReadFrame(p.scratch); err != nil {
			if !p.handleReadFailure() {
				p.running.Store(false)
				return nil
			}
			continue
		}
		p.route(p.scratch)
		p.scratch.Unref()

		runtime.Gosched()

		metrics.SetInputBuffer(ratio(p.videoQueue))

		for p.running.Load() && p.videoQueue.OverCapacity() && p.audioQueue.OverCapacity() {
			p.cond.Wait(p.ctx)
			if p.ctx.Err() != nil {
				break
			}
		}
	}
}

func ratio(q *queue.Bounded[packet.Packet]) float64 {
	if q.Capacity() == 0 {
		return 0
	}
	return float64(q.Size()) / float64(q.Capacity())
}

func (p *Pump) route(src *astiav.Packet) {
	var desc *packet.Descriptor
	var q *queue.Bounded[packet.Packet]

	switch src.StreamIndex() {
	case boundIndex(p.videoStream):
		desc, q = &p.videoDesc, p.videoQueue
	case boundIndex(p.audioStream):
		desc, q = &p.audioDesc, p.audioQueue
	default:
		return
	}

	payload := append([]byte(nil), src.Data()...)
	q.TryPush(packet.Packet{StreamIndex: desc.StreamIndex, Payload: payload})
}

func boundIndex(stream *astiav.Stream) int {
	if stream == nil {
		return -1
	}
	return stream.Index()
}

// handleReadFailure implements step 2 of the pump loop: on read failure it
// seeks back to the start when looping, or stops the pump.
func (p *Pump) handleReadFailure() bool {
	if !p.looping {
		return false
	}

	stream := greaterIndexStream(p.videoStream, p.audioStream)
	if stream == nil {
		return false
	}

	if err := p.formatContext.SeekFrame(stream.Index(), 0, astiav.SeekFlagBackward); err != nil {
		level.Warn(p.logger).Log("event", "SeekFailed", "err", err)
		return false
	}

	level.Info(p.logger).Log("event", "seek", "stream", stream.Index())
	metrics.IncSeek()
	return true
}

// greaterIndexStream returns whichever of video and audio has the larger
// stream index, matching the original's std::max(video_s_index_,
// audio_s_index_) regardless of which kind that turns out to be; if only
// one is non-nil it is returned, and if both are nil so is the result.
func greaterIndexStream(video, audio *astiav.Stream) *astiav.Stream {
	switch {
	case video == nil:
		return audio
	case audio == nil:
		return video
	case video.Index() >= audio.Index():
		return video
	default:
		return audio
	}
}

// GetVideoCodecContext returns the opened video decoder context, or nil if
// no video stream was usable.
func (p *Pump) GetVideoCodecContext() *astiav.CodecContext { return p.videoCtx }

// GetAudioCodecContext returns the opened audio decoder context, or nil if
// no audio stream was usable.
func (p *Pump) GetAudioCodecContext() *astiav.CodecContext { return p.audioCtx }

// IsEOF reports whether the pump has stopped running and both queues have
// been drained.
func (p *Pump) IsEOF() bool {
	return !p.running.Load() && p.videoQueue.Empty() && p.audioQueue.Empty()
}

// FPS returns the video stream's frame rate as a real number, or 0 if no
// video stream is usable.
func (p *Pump) FPS() float64 {
	if p.videoStream == nil || p.videoDesc.TimeBase.Num == 0 {
		return 0
	}
	return float64(p.videoDesc.TimeBase.Den) / float64(p.videoDesc.TimeBase.Num)
}

// GetVideoPacket pops the oldest queued video packet, if any, and wakes
// the pump's backpressure wait.
func (p *Pump) GetVideoPacket() packet.Packet {
	return p.popAndNotify(p.videoQueue)
}

// GetAudioPacket pops the oldest queued audio packet, if any, and wakes
// the pump's backpressure wait.
func (p *Pump) GetAudioPacket() packet.Packet {
	return p.popAndNotify(p.audioQueue)
}

func (p *Pump) popAndNotify(q *queue.Bounded[packet.Packet]) packet.Packet {
	pkt, _ := q.TryPop()
	p.cond.Broadcast()
	return pkt
}

// Close stops the worker, releases the format context, its codec contexts
// and the scratch packet, in reverse construction order, and wakes any
// goroutine still waiting on the backpressure condition.
func (p *Pump) Close() {
	p.once.Do(func() {
		p.running.Store(false)
		p.cancel()
		p.cond.Broadcast()
		p.exec.Stop()

		if p.videoCtx != nil {
			p.videoCtx.Free()
		}
		if p.audioCtx != nil {
			p.audioCtx.Free()
		}
		if p.scratch != nil {
			p.scratch.Free()
		}
		if p.formatContext != nil {
			p.formatContext.CloseInput()
			p.formatContext.Free()
		}
	})
}
