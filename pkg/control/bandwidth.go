package control

import (
	"context"
	"sync"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/pion/interceptor/pkg/cc"
)

// UpdateBufferSizeCallback is invoked on every estimate tick with the
// link's current target bitrate, in bits per second. The sizer has
// already converted bandwidth into a callback, not a literal byte count,
// because the right buffer size also depends on the control channel's own
// message rate, which only the caller knows.
type UpdateBufferSizeCallback = func(bitsPerSecond int) error

// BandwidthSizer periodically reads a connection's GCC bandwidth estimate
// and reports it to a single callback, which the caller uses to size a
// connection's outbound control-message buffer rather than a video
// bitrate. It is
// a single-subscriber simplification of the teacher's priority-weighted
// multi-track distributor: a control channel has one consumer, not a set
// of tracks competing for a shared bitrate budget.
type BandwidthSizer struct {
	estimator cc.BandwidthEstimator
	callback  UpdateBufferSizeCallback
	interval  time.Duration
	logger    log.Logger

	once   sync.Once
	mu     sync.RWMutex
	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

// NewBandwidthSizer creates a sizer that polls every interval and reports
// to callback, once an estimator is attached via attach.
func NewBandwidthSizer(ctx context.Context, interval time.Duration, logger log.Logger, callback UpdateBufferSizeCallback) *BandwidthSizer {
	ctx2, cancel2 := context.WithCancel(ctx)
	return &BandwidthSizer{
		callback: callback,
		interval: interval,
		logger:   logger,
		ctx:      ctx2,
		cancel:   cancel2,
	}
}

func (s *BandwidthSizer) attach(estimator cc.BandwidthEstimator) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.estimator = estimator
}

func (s *BandwidthSizer) get() cc.BandwidthEstimator {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.estimator
}

// Start runs the polling loop in its own goroutine.
func (s *BandwidthSizer) Start() {
	s.wg.Add(1)
	go s.loop()
}

func (s *BandwidthSizer) loop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			estimator := s.get()
			if estimator == nil {
				continue
			}
			bitrate := estimator.GetTargetBitrate()
			go s.report(bitrate)
		}
	}
}

func (s *BandwidthSizer) report(bitrate int) {
	done := make(chan error, 1)
	go func() { done <- s.callback(bitrate) }()

	select {
	case err := <-done:
		if err != nil {
			_ = level.Warn(s.logger).Log("msg", "buffer size callback failed", "err", err)
		}
	case <-s.ctx.Done():
	}
}

// Close stops the polling loop and waits for it to exit.
func (s *BandwidthSizer) Close() {
	s.once.Do(func() {
		if s.cancel != nil {
			s.cancel()
		}
		s.wg.Wait()
	})
}
