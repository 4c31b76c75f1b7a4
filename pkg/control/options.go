package control

import (
	"time"

	"github.com/pion/interceptor/pkg/cc"
	"github.com/pion/interceptor/pkg/gcc"
	"github.com/pion/interceptor/pkg/report"
	"github.com/pion/webrtc/v4"
)

// Option configures a Transport at construction time, the same
// functional-options shape the mixer and demux packages use.
type Option = func(*Transport) error

// WithDefaultInterceptorRegistry registers pion's default interceptor set
// (RTCP, twcc, nack) against the transport's media engine.
func WithDefaultInterceptorRegistry() Option {
	return func(t *Transport) error {
		return webrtc.RegisterDefaultInterceptors(t.mediaEngine, t.interceptorRegistry)
	}
}

// WithRTCPReportsInterceptor adds periodic RTCP sender/receiver reports,
// the signal a BandwidthSizer's estimator consumes.
func WithRTCPReportsInterceptor(interval RTCPReportInterval) Option {
	return func(t *Transport) error {
		receiver, err := report.NewReceiverInterceptor(report.ReceiverInterval(time.Duration(interval)))
		if err != nil {
			return err
		}
		sender, err := report.NewSenderInterceptor(report.SenderInterval(time.Duration(interval)))
		if err != nil {
			return err
		}
		t.interceptorRegistry.Add(receiver)
		t.interceptorRegistry.Add(sender)
		return nil
	}
}

// WithBandwidthEstimation wires Google Congestion Control into the
// transport's interceptor registry and routes every connection's
// estimator to sizer, which uses it to size the control channel's send
// buffer rather than a video bitrate.
func WithBandwidthEstimation(sizer *BandwidthSizer, initial, minimum, maximum int) Option {
	return func(t *Transport) error {
		controller, err := cc.NewInterceptor(func() (cc.BandwidthEstimator, error) {
			return gcc.NewSendSideBWE(
				gcc.SendSideBWEInitialBitrate(initial),
				gcc.SendSideBWEMinBitrate(minimum),
				gcc.SendSideBWEMaxBitrate(maximum),
			)
		})
		if err != nil {
			return err
		}

		controller.OnNewPeerConnection(func(id string, estimator cc.BandwidthEstimator) {
			sizer.attach(estimator)
		})

		t.interceptorRegistry.Add(controller)
		return nil
	}
}
