package control

import "time"

// RTCPReportInterval configures how often the transport's RTCP sender and
// receiver reports fire.
type RTCPReportInterval time.Duration

const (
	RTCPReportIntervalLowLatency  = RTCPReportInterval(1 * time.Second)
	RTCPReportIntervalDefault     = RTCPReportInterval(3 * time.Second)
	RTCPReportIntervalHighQuality = RTCPReportInterval(2 * time.Second)
	RTCPReportIntervalRelaxed     = RTCPReportInterval(10 * time.Second)
)

// ControlChannelLabel is the SCTP data channel label every Transport opens
// for control messages.
const ControlChannelLabel = "framemixer-control"
