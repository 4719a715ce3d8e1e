package install

// Status is an advisory installation state reported to the host while a
// resolution is in flight. Reports are fire-and-forget; the host may show
// them in its language-server status UI or drop them.
type Status int

const (
	// StatusNone is the zero value; it is never reported.
	StatusNone Status = iota
	// StatusCheckingForUpdate is reported before the release feed lookup.
	StatusCheckingForUpdate
	// StatusDownloading is reported before the asset transfer begins.
	StatusDownloading
)

// String returns a human-readable status name.
func (s Status) String() string {
	switch s {
	case StatusNone:
		return "none"
	case StatusCheckingForUpdate:
		return "checking for update"
	case StatusDownloading:
		return "downloading"
	default:
		return "unknown"
	}
}

// StatusReporter receives advisory installation status events, tagged
// with the language-server identifier they concern.
type StatusReporter interface {
	ReportStatus(serverID string, status Status)
}

// StatusFunc adapts a function to the StatusReporter interface.
type StatusFunc func(serverID string, status Status)

// ReportStatus implements StatusReporter.
func (f StatusFunc) ReportStatus(serverID string, status Status) {
	f(serverID, status)
}

// NopReporter discards all status events.
var NopReporter StatusReporter = StatusFunc(func(string, Status) {})
