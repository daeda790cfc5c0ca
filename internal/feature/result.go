package feature

import "time"

// Kind discriminates pipeline outcomes.
type Kind int

const (
	// KindReport carries a report to show the user.
	KindReport Kind = iota
	// KindNoData means nothing qualified for analysis; not a fault.
	KindNoData
	// KindDataError means a source or join violated its schema.
	KindDataError
	// KindFailure means the run failed; the cause is logged, not shown.
	KindFailure
)

func (k Kind) String() string {
	switch k {
	case KindReport:
		return "report"
	case KindNoData:
		return "no_data"
	case KindDataError:
		return "data_error"
	default:
		return "failure"
	}
}

const (
	// ReportHeader prefixes every successful report.
	ReportHeader = "✅ Analysis complete!"
	// ApologyText is shown for every failure regardless of its cause.
	ApologyText = "⚠️ Something went wrong while analysing the data. Check the source files and try again."
)

// Result is the outcome of one feature run. It never carries a Go error;
// Cause is a human-readable description for logs and the run journal.
type Result struct {
	Feature  ID
	RunID    string
	Kind     Kind
	Text     string
	Cause    string
	Records  int
	Duration time.Duration
}

// Message renders the result for the user.
func (r Result) Message() string {
	switch r.Kind {
	case KindReport:
		return ReportHeader + "\n\n" + r.Text
	case KindNoData:
		return r.Text
	case KindDataError:
		return "❌ Data problem: " + r.Text
	default:
		return ApologyText
	}
}
