package pipeline

import "github.com/samvad-hq/catalog-crawler/internal/domain"

// Severity tells the pipeline how loudly a drop must be reported.
type Severity int

const (
	// SeverityInfo marks an expected outcome; it is logged but never notified.
	SeverityInfo Severity = iota
	// SeverityWarning marks a data-quality issue; operators get a warning.
	SeverityWarning
	// SeverityAlert marks an operational failure; operators get an alert.
	SeverityAlert
)

func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityAlert:
		return "alert"
	default:
		return "unknown"
	}
}

// Decision is the result of running one stage: either continue with the product or drop it.
type Decision struct {
	product  domain.Product
	dropped  bool
	reason   string
	stage    string
	severity Severity
	err      error
}

// Continue passes the product on to the next stage.
func Continue(p domain.Product) Decision {
	return Decision{product: p}
}

// Drop rejects the product because of a data-quality problem.
func Drop(reason string) Decision {
	return Decision{dropped: true, reason: reason, severity: SeverityWarning}
}

// DropQuietly rejects the product as an expected outcome that needs no operator attention.
func DropQuietly(reason string) Decision {
	return Decision{dropped: true, reason: reason, severity: SeverityInfo}
}

// DropOnError rejects the product because a collaborator failed while handling it.
func DropOnError(reason string, err error) Decision {
	return Decision{dropped: true, reason: reason, severity: SeverityAlert, err: err}
}

func (d Decision) Dropped() bool          { return d.dropped }
func (d Decision) Product() domain.Product { return d.product }
func (d Decision) Reason() string          { return d.reason }
func (d Decision) Stage() string           { return d.stage }
func (d Decision) Severity() Severity      { return d.severity }
func (d Decision) Err() error              { return d.err }

func (d Decision) at(stage string) Decision {
	d.stage = stage
	return d
}
