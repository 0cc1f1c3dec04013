package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the issue module.
type Metrics struct {
	IssuesReported  prometheus.Counter
	IssuesDeleted   prometheus.Counter
	ReportsRejected prometheus.Counter
}

// New creates a new Metrics instance with all issue module metrics registered.
func New() *Metrics {
	return &Metrics{
		IssuesReported: promauto.NewCounter(prometheus.CounterOpts{
			Name: "stockroom_issues_reported_total",
			Help: "Total number of asset issues reported",
		}),
		IssuesDeleted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "stockroom_issues_deleted_total",
			Help: "Total number of asset issues deleted",
		}),
		ReportsRejected: promauto.NewCounter(prometheus.CounterOpts{
			Name: "stockroom_issue_reports_rejected_total",
			Help: "Issue reports rejected for insufficient available quantity",
		}),
	}
}

func (m *Metrics) IncrementIssuesReported() {
	m.IssuesReported.Inc()
}

func (m *Metrics) IncrementIssuesDeleted() {
	m.IssuesDeleted.Inc()
}

func (m *Metrics) IncrementReportsRejected() {
	m.ReportsRejected.Inc()
}
