package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	LoansBorrowed  prometheus.Counter
	LoansReturned  prometheus.Counter
	BorrowRejected *prometheus.CounterVec
	FinesAssessed  prometheus.Counter
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		LoansBorrowed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "novabook_loans_borrowed_total",
			Help: "Total number of successful borrow operations",
		}),
		LoansReturned: promauto.NewCounter(prometheus.CounterOpts{
			Name: "novabook_loans_returned_total",
			Help: "Total number of successful return operations",
		}),
		BorrowRejected: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "novabook_borrow_rejected_total",
			Help: "Borrow attempts rejected by a workflow check, by reason",
		}, []string{"reason"}),
		FinesAssessed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "novabook_fines_assessed_total",
			Help: "Total fine amount computed on late returns",
		}),
	}
}

// IncrementBorrowed records one successful borrow.
func (m *Metrics) IncrementBorrowed() { m.LoansBorrowed.Inc() }

// IncrementReturned records one successful return.
func (m *Metrics) IncrementReturned() { m.LoansReturned.Inc() }

// IncrementBorrowRejected records a rejected borrow attempt by reason.
func (m *Metrics) IncrementBorrowRejected(reason string) {
	m.BorrowRejected.WithLabelValues(reason).Inc()
}

// AddFineAssessed accumulates the fine computed on a late return.
func (m *Metrics) AddFineAssessed(amount int64) {
	if amount > 0 {
		m.FinesAssessed.Add(float64(amount))
	}
}
