package ledger

import "github.com/shopspring/decimal"

// Operation describes one balance-affecting entry to append. Amount is the
// non-negative magnitude; Debit and Credit decide the sign of the stored entry.
type Operation struct {
	AccountID     string
	SessionID     string
	TransactionID string
	ReferenceID   string
	Type          string // models.EntryType*
	Amount        decimal.Decimal
	PaymentSystem string
}

// MetricsCollector records ledger activity. A no-op implementation is used
// when no collector is wired.
type MetricsCollector interface {
	RecordTransaction(entryType string, amount decimal.Decimal)
	RecordError(operation, errType string)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordTransaction(string, decimal.Decimal) {}
func (NoopMetricsCollector) RecordError(string, string)               {}
