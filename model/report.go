package model

import (
	"time"

	"github.com/shopspring/decimal"
)

const DateLayout = "2006-01-02"

// DateRange is a closed range of calendar days in UTC.
type DateRange struct {
	Start time.Time `json:"start_date"`
	End   time.Time `json:"end_date"`
}

// Until returns the exclusive upper instant of the range, midnight after End.
func (r DateRange) Until() time.Time {
	return r.End.AddDate(0, 0, 1)
}

func (r DateRange) Contains(t time.Time) bool {
	t = t.UTC()
	return !t.Before(r.Start) && t.Before(r.Until())
}

// ReportSummary is the aggregate shown above a transaction report. Without a
// range Balance is the account balance. With a range it is the sum of every
// ledger amount in the range over all accounts, and LedgerWide is set.
type ReportSummary struct {
	AccountNo  int64           `json:"account_no"`
	Balance    decimal.Decimal `json:"balance"`
	Range      *DateRange      `json:"range,omitempty"`
	LedgerWide bool            `json:"ledger_wide"`
}
