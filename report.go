/*
Copyright 2024 Bookbank Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package bookbank

import (
	"context"
	"iter"
	"time"

	"github.com/bookbank/bookbank/database"
	"github.com/bookbank/bookbank/model"
	"go.opentelemetry.io/otel/attribute"
)

// ParseDateRange reads the report filter. The filter applies only when both
// dates are given; either one missing means no filter.
func ParseDateRange(startDate, endDate string) (*model.DateRange, error) {
	if startDate == "" || endDate == "" {
		return nil, nil
	}

	start, err := time.ParseInLocation(model.DateLayout, startDate, time.UTC)
	if err != nil {
		return nil, newValidationError("start_date", "Enter a valid date.")
	}
	end, err := time.ParseInLocation(model.DateLayout, endDate, time.UTC)
	if err != nil {
		return nil, newValidationError("end_date", "Enter a valid date.")
	}
	// A reversed range is rejected rather than treated as an empty report.
	if end.Before(start) {
		return nil, newValidationError("end_date", "End date can not be before start date.")
	}
	return &model.DateRange{Start: start, End: end}, nil
}

// Report is a transaction report of one account. Entries can be iterated any
// number of times; each pass reads the ledger again in pages.
type Report struct {
	Summary model.ReportSummary

	datasource database.IDataSource
	accountID  int64
	batchSize  int
}

// Report builds the caller's report, optionally limited to dateRange.
func (b *Bookbank) Report(ctx context.Context, caller model.Caller, dateRange *model.DateRange) (*Report, error) {
	ctx, span := tracer.Start(ctx, "Report")
	defer span.End()
	const op = "transaction report"

	account, err := b.datasource.GetAccountByUserID(ctx, caller.UserID)
	if err != nil {
		return nil, notFoundAs(op, err, ErrAccountNotFound)
	}

	summary := model.ReportSummary{AccountNo: account.AccountNo, Balance: account.Balance, Range: dateRange}
	if dateRange != nil {
		span.SetAttributes(
			attribute.String("report.start_date", dateRange.Start.Format(model.DateLayout)),
			attribute.String("report.end_date", dateRange.End.Format(model.DateLayout)),
		)
		total, err := b.datasource.SumTransactionAmounts(ctx, *dateRange)
		if err != nil {
			return nil, logAndRecordError(span, "failed to sum ledger", operationFailed(op, err))
		}
		summary.Balance = total
		summary.LedgerWide = true
	}

	return &Report{
		Summary:    summary,
		datasource: b.datasource,
		accountID:  account.ID,
		batchSize:  b.reportBatchSize,
	}, nil
}

// Entries yields the account's ledger entries in (timestamp, id) order. A
// storage failure is yielded once as the error and ends the sequence.
func (r *Report) Entries(ctx context.Context) iter.Seq2[model.Transaction, error] {
	return func(yield func(model.Transaction, error) bool) {
		cursor := database.LedgerCursor{}
		for {
			page, err := r.datasource.GetTransactionsPaginated(ctx, r.accountID, r.Summary.Range, cursor, r.batchSize)
			if err != nil {
				yield(model.Transaction{}, operationFailed("transaction report", err))
				return
			}
			for _, txn := range page {
				if !yield(txn, nil) {
					return
				}
			}
			if len(page) < r.batchSize {
				return
			}
			last := page[len(page)-1]
			cursor = database.LedgerCursor{Timestamp: last.Timestamp, ID: last.ID}
		}
	}
}

// Collect drains Entries into a slice.
func (r *Report) Collect(ctx context.Context) ([]model.Transaction, error) {
	entries := make([]model.Transaction, 0)
	for txn, err := range r.Entries(ctx) {
		if err != nil {
			return nil, err
		}
		entries = append(entries, txn)
	}
	return entries, nil
}
