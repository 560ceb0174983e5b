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
	"errors"
	"testing"
	"time"

	"github.com/bookbank/bookbank/database"
	"github.com/bookbank/bookbank/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestParseDateRange(t *testing.T) {
	tests := []struct {
		name    string
		start   string
		end     string
		want    *model.DateRange
		errField string
	}{
		{"no filter", "", "", nil, ""},
		{"only start", "2024-01-01", "", nil, ""},
		{"only end", "", "2024-01-31", nil, ""},
		{"both", "2024-01-01", "2024-01-31", &model.DateRange{
			Start: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			End:   time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
		}, ""},
		{"single day", "2024-02-29", "2024-02-29", &model.DateRange{
			Start: time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC),
			End:   time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC),
		}, ""},
		{"bad start", "01/01/2024", "2024-01-31", nil, "start_date"},
		{"bad end", "2024-01-01", "2024-13-01", nil, "end_date"},
		{"reversed", "2024-02-01", "2024-01-01", nil, "end_date"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDateRange(tt.start, tt.end)
			if tt.errField != "" {
				var vErr *ValidationError
				require.True(t, errors.As(err, &vErr))
				assert.Equal(t, tt.errField, vErr.Field)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func ledgerEntry(id int64, day int, amount string) model.Transaction {
	return model.Transaction{
		ID:        id,
		AccountID: 1,
		Amount:    dec(amount),
		Type:      model.Deposit,
		Timestamp: time.Date(2024, 1, day, 12, 0, 0, 0, time.UTC),
	}
}

func TestReport_NoRange(t *testing.T) {
	env := newTestEnv(t)
	caller := fakeCaller()
	entries := []model.Transaction{ledgerEntry(1, 1, "100"), ledgerEntry(2, 2, "200"), ledgerEntry(3, 3, "300")}

	env.ds.On("GetAccountByUserID", mock.Anything, caller.UserID).Return(testAccount(caller, 1, 100001, "600.00"), nil)
	env.ds.On("GetTransactionsPaginated", mock.Anything, int64(1), (*model.DateRange)(nil), database.LedgerCursor{}, 2).
		Return(entries[:2], nil)
	env.ds.On("GetTransactionsPaginated", mock.Anything, int64(1), (*model.DateRange)(nil), database.LedgerCursor{Timestamp: entries[1].Timestamp, ID: 2}, 2).
		Return(entries[2:], nil)

	report, err := env.bookbank.Report(context.Background(), caller, nil)
	require.NoError(t, err)
	assert.True(t, report.Summary.Balance.Equal(dec("600")))
	assert.False(t, report.Summary.LedgerWide)
	assert.Equal(t, int64(100001), report.Summary.AccountNo)

	first, err := report.Collect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, entries, first)

	// a second pass reads the ledger again and yields the same sequence
	second, err := report.Collect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first, second)
	env.ds.AssertNumberOfCalls(t, "GetTransactionsPaginated", 4)
	env.ds.AssertNotCalled(t, "SumTransactionAmounts", mock.Anything, mock.Anything)
}

func TestReport_WithRangeSumsWholeLedger(t *testing.T) {
	env := newTestEnv(t)
	caller := fakeCaller()
	dateRange, err := ParseDateRange("2024-01-01", "2024-01-31")
	require.NoError(t, err)

	env.ds.On("GetAccountByUserID", mock.Anything, caller.UserID).Return(testAccount(caller, 1, 100001, "600.00"), nil)
	env.ds.On("SumTransactionAmounts", mock.Anything, *dateRange).Return(dec("12345.67"), nil)
	env.ds.On("GetTransactionsPaginated", mock.Anything, int64(1), dateRange, database.LedgerCursor{}, 2).
		Return([]model.Transaction{ledgerEntry(1, 5, "100")}, nil)

	report, err := env.bookbank.Report(context.Background(), caller, dateRange)
	require.NoError(t, err)
	assert.True(t, report.Summary.Balance.Equal(dec("12345.67")))
	assert.True(t, report.Summary.LedgerWide)
	assert.Equal(t, dateRange, report.Summary.Range)

	entries, err := report.Collect(context.Background())
	require.NoError(t, err)
	assert.Len(t, entries, 1)
	env.ds.AssertExpectations(t)
}

func TestReport_EmptyPageBoundary(t *testing.T) {
	env := newTestEnv(t)
	caller := fakeCaller()
	entries := []model.Transaction{ledgerEntry(1, 1, "100"), ledgerEntry(2, 2, "200")}

	env.ds.On("GetAccountByUserID", mock.Anything, caller.UserID).Return(testAccount(caller, 1, 100001, "300.00"), nil)
	env.ds.On("GetTransactionsPaginated", mock.Anything, int64(1), (*model.DateRange)(nil), database.LedgerCursor{}, 2).
		Return(entries, nil)
	env.ds.On("GetTransactionsPaginated", mock.Anything, int64(1), (*model.DateRange)(nil), database.LedgerCursor{Timestamp: entries[1].Timestamp, ID: 2}, 2).
		Return([]model.Transaction{}, nil)

	report, err := env.bookbank.Report(context.Background(), caller, nil)
	require.NoError(t, err)
	got, err := report.Collect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, entries, got)
}

func TestReport_StopsWhenConsumerStops(t *testing.T) {
	env := newTestEnv(t)
	caller := fakeCaller()

	env.ds.On("GetAccountByUserID", mock.Anything, caller.UserID).Return(testAccount(caller, 1, 100001, "300.00"), nil)
	env.ds.On("GetTransactionsPaginated", mock.Anything, int64(1), (*model.DateRange)(nil), database.LedgerCursor{}, 2).
		Return([]model.Transaction{ledgerEntry(1, 1, "100"), ledgerEntry(2, 2, "200")}, nil)

	report, err := env.bookbank.Report(context.Background(), caller, nil)
	require.NoError(t, err)

	for txn, err := range report.Entries(context.Background()) {
		require.NoError(t, err)
		assert.Equal(t, int64(1), txn.ID)
		break
	}
	env.ds.AssertNumberOfCalls(t, "GetTransactionsPaginated", 1)
}

func TestReport_StorageFailure(t *testing.T) {
	env := newTestEnv(t)
	caller := fakeCaller()

	env.ds.On("GetAccountByUserID", mock.Anything, caller.UserID).Return(testAccount(caller, 1, 100001, "300.00"), nil)
	env.ds.On("GetTransactionsPaginated", mock.Anything, int64(1), (*model.DateRange)(nil), database.LedgerCursor{}, 2).
		Return(nil, errors.New("connection reset"))

	report, err := env.bookbank.Report(context.Background(), caller, nil)
	require.NoError(t, err)

	_, err = report.Collect(context.Background())
	var opErr *OperationError
	assert.True(t, errors.As(err, &opErr))
}

func TestReport_SumFailure(t *testing.T) {
	env := newTestEnv(t)
	caller := fakeCaller()
	dateRange := &model.DateRange{Start: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), End: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)}

	env.ds.On("GetAccountByUserID", mock.Anything, caller.UserID).Return(testAccount(caller, 1, 100001, "300.00"), nil)
	env.ds.On("SumTransactionAmounts", mock.Anything, *dateRange).Return(dec("0"), errors.New("timeout"))

	_, err := env.bookbank.Report(context.Background(), caller, dateRange)
	var opErr *OperationError
	assert.True(t, errors.As(err, &opErr))
}
