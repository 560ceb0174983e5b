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

package database

import (
	"context"
	"fmt"

	"github.com/bookbank/bookbank/internal/apierror"
	"github.com/bookbank/bookbank/model"
	"github.com/shopspring/decimal"
)

const transactionColumns = `id, account_id, amount, balance_after_transaction, transaction_type, loan_approve, timestamp`

func scanTransaction(row rowScanner) (*model.Transaction, error) {
	txn := &model.Transaction{}
	err := row.Scan(
		&txn.ID,
		&txn.AccountID,
		&txn.Amount,
		&txn.BalanceAfterTransaction,
		&txn.Type,
		&txn.LoanApprove,
		&txn.Timestamp,
	)
	if err != nil {
		return nil, err
	}
	return txn, nil
}

// GetTransactionsPaginated retrieves one page of an account's ledger entries,
// ordered by timestamp and id, starting strictly after the given cursor.
//
// Parameters:
// - ctx: The context for the operation.
// - accountID: The owning account.
// - dateRange: Optional inclusive day range; nil returns every entry.
// - after: Position of the last entry of the previous page; the zero cursor starts from the beginning.
// - batchSize: Maximum number of entries to return.
//
// Returns:
// - []model.Transaction: The page, empty once the ledger is exhausted.
// - error: An INTERNAL_SERVER_ERROR APIError if the query fails.
func (d Datasource) GetTransactionsPaginated(ctx context.Context, accountID int64, dateRange *model.DateRange, after LedgerCursor, batchSize int) ([]model.Transaction, error) {
	query := `SELECT ` + transactionColumns + `
		FROM bookbank.transactions
		WHERE account_id = $1 AND (timestamp, id) > ($2, $3)`
	args := []interface{}{accountID, after.Timestamp, after.ID}

	if dateRange != nil {
		query += ` AND timestamp >= $4 AND timestamp < $5`
		args = append(args, dateRange.Start, dateRange.Until())
	}
	query += fmt.Sprintf(` ORDER BY timestamp, id LIMIT $%d`, len(args)+1)
	args = append(args, batchSize)

	rows, err := d.Conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to retrieve transactions", err)
	}
	defer closeRows(rows)

	transactions := make([]model.Transaction, 0, batchSize)
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to scan transaction data", err)
		}
		transactions = append(transactions, *txn)
	}
	if err := rows.Err(); err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Error occurred while iterating over transactions", err)
	}
	return transactions, nil
}

// SumTransactionAmounts adds up the amount of every ledger entry, across all
// accounts, that falls inside dateRange. An empty range sums to zero.
func (d Datasource) SumTransactionAmounts(ctx context.Context, dateRange model.DateRange) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := d.Conn.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(amount), 0)
		FROM bookbank.transactions
		WHERE timestamp >= $1 AND timestamp < $2`,
		dateRange.Start, dateRange.Until(),
	).Scan(&total)
	if err != nil {
		return decimal.Zero, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to sum transactions", err)
	}
	return total, nil
}

// GetLoans returns every loan entry of the account, requested and approved alike.
func (d Datasource) GetLoans(ctx context.Context, accountID int64) ([]model.Transaction, error) {
	rows, err := d.Conn.QueryContext(ctx, `
		SELECT `+transactionColumns+`
		FROM bookbank.transactions
		WHERE account_id = $1 AND transaction_type = $2
		ORDER BY timestamp, id`,
		accountID, int(model.Loan),
	)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to retrieve loans", err)
	}
	defer closeRows(rows)

	loans := []model.Transaction{}
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to scan loan data", err)
		}
		loans = append(loans, *txn)
	}
	if err := rows.Err(); err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Error occurred while iterating over loans", err)
	}
	return loans, nil
}
