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
	"database/sql"
	"errors"
	"fmt"

	"github.com/bookbank/bookbank/internal/apierror"
	"github.com/bookbank/bookbank/model"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

type pgTx struct {
	tx *sql.Tx
}

// BeginTx opens a read-committed transaction. Row locks taken inside it
// serialize concurrent mutations of the same account.
func (d Datasource) BeginTx(ctx context.Context) (Tx, error) {
	tx, err := d.Conn.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to begin transaction", err)
	}
	return &pgTx{tx: tx}, nil
}

func (t *pgTx) LockAccountByUserID(ctx context.Context, userID string) (*model.Account, error) {
	row := t.tx.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM bookbank.accounts WHERE user_id = $1 FOR UPDATE`, userID)

	account, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apierror.NewAPIError(apierror.ErrNotFound, fmt.Sprintf("account for user %s not found", userID), err)
		}
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to lock account", err)
	}
	return account, nil
}

// LockAccounts locks every listed account. Rows are locked in id order so two
// transfers between the same pair of accounts cannot deadlock.
func (t *pgTx) LockAccounts(ctx context.Context, ids ...int64) (map[int64]*model.Account, error) {
	rows, err := t.tx.QueryContext(ctx, `
		SELECT `+accountColumns+`
		FROM bookbank.accounts
		WHERE id = ANY($1)
		ORDER BY id
		FOR UPDATE`, pq.Array(ids))
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to lock accounts", err)
	}
	defer closeRows(rows)

	accounts := make(map[int64]*model.Account, len(ids))
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to scan account data", err)
		}
		accounts[account.ID] = account
	}
	if err := rows.Err(); err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Error occurred while locking accounts", err)
	}

	for _, id := range ids {
		if _, ok := accounts[id]; !ok {
			return nil, apierror.NewAPIError(apierror.ErrNotFound, fmt.Sprintf("account with id %d not found", id), sql.ErrNoRows)
		}
	}
	return accounts, nil
}

func (t *pgTx) LockTransaction(ctx context.Context, id int64) (*model.Transaction, error) {
	row := t.tx.QueryRowContext(ctx, `SELECT `+transactionColumns+` FROM bookbank.transactions WHERE id = $1 FOR UPDATE`, id)

	txn, err := scanTransaction(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apierror.NewAPIError(apierror.ErrNotFound, fmt.Sprintf("transaction with ID '%d' not found", id), err)
		}
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to lock transaction", err)
	}
	return txn, nil
}

// CountApprovedLoans counts the account's Loan entries with the approval flag set.
func (t *pgTx) CountApprovedLoans(ctx context.Context, accountID int64) (int, error) {
	var count int
	err := t.tx.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM bookbank.transactions
		WHERE account_id = $1 AND transaction_type = $2 AND loan_approve = TRUE`,
		accountID, int(model.Loan),
	).Scan(&count)
	if err != nil {
		return 0, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to count approved loans", err)
	}
	return count, nil
}

func (t *pgTx) Credit(ctx context.Context, accountID int64, amount decimal.Decimal) (decimal.Decimal, error) {
	return t.adjustBalance(ctx, accountID, amount)
}

func (t *pgTx) Debit(ctx context.Context, accountID int64, amount decimal.Decimal) (decimal.Decimal, error) {
	return t.adjustBalance(ctx, accountID, amount.Neg())
}

func (t *pgTx) adjustBalance(ctx context.Context, accountID int64, delta decimal.Decimal) (decimal.Decimal, error) {
	var balance decimal.Decimal
	err := t.tx.QueryRowContext(ctx, `
		UPDATE bookbank.accounts
		SET balance = balance + $2
		WHERE id = $1
		RETURNING balance`,
		accountID, delta,
	).Scan(&balance)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return decimal.Zero, apierror.NewAPIError(apierror.ErrNotFound, fmt.Sprintf("account with id %d not found", accountID), err)
		}
		return decimal.Zero, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to update balance", err)
	}
	return balance, nil
}

// RecordTransaction appends a ledger entry. ID and Timestamp are assigned by
// the database and written back to the returned entry.
func (t *pgTx) RecordTransaction(ctx context.Context, txn *model.Transaction) (*model.Transaction, error) {
	err := t.tx.QueryRowContext(ctx, `
		INSERT INTO bookbank.transactions (account_id, amount, balance_after_transaction, transaction_type, loan_approve)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, timestamp`,
		txn.AccountID, txn.Amount, txn.BalanceAfterTransaction, int(txn.Type), txn.LoanApprove,
	).Scan(&txn.ID, &txn.Timestamp)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to record transaction", err)
	}
	return txn, nil
}

// MarkLoanPaid retags an approved loan as paid and stores the balance left after repaying it.
func (t *pgTx) MarkLoanPaid(ctx context.Context, id int64, balanceAfter decimal.Decimal) error {
	result, err := t.tx.ExecContext(ctx, `
		UPDATE bookbank.transactions
		SET transaction_type = $2, balance_after_transaction = $3
		WHERE id = $1 AND transaction_type = $4`,
		id, int(model.LoanPaid), balanceAfter, int(model.Loan),
	)
	if err != nil {
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to mark loan as paid", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to get rows affected", err)
	}
	if rowsAffected == 0 {
		return apierror.NewAPIError(apierror.ErrNotFound, fmt.Sprintf("loan with ID '%d' not found", id), nil)
	}
	return nil
}

func (t *pgTx) Commit() error {
	if err := t.tx.Commit(); err != nil {
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to commit transaction", err)
	}
	return nil
}

func (t *pgTx) Rollback() error {
	err := t.tx.Rollback()
	if err != nil && !errors.Is(err, sql.ErrTxDone) {
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to roll back transaction", err)
	}
	return nil
}
