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
	"time"

	"github.com/bookbank/bookbank/model"
	"github.com/shopspring/decimal"
)

// IDataSource defines the interface for data source operations, grouping related functionalities.
type IDataSource interface {
	account    // Account lookup and provisioning
	ledger     // Read-only ledger queries
	transactor // Units of work for every balance mutation
}

type account interface {
	CreateAccount(ctx context.Context, account model.Account) (*model.Account, error)
	GetAccountByUserID(ctx context.Context, userID string) (*model.Account, error)
	GetAccountByNumber(ctx context.Context, accountNo int64) (*model.Account, error)
}

// LedgerCursor marks the last entry of a page; the next page starts strictly after it.
type LedgerCursor struct {
	Timestamp time.Time
	ID        int64
}

type ledger interface {
	GetTransactionsPaginated(ctx context.Context, accountID int64, dateRange *model.DateRange, after LedgerCursor, batchSize int) ([]model.Transaction, error)
	SumTransactionAmounts(ctx context.Context, dateRange model.DateRange) (decimal.Decimal, error)
	GetLoans(ctx context.Context, accountID int64) ([]model.Transaction, error)
}

type transactor interface {
	BeginTx(ctx context.Context) (Tx, error)
}

// Tx is one database transaction. Rows returned by the Lock* methods stay
// locked until Commit or Rollback. Rollback after Commit is a no-op.
type Tx interface {
	LockAccountByUserID(ctx context.Context, userID string) (*model.Account, error)
	// LockAccounts locks the given accounts in ascending id order.
	LockAccounts(ctx context.Context, ids ...int64) (map[int64]*model.Account, error)
	LockTransaction(ctx context.Context, id int64) (*model.Transaction, error)
	CountApprovedLoans(ctx context.Context, accountID int64) (int, error)
	// Credit and Debit apply the change in SQL and return the new balance.
	Credit(ctx context.Context, accountID int64, amount decimal.Decimal) (decimal.Decimal, error)
	Debit(ctx context.Context, accountID int64, amount decimal.Decimal) (decimal.Decimal, error)
	RecordTransaction(ctx context.Context, txn *model.Transaction) (*model.Transaction, error)
	MarkLoanPaid(ctx context.Context, id int64, balanceAfter decimal.Decimal) error
	Commit() error
	Rollback() error
}
