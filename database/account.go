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
)

const accountColumns = `id, account_no, user_id, account_type, balance, created_at`

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanAccount(row rowScanner) (*model.Account, error) {
	account := &model.Account{}
	err := row.Scan(
		&account.ID,
		&account.AccountNo,
		&account.UserID,
		&account.AccountType,
		&account.Balance,
		&account.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return account, nil
}

// CreateAccount inserts the account for a newly registered user. The account
// number comes from the account_no sequence and the balance starts at zero.
//
// Parameters:
// - ctx: The context for the operation.
// - account: The account to create; only UserID and AccountType are read.
//
// Returns:
// - *model.Account: The stored account including its generated number.
// - error: A CONFLICT APIError if the user already has an account.
func (d Datasource) CreateAccount(ctx context.Context, account model.Account) (*model.Account, error) {
	row := d.Conn.QueryRowContext(ctx, `
		INSERT INTO bookbank.accounts (user_id, account_type)
		VALUES ($1, $2)
		RETURNING `+accountColumns,
		account.UserID, string(account.AccountType),
	)

	created, err := scanAccount(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, apierror.NewAPIError(apierror.ErrConflict, fmt.Sprintf("user %s already has an account", account.UserID), err)
		}
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to create account", err)
	}
	return created, nil
}

// GetAccountByUserID returns the account owned by userID.
func (d Datasource) GetAccountByUserID(ctx context.Context, userID string) (*model.Account, error) {
	row := d.Conn.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM bookbank.accounts WHERE user_id = $1`, userID)

	account, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apierror.NewAPIError(apierror.ErrNotFound, fmt.Sprintf("account for user %s not found", userID), err)
		}
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to retrieve account", err)
	}
	return account, nil
}

// GetAccountByNumber resolves an account number to at most one account.
// A miss is reported as a NOT_FOUND APIError.
func (d Datasource) GetAccountByNumber(ctx context.Context, accountNo int64) (*model.Account, error) {
	row := d.Conn.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM bookbank.accounts WHERE account_no = $1`, accountNo)

	account, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apierror.NewAPIError(apierror.ErrNotFound, fmt.Sprintf("account %d not found", accountNo), err)
		}
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to retrieve account", err)
	}
	return account, nil
}
