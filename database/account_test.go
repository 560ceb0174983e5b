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
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/bookbank/bookbank/internal/apierror"
	"github.com/bookbank/bookbank/model"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var accountRowColumns = []string{"id", "account_no", "user_id", "account_type", "balance", "created_at"}

func TestCreateAccount_Success(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	ds := Datasource{Conn: db}
	now := time.Now().UTC()

	mock.ExpectQuery("INSERT INTO bookbank.accounts").
		WithArgs("user-1", "Savings").
		WillReturnRows(sqlmock.NewRows(accountRowColumns).AddRow(int64(1), int64(100001), "user-1", "Savings", "0.00", now))

	account, err := ds.CreateAccount(context.Background(), model.Account{UserID: "user-1", AccountType: model.AccountTypeSavings})
	require.NoError(t, err)
	assert.Equal(t, int64(100001), account.AccountNo)
	assert.Equal(t, model.AccountTypeSavings, account.AccountType)
	assert.True(t, account.Balance.IsZero())
	assert.Equal(t, now, account.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateAccount_Duplicate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	ds := Datasource{Conn: db}

	mock.ExpectQuery("INSERT INTO bookbank.accounts").
		WithArgs("user-1", "Current").
		WillReturnError(&pq.Error{Code: uniqueViolation})

	_, err = ds.CreateAccount(context.Background(), model.Account{UserID: "user-1", AccountType: model.AccountTypeCurrent})
	require.Error(t, err)

	var apiErr apierror.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, apierror.ErrConflict, apiErr.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetAccountByUserID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	ds := Datasource{Conn: db}

	mock.ExpectQuery(regexp.QuoteMeta("FROM bookbank.accounts WHERE user_id = $1")).
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows(accountRowColumns).AddRow(int64(1), int64(100001), "user-1", "Savings", "1500.50", time.Now()))

	account, err := ds.GetAccountByUserID(context.Background(), "user-1")
	require.NoError(t, err)
	assert.True(t, account.Balance.Equal(decimal.RequireFromString("1500.50")))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetAccountByUserID_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	ds := Datasource{Conn: db}

	mock.ExpectQuery(regexp.QuoteMeta("FROM bookbank.accounts WHERE user_id = $1")).
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)

	_, err = ds.GetAccountByUserID(context.Background(), "ghost")
	assert.True(t, apierror.IsNotFound(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetAccountByNumber(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	ds := Datasource{Conn: db}

	mock.ExpectQuery(regexp.QuoteMeta("FROM bookbank.accounts WHERE account_no = $1")).
		WithArgs(int64(100002)).
		WillReturnRows(sqlmock.NewRows(accountRowColumns).AddRow(int64(2), int64(100002), "user-2", "Current", "20.00", time.Now()))

	account, err := ds.GetAccountByNumber(context.Background(), 100002)
	require.NoError(t, err)
	assert.Equal(t, int64(2), account.ID)
	assert.Equal(t, "user-2", account.UserID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetAccountByNumber_Errors(t *testing.T) {
	tests := []struct {
		name     string
		dbErr    error
		expected apierror.ErrorCode
	}{
		{"missing account", sql.ErrNoRows, apierror.ErrNotFound},
		{"database down", errors.New("connection reset"), apierror.ErrInternalServer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer func() { _ = db.Close() }()

			ds := Datasource{Conn: db}
			mock.ExpectQuery(regexp.QuoteMeta("FROM bookbank.accounts WHERE account_no = $1")).
				WithArgs(int64(999)).
				WillReturnError(tt.dbErr)

			_, err = ds.GetAccountByNumber(context.Background(), 999)
			var apiErr apierror.APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tt.expected, apiErr.Code)
		})
	}
}
