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
	"fmt"

	"github.com/bookbank/bookbank/database"
	"github.com/bookbank/bookbank/model"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
)

// RequestLoan records a loan request. The request stays pending until it is
// approved outside this service; the balance is not changed.
func (b *Bookbank) RequestLoan(ctx context.Context, caller model.Caller, amount decimal.Decimal) (*Result, error) {
	ctx, span := tracer.Start(ctx, "RequestLoan")
	defer span.End()
	const op = "loan request"

	account, err := b.lookupAccountRef(ctx, op, caller.UserID)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int64("account.no", account.AccountNo), attribute.String("amount", amount.String()))

	locker, err := b.lockAccounts(ctx, account.AccountNo)
	if err != nil {
		return nil, logAndRecordError(span, "failed to lock account", operationFailed(op, err))
	}
	defer b.unlock(ctx, locker)

	var result Result
	err = b.inTx(ctx, op, func(tx database.Tx) error {
		locked, err := tx.LockAccountByUserID(ctx, caller.UserID)
		if err != nil {
			return notFoundAs(op, err, ErrAccountNotFound)
		}

		if err := b.validateAmount(model.Loan, amount, locked); err != nil {
			return err
		}

		approved, err := tx.CountApprovedLoans(ctx, locked.ID)
		if err != nil {
			return operationFailed(op, err)
		}
		if approved >= b.rules.MaxLoans {
			return ErrLoanLimitExceeded
		}

		txn, err := tx.RecordTransaction(ctx, &model.Transaction{
			AccountID:               locked.ID,
			Amount:                  amount,
			BalanceAfterTransaction: locked.Balance,
			Type:                    model.Loan,
			LoanApprove:             false,
		})
		if err != nil {
			return operationFailed(op, err)
		}
		result = Result{Transaction: txn, Account: locked}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	result.Message = fmt.Sprintf("Loan request for %s submitted successfully", model.FormatMoney(amount))
	return &result, nil
}

// ListLoans returns every Loan entry of the caller's account, pending and approved.
// Repaid loans are retagged and no longer listed.
func (b *Bookbank) ListLoans(ctx context.Context, caller model.Caller) ([]model.Transaction, error) {
	ctx, span := tracer.Start(ctx, "ListLoans")
	defer span.End()

	account, err := b.lookupAccountRef(ctx, "list loans", caller.UserID)
	if err != nil {
		return nil, err
	}

	loans, err := b.datasource.GetLoans(ctx, account.ID)
	if err != nil {
		return nil, operationFailed("list loans", err)
	}
	return loans, nil
}

// RepayLoan pays back an approved loan of the caller. The balance must be
// strictly greater than the loan amount. On success the account is debited,
// and the loan entry gets the new balance and the LoanPaid type, all in one
// database transaction.
func (b *Bookbank) RepayLoan(ctx context.Context, caller model.Caller, loanID int64) (*Result, error) {
	ctx, span := tracer.Start(ctx, "RepayLoan")
	defer span.End()
	const op = "loan repayment"
	span.SetAttributes(attribute.Int64("loan.id", loanID))

	account, err := b.lookupAccountRef(ctx, op, caller.UserID)
	if err != nil {
		return nil, err
	}

	locker, err := b.lockAccounts(ctx, account.AccountNo)
	if err != nil {
		return nil, logAndRecordError(span, "failed to lock account", operationFailed(op, err))
	}
	defer b.unlock(ctx, locker)

	var result Result
	err = b.inTx(ctx, op, func(tx database.Tx) error {
		locked, err := tx.LockAccountByUserID(ctx, caller.UserID)
		if err != nil {
			return notFoundAs(op, err, ErrAccountNotFound)
		}

		loan, err := tx.LockTransaction(ctx, loanID)
		if err != nil {
			return notFoundAs(op, err, ErrLoanNotFound)
		}
		if loan.AccountID != locked.ID {
			return ErrLoanNotFound
		}

		switch loan.LoanState() {
		case model.LoanApproved:
		case model.LoanRequested:
			return ErrLoanNotApproved
		case model.LoanRepaid:
			return ErrLoanAlreadyPaid
		default:
			return ErrLoanNotFound
		}

		if !locked.CanRepay(loan.Amount) {
			return ErrInsufficientFundsForLoanRepayment
		}

		balance, err := tx.Debit(ctx, locked.ID, loan.Amount)
		if err != nil {
			return operationFailed(op, err)
		}
		if err := tx.MarkLoanPaid(ctx, loan.ID, balance); err != nil {
			return operationFailed(op, err)
		}

		loan.Type = model.LoanPaid
		loan.BalanceAfterTransaction = balance
		locked.Balance = balance
		result = Result{Transaction: loan, Account: locked}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	result.Message = fmt.Sprintf("Loan of %s repaid successfully", model.FormatMoney(result.Transaction.Amount))
	return &result, nil
}
