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

// Result is the outcome of a successful operation: the ledger entry it wrote
// (or retagged), the acting account after the change and the message shown
// to the account holder.
type Result struct {
	Transaction *model.Transaction `json:"transaction"`
	Account     *model.Account     `json:"account"`
	Message     string             `json:"message"`
}

// Deposit credits amount to the caller's account.
func (b *Bookbank) Deposit(ctx context.Context, caller model.Caller, amount decimal.Decimal) (*Result, error) {
	result, err := b.applyBalanceChange(ctx, caller, model.Deposit, amount)
	if err != nil {
		return nil, err
	}
	result.Message = fmt.Sprintf("%s was deposited to your account successfully", model.FormatMoney(amount))
	return result, nil
}

// Withdraw debits amount from the caller's account. The amount may not exceed the balance.
func (b *Bookbank) Withdraw(ctx context.Context, caller model.Caller, amount decimal.Decimal) (*Result, error) {
	result, err := b.applyBalanceChange(ctx, caller, model.Withdrawal, amount)
	if err != nil {
		return nil, err
	}
	result.Message = fmt.Sprintf("Successfully withdrawn %s from your account", model.FormatMoney(amount))
	return result, nil
}

// applyBalanceChange validates, mutates and records one deposit or withdrawal.
// The ledger entry stores the amount as entered and the balance after the change.
func (b *Bookbank) applyBalanceChange(ctx context.Context, caller model.Caller, txnType model.TransactionType, amount decimal.Decimal) (*Result, error) {
	ctx, span := tracer.Start(ctx, txnType.String())
	defer span.End()
	op := txnType.String()

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

		if err := b.validateAmount(txnType, amount, locked); err != nil {
			return err
		}

		var balance decimal.Decimal
		if txnType == model.Deposit {
			balance, err = tx.Credit(ctx, locked.ID, amount)
		} else {
			balance, err = tx.Debit(ctx, locked.ID, amount)
		}
		if err != nil {
			return operationFailed(op, err)
		}

		txn, err := tx.RecordTransaction(ctx, &model.Transaction{
			AccountID:               locked.ID,
			Amount:                  amount,
			BalanceAfterTransaction: balance,
			Type:                    txnType,
		})
		if err != nil {
			return operationFailed(op, err)
		}

		locked.Balance = balance
		result = Result{Transaction: txn, Account: locked}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	b.notify(caller, result.Account, result.Transaction)
	return &result, nil
}
