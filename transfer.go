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

// TransferResult is a Result for the sender plus the entry written on the
// recipient's account, which is never serialized back to the sender.
type TransferResult struct {
	Result
	Received *model.Transaction `json:"-"`
}

// Transfer moves amount from the caller's account to the account numbered
// recipientAccountNo. The debit, the credit and both ledger entries commit
// together or not at all.
func (b *Bookbank) Transfer(ctx context.Context, caller model.Caller, recipientAccountNo int64, amount decimal.Decimal) (*TransferResult, error) {
	ctx, span := tracer.Start(ctx, "Transfer")
	defer span.End()
	const op = "money transfer"
	span.SetAttributes(attribute.Int64("recipient.account_no", recipientAccountNo), attribute.String("amount", amount.String()))

	sender, err := b.datasource.GetAccountByUserID(ctx, caller.UserID)
	if err != nil {
		return nil, notFoundAs(op, err, ErrAccountNotFound)
	}
	if err := b.validateAmount(model.SendMoney, amount, sender); err != nil {
		return nil, err
	}

	recipient, err := b.datasource.GetAccountByNumber(ctx, recipientAccountNo)
	if err != nil {
		return nil, notFoundAs(op, err, ErrRecipientNotFound)
	}
	if recipient.ID == sender.ID {
		return nil, newValidationError("recipient_account_number", "You can not transfer money to your own account")
	}

	locker, err := b.lockAccounts(ctx, sender.AccountNo, recipient.AccountNo)
	if err != nil {
		return nil, logAndRecordError(span, "failed to lock accounts", operationFailed(op, err))
	}
	defer b.unlock(ctx, locker)

	var result TransferResult
	err = b.inTx(ctx, op, func(tx database.Tx) error {
		accounts, err := tx.LockAccounts(ctx, sender.ID, recipient.ID)
		if err != nil {
			return notFoundAs(op, err, ErrRecipientNotFound)
		}
		from, to := accounts[sender.ID], accounts[recipient.ID]

		if !from.CanCover(amount) {
			return ErrInsufficientFunds
		}

		fromBalance, err := tx.Debit(ctx, from.ID, amount)
		if err != nil {
			return operationFailed(op, err)
		}
		sent, err := tx.RecordTransaction(ctx, &model.Transaction{
			AccountID:               from.ID,
			Amount:                  amount.Neg(),
			BalanceAfterTransaction: fromBalance,
			Type:                    model.SendMoney,
		})
		if err != nil {
			return operationFailed(op, err)
		}

		toBalance, err := tx.Credit(ctx, to.ID, amount)
		if err != nil {
			return operationFailed(op, err)
		}
		received, err := tx.RecordTransaction(ctx, &model.Transaction{
			AccountID:               to.ID,
			Amount:                  amount,
			BalanceAfterTransaction: toBalance,
			Type:                    model.ReceiveMoney,
		})
		if err != nil {
			return operationFailed(op, err)
		}

		from.Balance = fromBalance
		result = TransferResult{Result: Result{Transaction: sent, Account: from}, Received: received}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	result.Message = fmt.Sprintf("Successfully transferred %s to account %d", model.FormatMoney(amount), recipientAccountNo)
	return &result, nil
}
