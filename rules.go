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
	"fmt"

	"github.com/bookbank/bookbank/config"
	"github.com/bookbank/bookbank/model"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/shopspring/decimal"
)

// MinTransferAmount is the smallest amount that can be sent to another account.
var MinTransferAmount = decimal.RequireFromString("0.01")

// amountRules returns the rules an amount of one transaction type must pass
// against the current state of the acting account.
type amountRules func(rules config.RulesConfig, account *model.Account) []validation.Rule

var transactionRules = map[model.TransactionType]amountRules{
	model.Deposit: func(rules config.RulesConfig, account *model.Account) []validation.Rule {
		return []validation.Rule{
			moneyPrecision,
			atLeast(rules.MinDeposit, "You need to deposit at least %s $"),
			balanceFits(account.Balance),
		}
	},
	model.Withdrawal: func(rules config.RulesConfig, account *model.Account) []validation.Rule {
		return []validation.Rule{
			moneyPrecision,
			atLeast(rules.MinWithdrawal, "You need to withdraw at least %s $"),
			atMost(account.Balance, "You have %s $ in your account. You can not withdraw more than your account balance"),
		}
	},
	model.Loan: func(rules config.RulesConfig, _ *model.Account) []validation.Rule {
		return []validation.Rule{
			moneyPrecision,
			atLeast(rules.MinLoan, "You need to request at least %s $"),
		}
	},
	model.SendMoney: func(_ config.RulesConfig, _ *model.Account) []validation.Rule {
		return []validation.Rule{
			moneyPrecision,
			atLeast(MinTransferAmount, "Ensure this value is greater than or equal to %s."),
		}
	},
}

var moneyPrecision = validation.By(func(value interface{}) error {
	amount, err := asDecimal(value)
	if err != nil {
		return err
	}
	if !model.HasMoneyDigits(amount) {
		return validation.NewError("validation_money_digits", fmt.Sprintf("Ensure that there are no more than %d digits in total.", model.MoneyDigits))
	}
	if !model.HasMoneyPrecision(amount) {
		return validation.NewError("validation_money_precision", fmt.Sprintf("Ensure that there are no more than %d decimal places.", model.MoneyPlaces))
	}
	return nil
})

// balanceFits rejects amounts that would push balance past what an account can hold.
func balanceFits(balance decimal.Decimal) validation.Rule {
	return validation.By(func(value interface{}) error {
		amount, err := asDecimal(value)
		if err != nil {
			return err
		}
		if !model.HasMoneyDigits(balance.Add(amount)) {
			return validation.NewError("validation_balance_too_large", "Your account balance can not hold this amount")
		}
		return nil
	})
}

func atLeast(min decimal.Decimal, format string) validation.Rule {
	return validation.By(func(value interface{}) error {
		amount, err := asDecimal(value)
		if err != nil {
			return err
		}
		if amount.LessThan(min) {
			return validation.NewError("validation_amount_too_small", fmt.Sprintf(format, min.String()))
		}
		return nil
	})
}

func atMost(max decimal.Decimal, format string) validation.Rule {
	return validation.By(func(value interface{}) error {
		amount, err := asDecimal(value)
		if err != nil {
			return err
		}
		if amount.GreaterThan(max) {
			return validation.NewError("validation_amount_too_large", fmt.Sprintf(format, max.StringFixed(model.MoneyPlaces)))
		}
		return nil
	})
}

func asDecimal(value interface{}) (decimal.Decimal, error) {
	switch v := value.(type) {
	case decimal.Decimal:
		return v, nil
	case *decimal.Decimal:
		if v == nil {
			return decimal.Zero, nil
		}
		return *v, nil
	default:
		return decimal.Zero, validation.NewError("validation_amount_type", "amount must be a decimal")
	}
}

// validateAmount runs the rules of txnType against amount. It never touches storage.
func (b *Bookbank) validateAmount(txnType model.TransactionType, amount decimal.Decimal, account *model.Account) error {
	rulesFor, ok := transactionRules[txnType]
	if !ok {
		return fmt.Errorf("no amount rules for %s transactions", txnType)
	}
	if err := validation.Validate(amount, rulesFor(b.rules, account)...); err != nil {
		return newValidationError("amount", err.Error())
	}
	return nil
}
