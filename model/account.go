package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type AccountType string

const (
	AccountTypeSavings AccountType = "Savings"
	AccountTypeCurrent AccountType = "Current"
)

func (t AccountType) Valid() bool {
	return t == AccountTypeSavings || t == AccountTypeCurrent
}

// Account is the single balance-holding account owned by a user.
type Account struct {
	ID          int64           `json:"-"`
	AccountNo   int64           `json:"account_no"`
	UserID      string          `json:"user_id"`
	AccountType AccountType     `json:"account_type"`
	Balance     decimal.Decimal `json:"balance"`
	CreatedAt   time.Time       `json:"initial_deposit_date"`
}

// CanCover reports whether the balance is at least amount.
func (a *Account) CanCover(amount decimal.Decimal) bool {
	return compare(amount, "<=", a.Balance)
}

// CanRepay reports whether a loan of the given amount may be repaid.
// Repayment requires the balance to be strictly greater than the loan.
func (a *Account) CanRepay(loanAmount decimal.Decimal) bool {
	return compare(loanAmount, "<", a.Balance)
}
