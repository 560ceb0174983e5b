package model

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType tags a ledger entry. The numeric values are what the
// transactions table stores.
type TransactionType int

const (
	Deposit TransactionType = iota + 1
	Withdrawal
	Loan
	LoanPaid
	SendMoney
	ReceiveMoney
)

var transactionTypeNames = map[TransactionType]string{
	Deposit:      "Deposit",
	Withdrawal:   "Withdrawal",
	Loan:         "Loan",
	LoanPaid:     "Loan Paid",
	SendMoney:    "Send Money",
	ReceiveMoney: "Receive Money",
}

func (t TransactionType) String() string {
	if name, ok := transactionTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("TransactionType(%d)", int(t))
}

func (t TransactionType) Valid() bool {
	_, ok := transactionTypeNames[t]
	return ok
}

func (t TransactionType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *TransactionType) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		var code int
		if err := json.Unmarshal(data, &code); err != nil {
			return fmt.Errorf("invalid transaction type %s", data)
		}
		*t = TransactionType(code)
		if !t.Valid() {
			return fmt.Errorf("invalid transaction type %d", code)
		}
		return nil
	}
	for k, v := range transactionTypeNames {
		if v == name {
			*t = k
			return nil
		}
	}
	return fmt.Errorf("invalid transaction type %q", name)
}

type LoanState string

const (
	LoanRequested LoanState = "requested"
	LoanApproved  LoanState = "approved"
	LoanRepaid    LoanState = "paid"
)

// Transaction is a ledger entry. BalanceAfterTransaction is the owning
// account's balance immediately after the mutation the entry records.
type Transaction struct {
	ID                      int64           `json:"id"`
	AccountID               int64           `json:"-"`
	Amount                  decimal.Decimal `json:"amount"`
	BalanceAfterTransaction decimal.Decimal `json:"balance_after_transaction"`
	Type                    TransactionType `json:"transaction_type"`
	LoanApprove             bool            `json:"loan_approve"`
	Timestamp               time.Time       `json:"timestamp"`
}

func (transaction *Transaction) ToJSON() ([]byte, error) {
	return json.Marshal(transaction)
}

// IsLoan reports whether the entry belongs to the loan lifecycle.
func (transaction *Transaction) IsLoan() bool {
	return transaction.Type == Loan || transaction.Type == LoanPaid
}

// LoanState returns where a loan entry sits in its lifecycle. It returns an
// empty state for entries that are not loans.
func (transaction *Transaction) LoanState() LoanState {
	switch {
	case transaction.Type == LoanPaid:
		return LoanRepaid
	case transaction.Type == Loan && transaction.LoanApprove:
		return LoanApproved
	case transaction.Type == Loan:
		return LoanRequested
	}
	return ""
}
