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

package notification

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"path"
	"time"

	"github.com/bookbank/bookbank/model"
	"github.com/shopspring/decimal"
)

const (
	DepositSubject    = "Deposit Message"
	WithdrawalSubject = "Withdrawal Message"

	DepositTemplate    = "transaction/deposit_email.html"
	WithdrawalTemplate = "transaction/withdraw_email.html"
)

//go:embed templates/transaction/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/transaction/*.html"))

// Message is one transaction email waiting to be delivered.
type Message struct {
	UserID          string                `json:"user_id"`
	Email           string                `json:"email"`
	Name            string                `json:"name"`
	AccountNo       int64                 `json:"account_no"`
	Amount          decimal.Decimal       `json:"amount"`
	BalanceAfter    decimal.Decimal       `json:"balance_after"`
	Subject         string                `json:"subject"`
	Template        string                `json:"template"`
	TransactionType model.TransactionType `json:"transaction_type"`
	TransactionID   int64                 `json:"transaction_id"`
	Timestamp       time.Time             `json:"timestamp"`
}

// NewTransactionMessage builds the email for a committed ledger entry. Only
// deposits and withdrawals produce one.
func NewTransactionMessage(caller model.Caller, account *model.Account, txn *model.Transaction) (Message, bool) {
	msg := Message{
		UserID:          caller.UserID,
		Email:           caller.Email,
		Name:            caller.Name,
		AccountNo:       account.AccountNo,
		Amount:          txn.Amount.Abs(),
		BalanceAfter:    txn.BalanceAfterTransaction,
		TransactionType: txn.Type,
		TransactionID:   txn.ID,
		Timestamp:       txn.Timestamp,
	}

	switch txn.Type {
	case model.Deposit:
		msg.Subject, msg.Template = DepositSubject, DepositTemplate
	case model.Withdrawal:
		msg.Subject, msg.Template = WithdrawalSubject, WithdrawalTemplate
	default:
		return Message{}, false
	}
	return msg, true
}

// RoutingKey is the broker routing key for the message, e.g. "transaction.deposit".
func (m Message) RoutingKey() string {
	switch m.TransactionType {
	case model.Deposit:
		return "transaction.deposit"
	case model.Withdrawal:
		return "transaction.withdrawal"
	default:
		return "transaction.unknown"
	}
}

type templateUser struct {
	Name  string
	Email string
}

type templateData struct {
	User        templateUser
	Amount      string
	Balance     string
	AccountNo   int64
	ProjectName string
}

// Render executes the message template and returns the HTML body.
func (m Message) Render(projectName string) (string, error) {
	tmpl := templates.Lookup(path.Base(m.Template))
	if tmpl == nil {
		return "", fmt.Errorf("unknown notification template %q", m.Template)
	}

	name := m.Name
	if name == "" {
		name = m.Email
	}
	var buf bytes.Buffer
	err := tmpl.Execute(&buf, templateData{
		User:        templateUser{Name: name, Email: m.Email},
		Amount:      model.FormatMoney(m.Amount),
		Balance:     model.FormatMoney(m.BalanceAfter),
		AccountNo:   m.AccountNo,
		ProjectName: projectName,
	})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}
