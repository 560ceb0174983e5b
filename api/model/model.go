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

package model

import (
	"regexp"
	"strconv"

	"github.com/bookbank/bookbank/model"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/shopspring/decimal"
)

var digitsOnly = regexp.MustCompile(`^[0-9]+$`)

// AmountRequest is the body of the deposit, withdraw and loan-request endpoints.
type AmountRequest struct {
	Amount *decimal.Decimal `json:"amount"`
}

func (r *AmountRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Amount, validation.Required.Error("This field is required.")),
	)
}

type TransferRequest struct {
	Amount                 *decimal.Decimal `json:"amount"`
	RecipientAccountNumber string           `json:"recipient_account_number"`
}

func (r *TransferRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Amount, validation.Required.Error("This field is required.")),
		validation.Field(&r.RecipientAccountNumber,
			validation.Required.Error("This field is required."),
			validation.Length(1, 10).Error("Ensure this field has no more than 10 characters."),
			validation.Match(digitsOnly).Error("Enter a valid account number."),
		),
	)
}

// RecipientAccountNo is only meaningful after Validate succeeded.
func (r *TransferRequest) RecipientAccountNo() int64 {
	no, _ := strconv.ParseInt(r.RecipientAccountNumber, 10, 64)
	return no
}

type OpenAccountRequest struct {
	AccountType string `json:"account_type"`
}

func (r *OpenAccountRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.AccountType,
			validation.Required.Error("This field is required."),
			validation.In(string(model.AccountTypeSavings), string(model.AccountTypeCurrent)).Error("Select a valid choice."),
		),
	)
}

// FormField describes one input of a form rendered by a client.
type FormField struct {
	Name      string `json:"name"`
	Type      string `json:"type"`
	Required  bool   `json:"required"`
	Min       string `json:"min,omitempty"`
	MaxLength int    `json:"max_length,omitempty"`
}

type Form struct {
	Title  string      `json:"title"`
	Fields []FormField `json:"fields"`
}

// TransferForm is the money transfer form.
func TransferForm(minAmount decimal.Decimal) Form {
	return Form{
		Title: "Money Transfer",
		Fields: []FormField{
			{Name: "amount", Type: "decimal", Required: true, Min: minAmount.String()},
			{Name: "recipient_account_number", Type: "string", Required: true, MaxLength: 10},
		},
	}
}
