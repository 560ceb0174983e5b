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
	"errors"
	"fmt"

	"github.com/bookbank/bookbank/internal/apierror"
	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// The messages below are shown to the account holder as they are.
var (
	ErrLoanLimitExceeded                 = errors.New("You have crossed the loan limits")
	ErrRecipientNotFound                 = errors.New("Recipient account not found")
	ErrInsufficientFunds                 = errors.New("Insufficient funds for the money transfer")
	ErrInsufficientFundsForLoanRepayment = errors.New("Loan amount is greater than available balance")
	ErrAccountNotFound                   = errors.New("You do not have a bank account yet")
	ErrAccountExists                     = errors.New("You already have a bank account")
	ErrLoanNotFound                      = errors.New("Loan not found")
	ErrLoanNotApproved                   = errors.New("Loan has not been approved yet")
	ErrLoanAlreadyPaid                   = errors.New("Loan has already been paid")
)

// ValidationError rejects one request field. Nothing has been persisted when it is returned.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func newValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// OperationError is a storage or infrastructure failure. The unit of work it
// happened in was rolled back.
type OperationError struct {
	Op  string
	Err error
}

func (e *OperationError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

func (e *OperationError) Unwrap() error {
	return e.Err
}

// operationFailed logs err with its stack and wraps it as an OperationError.
func operationFailed(op string, err error) error {
	var opErr *OperationError
	if errors.As(err, &opErr) {
		return err
	}
	err = pkgerrors.WithStack(err)
	logrus.WithField("operation", op).Errorf("%+v", err)
	return &OperationError{Op: op, Err: err}
}

// notFoundAs converts a storage NOT_FOUND into the given domain error and any
// other storage failure into an OperationError.
func notFoundAs(op string, err, domainErr error) error {
	if apierror.IsNotFound(err) {
		return domainErr
	}
	return operationFailed(op, err)
}
