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
	"errors"
	"time"

	"github.com/bookbank/bookbank/internal/apierror"
	"github.com/bookbank/bookbank/model"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

// accountRefTTL bounds how long a user to account mapping is cached. The
// mapping never changes once the account exists.
const accountRefTTL = 24 * time.Hour

// accountRef is the part of an account that never changes.
type accountRef struct {
	ID        int64
	AccountNo int64
}

func accountRefKey(userID string) string {
	return "bookbank:account-ref:" + userID
}

// lookupAccountRef finds the caller's account number without reading the
// balance. Cache failures fall through to the database.
func (b *Bookbank) lookupAccountRef(ctx context.Context, op string, userID string) (accountRef, error) {
	var ref accountRef
	found, err := b.accountRefs.Get(ctx, accountRefKey(userID), &ref)
	if err != nil {
		logrus.Warnf("account reference cache read failed: %v", err)
	}
	if found {
		return ref, nil
	}

	account, err := b.datasource.GetAccountByUserID(ctx, userID)
	if err != nil {
		return accountRef{}, notFoundAs(op, err, ErrAccountNotFound)
	}
	ref = accountRef{ID: account.ID, AccountNo: account.AccountNo}
	b.cacheAccountRef(ctx, userID, ref)
	return ref, nil
}

func (b *Bookbank) cacheAccountRef(ctx context.Context, userID string, ref accountRef) {
	if err := b.accountRefs.Set(ctx, accountRefKey(userID), ref, accountRefTTL); err != nil {
		logrus.Warnf("account reference cache write failed: %v", err)
	}
}

// OpenAccount creates the caller's account with a zero balance. A user holds
// at most one account.
func (b *Bookbank) OpenAccount(ctx context.Context, caller model.Caller, accountType model.AccountType) (*model.Account, error) {
	ctx, span := tracer.Start(ctx, "OpenAccount")
	defer span.End()

	if caller.UserID == "" {
		return nil, newValidationError("user_id", "This field is required.")
	}
	if !accountType.Valid() {
		return nil, newValidationError("account_type", "Select a valid choice. "+string(accountType)+" is not one of the available choices.")
	}

	account, err := b.datasource.CreateAccount(ctx, model.Account{UserID: caller.UserID, AccountType: accountType})
	if err != nil {
		var apiErr apierror.APIError
		if errors.As(err, &apiErr) && apiErr.Code == apierror.ErrConflict {
			return nil, ErrAccountExists
		}
		return nil, logAndRecordError(span, "failed to open account", operationFailed("open account", err))
	}

	span.SetAttributes(attribute.Int64("account.no", account.AccountNo))
	b.cacheAccountRef(ctx, caller.UserID, accountRef{ID: account.ID, AccountNo: account.AccountNo})
	return account, nil
}

// GetAccount returns the caller's own account.
func (b *Bookbank) GetAccount(ctx context.Context, caller model.Caller) (*model.Account, error) {
	ctx, span := tracer.Start(ctx, "GetAccount")
	defer span.End()

	account, err := b.datasource.GetAccountByUserID(ctx, caller.UserID)
	if err != nil {
		return nil, notFoundAs("get account", err, ErrAccountNotFound)
	}
	return account, nil
}
