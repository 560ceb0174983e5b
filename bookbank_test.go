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
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/bookbank/bookbank/config"
	"github.com/bookbank/bookbank/database/mocks"
	"github.com/bookbank/bookbank/internal/apierror"
	"github.com/bookbank/bookbank/model"
	"github.com/bookbank/bookbank/notification"
	"github.com/brianvoe/gofakeit/v6"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type recordingNotifier struct {
	messages chan notification.Message
}

func newRecordingNotifier() *recordingNotifier {
	return &recordingNotifier{messages: make(chan notification.Message, 8)}
}

func (r *recordingNotifier) Notify(_ context.Context, msg notification.Message) error {
	r.messages <- msg
	return nil
}

func (r *recordingNotifier) Close() error { return nil }

func (r *recordingNotifier) next(t *testing.T) notification.Message {
	t.Helper()
	select {
	case msg := <-r.messages:
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("no notification sent")
		return notification.Message{}
	}
}

func (r *recordingNotifier) assertNone(t *testing.T) {
	t.Helper()
	select {
	case msg := <-r.messages:
		t.Fatalf("unexpected notification: %+v", msg)
	case <-time.After(50 * time.Millisecond):
	}
}

type testEnv struct {
	bookbank *Bookbank
	ds       *mocks.MockDataSource
	tx       *mocks.MockTx
	notifier *recordingNotifier
	redis    *miniredis.Miniredis
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	mr := miniredis.RunT(t)
	config.MockConfig(&config.Configuration{
		Redis:        config.RedisConfig{Dns: mr.Addr()},
		Lock:         config.LockConfig{TTLSeconds: 5, WaitSeconds: 1},
		Report:       config.ReportConfig{BatchSize: 2},
		Notification: config.Notification{Driver: config.NotificationDriverNone},
	})

	env := &testEnv{
		ds:       &mocks.MockDataSource{},
		tx:       &mocks.MockTx{},
		notifier: newRecordingNotifier(),
		redis:    mr,
	}
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	b, err := NewBookbank(env.ds, WithRedis(client), WithNotifier(env.notifier))
	require.NoError(t, err)
	env.bookbank = b
	return env
}

// expectTx sets up a transaction that is always rolled back on exit.
func (e *testEnv) expectTx() {
	e.ds.On("BeginTx", mock.Anything).Return(e.tx, nil)
	e.tx.On("Rollback").Return(nil)
}

func (e *testEnv) assertExpectations(t *testing.T) {
	e.ds.AssertExpectations(t)
	e.tx.AssertExpectations(t)
	for _, key := range e.redis.Keys() {
		assert.False(t, strings.HasPrefix(key, "bookbank:account:"), "account lock %s is still held", key)
	}
}

func fakeCaller() model.Caller {
	return model.Caller{UserID: gofakeit.UUID(), Email: gofakeit.Email(), Name: gofakeit.Name()}
}

func testAccount(caller model.Caller, id, no int64, balance string) *model.Account {
	return &model.Account{
		ID:          id,
		AccountNo:   no,
		UserID:      caller.UserID,
		AccountType: model.AccountTypeSavings,
		Balance:     decimal.RequireFromString(balance),
		CreatedAt:   time.Now().UTC(),
	}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// decEq matches a decimal argument by value rather than representation.
func decEq(s string) interface{} {
	want := decimal.RequireFromString(s)
	return mock.MatchedBy(func(d decimal.Decimal) bool { return d.Equal(want) })
}

func notFound() error {
	return apierror.NewAPIError(apierror.ErrNotFound, "not found", nil)
}

func TestNewBookbank_RequiresConfig(t *testing.T) {
	config.ConfigStore = atomic.Value{}
	_, err := NewBookbank(&mocks.MockDataSource{})
	assert.Error(t, err)
}

func TestNewBookbank_Defaults(t *testing.T) {
	env := newTestEnv(t)
	b := env.bookbank

	assert.True(t, b.rules.MinDeposit.Equal(decimal.NewFromInt(100)))
	assert.True(t, b.rules.MinWithdrawal.Equal(decimal.NewFromInt(100)))
	assert.True(t, b.rules.MinLoan.Equal(decimal.NewFromInt(1000)))
	assert.Equal(t, 3, b.rules.MaxLoans)
	assert.Equal(t, 5*time.Second, b.lockTTL)
	assert.Equal(t, time.Second, b.lockWait)
	assert.Equal(t, 2, b.reportBatchSize)
	assert.NoError(t, b.Close())
}

func TestNewBookbank_DialsConfiguredRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	config.MockConfig(&config.Configuration{
		Redis:        config.RedisConfig{Dns: mr.Addr()},
		Notification: config.Notification{Driver: config.NotificationDriverNone},
	})

	b, err := NewBookbank(&mocks.MockDataSource{})
	require.NoError(t, err)
	assert.NotNil(t, b.redis)
	assert.IsType(t, notification.NoopNotifier{}, b.notifier)
	assert.Equal(t, config.DEFAULT_REPORT_BATCH_SIZE, b.reportBatchSize)
}
