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
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/bookbank/bookbank/config"
	"github.com/bookbank/bookbank/model"
	"github.com/hibiken/asynq"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func depositMessage() Message {
	caller := fakeCaller()
	return Message{
		UserID:          caller.UserID,
		Email:           caller.Email,
		Name:            caller.Name,
		AccountNo:       100001,
		Amount:          decimal.NewFromInt(250),
		BalanceAfter:    decimal.NewFromInt(750),
		Subject:         DepositSubject,
		Template:        DepositTemplate,
		TransactionType: model.Deposit,
		TransactionID:   42,
	}
}

func TestQueueNotifier_Notify(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	notifier := NewQueueNotifier(asynq.RedisClientOpt{Addr: mr.Addr()}, "bookbank_notifications")
	defer func() { _ = notifier.Close() }()

	err = notifier.Notify(context.Background(), depositMessage())
	require.NoError(t, err)
	assert.NotEmpty(t, mr.Keys())

	assert.True(t, mr.Exists("asynq:{bookbank_notifications}:t:txn_email_42"))

	// the same ledger entry is only ever queued once
	err = notifier.Notify(context.Background(), depositMessage())
	assert.ErrorIs(t, err, asynq.ErrTaskIDConflict)
}

type fakePublisher struct {
	exchange string
	key      string
	msg      amqp.Publishing
	err      error
}

func (f *fakePublisher) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp.Publishing) error {
	f.exchange, f.key, f.msg = exchange, key, msg
	return f.err
}

func TestAMQPNotifier_Notify(t *testing.T) {
	pub := &fakePublisher{}
	notifier := NewAMQPNotifier(pub, "bookbank.notifications")

	msg := depositMessage()
	msg.TransactionType = model.Withdrawal
	require.NoError(t, notifier.Notify(context.Background(), msg))

	assert.Equal(t, "bookbank.notifications", pub.exchange)
	assert.Equal(t, "transaction.withdrawal", pub.key)
	assert.Equal(t, "application/json", pub.msg.ContentType)
	assert.Equal(t, amqp.Persistent, pub.msg.DeliveryMode)

	var body Message
	require.NoError(t, json.Unmarshal(pub.msg.Body, &body))
	assert.Equal(t, msg.Email, body.Email)
	assert.NoError(t, notifier.Close())
}

func TestAMQPNotifier_PublishError(t *testing.T) {
	pub := &fakePublisher{err: errors.New("channel closed")}
	notifier := NewAMQPNotifier(pub, "bookbank.notifications")
	assert.Error(t, notifier.Notify(context.Background(), depositMessage()))
}

func TestDialAMQPNotifier_InvalidURL(t *testing.T) {
	_, err := DialAMQPNotifier("http://broker:5672", "bookbank.notifications")
	assert.Error(t, err)
}

func TestNewNotifier(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	tests := []struct {
		name    string
		driver  string
		wantErr bool
		check   func(t *testing.T, n Notifier)
	}{
		{"queue", config.NotificationDriverQueue, false, func(t *testing.T, n Notifier) {
			assert.IsType(t, &QueueNotifier{}, n)
		}},
		{"none", config.NotificationDriverNone, false, func(t *testing.T, n Notifier) {
			assert.IsType(t, NoopNotifier{}, n)
			assert.NoError(t, n.Notify(context.Background(), depositMessage()))
		}},
		{"unknown", "carrier-pigeon", true, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conf := &config.Configuration{
				Redis:        config.RedisConfig{Dns: mr.Addr()},
				Queue:        config.QueueConfig{NotificationQueue: "bookbank_notifications"},
				Notification: config.Notification{Driver: tt.driver},
			}
			n, err := NewNotifier(conf)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			defer func() { _ = n.Close() }()
			tt.check(t, n)
		})
	}
}

func TestRedisConnOpt(t *testing.T) {
	opt, err := RedisConnOpt(&config.Configuration{Redis: config.RedisConfig{Dns: "redis://:secret@localhost:6380/2"}})
	require.NoError(t, err)
	assert.Equal(t, "localhost:6380", opt.Addr)
	assert.Equal(t, "secret", opt.Password)
	assert.Equal(t, 2, opt.DB)
}
