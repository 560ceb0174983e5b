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
	"embed"
	"time"

	"github.com/bookbank/bookbank/config"
	"github.com/bookbank/bookbank/database"
	"github.com/bookbank/bookbank/internal/cache"
	redlock "github.com/bookbank/bookbank/internal/lock"
	redis_db "github.com/bookbank/bookbank/internal/redis-db"
	"github.com/bookbank/bookbank/model"
	"github.com/bookbank/bookbank/notification"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("bookbank")

//go:embed sql/*.sql
var SQLFiles embed.FS

// Bookbank runs the transaction operations of account holders. Every balance
// mutation holds the redis lock of each account it touches and then runs in
// one database transaction.
type Bookbank struct {
	datasource      database.IDataSource
	redis           redis.UniversalClient
	notifier        notification.Notifier
	accountRefs     cache.Cache
	rules           config.RulesConfig
	lockTTL         time.Duration
	lockWait        time.Duration
	reportBatchSize int
}

type Option func(*Bookbank)

// WithRedis uses client for the account locks instead of dialing the configured redis.
func WithRedis(client redis.UniversalClient) Option {
	return func(b *Bookbank) { b.redis = client }
}

// WithNotifier replaces the notifier selected by the configured driver.
func WithNotifier(n notification.Notifier) Option {
	return func(b *Bookbank) { b.notifier = n }
}

// WithCache replaces the redis-backed account reference cache.
func WithCache(c cache.Cache) Option {
	return func(b *Bookbank) { b.accountRefs = c }
}

// NewBookbank wires the service around db using the loaded configuration.
func NewBookbank(db database.IDataSource, opts ...Option) (*Bookbank, error) {
	conf, err := config.Fetch()
	if err != nil {
		return nil, err
	}

	b := &Bookbank{
		datasource:      db,
		rules:           conf.Rules.WithDefaults(),
		lockTTL:         seconds(conf.Lock.TTLSeconds, config.DEFAULT_LOCK_TTL_SECONDS),
		lockWait:        seconds(conf.Lock.WaitSeconds, config.DEFAULT_LOCK_WAIT_SECONDS),
		reportBatchSize: conf.Report.BatchSize,
	}
	if b.reportBatchSize <= 0 {
		b.reportBatchSize = config.DEFAULT_REPORT_BATCH_SIZE
	}
	for _, opt := range opts {
		opt(b)
	}

	if b.redis == nil {
		redisClient, err := redis_db.NewRedisClient([]string{conf.Redis.Dns}, conf.Redis.SkipTLSVerify)
		if err != nil {
			return nil, err
		}
		b.redis = redisClient.Client()
	}
	if b.accountRefs == nil {
		b.accountRefs = cache.NewDefaultRedisCache(b.redis)
	}
	if b.notifier == nil {
		b.notifier, err = notification.NewNotifier(conf)
		if err != nil {
			return nil, err
		}
	}
	return b, nil
}

// Close releases the notifier.
func (b *Bookbank) Close() error {
	return b.notifier.Close()
}

func seconds(value, fallback int) time.Duration {
	if value <= 0 {
		value = fallback
	}
	return time.Duration(value) * time.Second
}

func logAndRecordError(span trace.Span, msg string, err error) error {
	span.RecordError(err)
	logrus.Error(msg, err)
	return err
}

// lockAccounts takes the redis locks of the given account numbers, in sorted order.
func (b *Bookbank) lockAccounts(ctx context.Context, accountNos ...int64) (*redlock.MultiLocker, error) {
	keys := make([]string, 0, len(accountNos))
	for _, no := range accountNos {
		keys = append(keys, redlock.AccountKey(no))
	}
	locker := redlock.NewMultiLocker(b.redis, model.GenerateUUIDWithSuffix("lock"), keys...)
	if err := locker.WaitLock(ctx, b.lockTTL, b.lockWait); err != nil {
		return nil, err
	}
	return locker, nil
}

func (b *Bookbank) unlock(ctx context.Context, locker *redlock.MultiLocker) {
	if err := locker.Unlock(context.WithoutCancel(ctx)); err != nil {
		logrus.Errorf("failed to release account lock: %v", err)
	}
}

// inTx runs fn in one database transaction and commits when fn succeeds.
func (b *Bookbank) inTx(ctx context.Context, op string, fn func(tx database.Tx) error) error {
	tx, err := b.datasource.BeginTx(ctx)
	if err != nil {
		return operationFailed(op, err)
	}
	defer func() {
		if err := tx.Rollback(); err != nil {
			logrus.Errorf("%s: rollback failed: %v", op, err)
		}
	}()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return operationFailed(op, err)
	}
	return nil
}

// notify hands deposit and withdrawal emails to the notifier without
// delaying or failing the operation that produced them.
func (b *Bookbank) notify(caller model.Caller, account *model.Account, txn *model.Transaction) {
	msg, ok := notification.NewTransactionMessage(caller, account, txn)
	if !ok {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := b.notifier.Notify(ctx, msg); err != nil {
			logrus.WithFields(logrus.Fields{
				"transaction_id": txn.ID,
				"subject":        msg.Subject,
			}).Errorf("failed to send notification: %v", err)
		}
	}()
}
