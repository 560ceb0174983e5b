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
	"fmt"

	"github.com/bookbank/bookbank/config"
	redis_db "github.com/bookbank/bookbank/internal/redis-db"
	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"
)

// Notifier hands a transaction email to whatever delivers it. Notify must not
// block on the delivery itself.
type Notifier interface {
	Notify(ctx context.Context, msg Message) error
	Close() error
}

// NoopNotifier drops every message.
type NoopNotifier struct{}

func (NoopNotifier) Notify(_ context.Context, msg Message) error {
	logrus.WithFields(logrus.Fields{
		"transaction_id": msg.TransactionID,
		"subject":        msg.Subject,
	}).Debug("notifications disabled, message dropped")
	return nil
}

func (NoopNotifier) Close() error { return nil }

// RedisConnOpt converts the configured redis address into asynq connection options.
func RedisConnOpt(conf *config.Configuration) (asynq.RedisClientOpt, error) {
	redisOption, err := redis_db.ParseRedisURL(conf.Redis.Dns, conf.Redis.SkipTLSVerify)
	if err != nil {
		return asynq.RedisClientOpt{}, err
	}
	return asynq.RedisClientOpt{
		Addr:      redisOption.Addr,
		Username:  redisOption.Username,
		Password:  redisOption.Password,
		DB:        redisOption.DB,
		TLSConfig: redisOption.TLSConfig,
	}, nil
}

// NewNotifier builds the notifier selected by notification.driver.
func NewNotifier(conf *config.Configuration) (Notifier, error) {
	switch conf.Notification.Driver {
	case config.NotificationDriverQueue, "":
		opt, err := RedisConnOpt(conf)
		if err != nil {
			return nil, err
		}
		return NewQueueNotifier(opt, conf.Queue.NotificationQueue), nil
	case config.NotificationDriverAMQP:
		return DialAMQPNotifier(conf.Notification.AMQP.Url, conf.Notification.AMQP.Exchange)
	case config.NotificationDriverNone:
		return NoopNotifier{}, nil
	default:
		return nil, fmt.Errorf("unknown notification driver: %s", conf.Notification.Driver)
	}
}
