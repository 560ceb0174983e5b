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
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"
)

// TypeTransactionEmail is the asynq task type carrying a Message.
const TypeTransactionEmail = "notification:transaction_email"

// QueueNotifier enqueues messages on an asynq queue; the workers command delivers them.
type QueueNotifier struct {
	client *asynq.Client
	queue  string
}

func NewQueueNotifier(opt asynq.RedisConnOpt, queue string) *QueueNotifier {
	return &QueueNotifier{client: asynq.NewClient(opt), queue: queue}
}

func (q *QueueNotifier) Notify(ctx context.Context, msg Message) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	taskOptions := []asynq.Option{
		asynq.TaskID(fmt.Sprintf("txn_email_%d", msg.TransactionID)),
		asynq.Queue(q.queue),
		asynq.MaxRetry(5),
	}
	info, err := q.client.EnqueueContext(ctx, asynq.NewTask(TypeTransactionEmail, payload), taskOptions...)
	if err != nil {
		logrus.Errorf("failed to enqueue notification for transaction %d: %v", msg.TransactionID, err)
		return err
	}
	logrus.WithFields(logrus.Fields{"task_id": info.ID, "queue": info.Queue}).Debug("notification enqueued")
	return nil
}

func (q *QueueNotifier) Close() error {
	return q.client.Close()
}
