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

	"github.com/bookbank/bookbank/config"
	alerts "github.com/bookbank/bookbank/internal/notification"
	"github.com/bookbank/bookbank/internal/request"
	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"
)

// Email is what the mail relay receives.
type Email struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
}

// Mailer delivers a rendered email.
type Mailer interface {
	Send(ctx context.Context, email Email) error
}

// WebhookMailer posts emails as JSON to an HTTP mail relay.
type WebhookMailer struct {
	Url     string
	Headers map[string]string
}

func NewWebhookMailer(conf config.MailWebhook) *WebhookMailer {
	return &WebhookMailer{Url: conf.Url, Headers: conf.Headers}
}

func (m *WebhookMailer) Send(ctx context.Context, email Email) error {
	return request.PostJSON(ctx, m.Url, m.Headers, email, nil)
}

// Worker renders queued messages and hands them to a Mailer.
type Worker struct {
	mailer      Mailer
	projectName string
}

func NewWorker(mailer Mailer, projectName string) *Worker {
	return &Worker{mailer: mailer, projectName: projectName}
}

// ProcessTask handles TypeTransactionEmail tasks.
func (w *Worker) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var msg Message
	if err := json.Unmarshal(t.Payload(), &msg); err != nil {
		logrus.Errorf("error unmarshaling notification payload: %v", err)
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}

	if msg.Email == "" {
		logrus.WithField("user_id", msg.UserID).Warn("no email address for notification, skipping")
		return nil
	}

	body, err := msg.Render(w.projectName)
	if err != nil {
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}

	err = w.mailer.Send(ctx, Email{To: msg.Email, Subject: msg.Subject, HTML: body})
	if err != nil {
		retryCount, _ := asynq.GetRetryCount(ctx)
		maxRetry, _ := asynq.GetMaxRetry(ctx)
		if retryCount >= maxRetry {
			alerts.NotifyError(fmt.Errorf("giving up on %s for transaction %d: %w", msg.Subject, msg.TransactionID, err))
		}
		return err
	}

	logrus.WithFields(logrus.Fields{
		"transaction_id": msg.TransactionID,
		"subject":        msg.Subject,
	}).Info("transaction email sent")
	return nil
}
