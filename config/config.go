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

package config

import (
	"encoding/json"
	"errors"
	"log"
	"os"
	"strings"
	"sync/atomic"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"

	"github.com/sirupsen/logrus"
)

const (
	DEFAULT_PORT = "5001"

	DEFAULT_MIN_DEPOSIT    = 100
	DEFAULT_MIN_WITHDRAWAL = 100
	DEFAULT_MIN_LOAN       = 1000
	DEFAULT_MAX_LOANS      = 3

	DEFAULT_LOCK_TTL_SECONDS  = 30
	DEFAULT_LOCK_WAIT_SECONDS = 10

	DEFAULT_NOTIFICATION_QUEUE = "bookbank_notifications"
	DEFAULT_MONITORING_PORT    = "5004"
	DEFAULT_REPORT_BATCH_SIZE  = 100

	NotificationDriverQueue = "queue"
	NotificationDriverAMQP  = "amqp"
	NotificationDriverNone  = "none"
)

var ConfigStore atomic.Value

type ServerConfig struct {
	SSL       bool   `json:"ssl" envconfig:"BOOKBANK_SERVER_SSL"`
	SecretKey string `json:"secret_key" envconfig:"BOOKBANK_SERVER_SECRET_KEY"`
	Domain    string `json:"domain" envconfig:"BOOKBANK_SERVER_SSL_DOMAIN"`
	Email     string `json:"ssl_email" envconfig:"BOOKBANK_SERVER_SSL_EMAIL"`
	Port      string `json:"port" envconfig:"BOOKBANK_SERVER_PORT"`
}

type DataSourceConfig struct {
	Dns string `json:"dns" envconfig:"BOOKBANK_DATA_SOURCE_DNS"`
}

type RedisConfig struct {
	Dns           string `json:"dns" envconfig:"BOOKBANK_REDIS_DNS"`
	SkipTLSVerify bool   `json:"skip_tls_verify" envconfig:"BOOKBANK_REDIS_SKIP_TLS_VERIFY"`
}

// LockConfig controls the per-account redis lock taken around every balance mutation.
type LockConfig struct {
	TTLSeconds  int `json:"ttl_seconds" envconfig:"BOOKBANK_LOCK_TTL_SECONDS"`
	WaitSeconds int `json:"wait_seconds" envconfig:"BOOKBANK_LOCK_WAIT_SECONDS"`
}

// RulesConfig holds the transaction thresholds. A zero threshold falls back to the default.
type RulesConfig struct {
	MinDeposit    decimal.Decimal `json:"min_deposit" envconfig:"BOOKBANK_RULES_MIN_DEPOSIT"`
	MinWithdrawal decimal.Decimal `json:"min_withdrawal" envconfig:"BOOKBANK_RULES_MIN_WITHDRAWAL"`
	MinLoan       decimal.Decimal `json:"min_loan" envconfig:"BOOKBANK_RULES_MIN_LOAN"`
	MaxLoans      int             `json:"max_loans" envconfig:"BOOKBANK_RULES_MAX_LOANS"`
}

type QueueConfig struct {
	NotificationQueue string `json:"notification_queue" envconfig:"BOOKBANK_QUEUE_NOTIFICATION"`
	Concurrency       int    `json:"concurrency" envconfig:"BOOKBANK_QUEUE_CONCURRENCY"`
	MonitoringPort    string `json:"monitoring_port" envconfig:"BOOKBANK_QUEUE_MONITORING_PORT"`
}

type RateLimitConfig struct {
	RequestsPerSecond  *float64 `json:"requests_per_second" envconfig:"BOOKBANK_RATE_LIMIT_RPS"`
	Burst              *int     `json:"burst" envconfig:"BOOKBANK_RATE_LIMIT_BURST"`
	CleanupIntervalSec *int     `json:"cleanup_interval_sec" envconfig:"BOOKBANK_RATE_LIMIT_CLEANUP_INTERVAL_SEC"`
}

type ReportConfig struct {
	BatchSize int `json:"batch_size" envconfig:"BOOKBANK_REPORT_BATCH_SIZE"`
}

type SlackWebhook struct {
	WebhookUrl string `json:"webhook_url" envconfig:"BOOKBANK_SLACK_WEBHOOK_URL"`
}

// MailWebhook is the relay that turns rendered notification messages into emails.
type MailWebhook struct {
	Url     string            `json:"url" envconfig:"BOOKBANK_MAIL_WEBHOOK_URL"`
	Headers map[string]string `json:"headers"`
}

type AMQPConfig struct {
	Url      string `json:"url" envconfig:"BOOKBANK_AMQP_URL"`
	Exchange string `json:"exchange" envconfig:"BOOKBANK_AMQP_EXCHANGE"`
}

type Notification struct {
	Driver string       `json:"driver" envconfig:"BOOKBANK_NOTIFICATION_DRIVER"`
	Slack  SlackWebhook `json:"slack"`
	Mail   MailWebhook  `json:"mail"`
	AMQP   AMQPConfig   `json:"amqp"`
}

type OtelConfig struct {
	Endpoint string `json:"endpoint" envconfig:"BOOKBANK_OTEL_ENDPOINT"`
	Insecure bool   `json:"insecure" envconfig:"BOOKBANK_OTEL_INSECURE"`
}

type Configuration struct {
	ProjectName     string           `json:"project_name" envconfig:"BOOKBANK_PROJECT_NAME"`
	Server          ServerConfig     `json:"server"`
	DataSource      DataSourceConfig `json:"data_source"`
	Redis           RedisConfig      `json:"redis"`
	Lock            LockConfig       `json:"lock"`
	Rules           RulesConfig      `json:"rules"`
	Queue           QueueConfig      `json:"queue"`
	Notification    Notification     `json:"notification"`
	RateLimit       RateLimitConfig  `json:"rate_limit"`
	Report          ReportConfig     `json:"report"`
	EnableTelemetry bool             `json:"enable_telemetry" envconfig:"BOOKBANK_ENABLE_TELEMETRY"`
	Otel            OtelConfig       `json:"otel"`
}

func loadConfigFromFile(file string) error {
	var cnf Configuration
	_, err := os.Stat(file)
	if err == nil {
		f, err := os.Open(file)
		if err != nil {
			return err
		}
		defer f.Close()
		err = json.NewDecoder(f).Decode(&cnf)
		if err != nil {
			return err
		}
	} else if errors.Is(err, os.ErrNotExist) {
		log.Println("config json not passed, will use env variables")
	}

	// override config from environment variables
	err = envconfig.Process("bookbank", &cnf)
	if err != nil {
		return err
	}

	err = cnf.validateAndAddDefaults()
	if err != nil {
		return err
	}

	ConfigStore.Store(&cnf)
	return nil
}

func InitConfig(configFile string) error {
	logger()
	return loadConfigFromFile(configFile)
}

func Fetch() (*Configuration, error) {
	config := ConfigStore.Load()
	c, ok := config.(*Configuration)
	if !ok {
		return nil, errors.New("config not loaded from file. Create a json file called bookbank.json with your config")
	}
	return c, nil
}

func (cnf *Configuration) validateAndAddDefaults() error {
	if cnf.ProjectName == "" {
		log.Println("Warning: Project name is empty. Setting a default name.")
		cnf.ProjectName = "Bookbank"
	}

	if cnf.DataSource.Dns == "" {
		log.Println("Error: Data source DNS is empty. It's a required field.")
		return errors.New("data source DNS is required")
	}

	if cnf.Redis.Dns == "" {
		log.Println("Error: Redis DNS is empty. It's a required field.")
		return errors.New("redis DNS is required")
	}

	cnf.ProjectName = strings.TrimSpace(cnf.ProjectName)
	cnf.Server.Port = strings.TrimSpace(cnf.Server.Port)
	cnf.DataSource.Dns = strings.TrimSpace(cnf.DataSource.Dns)
	cnf.Redis.Dns = strings.TrimSpace(cnf.Redis.Dns)

	if cnf.Server.Port == "" {
		cnf.Server.Port = DEFAULT_PORT
		log.Printf("Warning: Port not specified in config. Setting default port: %s", DEFAULT_PORT)
	}

	cnf.Rules.addDefaults()

	if cnf.Lock.TTLSeconds <= 0 {
		cnf.Lock.TTLSeconds = DEFAULT_LOCK_TTL_SECONDS
	}
	if cnf.Lock.WaitSeconds <= 0 {
		cnf.Lock.WaitSeconds = DEFAULT_LOCK_WAIT_SECONDS
	}

	if cnf.Queue.NotificationQueue == "" {
		cnf.Queue.NotificationQueue = DEFAULT_NOTIFICATION_QUEUE
	}
	if cnf.Queue.Concurrency <= 0 {
		cnf.Queue.Concurrency = 5
	}
	if cnf.Queue.MonitoringPort == "" {
		cnf.Queue.MonitoringPort = DEFAULT_MONITORING_PORT
	}

	if cnf.Report.BatchSize <= 0 {
		cnf.Report.BatchSize = DEFAULT_REPORT_BATCH_SIZE
	}

	switch cnf.Notification.Driver {
	case "":
		cnf.Notification.Driver = NotificationDriverQueue
	case NotificationDriverQueue, NotificationDriverNone:
	case NotificationDriverAMQP:
		if cnf.Notification.AMQP.Url == "" {
			return errors.New("amqp url is required for the amqp notification driver")
		}
		if cnf.Notification.AMQP.Exchange == "" {
			cnf.Notification.AMQP.Exchange = "bookbank.notifications"
		}
	default:
		return errors.New("unknown notification driver: " + cnf.Notification.Driver)
	}

	// Rate limiting is disabled by default (when both RPS and Burst are nil)
	if cnf.RateLimit.RequestsPerSecond != nil && cnf.RateLimit.Burst == nil {
		defaultBurst := 2 * int(*cnf.RateLimit.RequestsPerSecond)
		cnf.RateLimit.Burst = &defaultBurst
		log.Printf("Warning: Rate limit burst not specified. Setting default value: %d", defaultBurst)
	}
	if cnf.RateLimit.RequestsPerSecond == nil && cnf.RateLimit.Burst != nil {
		defaultRPS := float64(*cnf.RateLimit.Burst) / 2
		cnf.RateLimit.RequestsPerSecond = &defaultRPS
		log.Printf("Warning: Rate limit RPS not specified. Setting default value: %.2f", defaultRPS)
	}
	if cnf.RateLimit.CleanupIntervalSec == nil {
		defaultCleanup := 10800
		cnf.RateLimit.CleanupIntervalSec = &defaultCleanup
	}

	return nil
}

func (r *RulesConfig) addDefaults() {
	if r.MinDeposit.IsZero() {
		r.MinDeposit = decimal.NewFromInt(DEFAULT_MIN_DEPOSIT)
	}
	if r.MinWithdrawal.IsZero() {
		r.MinWithdrawal = decimal.NewFromInt(DEFAULT_MIN_WITHDRAWAL)
	}
	if r.MinLoan.IsZero() {
		r.MinLoan = decimal.NewFromInt(DEFAULT_MIN_LOAN)
	}
	if r.MaxLoans <= 0 {
		r.MaxLoans = DEFAULT_MAX_LOANS
	}
}

// WithDefaults returns a copy of r with every unset threshold filled in.
func (r RulesConfig) WithDefaults() RulesConfig {
	r.addDefaults()
	return r
}

// DefaultRules returns the thresholds used when no rules section is configured.
func DefaultRules() RulesConfig {
	var r RulesConfig
	r.addDefaults()
	return r
}

// MockConfig sets a mock configuration for testing purposes.
func MockConfig(mockConfig *Configuration) {
	ConfigStore.Store(mockConfig)
}

func logger() {
	logger := logrus.New()
	log.SetOutput(logger.Writer())
}
