package config

import (
	"time"

	"github.com/IBM/sarama"
	"github.com/kelseyhightower/envconfig"
)

var singleConfig *Config = nil

type Config struct {
	Database *dbConfig
	Service  *svcConfig
}

type dbConfig struct {
	Type     string `envconfig:"DB_TYPE" default:"pgsql"`
	Hostname string `envconfig:"DB_HOST" default:"localhost"`
	Port     string `envconfig:"DB_PORT" default:"5432"`
	Name     string `envconfig:"DB_NAME" default:"terramatch"`
	User     string `envconfig:"DB_USER" default:"admin"`
	Password string `envconfig:"DB_PASS" default:"adminpass"`
}

type svcConfig struct {
	Address         string `envconfig:"WORKFLOW_ADDRESS" default:":3080"`
	MetricsAddress  string `envconfig:"WORKFLOW_METRICS_ADDRESS" default:":8080"`
	LogLevel        string `envconfig:"WORKFLOW_LOG_LEVEL" default:"info"`
	LogFormat       string `envconfig:"WORKFLOW_LOG_FORMAT" default:"console"`
	MigrationFolder string `envconfig:"WORKFLOW_MIGRATIONS_FOLDER" default:""`
	Kafka           kafkaConfig
	Scheduler       schedulerConfig
	Queue           queueConfig
}

type kafkaConfig struct {
	Brokers  []string            `envconfig:"WORKFLOW_KAFKA_BROKERS" default:""`
	Topic    string              `envconfig:"WORKFLOW_KAFKA_TOPIC" default:""`
	Version  sarama.KafkaVersion `envconfig:"WORKFLOW_KAFKA_VERSION" default:""`
	ClientID string              `envconfig:"WORKFLOW_KAFKA_CLIENT_ID" default:"terramatch-workflow"`

	SaramaConfig *sarama.Config `ignored:"true"`
}

type schedulerConfig struct {
	// Interval between two dispatcher passes on this instance.
	Interval time.Duration `envconfig:"SCHEDULED_JOBS_INTERVAL" default:"5m"`
	// Standard deviation of the jitter applied to Interval so instances drift apart.
	Jitter time.Duration `envconfig:"SCHEDULED_JOBS_JITTER" default:"10s"`
	// Cron spec for the due-task reconciliation. Empty disables it.
	ReconcileSchedule string `envconfig:"TASK_RECONCILE_SCHEDULE" default:""`
}

type queueConfig struct {
	ScheduledJobsWorkers int `envconfig:"WORKFLOW_SCHEDULED_JOBS_WORKERS" default:"5"`
}

func New() (*Config, error) {
	if singleConfig == nil {
		singleConfig = new(Config)
		if err := envconfig.Process("", singleConfig); err != nil {
			return nil, err
		}
	}
	return singleConfig, nil
}

// NewDefault returns a fresh configuration built from the environment and defaults,
// bypassing the process-wide singleton.
func NewDefault() (*Config, error) {
	cfg := new(Config)
	if err := envconfig.Process("", cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
