package store

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/wri/terramatch-workflow/internal/config"
	"github.com/wri/terramatch-workflow/internal/store/model"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func InitDB(cfg *config.Config) (*gorm.DB, error) {
	var dia gorm.Dialector

	if cfg.Database.Type == "pgsql" {
		registerInstrumentedDriver()
		dia = postgres.New(postgres.Config{
			DriverName: instrumentedDriverName,
			DSN:        PostgresDSN(cfg),
		})
	} else {
		dia = sqlite.Open(cfg.Database.Name)
	}

	newLogger := logger.New(
		logrus.New(),
		logger.Config{
			SlowThreshold:             time.Second, // Slow SQL threshold
			LogLevel:                  logger.Warn, // Log level
			IgnoreRecordNotFoundError: true,        // Ignore ErrRecordNotFound error for logger
			ParameterizedQueries:      true,        // Don't include params in the SQL log
			Colorful:                  false,       // Disable color
		},
	)

	newDB, err := gorm.Open(dia, &gorm.Config{Logger: newLogger, TranslateError: true})
	if err != nil {
		zap.S().Named("gorm").Errorf("failed to connect database: %v", err)
		return nil, err
	}

	sqlDB, err := newDB.DB()
	if err != nil {
		zap.S().Named("gorm").Errorf("failed to configure connections: %v", err)
		return nil, err
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	if cfg.Database.Type != "pgsql" {
		// sqlite serializes writers; a single connection also keeps in-memory databases alive
		sqlDB.SetMaxOpenConns(1)
	}

	if cfg.Database.Type == "pgsql" {
		var minorVersion string
		if result := newDB.Raw("SELECT version()").Scan(&minorVersion); result.Error != nil {
			zap.S().Named("gorm").Infoln(result.Error.Error())
			return nil, result.Error
		}

		zap.S().Named("gorm").Infof("PostgreSQL information: '%s'", minorVersion)
	}

	return newDB, nil
}

// PostgresDSN builds the key/value connection string shared by gorm and the pgx pool.
func PostgresDSN(cfg *config.Config) string {
	dsn := fmt.Sprintf("host=%s user=%s password=%s port=%s",
		cfg.Database.Hostname,
		cfg.Database.User,
		cfg.Database.Password,
		cfg.Database.Port,
	)
	if cfg.Database.Name != "" {
		dsn = fmt.Sprintf("%s dbname=%s", dsn, cfg.Database.Name)
	}
	return dsn
}

// AutoMigrate creates the schema from the models. Used for sqlite databases;
// postgres schemas are owned by the goose migrations.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.Organisation{},
		&model.Project{},
		&model.Site{},
		&model.Nursery{},
		&model.Task{},
		&model.ProjectReport{},
		&model.SiteReport{},
		&model.NurseryReport{},
		&model.FinancialReport{},
		&model.Action{},
		&model.AuditStatus{},
		&model.ScheduledJob{},
		&model.FormQuestion{},
	)
}
