package store

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/stdlib"
	"github.com/ngrok/sqlmw"
	"github.com/prometheus/client_golang/prometheus"
)

// instrumentedDriverName is the database/sql driver gorm opens postgres connections with.
const instrumentedDriverName = "pgx-instrumented"

var (
	verbRegex = regexp.MustCompile(`^\s*(\w+)`)

	dbOpLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Subsystem: "terramatch_workflow",
		Name:      "db_op_duration_seconds",
		Help:      "time spent on a database operation",
		Buckets:   []float64{0.005, 0.025, 0.1, 0.3, 1, 5},
	}, []string{"op", "verb"})

	dbOpErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Subsystem: "terramatch_workflow",
		Name:      "db_op_errors_total",
		Help:      "number of failed database operations",
	}, []string{"op"})

	registerDriverOnce sync.Once
)

func init() {
	prometheus.MustRegister(dbOpLatency, dbOpErrors)
}

func registerInstrumentedDriver() {
	registerDriverOnce.Do(func() {
		sql.Register(instrumentedDriverName, sqlmw.Driver(stdlib.GetDefaultDriver(), &metricInterceptor{}))
	})
}

// metricInterceptor observes statement and transaction latency, labelled by the SQL verb.
type metricInterceptor struct {
	sqlmw.NullInterceptor
}

func (mi *metricInterceptor) ConnBeginTx(ctx context.Context, conn driver.ConnBeginTx, opts driver.TxOptions) (context.Context, driver.Tx, error) {
	start := time.Now()
	tx, err := conn.BeginTx(ctx, opts)
	observe("begin", "begin", start, err)
	return ctx, tx, err
}

func (mi *metricInterceptor) ConnExecContext(ctx context.Context, conn driver.ExecerContext, query string, args []driver.NamedValue) (driver.Result, error) {
	start := time.Now()
	res, err := conn.ExecContext(ctx, query, args)
	observe("exec", verb(query), start, err)
	return res, err
}

func (mi *metricInterceptor) ConnQueryContext(ctx context.Context, conn driver.QueryerContext, query string, args []driver.NamedValue) (context.Context, driver.Rows, error) {
	start := time.Now()
	rows, err := conn.QueryContext(ctx, query, args)
	observe("query", verb(query), start, err)
	return ctx, rows, err
}

func (mi *metricInterceptor) StmtExecContext(ctx context.Context, stmt driver.StmtExecContext, query string, args []driver.NamedValue) (driver.Result, error) {
	start := time.Now()
	res, err := stmt.ExecContext(ctx, args)
	observe("stmt-exec", verb(query), start, err)
	return res, err
}

func (mi *metricInterceptor) StmtQueryContext(ctx context.Context, stmt driver.StmtQueryContext, query string, args []driver.NamedValue) (context.Context, driver.Rows, error) {
	start := time.Now()
	rows, err := stmt.QueryContext(ctx, args)
	observe("stmt-query", verb(query), start, err)
	return ctx, rows, err
}

func (mi *metricInterceptor) TxCommit(ctx context.Context, tx driver.Tx) error {
	start := time.Now()
	err := tx.Commit()
	observe("commit", "commit", start, err)
	return err
}

func (mi *metricInterceptor) TxRollback(ctx context.Context, tx driver.Tx) error {
	start := time.Now()
	err := tx.Rollback()
	observe("rollback", "rollback", start, err)
	return err
}

func verb(query string) string {
	matches := verbRegex.FindStringSubmatch(query)
	if len(matches) < 2 {
		return "unknown"
	}
	return strings.ToLower(matches[1])
}

func observe(op, verb string, start time.Time, err error) {
	dbOpLatency.WithLabelValues(op, verb).Observe(time.Since(start).Seconds())
	if err != nil && err != driver.ErrSkip {
		dbOpErrors.WithLabelValues(op).Inc()
	}
}
