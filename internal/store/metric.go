package store

import (
	"context"
	"database/sql/driver"
	"regexp"
	"strings"
	"time"

	"github.com/ngrok/sqlmw"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	opRegex       = regexp.MustCompile(`^\s*(\w+)`)
	dbOpLatency   *prometheus.HistogramVec
	dbOpTotal     *prometheus.CounterVec
	dbOpFailTotal *prometheus.CounterVec
)

// metricInterceptor instruments the postgres driver. Only the calls that reach the
// server are measured; everything else falls through to the null interceptor.
type metricInterceptor struct {
	sqlmw.NullInterceptor
}

func init() {
	dbOpLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:      "db_op_duration_milliseconds",
		Help:      "Time spent on a database operation",
		Subsystem: "assessment_portal",
		Buckets:   []float64{5, 25, 100, 300, 1000, 5000},
	},
		[]string{"op", "method"},
	)
	dbOpTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:      "db_op_total",
		Help:      "Number of database operations",
		Subsystem: "assessment_portal",
	},
		[]string{"op"},
	)
	dbOpFailTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:      "db_op_failures_total",
		Help:      "Number of failed database operations",
		Subsystem: "assessment_portal",
	},
		[]string{"op"},
	)

	prometheus.MustRegister(dbOpLatency, dbOpTotal, dbOpFailTotal)
}

func (mi *metricInterceptor) ConnBeginTx(ctx context.Context, conn driver.ConnBeginTx, opts driver.TxOptions) (context.Context, driver.Tx, error) {
	start := time.Now()
	tx, err := conn.BeginTx(ctx, opts)
	mi.measure("begin", "begin", start, err)
	return ctx, tx, err
}

func (mi *metricInterceptor) ConnExecContext(ctx context.Context, conn driver.ExecerContext, query string, args []driver.NamedValue) (driver.Result, error) {
	start := time.Now()
	res, err := conn.ExecContext(ctx, query, args)
	mi.measure("exec", statementMethod(query), start, err)
	return res, err
}

func (mi *metricInterceptor) ConnQueryContext(ctx context.Context, conn driver.QueryerContext, query string, args []driver.NamedValue) (context.Context, driver.Rows, error) {
	start := time.Now()
	rows, err := conn.QueryContext(ctx, query, args)
	mi.measure("query", statementMethod(query), start, err)
	return ctx, rows, err
}

func (mi *metricInterceptor) StmtExecContext(ctx context.Context, conn driver.StmtExecContext, query string, args []driver.NamedValue) (driver.Result, error) {
	start := time.Now()
	res, err := conn.ExecContext(ctx, args)
	mi.measure("stmt-exec", statementMethod(query), start, err)
	return res, err
}

func (mi *metricInterceptor) StmtQueryContext(ctx context.Context, conn driver.StmtQueryContext, query string, args []driver.NamedValue) (context.Context, driver.Rows, error) {
	start := time.Now()
	rows, err := conn.QueryContext(ctx, args)
	mi.measure("stmt-query", statementMethod(query), start, err)
	return ctx, rows, err
}

func (mi *metricInterceptor) TxCommit(ctx context.Context, conn driver.Tx) error {
	start := time.Now()
	err := conn.Commit()
	mi.measure("commit", "commit", start, err)
	return err
}

func (mi *metricInterceptor) TxRollback(ctx context.Context, conn driver.Tx) error {
	start := time.Now()
	err := conn.Rollback()
	mi.measure("rollback", "rollback", start, err)
	return err
}

func (mi *metricInterceptor) measure(op, method string, start time.Time, err error) {
	dbOpTotal.With(prometheus.Labels{"op": op}).Inc()
	if err != nil {
		dbOpFailTotal.With(prometheus.Labels{"op": op}).Inc()
	}
	dbOpLatency.With(prometheus.Labels{"op": op, "method": method}).
		Observe(float64(time.Since(start).Milliseconds()))
}

// statementMethod returns the leading sql verb, lower cased.
func statementMethod(query string) string {
	matches := opRegex.FindStringSubmatch(query)
	if len(matches) < 2 {
		return "unknown"
	}
	return strings.ToLower(matches[1])
}
