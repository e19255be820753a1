package report

import (
	"Go2NetEuclid/internal/config"
	"Go2NetEuclid/internal/model"
	"context"
	"fmt"
	"log"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
)

const createExperimentResultsTableStatement = `
CREATE TABLE IF NOT EXISTS experiment_results (
    StartedAt           DateTime,
    Experiment          String,
    Classifier          String,
    Input               String,
    DurationMs          Int64,
    TotalEntries        UInt64,
    TruePositives       UInt64,
    FalsePositives      UInt64,
    FalseNegatives      UInt64,
    TrueNegatives       UInt64,
    Precision           Float64,
    Recall              Float64,
    FalsePositiveRate   Float64,
    F1                  Float64
) ENGINE = MergeTree()
PARTITION BY toYYYYMM(StartedAt)
ORDER BY (Experiment, StartedAt);
`

const createWindowReportsTableStatement = `
CREATE TABLE IF NOT EXISTS window_reports (
    Timestamp       DateTime,
    Classifier      String,
    WindowID        UInt32,
    Warmup          UInt8,
    SrcEntropy      Float64,
    DstEntropy      Float64,
    SrcThreshold    Float64,
    DstThreshold    Float64,
    Anomalous       UInt8,
    PrevState       String,
    State           String,
    Records         UInt64,
    Marked          UInt64
) ENGINE = MergeTree()
PARTITION BY toYYYYMM(Timestamp)
ORDER BY (Classifier, Timestamp, WindowID);
`

// ClickHouseWriter persists experiment results and window reports to ClickHouse.
type ClickHouseWriter struct {
	conn driver.Conn
}

// NewClickHouseWriter connects to ClickHouse and ensures both tables exist.
func NewClickHouseWriter(cfg config.ClickHouseConfig) (*ClickHouseWriter, error) {
	conn, err := connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to clickhouse: %w", err)
	}
	return newClickHouseWriter(conn)
}

// newClickHouseWriter creates the tables on conn. conn is closed on failure.
func newClickHouseWriter(conn driver.Conn) (*ClickHouseWriter, error) {
	if err := conn.Exec(context.Background(), createExperimentResultsTableStatement); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create experiment_results table: %w", err)
	}
	if err := conn.Exec(context.Background(), createWindowReportsTableStatement); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create window_reports table: %w", err)
	}
	log.Println("Successfully connected to ClickHouse and ensured result tables exist.")

	return &ClickHouseWriter{conn: conn}, nil
}

func connect(cfg config.ClickHouseConfig) (driver.Conn, error) {
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{addr},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		},
	})
	if err != nil {
		return nil, err
	}

	if err := conn.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to ping clickhouse: %w", err)
	}
	return conn, nil
}

// Write inserts the experiment summary and all of its window reports.
func (w *ClickHouseWriter) Write(result *model.ExperimentResult) error {
	ctx := context.Background()
	batch, err := w.conn.PrepareBatch(ctx, "INSERT INTO experiment_results")
	if err != nil {
		return fmt.Errorf("failed to prepare batch: %w", err)
	}

	s := result.Summary
	if err := batch.Append(result.StartedAt, result.Name, result.Classifier, result.Input, result.Duration.Milliseconds(),
		s.TotalEntries, s.TruePositives, s.FalsePositives, s.FalseNegatives, s.TrueNegatives,
		s.Precision, s.Recall, s.FalsePositiveRate, s.F1); err != nil {
		batch.Abort()
		return fmt.Errorf("failed to append experiment result to batch: %w", err)
	}
	if err := batch.Send(); err != nil {
		return fmt.Errorf("failed to send batch: %w", err)
	}

	if err := w.appendWindows(ctx, result.StartedAt, result.Classifier, result.Windows); err != nil {
		return err
	}
	log.Printf("Wrote experiment '%s' and %d windows to ClickHouse", result.Name, len(result.Windows))
	return nil
}

// WriteWindows inserts reports produced by a streaming detector.
func (w *ClickHouseWriter) WriteWindows(classifier string, reports []model.WindowReport) error {
	return w.appendWindows(context.Background(), time.Now(), classifier, reports)
}

func (w *ClickHouseWriter) appendWindows(ctx context.Context, ts time.Time, classifier string, reports []model.WindowReport) error {
	if len(reports) == 0 {
		return nil
	}
	batch, err := w.conn.PrepareBatch(ctx, "INSERT INTO window_reports")
	if err != nil {
		return fmt.Errorf("failed to prepare batch: %w", err)
	}
	for _, r := range reports {
		err = batch.Append(ts, classifier, r.WindowID, boolToUInt8(r.Warmup),
			r.SrcEntropy, r.DstEntropy, r.SrcThreshold, r.DstThreshold,
			boolToUInt8(r.Anomalous), r.PrevState, r.State, r.Records, r.Marked)
		if err != nil {
			batch.Abort()
			return fmt.Errorf("failed to append window report to batch: %w", err)
		}
	}
	if err := batch.Send(); err != nil {
		return fmt.Errorf("failed to send batch: %w", err)
	}
	return nil
}

// Close releases the connection.
func (w *ClickHouseWriter) Close() error {
	return w.conn.Close()
}

func boolToUInt8(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}
