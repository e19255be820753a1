package report

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
)

// fakeConn implements the parts of driver.Conn the writer uses.
type fakeConn struct {
	driver.Conn
	failExec   string
	closed     bool
	batch      *fakeBatch
	statements []string
}

func (c *fakeConn) Exec(ctx context.Context, query string, args ...any) error {
	c.statements = append(c.statements, query)
	if c.failExec != "" && strings.Contains(query, c.failExec) {
		return errors.New("exec failed")
	}
	return nil
}

func (c *fakeConn) PrepareBatch(ctx context.Context, query string, opts ...driver.PrepareBatchOption) (driver.Batch, error) {
	return c.batch, nil
}

func (c *fakeConn) Close() error {
	c.closed = true
	return nil
}

type fakeBatch struct {
	driver.Batch
	failAppend bool
	aborted    bool
	sent       bool
	rows       int
}

func (b *fakeBatch) Append(v ...any) error {
	if b.failAppend {
		return errors.New("append failed")
	}
	b.rows++
	return nil
}

func (b *fakeBatch) Abort() error {
	b.aborted = true
	return nil
}

func (b *fakeBatch) Send() error {
	b.sent = true
	return nil
}

func TestClickHouseWriter_ClosesConnOnTableFailure(t *testing.T) {
	for _, table := range []string{"experiment_results", "window_reports"} {
		conn := &fakeConn{failExec: table}
		if _, err := newClickHouseWriter(conn); err == nil {
			t.Fatalf("Expected an error when creating %s fails", table)
		}
		if !conn.closed {
			t.Errorf("Expected the connection to be closed after %s failed", table)
		}
	}

	conn := &fakeConn{}
	if _, err := newClickHouseWriter(conn); err != nil {
		t.Fatalf("newClickHouseWriter failed: %v", err)
	}
	if conn.closed || len(conn.statements) != 2 {
		t.Errorf("Expected an open connection after 2 statements, got closed=%v statements=%d", conn.closed, len(conn.statements))
	}
}

func TestClickHouseWriter_AbortsBatchOnAppendFailure(t *testing.T) {
	batch := &fakeBatch{failAppend: true}
	w := &ClickHouseWriter{conn: &fakeConn{batch: batch}}
	if err := w.Write(sampleResult()); err == nil {
		t.Fatal("Expected Write to fail")
	}
	if !batch.aborted || batch.sent {
		t.Errorf("Expected the result batch to be aborted, got aborted=%v sent=%v", batch.aborted, batch.sent)
	}

	batch = &fakeBatch{failAppend: true}
	w = &ClickHouseWriter{conn: &fakeConn{batch: batch}}
	if err := w.WriteWindows("EUCLID", sampleResult().Windows); err == nil {
		t.Fatal("Expected WriteWindows to fail")
	}
	if !batch.aborted || batch.sent {
		t.Errorf("Expected the window batch to be aborted, got aborted=%v sent=%v", batch.aborted, batch.sent)
	}
}

func TestClickHouseWriter_WritesWindows(t *testing.T) {
	batch := &fakeBatch{}
	w := &ClickHouseWriter{conn: &fakeConn{batch: batch}}
	if err := w.WriteWindows("EUCLID", sampleResult().Windows); err != nil {
		t.Fatalf("WriteWindows failed: %v", err)
	}
	if batch.rows != 2 || !batch.sent || batch.aborted {
		t.Errorf("Expected 2 rows sent, got rows=%d sent=%v aborted=%v", batch.rows, batch.sent, batch.aborted)
	}
}
