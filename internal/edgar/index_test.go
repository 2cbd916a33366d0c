package edgar

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
)

// buildMasterZip packs the given data lines into a master.zip archive with
// the 11-line header block that precedes real index data. The column legend
// row is deliberately pipe-delimited: if header skipping ever broke, it
// would leak into the parsed rows.
func buildMasterZip(t *testing.T, dataLines ...string) []byte {
	t.Helper()

	var idx bytes.Buffer
	idx.WriteString("Description:           Master Index of EDGAR Dissemination Feed\n")
	idx.WriteString("Last Data Received:    March 31, 2023\n")
	idx.WriteString("Comments:              webmaster@sec.gov\n")
	idx.WriteString("Anonymous FTP:         ftp://ftp.sec.gov/edgar/\n")
	idx.WriteString("Cloud HTTP:            https://www.sec.gov/Archives/\n")
	idx.WriteString("\n")
	idx.WriteString("\n")
	idx.WriteString("\n")
	idx.WriteString("\n")
	idx.WriteString("CIK|Company Name|Form Type|Date Filed|Filename\n")
	idx.WriteString(strings.Repeat("-", 80) + "\n")
	for _, line := range dataLines {
		idx.WriteString(line)
		idx.WriteString("\n")
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("master.idx")
	if err != nil {
		t.Fatalf("failed to create zip member: %v", err)
	}
	if _, err := w.Write(idx.Bytes()); err != nil {
		t.Fatalf("failed to write zip member: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("failed to close zip: %v", err)
	}
	return buf.Bytes()
}

// quarterURL builds the master.zip URL the indexer derives for a quarter.
func quarterURL(year, quarter int) string {
	return fmt.Sprintf("https://www.sec.gov/Archives/edgar/full-index/%d/QTR%d/master.zip", year, quarter)
}

// TestParseMasterZip tests archive unpacking and line parsing.
func TestParseMasterZip(t *testing.T) {
	t.Parallel()

	ix := NewIndexer(nil)

	t.Run("parses data rows and drops the header block", func(t *testing.T) {
		t.Parallel()

		data := buildMasterZip(t,
			"320193|Apple Inc.|10-Q|2023-02-02|edgar/data/320193/0000320193-23-000006.txt",
			"1018724|AMAZON COM INC|8-K|2023-02-03|edgar/data/1018724/0001018724-23-000010.txt",
		)

		lines, err := ix.parseMasterZip(data)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(lines) != 2 {
			t.Fatalf("expected 2 lines, got %d: %v", len(lines), lines)
		}
		if !strings.HasPrefix(lines[0], "320193|Apple Inc.|10-Q|") {
			t.Errorf("unexpected first line: %q", lines[0])
		}
		for _, line := range lines {
			if strings.HasPrefix(line, "CIK|") {
				t.Errorf("column legend leaked into data rows: %q", line)
			}
		}
	})

	t.Run("decodes latin-1 company names", func(t *testing.T) {
		t.Parallel()

		// 0xE9 is é in Latin-1 and an invalid byte sequence in UTF-8.
		data := buildMasterZip(t,
			"947484|ACE SECURITIES CORP SOCI\xc9T\xc9|10-K|2023-03-01|edgar/data/947484/0000947484-23-000001.txt",
		)

		lines, err := ix.parseMasterZip(data)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(lines) != 1 {
			t.Fatalf("expected 1 line, got %d", len(lines))
		}
		if !strings.Contains(lines[0], "SOCIÉTÉ") {
			t.Errorf("latin-1 bytes were not decoded: %q", lines[0])
		}
	})

	t.Run("skips malformed and blank rows", func(t *testing.T) {
		t.Parallel()

		data := buildMasterZip(t,
			"320193|Apple Inc.|10-Q|2023-02-02|edgar/data/320193/0000320193-23-000006.txt",
			"garbage row without delimiters",
			"too|few|fields",
			"",
			"1018724|AMAZON COM INC|8-K|2023-02-03|edgar/data/1018724/0001018724-23-000010.txt",
		)

		lines, err := ix.parseMasterZip(data)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(lines) != 2 {
			t.Errorf("expected 2 well-formed lines, got %d: %v", len(lines), lines)
		}
	})

	t.Run("rejects archive without master.idx", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		zw := zip.NewWriter(&buf)
		w, err := zw.Create("other.idx")
		if err != nil {
			t.Fatalf("failed to create zip member: %v", err)
		}
		if _, err := w.Write([]byte("data")); err != nil {
			t.Fatalf("failed to write zip member: %v", err)
		}
		if err := zw.Close(); err != nil {
			t.Fatalf("failed to close zip: %v", err)
		}

		if _, err := ix.parseMasterZip(buf.Bytes()); err == nil {
			t.Error("expected error for archive without master.idx")
		}
	})

	t.Run("rejects non-zip payload", func(t *testing.T) {
		t.Parallel()

		if _, err := ix.parseMasterZip([]byte("<html>Not Found</html>")); err == nil {
			t.Error("expected error for non-zip payload")
		}
	})
}

// TestAcquireIndices tests the quarter walk, the future skip and the retry
// pass loop.
func TestAcquireIndices(t *testing.T) {
	t.Parallel()

	// Fixed clock: mid-June 2023, so 2023 QTR1/QTR2 have elapsed.
	clock := func() time.Time {
		return time.Date(2023, time.June, 15, 12, 0, 0, 0, time.UTC)
	}

	row := "320193|Apple Inc.|10-K|2022-10-28|edgar/data/320193/0000320193-22-000108.txt"

	t.Run("downloads every elapsed quarter", func(t *testing.T) {
		t.Parallel()

		stub := newStubFetcher()
		for q := 1; q <= 4; q++ {
			stub.bodies[quarterURL(2022, q)] = buildMasterZip(t, row)
		}

		ix := NewIndexer(stub, WithClock(clock))
		acquired, skipped, err := ix.AcquireIndices(context.Background(), 2022, 2022, []int{1, 2, 3, 4})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(acquired) != 4 {
			t.Fatalf("expected 4 quarters, got %d", len(acquired))
		}
		if len(skipped) != 0 {
			t.Errorf("expected no skipped quarters, got %v", skipped)
		}
		if got := acquired[0].Key(); got != "2022-QTR1" {
			t.Errorf("first key = %q, want %q", got, "2022-QTR1")
		}
		if len(acquired[0].Lines) != 1 {
			t.Errorf("expected 1 line in first quarter, got %d", len(acquired[0].Lines))
		}
	})

	t.Run("skips quarters that have not elapsed", func(t *testing.T) {
		t.Parallel()

		stub := newStubFetcher()
		stub.bodies[quarterURL(2023, 1)] = buildMasterZip(t, row)
		stub.bodies[quarterURL(2023, 2)] = buildMasterZip(t, row)

		ix := NewIndexer(stub, WithClock(clock))
		acquired, skipped, err := ix.AcquireIndices(context.Background(), 2023, 2023, []int{1, 2, 3, 4})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(acquired) != 2 {
			t.Errorf("expected 2 acquired quarters, got %d", len(acquired))
		}
		wantSkipped := []string{"2023-QTR3", "2023-QTR4"}
		if len(skipped) != len(wantSkipped) {
			t.Fatalf("skipped = %v, want %v", skipped, wantSkipped)
		}
		for i, want := range wantSkipped {
			if skipped[i] != want {
				t.Errorf("skipped[%d] = %q, want %q", i, skipped[i], want)
			}
		}
		// Future quarters must not be requested at all
		if got := stub.callCount(quarterURL(2023, 3)); got != 0 {
			t.Errorf("future quarter was fetched %d times", got)
		}
	})

	t.Run("skips whole future years", func(t *testing.T) {
		t.Parallel()

		stub := newStubFetcher()
		ix := NewIndexer(stub, WithClock(clock))

		acquired, skipped, err := ix.AcquireIndices(context.Background(), 2024, 2024, []int{1, 2})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(acquired) != 0 {
			t.Errorf("expected no acquired quarters, got %d", len(acquired))
		}
		if len(skipped) != 2 {
			t.Errorf("expected 2 skipped quarters, got %v", skipped)
		}
		if stub.totalCalls() != 0 {
			t.Errorf("future year triggered %d fetches", stub.totalCalls())
		}
	})

	t.Run("retries failed quarters in force mode until they succeed", func(t *testing.T) {
		t.Parallel()

		flaky := quarterURL(2022, 2)
		stub := newStubFetcher()
		stub.bodies[quarterURL(2022, 1)] = buildMasterZip(t, row)
		stub.bodies[flaky] = buildMasterZip(t, row)
		stub.failures[flaky] = 2

		ix := NewIndexer(stub, WithClock(clock))
		acquired, _, err := ix.AcquireIndices(context.Background(), 2022, 2022, []int{1, 2})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(acquired) != 2 {
			t.Fatalf("expected 2 quarters after retries, got %d", len(acquired))
		}

		// 2 failures then success: one plain attempt plus two forced passes
		if got := stub.callCount(flaky); got != 3 {
			t.Errorf("flaky quarter fetched %d times, want 3", got)
		}
		if got := stub.forcedCount(flaky); got != 2 {
			t.Errorf("flaky quarter forced %d times, want 2", got)
		}
		if got := stub.callCount(quarterURL(2022, 1)); got != 1 {
			t.Errorf("healthy quarter fetched %d times, want 1", got)
		}
	})

	t.Run("pass ceiling surfaces stuck error with partial progress", func(t *testing.T) {
		t.Parallel()

		dead := quarterURL(2022, 2)
		stub := newStubFetcher()
		stub.bodies[quarterURL(2022, 1)] = buildMasterZip(t, row)
		stub.failures[dead] = -1

		ix := NewIndexer(stub, WithClock(clock), WithIndexRetryPasses(2))
		acquired, _, err := ix.AcquireIndices(context.Background(), 2022, 2022, []int{1, 2})

		var stuck *StuckError
		if !errors.As(err, &stuck) {
			t.Fatalf("expected StuckError, got %v", err)
		}
		if stuck.Passes != 2 {
			t.Errorf("Passes = %d, want 2", stuck.Passes)
		}
		if len(stuck.Outstanding) != 1 || stuck.Outstanding[0] != dead {
			t.Errorf("Outstanding = %v, want [%s]", stuck.Outstanding, dead)
		}
		if stuck.Stage != "index acquisition" {
			t.Errorf("Stage = %q", stuck.Stage)
		}
		// The healthy quarter still came back
		if len(acquired) != 1 {
			t.Errorf("expected 1 acquired quarter alongside the error, got %d", len(acquired))
		}
	})

	t.Run("cancelled context stops the walk", func(t *testing.T) {
		t.Parallel()

		stub := newStubFetcher()
		stub.failures[quarterURL(2022, 1)] = -1

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		ix := NewIndexer(stub, WithClock(clock))
		_, _, err := ix.AcquireIndices(ctx, 2022, 2022, []int{1})
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})
}
