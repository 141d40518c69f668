package observability

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/danmuck/mergectl/internal/testutil/testlog"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRegisterMetricsAndRecordersAreSafe(t *testing.T) {
	testlog.Start(t)
	RegisterMetrics()
	RegisterMetrics()

	before := testutil.ToFloat64(ensureTotal.WithLabelValues("tool.poppler", "tool", "skipped"))
	RecordEnsure("tool.poppler", "tool", "skipped", 3*time.Millisecond)
	after := testutil.ToFloat64(ensureTotal.WithLabelValues("tool.poppler", "tool", "skipped"))
	if after != before+1 {
		t.Fatalf("ensure counter not incremented: before=%v after=%v", before, after)
	}

	RecordDownload("poppler", 0)
	RecordDownload("poppler", 2048)
	if got := testutil.ToFloat64(downloadBytes.WithLabelValues("poppler")); got < 2048 {
		t.Fatalf("unexpected download bytes: %v", got)
	}

	RecordLaunchExit("cli.py", 4)
	if got := testutil.ToFloat64(launchExit.WithLabelValues("cli.py")); got != 4 {
		t.Fatalf("unexpected launch exit gauge: %v", got)
	}
}

func TestWriteTextfile(t *testing.T) {
	testlog.Start(t)
	RecordEnsure("workspace.reports", "directory", "applied", time.Millisecond)

	path := filepath.Join(t.TempDir(), "mergectl.prom")
	if err := WriteTextfile(path); err != nil {
		t.Fatalf("write textfile: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read textfile: %v", err)
	}
	if !strings.Contains(string(data), "mergectl_provision_ensure_total") {
		t.Fatalf("textfile missing ensure counter:\n%s", data)
	}
}
