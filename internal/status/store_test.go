package status

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/craig-ford/ralph-kiro/internal/breaker"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(filepath.Join(t.TempDir(), ".ralph"))
}

func TestStatusRoundTrip(t *testing.T) {
	s := newTestStore(t)

	snap := Snapshot{
		Status:                     "running",
		Message:                    "iteration finished",
		LoopCount:                  7,
		ConsecutiveTestOnlyLoops:   1,
		ConsecutiveDoneSignalLoops: 0,
		Timestamp:                  time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC),
	}
	if err := s.WriteStatus(snap); err != nil {
		t.Fatalf("WriteStatus() error: %v", err)
	}

	got, ok, err := s.ReadStatus()
	if err != nil {
		t.Fatalf("ReadStatus() error: %v", err)
	}
	if !ok {
		t.Fatal("expected snapshot to exist")
	}
	if got != snap {
		t.Errorf("round trip mismatch: got %+v, want %+v", got, snap)
	}
}

func TestReadStatusMissing(t *testing.T) {
	s := newTestStore(t)

	_, ok, err := s.ReadStatus()
	if err != nil {
		t.Fatalf("ReadStatus() error: %v", err)
	}
	if ok {
		t.Error("expected ok=false for missing snapshot")
	}
}

func TestWriteStatusOverwritesWholesale(t *testing.T) {
	s := newTestStore(t)

	first := Snapshot{Status: "running", LoopCount: 1, ConsecutiveTestOnlyLoops: 3}
	if err := s.WriteStatus(first); err != nil {
		t.Fatalf("WriteStatus() error: %v", err)
	}

	second := Snapshot{Status: "stopped", LoopCount: 2}
	if err := s.WriteStatus(second); err != nil {
		t.Fatalf("WriteStatus() error: %v", err)
	}

	got, _, err := s.ReadStatus()
	if err != nil {
		t.Fatalf("ReadStatus() error: %v", err)
	}
	if got.ConsecutiveTestOnlyLoops != 0 {
		t.Errorf("stale field survived overwrite: %+v", got)
	}
	if got.Status != "stopped" || got.LoopCount != 2 {
		t.Errorf("got %+v, want second snapshot", got)
	}
}

func TestBreakerRoundTrip(t *testing.T) {
	s := newTestStore(t)

	b := breaker.New(3, 5)
	b.Update(0, true)
	b.Update(0, true)
	snap := b.Snapshot()

	if err := s.WriteBreaker(snap); err != nil {
		t.Fatalf("WriteBreaker() error: %v", err)
	}

	got, ok, err := s.ReadBreaker()
	if err != nil {
		t.Fatalf("ReadBreaker() error: %v", err)
	}
	if !ok {
		t.Fatal("expected breaker snapshot to exist")
	}
	if got.State != snap.State || got.ConsecutiveErrors != snap.ConsecutiveErrors {
		t.Errorf("round trip mismatch: got %+v, want %+v", got, snap)
	}
}

func TestReadBreakerMissing(t *testing.T) {
	s := newTestStore(t)

	_, ok, err := s.ReadBreaker()
	if err != nil {
		t.Fatalf("ReadBreaker() error: %v", err)
	}
	if ok {
		t.Error("expected ok=false for missing breaker snapshot")
	}
}

func TestWriteLeavesNoTempFiles(t *testing.T) {
	s := newTestStore(t)

	if err := s.WriteStatus(Snapshot{Status: "running"}); err != nil {
		t.Fatalf("WriteStatus() error: %v", err)
	}
	if err := s.WriteBreaker(breaker.New(0, 0).Snapshot()); err != nil {
		t.Fatalf("WriteBreaker() error: %v", err)
	}

	entries, err := os.ReadDir(s.Dir())
	if err != nil {
		t.Fatalf("ReadDir() error: %v", err)
	}
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".tmp-") {
			t.Errorf("temp file left behind: %s", e.Name())
		}
	}
}

func TestStatusFileIsIndentedJSON(t *testing.T) {
	s := newTestStore(t)

	if err := s.WriteStatus(Snapshot{Status: "running", LoopCount: 3}); err != nil {
		t.Fatalf("WriteStatus() error: %v", err)
	}

	data, err := os.ReadFile(s.StatusPath())
	if err != nil {
		t.Fatalf("ReadFile() error: %v", err)
	}
	text := string(data)
	if !strings.Contains(text, "\n  \"loop_count\": 3") {
		t.Errorf("expected indented snake_case fields, got:\n%s", text)
	}
	if !strings.HasSuffix(text, "\n") {
		t.Error("expected trailing newline")
	}
}

func TestStopSentinelLifecycle(t *testing.T) {
	s := newTestStore(t)

	if s.StopRequested() {
		t.Fatal("fresh store should not report a stop request")
	}

	if err := s.RequestStop(); err != nil {
		t.Fatalf("RequestStop() error: %v", err)
	}
	if !s.StopRequested() {
		t.Fatal("expected stop request after RequestStop")
	}

	if err := s.ClearStop(); err != nil {
		t.Fatalf("ClearStop() error: %v", err)
	}
	if s.StopRequested() {
		t.Error("stop request should be cleared")
	}

	if err := s.ClearStop(); err != nil {
		t.Errorf("clearing an absent sentinel should not fail: %v", err)
	}
}

func TestStoreCreatesDirectoryOnWrite(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", ".ralph")
	s := NewStore(dir)

	if err := s.WriteStatus(Snapshot{Status: "init"}); err != nil {
		t.Fatalf("WriteStatus() error: %v", err)
	}
	if _, err := os.Stat(dir); err != nil {
		t.Errorf("state dir not created: %v", err)
	}
}
