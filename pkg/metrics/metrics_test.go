package metrics

import (
	"testing"
	"time"
)

func TestNewCollector(t *testing.T) {
	labels := Labels{"instance": "test"}
	c := NewCollector(labels)

	if c == nil {
		t.Fatal("expected non-nil collector")
	}

	snap := c.Snapshot()
	if snap.Labels["instance"] != "test" {
		t.Errorf("expected label instance=test, got %v", snap.Labels)
	}
}

func TestCollectorBlockMetrics(t *testing.T) {
	c := NewCollector(nil)

	c.BlockWritten()
	c.BlockWritten()
	c.BlockRead()

	snap := c.Snapshot()
	if snap.BlocksWritten != 2 {
		t.Errorf("expected 2 blocks written, got %d", snap.BlocksWritten)
	}
	if snap.BlocksRead != 1 {
		t.Errorf("expected 1 block read, got %d", snap.BlocksRead)
	}
}

func TestCollectorFileMetrics(t *testing.T) {
	c := NewCollector(nil)

	c.FileAdded(1024, 5*time.Millisecond)
	c.FileFetched(1024, 3*time.Millisecond)

	snap := c.Snapshot()
	if snap.FilesAdded != 1 {
		t.Errorf("expected 1 file added, got %d", snap.FilesAdded)
	}
	if snap.BytesWrapped != 1024 {
		t.Errorf("expected 1024 bytes wrapped, got %d", snap.BytesWrapped)
	}
	if snap.FilesFetched != 1 {
		t.Errorf("expected 1 file fetched, got %d", snap.FilesFetched)
	}
	if snap.AddFileLatency.Count != 1 {
		t.Errorf("expected 1 add-file latency observation, got %d", snap.AddFileLatency.Count)
	}
}

func TestCollectorShareMetrics(t *testing.T) {
	c := NewCollector(nil)

	c.ShareCreated(2 * time.Millisecond)
	c.ShareRedeemed()
	c.ShareExpired()
	c.ShareRejected()

	snap := c.Snapshot()
	if snap.SharesCreated != 1 {
		t.Errorf("expected 1 share created, got %d", snap.SharesCreated)
	}
	if snap.SharesRedeemed != 1 {
		t.Errorf("expected 1 share redeemed, got %d", snap.SharesRedeemed)
	}
	if snap.SharesExpired != 1 {
		t.Errorf("expected 1 share expired, got %d", snap.SharesExpired)
	}
	if snap.SharesRejected != 1 {
		t.Errorf("expected 1 share rejected, got %d", snap.SharesRejected)
	}
}

func TestCollectorExportImportMetrics(t *testing.T) {
	c := NewCollector(nil)

	c.BlocksExported(5)
	c.BlocksImported(3)

	snap := c.Snapshot()
	if snap.BlocksExported != 5 {
		t.Errorf("expected 5 blocks exported, got %d", snap.BlocksExported)
	}
	if snap.BlocksImported != 3 {
		t.Errorf("expected 3 blocks imported, got %d", snap.BlocksImported)
	}
}

func TestCollectorSecurityMetrics(t *testing.T) {
	c := NewCollector(nil)

	c.RecordAuthFailure()
	c.RecordAuthFailure()

	snap := c.Snapshot()
	if snap.AuthFailures != 2 {
		t.Errorf("expected 2 auth failures, got %d", snap.AuthFailures)
	}
}

func TestCollectorLatencyMetrics(t *testing.T) {
	c := NewCollector(nil)

	c.FileAdded(10, 100*time.Millisecond)
	c.FileAdded(10, 200*time.Millisecond)

	snap := c.Snapshot()
	if snap.AddFileLatency.Count != 2 {
		t.Errorf("expected 2 add-file latency observations, got %d", snap.AddFileLatency.Count)
	}
	if snap.AddFileLatency.Mean != 150 {
		t.Errorf("expected mean add-file latency 150ms, got %.2f", snap.AddFileLatency.Mean)
	}
}

func TestCollectorReset(t *testing.T) {
	c := NewCollector(nil)

	c.BlockWritten()
	c.RecordAuthFailure()

	snap := c.Snapshot()
	if snap.BlocksWritten != 1 || snap.AuthFailures != 1 {
		t.Fatal("metrics not recorded")
	}

	c.Reset()

	snap = c.Snapshot()
	if snap.BlocksWritten != 0 {
		t.Errorf("expected 0 blocks written after reset, got %d", snap.BlocksWritten)
	}
	if snap.AuthFailures != 0 {
		t.Errorf("expected 0 auth failures after reset, got %d", snap.AuthFailures)
	}
}

func TestCollectorUptime(t *testing.T) {
	c := NewCollector(nil)
	time.Sleep(10 * time.Millisecond)

	snap := c.Snapshot()
	if snap.Uptime < 10*time.Millisecond {
		t.Errorf("expected uptime >= 10ms, got %v", snap.Uptime)
	}
}

func TestGlobalCollector(t *testing.T) {
	g := Global()
	if g == nil {
		t.Fatal("expected non-nil global collector")
	}

	g2 := Global()
	if g != g2 {
		t.Error("expected same global collector instance")
	}

	custom := NewCollector(Labels{"custom": "true"})
	SetGlobal(custom)
	// SetGlobal replaces the collector that later Global calls return;
	// this test just verifies the setter doesn't panic.
}

func TestCollectorConcurrency(t *testing.T) {
	c := NewCollector(nil)

	done := make(chan bool)
	for i := 0; i < 10; i++ {
		go func() {
			for j := 0; j < 100; j++ {
				c.BlockWritten()
				c.FileAdded(uint64(j), time.Duration(j)*time.Millisecond)
			}
			done <- true
		}()
	}

	for i := 0; i < 10; i++ {
		<-done
	}

	snap := c.Snapshot()
	if snap.BlocksWritten != 1000 {
		t.Errorf("expected 1000 blocks written, got %d", snap.BlocksWritten)
	}
	if snap.FilesAdded != 1000 {
		t.Errorf("expected 1000 files added, got %d", snap.FilesAdded)
	}
}
