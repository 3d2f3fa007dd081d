package system

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestProbe(t *testing.T) {
	report := Probe()
	if report.CPUCores < 1 {
		t.Errorf("cores = %d, want at least 1", report.CPUCores)
	}
	t.Logf("host: %+v", report)
}

func TestRenderWorkers(t *testing.T) {
	tests := []struct {
		cores int
		want  int
	}{
		{1, 1},
		{2, 1},
		{4, 3},
		{16, 8},
	}
	for _, tt := range tests {
		r := HostReport{CPUCores: tt.cores}
		if got := r.RenderWorkers(); got != tt.want {
			t.Errorf("workers for %d cores = %d, want %d", tt.cores, got, tt.want)
		}
	}
}

func writeAt(t *testing.T, path string, mod time.Time) {
	t.Helper()
	if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.Chtimes(path, mod, mod); err != nil {
		t.Fatal(err)
	}
}

func TestFindLatestImage(t *testing.T) {
	dir := t.TempDir()
	base := time.Now().Add(-time.Hour)
	writeAt(t, filepath.Join(dir, "old.png"), base)
	writeAt(t, filepath.Join(dir, "new.jpg"), base.Add(10*time.Minute))
	writeAt(t, filepath.Join(dir, "ignored.txt"), base.Add(20*time.Minute))

	got, err := FindLatestImage(dir)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if filepath.Base(got) != "new.jpg" {
		t.Errorf("latest = %s, want new.jpg", got)
	}
}

func TestFindLatestImageEmpty(t *testing.T) {
	if _, err := FindLatestImage(t.TempDir()); err == nil {
		t.Error("empty dir returned a file")
	}
}

func TestFindLatestLayout(t *testing.T) {
	dir := t.TempDir()
	base := time.Now().Add(-time.Hour)
	writeAt(t, filepath.Join(dir, "a.yaml"), base)
	writeAt(t, filepath.Join(dir, "b.yml"), base.Add(time.Minute))

	got, err := FindLatestLayout(dir)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if filepath.Base(got) != "b.yml" {
		t.Errorf("latest = %s, want b.yml", got)
	}
}
