// Package system probes the host environment: resource limits, CPU and
// memory capacity, and asset discovery on disk.
package system

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
	log "github.com/sirupsen/logrus"
)

// InitResourceLimits raises the open-file limit so a large reference
// strip does not exhaust descriptors mid-render.
func InitResourceLimits() {
	var rLimit syscall.Rlimit
	if err := syscall.Getrlimit(syscall.RLIMIT_NOFILE, &rLimit); err != nil {
		log.Warnf("reading file limit: %v", err)
		return
	}

	rLimit.Cur = 2048
	if rLimit.Cur > rLimit.Max {
		rLimit.Cur = rLimit.Max
	}

	if err := syscall.Setrlimit(syscall.RLIMIT_NOFILE, &rLimit); err != nil {
		log.Warnf("raising file limit: %v", err)
	} else {
		log.Debugf("open file limit raised to %d", rLimit.Cur)
	}
}

// HostReport is a snapshot of the machine the engine runs on.
type HostReport struct {
	Hostname    string
	Platform    string
	CPUCores    int
	TotalMemMB  uint64
	AvailMemMB  uint64
	UsedPercent float64
}

// Probe collects host facts. Probe failures degrade to runtime
// fallbacks rather than erroring; playback never depends on them.
func Probe() HostReport {
	report := HostReport{CPUCores: runtime.NumCPU()}

	if info, err := host.Info(); err == nil {
		report.Hostname = info.Hostname
		report.Platform = fmt.Sprintf("%s %s", info.Platform, info.PlatformVersion)
	} else {
		log.Debugf("host probe: %v", err)
	}

	if n, err := cpu.Counts(true); err == nil && n > 0 {
		report.CPUCores = n
	}

	if vm, err := mem.VirtualMemory(); err == nil {
		report.TotalMemMB = vm.Total / (1 << 20)
		report.AvailMemMB = vm.Available / (1 << 20)
		report.UsedPercent = vm.UsedPercent
	} else {
		log.Debugf("memory probe: %v", err)
	}

	return report
}

// RenderWorkers picks a thumbnail worker count from the probed core
// count, capped so interactive playback keeps headroom.
func (r HostReport) RenderWorkers() int {
	n := r.CPUCores - 1
	if n < 1 {
		n = 1
	}
	if n > 8 {
		n = 8
	}
	return n
}

// Log writes the report through the structured logger.
func (r HostReport) Log() {
	log.WithFields(log.Fields{
		"host":     r.Hostname,
		"platform": r.Platform,
		"cores":    r.CPUCores,
		"memMB":    r.TotalMemMB,
	}).Info("host probe")
}

// FindLatestImage returns the most recently modified image in dir,
// for seeding a shot's reference strip from a watch folder.
func FindLatestImage(dir string) (string, error) {
	return findLatest(dir, []string{".jpg", ".jpeg", ".png", ".webp"})
}

// FindLatestLayout returns the most recently saved scene layout in dir.
func FindLatestLayout(dir string) (string, error) {
	return findLatest(dir, []string{".yaml", ".yml"})
}

func findLatest(dir string, extensions []string) (string, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}

	var latestFile string
	var latestTime time.Time

	for _, f := range files {
		if f.IsDir() {
			continue
		}
		name := strings.ToLower(f.Name())
		matched := false
		for _, ext := range extensions {
			if strings.HasSuffix(name, ext) {
				matched = true
				break
			}
		}
		if !matched {
			continue
		}
		info, err := f.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(latestTime) {
			latestTime = info.ModTime()
			latestFile = filepath.Join(dir, f.Name())
		}
	}

	if latestFile == "" {
		return "", fmt.Errorf("no matching files in %s", dir)
	}
	return latestFile, nil
}
