// Package sysinfo captures process and system facts for the metrics
// snapshot: heap usage from the Go runtime and system memory via gopsutil.
package sysinfo

import (
	"context"
	"runtime"

	"github.com/shirou/gopsutil/v3/mem"
)

// Facts is one capture of process/system resource usage.
type Facts struct {
	HeapUsedBytes uint64
	HeapSysBytes  uint64
	MemUsedBytes  uint64
	MemTotalBytes uint64
}

// Capture gathers current facts. System memory failures degrade to zero
// values; the scrape must stay best-effort.
func Capture(ctx context.Context) Facts {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	f := Facts{
		HeapUsedBytes: ms.HeapAlloc,
		HeapSysBytes:  ms.HeapSys,
	}

	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		f.MemUsedBytes = vm.Used
		f.MemTotalBytes = vm.Total
	}
	return f
}
