package common

import (
	"fmt"
	"runtime"
	"time"
)

// MemoryStats is the subset of runtime.MemStats reported alongside timings.
type MemoryStats struct {
	Alloc      uint64
	TotalAlloc uint64
	Sys        uint64
	NumGC      uint32
}

// GetMemoryStats reads the current heap statistics.
func GetMemoryStats() MemoryStats {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return MemoryStats{Alloc: m.Alloc, TotalAlloc: m.TotalAlloc, Sys: m.Sys, NumGC: m.NumGC}
}

func (m MemoryStats) String() string {
	return fmt.Sprintf("Alloc: %d KB, Total: %d KB, Sys: %d KB, GC: %d",
		m.Alloc/1024, m.TotalAlloc/1024, m.Sys/1024, m.NumGC)
}

// Measurement is the outcome of Measure.
type Measurement struct {
	Name         string
	Iterations   int
	Duration     time.Duration
	MemoryBefore MemoryStats
	MemoryAfter  MemoryStats
	Error        error
}

// Average returns the mean duration per completed iteration.
func (m Measurement) Average() time.Duration {
	if m.Iterations == 0 {
		return 0
	}
	return m.Duration / time.Duration(m.Iterations)
}

// AllocatedKB is the total allocation during the run.
func (m Measurement) AllocatedKB() uint64 {
	return (m.MemoryAfter.TotalAlloc - m.MemoryBefore.TotalAlloc) / 1024
}

func (m Measurement) String() string {
	if m.Error != nil {
		return fmt.Sprintf("%s: ERROR - %v", m.Name, m.Error)
	}
	return fmt.Sprintf("%s: %d iterations, avg: %v, total: %v, alloc: %d KB",
		m.Name, m.Iterations, m.Average(), m.Duration, m.AllocatedKB())
}

// Measure runs fn up to iterations times, stopping at the first error.
func Measure(name string, iterations int, fn func() error) Measurement {
	iterations = max(iterations, 1)
	res := Measurement{Name: name, MemoryBefore: GetMemoryStats()}
	timer := NewNamedTimer(name)
	for range iterations {
		if err := fn(); err != nil {
			res.Error = err
			break
		}
		res.Iterations++
	}
	res.Duration = timer.Stop()
	res.MemoryAfter = GetMemoryStats()
	return res
}
