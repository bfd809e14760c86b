// Package profiling provides CPU, heap, and execution-trace capture behind
// the --profile-* flags.
package profiling

import (
	"fmt"
	"os"
	"runtime"
	"runtime/pprof"
	"runtime/trace"
)

// Profiler owns at most one active CPU profile and one active trace.
type Profiler struct {
	cpuFile   *os.File
	traceFile *os.File
}

// NewProfiler creates a new Profiler instance.
func NewProfiler() *Profiler {
	return &Profiler{}
}

// StartCPU begins CPU profiling into the given file. Stop flushes it.
func (p *Profiler) StartCPU(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create CPU profile file: %w", err)
	}
	if err := pprof.StartCPUProfile(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to start CPU profile: %w", err)
	}
	p.cpuFile = f
	return nil
}

// StartTrace begins execution tracing into the given file. Stop flushes it.
func (p *Profiler) StartTrace(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create trace file: %w", err)
	}
	if err := trace.Start(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to start trace: %w", err)
	}
	p.traceFile = f
	return nil
}

// WriteHeap writes a point-in-time heap profile to the given file. A GC
// pass runs first so the snapshot reflects live objects.
func (p *Profiler) WriteHeap(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create heap profile file: %w", err)
	}
	defer func() { _ = f.Close() }()

	runtime.GC()

	if err := pprof.WriteHeapProfile(f); err != nil {
		return fmt.Errorf("failed to write heap profile: %w", err)
	}
	return nil
}

// Stop flushes and closes whatever profiling is active. Safe to call when
// nothing was started.
func (p *Profiler) Stop() {
	if p.cpuFile != nil {
		pprof.StopCPUProfile()
		_ = p.cpuFile.Close()
		p.cpuFile = nil
	}
	if p.traceFile != nil {
		trace.Stop()
		_ = p.traceFile.Close()
		p.traceFile = nil
	}
}
