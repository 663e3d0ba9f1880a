// Package scheduler runs the simulation's background loops: vendor restocks,
// lootbox rotation, smelting delivery, global events, clan wars, zeal decay,
// grid production and market policy sweeps. Every loop runs under a managed
// goroutine with panic recovery and a shared shutdown.
package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Manager owns every background goroutine with lifecycle control.
type Manager struct {
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	processes map[string]*processInfo
	mu        sync.RWMutex
}

type processInfo struct {
	name        string
	cancel      context.CancelFunc
	description string
}

func NewManager() *Manager {
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		ctx:       ctx,
		cancel:    cancel,
		processes: make(map[string]*processInfo),
	}
}

// StartProcess registers and starts a background process.
func (m *Manager) StartProcess(name, description string, fn func(ctx context.Context)) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.processes[name]; exists {
		slog.Warn("Process already exists, stopping existing one", slog.String("name", name))
		m.stopProcessLocked(name)
	}

	processCtx, processCancel := context.WithCancel(m.ctx)
	m.processes[name] = &processInfo{
		name:        name,
		cancel:      processCancel,
		description: description,
	}

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				slog.Error("Background process panic",
					slog.String("process", name),
					slog.Any("panic", r))
			}
		}()

		slog.Info("Starting background process",
			slog.String("process", name),
			slog.String("description", description))

		fn(processCtx)

		slog.Info("Background process ended",
			slog.String("process", name))
	}()
}

// StartTicker runs a task on a fixed interval until shutdown. Task errors are
// logged and the loop keeps ticking.
func (m *Manager) StartTicker(name, description string, interval time.Duration, task func(ctx context.Context) error) {
	m.StartProcess(name, description, func(ctx context.Context) {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := task(ctx); err != nil {
					slog.Error("Background task failed",
						slog.String("process", name),
						slog.Any("error", err))
				}
			}
		}
	})
}

// StopProcess stops a specific background process.
func (m *Manager) StopProcess(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopProcessLocked(name)
}

func (m *Manager) stopProcessLocked(name string) {
	if process, exists := m.processes[name]; exists {
		process.cancel()
		delete(m.processes, name)
		slog.Info("Stopped background process", slog.String("process", name))
	}
}

// Shutdown gracefully stops all background processes.
func (m *Manager) Shutdown(timeout time.Duration) error {
	slog.Info("Shutting down background processes",
		slog.Int("process_count", m.ProcessCount()))

	m.cancel()

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		slog.Info("All background processes stopped gracefully")
		return nil
	case <-time.After(timeout):
		slog.Warn("Timeout waiting for background processes to stop",
			slog.Duration("timeout", timeout))
		return context.DeadlineExceeded
	}
}

// ProcessCount returns the number of active processes.
func (m *Manager) ProcessCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.processes)
}

// Context returns the manager's root context.
func (m *Manager) Context() context.Context {
	return m.ctx
}
