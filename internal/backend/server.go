package backend

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/exec"
	"sync"
	"time"
)

const (
	defaultHealthPath   = "/health"
	defaultReadyTimeout = 2 * time.Minute
	defaultPollInterval = 250 * time.Millisecond
)

// ServerManager supervises long-running backend server processes, such as
// one model runner per loaded language.
type ServerManager struct {
	servers map[string]*ServerProcess
	output  io.Writer
	mu      sync.Mutex
}

// ServerProcess represents a server running process.
type ServerProcess struct {
	cmd     *exec.Cmd
	cancel  context.CancelFunc
	exited  chan struct{}
	baseURL string
}

// ServerConfig defines how to start and check a backend server.
type ServerConfig struct {
	Env          map[string]string
	Name         string
	BinPath      string
	HealthPath   string
	Args         []string
	Port         int
	ReadyTimeout time.Duration
	PollInterval time.Duration
}

// NewServerManager initializes a ServerManager. Child process output is
// forwarded to stderr.
func NewServerManager() *ServerManager {
	return &ServerManager{
		servers: map[string]*ServerProcess{},
		output:  os.Stderr,
	}
}

func serverKey(name string, port int) string {
	return fmt.Sprintf("%s-%d", name, port)
}

// StartServer starts a backend server and blocks until its health endpoint
// answers 200. It returns the server base URL.
func (sm *ServerManager) StartServer(ctx context.Context, cfg ServerConfig) (string, error) {
	key := serverKey(cfg.Name, cfg.Port)

	sm.mu.Lock()
	if srv, exists := sm.servers[key]; exists {
		sm.mu.Unlock()
		return srv.baseURL, nil
	}
	sm.mu.Unlock()

	binPath, err := exec.LookPath(cfg.BinPath)
	if err != nil {
		return "", fmt.Errorf("failed to start %s server: %w", cfg.Name, err)
	}

	procCtx, cancel := context.WithCancel(context.Background())
	cmd := exec.CommandContext(procCtx, binPath, cfg.Args...)
	cmd.Stdout = sm.output
	cmd.Stderr = sm.output
	cmd.Env = os.Environ()
	for k, v := range cfg.Env {
		cmd.Env = append(cmd.Env, fmt.Sprintf("%s=%s", k, v))
	}

	if err := cmd.Start(); err != nil {
		cancel()
		return "", fmt.Errorf("failed to start %s server: %w", cfg.Name, err)
	}

	exited := make(chan struct{})
	go func() {
		if err := cmd.Wait(); err != nil && procCtx.Err() == nil {
			slog.Warn("Server process exited", "name", cfg.Name, "port", cfg.Port, "error", err)
		}
		close(exited)
	}()

	baseURL := fmt.Sprintf("http://127.0.0.1:%d", cfg.Port)

	healthPath := cfg.HealthPath
	if healthPath == "" {
		healthPath = defaultHealthPath
	}

	timeout := cfg.ReadyTimeout
	if timeout == 0 {
		timeout = defaultReadyTimeout
	}

	interval := cfg.PollInterval
	if interval == 0 {
		interval = defaultPollInterval
	}

	if err := waitForServer(ctx, baseURL+healthPath, timeout, interval, exited); err != nil {
		cancel()
		<-exited
		return "", fmt.Errorf("%s server: %w", cfg.Name, err)
	}

	sm.mu.Lock()
	sm.servers[key] = &ServerProcess{
		cmd:     cmd,
		cancel:  cancel,
		exited:  exited,
		baseURL: baseURL,
	}
	sm.mu.Unlock()

	slog.Info("Server started", "name", cfg.Name, "port", cfg.Port, "pid", cmd.Process.Pid)
	return baseURL, nil
}

// StopServer terminates a backend server.
func (sm *ServerManager) StopServer(name string, port int) error {
	key := serverKey(name, port)

	sm.mu.Lock()
	srv, exists := sm.servers[key]
	delete(sm.servers, key)
	sm.mu.Unlock()

	if !exists {
		return fmt.Errorf("%w: %s", ErrServerNotFound, key)
	}

	srv.stop()
	slog.Info("Server stopped", "name", name, "port", port)
	return nil
}

// StopAll terminates all running servers.
func (sm *ServerManager) StopAll() {
	sm.mu.Lock()
	servers := sm.servers
	sm.servers = map[string]*ServerProcess{}
	sm.mu.Unlock()

	for _, srv := range servers {
		srv.stop()
	}

	slog.Info("All servers stopped", "count", len(servers))
}

// Running reports the number of supervised servers.
func (sm *ServerManager) Running() int {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	return len(sm.servers)
}

func (p *ServerProcess) stop() {
	p.cancel()
	<-p.exited
}

// waitForServer polls url until it answers 200, the process exits, ctx is
// done or timeout elapses.
func waitForServer(ctx context.Context, url string, timeout, interval time.Duration, exited <-chan struct{}) error {
	client := &http.Client{Timeout: time.Second}
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}

		resp, err := client.Do(req)
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}

		select {
		case <-ctx.Done():
			return errors.Join(ErrServerNotReady, ctx.Err())
		case <-exited:
			return fmt.Errorf("%w: process exited", ErrServerNotReady)
		case <-deadline.C:
			return fmt.Errorf("%w: no response at %s within %v", ErrServerNotReady, url, timeout)
		case <-ticker.C:
		}
	}
}
