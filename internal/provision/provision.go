// Package provision creates Readeck user accounts through the readeck
// CLI, falling back to a disposable docker container when the local
// binary is unavailable or fails.
package provision

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"
)

const (
	defaultDockerImage = "codeberg.org/readeck/readeck:latest"
	defaultRunTimeout  = 60 * time.Second
)

// Error carries the diagnostic from a failed provisioning attempt. When
// both paths fail, Stderr holds the container attempt's output.
type Error struct {
	Stderr string
	Err    error
}

func (e *Error) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("provisioning failed: %s", e.Stderr)
	}
	return fmt.Sprintf("provisioning failed: %v", e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Runner executes an external command and returns its captured stderr.
// Injected so tests substitute a fake.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (stderr string, err error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct {
	Timeout time.Duration
}

func (r ExecRunner) Run(ctx context.Context, name string, args ...string) (string, error) {
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = defaultRunTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err != nil && ctx.Err() == context.DeadlineExceeded {
		return stderr.String(), fmt.Errorf("command timed out after %s", timeout)
	}
	return stderr.String(), err
}

// Provisioner drives the two-path user creation strategy.
type Provisioner struct {
	configPath  string
	dockerImage string
	runner      Runner
	logger      *slog.Logger
}

type Config struct {
	ConfigPath  string // optional -config argument for the readeck CLI
	DockerImage string
	Runner      Runner
	Logger      *slog.Logger
}

func New(cfg Config) *Provisioner {
	if cfg.DockerImage == "" {
		cfg.DockerImage = defaultDockerImage
	}
	if cfg.Runner == nil {
		cfg.Runner = ExecRunner{}
	}
	return &Provisioner{
		configPath:  cfg.ConfigPath,
		dockerImage: cfg.DockerImage,
		runner:      cfg.Runner,
		logger:      cfg.Logger,
	}
}

// CreateUser provisions username/password against Readeck. The local CLI
// is tried first; on failure the same operation runs in a container.
// The attempts are strictly sequential, and only the container attempt's
// stderr surfaces when both fail.
func (p *Provisioner) CreateUser(ctx context.Context, username, password string) error {
	args := []string{"user"}
	if p.configPath != "" {
		args = append(args, "-config", p.configPath)
	}
	args = append(args, "-u", username, "-p", password)

	p.logger.Info("provisioning user via readeck CLI", "username", username)
	stderr, err := p.runner.Run(ctx, "readeck", args...)
	if err == nil {
		return nil
	}
	p.logger.Warn("readeck CLI failed, trying docker",
		"err", err,
		"stderr", strings.TrimSpace(stderr),
	)

	dockerArgs := []string{
		"run", "--rm",
		p.dockerImage,
		"readeck", "user", "-u", username, "-p", password,
	}
	stderr, err = p.runner.Run(ctx, "docker", dockerArgs...)
	if err != nil {
		return &Error{Stderr: strings.TrimSpace(stderr), Err: err}
	}
	return nil
}
