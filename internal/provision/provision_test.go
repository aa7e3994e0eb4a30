package provision

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"reflect"
	"strings"
	"testing"
)

type call struct {
	name string
	args []string
}

// fakeRunner fails the first n invocations.
type fakeRunner struct {
	calls    []call
	failures int
	stderr   string
}

func (f *fakeRunner) Run(ctx context.Context, name string, args ...string) (string, error) {
	f.calls = append(f.calls, call{name: name, args: args})
	if len(f.calls) <= f.failures {
		return f.stderr, fmt.Errorf("exit status 1")
	}
	return "", nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
}

func TestCreateUser_CLISucceeds(t *testing.T) {
	r := &fakeRunner{}
	p := New(Config{Runner: r, Logger: testLogger()})

	if err := p.CreateUser(context.Background(), "alice", "pw"); err != nil {
		t.Fatalf("create user: %v", err)
	}

	if len(r.calls) != 1 {
		t.Fatalf("expected 1 call, got %d", len(r.calls))
	}
	if r.calls[0].name != "readeck" {
		t.Errorf("command = %s", r.calls[0].name)
	}
	want := []string{"user", "-u", "alice", "-p", "pw"}
	if !reflect.DeepEqual(r.calls[0].args, want) {
		t.Errorf("args = %v, want %v", r.calls[0].args, want)
	}
}

func TestCreateUser_ConfigPathInsertedAfterUser(t *testing.T) {
	r := &fakeRunner{}
	p := New(Config{ConfigPath: "/etc/readeck.toml", Runner: r, Logger: testLogger()})

	if err := p.CreateUser(context.Background(), "alice", "pw"); err != nil {
		t.Fatalf("create user: %v", err)
	}

	want := []string{"user", "-config", "/etc/readeck.toml", "-u", "alice", "-p", "pw"}
	if !reflect.DeepEqual(r.calls[0].args, want) {
		t.Errorf("args = %v, want %v", r.calls[0].args, want)
	}
}

func TestCreateUser_DockerFallback(t *testing.T) {
	r := &fakeRunner{failures: 1}
	p := New(Config{Runner: r, Logger: testLogger()})

	if err := p.CreateUser(context.Background(), "bob", "pw"); err != nil {
		t.Fatalf("expected docker fallback to succeed: %v", err)
	}

	if len(r.calls) != 2 {
		t.Fatalf("expected 2 calls, got %d", len(r.calls))
	}
	if r.calls[1].name != "docker" {
		t.Errorf("fallback command = %s", r.calls[1].name)
	}
	joined := strings.Join(r.calls[1].args, " ")
	if !strings.Contains(joined, defaultDockerImage) {
		t.Errorf("docker args missing image: %v", r.calls[1].args)
	}
	if !strings.Contains(joined, "user -u bob -p pw") {
		t.Errorf("docker args missing user command: %v", r.calls[1].args)
	}
}

func TestCreateUser_BothPathsFail(t *testing.T) {
	r := &fakeRunner{failures: 2, stderr: "user already exists"}
	p := New(Config{Runner: r, Logger: testLogger()})

	err := p.CreateUser(context.Background(), "bob", "pw")
	if err == nil {
		t.Fatal("expected error when both paths fail")
	}

	var pErr *Error
	if !errors.As(err, &pErr) {
		t.Fatalf("expected *Error, got %T", err)
	}
	// Only the second (container) failure's stderr surfaces.
	if pErr.Stderr != "user already exists" {
		t.Errorf("stderr = %q", pErr.Stderr)
	}
	if len(r.calls) != 2 {
		t.Errorf("expected exactly 2 attempts, got %d", len(r.calls))
	}
}
