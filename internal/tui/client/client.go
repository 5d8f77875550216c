package client

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/huddlehq/huddle/internal/rpc"
	"github.com/huddlehq/huddle/internal/session"
)

// DaemonBinary is the daemon executable started on demand.
const DaemonBinary = "huddled"

// Connect returns a client for the session's daemon, starting the daemon
// first when nothing answers on its socket.
func Connect(sessionName string, timeout time.Duration) (*rpc.Client, error) {
	socketPath := session.SocketPath(sessionName)
	if !Reachable(socketPath) {
		if err := StartDaemon(sessionName); err != nil {
			return nil, fmt.Errorf("start daemon: %w", err)
		}
		if !WaitForDaemon(socketPath, timeout) {
			return nil, fmt.Errorf("daemon for session %q did not become ready", sessionName)
		}
	}
	return rpc.Dial(socketPath)
}

// Reachable reports whether a daemon answers a status call on socketPath.
func Reachable(socketPath string) bool {
	c, err := rpc.Dial(socketPath)
	if err != nil {
		return false
	}
	defer func() { _ = c.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err = c.Session.GetStatus(ctx)
	return err == nil
}

// StartDaemon launches the daemon next to the running executable, or from
// PATH when it is not there.
func StartDaemon(sessionName string) error {
	bin := DaemonBinary
	if executable, err := os.Executable(); err == nil {
		sibling := filepath.Join(filepath.Dir(executable), DaemonBinary)
		if _, err := os.Stat(sibling); err == nil {
			bin = sibling
		}
	}
	cmd := exec.Command(bin, "--session", sessionName)
	cmd.Stderr = os.Stderr
	return cmd.Start()
}

func WaitForDaemon(socketPath string, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if Reachable(socketPath) {
			return true
		}
		time.Sleep(300 * time.Millisecond)
	}
	return false
}
