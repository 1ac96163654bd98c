//go:build unix

package scraper

import (
	"errors"
	"os/exec"
	"sync"
	"syscall"
	"time"
)

// configureProcessGroup starts the scraper in its own process group. On
// cancellation the group gets SIGTERM first, which `docker run` forwards to
// its container, and SIGKILL once grace has passed. The returned function
// must be called after Wait; it stops the escalation timer and kills any
// group member still left after a cancellation.
func configureProcessGroup(cmd *exec.Cmd, grace time.Duration) func() {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	var (
		mu        sync.Mutex
		cancelled bool
		done      bool
		escalate  *time.Timer
	)
	killGroup := func(sig syscall.Signal) error {
		err := syscall.Kill(-cmd.Process.Pid, sig)
		if errors.Is(err, syscall.ESRCH) {
			return nil
		}
		return err
	}

	cmd.Cancel = func() error {
		mu.Lock()
		defer mu.Unlock()
		if done {
			return nil
		}
		cancelled = true
		escalate = time.AfterFunc(grace, func() {
			mu.Lock()
			defer mu.Unlock()
			if !done {
				_ = killGroup(syscall.SIGKILL)
			}
		})
		return killGroup(syscall.SIGTERM)
	}

	return func() {
		mu.Lock()
		defer mu.Unlock()
		done = true
		if escalate != nil {
			escalate.Stop()
		}
		if cancelled {
			_ = killGroup(syscall.SIGKILL)
		}
	}
}
