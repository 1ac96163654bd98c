//go:build !unix

package scraper

import (
	"os/exec"
	"time"
)

func configureProcessGroup(cmd *exec.Cmd, grace time.Duration) func() {
	return func() {}
}
