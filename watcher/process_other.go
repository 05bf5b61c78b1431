//go:build !linux

package watcher

import "os/exec"

// bindToParent is a no-op; orphaned watchers exit once their registry segment is retired.
func bindToParent(cmd *exec.Cmd) {}
