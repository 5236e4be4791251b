//go:build !unix

package nougat

import "os/exec"

// setProcessGroup is a no-op where process groups are unsupported; WaitDelay
// still unblocks Wait after cancellation.
func setProcessGroup(_ *exec.Cmd) {}
