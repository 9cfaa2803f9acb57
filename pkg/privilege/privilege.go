package privilege

import (
	"os"
	"os/exec"

	"golang.org/x/sys/unix"

	"github.com/NVIDIA/nvml-tune/pkg/errors"
)

// Seams for tests.
var (
	geteuidFn  = unix.Geteuid
	execFn     = unix.Exec
	lookPathFn = exec.LookPath
)

// Escalate ensures the process runs with root privileges. If it already
// does, Escalate returns nil. Otherwise it replaces the current process
// image with "sudo <original argv>", so the elevated child owns
// everything created afterwards (the log file in particular). Escalate
// only returns with an error when elevation is unavailable or refused.
func Escalate() error {
	if geteuidFn() == 0 {
		return nil
	}

	sudo, err := lookPathFn("sudo")
	if err != nil {
		return errors.Wrap(errors.KindPrivilege, "sudo not found in PATH", err)
	}

	argv := append([]string{sudo}, os.Args...)
	if err := execFn(sudo, argv, os.Environ()); err != nil {
		return errors.Wrap(errors.KindPrivilege, "re-executing with sudo", err)
	}

	// Exec replaced the process image; this is unreachable on success.
	return nil
}
