//go:build windows

package watch

import (
	"os"
	"os/exec"
	"path/filepath"
	"syscall"
)

// StartDaemon re-runs the current executable with args in the background
// and returns its PID. Output goes to a log file in StateDir.
func StartDaemon(args []string) (int, error) {
	exe, err := os.Executable()
	if err != nil {
		return 0, err
	}

	cmd := exec.Command(exe, args...)

	// Windows-specific detachment: Create new process group
	cmd.SysProcAttr = &syscall.SysProcAttr{
		CreationFlags: syscall.CREATE_NEW_PROCESS_GROUP,
	}

	logDir := StateDir()
	os.MkdirAll(logDir, 0755)

	logFile, err := os.OpenFile(
		filepath.Join(logDir, "daemon.log"),
		os.O_CREATE|os.O_WRONLY|os.O_APPEND,
		0644,
	)
	if err == nil {
		cmd.Stdout = logFile
		cmd.Stderr = logFile
	}

	if err := cmd.Start(); err != nil {
		return 0, err
	}

	// On Windows, with CREATE_NEW_PROCESS_GROUP, the child is detached.
	// We can release the handle.
	go cmd.Wait()

	return cmd.Process.Pid, nil
}

// StopDaemon stops a watcher daemon by PID
func StopDaemon(pid int) error {
	process, err := os.FindProcess(pid)
	if err != nil {
		return err
	}

	// Signal(SIGTERM) is TerminateProcess on Windows; there is no graceful stop.
	if err := process.Kill(); err != nil {
		return err
	}
	return RemoveState(pid)
}

// StopAllDaemons stops all running watcher daemons
func StopAllDaemons() (int, error) {
	states, err := ListStates()
	if err != nil {
		return 0, err
	}

	stopped := 0
	for _, state := range states {
		if err := StopDaemon(state.PID); err == nil {
			stopped++
		}
	}

	return stopped, nil
}

// isProcessRunning checks if a process is still running
func isProcessRunning(pid int) bool {
	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}

	// On Windows, Signal(0) works to check existence if we have permissions.
	err = process.Signal(syscall.Signal(0))
	return err == nil
}
