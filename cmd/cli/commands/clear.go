package commands

import (
	"os"
	"os/exec"
	"runtime"
)

// clearCommand returns the shell command that clears the terminal on goos
func clearCommand(goos string) (string, []string) {
	if goos == "windows" {
		return "cmd", []string{"/c", "cls"}
	}
	return "clear", nil
}

// ClearTerminal clears the terminal the process is attached to
func ClearTerminal() error {
	name, args := clearCommand(runtime.GOOS)
	cmd := exec.Command(name, args...)
	cmd.Stdout = os.Stdout
	return cmd.Run()
}
