//go:build windows

package main

import (
	"os"

	"golang.org/x/sys/windows"
	"golang.org/x/term"
)

// enableHotkeys turns off line input and echo on the console so single key
// presses reach the server.
func enableHotkeys(h *hotkeys) (func(), error) {
	fd := os.Stdin.Fd()
	if !term.IsTerminal(int(fd)) {
		return nil, errNotTerminal
	}

	handle := windows.Handle(fd)
	var oldMode uint32
	if err := windows.GetConsoleMode(handle, &oldMode); err != nil {
		return nil, err
	}
	newMode := oldMode &^ (windows.ENABLE_LINE_INPUT | windows.ENABLE_ECHO_INPUT)
	if err := windows.SetConsoleMode(handle, newMode); err != nil {
		return nil, err
	}

	go h.readLoop(os.Stdin)
	return func() { windows.SetConsoleMode(handle, oldMode) }, nil
}
