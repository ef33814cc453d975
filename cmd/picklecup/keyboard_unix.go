//go:build linux || darwin

package main

import (
	"os"

	"golang.org/x/sys/unix"
	"golang.org/x/term"
)

// enableHotkeys switches stdin to unbuffered, unechoed input and starts
// reading shortcuts. Output processing stays on so "\n" still works.
func enableHotkeys(h *hotkeys) (func(), error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return nil, errNotTerminal
	}

	oldState, err := unix.IoctlGetTermios(fd, ioctlReadTermios)
	if err != nil {
		return nil, err
	}

	newState := *oldState
	newState.Lflag &^= unix.ICANON | unix.ECHO
	newState.Cc[unix.VMIN] = 1
	newState.Cc[unix.VTIME] = 0
	if err := unix.IoctlSetTermios(fd, ioctlWriteTermios, &newState); err != nil {
		return nil, err
	}

	go h.readLoop(os.Stdin)
	return func() { unix.IoctlSetTermios(fd, ioctlWriteTermios, oldState) }, nil
}
