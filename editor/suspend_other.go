//go:build !linux

package editor

// Job-control suspend is wired only on Linux.
func suspend(e *Editor) {
	e.SetStatus("Suspend is not supported on this platform")
}
