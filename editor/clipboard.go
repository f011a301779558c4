package editor

import (
	"github.com/atotto/clipboard"

	"github.com/yididiel7/fresh/input"
)

// systemClipboard bridges to the host clipboard, falling back to an
// in-process register when no clipboard utility is available (headless
// sessions, stripped containers).
type systemClipboard struct {
	fallback input.MemClipboard
}

func newSystemClipboard() input.Clipboard {
	return &systemClipboard{}
}

func (c *systemClipboard) Read() (string, error) {
	if clipboard.Unsupported {
		return c.fallback.Read()
	}
	s, err := clipboard.ReadAll()
	if err != nil {
		return c.fallback.Read()
	}
	return s, nil
}

func (c *systemClipboard) Write(s string) error {
	_ = c.fallback.Write(s)
	if clipboard.Unsupported {
		return nil
	}
	return clipboard.WriteAll(s)
}
