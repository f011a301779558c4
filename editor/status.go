package editor

import (
	"fmt"
	"time"

	"github.com/yididiel7/fresh/utils"
)

// Warning is one entry of the degraded-subsystem log surfaced in the UI.
type Warning struct {
	When    time.Time
	Source  string
	Message string
}

const (
	statusHistorySize  = 50
	defaultWarningSize = 100
)

// statusBar keeps the current message plus a bounded history, and the
// bounded warning log external failures land in.
type statusBar struct {
	current  string
	history  *utils.Ring[string]
	warnings *utils.Ring[Warning]
}

func newStatusBar(warningCap int) *statusBar {
	if warningCap <= 0 {
		warningCap = defaultWarningSize
	}
	return &statusBar{
		history:  utils.NewRing[string](statusHistorySize),
		warnings: utils.NewRing[Warning](warningCap),
	}
}

func (s *statusBar) set(format string, args ...interface{}) {
	s.current = fmt.Sprintf(format, args...)
	if s.current != "" {
		s.history.Push(s.current)
	}
}

func (s *statusBar) warn(source, format string, args ...interface{}) {
	w := Warning{When: time.Now(), Source: source, Message: fmt.Sprintf(format, args...)}
	s.warnings.Push(w)
	s.set("[%s] %s", source, w.Message)
}
