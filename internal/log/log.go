// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package log

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/apex/log"
)

// EnvLogLevel names the environment variable holding the log level.
const EnvLogLevel = "PUBDATA_LOG"

// InitLogger sets up Apex with a custom handler and a log level from the
// PUBDATA_LOG env variable. Logs go to stderr so they never mix with data
// written to stdout.
func InitLogger() {
	level := strings.ToUpper(os.Getenv(EnvLogLevel))
	if level == "" {
		level = "ERROR"
	}
	log.SetHandler(&CustomHandler{Writer: os.Stderr})
	l, err := log.ParseLevel(strings.ToLower(level))
	if err != nil {
		l = log.ErrorLevel
	}
	log.SetLevel(l)
}

// CustomHandler formats log messages as a single line.
type CustomHandler struct {
	Writer io.Writer
	mu     sync.Mutex
}

// HandleLog implements the log.Handler interface
func (h *CustomHandler) HandleLog(e *log.Entry) error {
	timestamp := e.Timestamp.Format("2006-01-02 15:04:05")
	if e.Timestamp.IsZero() {
		timestamp = time.Now().Format("2006-01-02 15:04:05")
	}
	level := strings.ToUpper(e.Level.String())

	var b strings.Builder
	fmt.Fprintf(&b, "%s %.1s %s", timestamp, level, e.Message)
	for _, name := range e.Fields.Names() {
		fmt.Fprintf(&b, " %s=%v", name, e.Fields.Get(name))
	}
	b.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	w := h.Writer
	if w == nil {
		w = os.Stderr
	}
	_, err := io.WriteString(w, b.String())
	return err
}
