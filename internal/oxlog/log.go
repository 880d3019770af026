// Package oxlog sets up the structured logger the demo commands use to
// report what they do; oxserver also hands it to server.SetLogger for
// per-connection handshake, root-bind and error-sink failures. The
// core rpc and codec packages never import this: they are a pure protocol
// library with no logging dependency of their own, same as their teacher.
package oxlog

import (
	"os"

	"github.com/op/go-logging"
)

var stderrFormat = logging.MustStringFormatter(
	`%{time:15:04:05.000} %{level:.4s} ▶ %{message}`,
)

// Setup returns a named logger backed by stderr at the given level. Callers
// pass prefix as the module name ("oxserver", "oxclient") so multiple
// binaries sharing a logging configuration remain distinguishable.
func Setup(prefix string, level logging.Level) *logging.Logger {
	backend := logging.NewLogBackend(os.Stderr, prefix, 0)
	logging.SetFormatter(stderrFormat)
	leveled := logging.AddModuleLevel(backend)
	leveled.SetLevel(level, prefix)
	logging.SetBackend(leveled)
	return logging.MustGetLogger(prefix)
}
