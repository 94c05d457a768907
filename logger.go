package player

import "log"

// pkgLogger is the package-wide logging sink. It defaults to the standard
// library logger and can be swapped by an embedder through SetLogger.
var pkgLogger Logger = log.Default()

// Logger is the minimal capability this package needs from a logging
// backend. Any type satisfying it (including *log.Logger) can be used.
type Logger interface {
	Printf(format string, v ...any)
}

// SetLogger overrides the package-wide logger used by the pipeline stages.
func SetLogger(logger Logger) {
	pkgLogger = logger
}
