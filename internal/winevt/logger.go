package winevt

import "github.com/go-kit/log"

var logger log.Logger = log.NewNopLogger()

// SetLogger installs the package logger used by enumeration and the
// readers.
func SetLogger(l log.Logger) {
	if l != nil {
		logger = l
	}
}

func pkgLogger() log.Logger { return logger }
