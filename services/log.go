package services

import "go.uber.org/zap"

var logger = zap.NewNop()

// SetLogger installs the process logger for fire-and-forget persistence
// warnings. Services otherwise return errors to their callers.
func SetLogger(l *zap.Logger) {
	if l != nil {
		logger = l
	}
}

func logWarn(msg string, err error) {
	logger.Warn(msg, zap.Error(err))
}
