package logger

import "go.uber.org/zap"

// Names of the files written under the log directory.
const (
	SystemLogName = "system.log"
	AccessLogName = "http-access.log"
)

// Loggers bundles the system and access loggers.
type Loggers struct {
	System *zap.Logger
	Access *zap.Logger
}

// ProvideLoggers opens both log files under dir.
func ProvideLoggers(dir string) Loggers {
	return Loggers{
		System: NewLog(dir, SystemLogName),
		Access: NewLog(dir, AccessLogName),
	}
}
