package publishers

import "github.com/Adda-Baaj/webservice-probe/internal/logger"

// Logger is the structured logging surface publishers report through.
type Logger = logger.Logger

type noopLogger = logger.NopLogger

func ensureLogger(log Logger) Logger { return logger.Ensure(log) }
