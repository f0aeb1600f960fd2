// Package logging builds the controller's slog loggers.
//
// Every entry carries service and version; components add their own tag
// via Component:
//
//	logger := logging.New(cfg.Logging, version)
//	logger.Component("scheduler").Info("cycle started", "cycle_id", id)
//
// logging.level is one of debug, info, warn or error; logging.format is
// json or text; logging.output is stdout or stderr.
package logging
