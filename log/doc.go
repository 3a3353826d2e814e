// Package log provides a small leveled logging interface shared by the
// adaptiverag engine, stores and server.
//
// Five levels are supported (Debug, Info, Warn, Error, None). Two
// implementations ship with the package: DefaultLogger on top of the
// standard library log package, and GologLogger wrapping
// github.com/kataras/golog for users who want colored, prefixed output.
// NoOpLogger silences a component entirely.
//
// A package-level logger backs the convenience functions log.Debug,
// log.Info, log.Warn and log.Error; replace it with SetDefaultLogger or
// SetLogLevel. Components that take a Logger fall back to the package
// logger when given nil.
//
//	logger := log.NewGologLogger(golog.New())
//	logger.SetLevel(log.LogLevelDebug)
//	log.SetDefaultLogger(logger)
package log
