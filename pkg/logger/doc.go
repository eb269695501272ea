// Package logger builds configured slog.Logger instances through functional
// options: output format (json/text), minimum level, destination writer,
// and static attributes such as the service name.
//
//	log := logger.New(
//		logger.WithService("subscriptiond"),
//		logger.WithLevel(slog.LevelDebug),
//		logger.WithFormat(logger.FormatText),
//	)
package logger
