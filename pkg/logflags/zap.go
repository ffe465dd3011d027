package logflags

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func makeLogger(debug bool) Logger {
	encoderConfig := zapcore.EncoderConfig{
		TimeKey:      "timestamp",
		LevelKey:     "level",
		MessageKey:   "message",
		EncodeLevel:  zapcore.CapitalLevelEncoder,
		EncodeTime:   zapcore.ISO8601TimeEncoder,
		EncodeCaller: zapcore.ShortCallerEncoder,
	}

	level := zapcore.ErrorLevel
	if debug {
		level = zapcore.DebugLevel
	}

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderConfig),
		zapcore.NewMultiWriteSyncer(zapcore.AddSync(logOut)),
		level,
	)

	return zap.New(core, zap.AddCaller()).Sugar()
}

// HTTPLogger returns a configured logger for the service layer.
func HTTPLogger() Logger {
	return makeLogger(http)
}

// ScanLogger returns a configured logger for scan and narrow passes.
func ScanLogger() Logger {
	return makeLogger(scan)
}
