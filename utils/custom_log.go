package utils

import (
	"io"
	"os"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	_colorPrint atomic.Bool
	_logOutput  atomic.Value // zapcore.WriteSyncer
	_logger     atomic.Pointer[zap.SugaredLogger]
)

func init() {
	_logOutput.Store(zapcore.Lock(os.Stderr))
	rebuildLogger()
}

func rebuildLogger() {
	encConf := zap.NewProductionEncoderConfig()
	encConf.EncodeTime = zapcore.ISO8601TimeEncoder
	encConf.EncodeLevel = zapcore.CapitalLevelEncoder
	if _colorPrint.Load() {
		encConf.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encConf),
		_logOutput.Load().(zapcore.WriteSyncer),
		zapcore.DebugLevel,
	)
	_logger.Store(zap.New(core).Sugar())
}

func SetColorPrint(enable bool) {
	_colorPrint.Store(enable)
	rebuildLogger()
}

// SetLogOutput sends all further log lines to w.
func SetLogOutput(w io.Writer) {
	_logOutput.Store(zapcore.Lock(zapcore.AddSync(w)))
	rebuildLogger()
}

// Logger returns the shared structured logger.
func Logger() *zap.SugaredLogger {
	return _logger.Load()
}

func SyncLog() error {
	return Logger().Sync()
}

func LogInfo(format string, v ...interface{}) {
	Logger().Infof(format, v...)
}

func LogWarn(format string, v ...interface{}) {
	Logger().Warnf(format, v...)
}

func LogErro(format string, v ...interface{}) {
	Logger().Errorf(format, v...)
}

func LogFatal(format string, v ...interface{}) {
	Logger().Fatalf(format, v...)
}
