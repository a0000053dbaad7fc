package common

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestInitializeLogger_InstallsGlobal(t *testing.T) {
	previous := zap.L()
	t.Cleanup(func() { zap.ReplaceGlobals(previous) })
	zap.ReplaceGlobals(zap.NewNop())

	t.Setenv("LOG_LEVEL", "warn")
	logger, cleanup := InitializeLogger()
	defer cleanup()

	if zap.L() != logger {
		t.Fatal("Expected InitializeLogger to replace the global logger")
	}
	if !zap.L().Core().Enabled(zapcore.ErrorLevel) {
		t.Error("Expected error level to be enabled so fatal startup errors are written")
	}
	if zap.L().Core().Enabled(zapcore.InfoLevel) {
		t.Error("Expected LOG_LEVEL=warn to disable info")
	}
}

func TestInitializeLogger_InvalidLevelKeepsInfo(t *testing.T) {
	previous := zap.L()
	t.Cleanup(func() { zap.ReplaceGlobals(previous) })

	t.Setenv("LOG_LEVEL", "loud")
	_, cleanup := InitializeLogger()
	defer cleanup()

	if !zap.L().Core().Enabled(zapcore.InfoLevel) {
		t.Error("Expected default info level for an invalid LOG_LEVEL")
	}
}
