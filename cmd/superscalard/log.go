package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/btcsuite/btclog"
	"github.com/jrick/logrotate/rotator"
	"github.com/lightninglabs/neutrino"
	"github.com/lightninglabs/superscalar/chain"
	"github.com/lightninglabs/superscalar/channeldb"
	"github.com/lightninglabs/superscalar/jitchannel"
	"github.com/lightninglabs/superscalar/lnwallet"
	"github.com/lightninglabs/superscalar/watchtower"
	"github.com/lightninglabs/superscalar/wire"
)

// logWriter wraps the log rotator's pipe so btclog can write to it before
// the rotator itself has been initialized; writes before initialization are
// simply dropped.
type logWriter struct {
	pipe io.Writer
}

func (w *logWriter) Write(p []byte) (int, error) {
	if w.pipe == nil {
		return len(p), nil
	}
	return w.pipe.Write(p)
}

var (
	backendWriter = &logWriter{}
	backendLog    = btclog.NewBackend(backendWriter)
	logRotator    *rotator.Rotator

	daemonLog = backendLog.Logger("SSCD")
	jitLog    = backendLog.Logger("JITC")
	wtwrLog   = backendLog.Logger("WTWR")
	chdbLog   = backendLog.Logger("CHDB")
	chnLog    = backendLog.Logger("CHAN")
	wireLog   = backendLog.Logger("WIRE")
	lnwLog    = backendLog.Logger("LNWL")
)

var subsystemLoggers = map[string]btclog.Logger{
	"SSCD": daemonLog,
	"JITC": jitLog,
	"WTWR": wtwrLog,
	"CHDB": chdbLog,
	"CHAN": chnLog,
	"WIRE": wireLog,
	"LNWL": lnwLog,
}

// useLoggers propagates the subsystem loggers declared above into every
// package that exposes a UseLogger hook, the same wiring lnd.go performs
// for its own subsystems.
func useLoggers() {
	jitchannel.UseLogger(jitLog)
	watchtower.UseLogger(wtwrLog)
	chain.UseLogger(chnLog)
	neutrino.UseLogger(chnLog)
	channeldb.UseLogger(chdbLog)
	wire.UseLogger(wireLog)
	lnwallet.UseLogger(lnwLog)
}

// initLogRotator initializes the logging rotator to write logs to logFile
// and create roll files alongside it.
func initLogRotator(logFile string, maxLogFileSize, maxLogFiles int) error {
	logDir, _ := filepath.Split(logFile)
	if err := os.MkdirAll(logDir, 0700); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	r, err := rotator.New(logFile, int64(maxLogFileSize*1024), false, maxLogFiles)
	if err != nil {
		return fmt.Errorf("failed to create file rotator: %w", err)
	}

	pr, pw := io.Pipe()
	go r.Run(pr)

	backendWriter.pipe = pw
	logRotator = r
	return nil
}

// setLogLevels sets every subsystem logger to level.
func setLogLevels(level string) {
	lvl, _ := btclog.LevelFromString(level)
	for _, logger := range subsystemLoggers {
		logger.SetLevel(lvl)
	}
}
