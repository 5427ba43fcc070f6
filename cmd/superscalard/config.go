package main

import (
	"fmt"
	"os"
	"path/filepath"

	flags "github.com/jessevdk/go-flags"
)

const (
	defaultDataDir     = "data"
	defaultLogDir      = "logs"
	defaultLogFile     = "superscalard.log"
	defaultLogLevel    = "info"
	defaultMaxLogSize  = 10
	defaultMaxLogFiles = 3

	defaultNumChannels         = 4
	defaultFundingSats         = 50000
	defaultConfirmDepth        = 3
	defaultMaxRotationRetries  = 5
	defaultRotationRetryBlocks = 144
	defaultOfflineTimeoutSec   = 300
	defaultPollIntervalSec     = 10

	defaultRPCListen     = "localhost:9836"
	defaultMetricsListen = "localhost:9837"
)

// config mirrors the environment values spec.md §6 lists for the JIT
// subsystem, following lnd.go's own flat command-line configuration
// style.
type config struct {
	DataDir string `long:"datadir" description:"The directory to store superscalard's data within"`
	LogDir  string `long:"logdir" description:"Directory to log output"`

	DebugLevel  string `short:"d" long:"debuglevel" description:"Logging level for all subsystems"`
	MaxLogFiles int    `long:"maxlogfiles" description:"Maximum logfiles to keep (0 for no rotation)"`
	MaxLogSize  int    `long:"maxlogfilesize" description:"Maximum logfile size in MB"`

	NumChannels uint32 `long:"numchannels" description:"The number of factory-anchored channel slots, sizing both the JIT id space and the watchtower index space"`

	DefaultFundingSats  uint64 `long:"fundingsats" description:"Default funding amount, in satoshis, for a JIT channel opened on trigger"`
	ConfirmDepth        uint32 `long:"confirmdepth" description:"Confirmations required before a JIT channel's funding transaction is considered OPEN"`
	MaxRotationRetries  int    `long:"maxrotationretries" description:"Maximum number of factory rotation attempts before giving up"`
	RotationRetryBlocks uint32 `long:"rotationretryblocks" description:"Blocks to wait between factory rotation retry attempts"`
	OfflineTimeoutSec   uint32 `long:"offlinetimeout" description:"Seconds of silence from a client before it is considered offline"`
	PollIntervalSec     uint32 `long:"pollinterval" description:"Seconds between control loop ticks"`

	RPCListen     string `long:"rpclisten" description:"Address to listen on for client connections"`
	MetricsListen string `long:"metricslisten" description:"Address to expose Prometheus metrics on, empty to disable"`

	RPCHost string `long:"rpchost" description:"Host:port of the backing chain node's RPC endpoint"`
	RPCUser string `long:"rpcuser" description:"Username for chain node RPC"`
	RPCPass string `long:"rpcpass" description:"Password for chain node RPC"`

	SqliteDSN string `long:"sqlitedsn" description:"DSN passed to the sqlite driver, defaults to a file under datadir"`
}

func defaultConfig() *config {
	return &config{
		DataDir:             defaultDataDir,
		LogDir:              defaultLogDir,
		DebugLevel:          defaultLogLevel,
		MaxLogFiles:         defaultMaxLogFiles,
		MaxLogSize:          defaultMaxLogSize,
		NumChannels:         defaultNumChannels,
		DefaultFundingSats:  defaultFundingSats,
		ConfirmDepth:        defaultConfirmDepth,
		MaxRotationRetries:  defaultMaxRotationRetries,
		RotationRetryBlocks: defaultRotationRetryBlocks,
		OfflineTimeoutSec:   defaultOfflineTimeoutSec,
		PollIntervalSec:     defaultPollIntervalSec,
		RPCListen:           defaultRPCListen,
		MetricsListen:       defaultMetricsListen,
	}
}

// loadConfig parses command-line flags over the defaults above and fills
// in any directory-derived defaults that need the final DataDir value.
func loadConfig() (*config, error) {
	cfg := defaultConfig()
	if _, err := flags.Parse(cfg); err != nil {
		return nil, err
	}

	if cfg.SqliteDSN == "" {
		cfg.SqliteDSN = filepath.Join(cfg.DataDir, "superscalar.db")
	}
	if !filepath.IsAbs(cfg.LogDir) {
		cfg.LogDir = filepath.Join(cfg.DataDir, cfg.LogDir)
	}

	if err := os.MkdirAll(cfg.DataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	return cfg, nil
}
