package main

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/rpcclient"
	"github.com/lightninglabs/superscalar/chain"
	"github.com/lightninglabs/superscalar/channeldb"
	"github.com/lightninglabs/superscalar/jitchannel"
	"github.com/lightninglabs/superscalar/metrics"
	"github.com/lightninglabs/superscalar/watchtower"
	"github.com/lightninglabs/superscalar/wire"
	"github.com/lightningnetwork/lnd/queue"
	"github.com/lightningnetwork/lnd/ticker"
)

var shutdownChannel = make(chan struct{})

// fakeFundingBuilder is the placeholder FundingBuilder used until a real
// signer is wired in; it matches spec.md's explicit non-goal that the
// funding transaction's construction and signing live outside this
// repository.
type fakeFundingBuilder struct {
	backend chain.Backend
}

func (f *fakeFundingBuilder) BuildFundingTx(ctx context.Context, _ uint64,
	_ *btcec.PublicKey, amount uint64) ([]byte, chainhash.Hash, uint32, error) {

	var txid chainhash.Hash
	return nil, txid, 0, fmt.Errorf("funding construction is not implemented by this daemon")
}

func superscalardMain() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if err := initLogRotator(
		cfg.LogDir+string(os.PathSeparator)+defaultLogFile,
		cfg.MaxLogSize, cfg.MaxLogFiles,
	); err != nil {
		return err
	}
	setLogLevels(cfg.DebugLevel)
	useLoggers()

	daemonLog.Infof("starting superscalard, datadir=%v", cfg.DataDir)

	db, err := channeldb.Open(cfg.SqliteDSN)
	if err != nil {
		return fmt.Errorf("opening channeldb: %w", err)
	}
	defer db.Close()

	store, err := jitchannel.NewStore(int(cfg.NumChannels))
	if err != nil {
		return fmt.Errorf("creating jit store: %w", err)
	}
	store.SetEnabled(true)

	rows, err := db.LoadJITChannels()
	if err != nil {
		return fmt.Errorf("reloading jit channels: %w", err)
	}
	for _, row := range rows {
		if row.State == channeldb.StateClosed {
			continue
		}
		jit := &jitchannel.JITChannel{
			JITChannelID:    row.JITChannelID,
			ClientIdx:       row.ClientIdx,
			State:           jitchannel.StateFromString(row.State),
			FundingTxid:     row.FundingTxid,
			FundingVout:     row.FundingVout,
			FundingAmount:   row.FundingAmount,
			CreatedBlock:    row.CreatedBlock,
			TargetFactoryID: row.TargetFactoryID,
		}
		jit.Channel.LocalAmount = row.LocalAmount
		jit.Channel.RemoteAmount = row.RemoteAmount
		jit.Channel.CommitmentNumber = row.CommitmentNum

		bpRow, err := db.LoadBasepoints(row.JITChannelID)
		if err != nil {
			daemonLog.Warnf("skipping jit channel %d: no basepoints on file: %v",
				row.JITChannelID, err)
			continue
		}
		if err := jit.RestoreBasepoints(bpRow); err != nil {
			daemonLog.Warnf("skipping jit channel %d: %v",
				row.JITChannelID, err)
			continue
		}

		if err := store.Restore(jit); err != nil {
			daemonLog.Warnf("skipping unrestorable jit channel %d: %v",
				row.JITChannelID, err)
		}
	}
	daemonLog.Infof("restored %d active jit channels", len(store.All()))

	tower := watchtower.NewTower(cfg.NumChannels)
	if err := tower.Start(); err != nil {
		return fmt.Errorf("starting watchtower: %w", err)
	}
	defer tower.Stop()

	var backend chain.Backend
	if cfg.RPCHost != "" {
		rpcBackend, err := chain.NewRPCBackend(&rpcclient.ConnConfig{
			Host:         cfg.RPCHost,
			User:         cfg.RPCUser,
			Pass:         cfg.RPCPass,
			HTTPPostMode: true,
			DisableTLS:   true,
		}, cfg.ConfirmDepth)
		if err != nil {
			return fmt.Errorf("connecting to chain backend: %w", err)
		}
		backend = rpcBackend
	} else {
		daemonLog.Warnf("no rpchost configured, running without a chain backend")
	}

	lspKey, err := btcec.NewPrivateKey()
	if err != nil {
		return err
	}

	ctrl := jitchannel.NewController(store, db, tower, backend,
		&fakeFundingBuilder{backend: backend}, lspKey.PubKey(), jitchannel.Config{
			ConfirmDepth:        cfg.ConfirmDepth,
			DefaultFundingSats:  cfg.DefaultFundingSats,
			MaxRotationRetries:  cfg.MaxRotationRetries,
			RotationRetryBlocks: cfg.RotationRetryBlocks,
		})

	liveness := jitchannel.NewLiveness(
		time.Duration(cfg.OfflineTimeoutSec)*time.Second, nil,
	)

	reg := metrics.New()
	if cfg.MetricsListen != "" {
		metricsCtx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go func() {
			if err := metrics.ListenAndServe(metricsCtx, reg.Registry, cfg.MetricsListen); err != nil {
				daemonLog.Errorf("metrics server: %v", err)
			}
		}()
	}

	listener, err := net.Listen("tcp", cfg.RPCListen)
	if err != nil {
		return fmt.Errorf("listening on %v: %w", cfg.RPCListen, err)
	}
	defer listener.Close()
	daemonLog.Infof("listening for client connections on %v", cfg.RPCListen)

	// Accepted connections are handed to a single FIFO queue rather than
	// serviced concurrently: the store and its backing sqlite connection
	// are single-writer, so concurrent Create calls would just contend
	// on the same lock anyway. The queue gives that serialization an
	// explicit, observable order instead of an implicit lock-wait one.
	pending := queue.NewConcurrentQueue(64)
	pending.Start()
	defer pending.Stop()

	go acceptLoop(listener, pending)
	go dispatchLoop(pending, ctrl, liveness, reg)

	sweeper := jitchannel.NewConfirmationSweeper(store, backend, cfg.ConfirmDepth,
		ticker.NewDefault(time.Duration(cfg.PollIntervalSec)*time.Second))
	sweeper.Start()
	defer sweeper.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		daemonLog.Info("received shutdown signal")
		close(shutdownChannel)
	}()

	<-shutdownChannel
	daemonLog.Info("shutdown complete")
	return nil
}

// acceptLoop accepts inbound client connections and enqueues each for
// servicing, mirroring server.go's own peer-accept loop.
func acceptLoop(listener net.Listener, pending *queue.ConcurrentQueue) {
	for {
		conn, err := listener.Accept()
		if err != nil {
			daemonLog.Errorf("accept: %v", err)
			return
		}
		pending.ChanIn() <- conn
	}
}

// dispatchLoop drains pending in the order connections were accepted,
// running the create handshake for each client to completion before
// moving to the next.
func dispatchLoop(pending *queue.ConcurrentQueue, ctrl *jitchannel.Controller,
	liveness *jitchannel.Liveness, reg *metrics.Metrics) {

	for item := range pending.ChanOut() {
		conn := item.(net.Conn)
		serviceClientConn(conn, ctrl, liveness, reg)
	}
}

// serviceClientConn reads the 8-byte client index a connecting client
// leads with and runs the create handshake over the remainder of the
// stream.
func serviceClientConn(conn net.Conn, ctrl *jitchannel.Controller,
	liveness *jitchannel.Liveness, reg *metrics.Metrics) {

	defer conn.Close()

	var idBuf [8]byte
	if _, err := io.ReadFull(conn, idBuf[:]); err != nil {
		daemonLog.Errorf("reading client index: %v", err)
		return
	}
	clientIdx := binary.BigEndian.Uint64(idBuf[:])
	liveness.Touch(clientIdx)

	wireConn := wire.NewConn(conn)

	jit, err := ctrl.Create(context.Background(), wireConn, clientIdx,
		ctrl.Cfg.DefaultFundingSats, "factory_expired", 0)
	if err != nil {
		daemonLog.Errorf("jit create for client %d: %v", clientIdx, err)
		reg.ChannelsAborted.Inc()
		return
	}
	reg.ChannelsCreated.Inc()
	reg.ActiveJITChannels.Inc()
	daemonLog.Infof("jit channel %d open for client %d", jit.JITChannelID, clientIdx)
}

func main() {
	runtime.GOMAXPROCS(runtime.NumCPU())

	if err := superscalardMain(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
