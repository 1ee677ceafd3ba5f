// Command magniv2 is a reference harness for exercising the vault core: it
// wires config, logging, metrics, the in-memory reference Store/DebtToken/
// HostChain, and the engine together, then drives a handful of entrypoints
// against it so the event log and the Prometheus endpoint have something to
// show. It is not a production deployment — a real one backs Store with the
// host chain's own storage and DebtToken with a real CEP-18-style contract.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"math/big"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/IHB1-Foundation/magni-cspr/admin"
	"github.com/IHB1-Foundation/magni-cspr/config"
	"github.com/IHB1-Foundation/magni-cspr/core/events"
	"github.com/IHB1-Foundation/magni-cspr/crypto"
	"github.com/IHB1-Foundation/magni-cspr/delegation"
	"github.com/IHB1-Foundation/magni-cspr/fixedpoint"
	"github.com/IHB1-Foundation/magni-cspr/metrics"
	"github.com/IHB1-Foundation/magni-cspr/observability/logging"
	"github.com/IHB1-Foundation/magni-cspr/token"
	"github.com/IHB1-Foundation/magni-cspr/vault"
)

type wallClock struct{}

func (wallClock) Now() uint64 { return uint64(time.Now().Unix()) }

func main() {
	configFile := flag.String("config", "./config.toml", "Path to the configuration file")
	flag.Parse()

	env := strings.TrimSpace(os.Getenv("MAGNIV2_ENV"))
	logger := logging.Setup("magniv2", env)

	cfg, err := config.Load(*configFile)
	if err != nil {
		logger.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	owner, err := crypto.DecodeAddress(cfg.OwnerAddress)
	if err != nil {
		logger.Error("invalid OwnerAddress", slog.Any("error", err))
		os.Exit(1)
	}

	adminCtl, err := admin.New(owner, cfg.ValidatorKey)
	if err != nil {
		logger.Error("failed to construct admin control", slog.Any("error", err))
		os.Exit(1)
	}

	vaultKey, err := crypto.GeneratePrivateKey()
	if err != nil {
		logger.Error("failed to generate vault key", slog.Any("error", err))
		os.Exit(1)
	}
	vaultAddr := vaultKey.PubKey().Address()

	host := delegation.NewSimHost(uint64(time.Now().Unix()))
	delegationAdapter := delegation.New(host, adminCtl.Validator)
	debtToken := token.NewInMemory(vaultAddr)

	engine, err := vault.NewEngine(vault.NewMemoryStore(), adminCtl, delegationAdapter, debtToken, vaultAddr, wallClock{})
	if err != nil {
		logger.Error("failed to construct vault engine", slog.Any("error", err))
		os.Exit(1)
	}

	log := events.NewLog()
	m := metrics.VaultMetrics()
	emitter := metrics.EventObserver{Inner: log, M: m}

	go serveMetrics(cfg.MetricsAddress, logger)

	logger.Info("magniv2 demo harness ready",
		slog.String("owner", owner.String()),
		slog.String("vault", vaultAddr.String()),
		logging.MaskField("validator", adminCtl.Validator()),
	)

	runDemoWalk(engine, emitter, m, logger)

	for _, e := range log.All() {
		logger.Info("event", slog.String("type", e.Type))
	}
}

func serveMetrics(addr string, logger *slog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	logger.Info("metrics listening", slog.String("address", addr))
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Error("metrics server exited", slog.Any("error", err))
	}
}

// runDemoWalk drives a deposit/borrow/withdraw_max sequence for one sample
// user, logging each entrypoint's outcome and feeding the Prometheus
// counters and gauges m backs. It exists purely to give the harness
// something observable; it is not a test.
func runDemoWalk(engine *vault.Engine, emitter events.Emitter, m *metrics.Registry, logger *slog.Logger) {
	key, err := crypto.GeneratePrivateKey()
	if err != nil {
		logger.Error("failed to generate demo user key", slog.Any("error", err))
		return
	}
	user := key.PubKey().Address()

	steps := []struct {
		name string
		run  func() error
	}{
		{"deposit", func() error { return engine.Deposit(user, fixedpoint.NewMotesFromUint64(100*fixedpoint.MotesPerBase), emitter) }},
		{"borrow", func() error {
			amount, err := fixedpoint.NewWadFromBigInt(new(big.Int).Mul(big.NewInt(50), big.NewInt(1_000_000_000_000_000_000)))
			if err != nil {
				return err
			}
			return engine.Borrow(user, amount, emitter)
		}},
		{"withdraw_max", func() error { return engine.WithdrawMax(user, emitter) }},
	}
	for _, step := range steps {
		err := step.run()
		m.ObserveEntrypoint(step.name, err)
		if err != nil {
			logger.Warn("demo step failed", slog.String("step", step.name), slog.Any("error", err))
			continue
		}
		logger.Info("demo step ok", slog.String("step", step.name))
	}

	totalCollateral, totalDebt, err := engine.Totals()
	if err != nil {
		logger.Error("Totals failed", slog.Any("error", err))
	} else {
		m.SetTotals(totalCollateral.Float64(), totalDebt.Float64())
	}

	pos, err := engine.GetPosition(user)
	if err != nil {
		logger.Error("GetPosition failed", slog.Any("error", err))
		return
	}
	logger.Info("final position",
		slog.String("collateral_motes", pos.CollateralMotes.String()),
		slog.String("debt_wad", pos.DebtWad.String()),
		slog.Any("ltv_bps", pos.LtvBps),
		slog.String("status", fmt.Sprint(pos.Status)),
	)
}
