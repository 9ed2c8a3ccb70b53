// Command chain-cli is the interactive collaborator front-end for the
// carbon-reduction chain core: it prompts for panel registration, reports
// balances, creates transactions, invokes contracts, and shows chain info
// (spec §6). It never implements core logic itself — everything here
// delegates to the core package.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"perovskite-chain/core"
	"perovskite-chain/pkg/config"
)

// Exit codes per spec §6: 0 ok, 1 user error, 2 internal error.
const (
	ExitOK       = 0
	ExitUserErr  = 1
	ExitInternal = 2
)

func main() {
	_ = godotenv.Load() // optional local .env overrides; missing file is not an error

	var snapshotDir string
	var configEnv string

	root := &cobra.Command{
		Use:   "chain-cli",
		Short: "interactive console for the carbon-reduction chain",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInteractive(snapshotDir, configEnv)
		},
	}
	root.PersistentFlags().StringVar(&snapshotDir, "data", "./data", "snapshot directory to load/save")
	root.PersistentFlags().StringVar(&configEnv, "env", "", "config environment overlay (cmd/config/<env>.yaml)")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(exitCodeFor(err))
	}
}

func exitCodeFor(err error) int {
	if err == nil {
		return ExitOK
	}
	switch {
	case isUserError(err):
		return ExitUserErr
	default:
		return ExitInternal
	}
}

func isUserError(err error) bool {
	for _, sentinel := range []error{
		core.ErrPanelAlreadyRegistered,
		core.ErrPanelUnknown,
		core.ErrInvalidTransaction,
		core.ErrInsufficientBalance,
		core.ErrEmptyPending,
		core.ErrStaleTip,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}

func loadLedgerOrNew(snapshotDir string) *core.Ledger {
	led, err := core.LoadLedger(snapshotDir)
	if err != nil {
		led = core.NewLedger()
	}
	return led
}

func applyConfig(led *core.Ledger, cfg *config.Config) {
	if cfg == nil {
		return
	}
	if cfg.Chain.SolarIrradianceKwhPerM2Year > 0 {
		led.SetSolarIrradiance(cfg.Chain.SolarIrradianceKwhPerM2Year)
	}
	if cfg.Chain.InitialReferenceReduction > 0 {
		led.SetReferenceReduction(cfg.Chain.InitialReferenceReduction)
	}
	if cfg.Pow.Base > 0 {
		led.SetMiningParams(core.MiningParams{
			Base:        cfg.Pow.Base,
			Sensitivity: cfg.Pow.Sensitivity,
			MinDiff:     cfg.Pow.MinDiff,
			MaxDiff:     cfg.Pow.MaxDiff,
		})
	}
	if len(cfg.GridFactors) > 0 {
		overrides := make(map[string]float64, len(cfg.GridFactors))
		for _, row := range cfg.GridFactors {
			overrides[row.Region] = row.Factor
		}
		led.SetGridFactors(overrides)
	}
}
