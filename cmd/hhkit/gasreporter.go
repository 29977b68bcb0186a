package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Bidon15/hardhatkit"
	"github.com/Bidon15/hardhatkit/internal/hhconfig"
)

func newGasReporterCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "enable-gas-reporter",
		Short: "Enable hardhat-gas-reporter in the Hardhat config",
		Long: `Enable hardhat-gas-reporter in the Hardhat config.

Input:
  OUTPUT_FILE            report file (default gas-report.txt)
  EXCLUDE_CONTRACTS      comma-separated contract names to leave out
  CONTRACTS_SRC          contracts directory (default ./contracts)
  COINMARKETCAP_API_KEY  optional price feed key
  CURRENCY               report currency (default USD)`,
		Args: cobra.NoArgs,
		RunE: runGasReporter,
	}
}

func runGasReporter(cmd *cobra.Command, _ []string) error {
	opts := hhconfig.GasReporterOptions{
		OutputFile:       cfg.GetString("output_file"),
		ExcludeContracts: splitList(cfg.GetString("exclude_contracts")),
		Src:              cfg.GetString("contracts_src"),
		CoinmarketcapKey: cfg.GetString("coinmarketcap_api_key"),
		Currency:         cfg.GetString("currency"),
	}

	store := newStore()
	c := store.Load()
	logWarnings("gas reporter config replaced", c.Doc.ApplyGasReporter(opts))
	if err := store.Save(c, hardhatkit.PluginGasReporter); err != nil {
		return err
	}
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), colorGreen(cmd.OutOrStdout(), "Gas reporter enabled"))
	return nil
}

// splitList splits a comma-separated list, dropping blank items.
func splitList(s string) []string {
	out := []string{}
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
