package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Bidon15/hardhatkit"
	"github.com/Bidon15/hardhatkit/internal/hhconfig"
)

func newConfigureNetworksCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "configure-networks",
		Short: "Merge network definitions into the Hardhat config",
		Long: `Merge network definitions into the Hardhat config.

Input:
  NETWORKS_CONFIG       JSON object mapping network name to
                        {rpc_url, chain_id, private_key?, verification_url?}
  NETWORKS_CONFIG_FILE  the same mapping in a YAML or JSON file

Networks with a verification_url are also registered under
etherscan.apiKey and etherscan.customChains, and the verification
plugin import is added.`,
		Args: cobra.NoArgs,
		RunE: runConfigureNetworks,
	}
}

func runConfigureNetworks(cmd *cobra.Command, _ []string) error {
	networks, err := loadNetworks()
	if err != nil {
		return err
	}

	store := newStore()
	c := store.Load()
	needsVerification, warnings := c.Doc.ApplyNetworks(networks)
	logWarnings("network config incomplete", warnings)

	var plugins []string
	if needsVerification {
		plugins = append(plugins, hardhatkit.PluginVerify)
	}
	if err := store.Save(c, plugins...); err != nil {
		return err
	}
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), colorGreen(cmd.OutOrStdout(), "Hardhat config updated with multiple networks"))
	return nil
}

// loadNetworks reads the network descriptors from NETWORKS_CONFIG, falling
// back to the file named by NETWORKS_CONFIG_FILE.
func loadNetworks() (map[string]hardhatkit.NetworkDescriptor, error) {
	if raw := cfg.GetString("networks_config"); raw != "" {
		return hhconfig.ParseNetworks([]byte(raw))
	}
	if path := cfg.GetString("networks_config_file"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("%w: networks config file: %w", hardhatkit.ErrInvalidInput, err)
		}
		return hhconfig.ParseNetworksYAML(data)
	}
	return nil, fmt.Errorf("%w: NETWORKS_CONFIG environment variable is required", hardhatkit.ErrMissingInput)
}
