package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/Bidon15/hardhatkit"
	"github.com/Bidon15/hardhatkit/internal/hhconfig"
)

func newVerificationCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "update-verification",
		Short: "Register a network with a Blockscout verification service",
		Long: `Register a network with a Blockscout verification service.

Input:
  VERIFICATION_URL  explorer URL (required)
  NETWORK           network name (default bloctopus)
  CHAIN_ID          chain id (default 1337)
  RPC_URL           used when the network is not configured yet
                    (default http://localhost:8545)
  PRIVATE_KEY       account for a newly created network entry
  API_KEY           etherscan.apiKey value (default blockscout)`,
		Args: cobra.NoArgs,
		RunE: runVerification,
	}
}

func runVerification(cmd *cobra.Command, _ []string) error {
	target, err := verificationTarget()
	if err != nil {
		return err
	}

	store := newStore()
	c := store.Load()
	logWarnings("verification config", c.Doc.ApplyVerification(target))
	if err := store.Save(c, hardhatkit.PluginVerify); err != nil {
		return err
	}
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), colorGreen(cmd.OutOrStdout(), "Hardhat config updated successfully for verification"))
	return nil
}

func verificationTarget() (hhconfig.VerificationTarget, error) {
	t := hhconfig.VerificationTarget{
		Network:         cfg.GetString("network"),
		ChainID:         hardhatkit.DefaultChainID,
		RPCURL:          cfg.GetString("rpc_url"),
		PrivateKey:      cfg.GetString("private_key"),
		VerificationURL: cfg.GetString("verification_url"),
		APIKey:          cfg.GetString("api_key"),
	}
	if t.VerificationURL == "" {
		return t, fmt.Errorf("%w: VERIFICATION_URL environment variable is required", hardhatkit.ErrMissingInput)
	}
	if raw := cfg.GetString("chain_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return t, fmt.Errorf("%w: CHAIN_ID %q is not an integer", hardhatkit.ErrInvalidInput, raw)
		}
		t.ChainID = id
	}
	if t.Network == "" {
		t.Network = hardhatkit.DefaultNetwork
	}
	if t.RPCURL == "" {
		t.RPCURL = hardhatkit.DefaultRPCURL
	}
	return t, nil
}
