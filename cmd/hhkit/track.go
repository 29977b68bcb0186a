package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Bidon15/hardhatkit"
	"github.com/Bidon15/hardhatkit/internal/deployments"
)

func newTrackCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "track-deployment",
		Short: "Record a deployed contract under deployments/",
		Long: `Record a deployed contract under deployments/<network>/<name>.json and
in the deployments/deployments.json index.

Input:
  CONTRACT_NAME     contract name (required)
  CONTRACT_ADDRESS  deployed address (required)
  NETWORK           network name (required)
  CONSTRUCTOR_ARGS  JSON array of constructor arguments (default [])
  CONTRACT_PATH     source path of the contract
  BLOCK_NUMBER      deployment block
  TX_HASH           deployment transaction
  RPC_URL           looks up BLOCK_NUMBER from TX_HASH when not given`,
		Args: cobra.NoArgs,
		RunE: runTrack,
	}
}

func runTrack(cmd *cobra.Command, _ []string) error {
	args, err := constructorArgs(cfg.GetString("constructor_args"))
	if err != nil {
		return err
	}

	tracker := deployments.New(projectPath(hardhatkit.DefaultDeployDir), logger,
		deployments.WithReceiptFetcher(deployments.W3Receipts{}),
	)
	res, err := tracker.Track(cmd.Context(), deployments.TrackRequest{
		ContractName:    cfg.GetString("contract_name"),
		Address:         cfg.GetString("contract_address"),
		Network:         cfg.GetString("network"),
		ConstructorArgs: args,
		ContractPath:    cfg.GetString("contract_path"),
		BlockNumber:     cfg.GetString("block_number"),
		TxHash:          cfg.GetString("tx_hash"),
		RPCURL:          cfg.GetString("rpc_url"),
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "Deployment tracked: %s\n", res.Path)
	_, _ = fmt.Fprintf(out, "All deployments updated: %s\n", res.IndexPath)
	return nil
}

func constructorArgs(raw string) ([]any, error) {
	if raw == "" {
		return []any{}, nil
	}
	var args []any
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		return nil, fmt.Errorf("%w: CONSTRUCTOR_ARGS must be a JSON array: %w", hardhatkit.ErrInvalidInput, err)
	}
	return args, nil
}
