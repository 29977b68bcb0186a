package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Bidon15/hardhatkit"
	"github.com/Bidon15/hardhatkit/internal/interact"
)

func newInteractCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "interact",
		Short: "Call a function of a deployed contract",
		Long: `Call a function of a deployed contract and print
{"result", "txHash", "gasUsed"} as JSON.

Input:
  CONTRACT_ADDRESS  contract address (required)
  FUNCTION_NAME     function name or signature (required)
  FUNCTION_PARAMS   JSON array of arguments (default [])
  CONTRACT_NAME     artifact name or fully qualified name (default Contract)
  ARTIFACTS_DIR     Hardhat artifacts directory (default artifacts)
  RPC_URL           JSON-RPC endpoint
  NETWORK           configured network to take the endpoint and account from
  PRIVATE_KEY       signer for state-changing functions`,
		Args: cobra.NoArgs,
		RunE: runInteract,
	}
}

func runInteract(cmd *cobra.Command, _ []string) error {
	params, err := interact.ParseParams(cfg.GetString("function_params"))
	if err != nil {
		return err
	}
	req := interact.Request{
		ContractName: cfg.GetString("contract_name"),
		Address:      cfg.GetString("contract_address"),
		Function:     cfg.GetString("function_name"),
		Params:       params,
		PrivateKey:   cfg.GetString("private_key"),
	}
	rpcURL := resolveEndpoint(&req)

	artifactsDir := cfg.GetString("artifacts_dir")
	if artifactsDir == "" {
		artifactsDir = hardhatkit.DefaultArtifactsDir
	}

	ctx := cmd.Context()
	client, err := interact.Dial(ctx, rpcURL)
	if err != nil {
		return err
	}
	defer client.Close()

	res, err := interact.New(client, projectPath(artifactsDir), logger).Call(ctx, req)
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), res)
}

// resolveEndpoint picks the RPC endpoint: RPC_URL, else the url of NETWORK
// in the project config, else the local default. The configured account
// signs when PRIVATE_KEY is not set.
func resolveEndpoint(req *interact.Request) string {
	if rpcURL := cfg.GetString("rpc_url"); rpcURL != "" {
		return rpcURL
	}
	if network := cfg.GetString("network"); network != "" {
		c := newStore().Read()
		if url, account, ok := c.Doc.NetworkEndpoint(network); ok {
			if req.PrivateKey == "" {
				req.PrivateKey = account
			}
			logger.Debug("using configured network",
				slog.String("network", network),
				slog.String("url", url),
			)
			return url
		}
		logger.Warn("network not found in config, using default endpoint",
			slog.String("network", network),
			slog.String("path", c.Path),
		)
	}
	return hardhatkit.DefaultRPCURL
}
