// Package interact calls functions of deployed contracts using the ABI from
// Hardhat build artifacts.
package interact

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/Bidon15/hardhatkit"
)

// Backend is the chain access an Interactor needs. *ethclient.Client
// satisfies it.
type Backend interface {
	bind.ContractBackend
	bind.DeployBackend
	ChainID(ctx context.Context) (*big.Int, error)
}

// Request is one contract function call.
type Request struct {
	ContractName string
	Address      string
	Function     string
	Params       []any
	// PrivateKey signs state-changing calls. Unused for view and pure
	// functions.
	PrivateKey string
}

// Result is the outcome printed for a call.
type Result struct {
	Result  string  `json:"result"`
	TxHash  *string `json:"txHash"`
	GasUsed string  `json:"gasUsed"`
}

// Interactor performs contract calls against one chain.
type Interactor struct {
	backend      Backend
	artifactsDir string
	logger       *slog.Logger
}

// New creates an Interactor reading ABIs from artifactsDir.
func New(backend Backend, artifactsDir string, logger *slog.Logger) *Interactor {
	if logger == nil {
		logger = slog.Default()
	}
	if artifactsDir == "" {
		artifactsDir = hardhatkit.DefaultArtifactsDir
	}
	return &Interactor{backend: backend, artifactsDir: artifactsDir, logger: logger}
}

// Dial connects to a JSON-RPC endpoint.
func Dial(ctx context.Context, rpcURL string) (*ethclient.Client, error) {
	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", rpcURL, err)
	}
	return client, nil
}

// Call invokes req.Function. View and pure functions are executed with
// eth_call; anything else is signed, sent and waited for.
func (i *Interactor) Call(ctx context.Context, req Request) (*Result, error) {
	if req.Address == "" {
		return nil, fmt.Errorf("%w: CONTRACT_ADDRESS", hardhatkit.ErrMissingInput)
	}
	if req.Function == "" {
		return nil, fmt.Errorf("%w: FUNCTION_NAME", hardhatkit.ErrMissingInput)
	}
	if !common.IsHexAddress(req.Address) {
		return nil, fmt.Errorf("%w: %s is not an address", hardhatkit.ErrInvalidInput, req.Address)
	}
	name := req.ContractName
	if name == "" {
		name = hardhatkit.DefaultContractName
	}

	path, err := FindArtifact(i.artifactsDir, name)
	if err != nil {
		return nil, err
	}
	contractABI, err := LoadABI(path)
	if err != nil {
		return nil, err
	}
	method, err := FindMethod(contractABI, req.Function)
	if err != nil {
		return nil, err
	}
	args, err := ConvertArgs(method, req.Params)
	if err != nil {
		return nil, err
	}
	address := common.HexToAddress(req.Address)

	i.logger.Debug("calling contract",
		slog.String("contract", name),
		slog.String("address", address.Hex()),
		slog.String("method", method.Sig),
		slog.Bool("constant", method.IsConstant()),
	)

	if method.IsConstant() {
		return i.call(ctx, contractABI, method, address, args)
	}
	return i.transact(ctx, contractABI, method, address, args, req.PrivateKey)
}

func (i *Interactor) call(ctx context.Context, contractABI abi.ABI, method abi.Method, address common.Address, args []any) (*Result, error) {
	data, err := contractABI.Pack(method.Name, args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method.Name, err)
	}
	out, err := i.backend.CallContract(ctx, ethereum.CallMsg{To: &address, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", method.Name, err)
	}
	values, err := method.Outputs.Unpack(out)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", method.Name, err)
	}
	return &Result{Result: FormatResult(values), GasUsed: "0"}, nil
}

func (i *Interactor) transact(ctx context.Context, contractABI abi.ABI, method abi.Method, address common.Address, args []any, privateKey string) (*Result, error) {
	if privateKey == "" {
		return nil, fmt.Errorf("%w: %s", hardhatkit.ErrMissingSigner, method.Name)
	}
	key, err := crypto.HexToECDSA(strings.TrimPrefix(privateKey, "0x"))
	if err != nil {
		return nil, fmt.Errorf("%w: private key: %w", hardhatkit.ErrInvalidInput, err)
	}
	chainID, err := i.backend.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("get chain id: %w", err)
	}
	opts, err := bind.NewKeyedTransactorWithChainID(key, chainID)
	if err != nil {
		return nil, fmt.Errorf("create transactor: %w", err)
	}
	opts.Context = ctx

	contract := bind.NewBoundContract(address, contractABI, i.backend, i.backend, i.backend)
	tx, err := contract.Transact(opts, method.Name, args...)
	if err != nil {
		return nil, fmt.Errorf("send %s: %w", method.Name, err)
	}
	i.logger.Info("transaction submitted",
		slog.String("method", method.Sig),
		slog.String("tx_hash", tx.Hash().Hex()),
	)

	receipt, err := bind.WaitMined(ctx, i.backend, tx)
	if err != nil {
		return nil, fmt.Errorf("wait for %s receipt: %w", tx.Hash().Hex(), err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return nil, fmt.Errorf("%w: %s", hardhatkit.ErrTransactionReverted, tx.Hash().Hex())
	}

	hash := tx.Hash().Hex()
	i.logger.Info("transaction mined",
		slog.String("tx_hash", hash),
		slog.Uint64("gas_used", receipt.GasUsed),
		slog.String("block", receipt.BlockNumber.String()),
	)
	return &Result{
		Result:  hash,
		TxHash:  &hash,
		GasUsed: fmt.Sprintf("%d", receipt.GasUsed),
	}, nil
}
