package deployments

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/lmittmann/w3"
	"github.com/lmittmann/w3/module/eth"
)

// W3Receipts fetches transaction receipts over JSON-RPC.
type W3Receipts struct{}

// BlockNumber returns the block that included txHash.
func (W3Receipts) BlockNumber(ctx context.Context, rpcURL, txHash string) (uint64, error) {
	client, err := w3.Dial(rpcURL)
	if err != nil {
		return 0, fmt.Errorf("dial rpc: %w", err)
	}
	defer client.Close()

	var receipt types.Receipt
	if err := client.CallCtx(ctx, eth.TxReceipt(common.HexToHash(txHash)).Returns(&receipt)); err != nil {
		return 0, fmt.Errorf("get receipt: %w", err)
	}
	if receipt.BlockNumber == nil {
		return 0, fmt.Errorf("receipt for %s has no block", txHash)
	}
	return receipt.BlockNumber.Uint64(), nil
}
