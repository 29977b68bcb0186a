package deployments

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Bidon15/hardhatkit"
)

const (
	addrA = "0x5FbDB2315678afecb367f032d93F642f64180aa3"
	addrB = "0xe7f1725E7734CE288F8367e1Bb143E90bb3F0512"
)

type fakeReceipts struct {
	block uint64
	err   error
	calls int
}

func (f *fakeReceipts) BlockNumber(_ context.Context, _, _ string) (uint64, error) {
	f.calls++
	return f.block, f.err
}

func fixedClock(ts string) func() time.Time {
	return func() time.Time {
		t, _ := time.Parse(time.RFC3339Nano, ts)
		return t
	}
}

func TestTrack_WritesRecordAndIndex(t *testing.T) {
	dir := filepath.Join(t.TempDir(), hardhatkit.DefaultDeployDir)
	tr := New(dir, nil, WithClock(fixedClock("2024-05-01T10:20:30.123456+02:00")))

	res, err := tr.Track(context.Background(), TrackRequest{
		ContractName:    "Token",
		Address:         addrA,
		Network:         "local",
		ConstructorArgs: []any{"Token", "TKN", float64(18)},
	})
	require.NoError(t, err)
	assert.Empty(t, res.Warnings)
	assert.Equal(t, filepath.Join(dir, "local", "Token.json"), res.Path)

	data, err := os.ReadFile(res.Path)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"contractName": "Token",
		"address": "`+addrA+`",
		"network": "local",
		"deploymentTime": "2024-05-01T08:20:30.123Z",
		"constructorArgs": ["Token", "TKN", 18],
		"contractPath": ""
	}`, string(data))

	index, err := tr.LoadIndex()
	require.NoError(t, err)
	require.Contains(t, index, "local")
	assert.Equal(t, res.Record, index["local"]["Token"])
}

func TestTrack_OverwritesSameContract(t *testing.T) {
	dir := t.TempDir()
	tr := New(dir, nil)
	ctx := context.Background()

	_, err := tr.Track(ctx, TrackRequest{ContractName: "Token", Address: addrA, Network: "local"})
	require.NoError(t, err)
	_, err = tr.Track(ctx, TrackRequest{ContractName: "Token", Address: addrB, Network: "local"})
	require.NoError(t, err)

	index, err := tr.LoadIndex()
	require.NoError(t, err)
	require.Len(t, index["local"], 1)
	assert.Equal(t, addrB, index["local"]["Token"].Address)
	assert.Equal(t, []any{}, index["local"]["Token"].ConstructorArgs)
}

func TestTrack_TwoContractsOneNetwork(t *testing.T) {
	dir := t.TempDir()
	tr := New(dir, nil)
	ctx := context.Background()

	_, err := tr.Track(ctx, TrackRequest{ContractName: "Token", Address: addrA, Network: "local"})
	require.NoError(t, err)
	_, err = tr.Track(ctx, TrackRequest{ContractName: "Vault", Address: addrB, Network: "local"})
	require.NoError(t, err)
	_, err = tr.Track(ctx, TrackRequest{ContractName: "Token", Address: addrB, Network: "sepolia"})
	require.NoError(t, err)

	index, err := tr.LoadIndex()
	require.NoError(t, err)
	assert.Len(t, index, 2)
	assert.Len(t, index["local"], 2)
	assert.Equal(t, addrA, index["local"]["Token"].Address)
	assert.Equal(t, addrB, index["local"]["Vault"].Address)
	assert.FileExists(t, filepath.Join(dir, "local", "Vault.json"))
	assert.FileExists(t, filepath.Join(dir, "sepolia", "Token.json"))
}

func TestTrack_ReplacesCorruptIndex(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, hardhatkit.DeploymentIndexFile), []byte("{not json"), 0644))
	tr := New(dir, nil)

	res, err := tr.Track(context.Background(), TrackRequest{ContractName: "Token", Address: addrA, Network: "local"})
	require.NoError(t, err)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "unreadable index")

	index, err := tr.LoadIndex()
	require.NoError(t, err)
	assert.Len(t, index["local"], 1)
}

func TestTrack_KeepsForeignIndexEntries(t *testing.T) {
	dir := t.TempDir()
	existing := `{
  "mainnet": {
    "Vault": {"contractName": "Vault", "address": "` + addrB + `", "network": "mainnet", "blockNumber": 123, "verified": true}
  },
  "local": {
    "Proxy": {"contractName": "Proxy", "address": "` + addrB + `", "network": "local", "deployer": "ops"}
  }
}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, hardhatkit.DeploymentIndexFile), []byte(existing), 0644))
	tr := New(dir, nil)

	res, err := tr.Track(context.Background(), TrackRequest{ContractName: "Token", Address: addrA, Network: "local"})
	require.NoError(t, err)
	assert.Empty(t, res.Warnings)

	data, err := os.ReadFile(res.IndexPath)
	require.NoError(t, err)
	var index map[string]map[string]map[string]any
	require.NoError(t, json.Unmarshal(data, &index))

	vault := index["mainnet"]["Vault"]
	assert.Equal(t, float64(123), vault["blockNumber"])
	assert.Equal(t, true, vault["verified"])
	assert.Equal(t, "ops", index["local"]["Proxy"]["deployer"])
	assert.Equal(t, addrA, index["local"]["Token"]["address"])

	typed, err := tr.LoadIndex()
	require.NoError(t, err)
	assert.NotContains(t, typed["mainnet"], "Vault")
	assert.Equal(t, addrA, typed["local"]["Token"].Address)
	assert.Equal(t, "Proxy", typed["local"]["Proxy"].ContractName)
}

func TestTrack_WritesUnescapedJSON(t *testing.T) {
	dir := t.TempDir()
	tr := New(dir, nil)

	res, err := tr.Track(context.Background(), TrackRequest{
		ContractName:    "Token",
		Address:         addrA,
		Network:         "local",
		ConstructorArgs: []any{"Fish & Chips <FC>"},
		ContractPath:    "contracts/A&B.sol",
	})
	require.NoError(t, err)

	for _, path := range []string{res.Path, res.IndexPath} {
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(data), `"Fish & Chips <FC>"`)
		assert.Contains(t, string(data), `"contracts/A&B.sol"`)
		assert.NotContains(t, string(data), `\u0026`)
	}
}

func TestTrack_MissingInput(t *testing.T) {
	tr := New(t.TempDir(), nil)
	tests := []struct {
		name string
		req  TrackRequest
	}{
		{"contract name", TrackRequest{Address: addrA, Network: "local"}},
		{"address", TrackRequest{ContractName: "Token", Network: "local"}},
		{"network", TrackRequest{ContractName: "Token", Address: addrA}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tr.Track(context.Background(), tt.req)
			assert.ErrorIs(t, err, hardhatkit.ErrMissingInput)
		})
	}
}

func TestTrack_InvalidAddressIsOnlyWarned(t *testing.T) {
	tr := New(t.TempDir(), nil)

	res, err := tr.Track(context.Background(), TrackRequest{ContractName: "Token", Address: "0x1234", Network: "local"})
	require.NoError(t, err)
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, "0x1234", res.Record.Address)
}

func TestTrack_BlockNumberLookup(t *testing.T) {
	txHash := "0x8f5a1d1c0b6e1f4f2a3d6b2c9e7f1a0b3c4d5e6f708192a3b4c5d6e7f8091a2b"

	t.Run("looked up from receipt", func(t *testing.T) {
		receipts := &fakeReceipts{block: 42}
		tr := New(t.TempDir(), nil, WithReceiptFetcher(receipts))

		res, err := tr.Track(context.Background(), TrackRequest{
			ContractName: "Token", Address: addrA, Network: "local",
			TxHash: txHash, RPCURL: "http://localhost:8545",
		})
		require.NoError(t, err)
		assert.Equal(t, "42", res.Record.BlockNumber)
		assert.Equal(t, txHash, res.Record.TxHash)
	})

	t.Run("explicit block number wins", func(t *testing.T) {
		receipts := &fakeReceipts{block: 42}
		tr := New(t.TempDir(), nil, WithReceiptFetcher(receipts))

		res, err := tr.Track(context.Background(), TrackRequest{
			ContractName: "Token", Address: addrA, Network: "local",
			TxHash: txHash, BlockNumber: "7", RPCURL: "http://localhost:8545",
		})
		require.NoError(t, err)
		assert.Equal(t, "7", res.Record.BlockNumber)
		assert.Zero(t, receipts.calls)
	})

	t.Run("lookup failure is a warning", func(t *testing.T) {
		receipts := &fakeReceipts{err: errors.New("connection refused")}
		tr := New(t.TempDir(), nil, WithReceiptFetcher(receipts))

		res, err := tr.Track(context.Background(), TrackRequest{
			ContractName: "Token", Address: addrA, Network: "local",
			TxHash: txHash, RPCURL: "http://localhost:8545",
		})
		require.NoError(t, err)
		assert.Empty(t, res.Record.BlockNumber)
		require.Len(t, res.Warnings, 1)
		assert.Contains(t, res.Warnings[0], "connection refused")
	})
}
