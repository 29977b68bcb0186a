// Package deployments records deployed contracts on disk, one file per
// contract plus an index of every deployment keyed by network.
package deployments

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/Bidon15/hardhatkit"
)

// TimeLayout is the deploymentTime format: ISO-8601 UTC with milliseconds.
const TimeLayout = "2006-01-02T15:04:05.000Z"

// ReceiptFetcher looks up the block a transaction was included in.
type ReceiptFetcher interface {
	BlockNumber(ctx context.Context, rpcURL, txHash string) (uint64, error)
}

// TrackRequest describes one deployment to record.
type TrackRequest struct {
	ContractName    string
	Address         string
	Network         string
	ConstructorArgs []any
	ContractPath    string
	BlockNumber     string
	TxHash          string
	// RPCURL enables the block number lookup when TxHash is set and
	// BlockNumber is not.
	RPCURL string
}

// TrackResult reports where a deployment was written.
type TrackResult struct {
	Record    *hardhatkit.DeploymentRecord
	Path      string
	IndexPath string
	Warnings  []string
}

// Tracker writes deployment records below a deployments directory.
type Tracker struct {
	dir      string
	now      func() time.Time
	receipts ReceiptFetcher
	logger   *slog.Logger
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithClock overrides the time source used for deploymentTime.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) {
		t.now = now
	}
}

// WithReceiptFetcher enables block number lookups.
func WithReceiptFetcher(f ReceiptFetcher) Option {
	return func(t *Tracker) {
		t.receipts = f
	}
}

// New creates a tracker writing below dir (usually <project>/deployments).
func New(dir string, logger *slog.Logger, opts ...Option) *Tracker {
	if logger == nil {
		logger = slog.Default()
	}
	t := &Tracker{
		dir:    dir,
		now:    time.Now,
		logger: logger,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Dir returns the deployments directory.
func (t *Tracker) Dir() string { return t.dir }

// IndexPath returns the path of the deployments index.
func (t *Tracker) IndexPath() string {
	return filepath.Join(t.dir, hardhatkit.DeploymentIndexFile)
}

// Track writes the record for req and merges it into the index, replacing
// any earlier record of the same contract on the same network.
func (t *Tracker) Track(ctx context.Context, req TrackRequest) (*TrackResult, error) {
	switch {
	case req.ContractName == "":
		return nil, fmt.Errorf("%w: CONTRACT_NAME", hardhatkit.ErrMissingInput)
	case req.Address == "":
		return nil, fmt.Errorf("%w: CONTRACT_ADDRESS", hardhatkit.ErrMissingInput)
	case req.Network == "":
		return nil, fmt.Errorf("%w: NETWORK", hardhatkit.ErrMissingInput)
	}

	res := &TrackResult{}
	if !common.IsHexAddress(req.Address) {
		res.Warnings = append(res.Warnings, fmt.Sprintf("%s is not a valid address", req.Address))
		t.logger.Warn("contract address is not a 20-byte hex address",
			slog.String("address", req.Address),
		)
	}

	args := req.ConstructorArgs
	if args == nil {
		args = []any{}
	}
	record := &hardhatkit.DeploymentRecord{
		ContractName:    req.ContractName,
		Address:         req.Address,
		Network:         req.Network,
		DeploymentTime:  t.now().UTC().Format(TimeLayout),
		ConstructorArgs: args,
		ContractPath:    req.ContractPath,
		BlockNumber:     req.BlockNumber,
		TxHash:          req.TxHash,
	}
	if record.BlockNumber == "" && req.TxHash != "" && req.RPCURL != "" && t.receipts != nil {
		n, err := t.receipts.BlockNumber(ctx, req.RPCURL, req.TxHash)
		if err != nil {
			res.Warnings = append(res.Warnings, fmt.Sprintf("block number lookup: %v", err))
			t.logger.Warn("failed to look up deployment block",
				slog.String("tx_hash", req.TxHash),
				slog.String("error", err.Error()),
			)
		} else {
			record.BlockNumber = fmt.Sprintf("%d", n)
		}
	}
	res.Record = record

	netDir := filepath.Join(t.dir, req.Network)
	if err := os.MkdirAll(netDir, 0755); err != nil {
		return nil, fmt.Errorf("%w: %w", hardhatkit.ErrRecordPersist, err)
	}
	res.Path = filepath.Join(netDir, req.ContractName+".json")
	if err := writeJSON(res.Path, record); err != nil {
		return nil, fmt.Errorf("%w: %w", hardhatkit.ErrRecordPersist, err)
	}
	t.logger.Info("deployment tracked",
		slog.String("contract", req.ContractName),
		slog.String("network", req.Network),
		slog.String("path", res.Path),
	)

	index, err := t.loadRawIndex()
	if err != nil {
		res.Warnings = append(res.Warnings, fmt.Sprintf("replacing unreadable index: %v", err))
		t.logger.Warn("existing deployments index is unreadable, starting a new one",
			slog.String("path", t.IndexPath()),
			slog.String("error", err.Error()),
		)
		index = map[string]json.RawMessage{}
	}
	contracts := map[string]json.RawMessage{}
	if raw, ok := index[req.Network]; ok {
		if err := json.Unmarshal(raw, &contracts); err != nil || contracts == nil {
			res.Warnings = append(res.Warnings, fmt.Sprintf("replacing unreadable index entry for network %s", req.Network))
			contracts = map[string]json.RawMessage{}
		}
	}
	entry, err := marshalRaw(record)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", hardhatkit.ErrRecordPersist, err)
	}
	contracts[req.ContractName] = entry
	merged, err := marshalRaw(contracts)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", hardhatkit.ErrRecordPersist, err)
	}
	index[req.Network] = merged

	res.IndexPath = t.IndexPath()
	if err := writeJSON(res.IndexPath, index); err != nil {
		return nil, fmt.Errorf("%w: %w", hardhatkit.ErrRecordPersist, err)
	}
	t.logger.Info("deployments index updated", slog.String("path", res.IndexPath))
	return res, nil
}

// LoadIndex reads the deployments index. A missing index is empty. Entries
// written by other tools that do not fit DeploymentRecord are skipped here;
// Track keeps them untouched on disk.
func (t *Tracker) LoadIndex() (hardhatkit.DeploymentIndex, error) {
	raw, err := t.loadRawIndex()
	if err != nil {
		return nil, err
	}
	index := hardhatkit.DeploymentIndex{}
	for network, data := range raw {
		var contracts map[string]json.RawMessage
		if err := json.Unmarshal(data, &contracts); err != nil {
			continue
		}
		records := map[string]*hardhatkit.DeploymentRecord{}
		for name, entry := range contracts {
			var rec hardhatkit.DeploymentRecord
			if err := json.Unmarshal(entry, &rec); err != nil {
				continue
			}
			records[name] = &rec
		}
		index[network] = records
	}
	return index, nil
}

// loadRawIndex reads the index as network -> undecoded contracts object, so
// entries are carried through byte for byte.
func (t *Tracker) loadRawIndex() (map[string]json.RawMessage, error) {
	data, err := os.ReadFile(t.IndexPath())
	if os.IsNotExist(err) {
		return map[string]json.RawMessage{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read index: %w", err)
	}
	var index map[string]json.RawMessage
	if err := json.Unmarshal(data, &index); err != nil {
		return nil, fmt.Errorf("parse index: %w", err)
	}
	if index == nil {
		index = map[string]json.RawMessage{}
	}
	return index, nil
}

// marshalRaw encodes v compactly without HTML escaping, like JSON.stringify.
func marshalRaw(v any) (json.RawMessage, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

func writeJSON(path string, v any) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("marshal %s: %w", filepath.Base(path), err)
	}
	return os.WriteFile(path, bytes.TrimRight(buf.Bytes(), "\n"), 0644)
}
