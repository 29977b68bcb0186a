package hhconfig

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Bidon15/hardhatkit"
)

// Document is a Hardhat user configuration recovered as plain data.
// Keys this package does not manage are carried through untouched.
type Document map[string]any

// Top-level and nested keys managed by the configurers.
const (
	KeyNetworks     = "networks"
	KeyEtherscan    = "etherscan"
	KeyAPIKey       = "apiKey"
	KeyCustomChains = "customChains"
	KeyGasReporter  = "gasReporter"
	KeySolidity     = "solidity"
)

// VerificationTarget is a single network registered for contract verification.
type VerificationTarget struct {
	Network         string
	ChainID         int64
	RPCURL          string
	PrivateKey      string
	VerificationURL string
	// APIKey defaults to hardhatkit.DefaultAPIKeyLabel.
	APIKey string
}

// GasReporterOptions are the hardhat-gas-reporter settings this tool manages.
type GasReporterOptions struct {
	OutputFile       string
	ExcludeContracts []string
	Src              string
	CoinmarketcapKey string
	Currency         string
}

// APIURL derives the verification API endpoint from an explorer URL.
// Blockscout frontends serve their API from a "blockscout-backend" host.
func APIURL(verificationURL string) string {
	return strings.Replace(verificationURL, "blockscout", "blockscout-backend", 1) + "/api"
}

// EnsureStructure creates the networks and etherscan sections when absent.
func (d Document) EnsureStructure() []string {
	var warnings []string
	if _, w := ensureMap(d, KeyNetworks); w != "" {
		warnings = append(warnings, w)
	}
	es, w := ensureMap(d, KeyEtherscan)
	if w != "" {
		warnings = append(warnings, w)
	}
	if v, ok := es[KeyAPIKey]; !ok || v == nil {
		es[KeyAPIKey] = map[string]any{}
	}
	if _, ok := es[KeyCustomChains].([]any); !ok {
		if v, present := es[KeyCustomChains]; present && v != nil {
			warnings = append(warnings, fmt.Sprintf("etherscan.customChains is %T, replacing with a list", v))
		}
		es[KeyCustomChains] = []any{}
	}
	return warnings
}

// Networks returns the networks section, creating it if needed.
func (d Document) Networks() map[string]any {
	m, _ := ensureMap(d, KeyNetworks)
	return m
}

// Etherscan returns the etherscan section, creating it if needed.
func (d Document) Etherscan() map[string]any {
	m, _ := ensureMap(d, KeyEtherscan)
	return m
}

// CustomChains returns the etherscan.customChains list.
func (d Document) CustomChains() []any {
	chains, _ := d.Etherscan()[KeyCustomChains].([]any)
	return chains
}

// CustomChain returns the custom chain entry registered for network.
func (d Document) CustomChain(network string) (map[string]any, bool) {
	for _, c := range d.CustomChains() {
		if entry, ok := c.(map[string]any); ok && entry["network"] == network {
			return entry, true
		}
	}
	return nil, false
}

// NetworkEndpoint returns the url of the named network and its first
// configured account, if any.
func (d Document) NetworkEndpoint(name string) (url, account string, ok bool) {
	networks, _ := d[KeyNetworks].(map[string]any)
	entry, isMap := networks[name].(map[string]any)
	if !isMap {
		return "", "", false
	}
	url, _ = entry["url"].(string)
	if accounts, _ := entry["accounts"].([]any); len(accounts) > 0 {
		account, _ = accounts[0].(string)
	}
	return url, account, url != ""
}

// SetNetwork writes the network entry for name, replacing any previous one.
func (d Document) SetNetwork(name string, desc hardhatkit.NetworkDescriptor) {
	d.Networks()[name] = networkEntry(desc)
}

func networkEntry(desc hardhatkit.NetworkDescriptor) map[string]any {
	entry := map[string]any{}
	if desc.RPCURL != "" {
		entry["url"] = desc.RPCURL
	}
	if desc.ChainID != 0 {
		entry["chainId"] = desc.ChainID
	}
	accounts := []any{}
	if desc.PrivateKey != "" {
		accounts = append(accounts, desc.PrivateKey)
	}
	entry["accounts"] = accounts
	return entry
}

// SetAPIKey registers key for network under etherscan.apiKey. A single
// string apiKey applies to every network and is left as is.
func (d Document) SetAPIKey(network, key string) string {
	es := d.Etherscan()
	switch keys := es[KeyAPIKey].(type) {
	case map[string]any:
		keys[network] = key
	case nil:
		es[KeyAPIKey] = map[string]any{network: key}
	default:
		return fmt.Sprintf("etherscan.apiKey is a %T, not setting a key for %s", keys, network)
	}
	return ""
}

// UpsertCustomChain adds or replaces the custom chain entry for network. A
// zero chainID is left out of the entry.
func (d Document) UpsertCustomChain(network string, chainID int64, verificationURL string) {
	entry := map[string]any{
		"network": network,
		"urls": map[string]any{
			"apiURL":     APIURL(verificationURL),
			"browserURL": verificationURL,
		},
	}
	if chainID != 0 {
		entry["chainId"] = chainID
	}
	es := d.Etherscan()
	chains, _ := es[KeyCustomChains].([]any)
	for i, c := range chains {
		if existing, ok := c.(map[string]any); ok && existing["network"] == network {
			chains[i] = entry
			es[KeyCustomChains] = chains
			return
		}
	}
	es[KeyCustomChains] = append(chains, entry)
}

// ApplyNetworks merges every descriptor into the document. Incomplete
// descriptors are merged anyway and reported as warnings. It reports whether
// any network needs the verification plugin.
func (d Document) ApplyNetworks(networks map[string]hardhatkit.NetworkDescriptor) (bool, []string) {
	warnings := d.EnsureStructure()
	needsVerification := false
	for _, name := range sortedKeys(networks) {
		desc := networks[name]
		warnings = append(warnings, CheckNetwork(name, desc)...)
		d.SetNetwork(name, desc)
		if desc.VerificationURL == "" {
			continue
		}
		needsVerification = true
		if w := d.SetAPIKey(name, hardhatkit.DefaultAPIKeyLabel); w != "" {
			warnings = append(warnings, w)
		}
		d.UpsertCustomChain(name, desc.ChainID, desc.VerificationURL)
	}
	return needsVerification, warnings
}

// ApplyVerification registers one network with the verification service.
// An existing network entry is kept as is.
func (d Document) ApplyVerification(t VerificationTarget) []string {
	warnings := d.EnsureStructure()
	if _, ok := d.Networks()[t.Network]; !ok {
		d.SetNetwork(t.Network, hardhatkit.NetworkDescriptor{
			RPCURL:     t.RPCURL,
			ChainID:    t.ChainID,
			PrivateKey: t.PrivateKey,
		})
	}
	key := t.APIKey
	if key == "" {
		key = hardhatkit.DefaultAPIKeyLabel
	}
	if w := d.SetAPIKey(t.Network, key); w != "" {
		warnings = append(warnings, w)
	}
	d.UpsertCustomChain(t.Network, t.ChainID, t.VerificationURL)
	return warnings
}

// ApplyGasReporter merges the managed gas reporter settings, keeping any
// other gasReporter options already present.
func (d Document) ApplyGasReporter(o GasReporterOptions) []string {
	gr, w := ensureMap(d, KeyGasReporter)
	var warnings []string
	if w != "" {
		warnings = append(warnings, w)
	}
	exclude := make([]any, 0, len(o.ExcludeContracts))
	for _, c := range o.ExcludeContracts {
		exclude = append(exclude, c)
	}
	gr["enabled"] = true
	gr["outputFile"] = o.OutputFile
	gr["noColors"] = true
	gr["excludeContracts"] = exclude
	gr["src"] = o.Src
	gr["currency"] = o.Currency
	if o.CoinmarketcapKey != "" {
		gr["coinmarketcap"] = o.CoinmarketcapKey
	} else {
		delete(gr, "coinmarketcap")
	}
	return warnings
}

// ensureMap returns parent[key] as a map, creating it when absent. A
// non-object value is replaced and reported.
func ensureMap(parent map[string]any, key string) (map[string]any, string) {
	switch v := parent[key].(type) {
	case map[string]any:
		return v, ""
	case nil:
		m := map[string]any{}
		parent[key] = m
		return m, ""
	default:
		m := map[string]any{}
		parent[key] = m
		return m, fmt.Sprintf("%s is a %T, replacing with an object", key, v)
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
