package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Bidon15/hardhatkit"
	"github.com/Bidon15/hardhatkit/internal/deployments"
	"github.com/Bidon15/hardhatkit/internal/hhconfig"
	"github.com/Bidon15/hardhatkit/internal/interact"
)

// run executes the CLI with args and returns the combined output.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	ResetFlags()
	var buf bytes.Buffer
	SetOutput(&buf)
	err := ExecuteWithArgs(args)
	return buf.String(), err
}

// clearInputs unsets every input variable for the duration of the test.
func clearInputs(t *testing.T) {
	t.Helper()
	for _, env := range inputEnv {
		t.Setenv(env, "")
	}
	for _, env := range []string{"HHKIT_DIR", "HHKIT_LOG_LEVEL", "HHKIT_LOG_FORMAT", "HHKIT_EVAL_TIMEOUT"} {
		t.Setenv(env, "")
	}
}

func readConfig(t *testing.T, dir string) hhconfig.Document {
	t.Helper()
	c := hhconfig.NewStore(dir, hhconfig.NewExtractor(nil, hhconfig.WithEnv(map[string]string{})), nil).Read()
	require.True(t, c.Exists)
	return c.Doc
}

func TestVersionCommand(t *testing.T) {
	tests := []struct {
		name        string
		args        []string
		wantContain []string
	}{
		{"basic version", []string{"version"}, []string{"hhkit dev"}},
		{"verbose version", []string{"--verbose", "version"}, []string{"hhkit", "commit:", "built:"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearInputs(t)
			out, err := run(t, tt.args...)
			require.NoError(t, err)
			for _, want := range tt.wantContain {
				assert.Contains(t, out, want)
			}
		})
	}
}

func TestRootCommand_Help(t *testing.T) {
	clearInputs(t)
	out, err := run(t, "--help")
	require.NoError(t, err)

	for _, want := range []string{
		"configure-networks",
		"enable-gas-reporter",
		"update-verification",
		"interact",
		"track-deployment",
		"--dir",
		"--log-level",
		"HHKIT_DIR",
	} {
		assert.Contains(t, out, want)
	}
}

func TestConfigureNetworks_EmptyProject(t *testing.T) {
	clearInputs(t)
	dir := t.TempDir()
	t.Setenv("NETWORKS_CONFIG", `{"local":{"rpc_url":"http://localhost:8545","chain_id":1337,"verification_url":"http://bs.example"}}`)

	out, err := run(t, "configure-networks", "--dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "Hardhat config updated with multiple networks")

	data, err := os.ReadFile(filepath.Join(dir, hardhatkit.ConfigFileJS))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), `require("@nomicfoundation/hardhat-verify");`))

	doc := readConfig(t, dir)
	assert.Equal(t, map[string]any{
		"url":      "http://localhost:8545",
		"chainId":  int64(1337),
		"accounts": []any{},
	}, doc.Networks()["local"])
	require.Len(t, doc.CustomChains(), 1)
	chain, ok := doc.CustomChain("local")
	require.True(t, ok)
	assert.Equal(t, map[string]any{
		"apiURL":     "http://bs.example/api",
		"browserURL": "http://bs.example",
	}, chain["urls"])
}

func TestConfigureNetworks_FromYAMLFile(t *testing.T) {
	clearInputs(t)
	dir := t.TempDir()
	path := filepath.Join(t.TempDir(), "networks.yaml")
	require.NoError(t, os.WriteFile(path, []byte("devnet:\n  rpc_url: http://devnet:8545\n  chain_id: 4242\n"), 0644))
	t.Setenv("NETWORKS_CONFIG_FILE", path)

	_, err := run(t, "configure-networks", "--dir", dir)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, hardhatkit.ConfigFileJS))
	require.NoError(t, err)
	assert.NotContains(t, string(data), hardhatkit.PluginVerify)
	assert.Contains(t, readConfig(t, dir).Networks(), "devnet")
}

func TestConfigureNetworks_InputErrors(t *testing.T) {
	tests := []struct {
		name    string
		env     string
		wantErr error
	}{
		{"missing", "", hardhatkit.ErrMissingInput},
		{"not json", "{oops", hardhatkit.ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearInputs(t)
			dir := t.TempDir()
			t.Setenv("NETWORKS_CONFIG", tt.env)

			_, err := run(t, "configure-networks", "--dir", dir)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.NoFileExists(t, filepath.Join(dir, hardhatkit.ConfigFileJS))
		})
	}
}

func TestEnableGasReporter(t *testing.T) {
	clearInputs(t)
	dir := t.TempDir()
	original := "module.exports = {\n  solidity: \"0.8.20\",\n  mocha: { timeout: 1000 },\n};\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, hardhatkit.ConfigFileJS), []byte(original), 0644))
	t.Setenv("EXCLUDE_CONTRACTS", "Migrations, Mock")
	t.Setenv("COINMARKETCAP_API_KEY", "cmc-key")

	out, err := run(t, "enable-gas-reporter", "--dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "Gas reporter enabled")

	backup, err := os.ReadFile(filepath.Join(dir, hardhatkit.ConfigFileJS+hardhatkit.BackupSuffix))
	require.NoError(t, err)
	assert.Equal(t, original, string(backup))

	doc := readConfig(t, dir)
	assert.Equal(t, map[string]any{"timeout": int64(1000)}, doc["mocha"])
	assert.Equal(t, map[string]any{
		"enabled":          true,
		"outputFile":       "gas-report.txt",
		"noColors":         true,
		"excludeContracts": []any{"Migrations", "Mock"},
		"src":              "./contracts",
		"coinmarketcap":    "cmc-key",
		"currency":         "USD",
	}, doc[hhconfig.KeyGasReporter])
}

func TestUpdateVerification(t *testing.T) {
	clearInputs(t)
	dir := t.TempDir()
	ts := "import { HardhatUserConfig } from \"hardhat/config\";\n\nconst config: HardhatUserConfig = {\n  solidity: \"0.8.24\",\n};\n\nexport default config;\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, hardhatkit.ConfigFileTS), []byte(ts), 0644))
	t.Setenv("VERIFICATION_URL", "https://blockscout.example.io")
	t.Setenv("CHAIN_ID", "31337")

	out, err := run(t, "update-verification", "--dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "Hardhat config updated successfully for verification")

	data, err := os.ReadFile(filepath.Join(dir, hardhatkit.ConfigFileTS))
	require.NoError(t, err)
	text := string(data)
	assert.True(t, strings.HasPrefix(text, `import "@nomicfoundation/hardhat-verify";`))
	assert.Contains(t, text, "const config: HardhatUserConfig = {")
	assert.True(t, strings.HasSuffix(text, "export default config;\n"))
	assert.NoFileExists(t, filepath.Join(dir, hardhatkit.ConfigFileJS))

	doc := readConfig(t, dir)
	assert.Equal(t, map[string]any{
		"url":      hardhatkit.DefaultRPCURL,
		"chainId":  int64(31337),
		"accounts": []any{},
	}, doc.Networks()[hardhatkit.DefaultNetwork])
	assert.Equal(t, map[string]any{hardhatkit.DefaultNetwork: "blockscout"}, doc.Etherscan()[hhconfig.KeyAPIKey])
	chain, ok := doc.CustomChain(hardhatkit.DefaultNetwork)
	require.True(t, ok)
	assert.Equal(t, "https://blockscout-backend.example.io/api", chain["urls"].(map[string]any)["apiURL"])
}

func TestUpdateVerification_InputErrors(t *testing.T) {
	t.Run("missing url", func(t *testing.T) {
		clearInputs(t)
		_, err := run(t, "update-verification", "--dir", t.TempDir())
		assert.ErrorIs(t, err, hardhatkit.ErrMissingInput)
	})

	t.Run("bad chain id", func(t *testing.T) {
		clearInputs(t)
		t.Setenv("VERIFICATION_URL", "http://x")
		t.Setenv("CHAIN_ID", "abc")
		_, err := run(t, "update-verification", "--dir", t.TempDir())
		assert.ErrorIs(t, err, hardhatkit.ErrInvalidInput)
	})
}

func TestTrackDeployment(t *testing.T) {
	clearInputs(t)
	dir := t.TempDir()
	t.Setenv("CONTRACT_NAME", "Token")
	t.Setenv("CONTRACT_ADDRESS", "0x5FbDB2315678afecb367f032d93F642f64180aa3")
	t.Setenv("NETWORK", "local")
	t.Setenv("CONSTRUCTOR_ARGS", `["Token", 18]`)
	t.Setenv("BLOCK_NUMBER", "5")

	out, err := run(t, "track-deployment", "--dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "Deployment tracked: "+filepath.Join(dir, "deployments", "local", "Token.json"))

	index, err := deployments.New(filepath.Join(dir, hardhatkit.DefaultDeployDir), nil).LoadIndex()
	require.NoError(t, err)
	rec := index["local"]["Token"]
	require.NotNil(t, rec)
	assert.Equal(t, []any{"Token", float64(18)}, rec.ConstructorArgs)
	assert.Equal(t, "5", rec.BlockNumber)
}

func TestTrackDeployment_InputErrors(t *testing.T) {
	t.Run("missing name", func(t *testing.T) {
		clearInputs(t)
		t.Setenv("CONTRACT_ADDRESS", "0x5FbDB2315678afecb367f032d93F642f64180aa3")
		t.Setenv("NETWORK", "local")
		_, err := run(t, "track-deployment", "--dir", t.TempDir())
		assert.ErrorIs(t, err, hardhatkit.ErrMissingInput)
	})

	t.Run("bad constructor args", func(t *testing.T) {
		clearInputs(t)
		t.Setenv("CONTRACT_NAME", "Token")
		t.Setenv("CONTRACT_ADDRESS", "0x5FbDB2315678afecb367f032d93F642f64180aa3")
		t.Setenv("NETWORK", "local")
		t.Setenv("CONSTRUCTOR_ARGS", "[1,")
		_, err := run(t, "track-deployment", "--dir", t.TempDir())
		assert.ErrorIs(t, err, hardhatkit.ErrInvalidInput)
	})
}

func TestInteract_UnreachableChain(t *testing.T) {
	clearInputs(t)
	dir := t.TempDir()
	artifact := filepath.Join(dir, "artifacts", "contracts", "Counter.sol", "Counter.json")
	require.NoError(t, os.MkdirAll(filepath.Dir(artifact), 0755))
	require.NoError(t, os.WriteFile(artifact, []byte(`{"contractName":"Counter","abi":[
		{"type":"function","name":"count","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]}
	]}`), 0644))

	t.Setenv("CONTRACT_NAME", "Counter")
	t.Setenv("CONTRACT_ADDRESS", "0x5FbDB2315678afecb367f032d93F642f64180aa3")
	t.Setenv("FUNCTION_NAME", "count")
	t.Setenv("RPC_URL", "http://127.0.0.1:1")

	out, err := run(t, "interact", "--dir", dir)
	require.Error(t, err)
	assert.NotContains(t, out, `"result"`)
}

func TestInteract_MissingAddress(t *testing.T) {
	clearInputs(t)
	t.Setenv("FUNCTION_NAME", "count")
	t.Setenv("RPC_URL", "http://127.0.0.1:1")

	_, err := run(t, "interact", "--dir", t.TempDir())
	assert.ErrorIs(t, err, hardhatkit.ErrMissingInput)
}

func TestResolveEndpoint_FromConfiguredNetwork(t *testing.T) {
	clearInputs(t)
	dir := t.TempDir()
	config := "module.exports = {\n  networks: {\n    devnet: { url: \"http://devnet:8545\", accounts: [\"0xabc\"] },\n  },\n};\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, hardhatkit.ConfigFileJS), []byte(config), 0644))
	t.Setenv("NETWORK", "devnet")
	t.Setenv("HHKIT_DIR", dir)

	// version runs setup, which resolves the configuration for this test
	_, err := run(t, "version")
	require.NoError(t, err)

	var req interact.Request
	url := resolveEndpoint(&req)
	assert.Equal(t, "http://devnet:8545", url)
	assert.Equal(t, "0xabc", req.PrivateKey)
	assert.NoFileExists(t, filepath.Join(dir, hardhatkit.ConfigFileJS+hardhatkit.BackupSuffix))
}
