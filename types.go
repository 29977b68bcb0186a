// Package hardhatkit holds the shared types and errors of the hhkit tools,
// which edit Hardhat project configuration files and keep deployment records.
package hardhatkit

import "time"

// Config file names, in lookup order.
const (
	ConfigFileTS = "hardhat.config.ts"
	ConfigFileJS = "hardhat.config.js"

	BackupSuffix = ".backup"
)

// Plugin packages the configurers may need to import.
const (
	PluginVerify      = "@nomicfoundation/hardhat-verify"
	PluginGasReporter = "hardhat-gas-reporter"
)

// Verification defaults.
const (
	DefaultAPIKeyLabel  = "blockscout"
	DefaultNetwork      = "bloctopus"
	DefaultChainID      = 1337
	DefaultRPCURL       = "http://localhost:8545"
	DefaultContractName = "Contract"
	DefaultArtifactsDir = "artifacts"
	DefaultDeployDir    = "deployments"
	DeploymentIndexFile = "deployments.json"
	DefaultEvalTimeout  = 2 * time.Second
)

// NetworkDescriptor describes one network endpoint as supplied by the caller.
type NetworkDescriptor struct {
	RPCURL          string `json:"rpc_url" yaml:"rpc_url" validate:"required,url"`
	ChainID         int64  `json:"chain_id" yaml:"chain_id" validate:"required,gt=0"`
	PrivateKey      string `json:"private_key,omitempty" yaml:"private_key,omitempty"`
	VerificationURL string `json:"verification_url,omitempty" yaml:"verification_url,omitempty" validate:"omitempty,url"`
}

// DeploymentRecord is the metadata written for one deployed contract.
type DeploymentRecord struct {
	ContractName    string `json:"contractName"`
	Address         string `json:"address"`
	Network         string `json:"network"`
	DeploymentTime  string `json:"deploymentTime"`
	ConstructorArgs []any  `json:"constructorArgs"`
	ContractPath    string `json:"contractPath"`
	BlockNumber     string `json:"blockNumber,omitempty"`
	TxHash          string `json:"txHash,omitempty"`
}

// DeploymentIndex maps network -> contract name -> record.
type DeploymentIndex map[string]map[string]*DeploymentRecord
