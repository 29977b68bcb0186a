package interact

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/tidwall/gjson"

	"github.com/Bidon15/hardhatkit"
)

var errFound = errors.New("found")

// FindArtifact locates the Hardhat artifact for contract under dir. contract
// is either a bare name ("Token") or a fully qualified name
// ("contracts/Token.sol:Token"). Debug files and build-info are skipped.
func FindArtifact(dir, contract string) (string, error) {
	if source, name, ok := strings.Cut(contract, ":"); ok {
		p := filepath.Join(dir, filepath.FromSlash(source), name+".json")
		if _, err := os.Stat(p); err != nil {
			return "", fmt.Errorf("%w: %s", hardhatkit.ErrArtifactNotFound, contract)
		}
		return p, nil
	}

	want := contract + ".json"
	var found string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == "build-info" {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Name() == want {
			found = path
			return errFound
		}
		return nil
	})
	if err != nil && !errors.Is(err, errFound) {
		return "", fmt.Errorf("%w: %s: %w", hardhatkit.ErrArtifactNotFound, contract, err)
	}
	if found == "" {
		return "", fmt.Errorf("%w: %s in %s", hardhatkit.ErrArtifactNotFound, contract, dir)
	}
	return found, nil
}

// LoadABI reads the abi field of a Hardhat artifact.
func LoadABI(path string) (abi.ABI, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return abi.ABI{}, fmt.Errorf("read artifact: %w", err)
	}
	value := gjson.GetBytes(data, "abi")
	if !value.Exists() || !value.IsArray() {
		return abi.ABI{}, fmt.Errorf("%w: %s has no abi", hardhatkit.ErrArtifactNotFound, path)
	}
	parsed, err := abi.JSON(strings.NewReader(value.Raw))
	if err != nil {
		return abi.ABI{}, fmt.Errorf("parse abi: %w", err)
	}
	return parsed, nil
}

// FindMethod returns the ABI method called name. name may also be a full
// signature such as "transfer(address,uint256)" to pick an overload.
func FindMethod(contractABI abi.ABI, name string) (abi.Method, error) {
	if m, ok := contractABI.Methods[name]; ok {
		return m, nil
	}
	if strings.Contains(name, "(") {
		sig := strings.ReplaceAll(name, " ", "")
		for _, m := range contractABI.Methods {
			if m.Sig == sig {
				return m, nil
			}
		}
	}
	return abi.Method{}, fmt.Errorf("%w: %s", hardhatkit.ErrFunctionNotFound, name)
}
