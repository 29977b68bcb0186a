package hhconfig

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/Bidon15/hardhatkit"
)

// ParseNetworks decodes a JSON object mapping network names to descriptors.
// An empty or non-object document is an error.
func ParseNetworks(data []byte) (map[string]hardhatkit.NetworkDescriptor, error) {
	var networks map[string]hardhatkit.NetworkDescriptor
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&networks); err != nil {
		return nil, fmt.Errorf("%w: networks config: %w", hardhatkit.ErrInvalidInput, err)
	}
	if len(networks) == 0 {
		return nil, fmt.Errorf("%w: networks config is empty", hardhatkit.ErrInvalidInput)
	}
	return networks, nil
}

// ParseNetworksYAML decodes the same mapping from YAML. JSON input is valid
// YAML and is accepted too.
func ParseNetworksYAML(data []byte) (map[string]hardhatkit.NetworkDescriptor, error) {
	var networks map[string]hardhatkit.NetworkDescriptor
	if err := yaml.Unmarshal(data, &networks); err != nil {
		return nil, fmt.Errorf("%w: networks config file: %w", hardhatkit.ErrInvalidInput, err)
	}
	if len(networks) == 0 {
		return nil, fmt.Errorf("%w: networks config file is empty", hardhatkit.ErrInvalidInput)
	}
	return networks, nil
}
