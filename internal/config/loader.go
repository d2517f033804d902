package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

var definitionFilenames = []string{"network.yaml", "network.yml", "network.json"}

var validSSMPrefixPattern = regexp.MustCompile(`^/[A-Za-z0-9_./-]*[A-Za-z0-9_.-]$`)

func ResolveFolder(folder string, name string) string {
	return filepath.Join(folder, name)
}

// DefinitionPath returns the first stack definition file that exists in the
// stack folder, or the YAML path when none does.
func DefinitionPath(folder string, name string) string {
	directory := ResolveFolder(folder, name)
	for _, filename := range definitionFilenames {
		path := filepath.Join(directory, filename)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return filepath.Join(directory, definitionFilenames[0])
}

func Load(folder string, name string) (*Config, string, error) {
	return LoadFromPath(DefinitionPath(folder, name), name)
}

func LoadFromPath(path string, name string) (*Config, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("stack definition not found: create %s", path)
	}

	configuration, err := Parse(path, data)
	if err != nil {
		return nil, "", err
	}

	ApplyDefaults(configuration, name)

	if err := Validate(configuration); err != nil {
		return nil, "", err
	}

	return configuration, path, nil
}

// Parse decodes a stack definition; files ending in .json are read as JSON,
// everything else as YAML.
func Parse(path string, data []byte) (*Config, error) {
	var configuration Config
	if strings.EqualFold(filepath.Ext(path), ".json") {
		if err := json.Unmarshal(data, &configuration); err != nil {
			return nil, fmt.Errorf("invalid JSON in %s: %w", path, err)
		}
		return &configuration, nil
	}
	if err := yaml.Unmarshal(data, &configuration); err != nil {
		return nil, fmt.Errorf("invalid YAML in %s: %w", path, err)
	}
	return &configuration, nil
}

func ApplyDefaults(configuration *Config, name string) {
	if configuration.Network != nil && configuration.Network.Name == "" {
		configuration.Network.Name = name
	}
	if configuration.AWS == nil {
		configuration.AWS = &AWSConfig{}
	}
	if configuration.AWS.Region == "" {
		configuration.AWS.Region = "us-east-1"
	}
	if configuration.AWS.Mode == "" {
		configuration.AWS.Mode = ModeAPI
	}
}

func Validate(configuration *Config) error {
	if configuration.Network == nil {
		return fmt.Errorf("stack definition missing required 'network' section")
	}
	if configuration.Network.AddressBlock == "" {
		return fmt.Errorf("stack definition missing required field: network.address_block")
	}

	for key, subnet := range configuration.Subnets {
		if key == "" {
			return fmt.Errorf("subnet keys must not be empty")
		}
		if subnet.AddressBlock == "" {
			return fmt.Errorf("subnet %q missing required field: address_block", key)
		}
	}

	if configuration.AWS != nil {
		switch configuration.AWS.Mode {
		case "", ModeAPI, ModeCloudFormation:
		default:
			return fmt.Errorf("invalid aws.mode %q: use %q or %q", configuration.AWS.Mode, ModeAPI, ModeCloudFormation)
		}
		if configuration.AWS.SSMPrefix != "" && !validSSMPrefixPattern.MatchString(configuration.AWS.SSMPrefix) {
			return fmt.Errorf("invalid aws.ssm_prefix %q: must start with '/' and must not end with '/'", configuration.AWS.SSMPrefix)
		}
	}

	return nil
}
