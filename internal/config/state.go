package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/emergingrobotics/vpcgen/internal/topology"
)

func StateDir(folder string, name string, providerName string) string {
	return filepath.Join(ResolveFolder(folder, name), providerName)
}

func StatePath(folder string, name string, providerName string) string {
	return filepath.Join(StateDir(folder, name, providerName), "state.json")
}

func HasState(folder string, name string, providerName string) bool {
	_, err := os.Stat(StatePath(folder, name, providerName))
	return err == nil
}

func SaveState(folder string, name string, providerName string, state *State) error {
	if err := os.MkdirAll(StateDir(folder, name, providerName), 0755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}
	data = append(data, '\n')
	return os.WriteFile(StatePath(folder, name, providerName), data, 0644)
}

func LoadState(folder string, name string, providerName string) (*State, string, error) {
	path := StatePath(folder, name, providerName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("no %s state for %q: run 'vpcgen apply %s' first", providerName, name, name)
	}

	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, "", fmt.Errorf("invalid JSON in %s: %w", path, err)
	}
	if state.Resources == nil {
		state.Resources = make(topology.Identifiers)
	}
	return &state, path, nil
}

func ClearState(folder string, name string, providerName string) error {
	return os.RemoveAll(StateDir(folder, name, providerName))
}
