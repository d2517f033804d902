package config

import (
	"time"

	"github.com/emergingrobotics/vpcgen/internal/topology"
)

const (
	ModeAPI            = "api"
	ModeCloudFormation = "cloudformation"
)

type Config struct {
	Network *topology.NetworkConfig        `json:"network,omitempty" yaml:"network,omitempty"`
	Subnets map[string]topology.SubnetSpec `json:"subnets,omitempty" yaml:"subnets,omitempty"`
	AWS     *AWSConfig                     `json:"aws,omitempty" yaml:"aws,omitempty"`
}

type AWSConfig struct {
	Region    string            `json:"region,omitempty" yaml:"region,omitempty"`
	Profile   string            `json:"profile,omitempty" yaml:"profile,omitempty"`
	Mode      string            `json:"mode,omitempty" yaml:"mode,omitempty"`
	SSMPrefix string            `json:"ssm_prefix,omitempty" yaml:"ssm_prefix,omitempty"`
	Tags      map[string]string `json:"tags,omitempty" yaml:"tags,omitempty"`
}

type State struct {
	Name                string               `json:"name"`
	Provider            string               `json:"provider"`
	Region              string               `json:"region,omitempty"`
	Mode                string               `json:"mode,omitempty"`
	StackName           string               `json:"stack_name,omitempty"`
	StackID             string               `json:"stack_id,omitempty"`
	Profile             string               `json:"profile,omitempty"`
	Resources           topology.Identifiers `json:"resources"`
	PublishedParameters []string             `json:"published_parameters,omitempty"`
	AppliedAt           *time.Time           `json:"applied_at,omitempty"`
}

func NewState(name string, providerName string) *State {
	return &State{
		Name:      name,
		Provider:  providerName,
		Resources: make(topology.Identifiers),
	}
}

// Record stores the ID assigned to a resource address.
func (s *State) Record(address string, id string) {
	if s.Resources == nil {
		s.Resources = make(topology.Identifiers)
	}
	s.Resources[address] = id
}

// MarkApplied records when an apply completed. Partial applies leave it unset.
func (s *State) MarkApplied(at time.Time) {
	applied := at.UTC()
	s.AppliedAt = &applied
}
