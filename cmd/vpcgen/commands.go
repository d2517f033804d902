package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/emergingrobotics/vpcgen/internal/config"
	"github.com/emergingrobotics/vpcgen/internal/log"
	awsprovider "github.com/emergingrobotics/vpcgen/internal/provider/aws"
	"github.com/emergingrobotics/vpcgen/internal/topology"
	"github.com/emergingrobotics/vpcgen/internal/ui"
)

func loadTopology(settings Settings, name string) (*config.Config, *topology.Topology, error) {
	definition, path, err := config.Load(settings.Folder, name)
	if err != nil {
		return nil, nil, err
	}
	log.Debug("Stack definition loaded", "path", path, "subnets", len(definition.Subnets))

	network, err := topology.Generate(*definition.Network, definition.Subnets)
	if err != nil {
		return nil, nil, err
	}
	return definition, network, nil
}

func printWarnings(writer io.Writer, network *topology.Topology) {
	for _, warning := range network.Warnings() {
		fmt.Fprintf(writer, "Warning: %s\n", warning)
	}
}

func planCommand(resolve func() Settings) *cobra.Command {
	return &cobra.Command{
		Use:   "plan <name>",
		Short: "Show the resources a stack definition derives",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			settings := resolve()
			name := args[0]
			_, network, err := loadTopology(settings, name)
			if err != nil {
				return err
			}
			printWarnings(cmd.ErrOrStderr(), network)

			ids := make(topology.Identifiers)
			if config.HasState(settings.Folder, name, settings.Provider) {
				state, _, err := config.LoadState(settings.Folder, name, settings.Provider)
				if err != nil {
					return err
				}
				ids = state.Resources
			}

			fmt.Fprint(cmd.OutOrStdout(), ui.RenderPlan(network.Resources(), ids))
			return nil
		},
	}
}

func applyCommand(resolve func() Settings) *cobra.Command {
	return &cobra.Command{
		Use:   "apply <name>",
		Short: "Create the network with the selected provider",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			settings := resolve()
			name := args[0]
			if config.HasState(settings.Folder, name, settings.Provider) {
				return fmt.Errorf("%q already has %s state at %s: run 'vpcgen destroy %s' first",
					name, settings.Provider, config.StatePath(settings.Folder, name, settings.Provider), name)
			}

			definition, network, err := loadTopology(settings, name)
			if err != nil {
				return err
			}
			printWarnings(cmd.ErrOrStderr(), network)

			definitionRegion, definitionProfile := awsSettings(definition)
			region, profile := awsTarget(settings, definitionRegion, definitionProfile)
			provisioner, err := provisionerFor(cmd.Context(), settings, region, profile)
			if err != nil {
				return err
			}

			state := config.NewState(name, provisioner.Name())
			if settings.Provider == "aws" {
				state.Profile = profile
			}
			applyErr := provisioner.Apply(cmd.Context(), definition, network, state)
			if applyErr != nil && len(state.Resources) == 0 && state.StackName == "" {
				return applyErr
			}

			log.Debug("Saving state", "path", config.StatePath(settings.Folder, name, settings.Provider))
			if err := config.SaveState(settings.Folder, name, settings.Provider, state); err != nil {
				if applyErr != nil {
					return fmt.Errorf("%w (state not saved: %v)", applyErr, err)
				}
				return fmt.Errorf("network created but failed to save state: %w", err)
			}
			if applyErr != nil {
				return fmt.Errorf("%w\npartial state saved; run 'vpcgen destroy %s' to clean up", applyErr, name)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Applied %s via %s\n", name, provisioner.Name())
			fmt.Fprint(cmd.OutOrStdout(), ui.RenderOutputs(network.Result(state.Resources)))
			return nil
		},
	}
}

func destroyCommand(resolve func() Settings) *cobra.Command {
	return &cobra.Command{
		Use:   "destroy <name>",
		Short: "Delete every resource recorded in state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			settings := resolve()
			name := args[0]
			state, _, err := config.LoadState(settings.Folder, name, settings.Provider)
			if err != nil {
				return err
			}

			// Same account as apply: a different profile sees every ID as NotFound.
			profile := state.Profile
			if profile == "" {
				if definition, _, err := config.Load(settings.Folder, name); err == nil {
					_, profile = awsSettings(definition)
				}
			}
			region, profile := awsTarget(settings, state.Region, profile)
			provisioner, err := provisionerFor(cmd.Context(), settings, region, profile)
			if err != nil {
				return err
			}

			if err := provisioner.Destroy(cmd.Context(), state); err != nil {
				if saveErr := config.SaveState(settings.Folder, name, settings.Provider, state); saveErr != nil {
					log.Error("Failed to save remaining state", "path", config.StatePath(settings.Folder, name, settings.Provider), "error", saveErr)
				}
				return fmt.Errorf("destroy incomplete, %d resources remain in state: %w", len(state.Resources), err)
			}

			if err := config.ClearState(settings.Folder, name, settings.Provider); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "Warning: failed to remove state directory: %v\n", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Destroyed %s\n", name)
			return nil
		},
	}
}

func outputsCommand(resolve func() Settings) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "outputs <name>",
		Short: "Print the network ID and subnet partitions of an applied stack",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			settings := resolve()
			name := args[0]
			state, _, err := config.LoadState(settings.Folder, name, settings.Provider)
			if err != nil {
				return err
			}
			_, network, err := loadTopology(settings, name)
			if err != nil {
				return err
			}

			result := network.Result(state.Resources)
			if jsonOutput {
				data, err := json.MarshalIndent(result, "", "  ")
				if err != nil {
					return fmt.Errorf("failed to marshal outputs: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(data))
				return nil
			}
			fmt.Fprint(cmd.OutOrStdout(), ui.RenderOutputs(result))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	return cmd
}

func templateCommand(resolve func() Settings) *cobra.Command {
	return &cobra.Command{
		Use:   "template <name>",
		Short: "Render the CloudFormation template for a stack definition",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			definition, network, err := loadTopology(resolve(), name)
			if err != nil {
				return err
			}
			printWarnings(cmd.ErrOrStderr(), network)

			var tags map[string]string
			if definition.AWS != nil {
				tags = definition.AWS.Tags
			}
			template, err := awsprovider.GenerateTemplate(network, awsprovider.BuildStackName(name), tags)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), template.Body)
			return nil
		},
	}
}

func versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	}
}
