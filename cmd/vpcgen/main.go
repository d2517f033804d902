package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/emergingrobotics/vpcgen/internal/config"
	"github.com/emergingrobotics/vpcgen/internal/log"
	"github.com/emergingrobotics/vpcgen/internal/provider"
	awsprovider "github.com/emergingrobotics/vpcgen/internal/provider/aws"
	"github.com/emergingrobotics/vpcgen/internal/provider/local"
)

var version = "dev"

const defaultStackFolder = "stacks"

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout io.Writer, stderr io.Writer) error {
	root := newRootCommand(viper.New(), stdout, stderr)
	root.SetArgs(args)
	return root.Execute()
}

// Settings are the global flags after environment and default resolution.
type Settings struct {
	Folder   string
	Provider string
	Profile  string
	Region   string
	Verbose  bool
}

func newRootCommand(settings *viper.Viper, stdout io.Writer, stderr io.Writer) *cobra.Command {
	resolve := func() Settings {
		return Settings{
			Folder:   settings.GetString("folder"),
			Provider: settings.GetString("provider"),
			Profile:  settings.GetString("profile"),
			Region:   settings.GetString("region"),
			Verbose:  settings.GetBool("verbose"),
		}
	}

	root := &cobra.Command{
		Use:   "vpcgen",
		Short: "Generate and provision VPC network topologies",
		Long: `vpcgen turns a network definition into a VPC, its subnets and, when any
subnet is public, an internet gateway with a public route table.

Stack definitions live in <folder>/<name>/network.yaml (or network.json):

  vpcgen plan demo              # Show the resources that would be created
  vpcgen apply demo             # Create them with the selected provider
  vpcgen outputs demo --json    # Print network and subnet IDs
  vpcgen template demo          # Render a CloudFormation template
  vpcgen destroy demo           # Delete everything recorded in state`,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			level := "warn"
			if resolve().Verbose {
				level = "debug"
			}
			log.ConfigureWriter(level, "console", stderr)
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	flags := root.PersistentFlags()
	flags.StringP("folder", "f", "", "Stack folder (default: $VPCGEN_STACK_FOLDER or ./stacks)")
	flags.BoolP("verbose", "v", false, "Enable debug logging")
	flags.String("provider", "local", "Provisioner to use: aws or local")
	flags.String("profile", "", "AWS shared config profile")
	flags.String("region", "", "AWS region (overrides the stack definition)")

	settings.SetEnvPrefix("VPCGEN")
	settings.AutomaticEnv()
	_ = settings.BindEnv("folder", "VPCGEN_STACK_FOLDER")
	settings.SetDefault("folder", defaultStackFolder)
	for _, name := range []string{"folder", "verbose", "provider", "profile", "region"} {
		_ = settings.BindPFlag(name, flags.Lookup(name))
	}

	root.AddCommand(
		planCommand(resolve),
		applyCommand(resolve),
		destroyCommand(resolve),
		outputsCommand(resolve),
		templateCommand(resolve),
		versionCommand(),
	)
	return root
}

var newAWSProvisioner = func(ctx context.Context, region string, profile string) (provider.Provisioner, error) {
	awsProvisioner, err := awsprovider.NewWithSDK(ctx, region, profile)
	if err != nil {
		return nil, err
	}
	return awsProvisioner, nil
}

// awsTarget applies the --region and --profile overrides to the values taken
// from the stack definition or state.
func awsTarget(settings Settings, region string, profile string) (string, string) {
	if settings.Region != "" {
		region = settings.Region
	}
	if settings.Profile != "" {
		profile = settings.Profile
	}
	return region, profile
}

// provisionerFor registers the AWS provisioner on first use so that plan,
// outputs and local runs never need credentials.
func provisionerFor(ctx context.Context, settings Settings, region string, profile string) (provider.Provisioner, error) {
	if settings.Provider == "aws" {
		log.Debug("Loading AWS configuration", "region", region, "profile", profile)
		awsProvisioner, err := newAWSProvisioner(ctx, region, profile)
		if err != nil {
			return nil, err
		}
		provider.Register(awsProvisioner.Name(), awsProvisioner)
	}
	return provider.Get(settings.Provider)
}

func awsSettings(definition *config.Config) (string, string) {
	if definition == nil || definition.AWS == nil {
		return "", ""
	}
	return definition.AWS.Region, definition.AWS.Profile
}

func init() {
	provider.Register("local", local.New())
}
