package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/glpibot/internal/config"
	"github.com/glpibot/internal/glpi"
)

// ConfigCommand returns the config command
func ConfigCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Manage configuration",
		Subcommands: []*cli.Command{
			{
				Name:  "init",
				Usage: "Initialize a new configuration file",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output file path",
						Value:   "glpibot.toml",
					},
				},
				Action: runConfigInit,
			},
			{
				Name:  "validate",
				Usage: "Validate the configuration file",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "probe",
						Usage: "Also open and close a GLPI session to verify credentials",
					},
				},
				Action: runConfigValidate,
			},
		},
	}
}

func runConfigInit(c *cli.Context) error {
	outputPath := c.String("output")

	if err := config.InitConfig(outputPath); err != nil {
		return fmt.Errorf("failed to initialize config: %w", err)
	}

	fmt.Printf("Created configuration file at %s\n", outputPath)
	return nil
}

func runConfigValidate(c *cli.Context) error {
	configPath := c.String("config")

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if c.Bool("probe") {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		client := glpi.NewClient(cfg.GLPI.URL, cfg.GLPI.AppToken)
		if err := client.CheckSession(ctx); err != nil {
			return fmt.Errorf("GLPI session probe failed: %w", err)
		}
		fmt.Println("GLPI session probe succeeded")
	}

	fmt.Println("Configuration is valid")
	return nil
}
