package cmd

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/glpibot/internal/api"
	"github.com/glpibot/internal/config"
	"github.com/glpibot/internal/conversation"
	"github.com/glpibot/internal/flow"
	"github.com/glpibot/internal/glpi"
	"github.com/glpibot/internal/logging"
	"github.com/glpibot/internal/messaging"
)

// ServeCommand returns the CLI command for starting the webhook server
func ServeCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the glpibot webhook server",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port for the webhook server (overrides config)",
			},
		},
		Action: func(c *cli.Context) error {
			cfg, err := config.LoadConfig(c.String("config"))
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if err := config.Validate(cfg); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}

			logging.Setup(cfg.Log.Level)

			port := cfg.Server.Port
			if c.IsSet("port") {
				port = c.Int("port")
			}

			tickets := glpi.NewClient(cfg.GLPI.URL, cfg.GLPI.AppToken)
			sender := messaging.NewSender(cfg.Twilio.AccountSID, cfg.Twilio.AuthToken, cfg.Twilio.FromNumber, cfg.Twilio.MenuTemplateSID)
			store := conversation.NewStore()
			engine := flow.NewEngine(store, tickets, sender, sender, cfg.GLPI.DefaultRequesterID)

			fmt.Printf("Starting glpibot webhook server on port %d...\n", port)

			server := api.NewServer(port, engine, sender)
			return server.Start()
		},
	}
}
