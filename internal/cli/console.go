package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/apexmgmt/fansync/internal/config"
	"github.com/apexmgmt/fansync/internal/engine"
	"github.com/apexmgmt/fansync/internal/logging"
	"github.com/apexmgmt/fansync/internal/platform"
	"github.com/apexmgmt/fansync/internal/platform/platformtest"
	"github.com/apexmgmt/fansync/internal/tui"
)

func newConsoleCmd(flags *rootFlags) *cobra.Command {
	var creatorID string
	var demo bool

	cmd := &cobra.Command{
		Use:   "console",
		Short: "Open the operator console",
		Long:  "console connects to the messaging gateway, starts roster and conversation sync for one creator, and opens the interactive console.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}

			gateway, creator, err := buildGateway(cfg, creatorID, demo)
			if err != nil {
				return err
			}

			eng := engine.New(engine.Config{
				Gateway:              gateway,
				WhaleThreshold:       cfg.Tiers.WhaleThreshold,
				RosterInterval:       cfg.Roster.PollInterval,
				ConversationInterval: cfg.Conversation.PollInterval,
			})

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := eng.Start(ctx); err != nil {
				return err
			}
			defer func() {
				_ = eng.Close()
			}()

			consoleLog := logging.Component("console")
			consoleLog.Info().
				Str("creator_id", creator).
				Bool("demo", demo).
				Msg("console starting")

			return tui.Run(tui.Config{
				Engine:         eng,
				CreatorID:      creator,
				Theme:          cfg.Console.Theme,
				ShowTimestamps: cfg.Console.ShowTimestamps,
			})
		},
	}

	cmd.Flags().StringVar(&creatorID, "creator", "", "creator account to manage")
	cmd.Flags().BoolVar(&demo, "demo", false, "run against a seeded in-memory gateway")

	return cmd
}

// buildGateway picks the demo fake or the real HTTP gateway.
func buildGateway(cfg *config.Config, creatorID string, demo bool) (platform.Gateway, string, error) {
	if demo {
		if creatorID == "" {
			creatorID = platformtest.DemoCreatorID
		}
		return platformtest.NewDemo(), creatorID, nil
	}

	if creatorID == "" {
		return nil, "", fmt.Errorf("--creator is required (or use --demo)")
	}
	if cfg.Gateway.BaseURL == "" {
		return nil, "", fmt.Errorf("gateway.base_url is not configured")
	}
	if cfg.Gateway.Token == "" {
		return nil, "", fmt.Errorf("gateway.token is not configured")
	}

	client, err := platform.NewHTTPClient(platform.HTTPClientConfig{
		BaseURL:  cfg.Gateway.BaseURL,
		Token:    cfg.Gateway.Token,
		Timeout:  cfg.Gateway.Timeout,
		PageSize: cfg.Conversation.PageSize,
	})
	if err != nil {
		return nil, "", fmt.Errorf("init gateway client: %w", err)
	}
	return client, creatorID, nil
}
