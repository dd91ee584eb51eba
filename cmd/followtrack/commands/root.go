package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/FranksOps/followtrack/internal/config"
	"github.com/FranksOps/followtrack/internal/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	settings   = viper.New()
	configFile string

	cfg *config.Config
	log *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "followtrack",
	Short: "followtrack posts the daily follower change of X accounts.",
	Long: `followtrack reads the current follower count of each configured handle
from Nitter mirrors or SocialBlade, compares it with the sample nearest to
24 hours ago, keeps 30 days of history and publishes a short post.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := config.ReadFile(settings, configFile); err != nil {
			return err
		}
		cfg = config.Load(settings)
		log = logger.New(cfg.LogLevel, cfg.LogFormat, cmd.ErrOrStderr())
		slog.SetDefault(log)
		return nil
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configFile, "config", "", "config file (yaml, toml or json)")
	if err := config.Bind(settings, flags); err != nil {
		panic(err)
	}
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
