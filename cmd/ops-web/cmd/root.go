package cmd

import (
	"go.uber.org/zap"

	"github.com/spf13/cobra"

	"ops-web/ops-web-backend/internal/config"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "ops-web",
	Short: "OPS marketing site, tutorial and signup funnel",
	Long: `ops-web serves the OPS marketing site: the landing page, the A/B tested
tutorial (video walkthrough or interactive mock app) and the signup funnel
that creates accounts and companies in the Bubble backend.

Configuration is read from defaults, an optional .env file, the JSON file
given by --config and finally environment variables.

  ops-web serve --config config.json
  ops-web phases
  ops-web analytics export --format xlsx --out steps.xlsx`,
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "config.json", "path to the JSON config file")
}

func loadConfig() (*config.Config, error) {
	return config.LoadConfig(cfgFile)
}

func newLogger(level string) (*zap.Logger, error) {
	if level == "debug" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
