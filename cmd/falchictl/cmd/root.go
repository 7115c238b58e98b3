package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "falchictl",
	Short: "falchictl manages the pizzeria's pickup-slot grid",
	Long: `falchictl is the command-line interface for operating the slot service.

Common workflows:

  Generate a day's slot grid from opening hours:
    falchictl generate 2026-09-04 --capacity 4 --range 12:00-14:00 --range 18:00-21:30

  Take a slot out of rotation (and put it back):
    falchictl close <slot-id>
    falchictl reopen <slot-id>

  Rebuild slot counters from the orders attached to them:
    falchictl reconcile --from 2026-09-01 --to 2026-09-07

Configuration:
  Set the API endpoint via environment variables or a config file:
    FALCHI_URL    API endpoint (default: http://localhost:8080)`,
}

func Execute() error {
	return rootCmd.Execute()
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}

		// Search config in home directory with name ".falchictl"
		viper.AddConfigPath(home)
		viper.SetConfigName(".falchictl")
		viper.SetConfigType("yaml")
	}

	// Read environment variables that match "FALCHI_VARNAME"
	viper.SetEnvPrefix("FALCHI")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Println("Using config file:", viper.ConfigFileUsed())
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.falchictl.yaml)")

	rootCmd.PersistentFlags().String("url", "http://localhost:8080", "slot service URL")
	viper.BindPFlag("url", rootCmd.PersistentFlags().Lookup("url"))
}
