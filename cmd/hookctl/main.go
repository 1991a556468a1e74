package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/srand/hookd/pkg/log"
)

var rootCmd = &cobra.Command{
	Use:   "hookctl",
	Short: "Webhook server control command",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		viper.SetConfigName("hookctl.yaml")
		viper.SetConfigType("yaml")
		viper.AddConfigPath("/etc/hookd/")
		viper.AddConfigPath("$HOME/.config/hookd")
		viper.AddConfigPath(".")
		viper.ReadInConfig()

		viper.SetEnvPrefix("hookd")
		viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
		viper.AutomaticEnv()

		config, err := ParseConfig(viper.GetViper())
		if err != nil {
			log.Fatal(err)
		}
		configData = *config
	},
}

var configData = ControlConfig{}

func main() {
	rootCmd.PersistentFlags().StringP("url", "u", "http://localhost:8000", "Server URL")
	rootCmd.PersistentFlags().StringP("grpc-url", "g", "tcp://localhost:9090", "Server gRPC URL")
	rootCmd.PersistentFlags().StringP("secret", "s", "", "Shared secret used to sign requests")
	rootCmd.PersistentFlags().String("user", "", "Basic auth user")
	rootCmd.PersistentFlags().String("password", "", "Basic auth password")
	viper.BindPFlag("url", rootCmd.PersistentFlags().Lookup("url"))
	viper.BindPFlag("grpc_url", rootCmd.PersistentFlags().Lookup("grpc-url"))
	viper.BindPFlag("secret", rootCmd.PersistentFlags().Lookup("secret"))
	viper.BindPFlag("basic_auth.user", rootCmd.PersistentFlags().Lookup("user"))
	viper.BindPFlag("basic_auth.password", rootCmd.PersistentFlags().Lookup("password"))

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
