package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "prender",
	Short: "Server-side component renderer",
	Long: `prender renders JSX/TSX components to HTML documents inside an
embedded JavaScript engine.

Run 'prender serve' for the development server with live reload, 'prender
build' to produce production artifacts, and 'prender render' for a one-shot
render to stdout.`,
	SilenceUsage: true,
}

func init() {
	viper.SetEnvPrefix("PRENDER")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

// bindFlags wires the running command's flags into viper so PRENDER_*
// environment variables act as defaults. Bound at run time: commands share
// flag names (app-dir), so binding everything at init would let one command
// shadow another.
func bindFlags(cmd *cobra.Command, args []string) error {
	return viper.BindPFlags(cmd.Flags())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
