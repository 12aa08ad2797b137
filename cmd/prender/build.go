package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/quenby/prender"
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build production artifacts",
	Long: `Build the server bundle, hashed client assets with brotli siblings,
and the asset manifest consumed by 'prender serve --mode production'.`,
	PreRunE: bindFlags,
	RunE:    runBuild,
}

func init() {
	buildCmd.Flags().String("entry", "app.tsx", "bundle entry module")
	buildCmd.Flags().String("out", "dist", "output directory")
	buildCmd.Flags().Bool("minify", true, "minify bundle output")
	rootCmd.AddCommand(buildCmd)
}

func runBuild(cmd *cobra.Command, args []string) error {
	start := time.Now()
	err := prender.BuildBundle(prender.BuildOptions{
		Entry:  viper.GetString("entry"),
		OutDir: viper.GetString("out"),
		Minify: viper.GetBool("minify"),
	})
	if err != nil {
		return err
	}
	fmt.Printf("built %s in %s\n", viper.GetString("out"), time.Since(start).Round(time.Millisecond))
	return nil
}
