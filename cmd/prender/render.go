package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/quenby/prender"
)

var renderCmd = &cobra.Command{
	Use:     "render <component>",
	Short:   "Render one component to stdout",
	Args:    cobra.ExactArgs(1),
	PreRunE: bindFlags,
	RunE:    runRender,
}

func init() {
	renderCmd.Flags().String("app-dir", ".", "component source root")
	renderCmd.Flags().String("props", "{}", "props as a JSON object")
	renderCmd.Flags().String("title", "", "document title")
	rootCmd.AddCommand(renderCmd)
}

func runRender(cmd *cobra.Command, args []string) error {
	var props map[string]any
	if err := json.Unmarshal([]byte(viper.GetString("props")), &props); err != nil {
		return fmt.Errorf("parsing --props: %w", err)
	}

	r, err := prender.New(prender.Config{
		Mode:   prender.ModeDevelopment,
		AppDir: viper.GetString("app-dir"),
	})
	if err != nil {
		return err
	}
	defer r.Close()

	doc, err := r.Render(args[0], props, prender.RenderOptions{Title: viper.GetString("title")})
	if err != nil {
		return err
	}
	fmt.Println(doc)
	return nil
}
