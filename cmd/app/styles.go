package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"chatrelay/internal/config"
	"chatrelay/internal/style"
)

var stylesCmd = &cobra.Command{
	Use:   "styles",
	Short: "List available persona styles",
	RunE:  runStyles,
}

func runStyles(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(resolveConfigPath())
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	registry, err := style.NewRegistry(cfg.Styles.Default, cfg.Styles.Extra)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, name := range registry.Names() {
		if name == registry.Default() {
			fmt.Fprintf(out, "%s (default)\n", name)
			continue
		}
		fmt.Fprintln(out, name)
	}
	return nil
}
