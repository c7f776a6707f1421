package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/0xcro3dile/conllu-pipeline/internal/config"
)

var initForce bool

// initCmd writes a starter config
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default configuration to the config path",
	Args:  cobra.NoArgs,
	RunE:  runInit,
}

func init() {
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "overwrite an existing config file")
}

func runInit(cmd *cobra.Command, args []string) error {
	if _, err := os.Stat(configPath); err == nil && !initForce {
		return fmt.Errorf("config %s already exists (use --force to overwrite)", configPath)
	}

	if err := config.DefaultConfig().Save(configPath); err != nil {
		return err
	}
	commandLogger().Info("config written", zap.String("path", configPath))
	fmt.Fprintf(cmd.OutOrStdout(), "wrote default config to %s\n", configPath)
	return nil
}
