package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the resolved " + appName + " settings",
	Long: "Print the settings in effect after layering config.yml and the\n" +
		"environment over the defaults.\n\n" +
		"The config directory is resolved as:\n" +
		"  $TACKLE_CONFIG_DIR > $XDG_CONFIG_HOME/tackle > ~/.config/tackle",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := loadSettings()
		if err != nil {
			return err
		}
		b, err := yaml.Marshal(s)
		if err != nil {
			return err
		}
		source := "defaults"
		if s.path != "" {
			source = s.path
		}
		fmt.Fprintf(cmd.OutOrStdout(), "# source: %s\n%s", source, b)
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a config.yml with the default settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		force, _ := cmd.Flags().GetBool("force")
		dir, _ := cmd.Flags().GetString("dir")

		if dir == "" {
			var err error
			dir, err = resolveConfigDir()
			if err != nil {
				return err
			}
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating directory %s: %w", dir, err)
		}

		b, err := yaml.Marshal(defaultSettings(dir))
		if err != nil {
			return err
		}
		path := filepath.Join(dir, configFileName)
		if err := writeInitFile(path, "# "+appName+" settings\n", b, force); err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "initialised %s\n", path)
		return nil
	},
}

func writeInitFile(path, header string, content []byte, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()
	fmt.Fprint(f, header)
	_, err = f.Write(content)
	return err
}

func init() {
	configCmd.AddCommand(configInitCmd)
	configInitCmd.Flags().Bool("force", false, "overwrite an existing config.yml")
	configInitCmd.Flags().String("dir", "", "target config directory (default: auto-resolved)")
}
