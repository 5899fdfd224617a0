package main

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

//go:embed example_tackle.yml
var exampleYAML []byte

const exampleHeader = `# tackle example
# Run:     tackle <this-file>
# Preview: tackle <this-file> --no-input --accept-hooks no --print

`

var exampleCmd = &cobra.Command{
	Use:   "example",
	Short: "Print an example tackle file covering the main features",
	RunE: func(cmd *cobra.Command, args []string) error {
		output, _ := cmd.Flags().GetString("output")
		w := cmd.OutOrStdout()
		if output != "" {
			f, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("creating %s: %w", output, err)
			}
			defer f.Close()
			w = f
		}

		fmt.Fprint(w, exampleHeader)
		if _, err := w.Write(exampleYAML); err != nil {
			return err
		}

		if output != "" {
			fmt.Fprintf(cmd.ErrOrStderr(), "written to %s\n", output)
		}
		return nil
	},
}

func init() {
	exampleCmd.Flags().StringP("output", "o", "", "write to file instead of stdout")
}
