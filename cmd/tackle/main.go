package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/robcxyz/tackle-box/pkg/lib"
)

var (
	flagContextKey  string
	flagNoInput     bool
	flagOverwrite   bool
	flagSkip        bool
	flagOutputDir   string
	flagAcceptHooks string
	flagRecord      bool
	flagReplay      bool
	flagReplayFile  string
	flagRerun       bool
	flagPrint       bool
	flagVerbose     bool
)

func init() {
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(exampleCmd)
	rootCmd.AddCommand(configCmd)

	f := rootCmd.Flags()
	f.StringVar(&flagContextKey, "context-key", "", "top-level key of the file to resolve (default from config: "+appName+")")
	f.BoolVar(&flagNoInput, "no-input", false, "never prompt, take defaults")
	f.BoolVarP(&flagOverwrite, "overwrite-if-exists", "f", false, "let hooks overwrite existing files")
	f.BoolVarP(&flagSkip, "skip-if-file-exists", "s", false, "let hooks skip files that already exist")
	f.StringVarP(&flagOutputDir, "output-dir", "o", "", "directory hooks write generated output to")
	f.StringVar(&flagAcceptHooks, "accept-hooks", "yes", "run post-generation hooks: yes, no or ask")
	f.BoolVar(&flagRecord, "record", false, "record the resolved output for later replay")
	f.BoolVar(&flagReplay, "replay", false, "seed the run with the recorded output")
	f.StringVar(&flagReplayFile, "replay-file", "", "seed the run with the record at this path")
	f.BoolVar(&flagRerun, "rerun", false, "replay if a record exists, then record")
	f.BoolVar(&flagPrint, "print", false, "print the resolved output tree")

	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "debug logging")

	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		lib.Exit(err)
	}
}
