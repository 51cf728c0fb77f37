package main

import (
	"fmt"
	"io"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"avmcore/pkg/config"
	"avmcore/pkg/driver"
	"avmcore/pkg/fixture"
)

// options holds the persistent flags and the state derived from them.
type options struct {
	configPath string
	verbose    bool
	swfVersion uint8

	cfg *config.Config
	log *logrus.Logger
}

func (o *options) addFlags(fs *pflag.FlagSet) {
	fs.StringVarP(&o.configPath, "config", "c", "avmcore.toml", "path to config file")
	fs.BoolVarP(&o.verbose, "verbose", "v", false, "verbose output")
	fs.Uint8Var(&o.swfVersion, "swf-version", 0, "override player.swf_version")
}

func (o *options) load(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return err
	}
	if o.verbose {
		cfg.Log.Level = "debug"
	}
	if o.swfVersion != 0 {
		cfg.Player.SwfVersion = o.swfVersion
	}
	logger, err := cfg.NewLogger()
	if err != nil {
		return err
	}
	logger.SetOutput(cmd.ErrOrStderr())
	o.cfg, o.log = cfg, logger
	return nil
}

func (o *options) newPlayer() (*driver.Player, error) {
	return driver.NewPlayer(o.cfg, o.log)
}

func newRootCmd(version string) *cobra.Command {
	opts := &options{}
	rootCmd := &cobra.Command{
		Use:               "avmcore",
		Short:             "Run and inspect the legacy dynamic object runtime",
		Version:           version,
		SilenceUsage:      true,
		PersistentPreRunE: opts.load,
	}
	opts.addFlags(rootCmd.PersistentFlags())

	rootCmd.AddCommand(newRunCmd(opts), newSnapshotCmd(opts))
	return rootCmd
}

func newRunCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "run <fixture.yaml>...",
		Short: "Run fixture files and report failing cases",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			failed := 0
			for _, path := range args {
				f, err := fixture.Load(path)
				if err != nil {
					return err
				}
				p, err := opts.newPlayer()
				if err != nil {
					return err
				}
				report := fixture.NewRunner(p).Run(f)
				printReport(cmd.OutOrStdout(), report)
				failed += len(report.Failed())
			}
			if failed > 0 {
				return errors.Errorf("%d case(s) failed", failed)
			}
			return nil
		},
	}
}

func printReport(w io.Writer, report *fixture.Report) {
	for _, res := range report.Results {
		status := "ok  "
		if !res.Passed() {
			status = "FAIL"
		}
		fmt.Fprintf(w, "%s %s/%s (%s)\n", status, report.File.Name, res.Case, res.Duration)
	}
	report.Display(w)
}
