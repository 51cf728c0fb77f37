package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"avmcore/pkg/fixture"
	"avmcore/pkg/snapshot"
	"avmcore/pkg/vm"
)

func newSnapshotCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Save and inspect persisted object graphs",
	}
	cmd.AddCommand(
		newSnapshotSaveCmd(opts),
		newSnapshotListCmd(opts),
		newSnapshotShowCmd(opts),
		newSnapshotDeleteCmd(opts),
	)
	return cmd
}

func (o *options) openStore() (*snapshot.Store, error) {
	return snapshot.Open(o.cfg.Storage.Path, o.cfg.Storage.Timeout)
}

func newSnapshotSaveCmd(opts *options) *cobra.Command {
	var caseName string
	cmd := &cobra.Command{
		Use:   "save <name> <fixture.yaml>",
		Short: "Run a fixture and save the receiver of one case",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, path := args[0], args[1]
			f, err := fixture.Load(path)
			if err != nil {
				return err
			}
			p, err := opts.newPlayer()
			if err != nil {
				return err
			}

			var snap *snapshot.Snapshot
			runner := fixture.NewRunner(p)
			runner.AfterCase = func(act *vm.Activation, c *fixture.Case, this vm.Value) error {
				if caseName == "" || c.Name == caseName {
					snap = snapshot.Encode(act, this)
				}
				return nil
			}
			report := runner.Run(f)
			if !report.Passed() {
				report.Display(cmd.ErrOrStderr())
				return errors.Errorf("fixture %s failed", path)
			}
			if snap == nil {
				return errors.Errorf("no case named %q in %s", caseName, path)
			}

			store, err := opts.openStore()
			if err != nil {
				return err
			}
			defer store.Close()
			rec, err := store.Save(name, snap)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "saved %s: %d object(s), %s\n",
				name, rec.Objects, humanize.Bytes(uint64(rec.Size())))
			return nil
		},
	}
	cmd.Flags().StringVar(&caseName, "case", "", "case whose receiver is saved (default: the last case)")
	return cmd
}

func newSnapshotListCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved snapshots",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := opts.openStore()
			if err != nil {
				return err
			}
			defer store.Close()
			recs, err := store.List()
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tOBJECTS\tSIZE\tCREATED")
			for _, rec := range recs {
				fmt.Fprintf(w, "%s\t%d\t%s\t%s\n", rec.Name, rec.Objects,
					humanize.Bytes(uint64(rec.Size())),
					humanize.Time(time.Unix(rec.CreatedAt, 0)))
			}
			return w.Flush()
		},
	}
}

func newSnapshotShowCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "show <name>",
		Short: "Restore a snapshot into a fresh player and print it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := opts.openStore()
			if err != nil {
				return err
			}
			defer store.Close()
			rec, err := store.Get(args[0])
			if err != nil {
				return err
			}
			snap, err := rec.Snapshot()
			if err != nil {
				return err
			}

			p, err := opts.newPlayer()
			if err != nil {
				return err
			}
			return p.RunVersion(snap.SwfVersion, func(act *vm.Activation) error {
				root, err := snapshot.Decode(act.Mutation(), act.Realm(), snap)
				if err != nil {
					return err
				}
				p.DisplayResult(cmd.OutOrStdout(), root, nil)
				return nil
			})
		},
	}
}

func newSnapshotDeleteCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a saved snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := opts.openStore()
			if err != nil {
				return err
			}
			defer store.Close()
			return store.Delete(args[0])
		},
	}
}
