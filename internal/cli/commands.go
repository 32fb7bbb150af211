package cli

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/lifeos/backend/internal/domain/entity"
)

func exportCmd(a *app) *cobra.Command {
	var outPath string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a JSON backup of the local store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			raw, err := a.store.ExportJSON(cmd.Context())
			if err != nil {
				return err
			}
			if outPath == "" || outPath == "-" {
				_, err := a.out.Write(append(raw, '\n'))
				return err
			}
			if err := os.WriteFile(outPath, raw, 0o600); err != nil {
				return fmt.Errorf("failed to write %s: %w", outPath, err)
			}
			fmt.Fprintf(a.out, "Exported to %s\n", outPath)
			return nil
		},
	}
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "output file (default stdout)")
	return cmd
}

func importCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Replace the local store with a JSON backup",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", args[0], err)
			}
			summary, err := a.store.Import(cmd.Context(), raw)
			if err != nil {
				return err
			}

			types := make([]string, 0, len(summary.Records))
			for typ := range summary.Records {
				types = append(types, string(typ))
			}
			sort.Strings(types)
			for _, typ := range types {
				fmt.Fprintf(a.out, "  %-16s %d\n", typ+":", summary.Records[entity.EntityType(typ)])
			}
			fmt.Fprintf(a.out, "Imported. %d stale records removed.\n", summary.Removed)
			return nil
		},
	}
}

func syncCmd(a *app) *cobra.Command {
	var watch bool
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Sync the local store with the remote",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			engine := a.engine()
			if watch {
				fmt.Fprintf(a.out, "Syncing every %s, press Ctrl+C to stop\n", a.profile.SyncInterval)
				if err := engine.Run(cmd.Context()); cmd.Context().Err() == nil {
					return err
				}
				return nil
			}

			report, err := engine.Sync(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Pulled %d (adopted %d), pushed %d, rejected %d, conflicts %d\n",
				report.Pulled, report.Adopted, report.Pushed, report.Rejected, report.Conflicts)
			fmt.Fprintf(a.out, "State: %s\n", report.State)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "keep syncing on the configured interval")
	return cmd
}

func statusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show pending changes and open conflicts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			status, err := a.engine().Status(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Namespace: %s\n", a.store.Namespace())
			fmt.Fprintf(a.out, "Device:    %s\n", a.store.DeviceID())
			fmt.Fprintf(a.out, "Remote:    %s\n", a.profile.RemoteURL)
			fmt.Fprintf(a.out, "State:     %s\n", status.State)
			fmt.Fprintf(a.out, "Pending:   %d\n", status.Pending)
			fmt.Fprintf(a.out, "Conflicts: %d\n", status.Conflicts)
			return nil
		},
	}
}

func conflictsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "conflicts",
		Short: "List open sync conflicts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			conflicts, err := a.store.Conflicts(cmd.Context())
			if err != nil {
				return err
			}
			if len(conflicts) == 0 {
				fmt.Fprintln(a.out, "No open conflicts")
				return nil
			}

			w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tTYPE\tENTITY\tKIND\tLOCAL\tREMOTE\tDETECTED")
			for _, c := range conflicts {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\tv%d %s\tv%d %s\t%s\n",
					c.ID, c.EntityType, c.EntityID, c.Type,
					c.Local.Version, c.Local.DeviceID,
					c.Remote.Version, c.Remote.DeviceID,
					c.DetectedAt.Format(time.RFC3339))
			}
			return w.Flush()
		},
	}
}

func resolveCmd(a *app) *cobra.Command {
	var (
		strategy string
		all      bool
	)
	cmd := &cobra.Command{
		Use:   "resolve [conflict-id]",
		Short: "Resolve one or every open conflict",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s := entity.ResolutionStrategy(strategy)
			engine := a.engine()
			switch {
			case all:
				n, err := engine.ResolveAll(cmd.Context(), s)
				if err != nil {
					return err
				}
				fmt.Fprintf(a.out, "Resolved %d conflicts with %s\n", n, s)
			case len(args) == 1:
				if err := engine.Resolve(cmd.Context(), args[0], s); err != nil {
					return err
				}
				fmt.Fprintf(a.out, "Resolved %s with %s\n", args[0], s)
			default:
				return errors.New("pass a conflict id or --all")
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&strategy, "strategy", "s", string(entity.ResolveMerge), "local-wins, remote-wins or merge")
	cmd.Flags().BoolVar(&all, "all", false, "resolve every open conflict")
	return cmd
}

func clearCmd(a *app) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every record of the local store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !yes {
				return errors.New("refusing to clear without --yes")
			}
			if err := a.store.Clear(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Cleared %s\n", a.store.Namespace())
			return nil
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm")
	return cmd
}
