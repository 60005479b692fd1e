package main

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/Veraticus/findash/internal/cli"
	"github.com/Veraticus/findash/internal/common"
	"github.com/Veraticus/findash/internal/storage"
)

func snapshotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Save and restore copies of the database",
		Long: `Save and restore copies of the database.

Imports take an automatic snapshot first; the five newest automatic
snapshots are kept.`,
	}

	cmd.AddCommand(snapshotCreateCmd())
	cmd.AddCommand(snapshotListCmd())
	cmd.AddCommand(snapshotRestoreCmd())
	cmd.AddCommand(snapshotDeleteCmd())

	return cmd
}

func openSnapshots(cmd *cobra.Command) (*storage.SQLiteStorage, *storage.Snapshots, error) {
	store, err := openStore(cmd.Context())
	if err != nil {
		return nil, nil, err
	}
	snapshots, err := store.Snapshots()
	if err != nil {
		_ = store.Close()
		return nil, nil, err
	}
	return store, snapshots, nil
}

func snapshotCreateCmd() *cobra.Command {
	var description string

	cmd := &cobra.Command{
		Use:   "create [id]",
		Short: "Save a snapshot",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, snapshots, err := openSnapshots(cmd)
			if err != nil {
				return err
			}
			defer store.Close()

			id := ""
			if len(args) == 1 {
				id = args[0]
			}
			info, err := snapshots.Create(cmd.Context(), id, description)
			if errors.Is(err, storage.ErrSnapshotExists) {
				return common.NewUserError(fmt.Sprintf("Snapshot %s already exists", id), err)
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Saved snapshot %s (%d documents)", info.ID, info.Total())))
			return nil
		},
	}

	cmd.Flags().StringVarP(&description, "description", "m", "", "what the snapshot is for")
	return cmd
}

func snapshotListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List snapshots, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, snapshots, err := openSnapshots(cmd)
			if err != nil {
				return err
			}
			defer store.Close()

			list, err := snapshots.List(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(list) == 0 {
				fmt.Fprintln(out, cli.FormatInfo("No snapshots yet."))
				return nil
			}

			rows := make([][]string, 0, len(list))
			for _, s := range list {
				kind := "manual"
				if s.IsAuto {
					kind = "auto"
				}
				rows = append(rows, []string{
					s.ID,
					humanize.Time(s.CreatedAt),
					kind,
					strconv.Itoa(s.Total()),
					humanize.Bytes(uint64(s.FileSize)),
					s.Description,
				})
			}
			fmt.Fprint(out, cli.RenderTable([]string{"ID", "Created", "Kind", "Documents", "Size", "Description"}, rows))
			return nil
		},
	}
}

func snapshotRestoreCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "restore <id>",
		Short: "Replace the database with a snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if !yes {
				ok, err := cli.NewPrompter(cmd.InOrStdin(), cmd.OutOrStdout()).
					Confirm(ctx, fmt.Sprintf("Replace all data with snapshot %s?", args[0]))
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintln(cmd.OutOrStdout(), cli.FormatInfo("Cancelled."))
					return nil
				}
			}

			store, snapshots, err := openSnapshots(cmd)
			if err != nil {
				return err
			}
			defer store.Close()

			if err := snapshots.Restore(ctx, args[0]); err != nil {
				if errors.Is(err, storage.ErrSnapshotNotFound) {
					return common.NewUserError(fmt.Sprintf("No snapshot %s", args[0]), err)
				}
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Restored snapshot %s", args[0])))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}

func snapshotDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, snapshots, err := openSnapshots(cmd)
			if err != nil {
				return err
			}
			defer store.Close()

			if err := snapshots.Delete(cmd.Context(), args[0]); err != nil {
				if errors.Is(err, storage.ErrSnapshotNotFound) {
					return common.NewUserError(fmt.Sprintf("No snapshot %s", args[0]), err)
				}
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Snapshot deleted."))
			return nil
		},
	}
}

// autoSnapshot saves the database before a bulk write. Failure is logged and
// does not stop the write.
func autoSnapshot(cmd *cobra.Command, ws *workspace, reason string) {
	snapshots, err := ws.store.Snapshots()
	if err == nil {
		_, err = snapshots.Auto(cmd.Context(), reason)
	}
	if err != nil {
		slog.Warn("Continuing without a snapshot", "error", err)
	}
}
