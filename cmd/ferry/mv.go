package main

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	"github.com/bamsammich/ferry/internal/engine"
)

func newMoveCmd(stdout, stderr io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mv [flags] <source>... <destination>",
		Short: "Move entities, copying and deleting across filesystems",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := settings(cmd)
			if err != nil {
				return err
			}
			pairs, err := plan(args, v.GetBool("no-target-directory"))
			if err != nil {
				return err
			}
			limit, err := bwlimit(v)
			if err != nil {
				return err
			}

			var opts []engine.Option
			if v.GetBool("force") {
				opts = append(opts, engine.ReplaceExisting)
			}
			if v.GetBool("atomic") {
				opts = append(opts, engine.AtomicMove)
			}

			s, err := newSession(v, stdout, stderr, engine.Config{BWLimit: limit})
			if err != nil {
				return err
			}
			return s.execute(cmd.Context(), "move", pairs, v.GetInt("jobs"), func(ctx context.Context, p pair) error {
				return s.engine.Move(ctx, p.src, p.dst, opts...)
			})
		},
	}

	f := cmd.Flags()
	f.BoolP("force", "f", false, "replace an existing target")
	f.Bool("atomic", false, "fail instead of copying when a rename is not possible")
	f.BoolP("no-target-directory", "T", false, "treat the destination as the target even if it is a directory")
	f.String("bwlimit", "", "bandwidth limit for cross-filesystem moves (e.g. 100M)")
	f.IntP("jobs", "j", 0, "operations to run concurrently (default: number of CPUs)")
	return cmd
}
