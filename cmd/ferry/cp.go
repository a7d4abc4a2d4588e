package main

import (
	"context"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/bamsammich/ferry/internal/engine"
)

func newCopyCmd(stdout, stderr io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cp [flags] <source>... <destination>",
		Short: "Copy files, directories (without contents), symlinks and special files",
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
			if v.GetBool("preserve") {
				opts = append(opts, engine.CopyAttributes)
			}
			if v.GetBool("no-dereference") {
				opts = append(opts, engine.NoFollowLinks)
			}
			if v.GetBool("interruptible") {
				opts = append(opts, engine.Interruptible)
			}
			if v.GetBool("sparse") {
				opts = append(opts, engine.Sparse)
			}
			verify := v.GetBool("verify")

			s, err := newSession(v, stdout, stderr, engine.Config{
				BWLimit:    limit,
				UseIOURing: v.GetBool("iouring"),
			})
			if err != nil {
				return err
			}
			return s.execute(cmd.Context(), "copy", pairs, v.GetInt("jobs"), func(ctx context.Context, p pair) error {
				if err := s.engine.Copy(ctx, p.src, p.dst, opts...); err != nil {
					return err
				}
				if !verify {
					return nil
				}
				info, err := os.Lstat(p.dst)
				if err != nil || !info.Mode().IsRegular() {
					return nil
				}
				return s.engine.Verify(ctx, p.src, p.dst)
			})
		},
	}

	f := cmd.Flags()
	f.BoolP("force", "f", false, "replace an existing target")
	f.BoolP("preserve", "p", false, "copy ownership, permissions, extended attributes and timestamps")
	f.BoolP("no-dereference", "P", false, "copy symbolic links instead of what they point to")
	f.BoolP("no-target-directory", "T", false, "treat the destination as the target even if it is a directory")
	f.Bool("interruptible", false, "abort and roll back an in-progress copy on SIGINT/SIGTERM")
	f.Bool("sparse", false, "keep holes in sparse files")
	f.Bool("verify", false, "verify regular file copies with BLAKE3 checksums")
	f.String("bwlimit", "", "bandwidth limit (e.g. 100M, 1G)")
	f.Bool("iouring", false, "use io_uring for the buffered transfer (Linux only)")
	f.IntP("jobs", "j", 0, "operations to run concurrently (default: number of CPUs)")
	return cmd
}
