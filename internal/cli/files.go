package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/Jumpaku/go-drivemap"
	"github.com/spf13/cobra"
)

func (a *App) store(ctx context.Context, folderURL string, opts ...drivemap.Option) (*drivemap.Store, error) {
	service, err := a.service(ctx)
	if err != nil {
		return nil, err
	}
	opts = append(append(a.cfg.Options(), drivemap.WithLogger(a.logger)), opts...)
	return drivemap.NewStore(service, folderURL, opts...)
}

func (a *App) newLsCmd() *cobra.Command {
	var (
		maxLevels int
		hidden    bool
		long      bool
	)
	cmd := &cobra.Command{
		Use:   "ls FOLDER_URL",
		Short: "List the keys of a folder",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var opts []drivemap.Option
			if cmd.Flags().Changed("max-levels") {
				opts = append(opts, drivemap.WithMaxLevels(maxLevels))
			}
			if cmd.Flags().Changed("hidden") {
				opts = append(opts, drivemap.WithIncludeHidden(hidden))
			}
			s, err := a.store(cmd.Context(), args[0], opts...)
			if err != nil {
				return err
			}
			entries, err := s.Entries(cmd.Context())
			if err != nil {
				return err
			}
			if !long {
				for _, e := range entries {
					fmt.Fprintln(a.Stdout, e.Key)
				}
				return nil
			}
			w := tabwriter.NewWriter(a.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "KEY\tSIZE\tMODIFIED\tID")
			for _, e := range entries {
				fmt.Fprintf(w, "%s\t%d\t%s\t%s\n", e.Key, e.File.Size, e.File.ModTime.Format(time.RFC3339), e.File.ID)
			}
			return w.Flush()
		},
	}
	cmd.Flags().IntVar(&maxLevels, "max-levels", drivemap.Unbounded, "deepest subfolder level listed, 0 lists the folder itself only, -1 lists every level")
	cmd.Flags().BoolVar(&hidden, "hidden", false, "include names starting with '.'")
	cmd.Flags().BoolVarP(&long, "long", "l", false, "print size, modification time and file ID")
	return cmd
}

func (a *App) newCatCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "cat FOLDER_URL KEY",
		Short: "Print the content of a key",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.store(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			data, err := s.Get(cmd.Context(), drivemap.KeyPath(args[1]))
			if err != nil {
				return err
			}
			if output == "" {
				_, err = a.Stdout.Write(data)
				return err
			}
			if err := os.MkdirAll(filepath.Dir(output), 0o755); err != nil {
				return err
			}
			return os.WriteFile(output, data, 0o644)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the content to this path")
	return cmd
}

func (a *App) newPutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "put FOLDER_URL KEY [FILE|-]",
		Short: "Write a local file, or stdin, to a key",
		Long: `Write the content of FILE to KEY, creating the folders along KEY.
An existing file at KEY is overwritten. Without FILE, or with "-", stdin is written.`,
		Args: cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				data []byte
				err  error
			)
			if len(args) == 3 && args[2] != "-" {
				data, err = os.ReadFile(args[2])
			} else {
				data, err = io.ReadAll(a.Stdin)
			}
			if err != nil {
				return err
			}
			s, err := a.store(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return s.Set(cmd.Context(), drivemap.KeyPath(args[1]), data)
		},
	}
}

func (a *App) newRmCmd() *cobra.Command {
	var trash bool
	cmd := &cobra.Command{
		Use:   "rm FOLDER_URL KEY",
		Short: "Delete a key",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var opts []drivemap.Option
			if cmd.Flags().Changed("trash") {
				opts = append(opts, drivemap.WithMoveToTrash(trash))
			}
			s, err := a.store(cmd.Context(), args[0], opts...)
			if err != nil {
				return err
			}
			return s.Delete(cmd.Context(), drivemap.KeyPath(args[1]))
		},
	}
	cmd.Flags().BoolVar(&trash, "trash", false, "move the file to the trash instead of deleting it permanently")
	return cmd
}

func (a *App) newURLCmd() *cobra.Command {
	var granteeType, role, email, domain string
	cmd := &cobra.Command{
		Use:   "url FOLDER_URL KEY",
		Short: "Share a key and print its link",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			link := a.cfg.Link
			if cmd.Flags().Changed("type") {
				link.PermissionType = granteeType
			}
			if cmd.Flags().Changed("role") {
				link.PermissionRole = role
			}
			if cmd.Flags().Changed("email") {
				link.Email = email
			}
			if cmd.Flags().Changed("domain") {
				link.Domain = domain
			}
			perm, err := link.Permission()
			if err != nil {
				return err
			}
			s, err := a.store(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			u, err := s.URL(cmd.Context(), drivemap.KeyPath(args[1]), perm)
			if err != nil {
				return err
			}
			fmt.Fprintln(a.Stdout, u)
			return nil
		},
	}
	cmd.Flags().StringVar(&granteeType, "type", "", "grantee type: anyone, user, group or domain")
	cmd.Flags().StringVar(&role, "role", "", "role: reader, commenter or writer")
	cmd.Flags().StringVar(&email, "email", "", "grantee email address for user and group")
	cmd.Flags().StringVar(&domain, "domain", "", "grantee domain for domain")
	return cmd
}
