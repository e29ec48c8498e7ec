package main

import (
	"fmt"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/askvara/vara-go/internal/files"
)

func newFilesCmd(newApp appFactory) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "files",
		Short: "Manage uploaded files",
	}

	cmd.AddCommand(
		newFilesListCmd(newApp),
		newFilesUploadCmd(newApp),
		newFilesDeleteCmd(newApp),
		newFilesDownloadCmd(newApp),
	)
	return cmd
}

func newFilesListCmd(newApp appFactory) *cobra.Command {
	var chatID string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List uploaded files",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			attachments, err := a.files.List(cmd.Context(), chatID)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tSIZE")
			for _, att := range attachments {
				fmt.Fprintf(w, "%s\t%s\t%s\n", att.ID, att.Name, files.FormatSize(att.Size))
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&chatID, "chat", "", "only files attached to this chat")
	return cmd
}

func newFilesUploadCmd(newApp appFactory) *cobra.Command {
	var chatID, messageID string

	cmd := &cobra.Command{
		Use:   "upload PATH",
		Short: "Upload a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			attachment, err := a.files.Upload(cmd.Context(), args[0], chatID, messageID)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Uploaded %s (%s) as %s\n",
				attachment.Name, files.FormatSize(attachment.Size), attachment.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&chatID, "chat", "", "attach to this chat")
	cmd.Flags().StringVar(&messageID, "message", "", "attach to this message")
	return cmd
}

func newFilesDeleteCmd(newApp appFactory) *cobra.Command {
	return &cobra.Command{
		Use:   "delete FILE_ID",
		Short: "Delete an uploaded file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.files.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Deleted.")
			return nil
		},
	}
}

func newFilesDownloadCmd(newApp appFactory) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "download URL",
		Short: "Download a file to disk",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			dest := out
			if dest == "" {
				dest = filepath.Base(args[0])
			}

			if err := a.files.Download(cmd.Context(), args[0], dest); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved to %s\n", dest)
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "destination path (defaults to the URL's basename)")
	return cmd
}
