package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newWorkspacesCmd(newApp appFactory) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "workspaces",
		Short: "Manage workspaces",
	}

	cmd.AddCommand(
		newWorkspacesListCmd(newApp),
		newWorkspacesCreateCmd(newApp),
		newWorkspacesDeleteCmd(newApp),
	)
	return cmd
}

func newWorkspacesListCmd(newApp appFactory) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List workspaces",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			workspaces, err := a.workspaces.List(cmd.Context())
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tCHATS\tSHARED")
			for _, ws := range workspaces {
				fmt.Fprintf(w, "%s\t%s\t%d\t%v\n", ws.ID, ws.Name, ws.ChatCount, ws.IsShared)
			}
			return w.Flush()
		},
	}
}

func newWorkspacesCreateCmd(newApp appFactory) *cobra.Command {
	var description, color string

	cmd := &cobra.Command{
		Use:   "create NAME",
		Short: "Create a workspace",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			ws, err := a.workspaces.Create(cmd.Context(), args[0], description, color)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created workspace %s\n", ws.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&description, "description", "", "workspace description")
	cmd.Flags().StringVar(&color, "color", "", "display color, e.g. #0055ff")
	return cmd
}

func newWorkspacesDeleteCmd(newApp appFactory) *cobra.Command {
	return &cobra.Command{
		Use:   "delete WORKSPACE_ID",
		Short: "Delete a workspace",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.workspaces.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Deleted.")
			return nil
		},
	}
}
