package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/askvara/vara-go/internal/data"
	"github.com/askvara/vara-go/internal/domain"
)

func newAskCmd(newApp appFactory) *cobra.Command {
	var datasetID, workspaceID, queryType string

	cmd := &cobra.Command{
		Use:   "ask QUESTION",
		Short: "Ask a natural-language question about your data",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			qt, err := parseQueryType(queryType)
			if err != nil {
				return err
			}

			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			answer, err := a.data.AskQuestion(cmd.Context(), data.Question{
				Question:    strings.Join(args, " "),
				DatasetID:   datasetID,
				WorkspaceID: workspaceID,
				QueryType:   qt,
			})
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), answer.Answer)
			if answer.QueryInfo != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "\n[%s] %s\n", answer.QueryInfo.QueryType, answer.QueryInfo.Query)
			}
			if answer.DataResult != nil {
				printPreview(cmd, answer.DataResult)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&datasetID, "dataset", "", "dataset to query")
	cmd.Flags().StringVar(&workspaceID, "workspace", "", "workspace holding the dataset")
	cmd.Flags().StringVar(&queryType, "query-type", "", "force a query language (sql or dax)")
	return cmd
}

func newQueryCmd(newApp appFactory) *cobra.Command {
	var datasetID, workspaceID, queryType string

	cmd := &cobra.Command{
		Use:   "query STATEMENT",
		Short: "Run a SQL or DAX query directly",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			qt, err := parseQueryType(queryType)
			if err != nil {
				return err
			}
			if qt == "" {
				qt = domain.QuerySQL
			}

			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			result, err := a.data.RunQuery(cmd.Context(), data.DirectQuery{
				Query:       strings.Join(args, " "),
				QueryType:   qt,
				DatasetID:   datasetID,
				WorkspaceID: workspaceID,
			})
			if err != nil {
				return err
			}

			printPreview(cmd, result)
			return nil
		},
	}

	cmd.Flags().StringVar(&datasetID, "dataset", "", "dataset to query")
	cmd.Flags().StringVar(&workspaceID, "workspace", "", "workspace holding the dataset")
	cmd.Flags().StringVar(&queryType, "query-type", "sql", "query language (sql or dax)")
	return cmd
}

func newDatasetsCmd(newApp appFactory) *cobra.Command {
	var workspaceID string

	cmd := &cobra.Command{
		Use:   "datasets",
		Short: "List datasets and inspect their schemas",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			datasets, err := a.data.Datasets(cmd.Context(), workspaceID)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tWORKSPACE\tTABLES")
			for _, ds := range datasets {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", ds.ID, ds.Name, ds.Workspace, strings.Join(ds.Tables, ","))
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&workspaceID, "workspace", "", "only datasets in this workspace")

	cmd.AddCommand(newSchemaCmd(newApp), newSuggestionsCmd(newApp))
	return cmd
}

func newSchemaCmd(newApp appFactory) *cobra.Command {
	var workspaceID string

	cmd := &cobra.Command{
		Use:   "schema DATASET_ID",
		Short: "Show a dataset's tables and columns",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			tables, err := a.data.Schema(cmd.Context(), args[0], workspaceID)
			if err != nil {
				return err
			}

			for _, table := range tables {
				fmt.Fprintln(cmd.OutOrStdout(), table.Name)
				for _, column := range table.Columns {
					fmt.Fprintf(cmd.OutOrStdout(), "  %-30s %s\n", column.Name, column.DataType)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&workspaceID, "workspace", "", "workspace holding the dataset")
	return cmd
}

func newSuggestionsCmd(newApp appFactory) *cobra.Command {
	var workspaceID string

	cmd := &cobra.Command{
		Use:   "suggestions [DATASET_ID]",
		Short: "Show example questions for a dataset",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			datasetID := ""
			if len(args) == 1 {
				datasetID = args[0]
			}

			suggestions, err := a.data.Suggestions(cmd.Context(), datasetID, workspaceID)
			if err != nil {
				return err
			}
			for _, s := range suggestions {
				fmt.Fprintln(cmd.OutOrStdout(), "- "+s)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&workspaceID, "workspace", "", "workspace holding the dataset")
	return cmd
}

func parseQueryType(s string) (domain.QueryType, error) {
	switch s {
	case "":
		return "", nil
	case "sql":
		return domain.QuerySQL, nil
	case "dax":
		return domain.QueryDAX, nil
	}
	return "", fmt.Errorf("unsupported query type %q (expected sql or dax)", s)
}

func printPreview(cmd *cobra.Command, result *domain.DataResult) {
	fmt.Fprintf(cmd.OutOrStdout(), "\n%d rows in %.0f ms", result.RowCount, result.ExecutionTime)
	if result.Cached {
		fmt.Fprint(cmd.OutOrStdout(), " (cached)")
	}
	fmt.Fprintln(cmd.OutOrStdout())

	if len(result.Preview) == 0 {
		return
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, strings.Join(result.Columns, "\t"))
	for _, row := range result.Preview {
		cells := make([]string, len(result.Columns))
		for i, column := range result.Columns {
			cells[i] = fmt.Sprint(row[column])
		}
		fmt.Fprintln(w, strings.Join(cells, "\t"))
	}
	w.Flush()
}
