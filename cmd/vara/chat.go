package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/askvara/vara-go/internal/chat"
	"github.com/askvara/vara-go/internal/domain"
)

func newChatCmd(newApp appFactory) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Manage chats and send messages",
	}

	cmd.AddCommand(
		newChatListCmd(newApp),
		newChatNewCmd(newApp),
		newChatSendCmd(newApp),
		newChatHistoryCmd(newApp),
		newChatDeleteCmd(newApp),
		newChatReactCmd(newApp),
		newChatSearchCmd(newApp),
	)
	return cmd
}

func newChatListCmd(newApp appFactory) *cobra.Command {
	var page, limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List your chats",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			result, err := a.chats.Chats(cmd.Context(), page, limit)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tTITLE\tMESSAGES\tUPDATED")
			for _, c := range result.Items {
				fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", c.ID, c.Title, c.MessageCount, c.UpdatedAt.Format("2006-01-02 15:04"))
			}
			w.Flush()

			if result.Pagination.Pages > 1 {
				fmt.Fprintf(cmd.OutOrStdout(), "\npage %d of %d (%d chats)\n",
					result.Pagination.Page, result.Pagination.Pages, result.Pagination.Total)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&page, "page", 1, "page number")
	cmd.Flags().IntVar(&limit, "limit", 20, "chats per page")
	return cmd
}

func newChatNewCmd(newApp appFactory) *cobra.Command {
	var description, workspaceID string

	cmd := &cobra.Command{
		Use:   "new TITLE",
		Short: "Start a new chat",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			created, err := a.chats.Create(cmd.Context(), args[0], description, workspaceID)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created chat %s\n", created.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&description, "description", "", "chat description")
	cmd.Flags().StringVar(&workspaceID, "workspace", "", "workspace to file the chat under")
	return cmd
}

func newChatSendCmd(newApp appFactory) *cobra.Command {
	var chatID, datasetID, workspaceID string
	var useDataAgent bool

	cmd := &cobra.Command{
		Use:   "send MESSAGE",
		Short: "Send a message and print the assistant's reply",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			result, err := a.chats.SendMessage(cmd.Context(), strings.Join(args, " "), chatID, chat.SendOptions{
				DatasetID:    datasetID,
				WorkspaceID:  workspaceID,
				UseDataAgent: useDataAgent,
			})
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), result.AIResponse.Content)
			if result.QueryInfo != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "\n[%s] %s\n", result.QueryInfo.QueryType, result.QueryInfo.Query)
			}
			if chatID == "" {
				fmt.Fprintf(cmd.OutOrStdout(), "\n(chat %s)\n", result.ChatID)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&chatID, "chat", "", "existing chat to continue (omit to start a new one)")
	cmd.Flags().StringVar(&datasetID, "dataset", "", "dataset hint for the assistant")
	cmd.Flags().StringVar(&workspaceID, "workspace", "", "workspace hint for the assistant")
	cmd.Flags().BoolVar(&useDataAgent, "data-agent", false, "route through the data agent")
	return cmd
}

func newChatHistoryCmd(newApp appFactory) *cobra.Command {
	var page, limit int

	cmd := &cobra.Command{
		Use:   "history CHAT_ID",
		Short: "Show a chat's messages",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			result, err := a.chats.Messages(cmd.Context(), args[0], page, limit)
			if err != nil {
				return err
			}

			for _, m := range result.Items {
				fmt.Fprintf(cmd.OutOrStdout(), "[%s] %s: %s\n", m.CreatedAt.Format("15:04"), m.Role, m.Content)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&page, "page", 1, "page number")
	cmd.Flags().IntVar(&limit, "limit", 50, "messages per page")
	return cmd
}

func newChatDeleteCmd(newApp appFactory) *cobra.Command {
	return &cobra.Command{
		Use:   "delete CHAT_ID",
		Short: "Delete a chat and its messages",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.chats.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Deleted.")
			return nil
		},
	}
}

func newChatReactCmd(newApp appFactory) *cobra.Command {
	cmd := &cobra.Command{
		Use:       "react CHAT_ID MESSAGE_ID REACTION",
		Short:     "React to a message (like, dislike, bookmark, star)",
		Args:      cobra.ExactArgs(3),
		ValidArgs: []string{"like", "dislike", "bookmark", "star"},
		RunE: func(cmd *cobra.Command, args []string) error {
			reaction := domain.ReactionType(args[2])
			switch reaction {
			case domain.ReactionLike, domain.ReactionDislike, domain.ReactionBookmark, domain.ReactionStar:
			default:
				return fmt.Errorf("unsupported reaction %q", args[2])
			}

			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			return a.chats.React(cmd.Context(), args[0], args[1], reaction)
		},
	}
	return cmd
}

func newChatSearchCmd(newApp appFactory) *cobra.Command {
	var chatID string
	var page, limit int

	cmd := &cobra.Command{
		Use:   "search QUERY",
		Short: "Search chats, or messages within one chat",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			query := strings.Join(args, " ")

			if chatID != "" {
				result, err := a.chats.SearchInChat(cmd.Context(), chatID, query, page, limit)
				if err != nil {
					return err
				}
				for _, m := range result.Items {
					fmt.Fprintf(cmd.OutOrStdout(), "%s [%s] %s\n", m.ID, m.Role, m.Content)
				}
				return nil
			}

			result, err := a.chats.Search(cmd.Context(), query, page, limit)
			if err != nil {
				return err
			}
			for _, c := range result.Items {
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %s\n", c.ID, c.Title)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&chatID, "chat", "", "search inside this chat instead of across chats")
	cmd.Flags().IntVar(&page, "page", 1, "page number")
	cmd.Flags().IntVar(&limit, "limit", 20, "results per page")
	return cmd
}
