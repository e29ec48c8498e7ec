package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"

	"github.com/askvara/vara-go/internal/api"
	"github.com/askvara/vara-go/internal/chat"
	"github.com/askvara/vara-go/internal/config"
	"github.com/askvara/vara-go/internal/connectivity"
	"github.com/askvara/vara-go/internal/crypto"
	"github.com/askvara/vara-go/internal/data"
	"github.com/askvara/vara-go/internal/files"
	"github.com/askvara/vara-go/internal/logging"
	"github.com/askvara/vara-go/internal/session"
	"github.com/askvara/vara-go/internal/store"
	"github.com/askvara/vara-go/internal/workspace"
)

// app bundles the wired-up SDK for command handlers. It is built lazily so
// commands like version never touch config or the session database.
type app struct {
	cfg     *config.Config
	client  *api.Client
	session *session.Manager
	store   *store.SessionStore

	chats      *chat.Service
	data       *data.Service
	files      *files.Service
	workspaces *workspace.Service

	stopMonitor context.CancelFunc
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "vara",
		Short:         "Talk to your data from the terminal",
		Long:          "vara is a command-line client for the Vara data assistant: chat with the AI analyst, run queries against your datasets, and manage files and workspaces.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&configPath, "config", defaultConfigPath(), "path to the config file")

	newApp := func(cmd *cobra.Command) (*app, error) {
		return buildApp(cmd.Context(), configPath)
	}

	root.AddCommand(
		newLoginCmd(newApp),
		newRegisterCmd(newApp),
		newLogoutCmd(newApp),
		newWhoamiCmd(newApp),
		newChatCmd(newApp),
		newAskCmd(newApp),
		newQueryCmd(newApp),
		newDatasetsCmd(newApp),
		newFilesCmd(newApp),
		newWorkspacesCmd(newApp),
		newVersionCmd(),
	)

	return root
}

type appFactory func(cmd *cobra.Command) (*app, error)

func buildApp(ctx context.Context, configPath string) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	logging.InitLogger(cfg.LogLevel, cfg.LogFormat)

	var cipher crypto.Cipher = crypto.Noop{}
	if cfg.TokenEncryptionKey != "" {
		cipher, err = crypto.NewAesGcm(cfg.TokenEncryptionKey)
		if err != nil {
			return nil, err
		}
	}

	sessions, err := store.Open(cfg.SessionDBPath, cipher)
	if err != nil {
		return nil, err
	}

	monitor := connectivity.NewMonitor(cfg.APIBaseURL+"/health", clockwork.NewRealClock())
	monitorCtx, stopMonitor := context.WithCancel(ctx)
	go monitor.Run(monitorCtx)

	client := api.New(cfg.APIBaseURL, monitor,
		api.WithTimeout(cfg.RequestTimeout),
		api.WithRateLimit(cfg.RequestsPerSecond),
	)

	manager := session.NewManager(client, sessions, session.OAuthSettings{
		GoogleClientID:    cfg.GoogleClientID,
		MicrosoftClientID: cfg.MicrosoftClientID,
		RedirectURI:       cfg.OAuthRedirectURI,
	})
	client.SetCredentials(manager)

	return &app{
		cfg:         cfg,
		client:      client,
		session:     manager,
		store:       sessions,
		chats:       chat.NewService(client),
		data:        data.NewService(client),
		files:       files.NewService(client),
		workspaces:  workspace.NewService(client),
		stopMonitor: stopMonitor,
	}, nil
}

func (a *app) Close() {
	a.stopMonitor()
	if err := a.store.Close(); err != nil {
		fmt.Fprintln(os.Stderr, "warning: failed to close session store:", err)
	}
}

func defaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "vara.yaml"
	}
	return filepath.Join(home, ".vara", "config.yaml")
}
