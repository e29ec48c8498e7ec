package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/spf13/cobra"

	"github.com/askvara/vara-go/internal/session"
)

func newLoginCmd(newApp appFactory) *cobra.Command {
	var email, password, provider string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in with email/password or an OAuth provider",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if provider != "" {
				return providerLogin(cmd, a, provider)
			}

			if email == "" || password == "" {
				return errors.New("either --provider or both --email and --password are required")
			}

			user, err := a.session.Login(cmd.Context(), email, password)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s <%s>\n", user.FullName(), user.Email)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	cmd.Flags().StringVar(&provider, "provider", "", "OAuth provider (google or microsoft)")
	return cmd
}

func providerLogin(cmd *cobra.Command, a *app, providerName string) error {
	provider, err := session.ParseProvider(providerName)
	if err != nil {
		return err
	}

	state, err := randomState()
	if err != nil {
		return err
	}

	code, err := authorizeInBrowser(cmd, a, provider, state)
	if err != nil {
		return err
	}

	user, err := a.session.CompleteProviderLogin(cmd.Context(), provider, code)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s <%s>\n", user.FullName(), user.Email)
	return nil
}

// authorizeInBrowser prints the provider's consent URL and runs a loopback
// listener on the configured redirect URI until the provider calls back with
// an authorization code.
func authorizeInBrowser(cmd *cobra.Command, a *app, provider session.Provider, state string) (string, error) {
	redirect, err := url.Parse(a.cfg.OAuthRedirectURI)
	if err != nil {
		return "", fmt.Errorf("invalid oauth_redirect_uri: %w", err)
	}

	listener, err := net.Listen("tcp", redirect.Host)
	if err != nil {
		return "", fmt.Errorf("failed to listen on %s: %w", redirect.Host, err)
	}
	defer listener.Close()

	type callback struct {
		code string
		err  error
	}
	results := make(chan callback, 1)

	server := &http.Server{Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != redirect.Path {
			http.NotFound(w, r)
			return
		}

		query := r.URL.Query()
		switch {
		case query.Get("state") != state:
			results <- callback{err: errors.New("oauth state mismatch")}
			http.Error(w, "state mismatch", http.StatusBadRequest)
		case query.Get("error") != "":
			results <- callback{err: fmt.Errorf("provider returned %q", query.Get("error"))}
			http.Error(w, "authorization failed", http.StatusBadRequest)
		case query.Get("code") == "":
			results <- callback{err: errors.New("callback carried no code")}
			http.Error(w, "missing code", http.StatusBadRequest)
		default:
			results <- callback{code: query.Get("code")}
			fmt.Fprintln(w, "Login complete. You can close this tab.")
		}
	})}
	go server.Serve(listener)
	defer server.Shutdown(context.Background())

	fmt.Fprintln(cmd.OutOrStdout(), "Open this URL in your browser to continue:")
	fmt.Fprintln(cmd.OutOrStdout())
	fmt.Fprintln(cmd.OutOrStdout(), "  "+a.session.AuthCodeURL(provider, state))
	fmt.Fprintln(cmd.OutOrStdout())

	select {
	case result := <-results:
		return result.code, result.err
	case <-cmd.Context().Done():
		return "", cmd.Context().Err()
	case <-time.After(5 * time.Minute):
		return "", errors.New("timed out waiting for the provider callback")
	}
}

func randomState() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate state: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

func newRegisterCmd(newApp appFactory) *cobra.Command {
	var params session.RegisterParams

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and log in",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			user, err := a.session.Register(cmd.Context(), params)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Welcome, %s. You are logged in.\n", user.FullName())
			return nil
		},
	}

	cmd.Flags().StringVar(&params.FirstName, "first-name", "", "first name")
	cmd.Flags().StringVar(&params.LastName, "last-name", "", "last name")
	cmd.Flags().StringVar(&params.Email, "email", "", "account email")
	cmd.Flags().StringVar(&params.Password, "password", "", "account password")
	cmd.MarkFlagRequired("email")
	cmd.MarkFlagRequired("password")
	return cmd
}

func newLogoutCmd(newApp appFactory) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Log out and clear the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.session.Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out.")
			return nil
		},
	}
}

func newWhoamiCmd(newApp appFactory) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged-in user",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			user := a.session.CurrentUser(cmd.Context())
			if user == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "Not logged in.")
				return nil
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s <%s>\n", user.FullName(), user.Email)
			if token := a.session.Token(cmd.Context()); token != "" {
				if expiry, err := session.TokenExpiry(token); err == nil {
					fmt.Fprintf(cmd.OutOrStdout(), "Access token expires %s\n", expiry.Local().Format(time.RFC1123))
				}
			}
			return nil
		},
	}
}
