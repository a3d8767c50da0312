package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/xela07ax/webapi-auth-demo/internal/client"
	"github.com/xela07ax/webapi-auth-demo/internal/domain"
	"github.com/xela07ax/webapi-auth-demo/internal/infra"
)

const defaultAPI = "http://localhost:8080"

// cli держит общее состояние команд. Флаги и ENV (AUTHCTL_*) сводятся через viper.
type cli struct {
	v       *viper.Viper
	logger  *zap.Logger
	manager *client.SessionManager
}

func newRootCmd() *cobra.Command {
	c := &cli{v: viper.New()}

	root := &cobra.Command{
		Use:   "authctl",
		Short: "Session client for the verification API",
		Long: `authctl logs in against the verification API and keeps the session locally.

Example usage:
  authctl login -u admin               # obtain and store a session token (password is prompted)
  authctl whoami                       # re-validate the stored session on the server
  authctl whoami --offline             # show the stored session without contacting the server
  authctl logout                       # discard the stored session`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.init()
		},
	}

	flags := root.PersistentFlags()
	flags.String("api", defaultAPI, "verification API base URL")
	flags.String("session-dir", "", "session directory (default is $HOME/.authdemo)")
	flags.BoolP("verbose", "v", false, "verbose output")

	_ = c.v.BindPFlag("api", flags.Lookup("api"))
	_ = c.v.BindPFlag("session_dir", flags.Lookup("session-dir"))
	_ = c.v.BindPFlag("verbose", flags.Lookup("verbose"))
	c.v.SetEnvPrefix("AUTHCTL")
	c.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	c.v.AutomaticEnv()

	root.AddCommand(c.loginCmd(), c.whoamiCmd(), c.logoutCmd())
	return root
}

func (c *cli) init() error {
	level := "warn"
	if c.v.GetBool("verbose") {
		level = "debug"
	}
	logger, err := infra.NewLogger(infra.LoggerConfig{Level: level, Format: "console"})
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	c.logger = logger

	dir := c.v.GetString("session_dir")
	if dir == "" {
		if dir, err = client.DefaultSessionDir(); err != nil {
			return err
		}
	}

	api := client.NewAPI(c.v.GetString("api"))
	c.manager = client.NewSessionManager(api, client.NewFileStore(dir), logger)
	logger.Debug("authctl configured", zap.String("api", c.v.GetString("api")), zap.String("session_dir", dir))
	return nil
}

func (c *cli) loginCmd() *cobra.Command {
	var username, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the session token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !cmd.Flags().Changed("password") {
				var err error
				if password, err = readPassword(cmd); err != nil {
					return fmt.Errorf("read password: %w", err)
				}
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			s, err := c.manager.Login(ctx, username, password)
			var rejected *client.RejectedError
			if errors.As(err, &rejected) {
				return errors.New(rejected.Message)
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Logged in as %s\n", s.User.Username)
			printUser(cmd, s.User)
			if exp, err := s.ExpiresAt(); err == nil {
				fmt.Fprintf(out, "Expires:  %s\n", exp.Local().Format(time.RFC1123))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&username, "username", "u", "", "username")
	cmd.Flags().StringVarP(&password, "password", "p", "", "password (read from the terminal or stdin when omitted)")
	return cmd
}

// readPassword спрашивает пароль без эха в терминале, иначе читает первую строку stdin.
func readPassword(cmd *cobra.Command) (string, error) {
	in := cmd.InOrStdin()
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(cmd.ErrOrStderr())
		return string(b), err
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func (c *cli) whoamiCmd() *cobra.Command {
	var offline bool

	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the current session",
		Long: `Show the current session. By default the stored token is re-validated by the
server; a token the server rejects is discarded locally.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if offline {
				s, err := c.manager.Current()
				if err != nil {
					return sessionError(err)
				}
				printUser(cmd, s.User)
				return nil
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			claims, err := c.manager.Verify(ctx)
			if err != nil {
				return sessionError(err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "User:     %s (id %d)\n", claims.Username, claims.UserID)
			fmt.Fprintf(out, "Roles:    %s\n", strings.Join(claims.Roles, ", "))
			fmt.Fprintf(out, "Issuer:   %s\n", claims.Issuer)
			fmt.Fprintf(out, "Expires:  %s\n", claims.ExpiresAt.Local().Format(time.RFC1123))
			return nil
		},
	}

	cmd.Flags().BoolVar(&offline, "offline", false, "use the stored session without contacting the server")
	return cmd
}

func (c *cli) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Discard the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.manager.Logout(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		},
	}
}

func printUser(cmd *cobra.Command, u domain.UserIdentity) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "User:     %s (id %d)\n", u.Username, u.ID)
	if u.FullName != "" {
		fmt.Fprintf(out, "Name:     %s\n", u.FullName)
	}
	if u.Email != "" {
		fmt.Fprintf(out, "Email:    %s\n", u.Email)
	}
	fmt.Fprintf(out, "Roles:    %s\n", strings.Join(u.Roles, ", "))
}

func sessionError(err error) error {
	switch {
	case errors.Is(err, client.ErrNoSession):
		return errors.New("not logged in")
	case errors.Is(err, client.ErrSessionExpired):
		return errors.New("session expired, log in again")
	case errors.Is(err, client.ErrSessionRejected):
		return errors.New("session is no longer valid, log in again")
	}
	return err
}
