// Package cli implements the drivemap command.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/Jumpaku/go-drivemap/auth"
	"github.com/Jumpaku/go-drivemap/config"
	"github.com/Jumpaku/go-drivemap/download"
	"github.com/Jumpaku/go-drivemap/internal/logging"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"google.golang.org/api/drive/v3"
)

// version will be set by main
var version = "dev"

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	version = v
}

// App holds the streams and dependencies of one drivemap invocation.
type App struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	// NewService creates the authenticated Drive client. Nil authorizes with the configured credentials.
	NewService func(ctx context.Context) (*drive.Service, error)
	// DownloadOptions are passed to every Downloader the get command creates.
	DownloadOptions []download.Option
	// OpenURL opens the authorization page. Nil launches the default browser.
	OpenURL func(string) error

	configPath        string
	logLevel          string
	credentialsFile   string
	clientSecretsFile string

	cfg    *config.Config
	logger *slog.Logger
}

func NewApp() *App {
	return &App{Stdin: os.Stdin, Stdout: os.Stdout, Stderr: os.Stderr}
}

// Execute is the main entry point for the CLI application
func Execute() {
	if err := NewApp().Command().Execute(); err != nil {
		os.Exit(1)
	}
}

// Command builds the root command with all subcommands registered.
func (a *App) Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "drivemap",
		Short: "Treat a Google Drive folder as a key/value store",
		Long: `drivemap reads and writes the files of a Google Drive folder by their paths
relative to the folder, and downloads publicly shared files without signing in.

The get, logout and version commands work without signing in. The other commands
sign in with OAuth on first use and reuse the saved token afterwards.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.loadConfig()
		},
	}
	cmd.SetIn(a.Stdin)
	cmd.SetOut(a.Stdout)
	cmd.SetErr(a.Stderr)

	cmd.PersistentFlags().StringVar(&a.configPath, "config", "", "settings file (default $"+config.EnvConfig+" or "+config.DefaultPath()+")")
	cmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn or error")
	cmd.PersistentFlags().StringVar(&a.credentialsFile, "credentials-file", "", "file the OAuth token is saved to")
	cmd.PersistentFlags().StringVar(&a.clientSecretsFile, "client-secrets-file", "", "OAuth client secrets JSON")

	cmd.AddCommand(a.newGetCmd())
	cmd.AddCommand(a.newLoginCmd())
	cmd.AddCommand(a.newLogoutCmd())
	cmd.AddCommand(a.newLsCmd())
	cmd.AddCommand(a.newCatCmd())
	cmd.AddCommand(a.newPutCmd())
	cmd.AddCommand(a.newRmCmd())
	cmd.AddCommand(a.newURLCmd())
	cmd.AddCommand(a.newVersionCmd())
	return cmd
}

// loadConfig reads the settings file and applies the global flags over it.
func (a *App) loadConfig() error {
	cfg, err := config.LoadOrDefault(config.ResolvePath(a.configPath))
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if a.logLevel != "" {
		cfg.LogLevel = a.logLevel
	}
	if a.credentialsFile != "" {
		cfg.CredentialsFile = a.credentialsFile
	}
	if a.clientSecretsFile != "" {
		cfg.ClientSecretsFile = a.clientSecretsFile
	}
	logger, err := logging.New(cfg.LogLevel, a.Stderr)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	a.cfg = cfg
	a.logger = logger
	return nil
}

func (a *App) credentialStore() auth.CredentialStore {
	return auth.NewFileStore(a.cfg.CredentialsFile)
}

func (a *App) openURL() func(string) error {
	if a.OpenURL != nil {
		return a.OpenURL
	}
	return openBrowser
}

// service returns the Drive client, signing in when no token is saved.
func (a *App) service(ctx context.Context) (*drive.Service, error) {
	if a.NewService != nil {
		return a.NewService(ctx)
	}
	oauthConfig, err := auth.LoadClientSecrets(a.cfg.ClientSecretsFile)
	if err != nil {
		return nil, err
	}
	ts, err := auth.Authorize(ctx, oauthConfig, a.credentialStore(), a.openURL(), a.logger)
	if err != nil {
		return nil, err
	}
	return auth.NewService(ctx, ts)
}

func isTerminal(v any) bool {
	f, ok := v.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
