package cli

import (
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/smartbookmarks/smartbookmarks/internal/auth"
)

// TokenOptions holds flags for the token command.
type TokenOptions struct {
	*RootOptions
	DataPath string
	KeyHex   string
	Duration time.Duration
}

// NewTokenCommand creates the token command.
func NewTokenCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TokenOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "token <user-id>",
		Short: "Issue an access token",
		Long: `Issue an access token for a user of a self-hosted server.

The token is signed with the server's key, read from auth.key in the data
directory (created on first use) or given with --key.

Example:
  bookmarks token alice
  export BOOKMARKS_TOKEN=$(bookmarks token alice --data-path /srv/bookmarks)`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := auth.LoadOrGenerateKey(opts.DataPath, opts.KeyHex)
			if err != nil {
				return &ExitError{Code: ExitFailure, Message: "load signing key", Err: err}
			}
			tokens, err := auth.NewTokenService(key, opts.Duration)
			if err != nil {
				return &ExitError{Code: ExitFailure, Message: "create token service", Err: err}
			}
			token, err := tokens.GenerateAccessToken(args[0])
			if err != nil {
				return &ExitError{Code: ExitFailure, Message: "issue token", Err: err}
			}
			return opts.printer(cmd.OutOrStdout()).line(map[string]string{"token": token, "user_id": args[0]}, "%s", token)
		},
	}

	cmd.Flags().StringVar(&opts.DataPath, "data-path", defaultDataPath(), "server data directory")
	cmd.Flags().StringVar(&opts.KeyHex, "key", os.Getenv("ACCESS_TOKEN_KEY"), "hex-encoded signing key")
	cmd.Flags().DurationVar(&opts.Duration, "duration", 24*time.Hour, "token lifetime")

	return cmd
}

func defaultDataPath() string {
	if v := os.Getenv("DATA_PATH"); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".smartbookmarks"
	}
	return filepath.Join(home, ".smartbookmarks")
}
