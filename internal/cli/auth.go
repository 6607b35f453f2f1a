package cli

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage authentication",
}

var authLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Authenticate with Microsoft 365",
	Long: `Authenticate with Microsoft 365.

On first run this prompts for the Azure application registration details
and writes them to the config file. The client secret is read without
echoing. Leave the secret empty to use the public client flow.`,
	RunE: runAuthLogin,
}

var authStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the current authentication state",
	RunE:  runAuthStatus,
}

var authLogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove the stored token",
	RunE:  runAuthLogout,
}

func runAuthLogin(cmd *cobra.Command, _ []string) error {
	path, err := DefaultConfigPath()
	if err != nil {
		return err
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return err
		}
		cfg = &Config{}
	}

	if cfg.ClientID == "" {
		if err := promptForCredentials(cmd, cfg); err != nil {
			return err
		}
		if err := SaveConfig(path, cfg); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Configuration saved to %s\n", path)
	}

	account, err := cfg.Account()
	if err != nil {
		return err
	}
	return account.Authenticate(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout())
}

func promptForCredentials(cmd *cobra.Command, cfg *Config) error {
	reader := bufio.NewReader(cmd.InOrStdin())

	fmt.Fprint(cmd.OutOrStdout(), "Application (client) ID: ")
	clientID, err := reader.ReadString('\n')
	if err != nil {
		return fmt.Errorf("read client ID: %w", err)
	}
	cfg.ClientID = strings.TrimSpace(clientID)

	fmt.Fprint(cmd.OutOrStdout(), "Directory (tenant) ID [common]: ")
	tenantID, err := reader.ReadString('\n')
	if err != nil {
		return fmt.Errorf("read tenant ID: %w", err)
	}
	cfg.TenantID = strings.TrimSpace(tenantID)

	fmt.Fprint(cmd.OutOrStdout(), "Client secret (empty for public client): ")
	secret, err := readSecret(reader)
	if err != nil {
		return fmt.Errorf("read client secret: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout())
	cfg.ClientSecret = secret

	return nil
}

// readSecret reads without echo when stdin is a terminal, falling back to a
// plain line read when it is not (tests, pipes).
func readSecret(reader *bufio.Reader) (string, error) {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		secret, err := term.ReadPassword(fd)
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(secret)), nil
	}

	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func runAuthStatus(cmd *cobra.Command, _ []string) error {
	account, err := loadAccount()
	if err != nil {
		return err
	}

	if !account.IsAuthenticated(cmd.Context()) {
		fmt.Fprintln(cmd.OutOrStdout(), "Not authenticated. Run 'm365 auth login'.")
		return nil
	}

	token, err := account.Connection.Token(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Authenticated. Token expires %s.\n", token.ExpiresAt.Local().Format("2006-01-02 15:04"))
	if len(token.Scopes) > 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "Scopes: %s\n", strings.Join(token.Scopes, " "))
	}
	return nil
}

func runAuthLogout(cmd *cobra.Command, _ []string) error {
	account, err := loadAccount()
	if err != nil {
		return err
	}
	if err := account.SignOut(cmd.Context()); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Token removed.")
	return nil
}

var meCmd = &cobra.Command{
	Use:   "me",
	Short: "Show the signed-in user",
	RunE:  runMe,
}

func runMe(cmd *cobra.Command, _ []string) error {
	account, err := loadAccount()
	if err != nil {
		return err
	}

	user, err := account.Directory().Me(cmd.Context())
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s\n", user.DisplayName)
	if user.Mail != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "  mail: %s\n", user.Mail)
	}
	if user.UserPrincipalName != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "  upn:  %s\n", user.UserPrincipalName)
	}
	if user.JobTitle != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "  role: %s\n", user.JobTitle)
	}
	return nil
}

func init() {
	authCmd.AddCommand(authLoginCmd, authStatusCmd, authLogoutCmd)
	rootCmd.AddCommand(authCmd, meCmd)
}
