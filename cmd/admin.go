package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/Shivanand-hulikatti/videotheek/internal/model"
	"github.com/Shivanand-hulikatti/videotheek/internal/service"
)

var adminUsername string

// createAdminCmd represents the create-admin command
var createAdminCmd = &cobra.Command{
	Use:   "create-admin",
	Short: "Create an administrator account",
	Long: `Create an account with the admin role. The password is read from the
terminal without echo, or from the first line of stdin when it is not a terminal.`,
	Args: cobra.NoArgs,
	RunE: runCreateAdmin,
}

func init() {
	rootCmd.AddCommand(createAdminCmd)

	createAdminCmd.Flags().StringVarP(&adminUsername, "username", "u", "", "username of the new administrator")
	_ = createAdminCmd.MarkFlagRequired("username")
}

func runCreateAdmin(cmd *cobra.Command, args []string) error {
	if cfg.Database.Driver != "postgres" {
		return fmt.Errorf("create-admin requires the postgres driver, got %q", cfg.Database.Driver)
	}

	password, err := readPassword(os.Stdin, cmd.ErrOrStderr(), "Password: ")
	if err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}

	ctx := cmd.Context()
	store, closeStore, err := openStore(ctx, cfg.Database, cfg.Database.AutoMigrate)
	if err != nil {
		return err
	}
	defer closeStore()

	accounts := service.NewAccountService(store, logger)
	account, err := accounts.CreateAdmin(ctx, model.Credentials{Username: adminUsername, Password: password})
	if err != nil {
		return fmt.Errorf("create admin: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "✓ Created administrator %s (id %d)\n", account.Username, account.ID)
	return nil
}

// readPassword reads a password with masking when in is a terminal.
func readPassword(in io.Reader, out io.Writer, prompt string) (string, error) {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(out, prompt)
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(out)
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(b)), nil
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
