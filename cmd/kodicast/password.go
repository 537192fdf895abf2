package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/PizzaHomicide/kodicast/internal/config"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var passwordCmd = &cobra.Command{
	Use:   "password",
	Short: "Store the password of a Kodi host in the system keyring",
	Long: "Reads a password from standard input and stores it in the system keyring for the selected host and\n" +
		"user, so it does not have to live in the config file or on the command line.",
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		host, err := cfg.HostFor(hostOpts.host)
		if err != nil {
			return err
		}
		username := hostOpts.username
		if username == "" {
			username = host.Username
		}
		if username == "" {
			return errors.New("no username configured for this host, pass one with -u")
		}

		password := hostOpts.password
		if password == "" {
			cmd.Printf("Password for %s@%s: ", username, host.Hostname)
			if password, err = readPassword(cmd); err != nil {
				return fmt.Errorf("reading password: %w", err)
			}
		}
		if password == "" {
			return errors.New("empty password")
		}

		if err := config.StorePassword(username, host.Hostname, password); err != nil {
			return fmt.Errorf("storing password: %w", err)
		}
		cmd.Println("Password stored in the keyring")
		return nil
	},
}

// readPassword reads without echo from a terminal, or a single line from piped input
func readPassword(cmd *cobra.Command) (string, error) {
	if f, ok := cmd.InOrStdin().(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		cmd.Println()
		return string(b), err
	}

	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func init() {
	rootCmd.AddCommand(passwordCmd)
}
