package commands

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nhle/winterbreak/internal/credential"
)

var secretNames = map[string]string{
	"remote-key":    credential.RemoteKey,
	"imap-password": credential.IMAPPassword,
}

func secretName(arg string) (string, error) {
	name, ok := secretNames[arg]
	if !ok {
		return "", fmt.Errorf("unknown secret %q, expected remote-key or imap-password", arg)
	}
	return name, nil
}

func addSecret(topLevel *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "secret",
		Short: "store credentials in the system keyring",
	}

	set := &cobra.Command{
		Use:   "set <remote-key|imap-password>",
		Short: "read a secret from stdin and store it",
		Example: `
echo "$KEY" | winterbreak secret set remote-key
`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, err := secretName(args[0])
			if err != nil {
				return err
			}
			value, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			value = strings.TrimSpace(value)
			if value == "" {
				if err != nil {
					return fmt.Errorf("reading secret: %w", err)
				}
				return errors.New("empty secret")
			}
			if err := credential.Set(name, value); err != nil {
				return err
			}
			printer(cmd).Status("stored "+args[0], nil)
			return nil
		},
	}

	del := &cobra.Command{
		Use:     "delete <remote-key|imap-password>",
		Aliases: []string{"rm"},
		Short:   "remove a stored secret",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, err := secretName(args[0])
			if err != nil {
				return err
			}
			if err := credential.Delete(name); err != nil {
				return err
			}
			printer(cmd).Status("removed "+args[0], nil)
			return nil
		},
	}

	cmd.AddCommand(set, del)
	topLevel.AddCommand(cmd)
}
