package main

import (
	"bufio"
	"fmt"
	"strings"

	"Girder/internal/auth"

	"github.com/ansel1/merry"
	"github.com/spf13/cobra"
)

var hashPasswordCmd = &cobra.Command{
	Use:   "hash-password LOGIN",
	Short: "Print a DASHBOARD_USERS entry for LOGIN",
	Long: `Reads a password from standard input and prints a login:bcrypt-hash
entry for the DASHBOARD_USERS variable of the dashboard server.

Example:
  echo -n 's3cret' | beamcalc hash-password engineer`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		password := strings.TrimRight(line, "\r\n")
		if password == "" {
			if err != nil {
				return merry.Prepend(err, "read password")
			}
			return merry.New("empty password")
		}
		hash, err := auth.HashPassword(password)
		if err != nil {
			return merry.Prepend(err, "hash password")
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s:%s\n", args[0], hash)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(hashPasswordCmd)
}
