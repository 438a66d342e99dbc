package main

import (
	"fmt"

	"github.com/refexsite/internal/db"
	"github.com/spf13/cobra"
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage admin accounts",
}

var userCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create an admin account or reset its password",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		username, _ := cmd.Flags().GetString("username")
		password, _ := cmd.Flags().GetString("password")
		user, err := db.SetUserPassword(gdb, username, password)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "admin %q saved (id %d)\n", user.Username, user.ID)
		return nil
	},
}

func init() {
	userCreateCmd.Flags().String("username", "", "admin username")
	userCreateCmd.Flags().String("password", "", "admin password")
	userCreateCmd.MarkFlagRequired("username")
	userCreateCmd.MarkFlagRequired("password")
	userCmd.AddCommand(userCreateCmd)
}
