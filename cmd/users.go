package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/amirhossein5/faceauth/internal/models"
)

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Manage the users that can enroll and log in",
}

var usersAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Add an active user",
	Args:  cobra.ExactArgs(1),
	RunE:  runUsersAdd,
}

var usersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List users and their enrollment",
	Args:  cobra.NoArgs,
	RunE:  runUsersList,
}

var usersBlockCmd = &cobra.Command{
	Use:   "block <user-id>",
	Short: "Block a user from logging in",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setUserStatus(cmd, args[0], models.USER_STATUS_BLOCKED)
	},
}

var usersUnblockCmd = &cobra.Command{
	Use:   "unblock <user-id>",
	Short: "Allow a blocked user to log in again",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setUserStatus(cmd, args[0], models.USER_STATUS_ACTIVE)
	},
}

func init() {
	rootCmd.AddCommand(usersCmd)
	usersCmd.AddCommand(usersAddCmd, usersListCmd, usersBlockCmd, usersUnblockCmd)

	usersAddCmd.Flags().String("email", "", "Email address of the user")
}

func runUsersAdd(cmd *cobra.Command, args []string) error {
	a, err := newApp(false)
	if err != nil {
		return err
	}
	defer a.Close()

	email, _ := cmd.Flags().GetString("email")
	user, err := a.store.CreateUser(cmd.Context(), args[0], email)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Created user %d (%s)\n", user.ID, user.Name)
	return nil
}

func runUsersList(cmd *cobra.Command, args []string) error {
	a, err := newApp(false)
	if err != nil {
		return err
	}
	defer a.Close()

	users, err := a.store.Users(cmd.Context())
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tEMAIL\tSTATUS\tENROLLED")
	for _, u := range users {
		enrolled := "no"
		if u.EnrolledFace != nil {
			enrolled = u.EnrolledFace.EnrolledAt.Format("2006-01-02 15:04")
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", u.ID, u.Name, u.Email, u.Status, enrolled)
	}
	return w.Flush()
}

func setUserStatus(cmd *cobra.Command, rawID, status string) error {
	id, err := parseUserID(rawID)
	if err != nil {
		return err
	}

	a, err := newApp(false)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.store.SetStatus(cmd.Context(), id, status); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "User %d is now %s\n", id, status)
	return nil
}
