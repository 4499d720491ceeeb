package main

import (
	"fmt"
	"strings"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"
)

func newLoginCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the session token",
		RunE: func(cmd *cobra.Command, args []string) error {
			line := liner.NewLiner()
			defer func() { _ = line.Close() }()

			email, err := line.Prompt("Email: ")
			if err != nil {
				return err
			}
			password, err := line.PasswordPrompt("Password: ")
			if err != nil {
				return err
			}

			if strings.TrimSpace(email) == "" || strings.TrimSpace(password) == "" {
				return fmt.Errorf("all fields are required")
			}

			if !a.store.Login(cmd.Context(), strings.TrimSpace(email), password) {
				return fmt.Errorf("%s", a.store.Err())
			}

			user := a.store.CurrentUser()
			cmd.Printf("Logged in as %s\n", displayName(user.Name, user.Email))
			return nil
		},
	}
}

func newRegisterCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "register",
		Short: "Create an account",
		RunE: func(cmd *cobra.Command, args []string) error {
			line := liner.NewLiner()
			defer func() { _ = line.Close() }()

			name, err := line.Prompt("Name: ")
			if err != nil {
				return err
			}
			email, err := line.Prompt("Email: ")
			if err != nil {
				return err
			}
			password, err := line.PasswordPrompt("Password: ")
			if err != nil {
				return err
			}
			confirm, err := line.PasswordPrompt("Confirm password: ")
			if err != nil {
				return err
			}

			// Local validation, before any network call.
			if strings.TrimSpace(name) == "" || strings.TrimSpace(email) == "" || strings.TrimSpace(password) == "" {
				return fmt.Errorf("all fields are required")
			}
			if password != confirm {
				return fmt.Errorf("passwords do not match")
			}
			if len(password) < 8 {
				return fmt.Errorf("password must be at least 8 characters long")
			}

			if !a.store.Register(cmd.Context(), strings.TrimSpace(email), password, strings.TrimSpace(name)) {
				return fmt.Errorf("%s", a.store.Err())
			}

			user := a.store.CurrentUser()
			cmd.Printf("Account created. Logged in as %s\n", displayName(user.Name, user.Email))
			return nil
		},
	}
}

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Clear the stored session",
		Run: func(cmd *cobra.Command, args []string) {
			a.store.Logout()
			cmd.Println("Logged out.")
		},
	}
}

func newWhoamiCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the current session",
		RunE: func(cmd *cobra.Command, args []string) error {
			a.store.Verify(cmd.Context())
			if !a.store.IsAuthenticated() {
				cmd.Println("Not logged in.")
				return nil
			}
			user := a.store.CurrentUser()
			cmd.Printf("%s <%s>\n", displayName(user.Name, user.Email), user.Email)
			return nil
		},
	}
}

func displayName(name, email string) string {
	if name != "" {
		return name
	}
	return email
}
