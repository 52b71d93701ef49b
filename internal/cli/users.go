package cli

import (
	"fmt"
	"net/url"

	"github.com/spf13/cobra"
)

func newUsersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "User management commands",
	}

	cmd.AddCommand(newUsersListCmd())
	cmd.AddCommand(newUsersGetCmd())
	cmd.AddCommand(newUsersRegisterCmd())

	return cmd
}

func newUsersListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every user record",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result []User
			if err := client.Get("/api/v1/users", &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newUsersGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result User
			if err := client.Get("/api/v1/users/"+url.PathEscape(args[0]), &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newUsersRegisterCmd() *cobra.Command {
	var id, password string
	var rating int

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Register a new user",
		RunE: func(cmd *cobra.Command, args []string) error {
			if id == "" || password == "" {
				return fmt.Errorf("--id and --password are required")
			}

			var result User
			if err := client.Post("/api/v1/users", registerRequest(id, password, rating), &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "User id (required)")
	cmd.Flags().StringVar(&password, "password", "", "Password (required)")
	cmd.Flags().IntVar(&rating, "rating", 0, "Starting rating (defaults on the server)")
	_ = cmd.MarkFlagRequired("id")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}

func registerRequest(id, password string, rating int) map[string]any {
	req := map[string]any{"id": id, "password": password}
	if rating > 0 {
		req["rating"] = rating
	}
	return req
}
