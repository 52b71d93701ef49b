package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

type sampleUser struct {
	id       string
	password string
	rating   int
}

var sampleUsers = []sampleUser{
	{id: "Alice", password: "1234", rating: 100},
	{id: "Jonathan", password: "qwerty", rating: 200},
}

// sampleGames returns a drawn game and a black win between the sample users
func sampleGames() []Game {
	alice := Participant{UserID: "Alice", DisplayName: "Alice", Rating: 100}
	jonathan := Participant{UserID: "Jonathan", DisplayName: "Jonathan", Rating: 200}
	black := "black"

	return []Game{
		{
			Black:  alice,
			White:  jonathan,
			Moves:  []Notation{},
			Result: "draw",
		},
		{
			Black: jonathan,
			White: alice,
			Moves: []Notation{
				{IsBlack: true, X: 0, Y: 0},
				{IsBlack: false, X: 0, Y: 1},
				{IsBlack: true, X: 1, Y: 1},
				{IsBlack: false, X: 0, Y: 2},
				{IsBlack: true, X: 2, Y: 2},
				{IsBlack: false, X: 0, Y: 3},
				{IsBlack: true, X: 3, Y: 3},
			},
			Result: "win",
			Winner: &black,
		},
	}
}

func newSampleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sample",
		Short: "Seed the server with sample users and games",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := NewOutput(cfg.Output)

			for _, u := range sampleUsers {
				var created User
				if err := client.Post("/api/v1/users", registerRequest(u.id, u.password, u.rating), &created); err != nil {
					return fmt.Errorf("register %s: %w", u.id, err)
				}
				if cfg.Verbose {
					out.Print(created)
				}
			}

			for _, g := range sampleGames() {
				var created Game
				if err := client.Post("/api/v1/games", g, &created); err != nil {
					return fmt.Errorf("import game: %w", err)
				}
				if cfg.Verbose {
					out.Print(created)
				}
			}

			out.PrintMessage(fmt.Sprintf("Added %d users and %d games", len(sampleUsers), len(sampleGames())))
			return nil
		},
	}
}

func newPrintDBCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "printdb",
		Short: "Print every user and game record",
		RunE: func(cmd *cobra.Command, args []string) error {
			var users []User
			if err := client.Get("/api/v1/users", &users); err != nil {
				return err
			}
			var games []Game
			if err := client.Get("/api/v1/games", &games); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			if cfg.Output == "json" {
				out.Print(map[string]any{"users": users, "games": games})
				return nil
			}
			out.Print(users)
			out.Print(games)
			return nil
		},
	}
}
