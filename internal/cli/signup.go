package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/parleychat/parley/internal/api"
)

func newSignupCmd(flags *rootFlags) *cobra.Command {
	var age int
	var gender string

	cmd := &cobra.Command{
		Use:   "signup <username>",
		Short: "Register a new account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			return runSignup(cfg.Server.BaseURL, args[0], age, gender)
		},
	}

	cmd.Flags().IntVar(&age, "age", 0, "age to record on the profile")
	cmd.Flags().StringVar(&gender, "gender", "", "gender to record on the profile")

	return cmd
}

func runSignup(baseURL, username string, age int, gender string) error {
	fmt.Print("Password: ")
	password, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return fmt.Errorf("reading password: %w", err)
	}

	fmt.Print("Confirm password: ")
	confirm, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return fmt.Errorf("reading password: %w", err)
	}
	if string(password) != string(confirm) {
		return fmt.Errorf("passwords do not match")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	client := api.New(baseURL)
	err = client.Signup(ctx, &api.SignupRequest{
		Username: username,
		Password: string(password),
		Age:      age,
		Gender:   gender,
	})
	if err != nil {
		return fmt.Errorf("signup failed: %w", err)
	}

	fmt.Printf("Account %s created. Run parley to log in.\n", username)
	return nil
}
