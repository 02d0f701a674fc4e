package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"golang.org/x/term"

	"github.com/parleychat/parley/internal/api"
	"github.com/parleychat/parley/internal/channel"
	"github.com/parleychat/parley/internal/chat"
	"github.com/parleychat/parley/internal/config"
	"github.com/parleychat/parley/internal/logging"
	"github.com/parleychat/parley/internal/tui"
)

const loginTimeout = 15 * time.Second

// runChat authenticates and launches the chat interface.
func runChat(cfg *config.Config) error {
	if !hasTTY() {
		return fmt.Errorf("parley requires an interactive terminal")
	}

	client := api.New(cfg.Server.BaseURL)
	token, err := login(client)
	if err != nil {
		return err
	}
	client.SetToken(token)

	ctx, cancel := context.WithTimeout(context.Background(), loginTimeout)
	defer cancel()
	profile, err := client.GetProfile(ctx)
	if err != nil {
		return fmt.Errorf("fetching profile: %w", err)
	}

	log := logging.Component("session")
	log.Info().Int64("user_id", profile.ID).Str("username", profile.Username).Msg("session started")

	mgr := channel.NewManager(channel.NewWebsocketDialer(), cfg.WebsocketURL(), token)
	if err := mgr.OpenNotifications(); err != nil {
		// Live notifications degrade to polling-free silence; the client
		// still works for active conversations.
		log.Warn().Err(err).Msg("notification channel unavailable")
	}

	ctrl := chat.NewController(mgr, chat.WithToastTTL(cfg.TUI.ToastDuration))
	ctrl.SetSelf(chat.User{ID: profile.ID, Username: profile.Username, AvatarURL: profile.ProfilePicURL})

	defer mgr.Close()
	return tui.Run(ctrl, client, mgr, tui.Config{Theme: cfg.TUI.Theme})
}

// login prompts for credentials and exchanges them for a bearer token.
func login(client *api.Client) (string, error) {
	username, password, err := promptCredentials()
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(context.Background(), loginTimeout)
	defer cancel()

	token, err := client.Login(ctx, username, password)
	if err != nil {
		var apiErr *api.Error
		if errors.As(err, &apiErr) && apiErr.StatusCode == 401 {
			return "", fmt.Errorf("invalid username or password")
		}
		return "", fmt.Errorf("login failed: %w", err)
	}
	return token, nil
}

func promptCredentials() (username, password string, err error) {
	fmt.Print("Username: ")
	if _, err := fmt.Scanln(&username); err != nil {
		return "", "", fmt.Errorf("reading username: %w", err)
	}

	fmt.Print("Password: ")
	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return "", "", fmt.Errorf("reading password: %w", err)
	}
	return username, string(raw), nil
}

func hasTTY() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}
