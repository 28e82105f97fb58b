package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/mmcdole/cineverse/internal/config"
	"github.com/mmcdole/cineverse/internal/domain"
	"github.com/mmcdole/cineverse/internal/tmdb"
	"github.com/mmcdole/cineverse/internal/tui/styles"
	"golang.org/x/term"
)

const maxKeyAttempts = 3

// errSetupCancelled is returned when the user leaves the key prompt empty
var errSetupCancelled = errors.New("setup cancelled")

func runSetupFlow(cfg *config.Config, client *tmdb.Client, logger *slog.Logger) error {
	fmt.Println("Welcome to cineverse!")
	fmt.Println()
	fmt.Println("A TMDB API key is required. Create one at https://www.themoviedb.org/settings/api")
	fmt.Println()

	reader := bufio.NewReader(os.Stdin)
	for attempt := 1; attempt <= maxKeyAttempts; attempt++ {
		key, err := readAPIKey(reader)
		if err != nil {
			return fmt.Errorf("failed to read API key: %w", err)
		}
		if key == "" {
			return errSetupCancelled
		}

		client.SetAPIKey(key)
		err = validateKeyWithSpinner(client)
		if errors.Is(err, domain.ErrAuthFailed) {
			fmt.Println("✗ TMDB rejected that key, try again")
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to validate API key: %w", err)
		}

		cfg.TMDB.APIKey = key
		if err := config.SaveConfig(cfg); err != nil {
			return fmt.Errorf("failed to save config: %w", err)
		}
		logger.Info("saved API key", "dir", config.DefaultConfigPath())
		fmt.Printf("✓ Configuration saved to %s\n\n", config.DefaultConfigPath())
		return nil
	}

	return fmt.Errorf("no valid API key after %d attempts", maxKeyAttempts)
}

// readAPIKey hides input when stdin is a terminal
func readAPIKey(reader *bufio.Reader) (string, error) {
	fmt.Print("TMDB API key: ")

	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		raw, err := term.ReadPassword(fd)
		fmt.Println()
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(raw)), nil
	}

	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// validateKeyWithSpinner makes one cheap request with a visual spinner
func validateKeyWithSpinner(client *tmdb.Client) error {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	resultCh := make(chan error, 1)
	go func() {
		_, err := client.Genres(ctx, domain.KindMovie)
		resultCh <- err
	}()

	frame := 0
	fmt.Printf("\r%s Checking key...", styles.SpinnerFrames[frame])

	ticker := time.NewTicker(80 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case err := <-resultCh:
			fmt.Print(clearSpinnerLine)
			if err == nil {
				fmt.Println("✓ Key accepted")
			}
			return err

		case <-ticker.C:
			frame++
			fmt.Printf("\r%s Checking key...", styles.SpinnerFrames[frame%len(styles.SpinnerFrames)])

		case <-ctx.Done():
			fmt.Print(clearSpinnerLine)
			return fmt.Errorf("validation timed out")
		}
	}
}
