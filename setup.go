package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/go-resty/resty/v2"
	"github.com/raine/stock-metadata/config"
	runconfig "github.com/raine/stock-metadata/internal/config"
	"github.com/raine/stock-metadata/internal/llm"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

const keyValidationTimeout = 10 * time.Second

// modelChoices are offered by the setup wizard.
var modelChoices = []string{"gemini-2.0-flash", "gemini-2.5-flash", "gemini-2.5-pro"}

func newSetupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "setup",
		Short: "Store the Gemini API key and model in the user config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !isInteractiveTerminal() {
				return errors.New("setup needs an interactive terminal")
			}
			if !runSetupWizard() {
				return errors.New("setup was not completed")
			}
			return nil
		},
	}
}

// isInteractiveTerminal returns true if both stdin and stdout are TTYs.
// This is used to determine if we can run the interactive setup wizard.
func isInteractiveTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

// runSetupWizard collects the API key and model, validates the key and
// writes config.env. Returns true if the caller may continue.
func runSetupWizard() bool {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("99")).
		MarginBottom(1)

	fmt.Println()
	fmt.Println(titleStyle.Render("Stock Metadata - First-time Setup"))
	fmt.Println()

	baseURL := os.Getenv(runconfig.EnvBaseURL)
	if baseURL == "" {
		baseURL = llm.DefaultBaseURL
	}

	geminiKey := os.Getenv(runconfig.EnvAPIKey)
	model := llm.DefaultModel
	if m := os.Getenv(runconfig.EnvModel); m != "" {
		model = m
	}

	var options []huh.Option[string]
	for _, m := range modelChoices {
		options = append(options, huh.NewOption(m, m))
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Gemini API Key").
				Description("Get yours at https://aistudio.google.com/apikey").
				EchoMode(huh.EchoModePassword).
				Value(&geminiKey).
				Validate(func(s string) error {
					if s == "" {
						return errors.New("API key is required")
					}
					return validateGeminiKey(baseURL, s)
				}),
		),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Model").
				Description("Used for every file unless GEMINI_MODEL is set").
				Options(options...).
				Value(&model),
		),
	).WithTheme(huh.ThemeBase16())

	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			fmt.Println("\nSetup cancelled.")
			return false
		}
		fmt.Printf("\nError: %v\n", err)
		return false
	}

	values := map[string]string{
		runconfig.EnvAPIKey: geminiKey,
		runconfig.EnvModel:  model,
	}

	configPath, err := config.FilePath()
	if err == nil {
		err = config.WriteEnvFile(configPath, values, []string{runconfig.EnvAPIKey, runconfig.EnvModel})
	}
	if err != nil {
		fmt.Printf("\nError saving configuration: %v\n", err)
		waitOnWindows()
		return false
	}

	for k, v := range values {
		os.Setenv(k, v)
	}

	successStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("42")).
		Bold(true)

	pathStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("245"))

	fmt.Println()
	fmt.Println(successStyle.Render("✓ Configuration saved"))
	fmt.Println(pathStyle.Render("  " + configPath))
	fmt.Println()

	return true
}

// validateGeminiKey validates an API key against the models list endpoint,
// which is lightweight and needs no payload.
func validateGeminiKey(baseURL, key string) error {
	ctx, cancel := context.WithTimeout(context.Background(), keyValidationTimeout)
	defer cancel()

	var errResult struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}

	res, err := resty.New().
		SetBaseURL(baseURL).
		R().
		SetContext(ctx).
		SetQueryParam("key", key).
		SetError(&errResult).
		Get("/v1beta/models")
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return errors.New("connection timed out - check your internet")
		}
		return errors.New("connection failed - check your internet")
	}

	switch code := res.StatusCode(); {
	case code == 400 || code == 401 || code == 403:
		if errResult.Error.Message != "" {
			return errors.New(errResult.Error.Message)
		}
		return fmt.Errorf("API key rejected (HTTP %d)", code)
	case code != 200:
		return fmt.Errorf("unexpected response (HTTP %d)", code)
	}
	return nil
}
