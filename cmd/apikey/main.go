package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"studio/internal/domain"
	"studio/internal/infra"
	"studio/internal/settings"
	"studio/internal/storage"
)

// envKeys maps providers to the environment variable used when -key is omitted.
var envKeys = map[string]string{
	domain.ProviderMake:   "MAKE_API_KEY",
	domain.ProviderOpenAI: "OPENAI_API_KEY",
	domain.ProviderGemini: "GEMINI_API_KEY",
	domain.ProviderSuno:   "SUNO_API_KEY",
}

func main() {
	_ = godotenv.Load()
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "apikey",
		Short:         "Manage the provider API keys of the studio settings store",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.AddCommand(newSetCommand(), newShowCommand())
	return root
}

func newSetCommand() *cobra.Command {
	var provider, key string
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Store the key of one provider",
		RunE: func(cmd *cobra.Command, _ []string) error {
			provider = strings.ToLower(strings.TrimSpace(provider))
			envName, ok := envKeys[provider]
			if !ok {
				return fmt.Errorf("unsupported provider %q", provider)
			}
			key = strings.TrimSpace(key)
			if key == "" {
				key = strings.TrimSpace(os.Getenv(envName))
			}
			if key == "" {
				return fmt.Errorf("%s API key is required via --key or %s", strings.ToUpper(provider), envName)
			}

			svc, err := openSettings(cmd.Context())
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
			defer cancel()
			if err := svc.SetAPIKey(ctx, provider, key); err != nil {
				return fmt.Errorf("persist %s api key: %w", provider, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s api key stored\n", provider)
			return nil
		},
	}
	cmd.Flags().StringVar(&provider, "provider", domain.ProviderGemini, "provider to configure (make, openai, gemini or suno)")
	cmd.Flags().StringVar(&key, "key", "", "API key (falls back to the provider's environment variable)")
	return cmd
}

func newShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print which provider keys are configured",
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := openSettings(cmd.Context())
			if err != nil {
				return err
			}
			keys, err := svc.APIKeys(cmd.Context())
			if err != nil {
				return err
			}
			for _, provider := range []string{domain.ProviderMake, domain.ProviderOpenAI, domain.ProviderGemini, domain.ProviderSuno} {
				fmt.Fprintf(cmd.OutOrStdout(), "%-7s %s\n", provider, mask(keys.Get(provider)))
			}
			return nil
		},
	}
}

func openSettings(ctx context.Context) (*settings.Service, error) {
	cfg, err := infra.LoadConfig()
	if err != nil {
		return nil, err
	}
	if cfg.SettingsBackend == infra.SettingsBackendRedis {
		client, err := infra.NewRedisClient(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		return settings.NewService(settings.NewRedisBackend(client)), nil
	}
	files, err := storage.NewFileStore(cfg.SettingsDir)
	if err != nil {
		return nil, fmt.Errorf("open settings directory: %w", err)
	}
	return settings.NewService(settings.NewFileBackend(files)), nil
}

func mask(key string) string {
	if key == "" {
		return "(not set)"
	}
	if len(key) <= 4 {
		return "****"
	}
	return strings.Repeat("*", len(key)-4) + key[len(key)-4:]
}
