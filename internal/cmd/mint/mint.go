// Package mint parses mint service flags and launches the service.
package mint

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	entrypoint "github.com/gen-dot-art/legacy-contracts/internal/platform/cmd"
	"github.com/gen-dot-art/legacy-contracts/internal/services/mint/api/httpapi"
	"github.com/gen-dot-art/legacy-contracts/internal/services/mint/app"
	"github.com/gen-dot-art/legacy-contracts/internal/services/mint/domain/grant"
	"github.com/gen-dot-art/legacy-contracts/internal/services/mint/domain/selector"
	"github.com/gen-dot-art/legacy-contracts/internal/services/mint/domain/token"
	"github.com/gen-dot-art/legacy-contracts/internal/services/mint/standalone"
	mintsqlite "github.com/gen-dot-art/legacy-contracts/internal/services/mint/storage/sqlite"
)

// Config holds mint command configuration.
type Config struct {
	Port          int    `env:"GENART_MINT_PORT" envDefault:"8080"`
	JournalDBPath string `env:"GENART_MINT_JOURNAL_DB_PATH" envDefault:"data/mint-journal.db"`
	RailsPath     string `env:"GENART_MINT_RAILS_PATH"`
	Operator      string `env:"GENART_MINT_OPERATOR_ADDRESS"`
	SelectorSeed  string `env:"GENART_MINT_SELECTOR_SEED"`
}

// ParseConfig parses environment and flags into Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.IntVar(&cfg.Port, "port", cfg.Port, "The mint HTTP server port")
	fs.StringVar(&cfg.JournalDBPath, "journal-db", cfg.JournalDBPath, "Path to the SQLite event journal")
	fs.StringVar(&cfg.RailsPath, "rails", cfg.RailsPath, "Path to the membership and balance snapshot")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// loadGrantConfig loads operator grant verification config. All three env
// vars unset means the admin surface runs open, which only makes sense for
// local development.
func loadGrantConfig() (*grant.Config, error) {
	issuer := os.Getenv(grant.EnvOperatorGrantIssuer)
	audience := os.Getenv(grant.EnvOperatorGrantAudience)
	key := os.Getenv(grant.EnvOperatorGrantPublicKey)
	if issuer == "" && audience == "" && key == "" {
		log.Print("operator grant env unset; admin surface is open")
		return nil, nil
	}
	cfg, err := grant.LoadConfigFromEnv(nil)
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Run starts the mint HTTP API service.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceMint, func(ctx context.Context) error {
		if cfg.Operator == "" {
			return fmt.Errorf("GENART_MINT_OPERATOR_ADDRESS is required")
		}

		grantCfg, err := loadGrantConfig()
		if err != nil {
			return err
		}

		rails, err := standalone.Load(cfg.RailsPath)
		if err != nil {
			return err
		}

		journal, err := mintsqlite.Open(cfg.JournalDBPath)
		if err != nil {
			return err
		}
		defer func() {
			if err := journal.Close(); err != nil {
				log.Printf("close journal: %v", err)
			}
		}()

		svc := app.New(app.Deps{
			Members:  rails.Members,
			Currency: rails.Currency,
			Native:   rails.Native,
			Operator: token.Address(cfg.Operator),
			Selector: selector.New([]byte(cfg.SelectorSeed)),
			Grant:    grantCfg,
			Sink:     journal,
		})

		server := &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Port),
			Handler:           httpapi.New(svc),
			ReadHeaderTimeout: 10 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			errCh <- server.ListenAndServe()
		}()
		log.Printf("mint listening on %s", server.Addr)

		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		case err := <-errCh:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		}
	})
}
