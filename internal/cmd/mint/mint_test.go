package mint

import (
	"flag"
	"testing"
)

func TestParseConfigDefaults(t *testing.T) {
	t.Setenv("GENART_MINT_PORT", "")
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, nil)
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.Port != 8080 {
		t.Fatalf("port = %d, want 8080", cfg.Port)
	}
	if cfg.JournalDBPath == "" {
		t.Fatal("expected journal db default")
	}
}

func TestParseConfigEnvAndFlags(t *testing.T) {
	t.Setenv("GENART_MINT_PORT", "9100")
	t.Setenv("GENART_MINT_OPERATOR_ADDRESS", "operator-wallet")

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, []string{"-journal-db", "/tmp/journal.db"})
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.Port != 9100 {
		t.Fatalf("port = %d, want 9100", cfg.Port)
	}
	if cfg.Operator != "operator-wallet" {
		t.Fatalf("operator = %q, want operator-wallet", cfg.Operator)
	}
	if cfg.JournalDBPath != "/tmp/journal.db" {
		t.Fatalf("journal db = %q, want flag override", cfg.JournalDBPath)
	}
}

func TestLoadGrantConfigUnsetIsOpen(t *testing.T) {
	t.Setenv("GENART_OPERATOR_GRANT_ISSUER", "")
	t.Setenv("GENART_OPERATOR_GRANT_AUDIENCE", "")
	t.Setenv("GENART_OPERATOR_GRANT_PUBLIC_KEY", "")

	cfg, err := loadGrantConfig()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg != nil {
		t.Fatal("expected nil config when env unset")
	}
}

func TestLoadGrantConfigPartialFails(t *testing.T) {
	t.Setenv("GENART_OPERATOR_GRANT_ISSUER", "issuer")
	t.Setenv("GENART_OPERATOR_GRANT_AUDIENCE", "")
	t.Setenv("GENART_OPERATOR_GRANT_PUBLIC_KEY", "")

	if _, err := loadGrantConfig(); err == nil {
		t.Fatal("expected error for partial grant env")
	}
}
