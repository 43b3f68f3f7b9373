package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestOrdersMigrationContainsConstraints(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_create_orders_table.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no orders migration file found")
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	content := string(data)

	checks := []string{
		"CREATE TABLE IF NOT EXISTS orders",
		"order_id TEXT NOT NULL UNIQUE",
		"CHECK (amount_cents >= 0)",
		"DROP TABLE IF EXISTS orders",
	}
	for _, want := range checks {
		if !strings.Contains(content, want) {
			t.Errorf("orders migration missing %q", want)
		}
	}
}
