package db

import "testing"

func TestConnectAndMigrateSqlite(t *testing.T) {
	dbi, err := ConnectAndMigrate("file:db_" + t.Name() + "?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	for _, table := range []string{
		"users", "clients", "invoices", "invoice_items",
		"estimates", "estimate_items",
		"recurring_invoices", "recurring_invoice_items",
		"invoice_views", "notifications",
	} {
		if !dbi.Migrator().HasTable(table) {
			t.Errorf("table %s missing after migration", table)
		}
	}
}

func TestConnectAndMigrateEmptyDSN(t *testing.T) {
	if _, err := ConnectAndMigrate(""); err == nil {
		t.Fatalf("empty DSN accepted")
	}
}

func TestIsPostgresDSN(t *testing.T) {
	cases := map[string]bool{
		"postgres://u:p@localhost/db":      true,
		"postgresql://u:p@localhost/db":    true,
		"host=localhost user=app dbname=x": true,
		"file:invoiceapp.db":               false,
		"invoiceapp.db":                    false,
	}
	for dsn, want := range cases {
		if got := isPostgresDSN(dsn); got != want {
			t.Errorf("isPostgresDSN(%q) = %v, want %v", dsn, got, want)
		}
	}
}
