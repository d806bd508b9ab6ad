package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/koor-works/koor-backend/pkg/migrate"
)

func readMigration(t *testing.T, pattern string) string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join("migrations", pattern))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no migration matching %q", pattern)
	}
	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	return string(data)
}

func TestUsersMigrationContainsConstraints(t *testing.T) {
	content := readMigration(t, "*_create_users.sql")

	checks := []string{
		"CREATE TABLE IF NOT EXISTS users",
		"CHECK (email IS NOT NULL OR mobile_number IS NOT NULL)",
		"ON users (email) WHERE is_removed = FALSE",
		"ON users (mobile_number) WHERE is_removed = FALSE",
		"CREATE TABLE IF NOT EXISTS user_sessions",
		"DROP TABLE IF EXISTS users",
	}
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestApplicationsMigrationEnforcesOneLivePerPair(t *testing.T) {
	content := readMigration(t, "*_create_applications.sql")

	checks := []string{
		"ON applied_jobs (user_id, job_id) WHERE is_removed = FALSE",
		"ON applied_tenders (user_id, tender_id) WHERE is_removed = FALSE",
		"ON black_lists (user_id, blacklisted_user_id)",
	}
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestPostingsMigrationContainsFacetColumns(t *testing.T) {
	content := readMigration(t, "*_create_postings.sql")

	checks := []string{
		"ux_jobs_job_id",
		"ux_jobs_slug",
		"categories TEXT[]",
		"tender_types TEXT[]",
		"FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE",
	}
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestValidateDirAcceptsCurrentMigrations(t *testing.T) {
	if err := migrate.ValidateDir("migrations"); err != nil {
		t.Fatalf("ValidateDir failed: %v", err)
	}
}
