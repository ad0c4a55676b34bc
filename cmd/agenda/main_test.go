package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/golang-jwt/jwt/v5"
)

const testExport = `{
  "metadata": {"exportedAt": "2025-05-30T12:00:00Z", "counts": {"sessions": 2, "speakers": 1, "sessionSpeakers": 2}},
  "data": {
    "sessions": [
      {"id": "s1", "title": "Agents in Production", "startTime": "2025-06-10T09:00:00Z", "endTime": "2025-06-10T10:00:00Z", "track": "AI", "tags": ["AI"]},
      {"id": "s2", "title": "Cloud Costs", "startTime": "2025-06-10T15:00:00Z", "endTime": "2025-06-10T16:00:00Z", "track": "Cloud", "tags": ["Cloud"]}
    ],
    "speakers": [{"id": "sp1", "name": "Ada Lovelace", "expertise": ["AI"]}],
    "sessionSpeakers": [
      {"sessionId": "s1", "speakerId": "sp1"},
      {"sessionId": "s2", "speakerId": "sp1"}
    ]
  }
}`

const testSecret = "0123456789abcdef0123456789abcdef"

func setupEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("AGENDA_CONFIG_PATH", "")
	t.Setenv("AGENDA_DATABASE__DSN", filepath.Join(dir, "agenda.db"))
	t.Setenv("AGENDA_AUTH__JWT_SECRET", testSecret)
	t.Setenv("AGENDA_LOGGING__LEVEL", "error")

	exportPath := filepath.Join(dir, "export.json")
	if err := os.WriteFile(exportPath, []byte(testExport), 0o600); err != nil {
		t.Fatalf("write export: %v", err)
	}
	return exportPath
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCommand()
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	err := cmd.Execute()
	return out.String(), err
}

func TestMigrateCommand(t *testing.T) {
	setupEnv(t)

	out, err := run(t, "migrate")
	if err != nil {
		t.Fatalf("migrate up: %v", err)
	}
	if !strings.Contains(out, "schema version 1 (dirty=false)") {
		t.Fatalf("unexpected output %q", out)
	}

	out, err = run(t, "migrate", "--direction", "down", "--steps", "1")
	if err != nil {
		t.Fatalf("migrate down: %v", err)
	}
	if !strings.Contains(out, "schema version 0") {
		t.Fatalf("unexpected output %q", out)
	}

	if _, err := run(t, "migrate", "--direction", "sideways"); err == nil {
		t.Fatalf("expected an invalid direction to fail")
	}
}

func TestImportAndPlan(t *testing.T) {
	exportPath := setupEnv(t)

	out, err := run(t, "import", exportPath, "--dry-run")
	if err != nil {
		t.Fatalf("dry run: %v", err)
	}
	if !strings.Contains(out, "export ok: sessions=2 speakers=1 links=2") {
		t.Fatalf("unexpected dry run output %q", out)
	}

	out, err = run(t, "import", exportPath)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if !strings.Contains(out, "imported sessions=2 speakers=1 links=2") {
		t.Fatalf("unexpected import output %q", out)
	}

	out, err = run(t, "plan", "--user", "u1", "--include-past")
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	var agenda struct {
		UserID   string `json:"user_id"`
		Insights struct {
			SessionsAnalyzed int `json:"sessions_analyzed"`
		} `json:"insights"`
	}
	if err := json.Unmarshal([]byte(out), &agenda); err != nil {
		t.Fatalf("decode plan output %q: %v", out, err)
	}
	if agenda.UserID != "u1" || agenda.Insights.SessionsAnalyzed != 2 {
		t.Fatalf("unexpected agenda %+v", agenda)
	}

	if _, err := run(t, "plan"); err == nil {
		t.Fatalf("expected plan without --user to fail")
	}
}

func TestImportRejectsMissingFile(t *testing.T) {
	setupEnv(t)
	if _, err := run(t, "import", filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatalf("expected missing export to fail")
	}
}

func TestExportCSVCommand(t *testing.T) {
	exportPath := setupEnv(t)
	outDir := filepath.Join(t.TempDir(), "csv")

	out, err := run(t, "export-csv", exportPath, "--out", outDir)
	if err != nil {
		t.Fatalf("export-csv: %v", err)
	}
	if !strings.Contains(out, "wrote 2 sessions, 1 speakers and 2 links") {
		t.Fatalf("unexpected output %q", out)
	}
	for _, name := range []string{"sessions.csv", "speakers.csv", "session_speakers.csv"} {
		if _, err := os.Stat(filepath.Join(outDir, name)); err != nil {
			t.Fatalf("expected %s: %v", name, err)
		}
	}
}

func TestTokenCommand(t *testing.T) {
	setupEnv(t)

	out, err := run(t, "token", "--user", "u1")
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	raw := strings.TrimSpace(out)
	claims := &jwt.RegisteredClaims{}
	if _, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return []byte(testSecret), nil
	}, jwt.WithValidMethods([]string{"HS256"})); err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if claims.Subject != "u1" || claims.ExpiresAt == nil {
		t.Fatalf("unexpected claims %+v", claims)
	}

	t.Setenv("AGENDA_AUTH__JWT_SECRET", "short")
	if _, err := run(t, "token", "--user", "u1"); err == nil {
		t.Fatalf("expected a short secret to be rejected")
	}
}
