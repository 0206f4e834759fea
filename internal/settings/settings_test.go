package settings

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/nugget/promptdesk/internal/opstate"
	"github.com/nugget/promptdesk/internal/prompts"
)

func testService(t *testing.T) (*Service, *opstate.Namespace) {
	t.Helper()
	store, err := opstate.NewStore(filepath.Join(t.TempDir(), "settings_test.db"))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	ns := store.Namespace("bolt")
	lib := prompts.NewLibrary(prompts.NewOverrides(ns))
	return NewService(ns, lib, nil), ns
}

type brokenKV struct{}

func (brokenKV) Get(string) (string, error) { return "", errors.New("unavailable") }
func (brokenKV) Set(string, string) error   { return errors.New("unavailable") }
func (brokenKV) Delete(string) error        { return errors.New("unavailable") }

func TestSelectedPrompt_DefaultsToDefault(t *testing.T) {
	svc, _ := testService(t)

	got, err := svc.SelectedPrompt()
	if err != nil {
		t.Fatalf("SelectedPrompt: %v", err)
	}
	if got.ID != prompts.Default {
		t.Errorf("SelectedPrompt().ID = %q, want %q", got.ID, prompts.Default)
	}
}

func TestSelectPrompt_Persists(t *testing.T) {
	svc, ns := testService(t)

	if _, err := svc.SelectPrompt("custom"); err != nil {
		t.Fatalf("SelectPrompt: %v", err)
	}
	got, err := svc.SelectedPrompt()
	if err != nil {
		t.Fatalf("SelectedPrompt: %v", err)
	}
	if got.ID != prompts.Custom {
		t.Errorf("SelectedPrompt().ID = %q, want custom", got.ID)
	}
	if raw, _ := ns.Get(PromptIDKey); raw != "custom" {
		t.Errorf("stored prompt_id = %q", raw)
	}
}

func TestSelectPrompt_Unknown(t *testing.T) {
	svc, ns := testService(t)

	if _, err := svc.SelectPrompt("nope"); !errors.Is(err, prompts.ErrNotFound) {
		t.Errorf("SelectPrompt(nope) error = %v, want ErrNotFound", err)
	}
	if raw, _ := ns.Get(PromptIDKey); raw != "" {
		t.Errorf("unknown selection was stored: %q", raw)
	}
}

func TestSelectedPrompt_StaleValue(t *testing.T) {
	svc, ns := testService(t)
	if err := ns.Set(PromptIDKey, "retired"); err != nil {
		t.Fatalf("Set: %v", err)
	}

	if _, err := svc.SelectedPrompt(); !errors.Is(err, prompts.ErrNotFound) {
		t.Errorf("SelectedPrompt() error = %v, want ErrNotFound", err)
	}
}

func TestDatabase_DefaultsAndRoundTrip(t *testing.T) {
	svc, _ := testService(t)

	got, err := svc.Database()
	if err != nil {
		t.Fatalf("Database: %v", err)
	}
	if got != DefaultDatabaseSettings() {
		t.Errorf("Database() = %+v, want defaults", got)
	}

	want := DatabaseSettings{Host: "db.local", Port: 3307, User: "app", Password: "pw", Database: "chat", Enabled: true}
	if err := svc.SaveDatabase(want); err != nil {
		t.Fatalf("SaveDatabase: %v", err)
	}
	got, err = svc.Database()
	if err != nil {
		t.Fatalf("Database: %v", err)
	}
	if got != want {
		t.Errorf("Database() = %+v, want %+v", got, want)
	}
}

func TestSaveDatabase_Validation(t *testing.T) {
	svc, _ := testService(t)

	tests := []struct {
		name string
		in   DatabaseSettings
	}{
		{"zero port", DatabaseSettings{Host: "h", Port: 0}},
		{"port too high", DatabaseSettings{Host: "h", Port: 70000}},
		{"enabled without host", DatabaseSettings{Port: 3306, Enabled: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := svc.SaveDatabase(tt.in); err == nil {
				t.Error("SaveDatabase() should reject invalid settings")
			}
		})
	}
}

func TestDatabase_CorruptRecord(t *testing.T) {
	svc, ns := testService(t)
	if err := ns.Set(DatabaseSettingsKey, "{not json"); err != nil {
		t.Fatalf("Set: %v", err)
	}

	if _, err := svc.Database(); err == nil {
		t.Error("Database() should fail on a corrupt record")
	}
}

func TestRedacted(t *testing.T) {
	d := DatabaseSettings{Password: "secret"}
	if d.Redacted().Password == "secret" {
		t.Error("Redacted() should mask the password")
	}
	if (DatabaseSettings{}).Redacted().Password != "" {
		t.Error("Redacted() should leave an empty password empty")
	}
}

func TestPersistenceFailures(t *testing.T) {
	svc := NewService(brokenKV{}, prompts.NewLibrary(nil), nil)

	if _, err := svc.SelectedPrompt(); !errors.Is(err, prompts.ErrPersistence) {
		t.Errorf("SelectedPrompt() error = %v, want ErrPersistence", err)
	}
	if _, err := svc.SelectPrompt("default"); !errors.Is(err, prompts.ErrPersistence) {
		t.Errorf("SelectPrompt() error = %v, want ErrPersistence", err)
	}
	if _, err := svc.Database(); !errors.Is(err, prompts.ErrPersistence) {
		t.Errorf("Database() error = %v, want ErrPersistence", err)
	}
	if err := svc.SaveDatabase(DefaultDatabaseSettings()); !errors.Is(err, prompts.ErrPersistence) {
		t.Errorf("SaveDatabase() error = %v, want ErrPersistence", err)
	}
}
