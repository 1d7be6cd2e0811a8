package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultKindPolicies_HistoricalPolicyPerKind(t *testing.T) {
	policies := DefaultKindPolicies()

	cases := []struct {
		kind       string
		layout     string
		historical bool
		company    bool
	}{
		{"agenda", LayoutStructured, false, false},
		{"rating_sheet", LayoutStructured, false, false},
		{"mom", LayoutMarkup, true, false},
		{"press_release", LayoutMarkup, false, true},
		{"rating_letter", LayoutMarkup, false, true},
		{"provisional_communication", LayoutMarkup, false, true},
	}
	for _, tc := range cases {
		p, ok := policies.Policy(tc.kind)
		if !ok {
			t.Fatalf("policy %s missing", tc.kind)
		}
		if p.Layout != tc.layout {
			t.Fatalf("%s: layout=%s want %s", tc.kind, p.Layout, tc.layout)
		}
		if p.RequireHistorical != tc.historical {
			t.Fatalf("%s: require_historical=%v want %v", tc.kind, p.RequireHistorical, tc.historical)
		}
		if p.RequiresCompany != tc.company {
			t.Fatalf("%s: requires_company=%v want %v", tc.kind, p.RequiresCompany, tc.company)
		}
	}
	if _, ok := policies.Policy("balance_sheet"); ok {
		t.Fatalf("unexpected policy for unknown kind")
	}
}

func TestLoadKindPolicies_OverridesOnlyNamedFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kinds.yaml")
	content := `
kinds:
  mom:
    require_historical: false
  rating_letter:
    margins: {top: 10, right: 10, bottom: 10, left: 10}
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	policies, err := LoadKindPolicies(path)
	if err != nil {
		t.Fatalf("LoadKindPolicies: %v", err)
	}

	mom, _ := policies.Policy("mom")
	if mom.RequireHistorical {
		t.Fatalf("mom require_historical should be overridden to false")
	}
	if mom.Template != "mom.html" || mom.Layout != LayoutMarkup {
		t.Fatalf("mom defaults lost: %+v", mom)
	}

	letter, _ := policies.Policy("rating_letter")
	if letter.Margins.Top != 10 || !letter.RequiresCompany {
		t.Fatalf("rating_letter override not merged: %+v", letter)
	}
}

func TestLoadKindPolicies_RejectsUnknownKindAndLayout(t *testing.T) {
	cases := map[string]string{
		"unknown kind": "kinds:\n  balance_sheet:\n    title: x\n",
		"bad layout":   "kinds:\n  agenda:\n    layout: pdf\n",
		"bad yaml":     "kinds: [",
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "kinds.yaml")
			if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
				t.Fatalf("write: %v", err)
			}
			if _, err := LoadKindPolicies(path); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestKindPolicies_WatchReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "kinds.yaml")
	if err := os.WriteFile(path, []byte("kinds: {}\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	policies, err := LoadKindPolicies(path)
	if err != nil {
		t.Fatalf("LoadKindPolicies: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	if err := policies.Watch(ctx, GetLogger()); err != nil {
		t.Fatalf("Watch: %v", err)
	}

	if err := os.WriteFile(path, []byte("kinds:\n  agenda:\n    title: Revised Agenda\n"), 0o644); err != nil {
		t.Fatalf("rewrite: %v", err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if p, _ := policies.Policy("agenda"); p.Title == "Revised Agenda" {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("policy file change was not picked up")
}

func TestResolverCacheTTL_OffUnlessConfigured(t *testing.T) {
	t.Setenv("RESOLVER_CACHE_TTL_SECONDS", "")
	if got := ResolverCacheTTL(); got != 0 {
		t.Fatalf("default ttl=%s want 0", got)
	}
	t.Setenv("RESOLVER_CACHE_TTL_SECONDS", "30")
	if got := ResolverCacheTTL(); got != 30*time.Second {
		t.Fatalf("ttl=%s want 30s", got)
	}
}

func TestKindPolicies_WatchCoalescesBurstOfWrites(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "kinds.yaml")
	if err := os.WriteFile(path, []byte("kinds: {}\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	policies, err := LoadKindPolicies(path)
	if err != nil {
		t.Fatalf("LoadKindPolicies: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	if err := policies.Watch(ctx, GetLogger()); err != nil {
		t.Fatalf("Watch: %v", err)
	}

	for _, title := range []string{"A", "B", "C", "D", "Final Agenda"} {
		body := "kinds:\n  agenda:\n    title: " + title + "\n"
		if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
			t.Fatalf("rewrite: %v", err)
		}
	}

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if p, _ := policies.Policy("agenda"); p.Title == "Final Agenda" {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	if p, _ := policies.Policy("agenda"); p.Title != "Final Agenda" {
		t.Fatalf("title=%q want last written value", p.Title)
	}
	time.Sleep(2 * reloadDebounce)
	if n := policies.reloads.Load(); n < 1 || n >= 5 {
		t.Fatalf("reloads=%d want a single coalesced reload", n)
	}
}

func TestKindPolicies_WatchMissingDirectory(t *testing.T) {
	policies := &KindPolicies{
		path:     filepath.Join(t.TempDir(), "gone", "kinds.yaml"),
		policies: defaultKindPolicies(),
	}
	if err := policies.Watch(context.Background(), GetLogger()); err == nil {
		t.Fatalf("watching a missing directory should fail")
	}
}
