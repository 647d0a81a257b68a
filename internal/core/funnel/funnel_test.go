package funnel

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shopsight-lab/shopsight/internal/core/rollup"
)

// writeFunnel is a test helper that writes a single funnel YAML file into dir.
func writeFunnel(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestDefaultCheckout(t *testing.T) {
	f := DefaultCheckout()
	if f.Name != "checkout" {
		t.Errorf("Name = %q, want checkout", f.Name)
	}
	if len(f.Stages) != 4 {
		t.Fatalf("got %d stages, want 4", len(f.Stages))
	}
	events := []string{
		rollup.EventProductViewed,
		rollup.EventCartItemAdded,
		rollup.EventCheckoutStarted,
		rollup.EventOrderCompleted,
	}
	for i, want := range events {
		if f.Stages[i].Event != want {
			t.Errorf("stage %d event = %q, want %q", i, f.Stages[i].Event, want)
		}
	}
}

func TestFileSystemFunnelRepository_BuiltInOnly(t *testing.T) {
	// Empty config dir is valid and yields just the built-in funnel.
	repo, err := NewFileSystemFunnelRepository("")
	if err != nil {
		t.Fatalf("NewFileSystemFunnelRepository: %v", err)
	}
	funnels := repo.GetFunnels()
	if len(funnels) != 1 {
		t.Fatalf("got %d funnels, want 1", len(funnels))
	}
	if funnels[0].Name != "checkout" {
		t.Errorf("Name = %q, want checkout", funnels[0].Name)
	}
}

func TestFileSystemFunnelRepository_MissingDir(t *testing.T) {
	repo, err := NewFileSystemFunnelRepository("/tmp/does-not-exist-shopsight-test")
	if err != nil {
		t.Fatalf("unexpected error for missing dir: %v", err)
	}
	if len(repo.GetFunnels()) != 1 {
		t.Errorf("expected just the built-in funnel, got %d", len(repo.GetFunnels()))
	}
}

func TestFileSystemFunnelRepository_LoadAndGet(t *testing.T) {
	dir := t.TempDir()
	writeFunnel(t, dir, "search.yaml", `
name: "search_to_order"
stages:
  - label: "Searched"
    event: "search_performed"
  - label: "Viewed product"
    event: "product_viewed"
  - label: "Ordered"
    event: "order_completed"
`)

	repo, err := NewFileSystemFunnelRepository(dir)
	if err != nil {
		t.Fatal(err)
	}

	f, err := repo.Get("search_to_order")
	if err != nil {
		t.Fatal(err)
	}
	if len(f.Stages) != 3 {
		t.Fatalf("got %d stages, want 3", len(f.Stages))
	}
	if f.Stages[0].Label != "Searched" {
		t.Errorf("stage label = %q", f.Stages[0].Label)
	}

	// Built-in stays available alongside the loaded funnel.
	if _, err := repo.Get("checkout"); err != nil {
		t.Errorf("built-in checkout missing: %v", err)
	}

	// Not found
	if _, err := repo.Get("nonexistent"); err == nil {
		t.Error("Get nonexistent: expected error, got nil")
	}
}

func TestFileSystemFunnelRepository_PropertyMatch(t *testing.T) {
	dir := t.TempDir()
	writeFunnel(t, dir, "coupon.yaml", `
name: "coupon_redemption"
stages:
  - event: "coupon_applied"
    match:
      property: "success"
      equals: "true"
  - event: "order_completed"
`)

	repo, err := NewFileSystemFunnelRepository(dir)
	if err != nil {
		t.Fatal(err)
	}
	f, err := repo.Get("coupon_redemption")
	if err != nil {
		t.Fatal(err)
	}
	if f.Stages[0].Match == nil {
		t.Fatal("stage 0 match is nil")
	}
	if f.Stages[0].Match.Property != "success" || f.Stages[0].Match.Equals != "true" {
		t.Errorf("match = %+v", f.Stages[0].Match)
	}
	// Missing label falls back to the event name.
	if f.Stages[0].Label != "coupon_applied" {
		t.Errorf("label = %q, want event name fallback", f.Stages[0].Label)
	}
}

func TestFileSystemFunnelRepository_OverridesBuiltIn(t *testing.T) {
	dir := t.TempDir()
	writeFunnel(t, dir, "checkout.yaml", `
name: "checkout"
stages:
  - event: "cart_item_added"
  - event: "order_completed"
`)

	repo, err := NewFileSystemFunnelRepository(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(repo.GetFunnels()) != 1 {
		t.Fatalf("override should not add a second funnel, got %d", len(repo.GetFunnels()))
	}
	f, _ := repo.Get("checkout")
	if len(f.Stages) != 2 {
		t.Errorf("got %d stages, want overridden 2", len(f.Stages))
	}
}

func TestFileSystemFunnelRepository_DuplicateName(t *testing.T) {
	dir := t.TempDir()
	writeFunnel(t, dir, "first.yaml", `
name: "dup"
stages:
  - event: "a"
  - event: "b"
`)
	writeFunnel(t, dir, "second.yaml", `
name: "dup"
stages:
  - event: "c"
  - event: "d"
`)

	if _, err := NewFileSystemFunnelRepository(dir); err == nil {
		t.Fatal("expected error for duplicate funnel name, got nil")
	}
}

func TestFileSystemFunnelRepository_TooFewStages(t *testing.T) {
	dir := t.TempDir()
	writeFunnel(t, dir, "short.yaml", `
name: "short"
stages:
  - event: "only_one"
`)

	if _, err := NewFileSystemFunnelRepository(dir); err == nil {
		t.Fatal("expected error for single-stage funnel, got nil")
	}
}

func TestFileSystemFunnelRepository_StageWithoutEvent(t *testing.T) {
	dir := t.TempDir()
	writeFunnel(t, dir, "bad.yaml", `
name: "bad"
stages:
  - label: "No event here"
  - event: "order_completed"
`)

	if _, err := NewFileSystemFunnelRepository(dir); err == nil {
		t.Fatal("expected error for stage without event, got nil")
	}
}

func TestFileSystemFunnelRepository_SkipsEmptyFiles(t *testing.T) {
	dir := t.TempDir()
	writeFunnel(t, dir, "empty.yaml", "")
	writeFunnel(t, dir, "comment_only.yaml", "# just a comment\n")
	writeFunnel(t, dir, "real.yaml", `
name: "real"
stages:
  - event: "a"
  - event: "b"
`)

	repo, err := NewFileSystemFunnelRepository(dir)
	if err != nil {
		t.Fatal(err)
	}
	// Built-in plus the one real file.
	if len(repo.GetFunnels()) != 2 {
		t.Errorf("expected 2 funnels, got %d", len(repo.GetFunnels()))
	}
}
