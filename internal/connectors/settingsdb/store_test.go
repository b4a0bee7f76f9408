package settingsdb

import (
	"context"
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(filepath.Join(t.TempDir(), "settings.db"))
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestAlertThresholds_SeededDefaults(t *testing.T) {
	store := newTestStore(t)

	thresholds, err := store.AlertThresholds(context.Background())
	if err != nil {
		t.Fatalf("AlertThresholds failed: %v", err)
	}
	temp, ok := thresholds["temperature"]
	if !ok {
		t.Fatalf("expected seeded temperature thresholds, got %v", thresholds)
	}
	if temp.Warning != 80 || temp.Critical != 95 {
		t.Fatalf("unexpected temperature defaults: %+v", temp)
	}
}

func TestSaveAlertThresholds_Upserts(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	err := store.SaveAlertThresholds(ctx, map[string]ThresholdPair{
		"temperature": {Warning: 85, Critical: 99},
		"rpm":         {Warning: 4000, Critical: 4500},
	})
	if err != nil {
		t.Fatalf("SaveAlertThresholds failed: %v", err)
	}

	thresholds, err := store.AlertThresholds(ctx)
	if err != nil {
		t.Fatalf("AlertThresholds failed: %v", err)
	}
	if thresholds["temperature"].Critical != 99 {
		t.Fatalf("expected updated critical threshold, got %+v", thresholds["temperature"])
	}
	if thresholds["rpm"].Warning != 4000 {
		t.Fatalf("expected new sensor row, got %+v", thresholds["rpm"])
	}
}

func TestNotifications_RoundTripAndValidation(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.SaveNotifications(ctx, NotificationSettings{EmailEnabled: true}); err == nil {
		t.Fatalf("expected validation error for enabled email without address")
	}

	want := NotificationSettings{
		EmailEnabled:   true,
		EmailAddress:   "ops@example.com",
		NotifyCritical: true,
	}
	if err := store.SaveNotifications(ctx, want); err != nil {
		t.Fatalf("SaveNotifications failed: %v", err)
	}

	got, err := store.Notifications(ctx)
	if err != nil {
		t.Fatalf("Notifications failed: %v", err)
	}
	if got.EmailAddress != "ops@example.com" || !got.EmailEnabled || !got.NotifyCritical {
		t.Fatalf("unexpected settings after save: %+v", got)
	}
	if got.NotifyWarning {
		t.Fatalf("expected notify_warning to be overwritten to false")
	}
}
