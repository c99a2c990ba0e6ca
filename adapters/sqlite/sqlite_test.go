package sqlite_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/wellgate/wellgate/adapters/sqlite"
	"github.com/wellgate/wellgate/domain/checkin"
	"github.com/wellgate/wellgate/domain/org"
	"github.com/wellgate/wellgate/ports"
)

func openTestDB(t *testing.T) *sqlite.DB {
	t.Helper()
	db, err := sqlite.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := db.Migrate(); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	return db
}

func testOrg(id, name string, at time.Time) org.Organization {
	return org.Organization{
		ID:        id,
		Name:      name,
		Slug:      org.Slugify(name),
		Type:      org.TypeCompany,
		Settings:  org.DefaultSettings(),
		IsActive:  true,
		CreatedAt: at,
		UpdatedAt: at,
	}
}

func TestMigrateIsIdempotent(t *testing.T) {
	db := openTestDB(t)
	if err := db.Migrate(); err != nil {
		t.Fatalf("second Migrate: %v", err)
	}
}

func TestOrgStoreRoundTrip(t *testing.T) {
	store := sqlite.NewOrgStore(openTestDB(t))
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	in := testOrg("org-1", "Acme Corp", now)
	in.ParentID = ""
	if err := store.Create(ctx, in); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := store.Get(ctx, "org-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Name != in.Name || got.Slug != "acme-corp" || got.Type != org.TypeCompany {
		t.Errorf("got = %+v", got)
	}
	if got.Settings != org.DefaultSettings() {
		t.Errorf("Settings = %+v", got.Settings)
	}
	if !got.CreatedAt.Equal(now) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, now)
	}
	if got.DeletedAt != nil {
		t.Error("DeletedAt set on fresh row")
	}

	bySlug, err := store.GetBySlug(ctx, "acme-corp")
	if err != nil {
		t.Fatalf("GetBySlug: %v", err)
	}
	if bySlug.ID != "org-1" {
		t.Errorf("GetBySlug ID = %q", bySlug.ID)
	}
}

func TestOrgStoreDuplicateSlug(t *testing.T) {
	store := sqlite.NewOrgStore(openTestDB(t))
	ctx := context.Background()
	now := time.Now().UTC()

	if err := store.Create(ctx, testOrg("org-1", "Acme", now)); err != nil {
		t.Fatalf("Create: %v", err)
	}
	err := store.Create(ctx, testOrg("org-2", "Acme", now))
	if !errors.Is(err, ports.ErrDuplicate) {
		t.Fatalf("err = %v, want ErrDuplicate", err)
	}
}

func TestOrgStoreNotFound(t *testing.T) {
	store := sqlite.NewOrgStore(openTestDB(t))
	ctx := context.Background()

	if _, err := store.Get(ctx, "missing"); !errors.Is(err, ports.ErrNotFound) {
		t.Errorf("Get err = %v", err)
	}
	if err := store.Update(ctx, testOrg("missing", "X", time.Now())); !errors.Is(err, ports.ErrNotFound) {
		t.Errorf("Update err = %v", err)
	}
	if err := store.SoftDelete(ctx, "missing", time.Now()); !errors.Is(err, ports.ErrNotFound) {
		t.Errorf("SoftDelete err = %v", err)
	}
}

func TestOrgStoreUpdate(t *testing.T) {
	store := sqlite.NewOrgStore(openTestDB(t))
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	o := testOrg("org-1", "Acme", now)
	if err := store.Create(ctx, o); err != nil {
		t.Fatalf("Create: %v", err)
	}

	o.Name = "Acme Intl"
	o.Slug = "acme-intl"
	o.Settings.AlertThreshold = 2
	o.UpdatedAt = now.Add(time.Hour)
	if err := store.Update(ctx, o); err != nil {
		t.Fatalf("Update: %v", err)
	}

	got, err := store.Get(ctx, "org-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Name != "Acme Intl" || got.Settings.AlertThreshold != 2 {
		t.Errorf("got = %+v", got)
	}
}

func TestOrgStoreSoftDelete(t *testing.T) {
	store := sqlite.NewOrgStore(openTestDB(t))
	ctx := context.Background()
	now := time.Now().UTC()

	if err := store.Create(ctx, testOrg("org-1", "Acme", now)); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := store.SoftDelete(ctx, "org-1", now.Add(time.Minute)); err != nil {
		t.Fatalf("SoftDelete: %v", err)
	}

	if _, err := store.Get(ctx, "org-1"); !errors.Is(err, ports.ErrNotFound) {
		t.Errorf("Get after delete = %v", err)
	}
	if _, err := store.GetBySlug(ctx, "acme"); !errors.Is(err, ports.ErrNotFound) {
		t.Errorf("GetBySlug after delete = %v", err)
	}
	if n, _ := store.Count(ctx); n != 0 {
		t.Errorf("Count = %d", n)
	}

	// the soft-deleted row still holds its slug
	err := store.Create(ctx, testOrg("org-2", "Acme", now))
	if !errors.Is(err, ports.ErrDuplicate) {
		t.Errorf("Create with deleted slug = %v, want ErrDuplicate", err)
	}
}

func TestOrgStoreListPagination(t *testing.T) {
	store := sqlite.NewOrgStore(openTestDB(t))
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	names := []string{"Alpha", "Beta", "Gamma"}
	for i, name := range names {
		if err := store.Create(ctx, testOrg(name, name, base.Add(time.Duration(i)*time.Minute))); err != nil {
			t.Fatalf("Create %s: %v", name, err)
		}
	}

	page, err := store.List(ctx, 2, 1)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(page) != 2 || page[0].Name != "Beta" || page[1].Name != "Gamma" {
		t.Errorf("page = %+v", page)
	}

	n, err := store.Count(ctx)
	if err != nil || n != 3 {
		t.Errorf("Count = %d, %v", n, err)
	}
}

func TestCheckinStore(t *testing.T) {
	db := openTestDB(t)
	orgs := sqlite.NewOrgStore(db)
	store := sqlite.NewCheckinStore(db)
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

	if err := orgs.Create(ctx, testOrg("org-1", "Acme", base)); err != nil {
		t.Fatalf("create org: %v", err)
	}

	moods := []checkin.Mood{5, 3, 4}
	for i, m := range moods {
		c := checkin.Checkin{
			ID:        "chk-" + string(rune('a'+i)),
			OrgID:     "org-1",
			Mood:      m,
			Note:      "note",
			Anonymous: true,
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
		}
		if err := store.Create(ctx, c); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	newest, err := store.ListByOrg(ctx, "org-1", 2, 0)
	if err != nil {
		t.Fatalf("ListByOrg: %v", err)
	}
	if len(newest) != 2 || newest[0].Mood != 4 || newest[1].Mood != 3 {
		t.Errorf("newest = %+v", newest)
	}

	n, err := store.CountByOrg(ctx, "org-1")
	if err != nil || n != 3 {
		t.Errorf("CountByOrg = %d, %v", n, err)
	}

	// [base, base+2h) excludes the entry created at base+2h
	window, err := store.ListWindow(ctx, "org-1", base, base.Add(2*time.Hour))
	if err != nil {
		t.Fatalf("ListWindow: %v", err)
	}
	if len(window) != 2 || window[0].Mood != 5 || window[1].Mood != 3 {
		t.Errorf("window = %+v", window)
	}
}

func TestCheckinStoreForeignKey(t *testing.T) {
	store := sqlite.NewCheckinStore(openTestDB(t))
	err := store.Create(context.Background(), checkin.Checkin{
		ID: "chk-1", OrgID: "no-such-org", Mood: 3, CreatedAt: time.Now().UTC(),
	})
	if err == nil {
		t.Fatal("Create with unknown org succeeded")
	}
}
