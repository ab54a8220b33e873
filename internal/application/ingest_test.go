package application

import (
	"context"
	"errors"
	"testing"

	"github.com/jobrunner/strata/internal/domain"
	"github.com/jobrunner/strata/internal/ports/output"
)

func TestGroupBundles(t *testing.T) {
	objects := []output.StorageObject{
		{Key: "data/parcels.shp"},
		{Key: "data/parcels.shx"},
		{Key: "data/parcels.dbf"},
		{Key: "data/parcels.prj"},
		{Key: "data/roads.shp"},
		{Key: "data/roads.dbf"},
		{Key: "data/orphan.dbf"}, // no .shp, not a bundle
		{Key: "readme.txt"},      // not a shapefile member
	}

	bundles := groupBundles(objects)
	if len(bundles) != 2 {
		t.Fatalf("groupBundles() returned %d bundles, want 2", len(bundles))
	}

	parcels, ok := bundles["parcels"]
	if !ok {
		t.Fatal("parcels bundle missing")
	}
	if len(parcels.Members) != 4 {
		t.Errorf("parcels has %d members, want 4", len(parcels.Members))
	}
	if parcels.Table != "parcels" {
		t.Errorf("parcels table = %q, want parcels", parcels.Table)
	}

	if _, ok := bundles["orphan"]; ok {
		t.Error("orphan group without .shp should be dropped")
	}
}

func TestIngestService_IngestBundle(t *testing.T) {
	repo := &mockRepository{existing: map[string]bool{}}
	metrics := newMockMetrics()
	service := NewIngestService(repo, &mockStorage{}, metrics, testLogger(), t.TempDir(), IngestConfig{SRID: 25832})

	bundle := &domain.Bundle{
		Name:    "parcels",
		Table:   "parcels",
		Members: []string{"data/parcels.shp", "data/parcels.dbf", "data/parcels.shx"},
	}

	if err := service.IngestBundle(context.Background(), bundle); err != nil {
		t.Fatalf("IngestBundle() error = %v", err)
	}

	status, err := service.GetBundleStatus(context.Background(), "parcels")
	if err != nil {
		t.Fatalf("GetBundleStatus() error = %v", err)
	}
	if status != domain.StatusReady {
		t.Errorf("status = %q, want %q", status, domain.StatusReady)
	}

	got, err := service.GetBundle(context.Background(), "parcels")
	if err != nil {
		t.Fatalf("GetBundle() error = %v", err)
	}
	if got.Features != 42 {
		t.Errorf("features = %d, want 42", got.Features)
	}
	if !got.IsReady() {
		t.Error("bundle should report ready after import")
	}
	if len(repo.imported) != 1 || repo.imported[0] != "parcels" {
		t.Errorf("imported tables = %v, want [parcels]", repo.imported)
	}
	if metrics.count("storage_download") != 3 {
		t.Errorf("download counter = %d, want 3", metrics.count("storage_download"))
	}
}

func TestIngestService_IngestBundleDownloadError(t *testing.T) {
	downloadErr := errors.New("connection refused")
	repo := &mockRepository{}
	storage := &mockStorage{downloadErr: downloadErr}
	service := NewIngestService(repo, storage, newMockMetrics(), testLogger(), t.TempDir(), IngestConfig{})

	bundle := &domain.Bundle{Name: "roads", Table: "roads", Members: []string{"roads.shp"}}
	err := service.IngestBundle(context.Background(), bundle)
	if err == nil {
		t.Fatal("IngestBundle() expected error")
	}

	var storageErr *domain.StorageError
	if !errors.As(err, &storageErr) {
		t.Errorf("error = %v, want *domain.StorageError", err)
	}

	status, _ := service.GetBundleStatus(context.Background(), "roads")
	if status != domain.StatusFailed {
		t.Errorf("status = %q, want %q", status, domain.StatusFailed)
	}
}

func TestIngestService_IngestBundleTableExists(t *testing.T) {
	repo := &mockRepository{existing: map[string]bool{"parcels": true}}
	service := NewIngestService(repo, &mockStorage{}, newMockMetrics(), testLogger(), t.TempDir(), IngestConfig{})

	bundle := &domain.Bundle{Name: "parcels", Table: "parcels", Members: []string{"parcels.shp"}}
	err := service.IngestBundle(context.Background(), bundle)
	if !errors.Is(err, domain.ErrTableExists) {
		t.Errorf("IngestBundle() error = %v, want ErrTableExists", err)
	}
}

func TestIngestService_Sync(t *testing.T) {
	storage := &mockStorage{
		objects: []output.StorageObject{
			{Key: "parcels.shp"},
			{Key: "parcels.dbf"},
			{Key: "roads.shp"},
		},
	}
	repo := &mockRepository{existing: map[string]bool{}}
	service := NewIngestService(repo, storage, newMockMetrics(), testLogger(), t.TempDir(), IngestConfig{})

	stats, err := service.Sync(context.Background())
	if err != nil {
		t.Fatalf("Sync() error = %v", err)
	}
	if stats.Added != 2 {
		t.Errorf("added = %d, want 2", stats.Added)
	}
	if service.BundleCount() != 2 {
		t.Errorf("bundle count = %d, want 2", service.BundleCount())
	}

	// Second sync is a no-op.
	stats, err = service.Sync(context.Background())
	if err != nil {
		t.Fatalf("Sync() error = %v", err)
	}
	if stats.Added != 0 {
		t.Errorf("added = %d, want 0 on repeat sync", stats.Added)
	}

	// Removing a bundle from storage untracks it.
	storage.objects = storage.objects[:2]
	stats, err = service.Sync(context.Background())
	if err != nil {
		t.Fatalf("Sync() error = %v", err)
	}
	if stats.Removed != 1 {
		t.Errorf("removed = %d, want 1", stats.Removed)
	}
	if service.IsTracked("roads") {
		t.Error("roads should be untracked after removal from storage")
	}
}

func TestIngestService_ListBundlesSorted(t *testing.T) {
	repo := &mockRepository{existing: map[string]bool{}}
	service := NewIngestService(repo, &mockStorage{}, newMockMetrics(), testLogger(), t.TempDir(), IngestConfig{})

	for _, name := range []string{"zulu", "alpha", "mike"} {
		bundle := &domain.Bundle{Name: name, Table: name, Members: []string{name + ".shp"}}
		if err := service.IngestBundle(context.Background(), bundle); err != nil {
			t.Fatalf("IngestBundle(%s) error = %v", name, err)
		}
	}

	bundles, err := service.ListBundles(context.Background())
	if err != nil {
		t.Fatalf("ListBundles() error = %v", err)
	}
	want := []string{"alpha", "mike", "zulu"}
	for i, b := range bundles {
		if b.Name != want[i] {
			t.Errorf("bundles[%d] = %q, want %q", i, b.Name, want[i])
		}
	}
}
