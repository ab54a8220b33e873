// Package application contains the application services.
package application

import (
	"context"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jobrunner/strata/internal/domain"
	"github.com/jobrunner/strata/internal/ports/output"
)

// sidecarExtensions are the shapefile member extensions grouped into one
// bundle. The .prj is optional; the first three are required.
var sidecarExtensions = map[string]bool{
	".shp": true,
	".shx": true,
	".dbf": true,
	".prj": true,
}

// IngestConfig holds configuration for bundle imports.
type IngestConfig struct {
	SRID      int    // SRID assigned to imported bundles
	Authority string // Registry authority for SRID resolution
	Charset   string // DBF character encoding
}

// IngestService tracks shapefile bundles in object storage and imports
// them as spatial tables.
type IngestService struct {
	mu        sync.RWMutex
	bundles   map[string]*bundleEntry
	repo      output.SpatialRepository
	storage   output.ObjectStorage
	metrics   output.MetricsCollector
	logger    *slog.Logger
	localPath string
	cfg       IngestConfig
}

type bundleEntry struct {
	Bundle *domain.Bundle
	Status domain.BundleStatus
	Error  error
}

// NewIngestService creates a new ingest service.
func NewIngestService(
	repo output.SpatialRepository,
	storage output.ObjectStorage,
	metrics output.MetricsCollector,
	logger *slog.Logger,
	localPath string,
	cfg IngestConfig,
) *IngestService {
	if cfg.SRID == 0 {
		cfg.SRID = domain.SRIDWGS84
	}
	return &IngestService{
		bundles:   make(map[string]*bundleEntry),
		repo:      repo,
		storage:   storage,
		metrics:   metrics,
		logger:    logger,
		localPath: localPath,
		cfg:       cfg,
	}
}

// IngestBundle downloads the bundle members and imports the shapefile as
// a spatial table. Already-existing tables are skipped.
func (s *IngestService) IngestBundle(ctx context.Context, bundle *domain.Bundle) error {
	s.logger.Info("ingesting bundle", "name", bundle.Name, "members", len(bundle.Members))

	s.mu.Lock()
	s.bundles[bundle.Name] = &bundleEntry{
		Bundle: bundle,
		Status: domain.StatusIngesting,
	}
	s.mu.Unlock()

	if err := s.downloadMembers(ctx, bundle); err != nil {
		s.fail(bundle.Name, err)
		return err
	}

	exists, err := s.repo.HasTable(ctx, bundle.Table)
	if err != nil {
		s.fail(bundle.Name, err)
		return err
	}
	if exists {
		s.logger.Warn("table already exists, skipping import", "table", bundle.Table)
		s.fail(bundle.Name, domain.ErrTableExists)
		return domain.ErrTableExists
	}

	log, err := s.repo.ImportShapefile(ctx, bundle.LocalPath, bundle.Table, domain.ImportOptions{
		SRID:      s.cfg.SRID,
		Authority: s.cfg.Authority,
		Charset:   s.cfg.Charset,
	})
	if err != nil {
		s.fail(bundle.Name, err)
		return err
	}
	features, _ := log.Result(domain.OpImportShapefile)

	s.mu.Lock()
	if entry, ok := s.bundles[bundle.Name]; ok {
		entry.Status = domain.StatusReady
		entry.Bundle.Features = features
		entry.Bundle.ImportedAt = time.Now()
	}
	s.mu.Unlock()

	s.updateMetrics()
	s.logger.Info("bundle ingested", "name", bundle.Name, "table", bundle.Table, "features", features)
	return nil
}

// downloadMembers fetches every bundle member into the local cache.
func (s *IngestService) downloadMembers(ctx context.Context, bundle *domain.Bundle) error {
	for _, key := range bundle.Members {
		start := time.Now()
		dest := filepath.Join(s.localPath, filepath.Base(key))
		err := s.storage.Download(ctx, key, dest)
		s.metrics.IncStorageOperations("download", err == nil)
		s.metrics.ObserveStorageDuration("download", time.Since(start))
		if err != nil {
			return &domain.StorageError{Operation: "download", Key: key, Err: err}
		}
	}
	bundle.LocalPath = filepath.Join(s.localPath, bundle.Name)
	return nil
}

func (s *IngestService) fail(name string, err error) {
	s.mu.Lock()
	if entry, ok := s.bundles[name]; ok {
		entry.Status = domain.StatusFailed
		entry.Error = err
	}
	s.mu.Unlock()
	s.updateMetrics()
}

// ListBundles returns all tracked bundles.
func (s *IngestService) ListBundles(_ context.Context) ([]domain.Bundle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	bundles := make([]domain.Bundle, 0, len(s.bundles))
	for _, entry := range s.bundles {
		bundles = append(bundles, *entry.Bundle)
	}
	sort.Slice(bundles, func(i, j int) bool { return bundles[i].Name < bundles[j].Name })
	return bundles, nil
}

// GetBundle returns a tracked bundle by name.
func (s *IngestService) GetBundle(_ context.Context, name string) (*domain.Bundle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.bundles[name]
	if !ok {
		return nil, domain.ErrBundleNotFound
	}
	return entry.Bundle, nil
}

// GetBundleStatus returns the lifecycle state of a tracked bundle.
func (s *IngestService) GetBundleStatus(_ context.Context, name string) (domain.BundleStatus, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.bundles[name]
	if !ok {
		return "", domain.ErrBundleNotFound
	}
	return entry.Status, nil
}

// IsTracked returns true if a bundle with the given name is tracked.
func (s *IngestService) IsTracked(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.bundles[name]
	return ok
}

// BundleCount returns the number of tracked bundles.
func (s *IngestService) BundleCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.bundles)
}

func (s *IngestService) updateMetrics() {
	s.mu.RLock()
	ready := 0
	for _, entry := range s.bundles {
		if entry.Status == domain.StatusReady {
			ready++
		}
	}
	s.mu.RUnlock()

	s.metrics.SetTablesLoaded(ready)
}

// LoadAll discovers and ingests every bundle currently in storage.
func (s *IngestService) LoadAll(ctx context.Context) error {
	s.logger.Info("ingesting all bundles from storage")

	objects, err := s.storage.List(ctx)
	if err != nil {
		return err
	}

	for _, bundle := range groupBundles(objects) {
		if err := s.IngestBundle(ctx, bundle); err != nil {
			s.logger.Error("failed to ingest bundle", "name", bundle.Name, "error", err)
		}
	}
	return nil
}

// SyncStats contains statistics from a sync operation.
type SyncStats struct {
	Added   int
	Removed int
}

// Sync reconciles the tracked bundles with remote storage: new bundles
// are ingested, bundles no longer present remotely are untracked. The
// imported tables are kept; dropping them is left to the operator.
func (s *IngestService) Sync(ctx context.Context) (SyncStats, error) {
	s.logger.Info("syncing bundles from storage")

	objects, err := s.storage.List(ctx)
	if err != nil {
		return SyncStats{}, err
	}
	remote := groupBundles(objects)

	stats := SyncStats{}
	for name, bundle := range remote {
		if s.IsTracked(name) {
			s.logger.Debug("bundle already tracked, skipping", "name", name)
			continue
		}
		if err := s.IngestBundle(ctx, bundle); err != nil {
			s.logger.Error("failed to ingest bundle", "name", name, "error", err)
			continue
		}
		stats.Added++
		s.logger.Info("new bundle synced", "name", name)
	}

	for _, name := range s.findBundlesToRemove(remote) {
		s.logger.Info("untracking bundle not in remote storage", "name", name)
		s.mu.Lock()
		delete(s.bundles, name)
		s.mu.Unlock()
		stats.Removed++
	}

	s.updateMetrics()
	s.logger.Info("sync completed", "added", stats.Added, "removed", stats.Removed, "total", s.BundleCount())
	return stats, nil
}

// findBundlesToRemove returns bundle names that are tracked but no
// longer present in remote storage.
func (s *IngestService) findBundlesToRemove(remote map[string]*domain.Bundle) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var toRemove []string
	for name := range s.bundles {
		if _, exists := remote[name]; !exists {
			toRemove = append(toRemove, name)
		}
	}
	return toRemove
}

// groupBundles groups storage objects into shapefile bundles by their
// extension-less base name. Groups without a .shp member are dropped.
func groupBundles(objects []output.StorageObject) map[string]*domain.Bundle {
	grouped := make(map[string]*domain.Bundle)
	hasShp := make(map[string]bool)

	for _, obj := range objects {
		ext := strings.ToLower(filepath.Ext(obj.Key))
		if !sidecarExtensions[ext] {
			continue
		}
		name := deriveBundleName(obj.Key)
		bundle, ok := grouped[name]
		if !ok {
			bundle = &domain.Bundle{Name: name, Table: name}
			grouped[name] = bundle
		}
		bundle.Members = append(bundle.Members, obj.Key)
		if ext == ".shp" {
			hasShp[name] = true
		}
	}

	for name := range grouped {
		if !hasShp[name] {
			delete(grouped, name)
		}
	}
	return grouped
}

// deriveBundleName extracts a bundle name from a member object key.
func deriveBundleName(key string) string {
	base := filepath.Base(key)
	ext := filepath.Ext(base)
	return base[:len(base)-len(ext)]
}
