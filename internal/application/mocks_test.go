package application

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/jobrunner/strata/internal/domain"
	"github.com/jobrunner/strata/internal/ports/output"
)

// mockRepository implements output.SpatialRepository for testing.
type mockRepository struct {
	tables     map[string]domain.SpatialTable
	queryFrame *domain.Frame
	queryErr   error
	loadErr    error
	alterErr   error
	importErr  error
	exportErr  error
	versionErr error

	imported []string // tables created through ImportShapefile
	existing map[string]bool
}

func (m *mockRepository) Load(_ context.Context, frame *domain.Frame, table string, _ int, _ domain.LoadOptions) (domain.OperationLog, error) {
	var log domain.OperationLog
	if m.loadErr != nil {
		return log, m.loadErr
	}
	log.Append(domain.OpLoad, int64(frame.Len()))
	return log, nil
}

func (m *mockRepository) Query(_ context.Context, _ string, _ ...any) (*domain.Frame, error) {
	if m.queryErr != nil {
		return nil, m.queryErr
	}
	if m.queryFrame != nil {
		return m.queryFrame, nil
	}
	return domain.NewFrame(), nil
}

func (m *mockRepository) CreateTableAs(_ context.Context, _, _ string, _ int, _ domain.LoadOptions) (domain.OperationLog, error) {
	var log domain.OperationLog
	if m.loadErr != nil {
		return log, m.loadErr
	}
	log.Append(domain.OpLoad, 1)
	return log, nil
}

func (m *mockRepository) AlterGeometry(_ context.Context, _ string, _ domain.AlterOptions) (domain.OperationLog, error) {
	var log domain.OperationLog
	if m.alterErr != nil {
		return log, m.alterErr
	}
	log.Append(domain.OpAlterGeometry, 1)
	return log, nil
}

func (m *mockRepository) ImportShapefile(_ context.Context, _, table string, _ domain.ImportOptions) (domain.OperationLog, error) {
	var log domain.OperationLog
	if m.importErr != nil {
		return log, m.importErr
	}
	m.imported = append(m.imported, table)
	log.Append(domain.OpImportShapefile, 42)
	return log, nil
}

func (m *mockRepository) ExportShapefile(_ context.Context, _, _ string, _ domain.ExportOptions) (domain.OperationLog, error) {
	var log domain.OperationLog
	if m.exportErr != nil {
		return log, m.exportErr
	}
	log.Append(domain.OpExportShapefile, 42)
	return log, nil
}

func (m *mockRepository) Geometries(_ context.Context) ([]domain.SpatialTable, error) {
	tables := make([]domain.SpatialTable, 0, len(m.tables))
	for _, t := range m.tables {
		tables = append(tables, t)
	}
	return tables, nil
}

func (m *mockRepository) GetGeometryData(_ context.Context, table string) (domain.SpatialTable, error) {
	if t, ok := m.tables[table]; ok {
		return t, nil
	}
	return domain.SpatialTable{}, domain.ErrNotSpatial
}

func (m *mockRepository) IsSpatial(_ context.Context, table string) (bool, error) {
	_, ok := m.tables[table]
	return ok, nil
}

func (m *mockRepository) HasTable(_ context.Context, name string) (bool, error) {
	if m.existing != nil {
		return m.existing[name], nil
	}
	_, ok := m.tables[name]
	return ok, nil
}

func (m *mockRepository) TableNames(_ context.Context) ([]string, error) {
	names := make([]string, 0, len(m.tables))
	for name := range m.tables {
		names = append(names, name)
	}
	return names, nil
}

func (m *mockRepository) Version(_ context.Context) (string, error) {
	if m.versionErr != nil {
		return "", m.versionErr
	}
	return "5.1.0", nil
}

func (m *mockRepository) Path() string {
	return ":memory:"
}

func (m *mockRepository) Close() error {
	return nil
}

// mockStorage implements output.ObjectStorage for testing.
type mockStorage struct {
	objects     []output.StorageObject
	downloadErr error
	listErr     error
}

func (m *mockStorage) List(_ context.Context) ([]output.StorageObject, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.objects, nil
}

func (m *mockStorage) Download(_ context.Context, _, _ string) error {
	return m.downloadErr
}

func (m *mockStorage) GetReader(_ context.Context, _ string) (io.ReadCloser, error) {
	return nil, nil
}

func (m *mockStorage) Exists(_ context.Context, _ string) (bool, error) {
	return true, nil
}

// mockMetrics implements output.MetricsCollector recording its calls.
type mockMetrics struct {
	mu           sync.Mutex
	operations   map[string]int
	failures     map[string]int
	tablesLoaded int
}

func newMockMetrics() *mockMetrics {
	return &mockMetrics{
		operations: make(map[string]int),
		failures:   make(map[string]int),
	}
}

func (m *mockMetrics) IncOperationCount(operation string, success bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.operations[operation]++
	if !success {
		m.failures[operation]++
	}
}

func (m *mockMetrics) ObserveOperationDuration(_ string, _ time.Duration) {}

func (m *mockMetrics) SetTablesLoaded(count int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tablesLoaded = count
}

func (m *mockMetrics) IncStorageOperations(operation string, success bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.operations["storage_"+operation]++
	if !success {
		m.failures["storage_"+operation]++
	}
}

func (m *mockMetrics) ObserveStorageDuration(_ string, _ time.Duration) {}

func (m *mockMetrics) count(operation string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.operations[operation]
}
