package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkt"

	"github.com/jobrunner/strata/internal/application"
	"github.com/jobrunner/strata/internal/domain"
)

// queryRequest is the body of a POST /api/v1/query request.
type queryRequest struct {
	SQL  string `json:"sql"`
	Args []any  `json:"args,omitempty"`
}

// createTableRequest is the body of a POST /api/v1/tables/{table} request.
type createTableRequest struct {
	Query          string `json:"query"`
	SRID           int    `json:"srid"`
	IfExists       string `json:"if_exists,omitempty"`
	Authority      string `json:"authority,omitempty"`
	SkipValidation bool   `json:"skip_validation,omitempty"`
}

// alterRequest is the body of a POST /api/v1/tables/{table}/alter request.
// Omitted fields keep the current registration.
type alterRequest struct {
	SRID     *int   `json:"srid,omitempty"`
	GeomType string `json:"geom_type,omitempty"`
	Dims     string `json:"dims,omitempty"`
	NotNull  *bool  `json:"not_null,omitempty"`
}

// importRequest is the body of a POST /api/v1/tables/{table}/import request.
type importRequest struct {
	Path         string `json:"path"`
	Charset      string `json:"charset,omitempty"`
	SRID         int    `json:"srid,omitempty"`
	GeomColumn   string `json:"geom_column,omitempty"`
	PKColumn     string `json:"pk_column,omitempty"`
	GeomType     string `json:"geom_type,omitempty"`
	CoerceTo2D   bool   `json:"coerce_2d,omitempty"`
	Compressed   bool   `json:"compressed,omitempty"`
	SpatialIndex bool   `json:"spatial_index,omitempty"`
	TextDates    bool   `json:"text_dates,omitempty"`
	Authority    string `json:"authority,omitempty"`
}

// exportRequest is the body of a POST /api/v1/tables/{table}/export request.
type exportRequest struct {
	Path       string `json:"path"`
	GeomColumn string `json:"geom_column,omitempty"`
	Charset    string `json:"charset,omitempty"`
	GeomType   string `json:"geom_type,omitempty"`
}

// handleQuery executes raw SQL and returns the post-processed frame.
func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.SQL == "" {
		s.writeError(w, http.StatusBadRequest, "sql is required")
		return
	}

	frame, err := s.query.Query(r.Context(), req.SQL, req.Args...)
	if err != nil {
		s.handleServiceError(w, err, "query")
		return
	}

	s.writeJSON(w, http.StatusOK, formatFrame(frame))
}

// handleCreateTableAs materializes a SELECT statement as a new table.
func (s *Server) handleCreateTableAs(w http.ResponseWriter, r *http.Request) {
	table := mux.Vars(r)["table"]

	var req createTableRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Query == "" {
		s.writeError(w, http.StatusBadRequest, "query is required")
		return
	}

	opts := domain.LoadOptions{
		SkipValidation: req.SkipValidation,
		IfExists:       domain.IfExists(req.IfExists),
		Authority:      req.Authority,
	}

	log, err := s.query.CreateTableAs(r.Context(), table, req.Query, req.SRID, opts)
	if err != nil {
		s.handleServiceError(w, err, "create table")
		return
	}

	s.writeJSON(w, http.StatusCreated, formatOperationLog(table, log))
}

// handleAlter rebuilds the geometry column of a spatial table.
func (s *Server) handleAlter(w http.ResponseWriter, r *http.Request) {
	table := mux.Vars(r)["table"]

	var req alterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	opts := domain.AlterOptions{
		SRID:     req.SRID,
		GeomType: req.GeomType,
		Dims:     domain.Dimension(req.Dims),
		NotNull:  req.NotNull,
	}
	if opts.Dims != "" && !domain.ValidDimension(opts.Dims) {
		s.writeError(w, http.StatusBadRequest, "invalid dims: use XY, XYZ, XYM or XYZM")
		return
	}

	log, err := s.etl.AlterGeometry(r.Context(), table, opts)
	if err != nil {
		s.handleServiceError(w, err, "alter")
		return
	}

	s.writeJSON(w, http.StatusOK, formatOperationLog(table, log))
}

// handleImport imports a server-side shapefile into a new table.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	table := mux.Vars(r)["table"]

	var req importRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Path == "" {
		s.writeError(w, http.StatusBadRequest, "path is required")
		return
	}

	opts := domain.ImportOptions{
		Charset:      req.Charset,
		SRID:         req.SRID,
		GeomColumn:   req.GeomColumn,
		PKColumn:     req.PKColumn,
		GeomType:     req.GeomType,
		CoerceTo2D:   req.CoerceTo2D,
		Compressed:   req.Compressed,
		SpatialIndex: req.SpatialIndex,
		TextDates:    req.TextDates,
		Authority:    req.Authority,
	}

	log, err := s.etl.ImportShapefile(r.Context(), req.Path, table, opts)
	if err != nil {
		s.handleServiceError(w, err, "import")
		return
	}

	s.writeJSON(w, http.StatusCreated, formatOperationLog(table, log))
}

// handleExport exports a table as a server-side shapefile.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	table := mux.Vars(r)["table"]

	var req exportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Path == "" {
		s.writeError(w, http.StatusBadRequest, "path is required")
		return
	}

	opts := domain.ExportOptions{
		GeomColumn: req.GeomColumn,
		Charset:    req.Charset,
		GeomType:   req.GeomType,
	}

	log, err := s.etl.ExportShapefile(r.Context(), table, req.Path, opts)
	if err != nil {
		s.handleServiceError(w, err, "export")
		return
	}

	s.writeJSON(w, http.StatusOK, formatOperationLog(table, log))
}

// handleListTables returns all registered spatial tables.
func (s *Server) handleListTables(w http.ResponseWriter, r *http.Request) {
	tables, err := s.catalog.ListTables(r.Context())
	if err != nil {
		s.handleServiceError(w, err, "list tables")
		return
	}

	response := make([]map[string]interface{}, len(tables))
	for i := range tables {
		response[i] = formatTable(&tables[i])
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"tables": response,
		"count":  len(tables),
	})
}

// handleGetTable returns the catalog record for a single table.
func (s *Server) handleGetTable(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["table"]

	table, err := s.catalog.GetTable(r.Context(), name)
	if err != nil {
		s.handleServiceError(w, err, "get table")
		return
	}

	s.writeJSON(w, http.StatusOK, formatTable(&table))
}

// handleListBundles returns all tracked shapefile bundles.
func (s *Server) handleListBundles(w http.ResponseWriter, r *http.Request) {
	bundles, err := s.ingest.ListBundles(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "Failed to list bundles")
		return
	}

	response := make([]map[string]interface{}, len(bundles))
	for i := range bundles {
		response[i] = s.formatBundle(r, &bundles[i])
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"bundles": response,
		"count":   len(bundles),
	})
}

// handleGetBundle returns a single tracked bundle.
func (s *Server) handleGetBundle(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["bundle"]

	bundle, err := s.ingest.GetBundle(r.Context(), name)
	if err != nil {
		if errors.Is(err, domain.ErrBundleNotFound) {
			s.writeError(w, http.StatusNotFound, "Bundle not found")
			return
		}
		s.writeError(w, http.StatusInternalServerError, "Failed to get bundle")
		return
	}

	s.writeJSON(w, http.StatusOK, s.formatBundle(r, bundle))
}

// handleSync handles the sync trigger endpoint.
func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	result, err := s.syncService.TriggerSync(r.Context())
	if err != nil {
		if errors.Is(err, application.ErrRateLimited) {
			w.Header().Set("Retry-After", "30")
			s.writeError(w, http.StatusTooManyRequests, "Rate limit exceeded. Try again in 30 seconds.")
			return
		}
		s.logger.Error("sync failed", "error", err)
		s.writeError(w, http.StatusInternalServerError, "Sync failed")
		return
	}

	s.writeJSON(w, http.StatusOK, result)
}

// handleHealth returns detailed health status.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	details := s.health.GetHealthDetails(r.Context())

	status := http.StatusOK
	if !details.Healthy {
		status = http.StatusServiceUnavailable
	}

	s.writeJSON(w, status, map[string]interface{}{
		"status":             boolToStatus(details.Healthy),
		"ready":              details.Ready,
		"tables_loaded":      details.TablesLoaded,
		"spatialite_version": details.SpatialiteVersion,
		"components":         details.Components,
	})
}

// handleLiveness returns liveness status.
func (s *Server) handleLiveness(w http.ResponseWriter, r *http.Request) {
	if s.health.IsHealthy(r.Context()) {
		s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	} else {
		s.writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy"})
	}
}

// handleReadiness returns readiness status.
func (s *Server) handleReadiness(w http.ResponseWriter, r *http.Request) {
	if s.health.IsReady(r.Context()) {
		s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	} else {
		s.writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not ready"})
	}
}

// handleOpenAPI returns the OpenAPI specification.
func (s *Server) handleOpenAPI(w http.ResponseWriter, _ *http.Request) {
	spec, err := getOpenAPIJSON()
	if err != nil {
		s.logger.Error("failed to get OpenAPI spec", "error", err)
		s.writeError(w, http.StatusInternalServerError, "Failed to load OpenAPI specification")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(spec)
}

// formatFrame formats a query result frame for JSON output. Geometry
// cells are rendered as WKT so the row values stay JSON-scalar.
func formatFrame(frame *domain.Frame) map[string]interface{} {
	rows := make([][]any, len(frame.Rows))
	for i, row := range frame.Rows {
		out := make([]any, len(row))
		for j, cell := range row {
			out[j] = formatCell(cell)
		}
		rows[i] = out
	}

	resp := map[string]interface{}{
		"columns": frame.Columns,
		"rows":    rows,
		"count":   len(rows),
	}
	if frame.CRS != nil {
		resp["crs"] = map[string]interface{}{
			"srid":      frame.CRS.SRID,
			"authority": frame.CRS.Authority,
			"proj4":     frame.CRS.Proj4,
		}
	}
	return resp
}

// formatCell converts a single cell value for JSON transport.
func formatCell(cell any) any {
	switch v := cell.(type) {
	case orb.Geometry:
		return wkt.MarshalString(v)
	case []byte:
		return string(v)
	default:
		return v
	}
}

// formatOperationLog formats an operation audit trail for JSON output.
func formatOperationLog(table string, log domain.OperationLog) map[string]interface{} {
	operations := make([]map[string]interface{}, len(log))
	for i, e := range log {
		operations[i] = map[string]interface{}{
			"operation": e.Operation,
			"result":    e.Result,
		}
	}
	return map[string]interface{}{
		"table":      table,
		"operations": operations,
	}
}

// formatTable formats a geometry catalog record for JSON output.
func formatTable(t *domain.SpatialTable) map[string]interface{} {
	resp := map[string]interface{}{
		"name":            t.Name,
		"geometry_column": t.GeometryColumn,
		"geometry_type":   string(t.GeometryType),
		"dimension":       string(t.Dimension),
		"srid":            t.SRID,
		"not_null":        t.NotNull,
	}
	if t.RefSysName != "" {
		resp["ref_sys"] = map[string]interface{}{
			"name":      t.RefSysName,
			"authority": t.Authority,
			"proj4":     t.Proj4,
		}
	}
	return resp
}

// formatBundle formats a tracked bundle for JSON output.
func (s *Server) formatBundle(r *http.Request, b *domain.Bundle) map[string]interface{} {
	resp := map[string]interface{}{
		"name":     b.Name,
		"table":    b.Table,
		"members":  b.Members,
		"features": b.Features,
		"ready":    b.IsReady(),
	}
	if b.IsReady() {
		resp["imported_at"] = b.ImportedAt
	}
	if status, err := s.ingest.GetBundleStatus(r.Context(), b.Name); err == nil {
		resp["status"] = string(status)
	}
	return resp
}

// handleServiceError maps domain errors to HTTP status codes.
func (s *Server) handleServiceError(w http.ResponseWriter, err error, op string) {
	switch {
	case errors.Is(err, domain.ErrTableExists):
		s.writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		s.writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrInvalidInput):
		s.writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrRelaxedSecurity):
		s.writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, domain.ErrUnsupported):
		s.writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, domain.ErrUnavailable):
		s.writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		s.logger.Error(op+" failed", "error", err)
		s.writeError(w, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
	}
}

// writeJSON writes a JSON response.
func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes an error response.
func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]interface{}{
		"error":   http.StatusText(status),
		"message": message,
	})
}

func boolToStatus(b bool) string {
	if b {
		return "ok"
	}
	return "unhealthy"
}
