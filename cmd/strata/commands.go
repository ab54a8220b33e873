package main

import (
	"context"
	"fmt"
	"os"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkt"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/jobrunner/strata/internal/adapters/spatialite"
	"github.com/jobrunner/strata/internal/config"
	"github.com/jobrunner/strata/internal/domain"
	"github.com/jobrunner/strata/internal/refsys"
)

// One-shot commands operating directly on the database, without the
// HTTP server. Output is YAML on stdout.

var tablesCmd = &cobra.Command{
	Use:   "tables",
	Short: "List registered spatial tables",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withDB(cmd.Context(), func(ctx context.Context, db *spatialite.DB) error {
			tables, err := db.Geometries(ctx)
			if err != nil {
				return err
			}

			type tableDoc struct {
				Name    string `yaml:"name"`
				Column  string `yaml:"geometry_column"`
				Type    string `yaml:"geometry_type"`
				Dims    string `yaml:"dimension"`
				SRID    int    `yaml:"srid"`
				RefSys  string `yaml:"ref_sys,omitempty"`
				NotNull bool   `yaml:"not_null,omitempty"`
			}

			docs := make([]tableDoc, len(tables))
			for i, t := range tables {
				docs[i] = tableDoc{
					Name:    t.Name,
					Column:  t.GeometryColumn,
					Type:    string(t.GeometryType),
					Dims:    string(t.Dimension),
					SRID:    t.SRID,
					RefSys:  t.RefSysName,
					NotNull: t.NotNull,
				}
			}
			return writeYAML(docs)
		})
	},
}

var queryCmd = &cobra.Command{
	Use:   "query <sql>",
	Short: "Execute SQL and print the result frame",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(cmd.Context(), func(ctx context.Context, db *spatialite.DB) error {
			frame, err := db.Query(ctx, args[0])
			if err != nil {
				return err
			}

			rows := make([]map[string]any, frame.Len())
			for i, row := range frame.Rows {
				out := make(map[string]any, len(frame.Columns))
				for j, col := range frame.Columns {
					out[col] = cellValue(row[j])
				}
				rows[i] = out
			}

			doc := map[string]any{
				"columns": frame.Columns,
				"rows":    rows,
				"count":   frame.Len(),
			}
			if frame.CRS != nil {
				doc["crs"] = frame.CRS.String()
			}
			return writeYAML(doc)
		})
	},
}

var (
	importSRID    int
	importCharset string
	importIndex   bool
)

var importCmd = &cobra.Command{
	Use:   "import <shapefile> <table>",
	Short: "Import a shapefile into a new table",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(cmd.Context(), func(ctx context.Context, db *spatialite.DB) error {
			log, err := db.ImportShapefile(ctx, args[0], args[1], domain.ImportOptions{
				SRID:         importSRID,
				Charset:      importCharset,
				SpatialIndex: importIndex,
			})
			if err != nil {
				return err
			}
			return writeYAML(logDoc(log))
		})
	},
}

var exportCharset string

var exportCmd = &cobra.Command{
	Use:   "export <table> <path>",
	Short: "Export a table as a shapefile",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(cmd.Context(), func(ctx context.Context, db *spatialite.DB) error {
			log, err := db.ExportShapefile(ctx, args[0], args[1], domain.ExportOptions{
				Charset: exportCharset,
			})
			if err != nil {
				return err
			}
			return writeYAML(logDoc(log))
		})
	},
}

func init() {
	importCmd.Flags().IntVar(&importSRID, "srid", 0, "EPSG SRID of the shapefile")
	importCmd.Flags().StringVar(&importCharset, "charset", "UTF-8", "DBF character encoding")
	importCmd.Flags().BoolVar(&importIndex, "spatial-index", false, "build a spatial index")

	exportCmd.Flags().StringVar(&exportCharset, "charset", "UTF-8", "DBF character encoding")
}

// withDB opens the configured database, runs fn and closes it again.
func withDB(ctx context.Context, fn func(context.Context, *spatialite.DB) error) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := setupLogger(cfg.Logging)

	db, err := spatialite.Open(ctx, cfg.Database.Path, spatialite.Options{
		Relaxed: cfg.Database.Relaxed,
		Fetcher: refsys.NewFetcher(refsys.FetcherConfig{
			BaseURL: cfg.RefSys.BaseURL,
			Timeout: cfg.RefSys.Timeout,
		}),
	}, logger)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	return fn(ctx, db)
}

// cellValue converts a frame cell for YAML output.
func cellValue(cell any) any {
	switch v := cell.(type) {
	case orb.Geometry:
		return wkt.MarshalString(v)
	case []byte:
		return string(v)
	default:
		return v
	}
}

// logDoc converts an operation log for YAML output.
func logDoc(log domain.OperationLog) []map[string]any {
	docs := make([]map[string]any, len(log))
	for i, e := range log {
		docs[i] = map[string]any{
			"operation": e.Operation,
			"result":    e.Result,
		}
	}
	return docs
}

func writeYAML(doc any) error {
	enc := yaml.NewEncoder(os.Stdout)
	enc.SetIndent(2)
	defer enc.Close()
	return enc.Encode(doc)
}
