package barwriter

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	_ "github.com/marcboeker/go-duckdb"
	"go.uber.org/zap"

	"github.com/rxtech-lab/argo-snapshot/internal/logger"
	"github.com/rxtech-lab/argo-snapshot/internal/types"
	"github.com/rxtech-lab/argo-snapshot/pkg/errors"
)

// DuckDBWriter accumulates one contract's bars in an in-memory DuckDB
// table and exports them to {outDir}/{ticker}.parquet on Finalize.
type DuckDBWriter struct {
	outDir string
	ticker string
	logger *logger.Logger

	db *sql.DB
	sq squirrel.StatementBuilderType
}

// NewDuckDBWriter opens the in-memory database and creates the bars table.
func NewDuckDBWriter(outDir, ticker string, log *logger.Logger) (*DuckDBWriter, error) {
	db, err := sql.Open("duckdb", ":memory:")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeWriterInitFailed, "failed to open DuckDB connection", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS bars (
			id TEXT,
			time TIMESTAMP,
			ticker TEXT,
			open DOUBLE,
			high DOUBLE,
			low DOUBLE,
			close DOUBLE,
			volume DOUBLE,
			bar_count INTEGER,
			wap DOUBLE
		)
	`)
	if err != nil {
		db.Close()

		return nil, errors.Wrap(errors.ErrCodeWriterInitFailed, "failed to create bars table", err)
	}

	return &DuckDBWriter{
		outDir: outDir,
		ticker: ticker,
		logger: log,
		db:     db,
		sq:     squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question),
	}, nil
}

// NewDuckDBFactory returns a Factory producing Parquet-exporting writers
// under outDir.
func NewDuckDBFactory(outDir string, log *logger.Logger) Factory {
	return func(ticker string) (BarWriter, error) {
		return NewDuckDBWriter(outDir, ticker, log)
	}
}

// Write inserts a single bar row.
func (w *DuckDBWriter) Write(bar types.Bar) error {
	if w.db == nil {
		return errors.New(errors.ErrCodeWriterWriteFailed, "writer already finalized")
	}

	volume, _ := bar.Volume.Float64()
	wap, _ := bar.WAP.Float64()

	_, err := w.sq.Insert("bars").
		Columns("id", "time", "ticker", "open", "high", "low", "close", "volume", "bar_count", "wap").
		Values(uuid.New().String(), bar.Time, w.ticker, bar.Open, bar.High, bar.Low, bar.Close, volume, bar.BarCount, wap).
		RunWith(w.db).
		Exec()
	if err != nil {
		return errors.Wrap(errors.ErrCodeWriterWriteFailed, "failed to insert bar", err)
	}

	return nil
}

// Finalize exports the accumulated bars to Parquet and releases the
// database. Subsequent calls are no-ops.
func (w *DuckDBWriter) Finalize() error {
	if w.db == nil {
		return nil
	}

	db := w.db
	w.db = nil

	defer db.Close()

	if err := os.MkdirAll(w.outDir, 0755); err != nil {
		return errors.Wrap(errors.ErrCodeWriterOpenFailed, "failed to create output directory", err)
	}

	outputPath := filepath.Join(w.outDir, fmt.Sprintf("%s.parquet", w.ticker))

	_, err := db.Exec(fmt.Sprintf(`
		COPY (SELECT * FROM bars ORDER BY time ASC)
		TO '%s' (FORMAT PARQUET)
	`, outputPath))
	if err != nil {
		return errors.Wrap(errors.ErrCodeWriterCloseFailed, "failed to export to Parquet", err)
	}

	w.logger.Info("Exported bars", zap.String("path", outputPath))

	return nil
}
