package barwriter

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rxtech-lab/argo-snapshot/internal/logger"
	"github.com/rxtech-lab/argo-snapshot/internal/types"
	"github.com/rxtech-lab/argo-snapshot/pkg/errors"
	"go.uber.org/zap"
)

// CSVWriter appends bars to day-partitioned CSV files named
// {YYYY-MM-DD}_{ticker}.csv. A new partition is opened whenever a bar's
// calendar date differs from the open partition's date.
type CSVWriter struct {
	outDir   string
	ticker   string
	extended bool
	logger   *logger.Logger

	file        *os.File
	csv         *csv.Writer
	currentDate string
}

// NewCSVWriter creates a writer for one contract's bars. extended adds
// the bar_count and wap columns to the output.
func NewCSVWriter(outDir, ticker string, extended bool, log *logger.Logger) *CSVWriter {
	return &CSVWriter{
		outDir:      outDir,
		ticker:      ticker,
		extended:    extended,
		logger:      log,
		file:        nil,
		csv:         nil,
		currentDate: "",
	}
}

// NewCSVFactory returns a Factory producing CSV writers under outDir.
func NewCSVFactory(outDir string, extended bool, log *logger.Logger) Factory {
	return func(ticker string) (BarWriter, error) {
		return NewCSVWriter(outDir, ticker, extended, log), nil
	}
}

// Write appends a bar, rotating to a new partition file at date
// boundaries.
func (w *CSVWriter) Write(bar types.Bar) error {
	date := bar.Date()

	if w.file == nil || date != w.currentDate {
		if err := w.rotate(date); err != nil {
			return err
		}
	}

	record := []string{
		bar.Time.Format("2006-01-02 15:04:05"),
		fmt.Sprintf("%g", bar.Open),
		fmt.Sprintf("%g", bar.High),
		fmt.Sprintf("%g", bar.Low),
		fmt.Sprintf("%g", bar.Close),
		bar.Volume.String(),
	}
	if w.extended {
		record = append(record, fmt.Sprintf("%d", bar.BarCount), bar.WAP.String())
	}

	if err := w.csv.Write(record); err != nil {
		return errors.Wrap(errors.ErrCodeWriterWriteFailed, "failed to write bar row", err)
	}

	// Flush per row so a fatal shutdown never leaves a truncated record.
	w.csv.Flush()

	if err := w.csv.Error(); err != nil {
		return errors.Wrap(errors.ErrCodeWriterWriteFailed, "failed to flush bar row", err)
	}

	return nil
}

// Finalize flushes and closes the open partition, if any. Safe to call
// repeatedly.
func (w *CSVWriter) Finalize() error {
	if w.file == nil {
		return nil
	}

	w.csv.Flush()

	flushErr := w.csv.Error()
	closeErr := w.file.Close()

	w.logger.Info("Closed partition",
		zap.String("ticker", w.ticker),
		zap.String("date", w.currentDate),
	)

	w.file = nil
	w.csv = nil
	w.currentDate = ""

	if flushErr != nil {
		return errors.Wrap(errors.ErrCodeWriterCloseFailed, "failed to flush partition", flushErr)
	}

	if closeErr != nil {
		return errors.Wrap(errors.ErrCodeWriterCloseFailed, "failed to close partition", closeErr)
	}

	return nil
}

// rotate finalizes the current partition and opens the one for date,
// writing the header row first.
func (w *CSVWriter) rotate(date string) error {
	if err := w.Finalize(); err != nil {
		return err
	}

	if err := os.MkdirAll(w.outDir, 0755); err != nil {
		return errors.Wrap(errors.ErrCodeWriterOpenFailed, "failed to create output directory", err)
	}

	path := filepath.Join(w.outDir, fmt.Sprintf("%s_%s.csv", date, w.ticker))

	file, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeWriterOpenFailed, err, "failed to open partition %s", path)
	}

	w.file = file
	w.csv = csv.NewWriter(file)
	w.currentDate = date

	header := []string{"date", "open", "high", "low", "close", "volume"}
	if w.extended {
		header = append(header, "bar_count", "wap")
	}

	if err := w.csv.Write(header); err != nil {
		return errors.Wrap(errors.ErrCodeWriterWriteFailed, "failed to write header", err)
	}

	w.logger.Info("Opened partition", zap.String("path", path))

	return nil
}
