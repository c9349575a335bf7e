package ledger

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/jonathan/outreach-agent/internal/types"
)

var (
	sendHeader    = []string{"name", "email", "date_sent"}
	failureHeader = []string{"name", "email", "bio_link", "reason", "date"}
)

// CSVStore keeps the ledger in two append-only CSV files: the sent log and
// the failed-outreach log.
type CSVStore struct {
	SendsPath    string
	FailuresPath string
}

// NewCSVStore creates a CSVStore, creating parent directories as needed.
func NewCSVStore(sendsPath, failuresPath string) (*CSVStore, error) {
	for _, p := range []string{sendsPath, failuresPath} {
		if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			return nil, fmt.Errorf("failed to create ledger directory: %w", err)
		}
	}
	return &CSVStore{SendsPath: sendsPath, FailuresPath: failuresPath}, nil
}

// AppendSend appends one row to the sent log and fsyncs it.
func (s *CSVStore) AppendSend(_ context.Context, rec types.SendRecord) error {
	return appendRow(s.SendsPath, sendHeader, []string{rec.Name, rec.Contact, rec.Date})
}

// AppendFailure appends one row to the failed-outreach log and fsyncs it.
func (s *CSVStore) AppendFailure(_ context.Context, rec types.FailureRecord) error {
	return appendRow(s.FailuresPath, failureHeader, []string{
		rec.Name, rec.Contact, rec.ProfileLink, string(rec.Reason), rec.Date,
	})
}

// Sends reads every row of the sent log.
func (s *CSVStore) Sends(_ context.Context) ([]types.SendRecord, error) {
	rows, err := readRows(s.SendsPath, sendHeader)
	if err != nil {
		return nil, err
	}
	out := make([]types.SendRecord, 0, len(rows))
	for _, r := range rows {
		date := r["date_sent"]
		if date == "" {
			date = r["date"]
		}
		out = append(out, types.SendRecord{Name: r["name"], Contact: r["email"], Date: date})
	}
	return out, nil
}

// Failures reads every row of the failed-outreach log.
func (s *CSVStore) Failures(_ context.Context) ([]types.FailureRecord, error) {
	rows, err := readRows(s.FailuresPath, failureHeader)
	if err != nil {
		return nil, err
	}
	out := make([]types.FailureRecord, 0, len(rows))
	for _, r := range rows {
		out = append(out, types.FailureRecord{
			Name:        r["name"],
			Contact:     r["email"],
			ProfileLink: r["bio_link"],
			Reason:      types.ReasonCode(r["reason"]),
			Date:        r["date"],
		})
	}
	return out, nil
}

// Close is a no-op; files are opened per append.
func (s *CSVStore) Close() error {
	return nil
}

func appendRow(path string, header, row []string) (err error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close %s: %w", path, cerr)
		}
	}()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", path, err)
	}

	w := csv.NewWriter(f)
	if info.Size() == 0 {
		if err := w.Write(header); err != nil {
			return fmt.Errorf("failed to write header to %s: %w", path, err)
		}
	}
	if err := w.Write(row); err != nil {
		return fmt.Errorf("failed to write row to %s: %w", path, err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to flush %s: %w", path, err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("failed to sync %s: %w", path, err)
	}
	return nil
}

// readRows returns each data row keyed by column name. A missing file is an
// empty ledger. Files without a header row are read positionally.
func readRows(path string, defaultHeader []string) ([]map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	var header []string
	var rows []map[string]string
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
		if header == nil {
			if len(rec) > 0 && strings.EqualFold(strings.TrimSpace(rec[0]), "name") {
				header = normalizeHeader(rec)
				continue
			}
			header = defaultHeader
		}
		row := make(map[string]string, len(header))
		for i, col := range header {
			if i < len(rec) {
				row[col] = rec[i]
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func normalizeHeader(rec []string) []string {
	out := make([]string, len(rec))
	for i, h := range rec {
		out[i] = strings.ToLower(strings.TrimSpace(h))
	}
	return out
}
