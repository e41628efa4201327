// Package sheet implements a RecordStore over an xlsx workbook. It stands in
// for the remote spreadsheet the quotes live in: Load reads every row with
// tolerant cell parsing and Save overwrites the whole workbook.
package sheet

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/xuri/excelize/v2"

	"quotecore/pkg/domain"
)

var _ domain.RecordStore = (*Store)(nil)

const (
	quoteSheet   = "Quotes"
	projectSheet = "Projects"
)

var quoteHeader = []interface{}{
	"ID", "Selected", "Project", "Item", "Supplier", "UnitPrice", "Quantity",
	"Total", "ExpectedDelivery", "Status", "LatestArrival", "UpdatedAt",
	"Attachment", "MarkedForDeletion",
}

var projectHeader = []interface{}{"Name", "DueDate", "BufferDays", "UpdatedAt"}

// Store reads and writes a workbook at a fixed path.
type Store struct {
	mu   sync.Mutex
	path string
}

// NewStore returns a workbook-backed record store. An empty path defaults to
// quotes.xlsx in the working directory.
func NewStore(path string) (*Store, error) {
	if path == "" {
		path = "quotes.xlsx"
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("create dirs: %w", err)
		}
	}
	return &Store{path: path}, nil
}

// Driver returns the record driver identifier.
func (s *Store) Driver() string { return "sheet" }

// Path returns the configured workbook path.
func (s *Store) Path() string { return s.path }

// Load reads both sheets into a snapshot. A missing workbook yields an empty
// snapshot rather than an error. Rows without a usable ID or name are
// skipped; other unparseable cells fall back to zero values.
func (s *Store) Load(_ context.Context) (domain.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, err := excelize.OpenFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return domain.Snapshot{}, nil
	}
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("open workbook: %w", err)
	}
	defer func() { _ = f.Close() }()
	var snapshot domain.Snapshot
	quoteRows, err := f.GetRows(quoteSheet)
	if err == nil {
		for i, row := range quoteRows {
			if i == 0 {
				continue
			}
			if q, ok := decodeQuoteRow(row); ok {
				snapshot.Quotes = append(snapshot.Quotes, q)
			}
		}
	}
	projectRows, err := f.GetRows(projectSheet)
	if err == nil {
		for i, row := range projectRows {
			if i == 0 {
				continue
			}
			if p, ok := decodeProjectRow(row); ok {
				snapshot.Projects = append(snapshot.Projects, p)
			}
		}
	}
	return snapshot, nil
}

// Save rebuilds the workbook from the snapshot and overwrites the file.
func (s *Store) Save(_ context.Context, snapshot domain.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()
	if err := f.SetSheetName(f.GetSheetName(0), quoteSheet); err != nil {
		return err
	}
	if _, err := f.NewSheet(projectSheet); err != nil {
		return err
	}
	if err := f.SetSheetRow(quoteSheet, "A1", &quoteHeader); err != nil {
		return err
	}
	for i, q := range snapshot.Quotes {
		row := encodeQuoteRow(q)
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(quoteSheet, cell, &row); err != nil {
			return err
		}
	}
	if err := f.SetSheetRow(projectSheet, "A1", &projectHeader); err != nil {
		return err
	}
	for i, p := range snapshot.Projects {
		row := encodeProjectRow(p)
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(projectSheet, cell, &row); err != nil {
			return err
		}
	}
	if err := f.SaveAs(s.path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	return nil
}

func encodeQuoteRow(q domain.Quote) []interface{} {
	return []interface{}{
		strconv.Itoa(q.ID),
		domain.FormatBool(q.Selected),
		q.Project,
		q.Item,
		q.Supplier,
		strconv.FormatFloat(q.UnitPrice, 'f', -1, 64),
		strconv.Itoa(q.Quantity),
		strconv.FormatFloat(q.Total, 'f', -1, 64),
		q.ExpectedDelivery.String(),
		string(q.Status),
		q.LatestArrival.String(),
		domain.FormatTimestamp(q.UpdatedAt),
		q.Attachment,
		domain.FormatBool(q.MarkedForDeletion),
	}
}

func encodeProjectRow(p domain.Project) []interface{} {
	return []interface{}{
		p.Name,
		p.DueDate.String(),
		strconv.Itoa(p.BufferDays),
		domain.FormatTimestamp(p.UpdatedAt),
	}
}

func cellAt(row []string, idx int) string {
	if idx < len(row) {
		return row[idx]
	}
	return ""
}

func decodeQuoteRow(row []string) (domain.Quote, bool) {
	id, err := strconv.Atoi(cellAt(row, 0))
	if err != nil || id <= 0 {
		return domain.Quote{}, false
	}
	q := domain.Quote{
		ID:                id,
		Selected:          domain.ParseBool(cellAt(row, 1)),
		Project:           cellAt(row, 2),
		Item:              cellAt(row, 3),
		Supplier:          cellAt(row, 4),
		Attachment:        cellAt(row, 12),
		MarkedForDeletion: domain.ParseBool(cellAt(row, 13)),
	}
	if v, err := strconv.ParseFloat(cellAt(row, 5), 64); err == nil {
		q.UnitPrice = v
	}
	if v, err := strconv.Atoi(cellAt(row, 6)); err == nil {
		q.Quantity = v
	}
	if v, err := strconv.ParseFloat(cellAt(row, 7), 64); err == nil {
		q.Total = v
	}
	if d, err := domain.ParseDate(cellAt(row, 8)); err == nil {
		q.ExpectedDelivery = d
	}
	if st, ok := domain.ParseStatus(cellAt(row, 9)); ok {
		q.Status = st
	} else {
		q.Status = domain.StatusInquiry
	}
	if d, err := domain.ParseDate(cellAt(row, 10)); err == nil {
		q.LatestArrival = d
	}
	if ts, err := domain.ParseTimestamp(cellAt(row, 11)); err == nil {
		q.UpdatedAt = ts
	}
	return q, true
}

func decodeProjectRow(row []string) (domain.Project, bool) {
	name := cellAt(row, 0)
	if name == "" {
		return domain.Project{}, false
	}
	p := domain.Project{Name: name}
	if d, err := domain.ParseDate(cellAt(row, 1)); err == nil {
		p.DueDate = d
	}
	if v, err := strconv.Atoi(cellAt(row, 2)); err == nil {
		p.BufferDays = v
	}
	if ts, err := domain.ParseTimestamp(cellAt(row, 3)); err == nil {
		p.UpdatedAt = ts
	}
	return p, true
}
