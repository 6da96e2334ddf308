package cache

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/mesh-intelligence/nrmirror/pkg/types"
)

// LoadIndex reads the consolidated index. A missing or empty file yields an
// empty index.
func (c *Cache) LoadIndex() (*types.CatalogIndex, error) {
	path := c.IndexPath()
	if !ExistsNonEmpty(path) {
		return types.NewCatalogIndex(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	idx, err := ReadIndex(f)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return idx, nil
}

// StoreIndex overwrites the consolidated index with idx. The whole file is
// rewritten on every call, which is O(n) per appended record; the builder
// relies on this as its checkpoint after each success.
func (c *Cache) StoreIndex(idx *types.CatalogIndex) error {
	if err := os.MkdirAll(c.metadataDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", c.metadataDir, err)
	}
	return writeFileAtomic(c.IndexPath(), func(w io.Writer) error {
		return WriteIndex(w, idx)
	})
}

// WriteIndex writes idx as CSV. The header is the union of all fields in
// first-seen order; absent fields are written as empty cells.
func WriteIndex(w io.Writer, idx *types.CatalogIndex) error {
	cols := idx.Columns()
	if len(cols) == 0 {
		return nil
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(cols); err != nil {
		return err
	}
	row := make([]string, len(cols))
	for _, r := range idx.Records() {
		for i, col := range cols {
			row[i] = r.Text(col)
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadIndex parses CSV written by WriteIndex. Empty cells become absent
// fields and other cells are numbers when they parse as float64. A leading
// unnamed column, such as a pandas row index, is dropped.
func ReadIndex(r io.Reader) (*types.CatalogIndex, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	idx := types.NewCatalogIndex()
	header, err := cr.Read()
	if err == io.EOF {
		return idx, nil
	}
	if err != nil {
		return nil, err
	}
	skipFirst := len(header) > 0 && header[0] == ""

	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		rec := types.NewSimulationRecord()
		for i, cell := range row {
			if i >= len(header) || (i == 0 && skipFirst) || cell == "" {
				continue
			}
			rec.Set(header[i], types.ParseValue(cell))
		}
		if !rec.Empty() {
			idx.Append(rec)
		}
	}
	return idx, nil
}
