package types

// CatalogIndex is the ordered collection of simulation records that mirrors
// the consolidated index file. Row order is append order. The structure does
// not enforce uniqueness; the index builder does.
type CatalogIndex struct {
	records []*SimulationRecord
}

// NewCatalogIndex returns an empty index.
func NewCatalogIndex() *CatalogIndex {
	return &CatalogIndex{}
}

// Append adds r as the last row.
func (c *CatalogIndex) Append(r *SimulationRecord) {
	c.records = append(c.records, r)
}

// Replace overwrites row i with r.
func (c *CatalogIndex) Replace(i int, r *SimulationRecord) {
	c.records[i] = r
}

// Len returns the number of rows.
func (c *CatalogIndex) Len() int {
	return len(c.records)
}

// At returns row i.
func (c *CatalogIndex) At(i int) *SimulationRecord {
	return c.records[i]
}

// Records returns the rows in order. The slice is a copy; the records are not.
func (c *CatalogIndex) Records() []*SimulationRecord {
	out := make([]*SimulationRecord, len(c.records))
	copy(out, c.records)
	return out
}

// Find returns the position of the first row whose simulation_name equals
// name, or -1.
func (c *CatalogIndex) Find(name string) int {
	for i, r := range c.records {
		if r.SimulationName() == name {
			return i
		}
	}
	return -1
}

// SimulationNames returns the simulation_name of every row in order.
func (c *CatalogIndex) SimulationNames() []string {
	out := make([]string, len(c.records))
	for i, r := range c.records {
		out[i] = r.SimulationName()
	}
	return out
}

// Columns returns the union of all field names in first-seen order.
func (c *CatalogIndex) Columns() []string {
	seen := make(map[string]bool)
	var cols []string
	for _, r := range c.records {
		for _, f := range r.order {
			if !seen[f] {
				seen[f] = true
				cols = append(cols, f)
			}
		}
	}
	return cols
}

// Head returns a new index holding at most the first n rows. The receiver is
// not modified.
func (c *CatalogIndex) Head(n int) *CatalogIndex {
	if n < 0 {
		n = 0
	}
	if n > len(c.records) {
		n = len(c.records)
	}
	out := &CatalogIndex{records: make([]*SimulationRecord, n)}
	copy(out.records, c.records[:n])
	return out
}
