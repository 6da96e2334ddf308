package types

// Derived fields attached to every record by the index builder.
const (
	FieldSimulationName       = "simulation_name"
	FieldMetadataLink         = "metadata_link"
	FieldMetadataLocation     = "metadata_location"
	FieldWaveformDataLink     = "waveform_data_link"
	FieldWaveformDataLocation = "waveform_data_location"
)

// SimulationRecord maps field names to values and remembers the order in
// which fields were first set. Overwriting a field keeps its position.
// Empty text and an absent field compare equal; see Equal.
type SimulationRecord struct {
	fields map[string]Value
	order  []string
}

// NewSimulationRecord returns an empty record.
func NewSimulationRecord() *SimulationRecord {
	return &SimulationRecord{fields: make(map[string]Value)}
}

// Set stores v under name.
func (r *SimulationRecord) Set(name string, v Value) {
	if _, ok := r.fields[name]; !ok {
		r.order = append(r.order, name)
	}
	r.fields[name] = v
}

// Get returns the value stored under name.
func (r *SimulationRecord) Get(name string) (Value, bool) {
	v, ok := r.fields[name]
	return v, ok
}

// Text returns the value stored under name rendered as a string, or "" when
// the field is absent.
func (r *SimulationRecord) Text(name string) string {
	v, ok := r.fields[name]
	if !ok {
		return ""
	}
	return v.String()
}

// SimulationName returns the simulation_name field.
func (r *SimulationRecord) SimulationName() string {
	return r.Text(FieldSimulationName)
}

// Len returns the number of fields.
func (r *SimulationRecord) Len() int {
	return len(r.order)
}

// Empty reports whether the record has no fields. An empty parse result is
// how the metadata parser signals that nothing was found.
func (r *SimulationRecord) Empty() bool {
	return len(r.order) == 0
}

// Fields returns the field names in insertion order.
func (r *SimulationRecord) Fields() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Clone returns a deep copy of r.
func (r *SimulationRecord) Clone() *SimulationRecord {
	c := &SimulationRecord{
		fields: make(map[string]Value, len(r.fields)),
		order:  make([]string, len(r.order)),
	}
	copy(c.order, r.order)
	for k, v := range r.fields {
		c.fields[k] = v
	}
	return c
}

// Equal reports whether r and o hold equal values for every field. A field
// holding empty text equals an absent one, since the index file stores both
// as an empty cell. Field order is ignored.
func (r *SimulationRecord) Equal(o *SimulationRecord) bool {
	return r.covers(o) && o.covers(r)
}

// covers reports whether every field of r has an equal value in o.
func (r *SimulationRecord) covers(o *SimulationRecord) bool {
	for k, v := range r.fields {
		ov, ok := o.fields[k]
		if !ok {
			ov = Text("")
		}
		if !v.Equal(ov) {
			return false
		}
	}
	return true
}
