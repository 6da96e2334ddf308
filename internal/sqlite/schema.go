// Package sqlite mirrors the consolidated catalog index into SQLite so that
// simulations can be filtered by metadata values. The CSV index stays the
// source of truth; the database is rebuilt from it on every Open.
package sqlite

// Schema DDL. Every metadata field of a record becomes one row in fields,
// typed the way the index stores it.
const (
	createSimulations = `CREATE TABLE simulations (
    simulation_id INTEGER PRIMARY KEY,
    simulation_name TEXT NOT NULL UNIQUE,
    metadata_link TEXT,
    metadata_location TEXT,
    waveform_data_link TEXT,
    waveform_data_location TEXT
);`

	createFields = `CREATE TABLE fields (
    simulation_id INTEGER NOT NULL,
    name TEXT NOT NULL,
    value_type TEXT NOT NULL,
    num REAL,
    text TEXT,
    PRIMARY KEY (simulation_id, name),
    FOREIGN KEY (simulation_id) REFERENCES simulations(simulation_id) ON DELETE CASCADE
);`
)

// Index DDL for field lookups.
const (
	idxFieldsName    = `CREATE INDEX idx_fields_name ON fields(name);`
	idxFieldsNameNum = `CREATE INDEX idx_fields_name_num ON fields(name, num);`
)

// schemaDDL lists all CREATE TABLE statements in dependency order.
var schemaDDL = []string{
	createSimulations,
	createFields,
}

// indexDDL lists all CREATE INDEX statements.
var indexDDL = []string{
	idxFieldsName,
	idxFieldsNameNum,
}

// Value types stored in fields.value_type.
const (
	valueTypeNumber = "number"
	valueTypeText   = "text"
)
