// Package types defines the simulation record, catalog index, configuration,
// and standard errors shared by the nrmirror packages.
//
// A SimulationRecord is an ordered mapping from field name to Value. The field
// set is open: besides the derived fields named by the Field constants, every
// key found in a simulation's metadata text becomes a field.
package types
