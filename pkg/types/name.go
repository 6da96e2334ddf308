package types

// SimulationName is the parsed form of a simulation name such as
// RIT:BBH:0005-n100-id0 or RIT:eBBH:1843-n100-ecc.
type SimulationName struct {
	Catalog    string
	Family     string
	Index      int
	Resolution int
	Identifier int  // Meaningful only when Eccentric is false.
	Eccentric  bool // Name carries the ecc tag instead of an identifier.
}
