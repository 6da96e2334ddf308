package types

import "errors"

// Catalog errors.
var (
	// ErrNameFormat reports a simulation or file name that does not match the
	// expected grammar. It is always propagated: downstream derivations would
	// otherwise produce a wrong but plausible name.
	ErrNameFormat = errors.New("malformed simulation name")

	// ErrIndexConsistency reports an in-memory index match whose embedded
	// simulation index disagrees with the index being searched. It aborts the
	// crawl pass.
	ErrIndexConsistency = errors.New("catalog index is inconsistent")

	// ErrRemoteResourceMissing reports a waveform file that the remote server
	// does not have. Batch downloads record it and continue.
	ErrRemoteResourceMissing = errors.New("remote resource not found")
)
