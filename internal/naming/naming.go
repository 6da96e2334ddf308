// Package naming maps simulation indices to the remote file names a catalog
// publishes, and maps those names back to their parts. Nothing here does I/O.
//
// A simulation name looks like RIT:BBH:0005-n100-id0 (quasicircular family)
// or RIT:eBBH:1843-n100-ecc (eccentric family). Its metadata file appends
// _Metadata.txt; its waveform file is ExtrapStrain_RIT-BBH-0005-n100.h5.
package naming

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mesh-intelligence/nrmirror/pkg/types"
)

// MetadataMarker separates a simulation name from the rest of its metadata
// file name.
const MetadataMarker = "_Metadata"

const eccentricTag = "ecc"

// Deriver formats file names from the templates of one catalog.
type Deriver struct {
	quasicircular string
	eccentric     string
	waveform      string
}

// CandidateName pairs a metadata file name with the waveform file name it
// would resolve to.
type CandidateName struct {
	MetadataFile string
	WaveformFile string
}

// NewDeriver returns a Deriver using the templates in cfg.
func NewDeriver(cfg types.Config) *Deriver {
	return &Deriver{
		quasicircular: cfg.QuasicircularFormat(),
		eccentric:     cfg.EccentricFormat(),
		waveform:      cfg.WaveformFileFormat,
	}
}

// MetadataFileNames returns the candidate metadata file names for one probe,
// quasicircular first and eccentric second.
func (d *Deriver) MetadataFileNames(index, resolution, identifier int) [2]string {
	return [2]string{
		fmt.Sprintf(d.quasicircular, index, resolution, identifier),
		fmt.Sprintf(d.eccentric, index, resolution),
	}
}

// CandidateNames returns both candidate metadata files for one probe together
// with the waveform file each one resolves to.
func (d *Deriver) CandidateNames(index, resolution, identifier int) ([2]CandidateName, error) {
	var out [2]CandidateName
	for i, mf := range d.MetadataFileNames(index, resolution, identifier) {
		wf, err := d.WaveformFileName(SimulationNameFromMetadataFile(mf))
		if err != nil {
			return out, err
		}
		out[i] = CandidateName{MetadataFile: mf, WaveformFile: wf}
	}
	return out, nil
}

// SimulationTags returns the prefixes every metadata file of a simulation
// index starts with, e.g. RIT:BBH:0005 and RIT:eBBH:0005.
func (d *Deriver) SimulationTags(index int) [2]string {
	return [2]string{
		fmt.Sprintf(tagTemplate(d.quasicircular), index),
		fmt.Sprintf(tagTemplate(d.eccentric), index),
	}
}

// tagTemplate keeps the part of a metadata template before the first dash.
func tagTemplate(tmpl string) string {
	head, _, _ := strings.Cut(tmpl, "-")
	return head
}

// SimulationNameFromMetadataFile strips the _Metadata marker and everything
// after it.
func SimulationNameFromMetadataFile(fileName string) string {
	name, _, _ := strings.Cut(fileName, MetadataMarker)
	return name
}

// ParseSimulationName splits a simulation name into its parts. It returns an
// error wrapping types.ErrNameFormat when the name does not have the
// Catalog:Family:index-nres-tag shape or a numeric segment does not parse.
func ParseSimulationName(name string) (types.SimulationName, error) {
	var sn types.SimulationName

	parts := strings.Split(name, ":")
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" {
		return sn, fmt.Errorf("%w: %q: want Catalog:Family:run", types.ErrNameFormat, name)
	}
	sn.Catalog, sn.Family = parts[0], parts[1]

	segs := strings.Split(parts[2], "-")
	if len(segs) != 3 {
		return sn, fmt.Errorf("%w: %q: want index-nresolution-tag", types.ErrNameFormat, name)
	}

	idx, err := strconv.Atoi(strings.TrimSpace(segs[0]))
	if err != nil || idx < 0 {
		return sn, fmt.Errorf("%w: %q: bad index %q", types.ErrNameFormat, name, segs[0])
	}
	sn.Index = idx

	resText, ok := strings.CutPrefix(segs[1], "n")
	if !ok {
		return sn, fmt.Errorf("%w: %q: bad resolution %q", types.ErrNameFormat, name, segs[1])
	}
	res, err := strconv.Atoi(strings.TrimSpace(resText))
	if err != nil || res <= 0 {
		return sn, fmt.Errorf("%w: %q: bad resolution %q", types.ErrNameFormat, name, segs[1])
	}
	sn.Resolution = res

	if segs[2] == eccentricTag {
		sn.Eccentric = true
		return sn, nil
	}
	idText, ok := strings.CutPrefix(segs[2], "id")
	if !ok {
		return sn, fmt.Errorf("%w: %q: bad tag %q", types.ErrNameFormat, name, segs[2])
	}
	id, err := strconv.Atoi(idText)
	if err != nil || id < 0 {
		return sn, fmt.Errorf("%w: %q: bad identifier %q", types.ErrNameFormat, name, segs[2])
	}
	sn.Identifier = id
	return sn, nil
}

// MetadataFileFromSimulationName re-derives the metadata file name of a
// simulation, choosing the family template by the name's tag.
func (d *Deriver) MetadataFileFromSimulationName(name string) (string, error) {
	sn, err := ParseSimulationName(name)
	if err != nil {
		return "", err
	}
	if sn.Eccentric {
		return fmt.Sprintf(d.eccentric, sn.Index, sn.Resolution), nil
	}
	return fmt.Sprintf(d.quasicircular, sn.Index, sn.Resolution, sn.Identifier), nil
}

// WaveformFileName composes the waveform file name of a simulation from its
// parsed catalog, family, index and resolution.
func (d *Deriver) WaveformFileName(name string) (string, error) {
	sn, err := ParseSimulationName(name)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(d.waveform, sn.Catalog, sn.Family, sn.Index, sn.Resolution), nil
}
