package path

import (
	"math"

	"github.com/jakson-labs/carbon/carbon/memfile"
	"github.com/jakson-labs/carbon/carbon/types"
	"github.com/jakson-labs/carbon/carbon/varint"
)

// scalarDecoder reads a single scalar field's payload at an arbitrary
// marker offset, independent of any iterator's own cursor. Find needs this
// because a resolved path position is a bare offset, not a live iterator.
type scalarDecoder struct {
	buf    []byte
	pos    int // offset of the payload, i.e. one past the marker
	marker types.Marker
}

func scalarAt(mf *memfile.MemFile, markerPos int, marker types.Marker) scalarDecoder {
	return scalarDecoder{buf: mf.Bytes(), pos: markerPos + 1, marker: marker}
}

func (d scalarDecoder) readLE(width int) uint64 {
	var v uint64
	for i := 0; i < width; i++ {
		v |= uint64(d.buf[d.pos+i]) << (8 * uint(i))
	}
	return v
}

func (d scalarDecoder) unsigned() (uint64, error) {
	return d.readLE(types.ScalarWidth(d.marker)), nil
}

func (d scalarDecoder) signed() (int64, error) {
	width := types.ScalarWidth(d.marker)
	v := d.readLE(width)
	bits := uint(width * 8)
	shift := 64 - bits
	return int64(v<<shift) >> shift, nil
}

func (d scalarDecoder) float() (float32, error) {
	return math.Float32frombits(uint32(d.readLE(4))), nil
}

func (d scalarDecoder) str() (string, error) {
	n, consumed, err := varint.Decode(d.buf[d.pos:])
	if err != nil {
		return "", err
	}
	start := d.pos + consumed
	return string(d.buf[start : start+int(n)]), nil
}

func (d scalarDecoder) binary() (mime string, payload []byte, err error) {
	pos := d.pos
	mimeLen, c1, err := varint.Decode(d.buf[pos:])
	if err != nil {
		return "", nil, err
	}
	pos += c1
	mime = string(d.buf[pos : pos+int(mimeLen)])
	pos += int(mimeLen)
	dataLen, c2, err := varint.Decode(d.buf[pos:])
	if err != nil {
		return "", nil, err
	}
	pos += c2
	payload = d.buf[pos : pos+int(dataLen)]
	return mime, payload, nil
}
