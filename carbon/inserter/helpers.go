package inserter

import (
	"math"

	"github.com/jakson-labs/carbon/carbon/varint"
)

func encodeVarInt(v uint64) []byte        { return varint.Encode(nil, v) }
func decodeVarInt(b []byte) (uint64, int, error) { return varint.Decode(b) }

func mathFloat32bits(f float32) uint32 { return math.Float32bits(f) }
