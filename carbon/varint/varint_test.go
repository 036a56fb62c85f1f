package varint

import "testing"

func TestEncodeDecodeRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		v    uint64
		size int
	}{
		{"zero", 0, 1},
		{"max7bit", 127, 1},
		{"min2byte", 128, 2},
		{"max14bit", 16383, 2},
		{"min3byte", 16384, 3},
		{"max32bit", 1<<32 - 1, 5},
		{"min5byte", 1 << 32, 5},
		{"max64bit", 1<<64 - 1, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			enc := Encode(nil, tt.v)
			if len(enc) != tt.size {
				t.Fatalf("size = %d, want %d", len(enc), tt.size)
			}
			if got := SizeOf(tt.v); got != tt.size {
				t.Fatalf("SizeOf = %d, want %d", got, tt.size)
			}

			got, consumed, err := Decode(enc)
			if err != nil {
				t.Fatalf("decode error: %v", err)
			}
			if got != tt.v || consumed != tt.size {
				t.Fatalf("decode = (%d, %d), want (%d, %d)", got, consumed, tt.v, tt.size)
			}
		})
	}
}

func TestDecodeTruncated(t *testing.T) {
	enc := Encode(nil, 16384)
	_, _, err := Decode(enc[:1])
	if err != ErrTruncated {
		t.Fatalf("err = %v, want ErrTruncated", err)
	}
}

func TestDecodeOverflow(t *testing.T) {
	overflow := make([]byte, maxStreamBytes+1)
	for i := range overflow {
		overflow[i] = 0xff
	}
	_, _, err := Decode(overflow)
	if err != ErrOverflow {
		t.Fatalf("err = %v, want ErrOverflow", err)
	}
}

func TestMarkerRoundTrip(t *testing.T) {
	tests := []struct {
		name   string
		v      uint64
		marker byte
	}{
		{"u8", 200, Marker8},
		{"u16", 40000, Marker16},
		{"u32", 1 << 20, Marker32},
		{"u64", 1 << 40, Marker64},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			enc := EncodeMarker(nil, tt.v)
			if enc[0] != tt.marker {
				t.Fatalf("marker = %q, want %q", enc[0], tt.marker)
			}
			if len(enc) != SizeOfMarker(tt.v) {
				t.Fatalf("size mismatch")
			}

			got, consumed, err := DecodeMarker(enc)
			if err != nil {
				t.Fatalf("decode error: %v", err)
			}
			if got != tt.v || consumed != len(enc) {
				t.Fatalf("decode = (%d, %d), want (%d, %d)", got, consumed, tt.v, len(enc))
			}
		})
	}
}

func TestDecodeMarkerUnknown(t *testing.T) {
	_, _, err := DecodeMarker([]byte{'z', 0, 0})
	if err != ErrUnknownMarker {
		t.Fatalf("err = %v, want ErrUnknownMarker", err)
	}
}
