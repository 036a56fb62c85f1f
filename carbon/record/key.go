package record

import (
	"fmt"

	"github.com/jakson-labs/carbon/carbon/memfile"
	"github.com/jakson-labs/carbon/carbon/varint"
)

// KeyType is the leading byte of a record's key header. These byte values
// are pinned to the values exercised by the format's test vectors and must
// never change once persisted records exist.
type KeyType byte

const (
	KeyNone      KeyType = 0x00
	KeyAuto      KeyType = 0x01
	KeyUnsigned  KeyType = 0x02
	KeySigned    KeyType = 0x03
	KeyString    KeyType = 0x04
)

// ErrUnknownKeyType is returned when a key header's leading byte isn't one
// of the five recognized key types.
var ErrUnknownKeyType = fmt.Errorf("record: unknown key type byte")

// Key is the decoded form of a record's KeyHeader.
type Key struct {
	Type     KeyType
	Unsigned uint64 // valid for KeyAuto, KeyUnsigned
	Signed   int64  // valid for KeySigned
	Str      string // valid for KeyString
}

// NoKey returns a Key with no identity.
func NoKey() Key { return Key{Type: KeyNone} }

// AutoKey returns an auto-generated unsigned key.
func AutoKey(id uint64) Key { return Key{Type: KeyAuto, Unsigned: id} }

// UnsignedKey returns a caller-supplied unsigned key.
func UnsignedKey(id uint64) Key { return Key{Type: KeyUnsigned, Unsigned: id} }

// SignedKey returns a caller-supplied signed key.
func SignedKey(id int64) Key { return Key{Type: KeySigned, Signed: id} }

// StringKey returns a caller-supplied string key.
func StringKey(s string) Key { return Key{Type: KeyString, Str: s} }

// HasCommit reports whether this key type requires a Commit field: a
// record only carries a commit fingerprint when it has a key.
func (k Key) HasCommit() bool { return k.Type != KeyNone }

// HeaderLen returns the byte length of this key's encoded KeyHeader
// (KeyTypeByte plus body), letting callers locate the Commit/Payload that
// follows without re-parsing.
func (k Key) HeaderLen() int {
	switch k.Type {
	case KeyNone:
		return 1
	case KeyAuto, KeyUnsigned, KeySigned:
		return 9
	case KeyString:
		n := len(k.Str)
		return 1 + varint.SizeOf(uint64(n)) + n
	default:
		return 1
	}
}

func (k Key) encode(mf *memfile.MemFile) error {
	if err := mf.Append([]byte{byte(k.Type)}); err != nil {
		return err
	}
	switch k.Type {
	case KeyNone:
		return nil
	case KeyAuto, KeyUnsigned:
		return appendU64(mf, k.Unsigned)
	case KeySigned:
		return appendU64(mf, uint64(k.Signed))
	case KeyString:
		body := []byte(k.Str)
		enc := varint.Encode(nil, uint64(len(body)))
		if err := mf.Append(enc); err != nil {
			return err
		}
		return mf.Append(body)
	default:
		return ErrUnknownKeyType
	}
}

func appendU64(mf *memfile.MemFile, v uint64) error {
	var buf [8]byte
	for i := range buf {
		buf[i] = byte(v >> (8 * uint(i)))
	}
	return mf.Append(buf[:])
}

// decodeKey reads a KeyHeader from the front of mf's cursor, advancing past
// it.
func decodeKey(mf *memfile.MemFile) (Key, error) {
	b, err := mf.Read(1)
	if err != nil {
		return Key{}, err
	}
	switch KeyType(b[0]) {
	case KeyNone:
		return NoKey(), nil
	case KeyAuto:
		v, err := readU64(mf)
		return AutoKey(v), err
	case KeyUnsigned:
		v, err := readU64(mf)
		return UnsignedKey(v), err
	case KeySigned:
		v, err := readU64(mf)
		return SignedKey(int64(v)), err
	case KeyString:
		n, err := mf.ReadVarIntStream()
		if err != nil {
			return Key{}, err
		}
		body, err := mf.Read(int(n))
		if err != nil {
			return Key{}, err
		}
		return StringKey(string(body)), nil
	default:
		return Key{}, ErrUnknownKeyType
	}
}

func readU64(mf *memfile.MemFile) (uint64, error) {
	b, err := mf.Read(8)
	if err != nil {
		return 0, err
	}
	var v uint64
	for i := 0; i < 8; i++ {
		v |= uint64(b[i]) << (8 * uint(i))
	}
	return v, nil
}
