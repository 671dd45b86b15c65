package metadata

import (
	"encoding/binary"
	"fmt"

	"github.com/amoebit/migrator/pkg/types"
)

// Metadata account key values
const (
	KeyUninitialized uint8 = 0
	KeyMetadataV1    uint8 = 4
)

// Field limits
const (
	// MaxNameLength is the maximum name length in bytes.
	MaxNameLength = 32

	// MaxSymbolLength is the maximum symbol length in bytes.
	MaxSymbolLength = 10

	// MaxUriLength is the maximum uri length in bytes.
	MaxUriLength = 200

	// MaxCreators is the maximum number of creators.
	MaxCreators = 5

	// CreatorSize is the serialized size of a single creator
	// (32 byte address + 1 byte verified + 1 byte share).
	CreatorSize = 34

	// MaxMetadataSize is the fixed size of a metadata account. Records
	// are serialized at the front and the remainder is zero padding.
	MaxMetadataSize = 1 + 32 + 32 + (4 + MaxNameLength) + (4 + MaxSymbolLength) +
		(4 + MaxUriLength) + 2 + (1 + 4 + MaxCreators*CreatorSize) + 1 + 1 + 118

	// PDASeed is the constant seed used when deriving metadata
	// account addresses.
	PDASeed = "metadata"
)

// Creator is a royalty recipient attached to the metadata.
// Layout (34 bytes):
//   - address: Pubkey (32 bytes)
//   - verified: bool (1 byte)
//   - share: u8 (1 byte)
type Creator struct {
	Address  types.Pubkey
	Verified bool
	Share    uint8
}

// Data holds the user-visible metadata fields.
// Borsh layout:
//   - name: string (u32 length prefix + bytes)
//   - symbol: string
//   - uri: string
//   - seller_fee_basis_points: u16
//   - creators: Option<Vec<Creator>> (1 byte tag + u32 length + entries)
type Data struct {
	Name                 string
	Symbol               string
	Uri                  string
	SellerFeeBasisPoints uint16
	Creators             []Creator // nil means no creator list
}

// Metadata is the full metadata account record.
// Borsh layout:
//   - key: u8
//   - update_authority: Pubkey (32 bytes)
//   - mint: Pubkey (32 bytes)
//   - data: Data
//   - primary_sale_happened: bool (1 byte)
//   - is_mutable: bool (1 byte)
type Metadata struct {
	Key                 uint8
	UpdateAuthority     types.Pubkey
	Mint                types.Pubkey
	Data                Data
	PrimarySaleHappened bool
	IsMutable           bool
}

// Validate checks the data fields against the program limits.
func (d *Data) Validate() error {
	if len(d.Name) > MaxNameLength {
		return ErrNameTooLong
	}
	if len(d.Symbol) > MaxSymbolLength {
		return ErrSymbolTooLong
	}
	if len(d.Uri) > MaxUriLength {
		return ErrUriTooLong
	}
	if d.Creators != nil {
		if len(d.Creators) > MaxCreators {
			return ErrTooManyCreators
		}
		var total uint32
		for _, c := range d.Creators {
			total += uint32(c.Share)
		}
		if total != 100 {
			return ErrShareTotal
		}
	}
	return nil
}

// Serialize serializes the metadata into a fixed-size account buffer.
func (m *Metadata) Serialize() []byte {
	buf := make([]byte, 0, MaxMetadataSize)

	buf = append(buf, m.Key)
	buf = append(buf, m.UpdateAuthority[:]...)
	buf = append(buf, m.Mint[:]...)
	buf = m.Data.appendTo(buf)

	buf = append(buf, boolByte(m.PrimarySaleHappened), boolByte(m.IsMutable))

	// Pad out to the fixed account size.
	padded := make([]byte, MaxMetadataSize)
	copy(padded, buf)
	return padded
}

func (d *Data) appendTo(buf []byte) []byte {
	buf = appendString(buf, d.Name)
	buf = appendString(buf, d.Symbol)
	buf = appendString(buf, d.Uri)

	var fee [2]byte
	binary.LittleEndian.PutUint16(fee[:], d.SellerFeeBasisPoints)
	buf = append(buf, fee[:]...)

	if d.Creators == nil {
		buf = append(buf, 0)
	} else {
		buf = append(buf, 1)
		var count [4]byte
		binary.LittleEndian.PutUint32(count[:], uint32(len(d.Creators)))
		buf = append(buf, count[:]...)
		for _, c := range d.Creators {
			buf = append(buf, c.Address[:]...)
			buf = append(buf, boolByte(c.Verified), c.Share)
		}
	}
	return buf
}

// Deserialize parses a metadata record from account data. Trailing zero
// padding after the record is ignored.
func Deserialize(data []byte) (*Metadata, error) {
	r := &reader{data: data}

	m := &Metadata{}
	m.Key = r.u8()
	r.pubkey(&m.UpdateAuthority)
	r.pubkey(&m.Mint)

	m.Data.Name = r.str(MaxNameLength)
	m.Data.Symbol = r.str(MaxSymbolLength)
	m.Data.Uri = r.str(MaxUriLength)
	m.Data.SellerFeeBasisPoints = r.u16()

	if r.u8() == 1 {
		count := r.u32()
		if count > MaxCreators {
			r.fail(ErrTooManyCreators)
		} else {
			creators := make([]Creator, 0, count)
			for i := uint32(0); i < count && r.err == nil; i++ {
				var c Creator
				r.pubkey(&c.Address)
				c.Verified = r.u8() != 0
				c.Share = r.u8()
				creators = append(creators, c)
			}
			m.Data.Creators = creators
		}
	}

	m.PrimarySaleHappened = r.u8() != 0
	m.IsMutable = r.u8() != 0

	if r.err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMetadataData, r.err)
	}
	return m, nil
}

// IsInitialized reports whether the account holds a metadata record.
func IsInitialized(data []byte) bool {
	return len(data) > 0 && data[0] == KeyMetadataV1
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}

func appendString(buf []byte, s string) []byte {
	var n [4]byte
	binary.LittleEndian.PutUint32(n[:], uint32(len(s)))
	buf = append(buf, n[:]...)
	return append(buf, s...)
}

// reader is a cursor over borsh-encoded bytes. The first failure
// sticks; callers check err once at the end.
type reader struct {
	data []byte
	pos  int
	err  error
}

func (r *reader) fail(err error) {
	if r.err == nil {
		r.err = err
	}
}

func (r *reader) take(n int) []byte {
	if r.err != nil {
		return nil
	}
	if r.pos+n > len(r.data) {
		r.fail(fmt.Errorf("truncated at offset %d", r.pos))
		return nil
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b
}

func (r *reader) u8() uint8 {
	b := r.take(1)
	if b == nil {
		return 0
	}
	return b[0]
}

func (r *reader) u16() uint16 {
	b := r.take(2)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint16(b)
}

func (r *reader) u32() uint32 {
	b := r.take(4)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

func (r *reader) pubkey(pk *types.Pubkey) {
	b := r.take(32)
	if b != nil {
		copy(pk[:], b)
	}
}

func (r *reader) str(max int) string {
	n := r.u32()
	if r.err != nil {
		return ""
	}
	if int(n) > max {
		r.fail(fmt.Errorf("string length %d exceeds limit %d", n, max))
		return ""
	}
	b := r.take(int(n))
	if b == nil {
		return ""
	}
	return string(b)
}

// DeriveMetadataAddress derives the metadata account address for a
// mint: seeds are ["metadata", metadata_program_id, mint].
func DeriveMetadataAddress(mint types.Pubkey) (types.Pubkey, uint8, error) {
	return findMetadataAddress(mint)
}
