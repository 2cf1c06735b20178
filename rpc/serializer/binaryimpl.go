package serializer

import (
	"encoding/binary"
	"math"

	"github.com/openpeers/wirecall/rpc/common"
)

// maxNestingDepth bounds recursion into nested maps and arrays so a crafted
// message cannot exhaust the stack before the entry-count limit applies.
const maxNestingDepth = 64

// NewBinarySerializer creates a serializer for the canonical wire format:
// each section is a 4-byte entry count followed by entries, each entry a
// 2-byte length-prefixed UTF-8 key, a type tag byte and the tag-specific
// payload. All integers are big-endian. Section entry counts are bounded by
// the default limit; use NewBinarySerializerLimits to override it.
func NewBinarySerializer() IEnvelopeSerializer {
	return NewBinarySerializerLimits(common.DefaultMaxSectionEntries)
}

// NewBinarySerializerLimits creates a binary serializer that rejects any
// section declaring more than maxSectionEntries entries before allocating.
func NewBinarySerializerLimits(maxSectionEntries int) IEnvelopeSerializer {
	if maxSectionEntries <= 0 {
		maxSectionEntries = common.DefaultMaxSectionEntries
	}
	return &binarySerializerImpl{maxSectionEntries: maxSectionEntries}
}

// binarySerializerImpl implements IEnvelopeSerializer using the custom
// binary format
type binarySerializerImpl struct {
	maxSectionEntries int
}

// --------------------------------------------------------------------------
// Interface Methods (docu see serializer.IEnvelopeSerializer)
// --------------------------------------------------------------------------

func (s *binarySerializerImpl) Serialize(env *common.Envelope) ([]byte, error) {
	return s.SerializeAppend(nil, env)
}

func (s *binarySerializerImpl) SerializeAppend(dst []byte, env *common.Envelope) ([]byte, error) {
	dst, err := appendSection(dst, env.Head, 0)
	if err != nil {
		return nil, err
	}
	return appendSection(dst, env.Data, 0)
}

func (s *binarySerializerImpl) Deserialize(data []byte, env *common.Envelope) error {
	r := &reader{data: data, maxEntries: s.maxSectionEntries}

	head, err := r.section(0)
	if err != nil {
		return err
	}
	body, err := r.section(0)
	if err != nil {
		return err
	}
	if r.pos != len(r.data) {
		return common.Errorf(common.ErrProtocol, "%d trailing bytes after data section", len(r.data)-r.pos)
	}

	env.Head = head
	env.Data = body
	return nil
}

// --------------------------------------------------------------------------
// Encoding
// --------------------------------------------------------------------------

// appendSection writes [4-byte entry count][entries...] for one ordered map.
func appendSection(dst []byte, m *common.Map, depth int) ([]byte, error) {
	if depth > maxNestingDepth {
		return nil, common.Errorf(common.ErrSerialization, "map nesting exceeds %d levels", maxNestingDepth)
	}

	dst = binary.BigEndian.AppendUint32(dst, uint32(m.Len()))

	var err error
	m.Range(func(key string, v common.Value) bool {
		dst, err = appendEntry(dst, key, v, depth)
		return err == nil
	})
	if err != nil {
		return nil, err
	}
	return dst, nil
}

// appendEntry writes [2-byte key length][key][tag][payload] for one entry.
func appendEntry(dst []byte, key string, v common.Value, depth int) ([]byte, error) {
	if len(key) > math.MaxUint16 {
		return nil, common.Errorf(common.ErrSerialization, "key %q exceeds %d bytes", key[:32], math.MaxUint16)
	}
	dst = binary.BigEndian.AppendUint16(dst, uint16(len(key)))
	dst = append(dst, key...)
	return appendValue(dst, v, depth)
}

// appendValue writes the tag byte followed by the tag-specific payload.
func appendValue(dst []byte, v common.Value, depth int) ([]byte, error) {
	dst = append(dst, byte(v.Tag()))
	return appendPayload(dst, v, depth)
}

// appendPayload writes the tag-specific payload without the tag byte.
func appendPayload(dst []byte, v common.Value, depth int) ([]byte, error) {
	switch v.Tag() {
	case common.TagNull:
		return dst, nil
	case common.TagBool:
		if v.Bool() {
			return append(dst, 1), nil
		}
		return append(dst, 0), nil
	case common.TagInt64:
		return binary.BigEndian.AppendUint64(dst, uint64(v.Int())), nil
	case common.TagFloat64:
		return binary.BigEndian.AppendUint64(dst, math.Float64bits(v.Float())), nil
	case common.TagDecimal, common.TagString:
		dst = binary.BigEndian.AppendUint32(dst, uint32(len(v.Str())))
		return append(dst, v.Str()...), nil
	case common.TagBytes:
		dst = binary.BigEndian.AppendUint32(dst, uint32(len(v.Raw())))
		return append(dst, v.Raw()...), nil
	case common.TagTimestamp:
		ts := v.Time()
		dst = binary.BigEndian.AppendUint64(dst, uint64(ts.Millis))
		return binary.BigEndian.AppendUint32(dst, uint32(ts.Nanos)), nil
	case common.TagMap:
		return appendSection(dst, v.Map(), depth+1)
	case common.TagArray:
		return appendArray(dst, v.Elems(), depth+1)
	default:
		return nil, common.Errorf(common.ErrSerialization, "unsupported type tag %s", v.Tag())
	}
}

// appendArray writes [element tag][4-byte count][payloads...]. Arrays are
// homogeneous: every element must carry the same tag. An empty array is
// written with the null element tag.
func appendArray(dst []byte, elems []common.Value, depth int) ([]byte, error) {
	if depth > maxNestingDepth {
		return nil, common.Errorf(common.ErrSerialization, "array nesting exceeds %d levels", maxNestingDepth)
	}

	elemTag := common.TagNull
	if len(elems) > 0 {
		elemTag = elems[0].Tag()
	}
	dst = append(dst, byte(elemTag))
	dst = binary.BigEndian.AppendUint32(dst, uint32(len(elems)))

	for i, e := range elems {
		if e.Tag() != elemTag {
			return nil, common.Errorf(common.ErrSerialization,
				"mixed array: element %d has tag %s, expected %s", i, e.Tag(), elemTag)
		}
		// Element payloads carry no per-element tag byte, the shared tag
		// in front of the count covers them all.
		var err error
		dst, err = appendPayload(dst, e, depth)
		if err != nil {
			return nil, err
		}
	}
	return dst, nil
}

// --------------------------------------------------------------------------
// Decoding
// --------------------------------------------------------------------------

// reader walks a serialized body with bounds checking. Every short read is
// a protocol error: the format cannot be resynchronized mid-message.
type reader struct {
	data       []byte
	pos        int
	maxEntries int
}

func (r *reader) take(n int) ([]byte, error) {
	if n < 0 || r.pos+n > len(r.data) {
		return nil, common.Errorf(common.ErrProtocol,
			"message truncated: need %d bytes at offset %d, have %d", n, r.pos, len(r.data)-r.pos)
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

func (r *reader) u8() (byte, error) {
	b, err := r.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (r *reader) u16() (uint16, error) {
	b, err := r.take(2)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b), nil
}

func (r *reader) u32() (uint32, error) {
	b, err := r.take(4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b), nil
}

func (r *reader) u64() (uint64, error) {
	b, err := r.take(8)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(b), nil
}

// section reads [4-byte entry count][entries...] into a fresh ordered map.
// The declared count is validated against the entry limit and against the
// remaining input before anything is allocated for it.
func (r *reader) section(depth int) (*common.Map, error) {
	if depth > maxNestingDepth {
		return nil, common.Errorf(common.ErrProtocol, "map nesting exceeds %d levels", maxNestingDepth)
	}

	count, err := r.u32()
	if err != nil {
		return nil, err
	}
	if int64(count) > int64(r.maxEntries) {
		return nil, common.Errorf(common.ErrProtocol,
			"section declares %d entries, limit is %d", count, r.maxEntries)
	}
	// Each entry needs at least a key length and a tag byte.
	if int64(count)*3 > int64(len(r.data)-r.pos) {
		return nil, common.Errorf(common.ErrProtocol,
			"section declares %d entries but only %d bytes remain", count, len(r.data)-r.pos)
	}

	m := common.NewMap()
	for i := uint32(0); i < count; i++ {
		keyLen, err := r.u16()
		if err != nil {
			return nil, err
		}
		key, err := r.take(int(keyLen))
		if err != nil {
			return nil, err
		}
		tag, err := r.u8()
		if err != nil {
			return nil, err
		}
		v, err := r.value(common.Tag(tag), depth)
		if err != nil {
			return nil, err
		}
		m.Set(string(key), v)
	}
	return m, nil
}

// value reads the payload for the given tag.
func (r *reader) value(tag common.Tag, depth int) (common.Value, error) {
	switch tag {
	case common.TagNull:
		return common.Null(), nil
	case common.TagBool:
		b, err := r.u8()
		if err != nil {
			return common.Null(), err
		}
		return common.Bool(b != 0), nil
	case common.TagInt64:
		v, err := r.u64()
		if err != nil {
			return common.Null(), err
		}
		return common.Int(int64(v)), nil
	case common.TagFloat64:
		v, err := r.u64()
		if err != nil {
			return common.Null(), err
		}
		return common.Float(math.Float64frombits(v)), nil
	case common.TagDecimal:
		s, err := r.lengthPrefixed()
		if err != nil {
			return common.Null(), err
		}
		return common.Decimal(string(s)), nil
	case common.TagString:
		s, err := r.lengthPrefixed()
		if err != nil {
			return common.Null(), err
		}
		return common.String(string(s)), nil
	case common.TagBytes:
		b, err := r.lengthPrefixed()
		if err != nil {
			return common.Null(), err
		}
		raw := make([]byte, len(b))
		copy(raw, b)
		return common.Bytes(raw), nil
	case common.TagTimestamp:
		millis, err := r.u64()
		if err != nil {
			return common.Null(), err
		}
		nanos, err := r.u32()
		if err != nil {
			return common.Null(), err
		}
		return common.Time(common.Timestamp{Millis: int64(millis), Nanos: int32(nanos)}), nil
	case common.TagMap:
		m, err := r.section(depth + 1)
		if err != nil {
			return common.Null(), err
		}
		return common.MapVal(m), nil
	case common.TagArray:
		return r.array(depth + 1)
	default:
		return common.Null(), common.Errorf(common.ErrProtocol, "unknown type tag %d", tag)
	}
}

// lengthPrefixed reads a 4-byte length followed by that many bytes. The
// length is validated against the remaining input before slicing.
func (r *reader) lengthPrefixed() ([]byte, error) {
	n, err := r.u32()
	if err != nil {
		return nil, err
	}
	return r.take(int(n))
}

// array reads [element tag][4-byte count][payloads...].
func (r *reader) array(depth int) (common.Value, error) {
	if depth > maxNestingDepth {
		return common.Null(), common.Errorf(common.ErrProtocol, "array nesting exceeds %d levels", maxNestingDepth)
	}

	elemTag, err := r.u8()
	if err != nil {
		return common.Null(), err
	}
	if !common.Tag(elemTag).IsValid() {
		return common.Null(), common.Errorf(common.ErrProtocol, "unknown array element tag %d", elemTag)
	}
	count, err := r.u32()
	if err != nil {
		return common.Null(), err
	}
	if int64(count) > int64(r.maxEntries) {
		return common.Null(), common.Errorf(common.ErrProtocol,
			"array declares %d elements, limit is %d", count, r.maxEntries)
	}
	if common.Tag(elemTag) != common.TagNull && int64(count) > int64(len(r.data)-r.pos) {
		return common.Null(), common.Errorf(common.ErrProtocol,
			"array declares %d elements but only %d bytes remain", count, len(r.data)-r.pos)
	}

	elems := make([]common.Value, 0, count)
	for i := uint32(0); i < count; i++ {
		v, err := r.value(common.Tag(elemTag), depth)
		if err != nil {
			return common.Null(), err
		}
		elems = append(elems, v)
	}
	return common.Array(elems...), nil
}
