package serializer

import (
	"encoding/base64"
	"encoding/json"
	"strconv"

	"github.com/openpeers/wirecall/rpc/common"
)

// NewJSONSerializer creates a serializer using a tagged json encoding.
// It preserves entry order and round-trips every Value tag losslessly, but
// it is not the wire format: peers speak the binary codec. The json form is
// meant for debugging, logging and test fixtures.
func NewJSONSerializer() IEnvelopeSerializer {
	return &jsonSerializerImpl{}
}

// jsonSerializerImpl implements the IEnvelopeSerializer interface using
// tagged json encoding
type jsonSerializerImpl struct {
}

// jsonEnvelope mirrors an Envelope as two ordered entry lists.
type jsonEnvelope struct {
	Head []jsonEntry `json:"head"`
	Data []jsonEntry `json:"data"`
}

// jsonEntry is one key/value pair of a section.
type jsonEntry struct {
	K string `json:"k"`
	jsonValue
}

// jsonValue is a Value with an explicit tag so decoding needs no guessing.
// Int64 and decimal payloads are carried as strings to survive parsers that
// read all numbers as float64.
type jsonValue struct {
	T string          `json:"t"`
	V json.RawMessage `json:"v,omitempty"`
}

// --------------------------------------------------------------------------
// Interface Methods (docu see serializer.IEnvelopeSerializer)
// --------------------------------------------------------------------------

func (j *jsonSerializerImpl) Serialize(env *common.Envelope) ([]byte, error) {
	head, err := encodeJSONSection(env.Head)
	if err != nil {
		return nil, err
	}
	data, err := encodeJSONSection(env.Data)
	if err != nil {
		return nil, err
	}
	out, err := json.Marshal(jsonEnvelope{Head: head, Data: data})
	if err != nil {
		return nil, common.WrapError(common.ErrSerialization, err, "json encode failed")
	}
	return out, nil
}

func (j *jsonSerializerImpl) SerializeAppend(dst []byte, env *common.Envelope) ([]byte, error) {
	out, err := j.Serialize(env)
	if err != nil {
		return nil, err
	}
	return append(dst, out...), nil
}

func (j *jsonSerializerImpl) Deserialize(b []byte, env *common.Envelope) error {
	var raw jsonEnvelope
	if err := json.Unmarshal(b, &raw); err != nil {
		return common.WrapError(common.ErrProtocol, err, "json decode failed")
	}

	head, err := decodeJSONSection(raw.Head)
	if err != nil {
		return err
	}
	data, err := decodeJSONSection(raw.Data)
	if err != nil {
		return err
	}

	env.Head = head
	env.Data = data
	return nil
}

// --------------------------------------------------------------------------
// Encoding
// --------------------------------------------------------------------------

func encodeJSONSection(m *common.Map) ([]jsonEntry, error) {
	entries := make([]jsonEntry, 0, m.Len())
	var err error
	m.Range(func(key string, v common.Value) bool {
		var jv jsonValue
		jv, err = encodeJSONValue(v)
		if err != nil {
			return false
		}
		entries = append(entries, jsonEntry{K: key, jsonValue: jv})
		return true
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func encodeJSONValue(v common.Value) (jsonValue, error) {
	jv := jsonValue{T: v.Tag().String()}

	marshal := func(x any) error {
		raw, err := json.Marshal(x)
		if err != nil {
			return common.WrapError(common.ErrSerialization, err, "json encode failed")
		}
		jv.V = raw
		return nil
	}

	switch v.Tag() {
	case common.TagNull:
		return jv, nil
	case common.TagBool:
		return jv, marshal(v.Bool())
	case common.TagInt64:
		return jv, marshal(strconv.FormatInt(v.Int(), 10))
	case common.TagFloat64:
		return jv, marshal(strconv.FormatFloat(v.Float(), 'g', -1, 64))
	case common.TagDecimal, common.TagString:
		return jv, marshal(v.Str())
	case common.TagBytes:
		return jv, marshal(base64.StdEncoding.EncodeToString(v.Raw()))
	case common.TagTimestamp:
		ts := v.Time()
		return jv, marshal([2]int64{ts.Millis, int64(ts.Nanos)})
	case common.TagMap:
		entries, err := encodeJSONSection(v.Map())
		if err != nil {
			return jv, err
		}
		return jv, marshal(entries)
	case common.TagArray:
		elems := make([]jsonValue, 0, len(v.Elems()))
		for _, e := range v.Elems() {
			je, err := encodeJSONValue(e)
			if err != nil {
				return jv, err
			}
			elems = append(elems, je)
		}
		return jv, marshal(elems)
	default:
		return jv, common.Errorf(common.ErrSerialization, "unsupported type tag %s", v.Tag())
	}
}

// --------------------------------------------------------------------------
// Decoding
// --------------------------------------------------------------------------

func decodeJSONSection(entries []jsonEntry) (*common.Map, error) {
	m := common.NewMap()
	for _, e := range entries {
		v, err := decodeJSONValue(e.jsonValue)
		if err != nil {
			return nil, err
		}
		m.Set(e.K, v)
	}
	return m, nil
}

func decodeJSONValue(jv jsonValue) (common.Value, error) {
	unmarshal := func(x any) error {
		if err := json.Unmarshal(jv.V, x); err != nil {
			return common.WrapError(common.ErrProtocol, err, "json decode failed for tag %s", jv.T)
		}
		return nil
	}

	switch jv.T {
	case "null":
		return common.Null(), nil
	case "bool":
		var b bool
		if err := unmarshal(&b); err != nil {
			return common.Null(), err
		}
		return common.Bool(b), nil
	case "int64":
		var s string
		if err := unmarshal(&s); err != nil {
			return common.Null(), err
		}
		i, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return common.Null(), common.WrapError(common.ErrProtocol, err, "malformed int64 payload")
		}
		return common.Int(i), nil
	case "float64":
		var s string
		if err := unmarshal(&s); err != nil {
			return common.Null(), err
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return common.Null(), common.WrapError(common.ErrProtocol, err, "malformed float64 payload")
		}
		return common.Float(f), nil
	case "decimal":
		var s string
		if err := unmarshal(&s); err != nil {
			return common.Null(), err
		}
		return common.Decimal(s), nil
	case "string":
		var s string
		if err := unmarshal(&s); err != nil {
			return common.Null(), err
		}
		return common.String(s), nil
	case "bytes":
		var s string
		if err := unmarshal(&s); err != nil {
			return common.Null(), err
		}
		raw, err := base64.StdEncoding.DecodeString(s)
		if err != nil {
			return common.Null(), common.WrapError(common.ErrProtocol, err, "malformed bytes payload")
		}
		return common.Bytes(raw), nil
	case "timestamp":
		var ts [2]int64
		if err := unmarshal(&ts); err != nil {
			return common.Null(), err
		}
		return common.Time(common.Timestamp{Millis: ts[0], Nanos: int32(ts[1])}), nil
	case "map":
		var entries []jsonEntry
		if err := unmarshal(&entries); err != nil {
			return common.Null(), err
		}
		m, err := decodeJSONSection(entries)
		if err != nil {
			return common.Null(), err
		}
		return common.MapVal(m), nil
	case "array":
		var elems []jsonValue
		if err := unmarshal(&elems); err != nil {
			return common.Null(), err
		}
		vals := make([]common.Value, 0, len(elems))
		for _, e := range elems {
			v, err := decodeJSONValue(e)
			if err != nil {
				return common.Null(), err
			}
			vals = append(vals, v)
		}
		return common.Array(vals...), nil
	default:
		return common.Null(), common.Errorf(common.ErrProtocol, "unknown type tag %q", jv.T)
	}
}
