// Package codec centralizes descriptor and snapshot encoding.
//
// Codec selection is a compatibility boundary: the property snapshot records
// the id of its payload codec in its header, so changing the codec of new
// snapshots never breaks decoding of older ones as long as the old codec stays
// registered.
package codec

// Codec encodes/decodes values.
// Implementations must be safe for concurrent use.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
	Name() string
}

// Stable one-byte ids of the built-in codecs, used by binary formats.
const (
	IDJSON   byte = 1
	IDGoJSON byte = 2
	IDCBOR   byte = 3
)

var idNames = map[byte]string{
	IDJSON:   "json",
	IDGoJSON: "go-json",
	IDCBOR:   "cbor",
}

// ByName returns a built-in codec by its stable name.
func ByName(name string) (Codec, bool) {
	switch name {
	case "json":
		return JSON{}, true
	case "go-json":
		return GoJSON{}, true
	case "cbor":
		return CBOR{}, true
	default:
		return nil, false
	}
}

// ByID returns a built-in codec by its stable id.
func ByID(id byte) (Codec, bool) {
	name, ok := idNames[id]
	if !ok {
		return nil, false
	}
	return ByName(name)
}

// IDOf returns the stable id of a built-in codec.
func IDOf(c Codec) (byte, bool) {
	if c == nil {
		return 0, false
	}
	for id, name := range idNames {
		if name == c.Name() {
			return id, true
		}
	}
	return 0, false
}
