package codec

// Scalar type tags. The numeric values are part of the wire format.
const (
	tagNull       int16 = 0
	tagBool       int16 = 1
	tagShort      int16 = 2
	tagInt        int16 = 3
	tagLong       int16 = 4
	tagFloat      int16 = 5
	tagDouble     int16 = 6
	tagString     int16 = 7
	tagObjectNull int16 = 8
	tagDate       int16 = 9
)

// NullValue is the type of Null.
type NullValue struct{}

// Null is the explicit null marker. It lets callers tell "field present with
// a null value" apart from "field omitted" (a nil scalar).
var Null NullValue

func (NullValue) String() string { return "<null>" }
