package types

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncodeDecode(t *testing.T) {
	values := []Value{
		Integer(0),
		Integer(-42),
		Integer(math.MaxInt32),
		Float(3.5),
		Float(-0.125),
		Text(""),
		Text("Hello World"),
		Text("héllo"),
		Bytes{},
		Bytes{0x00, 0xff, 0x10},
	}

	for _, v := range values {
		buf := make([]byte, Size(v)+2)
		require.Equal(t, Size(v), Put(buf, v))
		buf = buf[:Size(v)]

		got, n, err := Decode(v.Kind(), append(buf, 0xAA, 0xBB))
		require.NoError(t, err)
		require.Equal(t, len(buf), n)
		require.Equal(t, v, got)
	}
}

func TestEncodeLayout(t *testing.T) {
	require.Equal(t, []byte{0x01, 0x00, 0x00, 0x00}, encode(Integer(1)))
	require.Equal(t, []byte{0xff, 0xff, 0xff, 0xff}, encode(Integer(-1)))
	require.Equal(t, []byte{0x02, 0x00, 0x00, 0x00, 'h', 'i'}, encode(Text("hi")))
	require.Equal(t, []byte{0x00, 0x00, 0x80, 0x3f}, encode(Float(1)))
}

func TestDecodeErrors(t *testing.T) {
	_, _, err := Decode(KindInteger, []byte{1, 2})
	require.ErrorIs(t, err, ErrShortBuffer)

	_, _, err = Decode(KindText, []byte{10, 0, 0, 0, 'a'})
	require.ErrorIs(t, err, ErrShortBuffer)

	_, _, err = Decode(Kind(9), []byte{0, 0, 0, 0})
	require.ErrorIs(t, err, ErrUnknownKind)
}

func TestCompare(t *testing.T) {
	require.Equal(t, -1, Compare(Integer(-5), Integer(3)))
	require.Equal(t, 1, Compare(Float(2.5), Float(-1)))
	require.Equal(t, 0, Compare(Text("abc"), Text("abc")))
	require.Equal(t, -1, Compare(Text("ab"), Text("abc")))
	require.Equal(t, 1, Compare(Bytes{0x02}, Bytes{0x01, 0xff}))

	_, err := CompareValues(Integer(1), Text("1"))
	require.ErrorIs(t, err, ErrKindMismatch)
	require.Panics(t, func() { Compare(Float(1), Integer(1)) })
}

func TestCompareKeys(t *testing.T) {
	a := Key{Integer(1), Text("b")}
	b := Key{Integer(1), Text("c")}
	c := Key{Integer(2), Text("a")}

	require.Equal(t, -1, CompareKeys(a, b))
	require.Equal(t, -1, CompareKeys(b, c))
	require.Equal(t, 0, CompareKeys(a, a.Copy()))
	require.Equal(t, 1, CompareKeys(c, a))
}

func TestValueOf(t *testing.T) {
	values, err := ValuesOf(7, int64(-3), float64(1.5), "x", []byte{1}, Text("y"))
	require.NoError(t, err)
	require.Equal(t, []Value{Integer(7), Integer(-3), Float(1.5), Text("x"), Bytes{1}, Text("y")}, values)

	_, err = ValueOf(int64(math.MaxInt32) + 1)
	require.ErrorIs(t, err, ErrUnsupportedValue)

	values, err = ValuesOf(uint(1), uint8(2), uint16(3), uint32(4), uint64(math.MaxInt32))
	require.NoError(t, err)
	require.Equal(t, []Value{Integer(1), Integer(2), Integer(3), Integer(4), Integer(math.MaxInt32)}, values)

	for _, v := range []interface{}{uint(math.MaxInt32) + 1, uint32(math.MaxInt32) + 1, uint64(math.MaxUint64)} {
		_, err = ValueOf(v)
		require.ErrorIs(t, err, ErrUnsupportedValue, "%T", v)
	}

	_, err = ValueOf(struct{}{})
	require.ErrorIs(t, err, ErrUnsupportedValue)
}

func TestRowCopy(t *testing.T) {
	row := Row{Integer(1), Bytes{1, 2}}
	cp := row.Copy()
	cp[1].(Bytes)[0] = 9
	require.Equal(t, Bytes{1, 2}, row[1])
}

func encode(v Value) []byte {
	buf := make([]byte, Size(v))
	Put(buf, v)
	return buf
}
