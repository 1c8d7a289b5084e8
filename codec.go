package workq

import (
	"encoding/binary"
	"io"
	"reflect"
)

// Codec serializes items to and from the spill file. Records are flat and
// fixed-size with no header, count prefix or checksum. Load signals the end
// of available records with io.EOF (nothing read) or io.ErrUnexpectedEOF
// (short read).
//
// A codec may also have a Size() int method; New rejects one that reports
// zero or less.
type Codec[T any] interface {
	Save(w io.Writer, item T) error
	Load(r io.Reader) (T, error)
}

// CodecFuncs adapts a pair of functions to the Codec interface.
type CodecFuncs[T any] struct {
	SaveFunc func(w io.Writer, item T) error
	LoadFunc func(r io.Reader) (T, error)
}

func (c CodecFuncs[T]) Save(w io.Writer, item T) error { return c.SaveFunc(w, item) }

func (c CodecFuncs[T]) Load(r io.Reader) (T, error) { return c.LoadFunc(r) }

// BinaryCodec writes T with encoding/binary. T must be a fixed-size value:
// a struct, array or number with no slices, strings, maps or pointers.
//
// Order defaults to little endian.
type BinaryCodec[T any] struct {
	Order binary.ByteOrder
}

func (c BinaryCodec[T]) order() binary.ByteOrder {
	if c.Order == nil {
		return binary.LittleEndian
	}
	return c.Order
}

// Save writes one record.
func (c BinaryCodec[T]) Save(w io.Writer, item T) error {
	return binary.Write(w, c.order(), item)
}

// Load reads one record.
func (c BinaryCodec[T]) Load(r io.Reader) (T, error) {
	var item T
	err := binary.Read(r, c.order(), &item)
	return item, err
}

// Size returns the record size in bytes, or -1 if T is not fixed-size.
func (c BinaryCodec[T]) Size() int {
	if !fixedSize(reflect.TypeOf((*T)(nil)).Elem()) {
		return -1
	}
	var item T
	return binary.Size(item)
}

// sizedCodec is implemented by codecs that know their record size
type sizedCodec interface {
	Size() int
}

// fixedSize reports whether encoding/binary writes every value of t with
// the same number of bytes
func fixedSize(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Bool,
		reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128:
		return true
	case reflect.Array:
		return fixedSize(t.Elem())
	case reflect.Struct:
		for i := 0; i < t.NumField(); i++ {
			if !fixedSize(t.Field(i).Type) {
				return false
			}
		}
		return true
	default:
		return false
	}
}
