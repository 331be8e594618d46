package protocol

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

// Envelope is the logical unit carried inside one frame payload. CommandID
// is stable across every frame of one exchange; HasNext marks non-terminal
// frames of a chain.
type Envelope struct {
	CommandID uint32
	Status    Status
	HasNext   bool
	Content   Content
}

// Marshal encodes the envelope into a frame payload. Zero-valued envelope
// fields are omitted, protobuf style.
func (e Envelope) Marshal() []byte {
	var b []byte
	b = appendVarintField(b, 1, uint64(e.CommandID))
	b = appendVarintField(b, 2, uint64(e.Status))
	b = appendBoolField(b, 3, e.HasNext)
	if e.Content != nil {
		b = protowire.AppendTag(b, e.Content.field(), protowire.BytesType)
		b = protowire.AppendBytes(b, e.Content.marshal())
	}
	return b
}

// Unmarshal decodes one frame payload. A payload with no content field
// yields a nil Content; unknown envelope fields are an error because they
// indicate a catalog the client does not speak.
func Unmarshal(b []byte) (Envelope, error) {
	var e Envelope
	var cerr error
	err := eachField(b, func(num protowire.Number, typ protowire.Type, v []byte, u uint64) {
		if cerr != nil {
			return
		}
		switch num {
		case 1:
			e.CommandID = uint32(u)
		case 2:
			e.Status = Status(u)
		case 3:
			e.HasNext = u != 0
		default:
			if typ != protowire.BytesType {
				cerr = fmt.Errorf("protocol: content field %d is not length-delimited", num)
				return
			}
			e.Content, cerr = unmarshalContent(num, v)
		}
	})
	if err != nil {
		return Envelope{}, err
	}
	if cerr != nil {
		return Envelope{}, cerr
	}
	return e, nil
}

// eachField walks every field of a protobuf payload. Varint fields arrive
// in u, length-delimited fields in v; other wire types are skipped.
func eachField(b []byte, fn func(num protowire.Number, typ protowire.Type, v []byte, u uint64)) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return fmt.Errorf("protocol: malformed tag: %w", protowire.ParseError(n))
		}
		b = b[n:]
		switch typ {
		case protowire.VarintType:
			u, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return fmt.Errorf("protocol: malformed varint field %d: %w", num, protowire.ParseError(n))
			}
			fn(num, typ, nil, u)
			b = b[n:]
		case protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return fmt.Errorf("protocol: malformed bytes field %d: %w", num, protowire.ParseError(n))
			}
			fn(num, typ, v, 0)
			b = b[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return fmt.Errorf("protocol: malformed field %d: %w", num, protowire.ParseError(n))
			}
			b = b[n:]
		}
	}
	return nil
}

func appendVarintField(b []byte, num protowire.Number, v uint64) []byte {
	if v == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

func appendBoolField(b []byte, num protowire.Number, v bool) []byte {
	if !v {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, 1)
}

func appendStringField(b []byte, num protowire.Number, s string) []byte {
	if s == "" {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, s)
}

func appendBytesField(b []byte, num protowire.Number, v []byte) []byte {
	if len(v) == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, v)
}

func appendMessageField(b []byte, num protowire.Number, f *File) []byte {
	if f == nil {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, f.marshal())
}
