package chain

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

// Field numbers of MsgInstantiateContractResponse.
const (
	instantiateFieldAddress protowire.Number = 1
	instantiateFieldData    protowire.Number = 2
)

// InstantiateResponse is the decoded data of a successful instantiate sub-message.
type InstantiateResponse struct {
	Address Addr
	Data    []byte
}

// EncodeInstantiateResponse encodes the protobuf MsgInstantiateContractResponse
// the host places in SubMsgResponse.Data after a successful instantiate.
func EncodeInstantiateResponse(addr Addr, data []byte) []byte {
	var b []byte
	b = protowire.AppendTag(b, instantiateFieldAddress, protowire.BytesType)
	b = protowire.AppendString(b, string(addr))
	if len(data) > 0 {
		b = protowire.AppendTag(b, instantiateFieldData, protowire.BytesType)
		b = protowire.AppendBytes(b, data)
	}
	return b
}

// ParseInstantiateResponse decodes MsgInstantiateContractResponse bytes.
// Unknown fields are skipped; a missing address is an error.
func ParseInstantiateResponse(b []byte) (InstantiateResponse, error) {
	var out InstantiateResponse
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return out, fmt.Errorf("instantiate response: %w", protowire.ParseError(n))
		}
		b = b[n:]

		switch {
		case num == instantiateFieldAddress && typ == protowire.BytesType:
			v, m := protowire.ConsumeString(b)
			if m < 0 {
				return out, fmt.Errorf("instantiate response address: %w", protowire.ParseError(m))
			}
			out.Address = Addr(v)
			b = b[m:]
		case num == instantiateFieldData && typ == protowire.BytesType:
			v, m := protowire.ConsumeBytes(b)
			if m < 0 {
				return out, fmt.Errorf("instantiate response data: %w", protowire.ParseError(m))
			}
			out.Data = append([]byte(nil), v...)
			b = b[m:]
		default:
			m := protowire.ConsumeFieldValue(num, typ, b)
			if m < 0 {
				return out, fmt.Errorf("instantiate response field %d: %w", num, protowire.ParseError(m))
			}
			b = b[m:]
		}
	}
	if out.Address.IsEmpty() {
		return out, fmt.Errorf("instantiate response: missing contract address")
	}
	return out, nil
}
