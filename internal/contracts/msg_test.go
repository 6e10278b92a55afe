package contracts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/mintgate/internal/chain"
)

type sampleMsg struct {
	Claim  *Empty      `json:"claim,omitempty"`
	MintTo *sampleArgs `json:"mint_to,omitempty"`
}

type sampleArgs struct {
	Recipient string `json:"recipient"`
}

func TestDecode(t *testing.T) {
	var m sampleMsg
	name, err := Decode([]byte(`{"mint_to":{"recipient":"bob"}}`), &m)
	require.NoError(t, err)
	assert.Equal(t, "mint_to", name)
	assert.Equal(t, "bob", m.MintTo.Recipient)

	var c sampleMsg
	name, err = Decode([]byte(`{"claim":{}}`), &c)
	require.NoError(t, err)
	assert.Equal(t, "claim", name)
}

func TestDecode_Rejects(t *testing.T) {
	for _, raw := range []string{
		`{}`,
		`{"claim":{},"mint_to":{"recipient":"bob"}}`,
		`{"burn":{}}`,
		`{"mint_to":{"recipient":"bob","amount":1}}`,
		`{"claim":{}} {}`,
		`not json`,
	} {
		var m sampleMsg
		_, err := Decode([]byte(raw), &m)
		assert.True(t, chain.IsValidation(err), raw)
	}
}
