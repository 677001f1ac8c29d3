package abi

import (
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const allocationManagerJSON = `[
  {"type":"function","name":"getMaxMagnitudes","stateMutability":"view",
   "inputs":[{"name":"operator","type":"address"},{"name":"strategies","type":"address[]"}],
   "outputs":[{"name":"","type":"uint64[]"}]},
  {"type":"function","name":"getMaxMagnitudes","stateMutability":"view",
   "inputs":[{"name":"operators","type":"address[]"},{"name":"strategy","type":"address"}],
   "outputs":[{"name":"","type":"uint64[]"}]},
  {"type":"function","name":"paused","stateMutability":"view","inputs":[],
   "outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"paused","stateMutability":"view",
   "inputs":[{"name":"index","type":"uint8"}],"outputs":[{"name":"","type":"bool"}]},
  {"type":"function","name":"modifyAllocations","stateMutability":"nonpayable",
   "inputs":[{"name":"operator","type":"address"},{"name":"params","type":"tuple[]","components":[
     {"name":"operatorSet","type":"tuple","components":[{"name":"avs","type":"address"},{"name":"id","type":"uint32"}]},
     {"name":"strategies","type":"address[]"},
     {"name":"newMagnitudes","type":"uint64[]"}]}],
   "outputs":[]},
  {"type":"event","name":"AllocationUpdated","anonymous":false,"inputs":[
     {"name":"operator","type":"address","indexed":true},
     {"name":"operatorSet","type":"tuple","indexed":false,"components":[{"name":"avs","type":"address"},{"name":"id","type":"uint32"}]},
     {"name":"magnitude","type":"uint64","indexed":false}]},
  {"type":"error","name":"InvalidOperator","inputs":[]},
  {"type":"constructor","stateMutability":"nonpayable","inputs":[{"name":"_delegation","type":"address"}]}
]`

func TestParseAllocationManager(t *testing.T) {
	a, err := Parse([]byte(allocationManagerJSON))
	require.NoError(t, err)
	assert.Equal(t, 8, a.Len())
	assert.Len(t, a.Members(KindFunction), 5)
	assert.Len(t, a.Members(KindEvent), 1)
	assert.Len(t, a.Members(KindError), 1)
	assert.Len(t, a.Members(KindConstructor), 1)
}

func TestParseArtifactObject(t *testing.T) {
	doc := `{"contractName":"X","abi":[{"type":"function","name":"name","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"string"}]}],"bytecode":"0x00"}`
	a, err := Parse([]byte(doc))
	require.NoError(t, err)
	assert.Equal(t, 1, a.Len())
}

func TestParseRejectsObjectWithoutABI(t *testing.T) {
	_, err := Parse([]byte(`{"foo":1}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "abi")
}

func TestParseLegacyMutability(t *testing.T) {
	doc := `[
	  {"type":"function","name":"get","constant":true,"inputs":[],"outputs":[{"name":"","type":"uint256"}]},
	  {"type":"function","name":"deposit","payable":true,"inputs":[]},
	  {"type":"function","name":"set","inputs":[{"name":"v","type":"uint256"}]}
	]`
	a, err := Parse([]byte(doc))
	require.NoError(t, err)
	fns := a.Members(KindFunction)
	assert.Equal(t, View, fns[0].Mutability)
	assert.Equal(t, Payable, fns[1].Mutability)
	assert.Equal(t, NonPayable, fns[2].Mutability)
}

func TestNewAggregatesValidationErrors(t *testing.T) {
	_, err := New([]Entry{
		{Kind: KindFunction, Name: "", Mutability: View},
		{Kind: KindFunction, Name: "f", Inputs: []Param{{Name: "x"}}},
		{Kind: "method", Name: "g"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "without a name")
	assert.Contains(t, err.Error(), "has no type")
	assert.Contains(t, err.Error(), "unknown kind")
}

func TestNewRejectsDuplicateOverload(t *testing.T) {
	_, err := New([]Entry{
		{Kind: KindFunction, Name: "f", Inputs: []Param{{Name: "a", Type: MustNewType("uint256")}}},
		{Kind: KindFunction, Name: "f", Inputs: []Param{{Name: "b", Type: MustNewType("uint")}}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate function f(uint256)")
}

func TestNewRejectsTooManyIndexed(t *testing.T) {
	addr := MustNewType("address")
	_, err := New([]Entry{{
		Kind: KindEvent,
		Name: "E",
		Inputs: []Param{
			{Type: addr, Indexed: true}, {Type: addr, Indexed: true},
			{Type: addr, Indexed: true}, {Type: addr, Indexed: true},
		},
	}})
	require.Error(t, err)

	_, err = New([]Entry{{
		Kind:      KindEvent,
		Name:      "E",
		Anonymous: true,
		Inputs: []Param{
			{Type: addr, Indexed: true}, {Type: addr, Indexed: true},
			{Type: addr, Indexed: true}, {Type: addr, Indexed: true},
		},
	}})
	require.NoError(t, err)
}

func TestParseRejectsUnknownType(t *testing.T) {
	_, err := Parse([]byte(`[{"type":"function","name":"f","inputs":[{"name":"x","type":"fixed128x18"}]}]`))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidType)
}

func TestMarshalJSONRoundTrip(t *testing.T) {
	a, err := Parse([]byte(allocationManagerJSON))
	require.NoError(t, err)

	data, err := a.MarshalJSON()
	require.NoError(t, err)

	b, err := Parse(data)
	require.NoError(t, err)
	require.Equal(t, a.Len(), b.Len())
	for i, e := range a.Entries() {
		assert.Equal(t, e.String(), b.Entries()[i].String())
	}
}

func TestEntriesReturnsCopy(t *testing.T) {
	a, err := Parse([]byte(allocationManagerJSON))
	require.NoError(t, err)
	entries := a.Entries()
	entries[0].Name = "mutated"
	assert.Equal(t, "getMaxMagnitudes", a.Entries()[0].Name)
}

func TestSelectorsAgainstKnownValues(t *testing.T) {
	tests := []struct {
		sig  string
		want string
	}{
		{"transfer(address,uint256)", "0xa9059cbb"},
		{"balanceOf(address)", "0x70a08231"},
		{"name()", "0x06fdde03"},
		{"approve(address,uint256)", "0x095ea7b3"},
	}
	for _, tt := range tests {
		t.Run(tt.sig, func(t *testing.T) {
			name, inputs, err := CanonicalInputs(tt.sig)
			require.NoError(t, err)
			typ, err := NewType(inputs, nil)
			require.NoError(t, err)
			e := Entry{Kind: KindFunction, Name: name, Inputs: typ.Components}
			assert.Equal(t, tt.want, e.SelectorHex())
		})
	}
}

func TestSelectorMatchesGethKeccak(t *testing.T) {
	a, err := Parse([]byte(allocationManagerJSON))
	require.NoError(t, err)
	for _, e := range a.Members(KindFunction) {
		want := crypto.Keccak256([]byte(e.Signature()))[:4]
		sel := e.Selector()
		assert.Equal(t, want, sel[:], e.Signature())
	}
}

func TestTopicTransfer(t *testing.T) {
	addr, u := MustNewType("address"), MustNewType("uint256")
	e := Entry{Kind: KindEvent, Name: "Transfer", Inputs: []Param{
		{Type: addr, Indexed: true}, {Type: addr, Indexed: true}, {Type: u},
	}}
	topic, ok := e.Topic()
	require.True(t, ok)
	assert.Equal(t, "0xddf252ad1be2c89b69c2b068fc378daa952ba7f163c4a11628f55a4df523b3ef", topic.Hex())

	e.Anonymous = true
	_, ok = e.Topic()
	assert.False(t, ok)
}

func TestSelectorDeterminismAndDistinctness(t *testing.T) {
	a, err := Parse([]byte(allocationManagerJSON))
	require.NoError(t, err)

	seen := map[[4]byte]string{}
	for _, e := range a.Members(KindFunction) {
		assert.Equal(t, e.Selector(), e.Selector())
		if prev, dup := seen[e.Selector()]; dup {
			t.Fatalf("selector collision between %s and %s", prev, e.Signature())
		}
		seen[e.Selector()] = e.Signature()
	}
}

func TestCanonicalSignatureExpandsTuples(t *testing.T) {
	a, err := Parse([]byte(allocationManagerJSON))
	require.NoError(t, err)
	e, err := a.Resolve(KindFunction, "modifyAllocations", "")
	require.NoError(t, err)
	assert.Equal(t, "modifyAllocations(address,((address,uint32),address[],uint64[])[])", e.Signature())

	ev, err := a.Resolve(KindEvent, "AllocationUpdated", "")
	require.NoError(t, err)
	assert.Equal(t, "AllocationUpdated(address,(address,uint32),uint64)", ev.Signature())
}
