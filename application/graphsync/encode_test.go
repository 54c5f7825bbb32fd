package graphsync

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeMutation_DecodesBack(t *testing.T) {
	depth := 2
	d := NewDecoder()

	for _, m := range []Mutation{
		NodeAdded{ID: "C", Label: "why?", ParentID: "B", DeclaredDepth: &depth},
		NodeDeleted{ID: "C"},
		NodeUpdated{ID: "A", Label: "ROOT 问题"},
	} {
		frame, err := EncodeMutation(m)
		require.NoError(t, err)

		got, err := d.Decode(frame)
		require.NoError(t, err, string(frame))
		assert.Equal(t, m, got)
	}
}

func TestEncodeMutation_AddFrameShape(t *testing.T) {
	depth := 1
	frame, err := EncodeMutation(NodeAdded{ID: "B", Label: "child", ParentID: "A", DeclaredDepth: &depth})
	require.NoError(t, err)

	assert.JSONEq(t,
		`{"type":"graph_update","payload":{"action":"add_node","node":{"id":"B","label":"child","depth":1,"parent":"A"}}}`,
		string(frame))
}

func TestEncodeChatAndError(t *testing.T) {
	d := NewDecoder()

	frame, err := EncodeChat("forty-two")
	require.NoError(t, err)
	got, err := d.Decode(frame)
	require.NoError(t, err)
	assert.Equal(t, ChatAnswer{Answer: "forty-two"}, got)

	frame, err = EncodeError("no model")
	require.NoError(t, err)
	got, err = d.Decode(frame)
	require.NoError(t, err)
	assert.Equal(t, ServerError{Message: "no model"}, got)
}
