package graphsync

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cogmap/domain/core/entities"
	pkgerrors "cogmap/pkg/errors"
)

func TestFollowNewChild(t *testing.T) {
	root, _ := entities.NewRootNode("A", "root")
	child, _ := entities.NewChildNode("B", "child", root)

	assert.Equal(t, child.ID(), FollowNewChild{}.AfterInsert("A", *child))
	assert.Equal(t, root.ID(), FollowNewChild{}.AfterInsert("A", *root))
	assert.EqualValues(t, "C", FollowNewChild{}.AfterInsert("C", *child))
}

func TestStayPut(t *testing.T) {
	root, _ := entities.NewRootNode("A", "root")
	child, _ := entities.NewChildNode("B", "child", root)

	assert.EqualValues(t, "A", StayPut{}.AfterInsert("A", *child))
}

func TestPolicyByName(t *testing.T) {
	p, err := PolicyByName("")
	require.NoError(t, err)
	assert.IsType(t, FollowNewChild{}, p)

	p, err = PolicyByName(PolicyStay)
	require.NoError(t, err)
	assert.IsType(t, StayPut{}, p)

	_, err = PolicyByName("teleport")
	assert.True(t, pkgerrors.IsValidation(err))
}
