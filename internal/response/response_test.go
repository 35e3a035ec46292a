package response

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPropagateNullStopsAtNullableBoundary(t *testing.T) {
	tree := NewTree()
	parent := tree.NewObject()
	child := tree.NewObject()
	tree.SetField(parent, "profile", ValueID{Kind: ValueObjectRef, Object: child}, false)
	tree.SetField(child, "name", tree.Scalar("a"), true)

	path := []PathStep{{HasObject: true, Object: parent, Key: "profile", NonNull: false}}
	tree.PropagateNull(path)

	v, ok := tree.Field(parent, "profile")
	require.True(t, ok)
	require.Equal(t, ValueNull, v.Kind)
}

func TestPropagateNullBubblesThroughNonNullChain(t *testing.T) {
	tree := NewTree()
	root := tree.NewObject()
	mid := tree.NewObject()
	tree.SetField(root, "a", ValueID{Kind: ValueObjectRef, Object: mid}, false)
	tree.Root = ValueID{Kind: ValueObjectRef, Object: root}

	path := []PathStep{
		{HasObject: true, Object: root, Key: "a", NonNull: false},
		{HasObject: true, Object: mid, Key: "b", NonNull: true},
	}
	tree.PropagateNull(path)

	// "b" is non-null, so nulling it bubbles up to null "a" on root
	// (the nullable boundary), leaving Root untouched.
	v, ok := tree.Field(root, "a")
	require.True(t, ok)
	require.Equal(t, ValueNull, v.Kind)
}

func TestToJSONValueRendersNestedObjectsAndLists(t *testing.T) {
	tree := NewTree()
	root := tree.NewObject()
	item := tree.NewObject()
	tree.SetField(item, "name", tree.Scalar("a"), true)

	list := tree.NewList(1)
	tree.SetListItem(list, 0, ValueID{Kind: ValueObjectRef, Object: item})
	tree.SetField(root, "items", ValueID{Kind: ValueListRef, List: list}, false)
	tree.SetField(root, "secret", tree.Scalar("hidden"), false)
	tree.MarkField(root, "secret")
	tree.Root = ValueID{Kind: ValueObjectRef, Object: root}

	data := tree.Data().(map[string]interface{})
	_, hasSecret := data["secret"]
	require.False(t, hasSecret)

	items := data["items"].([]interface{})
	require.Len(t, items, 1)
	require.Equal(t, "a", items[0].(map[string]interface{})["name"])
}

func TestDataReturnsNilForEmptyTree(t *testing.T) {
	tree := NewTree()
	require.Nil(t, tree.Data())
}
