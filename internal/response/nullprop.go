package response

// PathStep is one step from the operation root down toward a value
// that turned out to be null, recorded at write time so null
// propagation can walk back up without parent pointers (spec.md §4.5).
// Exactly one of HasObject/HasList is set.
type PathStep struct {
	HasObject bool
	Object    ObjectID
	Key       string

	HasList bool
	List    ListID
	Index   int

	// NonNull is whether the *slot this step writes into* is itself
	// non-null-typed — i.e. whether writing null here would violate
	// the schema and require bubbling further up.
	NonNull bool
}

// PropagateNull implements spec.md §4.5: "given a path, walk upward;
// at each step, if the value is in a non-null wrapping, replace the
// enclosing nullable container's value with Null and repeat. Stop at
// the root field's nullable boundary, or at the operation root (in
// which case data becomes null)."
func (t *Tree) PropagateNull(path []PathStep) {
	for i := len(path) - 1; i >= 0; i-- {
		step := path[i]
		switch {
		case step.HasObject:
			t.SetField(step.Object, step.Key, ValueID{Kind: ValueNull}, step.NonNull)
		case step.HasList:
			t.SetListItem(step.List, step.Index, ValueID{Kind: ValueNull})
		}
		if !step.NonNull {
			return
		}
		// This slot itself is non-null, so nulling it is itself a
		// violation: keep walking to null the enclosing container.
	}
	t.Root = ValueID{Kind: ValueNull}
}
