package response

import "sort"

// Object is one response object: fields kept sorted by response key so
// a requirement read (e.g. a @requires field lookup feeding the next
// plan) is O(log n) instead of a linear scan.
type Object struct {
	Fields []ObjectField
}

// ObjectField is one (key, value) slot of an Object.
type ObjectField struct {
	Key          string
	Value        ValueID
	NonNullChain bool // true if this field's own type is non-null (used by null propagation)
	Inaccessible bool // set by MarkField; omitted from serialization, still readable
}

// List is one response list: a dense slice of ValueIDs in order.
type List struct {
	Items []ValueID
}

// Tree is the executor's response arena for exactly one request. It is
// append-only except for the in-place rewrites null propagation and
// Mark perform on already-written slots — the monotonic-write
// invariant named in spec.md §3 ("once a value is written it is only
// later mutated by null propagation or marking inaccessible").
type Tree struct {
	objects []Object
	lists   []List
	scalars []interface{}

	Root ValueID

	Errors []Error
}

// NewTree starts an empty response tree.
func NewTree() *Tree {
	return &Tree{}
}

// NewObject allocates a fresh, empty object and returns its ID.
func (t *Tree) NewObject() ObjectID {
	id := ObjectID(len(t.objects))
	t.objects = append(t.objects, Object{})
	return id
}

// NewList allocates a fresh, empty list and returns its ID.
func (t *Tree) NewList(n int) ListID {
	id := ListID(len(t.lists))
	t.lists = append(t.lists, List{Items: make([]ValueID, n)})
	return id
}

// Object dereferences an ObjectID.
func (t *Tree) Object(id ObjectID) *Object { return &t.objects[id] }

// List dereferences a ListID.
func (t *Tree) List(id ListID) *List { return &t.lists[id] }

// Scalar interns a leaf scalar value (string/int/float/bool/enum as
// already-coerced Go values) and returns a ValueID referencing it.
func (t *Tree) Scalar(v interface{}) ValueID {
	idx := len(t.scalars)
	t.scalars = append(t.scalars, v)
	return ValueID{Kind: ValueScalar, Scalar: idx}
}

// ScalarValue dereferences a ValueID of Kind == ValueScalar.
func (t *Tree) ScalarValue(id ValueID) interface{} { return t.scalars[id.Scalar] }

// SetField writes (or overwrites) a field slot on obj, keeping
// Object.Fields sorted by key via insertion in sorted position — the
// field count per object is small enough that insertion sort beats the
// allocation of sorting after every write.
func (t *Tree) SetField(obj ObjectID, key string, value ValueID, nonNull bool) {
	o := &t.objects[obj]
	i := sort.Search(len(o.Fields), func(i int) bool { return o.Fields[i].Key >= key })
	if i < len(o.Fields) && o.Fields[i].Key == key {
		o.Fields[i].Value = value
		return
	}
	o.Fields = append(o.Fields, ObjectField{})
	copy(o.Fields[i+1:], o.Fields[i:])
	o.Fields[i] = ObjectField{Key: key, Value: value, NonNullChain: nonNull}
}

// Field looks up a field slot by key (used for @requires input
// collection and for the final JSON encode).
func (t *Tree) Field(obj ObjectID, key string) (ValueID, bool) {
	o := &t.objects[obj]
	i := sort.Search(len(o.Fields), func(i int) bool { return o.Fields[i].Key >= key })
	if i < len(o.Fields) && o.Fields[i].Key == key {
		return o.Fields[i].Value, true
	}
	return ValueID{}, false
}

// SetListItem writes (or overwrites) index i of list.
func (t *Tree) SetListItem(list ListID, i int, value ValueID) {
	t.lists[list].Items[i] = value
}

// MarkField sets the Inaccessible flag on a field slot (spec.md §4.5
// "sets a flag on a ResponseValueId::Field so it is omitted from
// client serialization but is still readable for requirement
// collection").
func (t *Tree) MarkField(obj ObjectID, key string) {
	o := &t.objects[obj]
	i := sort.Search(len(o.Fields), func(i int) bool { return o.Fields[i].Key >= key })
	if i < len(o.Fields) && o.Fields[i].Key == key {
		o.Fields[i].Inaccessible = true
	}
}
