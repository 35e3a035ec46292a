package response

// ToJSONValue walks id and reifies it into the plain Go value
// (map[string]interface{}, []interface{}, scalar, or nil) that
// encoding/json renders as the GraphQL-over-HTTP "data" payload.
// Fields marked Inaccessible by MarkField are omitted, matching
// spec.md §4.5's "omitted from client serialization but still
// readable for requirement collection".
func (t *Tree) ToJSONValue(id ValueID) interface{} {
	switch id.Kind {
	case ValueNull:
		return nil
	case ValueScalar:
		return t.ScalarValue(id)
	case ValueObjectRef:
		o := t.Object(id.Object)
		out := make(map[string]interface{}, len(o.Fields))
		for _, f := range o.Fields {
			if f.Inaccessible {
				continue
			}
			out[f.Key] = t.ToJSONValue(f.Value)
		}
		return out
	case ValueListRef:
		l := t.List(id.List)
		out := make([]interface{}, len(l.Items))
		for i, item := range l.Items {
			out[i] = t.ToJSONValue(item)
		}
		return out
	default:
		return nil
	}
}

// Data renders the tree's root value, or nil if the root was never
// set (a request that failed before any plan was dispatched).
func (t *Tree) Data() interface{} {
	if t.Root == (ValueID{}) && len(t.objects) == 0 {
		return nil
	}
	return t.ToJSONValue(t.Root)
}
