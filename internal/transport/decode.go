package transport

import (
	"bytes"

	jsoniter "github.com/json-iterator/go"

	"github.com/thunderfed/gateway/internal/exec"
	"github.com/thunderfed/gateway/internal/gqlerr"
	"github.com/thunderfed/gateway/internal/operation"
	"github.com/thunderfed/gateway/internal/response"
	"github.com/thunderfed/gateway/internal/schema"
)

// pendingAuthorizedEdge is an @authorized parent edge (spec.md §4.4)
// seen mid-hydration: the field's own value is already decoded, but
// its required sibling fields (named by @authorized(fields:...)) may
// not be yet, since FieldIDs order isn't guaranteed to put them first.
// Resolution is deferred to a second pass once obj is fully hydrated.
type pendingAuthorizedEdge struct {
	key     string
	nonNull bool
	path    []response.PathStep
	fields  *schema.FieldSet
}

// hydrateFields decodes one JSON object's worth of subgraph response
// fields into obj, in the same order the query was built from
// (fieldIDs). It is the mirror image of writeFieldList: each field the
// plan asked for is looked up in raw by its response key, and a field
// with no entry is left unset.
//
// path is the chain of PathSteps leading to obj from the response
// root, accumulated so any @authorized field discovered here can carry
// a precise path for null propagation (response.PropagateNull) if a
// later exec.Apply pass denies it. parentEdges accumulates one
// exec.Element per @authorized parent edge hydrated anywhere in this
// object's subtree, for the executor to collect and the coordinator to
// run through exec.Apply once the whole response is assembled.
func hydrateFields(tree *response.Tree, op *operation.Operation, sch *schema.Schema, fieldIDs []operation.FieldID, raw map[string]jsoniter.RawMessage, obj response.ObjectID, path []response.PathStep, parentEdges *[]exec.Element) error {
	var pending []pendingAuthorizedEdge

	for _, fid := range fieldIDs {
		f := op.FieldByID(fid)
		if f.Kind == operation.KindTypenameField {
			msg, ok := raw["__typename"]
			if !ok {
				continue
			}
			var name string
			if err := json.Unmarshal(msg, &name); err != nil {
				return gqlerr.Wrap(gqlerr.CodeSubgraphInvalidResponse, err, "decoding __typename")
			}
			tree.SetField(obj, "__typename", tree.Scalar(name), true)
			continue
		}

		def := sch.Field(f.DefinitionID)
		msg, ok := raw[f.ResponseKey]
		if !ok {
			// Absent rather than null: leave unset. No later stage
			// reports the omission either; the field is simply missing
			// from obj, mirroring how the teacher's graphql package lets
			// a partial subgraph response flow through to the caller.
			continue
		}

		var selFieldIDs []operation.FieldID
		if f.HasSelectionSet {
			selFieldIDs = op.SelectionSetByID(f.SelectionSetID).FieldIDs
		}

		// The field's own outer nullability is needed to record this
		// step's PathStep.NonNull before recursing, so peek it off a
		// throwaway iterator cursor rather than the one decodeValue
		// consumes (WrappingIter is a small value type, so this costs
		// nothing and can't desync the real one).
		peekIt := def.Wrapping.Iter()
		_, outerNonNull, _ := peekIt.Next()
		fieldPath := appendStep(path, response.PathStep{
			HasObject: true,
			Object:    obj,
			Key:       f.ResponseKey,
			NonNull:   outerNonNull,
		})

		val, _, err := decodeValue(tree, op, sch, def.Wrapping.Iter(), msg, selFieldIDs, fieldPath, parentEdges)
		if err != nil {
			return err
		}
		tree.SetField(obj, f.ResponseKey, val, outerNonNull)

		if def.Authorized != nil && !def.Authorized.Empty() {
			pending = append(pending, pendingAuthorizedEdge{
				key:     f.ResponseKey,
				nonNull: outerNonNull,
				path:    fieldPath,
				fields:  def.Authorized,
			})
		}
	}

	// obj is fully hydrated now, so every @authorized field's sibling
	// requirements (which may have appeared later in fieldIDs than the
	// authorized field itself) can be read back off it.
	for _, p := range pending {
		required := make(map[string]interface{}, len(p.fields.Items))
		for _, item := range p.fields.Items {
			name := sch.Field(item.Field).Name
			if val, ok := tree.Field(obj, name); ok {
				required[name] = treeValueToGo(tree, val)
			}
		}
		*parentEdges = append(*parentEdges, exec.Element{
			Parent:         obj,
			Key:            p.key,
			NonNull:        p.nonNull,
			Path:           p.path,
			RequiredFields: required,
		})
	}

	return nil
}

func appendStep(path []response.PathStep, step response.PathStep) []response.PathStep {
	out := make([]response.PathStep, len(path)+1)
	copy(out, path)
	out[len(path)] = step
	return out
}

// decodeValue walks one field's Wrapping outermost-in, consuming one
// list/named-type layer per jsoniter.RawMessage it's handed, until it
// reaches the named type and either recurses into a nested object
// (selFieldIDs non-empty) or interns a scalar leaf. outerNonNull
// reports whether the outermost layer was itself non-null, which is
// what response.ObjectField.NonNullChain records.
func decodeValue(tree *response.Tree, op *operation.Operation, sch *schema.Schema, it schema.WrappingIter, raw jsoniter.RawMessage, selFieldIDs []operation.FieldID, path []response.PathStep, parentEdges *[]exec.Element) (response.ValueID, bool, error) {
	isList, nonNull, _ := it.Next()
	val, err := decodeLayer(tree, op, sch, it, isList, nonNull, raw, selFieldIDs, path, parentEdges)
	return val, nonNull, err
}

func decodeLayer(tree *response.Tree, op *operation.Operation, sch *schema.Schema, it schema.WrappingIter, isList, nonNull bool, raw jsoniter.RawMessage, selFieldIDs []operation.FieldID, path []response.PathStep, parentEdges *[]exec.Element) (response.ValueID, error) {
	if isNullLiteral(raw) {
		if nonNull {
			return response.ValueID{}, gqlerr.New(gqlerr.CodeSubgraphInvalidResponse,
				"subgraph returned null for a non-null field")
		}
		return response.ValueID{Kind: response.ValueNull}, nil
	}

	if isList {
		var items []jsoniter.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil {
			return response.ValueID{}, gqlerr.Wrap(gqlerr.CodeSubgraphInvalidResponse, err, "decoding list field")
		}
		listID := tree.NewList(len(items))
		for i, item := range items {
			itemIt := it // WrappingIter is a small value type; each sibling needs its own cursor
			itemIsList, itemNonNull, _ := itemIt.Next()
			itemPath := appendStep(path, response.PathStep{
				HasList: true,
				List:    listID,
				Index:   i,
				NonNull: itemNonNull,
			})
			v, err := decodeLayer(tree, op, sch, itemIt, itemIsList, itemNonNull, item, selFieldIDs, itemPath, parentEdges)
			if err != nil {
				return response.ValueID{}, err
			}
			tree.SetListItem(listID, i, v)
		}
		return response.ValueID{Kind: response.ValueListRef, List: listID}, nil
	}

	if len(selFieldIDs) > 0 {
		var decoded map[string]jsoniter.RawMessage
		if err := json.Unmarshal(raw, &decoded); err != nil {
			return response.ValueID{}, gqlerr.Wrap(gqlerr.CodeSubgraphInvalidResponse, err, "decoding object field")
		}
		obj := tree.NewObject()
		if err := hydrateFields(tree, op, sch, selFieldIDs, decoded, obj, path, parentEdges); err != nil {
			return response.ValueID{}, err
		}
		return response.ValueID{Kind: response.ValueObjectRef, Object: obj}, nil
	}

	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return response.ValueID{}, gqlerr.Wrap(gqlerr.CodeSubgraphInvalidResponse, err, "decoding scalar field")
	}
	return tree.Scalar(v), nil
}

func isNullLiteral(raw jsoniter.RawMessage) bool {
	return raw == nil || bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// treeValueToGo reifies an already-decoded response.ValueID back into
// a plain Go value, for building an entity lookup's representation
// variable out of a parent plan's @key field outputs, and for reading
// an @authorized field's required sibling values.
func treeValueToGo(tree *response.Tree, id response.ValueID) interface{} {
	switch id.Kind {
	case response.ValueNull:
		return nil
	case response.ValueScalar:
		return tree.ScalarValue(id)
	case response.ValueListRef:
		list := tree.List(id.List)
		out := make([]interface{}, len(list.Items))
		for i, item := range list.Items {
			out[i] = treeValueToGo(tree, item)
		}
		return out
	case response.ValueObjectRef:
		obj := tree.Object(id.Object)
		out := make(map[string]interface{}, len(obj.Fields))
		for _, f := range obj.Fields {
			out[f.Key] = treeValueToGo(tree, f.Value)
		}
		return out
	default:
		return nil
	}
}
