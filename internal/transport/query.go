// Package transport dispatches one solver.Plan to its subgraph and
// decodes the JSON result back into a response.Tree, implementing
// exec.SubgraphClient (spec.md §4.4/§6). It is grounded on the
// teacher's federation/http.go gateway-to-subgraph POST, generalized
// from a single hand-rolled query string to one built per plan.
package transport

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/thunderfed/gateway/internal/operation"
	"github.com/thunderfed/gateway/internal/schema"
	"github.com/thunderfed/gateway/internal/shape"
)

// representationKeyAlias is the alias under which each _entities result
// selects its __typename. The decoder does not read it: results are
// matched to representations by position, which relies on the subgraph
// answering in input order.
const representationKeyAlias = "__repr_index"

// buildRootQuery renders the plan's fields as a top-level `query { }`
// document against a subgraph's own root Query type.
func buildRootQuery(op *operation.Operation, sch *schema.Schema, fieldIDs []operation.FieldID, vars map[string]interface{}) string {
	var b strings.Builder
	b.WriteString("query{")
	writeFieldList(&b, op, sch, fieldIDs, vars)
	b.WriteString("}")
	return b.String()
}

// buildEntityQuery renders a `_entities(representations: [...])`
// lookup for an entity-lookup resolver (spec.md §4.2's
// ResolverEntityLookup): one representation per input object, each
// result also selecting __typename under representationKeyAlias.
// Results are matched back up by position.
func buildEntityQuery(op *operation.Operation, sch *schema.Schema, def *schema.ResolverDefinition, fieldIDs []operation.FieldID) string {
	entityType := sch.Type(def.EntityType)
	var b strings.Builder
	fmt.Fprintf(&b, "query($representations:[_Any!]!){_entities(representations:$representations){")
	fmt.Fprintf(&b, "%s:__typename ... on %s{", representationKeyAlias, entityType.Name)
	writeFieldList(&b, op, sch, fieldIDs, nil)
	b.WriteString("}}}")
	return b.String()
}

// Root and entity-lookup selection sets are always rooted at a
// concrete object type (Query, Mutation, or the entity's own type),
// never at an interface or union, so they render flat with no
// type-condition guards. writeField's own nested selections, by
// contrast, may land on an abstract type and go through shape.Build
// below.
func writeFieldList(b *strings.Builder, op *operation.Operation, sch *schema.Schema, fieldIDs []operation.FieldID, vars map[string]interface{}) {
	for i, fid := range fieldIDs {
		if i > 0 {
			b.WriteString(" ")
		}
		writeField(b, op, sch, fid, vars)
	}
}

func writeField(b *strings.Builder, op *operation.Operation, sch *schema.Schema, fid operation.FieldID, vars map[string]interface{}) {
	f := op.FieldByID(fid)
	if f.Kind == operation.KindTypenameField {
		b.WriteString("__typename")
		return
	}
	def := sch.Field(f.DefinitionID)
	if f.ResponseKey != def.Name {
		fmt.Fprintf(b, "%s:", f.ResponseKey)
	}
	b.WriteString(def.Name)
	writeArguments(b, op, sch, f, vars)
	if f.HasSelectionSet {
		sh := shape.Build(op, sch, f.SelectionSetID)
		b.WriteString("{")
		writeSelectionShape(b, op, sch, sh, vars)
		b.WriteString("}")
	}
}

// writeSelectionShape renders one field's partitioned response shape
// (spec.md §4.3): a shape with no polymorphism renders flat, same as
// before shape.Build existed; a shape the partitioner split by type
// condition renders each partition behind its own `... on Type{}`
// guard(s), so a subgraph never sees a field it can't serve off the
// selection set's static type (partition soundness, spec.md §8).
func writeSelectionShape(b *strings.Builder, op *operation.Operation, sch *schema.Schema, sh *shape.ObjectShape, vars map[string]interface{}) {
	if sh.Concrete != nil {
		writeShapeFields(b, op, sch, sh.Concrete.Fields, vars)
		return
	}
	for i, part := range sh.Polymorphic {
		if i > 0 {
			b.WriteString(" ")
		}
		writeShapePartition(b, op, sch, part, vars)
	}
}

// writeShapePartition guards one ConcreteObjectShape behind an inline
// fragment per concrete type it applies to. A partition can cover more
// than one concrete type (every object sharing the exact same field
// set under this selection), so the guard is repeated once per type
// rather than assuming the partition names a single object.
func writeShapePartition(b *strings.Builder, op *operation.Operation, sch *schema.Schema, part *shape.ConcreteObjectShape, vars map[string]interface{}) {
	for i, obj := range part.Objects {
		if i > 0 {
			b.WriteString(" ")
		}
		fmt.Fprintf(b, "... on %s{", sch.Type(obj).Name)
		writeShapeFields(b, op, sch, part.Fields, vars)
		b.WriteString("}")
	}
}

func writeShapeFields(b *strings.Builder, op *operation.Operation, sch *schema.Schema, fields []shape.FieldShape, vars map[string]interface{}) {
	for i, fs := range fields {
		if i > 0 {
			b.WriteString(" ")
		}
		writeShapeField(b, op, sch, fs, vars)
	}
}

func writeShapeField(b *strings.Builder, op *operation.Operation, sch *schema.Schema, fs shape.FieldShape, vars map[string]interface{}) {
	if fs.IsTypename {
		b.WriteString("__typename")
		return
	}
	f := op.FieldByID(fs.Field)
	def := sch.Field(f.DefinitionID)
	if f.ResponseKey != def.Name {
		fmt.Fprintf(b, "%s:", f.ResponseKey)
	}
	b.WriteString(def.Name)
	writeArguments(b, op, sch, f, vars)
	if fs.Nested != nil {
		b.WriteString("{")
		writeSelectionShape(b, op, sch, fs.Nested, vars)
		b.WriteString("}")
	}
}

// writeArguments renders a field's arguments sorted by name: f.Arguments
// is a Go map, and emitting it in range order would make the rendered
// query (and therefore any request-layer hashing or comparison a
// caller does over it) nondeterministic across otherwise-identical
// calls, violating the §8 byte-equal idempotence property.
func writeArguments(b *strings.Builder, op *operation.Operation, sch *schema.Schema, f *operation.Field, vars map[string]interface{}) {
	if len(f.Arguments) == 0 {
		return
	}
	names := make([]string, 0, len(f.Arguments))
	for name := range f.Arguments {
		names = append(names, name)
	}
	sort.Strings(names)

	b.WriteString("(")
	for i, name := range names {
		if i > 0 {
			b.WriteString(",")
		}
		fmt.Fprintf(b, "%s:", name)
		writeLiteral(b, op, op.Value(f.Arguments[name]), vars)
	}
	b.WriteString(")")
}

// writeLiteral renders a coerced operation-time value as a GraphQL
// literal inline, reifying ValueVariable against the request's actual
// variable values (already resolved by the time a plan dispatches) so
// the subgraph sees plain literals instead of undeclared variable
// references.
func writeLiteral(b *strings.Builder, op *operation.Operation, v *operation.QueryInputValue, vars map[string]interface{}) {
	switch v.Kind {
	case operation.ValueNull:
		b.WriteString("null")
	case operation.ValueString, operation.ValueEnum, operation.ValueUnboundEnum:
		if v.Kind == operation.ValueString {
			fmt.Fprintf(b, "%q", v.Str)
		} else {
			b.WriteString(v.Str)
		}
	case operation.ValueInt, operation.ValueBigInt:
		b.WriteString(strconv.FormatInt(v.Int, 10))
	case operation.ValueU64:
		b.WriteString(strconv.FormatUint(v.U64, 10))
	case operation.ValueFloat:
		b.WriteString(strconv.FormatFloat(v.Float, 'g', -1, 64))
	case operation.ValueBool:
		b.WriteString(strconv.FormatBool(v.Bool))
	case operation.ValueList:
		b.WriteString("[")
		for i := v.ListRange.Start; i < v.ListRange.End; i++ {
			if i > v.ListRange.Start {
				b.WriteString(",")
			}
			writeLiteral(b, op, op.Value(i), vars)
		}
		b.WriteString("]")
	case operation.ValueInputObject:
		b.WriteString("{")
		first := true
		for i := v.ObjectRange.Start; i < v.ObjectRange.End; i++ {
			field := op.InputObjectField(i)
			if !first {
				b.WriteString(",")
			}
			first = false
			fmt.Fprintf(b, "%s:", field.Name)
			writeLiteral(b, op, op.Value(field.Value), vars)
		}
		b.WriteString("}")
	case operation.ValueMap:
		b.WriteString("{")
		first := true
		for i := v.MapRange.Start; i < v.MapRange.End; i++ {
			entry := op.MapEntry(i)
			if !first {
				b.WriteString(",")
			}
			first = false
			fmt.Fprintf(b, "%q:", entry.Key)
			writeLiteral(b, op, op.Value(entry.Value), vars)
		}
		b.WriteString("}")
	case operation.ValueVariable:
		def := op.VariableByID(v.VariableID)
		writeGoValue(b, vars[def.Name])
	case operation.ValueDefault:
		// Defaults are resolved at bind time in practice; falling back
		// to null here only matters for a value this gateway never
		// actually produces (a ValueDefault with no resolved default).
		b.WriteString("null")
	}
}

// writeGoValue renders an already-decoded Go value (request JSON
// variables) as a GraphQL literal. Object keys are sorted for the same
// determinism reason as writeArguments.
func writeGoValue(b *strings.Builder, v interface{}) {
	switch val := v.(type) {
	case nil:
		b.WriteString("null")
	case string:
		fmt.Fprintf(b, "%q", val)
	case bool:
		b.WriteString(strconv.FormatBool(val))
	case float64:
		b.WriteString(strconv.FormatFloat(val, 'g', -1, 64))
	case []interface{}:
		b.WriteString("[")
		for i, e := range val {
			if i > 0 {
				b.WriteString(",")
			}
			writeGoValue(b, e)
		}
		b.WriteString("]")
	case map[string]interface{}:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		b.WriteString("{")
		for i, k := range keys {
			if i > 0 {
				b.WriteString(",")
			}
			fmt.Fprintf(b, "%s:", k)
			writeGoValue(b, val[k])
		}
		b.WriteString("}")
	default:
		fmt.Fprintf(b, "%v", val)
	}
}
