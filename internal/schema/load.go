package schema

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/samsarahq/go/oops"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/parser"
)

// Load builds a Schema from supergraph SDL text: the already-composed
// descriptor §1 and §4.1 describe (composing subgraph SDLs into a
// supergraph is the out-of-scope part; a real federation gateway's own
// startup path — Apollo Router reading its supergraph.graphql, for
// instance — parses exactly this kind of already-composed document).
// The directives recognized are the ones spec.md §6 lists bit-exact:
// join__graph/join__type/join__field for graph membership and ownership,
// @key (carried on join__type), @requires/@provides (carried on
// join__field), @inaccessible, @authorized, @cost, @listSize, @oneOf,
// and the composite-schema lookup pair @composite__lookup/@composite__is
// (SPEC_FULL.md "Supplemented features" #1).
//
// Parsing is delegated to github.com/vektah/gqlparser/v2, the same
// adapter dependency internal/queryparse uses for operation text — SDL
// and query documents share a grammar family, and gqlparser exposes a
// dedicated ParseSchema entry point for it.
func Load(sdl string) (*Schema, error) {
	doc, err := parser.ParseSchema(&ast.Source{Name: "supergraph", Input: sdl})
	if err != nil {
		return nil, oops.Wrapf(err, "parsing supergraph SDL")
	}

	l := &loader{
		b:            NewBuilder(),
		graphToSub:   map[string]SubgraphID{},
		typeEntries:  map[TypeID][]joinTypeEntry{},
		fieldGraphs:  map[FieldID][]string{},
		nativeRes:    map[SubgraphID]ResolverID{},
		lookupRes:    map[lookupKey]ResolverID{},
		pendingFSets: map[FieldID]pendingFieldSet{},
		argAlias:     map[ArgumentID]string{},
	}

	l.loadSubgraphs(doc)

	for _, kind := range []ast.DefinitionKind{ast.Scalar, ast.Enum, ast.Interface, ast.Object, ast.InputObject} {
		for _, def := range doc.Definitions {
			if def.Kind == kind {
				l.registerType(def)
			}
		}
	}

	var lookupFields []FieldID
	for _, def := range doc.Definitions {
		switch def.Kind {
		case ast.Object, ast.Interface, ast.InputObject:
			found, err := l.registerFields(def)
			if err != nil {
				return nil, err
			}
			lookupFields = append(lookupFields, found...)
		}
	}

	if err := l.patchFieldSets(); err != nil {
		return nil, err
	}

	for _, def := range doc.Definitions {
		if def.Kind == ast.Union {
			l.registerUnionPossibleTypes(def)
		}
	}
	l.finalizeInterfacePossibleTypes(doc)

	if err := l.attachResolvers(lookupFields); err != nil {
		return nil, err
	}

	return l.b.Build()
}

type joinTypeEntry struct {
	Graph      SubgraphID
	Key        string
	Resolvable bool
}

type lookupKey struct {
	Type  TypeID
	Graph SubgraphID
}

type pendingFieldSet struct {
	Parent    TypeID
	Return    TypeID
	Requires  string
	Provides  string
	Authorize string
}

type loader struct {
	b *Builder

	graphToSub  map[string]SubgraphID
	typeEntries map[TypeID][]joinTypeEntry
	fieldGraphs map[FieldID][]string // explicit @join__field(graph:) list; empty means "inherit from type"

	nativeRes map[SubgraphID]ResolverID
	lookupRes map[lookupKey]ResolverID

	pendingFSets map[FieldID]pendingFieldSet

	// argAlias records @composite__is(field:) renamings: an argument
	// whose name doesn't match its key field but is declared equivalent
	// to one by this directive (SPEC_FULL.md "Supplemented features" #1).
	argAlias map[ArgumentID]string
}

// loadSubgraphs reads the `enum join__Graph { USERS @join__graph(name:
// "users") ... }` declaration real supergraph SDL uses to name its
// member subgraphs.
func (l *loader) loadSubgraphs(doc *ast.SchemaDocument) {
	for _, def := range doc.Definitions {
		if def.Kind != ast.Enum || def.Name != "join__Graph" {
			continue
		}
		for _, v := range def.EnumValues {
			d := findDirective(v.Directives, "join__graph")
			if d == nil {
				continue
			}
			name, _ := stringArg(d, "name")
			if name == "" {
				name = v.Name
			}
			sub := l.b.AddSubgraph(name)
			l.graphToSub[v.Name] = sub
		}
	}
}

func isMachineryType(name string) bool {
	return strings.HasPrefix(name, "join__") || strings.HasPrefix(name, "link__") ||
		strings.HasPrefix(name, "core__") || name == "_Any" || name == "_Service" || name == "_Entity"
}

func (l *loader) registerType(def *ast.Definition) {
	if isMachineryType(def.Name) {
		return
	}
	td := TypeDefinition{Name: def.Name, Inaccessible: hasDirective(def.Directives, "inaccessible")}

	switch def.Kind {
	case ast.Scalar:
		td.Kind = KindScalar
	case ast.Enum:
		td.Kind = KindEnum
		td.InaccessibleEnumValues = map[string]bool{}
		for _, v := range def.EnumValues {
			td.EnumValues = append(td.EnumValues, v.Name)
			if hasDirective(v.Directives, "inaccessible") {
				td.InaccessibleEnumValues[v.Name] = true
			}
		}
	case ast.Interface:
		td.Kind = KindInterface
	case ast.Object:
		td.Kind = KindObject
		for _, iface := range def.Interfaces {
			if id, ok := l.b.s.TypeByName(iface); ok {
				td.Implements = append(td.Implements, id)
			}
		}
	case ast.InputObject:
		td.Kind = KindInputObject
		td.OneOf = hasDirective(def.Directives, "oneOf")
	case ast.Union:
		td.Kind = KindUnion
	default:
		return
	}

	id := l.b.DefineType(td)

	for _, d := range findDirectives(def.Directives, "join__type") {
		graphName, _ := stringArg(d, "graph")
		sub, ok := l.graphToSub[graphName]
		if !ok {
			continue
		}
		key, _ := stringArg(d, "key")
		resolvable := true
		if v, ok := boolArg(d, "resolvable"); ok {
			resolvable = v
		}
		l.typeEntries[id] = append(l.typeEntries[id], joinTypeEntry{Graph: sub, Key: key, Resolvable: resolvable})
	}
}

// registerFields interns def's fields (and their arguments), returning
// the FieldIDs marked @composite__lookup for the later resolver pass.
func (l *loader) registerFields(def *ast.Definition) ([]FieldID, error) {
	typeID, ok := l.b.s.TypeByName(def.Name)
	if !ok || isMachineryType(def.Name) {
		return nil, nil
	}
	if len(def.Fields) == 0 {
		return nil, nil
	}

	var lookupFields []FieldID
	start := FieldID(len(l.b.s.Fields))
	for _, f := range def.Fields {
		if strings.HasPrefix(f.Name, "__") {
			continue
		}
		argRange, err := l.defineArguments(f.Arguments)
		if err != nil {
			return nil, oops.Wrapf(err, "field %s.%s arguments", def.Name, f.Name)
		}

		named, wrapping := wrappingFromType(f.Type)
		fieldType, err := l.typeIDFor(named)
		if err != nil {
			return nil, oops.Wrapf(err, "field %s.%s", def.Name, f.Name)
		}

		fd := FieldDefinition{
			Name:         f.Name,
			ParentEntity: typeID,
			Type:         fieldType,
			Wrapping:     wrapping,
			Arguments:    argRange,
			Inaccessible: hasDirective(f.Directives, "inaccessible"),
		}
		if d := findDirective(f.Directives, "cost"); d != nil {
			if w, ok := intArg(d, "weight"); ok {
				fd.CostWeight = w
			}
		}
		if d := findDirective(f.Directives, "listSize"); d != nil {
			fd.ListSize = listSizeFromDirective(d)
		}
		if def.Kind == ast.InputObject && f.DefaultValue != nil {
			cv, err := l.constValue(f.DefaultValue)
			if err != nil {
				return nil, oops.Wrapf(err, "field %s.%s default value", def.Name, f.Name)
			}
			fd.DefaultValue = &cv
		}

		fid := l.b.DefineField(fd)

		var graphs []string
		for _, d := range findDirectives(f.Directives, "join__field") {
			graphName, _ := stringArg(d, "graph")
			if graphName != "" {
				graphs = append(graphs, graphName)
			}
			requires, _ := stringArg(d, "requires")
			provides, _ := stringArg(d, "provides")
			if requires != "" || provides != "" {
				l.pendingFSets[fid] = pendingFieldSet{Parent: typeID, Return: fieldType, Requires: requires, Provides: provides}
			}
		}
		l.fieldGraphs[fid] = graphs

		if d := findDirective(f.Directives, "authorized"); d != nil {
			if fields, ok := stringArg(d, "fields"); ok && fields != "" {
				p := l.pendingFSets[fid]
				p.Parent = typeID
				p.Authorize = fields
				l.pendingFSets[fid] = p
			}
		}

		if hasDirective(f.Directives, "composite__lookup") || hasDirective(f.Directives, "lookup") {
			lookupFields = append(lookupFields, fid)
		}
	}
	end := FieldID(len(l.b.s.Fields))
	if end > start {
		l.b.SetFieldRange(typeID, IDRange[FieldID]{Start: start, End: end})
		if def.Kind == ast.InputObject {
			l.b.s.Types[typeID].InputFields = IDRange[FieldID]{Start: start, End: end}
		}
	}
	return lookupFields, nil
}

func (l *loader) defineArguments(defs ast.ArgumentDefinitionList) (IDRange[ArgumentID], error) {
	if len(defs) == 0 {
		return IDRange[ArgumentID]{}, nil
	}
	start := ArgumentID(len(l.b.s.Arguments))
	for _, a := range defs {
		named, wrapping := wrappingFromType(a.Type)
		typeID, err := l.typeIDFor(named)
		if err != nil {
			return IDRange[ArgumentID]{}, err
		}
		arg := Argument{
			Name:         a.Name,
			Type:         typeID,
			Wrapping:     wrapping,
			Inaccessible: hasDirective(a.Directives, "inaccessible"),
		}
		if a.DefaultValue != nil {
			cv, err := l.constValue(a.DefaultValue)
			if err != nil {
				return IDRange[ArgumentID]{}, err
			}
			arg.DefaultValue = &cv
		}
		argID := l.b.DefineArgument(arg)
		if d := findDirective(a.Directives, "composite__is"); d != nil {
			if field, ok := stringArg(d, "field"); ok && field != "" {
				l.argAlias[argID] = field
			}
		}
	}
	end := ArgumentID(len(l.b.s.Arguments))
	return IDRange[ArgumentID]{Start: start, End: end}, nil
}

// typeIDFor resolves a named type, lazily interning the five built-in
// scalars if a supergraph document leaves them implicit.
func (l *loader) typeIDFor(name string) (TypeID, error) {
	if id, ok := l.b.s.TypeByName(name); ok {
		return id, nil
	}
	switch name {
	case "Int", "Float", "String", "Boolean", "ID":
		return l.b.DefineType(TypeDefinition{Name: name, Kind: KindScalar}), nil
	}
	return 0, fmt.Errorf("schema: reference to undeclared type %q", name)
}

func (l *loader) patchFieldSets() error {
	for fid, p := range l.pendingFSets {
		var requires, provides, authorized *FieldSet
		if p.Requires != "" {
			fs, err := l.parseFieldSet(p.Parent, p.Requires)
			if err != nil {
				return oops.Wrapf(err, "@requires on field %d", fid)
			}
			requires = &fs
		}
		if p.Provides != "" {
			fs, err := l.parseFieldSet(p.Return, p.Provides)
			if err != nil {
				return oops.Wrapf(err, "@provides on field %d", fid)
			}
			provides = &fs
		}
		if p.Authorize != "" {
			fs, err := l.parseFieldSet(p.Parent, p.Authorize)
			if err != nil {
				return oops.Wrapf(err, "@authorized on field %d", fid)
			}
			authorized = &fs
		}
		l.b.SetFieldDirectives(fid, requires, provides, authorized)
	}
	return nil
}

// parseFieldSet parses a @key/@requires/@provides/@authorized field-set
// string by wrapping it in braces and running it through the same
// query-document parser internal/queryparse uses, rather than hand
// writing a second small grammar for it.
func (l *loader) parseFieldSet(parent TypeID, raw string) (FieldSet, error) {
	doc, err := parser.ParseQuery(&ast.Source{Input: "{" + raw + "}"})
	if err != nil {
		return FieldSet{}, oops.Wrapf(err, "parsing field set %q", raw)
	}
	if len(doc.Operations) != 1 {
		return FieldSet{}, fmt.Errorf("schema: field set %q did not parse to one selection set", raw)
	}
	return l.fieldSetFromSelectionSet(parent, doc.Operations[0].SelectionSet)
}

func (l *loader) fieldSetFromSelectionSet(parent TypeID, set ast.SelectionSet) (FieldSet, error) {
	items := make([]FieldSetItem, 0, len(set))
	for _, sel := range set {
		f, ok := sel.(*ast.Field)
		if !ok {
			return FieldSet{}, fmt.Errorf("schema: field sets only support plain field selections")
		}
		fid, ok := l.b.s.FieldByName(parent, f.Name)
		if !ok {
			return FieldSet{}, fmt.Errorf("schema: field set references unknown field %q on %s", f.Name, l.b.s.Type(parent).Name)
		}
		item := FieldSetItem{Field: fid}
		if len(f.Arguments) > 0 {
			item.Arguments = map[string]ConstValue{}
			for _, a := range f.Arguments {
				cv, err := l.constValue(a.Value)
				if err != nil {
					return FieldSet{}, err
				}
				item.Arguments[a.Name] = cv
			}
		}
		if len(f.SelectionSet) > 0 {
			childType := l.b.s.Field(fid).Type
			sub, err := l.fieldSetFromSelectionSet(childType, f.SelectionSet)
			if err != nil {
				return FieldSet{}, err
			}
			item.Subselection = sub
		}
		items = append(items, item)
	}
	return FieldSet{Items: items}, nil
}

func (l *loader) registerUnionPossibleTypes(def *ast.Definition) {
	id, ok := l.b.s.TypeByName(def.Name)
	if !ok {
		return
	}
	var possible []TypeID
	for _, member := range def.Types {
		if mid, ok := l.b.s.TypeByName(member); ok {
			possible = append(possible, mid)
		}
	}
	l.b.FinalizePossibleTypes(id, possible)
}

func (l *loader) finalizeInterfacePossibleTypes(doc *ast.SchemaDocument) {
	byIface := map[TypeID][]TypeID{}
	for _, def := range doc.Definitions {
		if def.Kind != ast.Object {
			continue
		}
		objID, ok := l.b.s.TypeByName(def.Name)
		if !ok {
			continue
		}
		for _, iface := range def.Interfaces {
			if id, ok := l.b.s.TypeByName(iface); ok {
				byIface[id] = append(byIface[id], objID)
			}
		}
	}
	for id, possible := range byIface {
		l.b.FinalizePossibleTypes(id, possible)
	}
}

// attachResolvers wires FieldDefinition.Resolvers: a plain ResolverRootQuery
// resolver per subgraph for types the subgraph owns outright (no @key on
// its join__type entry), and one ResolverEntityLookup resolver per
// (entity type, subgraph) pair the subgraph only reaches by key, using
// whichever @composite__lookup field's return type and graph match.
func (l *loader) attachResolvers(lookupFields []FieldID) error {
	orderedTypes := make([]TypeID, 0, len(l.typeEntries))
	for typeID := range l.typeEntries {
		orderedTypes = append(orderedTypes, typeID)
	}
	sort.Slice(orderedTypes, func(i, j int) bool { return orderedTypes[i] < orderedTypes[j] })

	for _, typeID := range orderedTypes {
		entries := l.typeEntries[typeID]
		for _, entry := range entries {
			if !entry.Resolvable {
				continue
			}
			if entry.Key == "" {
				continue
			}
			resolverID, err := l.entityLookupResolver(typeID, entry, lookupFields)
			if err != nil {
				return err
			}
			if resolverID != nil {
				l.lookupRes[lookupKey{Type: typeID, Graph: entry.Graph}] = *resolverID
			}
		}
	}

	for fid := range l.b.s.Fields {
		fieldID := FieldID(fid)
		f := &l.b.s.Fields[fieldID]
		graphs := l.fieldGraphs[fieldID]
		if len(graphs) == 0 {
			for _, e := range l.typeEntries[f.ParentEntity] {
				graphs = append(graphs, l.graphNameOf(e.Graph))
			}
		}
		for _, graphName := range graphs {
			sub, ok := l.graphToSub[graphName]
			if !ok {
				continue
			}
			if rid, ok := l.lookupRes[lookupKey{Type: f.ParentEntity, Graph: sub}]; ok {
				l.b.AttachResolver(fieldID, rid)
				continue
			}
			l.b.AttachResolver(fieldID, l.nativeResolver(sub))
		}
	}
	return nil
}

func (l *loader) graphNameOf(sub SubgraphID) string {
	for name, id := range l.graphToSub {
		if id == sub {
			return name
		}
	}
	return ""
}

func (l *loader) nativeResolver(sub SubgraphID) ResolverID {
	if rid, ok := l.nativeRes[sub]; ok {
		return rid
	}
	rid := l.b.DefineResolver(ResolverDefinition{Subgraph: sub, Kind: ResolverRootQuery})
	l.nativeRes[sub] = rid
	return rid
}

// entityLookupResolver finds the @composite__lookup field for entry's
// graph returning typeID and builds the ResolverEntityLookup around it,
// auto-detecting the key-to-argument mapping per §4.2.
func (l *loader) entityLookupResolver(typeID TypeID, entry joinTypeEntry, lookupFields []FieldID) (*ResolverID, error) {
	key, err := l.parseFieldSet(typeID, entry.Key)
	if err != nil {
		return nil, oops.Wrapf(err, "@key on %s", l.b.s.Type(typeID).Name)
	}

	for _, lf := range lookupFields {
		f := l.b.s.Field(lf)
		if f.Type != typeID {
			continue
		}
		graphs := l.fieldGraphs[lf]
		matches := false
		for _, g := range graphs {
			if l.graphToSub[g] == entry.Graph {
				matches = true
				break
			}
		}
		if !matches {
			continue
		}
		mapping, ok := l.detectAliasedMapping(key, f.Arguments)
		if !ok {
			var err error
			mapping, err = l.b.s.DetectLookupMapping(key, f.Arguments)
			if err != nil {
				return nil, oops.Wrapf(err, "lookup field %s", f.Name)
			}
		}
		rid := l.b.DefineResolver(ResolverDefinition{
			Subgraph:        entry.Graph,
			Kind:            ResolverEntityLookup,
			EntityType:      typeID,
			RequiredFields:  key,
			LookupField:     lf,
			LookupArguments: mapping,
		})
		return &rid, nil
	}
	return nil, fmt.Errorf("schema: no @composite__lookup field found for %s on graph %d", l.b.s.Type(typeID).Name, entry.Graph)
}

// detectAliasedMapping is tried before the name-based auto-detection in
// lookup.go: when every key field has an argument whose name matches
// directly, or whose @composite__is(field:) names it, the mapping is
// unambiguous without needing lookup.go's fallback rules at all.
func (l *loader) detectAliasedMapping(key FieldSet, args IDRange[ArgumentID]) ([]LookupArgMapping, bool) {
	if len(l.argAlias) == 0 {
		return nil, false
	}
	mappings := make([]LookupArgMapping, 0, len(key.Items))
	for i, item := range key.Items {
		name := l.b.s.Field(item.Field).Name
		found := false
		for id := args.Start; id < args.End; id++ {
			if alias, ok := l.argAlias[id]; ok && alias == name {
				mappings = append(mappings, LookupArgMapping{KeyFieldIndex: i, Argument: id})
				found = true
				break
			}
			if l.b.s.Argument(id).Name == name {
				mappings = append(mappings, LookupArgMapping{KeyFieldIndex: i, Argument: id})
				found = true
				break
			}
		}
		if !found {
			return nil, false
		}
	}
	return mappings, true
}

// wrappingFromType flattens a *ast.Type's list/non-null modifier stack
// into a named type plus a Wrapping, innermost layer first as
// NewWrapping expects.
func wrappingFromType(t *ast.Type) (string, Wrapping) {
	var listNonNullOuterFirst []bool
	cur := t
	for cur.NamedType == "" && cur.Elem != nil {
		listNonNullOuterFirst = append(listNonNullOuterFirst, cur.NonNull)
		cur = cur.Elem
	}
	innerNonNull := cur.NonNull
	listNonNullInnerFirst := make([]bool, len(listNonNullOuterFirst))
	for i, v := range listNonNullOuterFirst {
		listNonNullInnerFirst[len(listNonNullOuterFirst)-1-i] = v
	}
	return cur.NamedType, NewWrapping(innerNonNull, listNonNullInnerFirst...)
}

func (l *loader) constValue(v *ast.Value) (ConstValue, error) {
	switch v.Kind {
	case ast.IntValue:
		n, err := strconv.ParseInt(v.Raw, 10, 64)
		if err != nil {
			return ConstValue{}, fmt.Errorf("schema: invalid int literal %q: %w", v.Raw, err)
		}
		return ConstValue{Kind: ConstInt, IntVal: n}, nil
	case ast.FloatValue:
		f, err := strconv.ParseFloat(v.Raw, 64)
		if err != nil {
			return ConstValue{}, fmt.Errorf("schema: invalid float literal %q: %w", v.Raw, err)
		}
		return ConstValue{Kind: ConstFloat, FloatVal: f}, nil
	case ast.StringValue, ast.BlockValue:
		return ConstValue{Kind: ConstString, StringVal: v.Raw}, nil
	case ast.BooleanValue:
		return ConstValue{Kind: ConstBool, BoolVal: v.Raw == "true"}, nil
	case ast.NullValue:
		return ConstValue{Kind: ConstNull}, nil
	case ast.EnumValue:
		return ConstValue{Kind: ConstEnum, EnumVal: v.Raw}, nil
	case ast.ListValue:
		items := make([]ConstValue, 0, len(v.Children))
		for _, child := range v.Children {
			cv, err := l.constValue(child.Value)
			if err != nil {
				return ConstValue{}, err
			}
			items = append(items, cv)
		}
		return ConstValue{Kind: ConstList, ListVal: items}, nil
	case ast.ObjectValue:
		fields := make(map[string]ConstValue, len(v.Children))
		for _, child := range v.Children {
			cv, err := l.constValue(child.Value)
			if err != nil {
				return ConstValue{}, err
			}
			fields[child.Name] = cv
		}
		return ConstValue{Kind: ConstObject, ObjectVal: fields}, nil
	default:
		return ConstValue{}, fmt.Errorf("schema: unsupported constant value kind %v", v.Kind)
	}
}

func listSizeFromDirective(d *ast.Directive) *ListSizeDirective {
	ls := &ListSizeDirective{}
	if n, ok := intArg(d, "assumedSize"); ok {
		ls.AssumedSize = n
	}
	if v, ok := boolArg(d, "requireOneSlicingArgument"); ok {
		ls.RequireOneSlicingArgument = v
	}
	ls.SlicingArguments = stringListArg(d, "slicingArguments")
	ls.SizedFields = stringListArg(d, "sizedFields")
	return ls
}

func findDirective(list ast.DirectiveList, name string) *ast.Directive {
	for _, d := range list {
		if d.Name == name {
			return d
		}
	}
	return nil
}

func findDirectives(list ast.DirectiveList, name string) []*ast.Directive {
	var out []*ast.Directive
	for _, d := range list {
		if d.Name == name {
			out = append(out, d)
		}
	}
	return out
}

func hasDirective(list ast.DirectiveList, name string) bool {
	return findDirective(list, name) != nil
}

func stringArg(d *ast.Directive, name string) (string, bool) {
	for _, a := range d.Arguments {
		if a.Name == name && a.Value != nil {
			return a.Value.Raw, true
		}
	}
	return "", false
}

func boolArg(d *ast.Directive, name string) (bool, bool) {
	for _, a := range d.Arguments {
		if a.Name == name && a.Value != nil {
			return a.Value.Raw == "true", true
		}
	}
	return false, false
}

func intArg(d *ast.Directive, name string) (int32, bool) {
	for _, a := range d.Arguments {
		if a.Name == name && a.Value != nil {
			n, err := strconv.ParseInt(a.Value.Raw, 10, 32)
			if err != nil {
				return 0, false
			}
			return int32(n), true
		}
	}
	return 0, false
}

func stringListArg(d *ast.Directive, name string) []string {
	for _, a := range d.Arguments {
		if a.Name == name && a.Value != nil && a.Value.Kind == ast.ListValue {
			out := make([]string, 0, len(a.Value.Children))
			for _, c := range a.Value.Children {
				out = append(out, c.Value.Raw)
			}
			return out
		}
	}
	return nil
}
