package operation

import (
	"github.com/thunderfed/gateway/internal/gqlerr"
	"github.com/thunderfed/gateway/internal/schema"
)

// Binder turns a RawDocument into an Operation against a Schema (§4.1).
// One Binder is used per request; it is not safe for concurrent use.
type Binder struct {
	schema *schema.Schema
	vars   map[string]interface{} // raw request variable values, for default/variable value coercion

	op *Operation

	// posCounter restarts the query_position counter per selection
	// set scope (§4.1 "Produces query_position by a counter that
	// restarts per selection set scope").
	posCounter int
}

// NewBinder constructs a Binder for one request.
func NewBinder(s *schema.Schema, variables map[string]interface{}) *Binder {
	return &Binder{
		schema: s,
		vars:   variables,
		op: &Operation{
			Values: make([]QueryInputValue, 0, 16),
		},
	}
}

// Bind runs the full binder contract of §4.1 and returns the bound
// Operation, or a list of OPERATION_VALIDATION_ERROR errors with
// source locations (the binder's only failure mode, per §4.1/§7).
func (b *Binder) Bind(doc *RawDocument) (*Operation, []*gqlerr.Error) {
	b.op.Name = doc.OperationName
	b.op.Kind = doc.Kind

	var rootType schema.TypeID
	switch doc.Kind {
	case "mutation":
		mt, ok := b.schema.Mutation()
		if !ok {
			return nil, []*gqlerr.Error{gqlerr.New(gqlerr.CodeOperationValidation, "schema defines no mutation type")}
		}
		rootType = mt
	default:
		rootType = b.schema.Query()
	}
	b.op.RootType = rootType

	for _, vd := range doc.Variables {
		b.bindVariableDefinition(vd)
	}
	if errs := b.checkVariableDefaultsAcyclic(doc.Variables); len(errs) > 0 {
		return nil, errs
	}

	ssID, errs := b.bindSelectionSet(rootType, doc.SelectionSet, nil)
	if len(errs) > 0 {
		return nil, errs
	}
	b.op.RootSelectionSet = ssID
	return b.op, nil
}

func (b *Binder) bindVariableDefinition(vd RawVariableDefinition) {
	def := VariableDefinition{Name: vd.Name, TypeName: vd.Type}
	if vd.DefaultValue != nil {
		// Variable default values can't themselves reference other
		// variables (§4.1 "Variables used in defaults of other
		// variables are rejected"); internRawValue accepts them here, and
		// checkVariableDefaultsAcyclic rejects them once every definition
		// is bound.
		id, _ := b.internRawValue(*vd.DefaultValue, false)
		def.DefaultValue = id
		def.HasDefault = true
	}
	b.op.Variables = append(b.op.Variables, def)
}

func (b *Binder) checkVariableDefaultsAcyclic(defs []RawVariableDefinition) []*gqlerr.Error {
	var errs []*gqlerr.Error
	for _, vd := range defs {
		if vd.DefaultValue != nil && containsVariableRef(*vd.DefaultValue) {
			errs = append(errs, gqlerr.New(gqlerr.CodeOperationValidation,
				"variable $%s's default value may not reference another variable", vd.Name))
		}
	}
	return errs
}

func containsVariableRef(v RawValue) bool {
	switch v.Kind {
	case RawVariable:
		return true
	case RawList:
		for _, e := range v.List {
			if containsVariableRef(e) {
				return true
			}
		}
	case RawObject:
		for _, e := range v.Object {
			if containsVariableRef(e) {
				return true
			}
		}
	}
	return false
}

// bindSelectionSet implements the per-selection-set half of §4.1:
// field lookup, fragment disjointness, merging by response key, and
// skip/include capture. typeConditions is the chain inherited from
// enclosing inline fragments/fragment spreads.
func (b *Binder) bindSelectionSet(parent schema.TypeID, raw *RawSelectionSet, typeConditions []schema.TypeID) (SelectionSetID, []*gqlerr.Error) {
	ss := SelectionSet{ParentType: parent}
	ssID := SelectionSetID(len(b.op.SelectionSets))
	b.op.SelectionSets = append(b.op.SelectionSets, ss) // placeholder, patched below

	savedCounter := b.posCounter
	b.posCounter = 0
	defer func() { b.posCounter = savedCounter }()

	// merged tracks already-bound fields by response key for the
	// merge-by-response-key rule (§4.1, invariant 3 in §8).
	merged := map[string]FieldID{}
	var fieldIDs []FieldID
	var errs []*gqlerr.Error

	if raw != nil {
		for _, sel := range raw.Selections {
			fid, err := b.bindSelection(parent, sel, typeConditions)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			if fid == nil {
				continue // disjoint / skipped, not an error
			}
			key := responseKey(sel)
			if existingID, ok := merged[key]; ok {
				if err := b.mergeField(existingID, *fid); err != nil {
					errs = append(errs, err)
				}
				continue
			}
			merged[key] = *fid
			fieldIDs = append(fieldIDs, *fid)
		}

		for _, frag := range raw.Fragments {
			fragType, ok := b.schema.TypeByName(frag.On)
			if !ok {
				errs = append(errs, gqlerr.New(gqlerr.CodeOperationValidation, "unknown type %q in fragment", frag.On))
				continue
			}
			if b.schema.Disjoint(parent, fragType) {
				continue // disjoint fragment: no output fields, not an error (§8)
			}
			nestedConds := append(append([]schema.TypeID{}, typeConditions...), fragType)
			subIDs, subErrs := b.bindFragmentSelections(parent, frag.SelectionSet, nestedConds, merged)
			errs = append(errs, subErrs...)
			fieldIDs = append(fieldIDs, subIDs...)
		}
	}

	b.op.SelectionSets[ssID] = SelectionSet{ParentType: parent, FieldIDs: fieldIDs}
	return ssID, errs
}

// bindFragmentSelections binds a fragment's own selection set but
// folds newly bound fields into the parent's merge map rather than
// returning a nested selection set, which is how response keys stay
// semantically merged across fragment boundaries (§8 invariant 3).
func (b *Binder) bindFragmentSelections(parent schema.TypeID, raw *RawSelectionSet, typeConditions []schema.TypeID, merged map[string]FieldID) ([]FieldID, []*gqlerr.Error) {
	var fieldIDs []FieldID
	var errs []*gqlerr.Error
	if raw == nil {
		return nil, nil
	}
	for _, sel := range raw.Selections {
		fid, err := b.bindSelection(parent, sel, typeConditions)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if fid == nil {
			continue
		}
		key := responseKey(sel)
		if existingID, ok := merged[key]; ok {
			if err := b.mergeField(existingID, *fid); err != nil {
				errs = append(errs, err)
			}
			continue
		}
		merged[key] = *fid
		fieldIDs = append(fieldIDs, *fid)
	}
	for _, frag := range raw.Fragments {
		fragType, ok := b.schema.TypeByName(frag.On)
		if !ok {
			errs = append(errs, gqlerr.New(gqlerr.CodeOperationValidation, "unknown type %q in fragment", frag.On))
			continue
		}
		if b.schema.Disjoint(parent, fragType) {
			continue
		}
		nestedConds := append(append([]schema.TypeID{}, typeConditions...), fragType)
		subIDs, subErrs := b.bindFragmentSelections(parent, frag.SelectionSet, nestedConds, merged)
		errs = append(errs, subErrs...)
		fieldIDs = append(fieldIDs, subIDs...)
	}
	return fieldIDs, errs
}

func responseKey(sel *RawSelection) string {
	if sel.Alias != "" {
		return sel.Alias
	}
	return sel.Name
}

// bindSelection binds one selection to a Field. Returns (nil, nil) for
// a selection skipped for structural reasons (none today — disjoint
// fragments are handled by the caller before reaching individual
// selections), and (nil, err) on failure.
func (b *Binder) bindSelection(parent schema.TypeID, sel *RawSelection, typeConditions []schema.TypeID) (*FieldID, *gqlerr.Error) {
	modifiers, err := b.bindModifiers(sel.Directives)
	if err != nil {
		return nil, err
	}

	if sel.Name == "__typename" {
		f := Field{
			Kind:           KindTypenameField,
			ResponseKey:    responseKey(sel),
			TypeCondition:  parent,
			TypeConditions: append([]schema.TypeID{}, typeConditions...),
			Modifiers:      modifiers,
			QueryPosition:  b.nextPosition(),
			Location:       sel.Location,
		}
		return b.appendField(f), nil
	}

	fieldDefID, ok := b.schema.FieldByName(parent, sel.Name)
	if !ok {
		return nil, gqlerr.New(gqlerr.CodeOperationValidation, "type %q has no field %q", b.schema.Type(parent).Name, sel.Name).WithLocation(gqlerr.Location(sel.Location))
	}
	def := b.schema.Field(fieldDefID)
	if def.Inaccessible {
		// "Inaccessible fields behave as if absent" (§4.1): reported
		// the same as an unknown field.
		return nil, gqlerr.New(gqlerr.CodeOperationValidation, "type %q has no field %q", b.schema.Type(parent).Name, sel.Name).WithLocation(gqlerr.Location(sel.Location))
	}

	args, argErr := b.coerceArguments(def, sel.Args)
	if argErr != nil {
		return nil, argErr
	}

	var ssID SelectionSetID
	hasSS := sel.SelectionSet != nil
	if hasSS {
		childType := def.Type
		id, errs := b.bindSelectionSet(childType, sel.SelectionSet, nil)
		if len(errs) > 0 {
			return nil, errs[0]
		}
		ssID = id
	}

	f := Field{
		Kind:            KindDataField,
		ResponseKey:     responseKey(sel),
		DefinitionID:    fieldDefID,
		Arguments:       args,
		SelectionSetID:  ssID,
		HasSelectionSet: hasSS,
		TypeConditions:  append([]schema.TypeID{}, typeConditions...),
		Modifiers:       modifiers,
		QueryPosition:   b.nextPosition(),
		Location:        sel.Location,
	}
	return b.appendField(f), nil
}

func (b *Binder) appendField(f Field) *FieldID {
	id := FieldID(len(b.op.Fields))
	b.op.Fields = append(b.op.Fields, f)
	return &id
}

func (b *Binder) nextPosition() int {
	p := b.posCounter
	b.posCounter++
	return p
}

// mergeField implements the merge contract of §4.1: two selections
// with the same response key must agree on field definition,
// structurally-equal arguments (variable references equivalent to
// themselves), and skip/include mask, else "conflicting response key".
func (b *Binder) mergeField(existing FieldID, incoming FieldID) *gqlerr.Error {
	a, bb := &b.op.Fields[existing], &b.op.Fields[incoming]
	if a.Kind != bb.Kind {
		return gqlerr.New(gqlerr.CodeOperationValidation, "conflicting response key %q", a.ResponseKey)
	}
	if len(a.Modifiers) != len(bb.Modifiers) {
		return gqlerr.New(gqlerr.CodeOperationValidation, "conflicting response key %q: skip/include differ", a.ResponseKey)
	}
	for i := range a.Modifiers {
		am, bm := a.Modifiers[i], bb.Modifiers[i]
		same := len(am.SkipValueIDs) == len(bm.SkipValueIDs) && len(am.IncludeValueIDs) == len(bm.IncludeValueIDs)
		for j := 0; same && j < len(am.SkipValueIDs); j++ {
			same = b.valuesEqual(am.SkipValueIDs[j], bm.SkipValueIDs[j])
		}
		for j := 0; same && j < len(am.IncludeValueIDs); j++ {
			same = b.valuesEqual(am.IncludeValueIDs[j], bm.IncludeValueIDs[j])
		}
		if !same {
			return gqlerr.New(gqlerr.CodeOperationValidation, "conflicting response key %q: skip/include differ", a.ResponseKey)
		}
	}
	if a.Kind == KindDataField {
		if a.DefinitionID != bb.DefinitionID || !b.argumentsEqual(a.Arguments, bb.Arguments) {
			return gqlerr.New(gqlerr.CodeOperationValidation, "conflicting response key %q: fields differ", a.ResponseKey)
		}
		if a.HasSelectionSet && bb.HasSelectionSet {
			merged := b.mergeSelectionSets(a.SelectionSetID, bb.SelectionSetID)
			a.SelectionSetID = merged
		}
	}
	return nil
}

// mergeSelectionSets folds bb's fields into aa's selection set,
// merging by response key recursively.
func (b *Binder) mergeSelectionSets(aID, bID SelectionSetID) SelectionSetID {
	aSS := &b.op.SelectionSets[aID]
	bSS := b.op.SelectionSets[bID]

	byKey := map[string]FieldID{}
	for _, fid := range aSS.FieldIDs {
		byKey[b.op.Fields[fid].ResponseKey] = fid
	}
	for _, fid := range bSS.FieldIDs {
		key := b.op.Fields[fid].ResponseKey
		if existing, ok := byKey[key]; ok {
			_ = b.mergeField(existing, fid)
			continue
		}
		byKey[key] = fid
		aSS.FieldIDs = append(aSS.FieldIDs, fid)
	}
	return aID
}

func (b *Binder) argumentsEqual(a, bb map[string]InputValueID) bool {
	if len(a) != len(bb) {
		return false
	}
	for k, av := range a {
		bv, ok := bb[k]
		if !ok || !b.valuesEqual(av, bv) {
			return false
		}
	}
	return true
}

func (b *Binder) valuesEqual(a, bID InputValueID) bool {
	av, bv := b.op.Value(a), b.op.Value(bID)
	if av.Kind != bv.Kind {
		return false
	}
	switch av.Kind {
	case ValueVariable:
		return av.VariableID == bv.VariableID
	case ValueString, ValueEnum, ValueUnboundEnum:
		return av.Str == bv.Str
	case ValueInt, ValueBigInt:
		return av.Int == bv.Int
	case ValueU64:
		return av.U64 == bv.U64
	case ValueFloat:
		return av.Float == bv.Float
	case ValueBool:
		return av.Bool == bv.Bool
	case ValueNull:
		return true
	case ValueList:
		if av.ListRange.Len() != bv.ListRange.Len() {
			return false
		}
		for i := 0; i < av.ListRange.Len(); i++ {
			if !b.valuesEqual(av.ListRange.Start+InputValueID(i), bv.ListRange.Start+InputValueID(i)) {
				return false
			}
		}
		return true
	case ValueInputObject:
		af, bf := b.op.InputObjectFieldsIn(av.ObjectRange), b.op.InputObjectFieldsIn(bv.ObjectRange)
		if len(af) != len(bf) {
			return false
		}
		byName := make(map[string]InputValueID, len(bf))
		for _, f := range bf {
			byName[f.Name] = f.Value
		}
		for _, f := range af {
			other, ok := byName[f.Name]
			if !ok || !b.valuesEqual(f.Value, other) {
				return false
			}
		}
		return true
	case ValueMap:
		ae, be := b.op.MapEntries[av.MapRange.Start:av.MapRange.End], b.op.MapEntries[bv.MapRange.Start:bv.MapRange.End]
		if len(ae) != len(be) {
			return false
		}
		byKey := make(map[string]InputValueID, len(be))
		for _, e := range be {
			byKey[e.Key] = e.Value
		}
		for _, e := range ae {
			other, ok := byKey[e.Key]
			if !ok || !b.valuesEqual(e.Value, other) {
				return false
			}
		}
		return true
	case ValueDefault:
		return av.DefaultOwner == bv.DefaultOwner
	default:
		return false
	}
}

func (b *Binder) bindModifiers(directives []RawDirective) ([]QueryModifierRule, *gqlerr.Error) {
	var rule QueryModifierRule
	var has bool
	for _, d := range directives {
		switch d.Name {
		case "skip":
			v, ok := d.Args["if"]
			if !ok {
				return nil, gqlerr.New(gqlerr.CodeOperationValidation, "@skip requires argument 'if'")
			}
			id, _ := b.internRawValue(v, true)
			rule.SkipValueIDs = append(rule.SkipValueIDs, id)
			has = true
		case "include":
			v, ok := d.Args["if"]
			if !ok {
				return nil, gqlerr.New(gqlerr.CodeOperationValidation, "@include requires argument 'if'")
			}
			id, _ := b.internRawValue(v, true)
			rule.IncludeValueIDs = append(rule.IncludeValueIDs, id)
			has = true
		}
	}
	if !has {
		return nil, nil
	}
	return []QueryModifierRule{rule}, nil
}
