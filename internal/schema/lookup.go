package schema

import "github.com/samsarahq/go/oops"

// DetectLookupMapping implements the auto-detection rules of spec.md
// §4.2: given an entity lookup resolver's argument list and its @key
// field set, decide how key fields map onto arguments. Tried in order,
// and the first rule that matches is returned:
//
//	(a) direct argument match by name (exactly one argument per key field)
//	(b) nested input object (exactly one required input-object argument)
//	(c) @oneOf input object with a single key field
//	(d) batch mode (single list argument, one-field or input-object key)
//
// Every rule matches key fields by name only: wrapping is not compared
// and there is no fallback match by type. A key that more than one
// rule could map is not reported as ambiguous, since later rules are
// not tried once one matches; an error is returned only when no rule
// matches.
func (s *Schema) DetectLookupMapping(key FieldSet, args IDRange[ArgumentID]) ([]LookupArgMapping, error) {
	if direct, ok := s.detectDirect(key, args); ok {
		return direct, nil
	}
	if nested, ok, err := s.detectNestedInputObject(key, args); err != nil {
		return nil, err
	} else if ok {
		return nested, nil
	}
	if oneOf, ok, err := s.detectOneOf(key, args); err != nil {
		return nil, err
	} else if ok {
		return oneOf, nil
	}
	if batch, ok, err := s.detectBatch(key, args); err != nil {
		return nil, err
	} else if ok {
		return batch, nil
	}
	return nil, oops.Errorf("no unambiguous lookup argument mapping for key with %d fields", len(key.Items))
}

// detectDirect is rule (a): every key field has an argument with the
// same name.
func (s *Schema) detectDirect(key FieldSet, args IDRange[ArgumentID]) ([]LookupArgMapping, bool) {
	mappings := make([]LookupArgMapping, 0, len(key.Items))
	for i, item := range key.Items {
		name := s.Field(item.Field).Name
		arg, ok := s.argByName(args, name)
		if !ok {
			return nil, false
		}
		mappings = append(mappings, LookupArgMapping{KeyFieldIndex: i, Argument: arg})
	}
	return mappings, true
}

// detectNestedInputObject is rule (b): exactly one argument is a
// required input object, and every key field maps to one of its
// input fields by name.
func (s *Schema) detectNestedInputObject(key FieldSet, args IDRange[ArgumentID]) ([]LookupArgMapping, bool, error) {
	var candidate ArgumentID
	found := 0
	for id := args.Start; id < args.End; id++ {
		arg := s.Argument(id)
		t := s.Type(arg.Type)
		if t.Kind == KindInputObject && arg.Wrapping.InnerNonNull() {
			candidate = id
			found++
		}
	}
	if found != 1 {
		return nil, false, nil
	}
	inputType := s.Argument(candidate).Type
	mappings := make([]LookupArgMapping, 0, len(key.Items))
	for i, item := range key.Items {
		name := s.Field(item.Field).Name
		field, ok := s.FieldByName(inputType, name)
		if !ok {
			return nil, false, nil
		}
		_ = field
		mappings = append(mappings, LookupArgMapping{
			KeyFieldIndex:    i,
			Argument:         candidate,
			Nested:           true,
			NestedInputField: name,
		})
	}
	return mappings, true, nil
}

// detectOneOf is rule (c): a single @oneOf input object argument whose
// one populated field corresponds to the (single-field) key.
func (s *Schema) detectOneOf(key FieldSet, args IDRange[ArgumentID]) ([]LookupArgMapping, bool, error) {
	if len(key.Items) != 1 {
		return nil, false, nil
	}
	for id := args.Start; id < args.End; id++ {
		arg := s.Argument(id)
		t := s.Type(arg.Type)
		if t.Kind != KindInputObject || !t.OneOf {
			continue
		}
		name := s.Field(key.Items[0].Field).Name
		if _, ok := s.FieldByName(arg.Type, name); ok {
			return []LookupArgMapping{{
				KeyFieldIndex:    0,
				Argument:         id,
				Nested:           true,
				NestedInputField: name,
			}}, true, nil
		}
	}
	return nil, false, nil
}

// detectBatch is rule (d): a single list-typed argument carries many
// keys at once, either scalar keys (one-field key) or input-object
// keys (required-shape key).
func (s *Schema) detectBatch(key FieldSet, args IDRange[ArgumentID]) ([]LookupArgMapping, bool, error) {
	var listArg ArgumentID
	found := 0
	for id := args.Start; id < args.End; id++ {
		arg := s.Argument(id)
		if arg.Wrapping.ListDepth() == 1 {
			listArg = id
			found++
		}
	}
	if found != 1 {
		return nil, false, nil
	}
	arg := s.Argument(listArg)
	if len(key.Items) == 1 {
		return []LookupArgMapping{{KeyFieldIndex: 0, Argument: listArg, Batch: true}}, true, nil
	}
	t := s.Type(arg.Type)
	if t.Kind != KindInputObject {
		return nil, false, nil
	}
	mappings := make([]LookupArgMapping, 0, len(key.Items))
	for i, item := range key.Items {
		name := s.Field(item.Field).Name
		if _, ok := s.FieldByName(arg.Type, name); !ok {
			return nil, false, nil
		}
		mappings = append(mappings, LookupArgMapping{
			KeyFieldIndex:    i,
			Argument:         listArg,
			Nested:           true,
			NestedInputField: name,
			Batch:            true,
		})
	}
	return mappings, true, nil
}

func (s *Schema) argByName(args IDRange[ArgumentID], name string) (ArgumentID, bool) {
	matches := ArgumentID(0)
	count := 0
	for id := args.Start; id < args.End; id++ {
		// Arguments don't carry names in the slab directly in this
		// minimal model beyond Argument.Name; compare there.
		if s.Argument(id).Name == name {
			matches = id
			count++
		}
	}
	if count == 1 {
		return matches, true
	}
	return 0, false
}
