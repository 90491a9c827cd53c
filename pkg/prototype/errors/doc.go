// Package errors provides the structured diagnostics produced while parsing prototypes.
//
// Every problem found in a prototype document is reported as an *Error carrying its
// Kind, the source tag, the affected prototype and field, and the line and column of
// the offending element. Only a document that cannot be parsed at all is returned as
// a Go error from the parser; everything else is accumulated in an ErrorList so that
// one broken prototype never hides the rest of the batch.
//
// # Kinds
//
// KindMalformedDocument: markup cannot be parsed (fatal for the whole call)
//
// KindDuplicateIdentifier: a later <Prototype> reuses an Id (the later one is dropped)
//
// KindUnresolvedInheritance, KindCyclicInheritance: broken Inherits chains
//
// KindUnsupportedType, KindMalformedLiteral: a single field could not be deserialized
//
// KindMissingField: a required field has no value after inheritance
//
// # Usage
//
//	result, err := p.ParseBytes(data, "items.xml", params)
//	if err != nil {
//	    log.Fatal(err) // malformed document
//	}
//	for _, e := range result.Errors.ByKind(errors.KindMissingField) {
//	    fmt.Println(e.Error())
//	}
//
// # Error Format
//
//	[missing_field] prototype "Sword": field "damage": required field has no value
//	  --> items.xml:12:3
//	  |
//	-> 12 |   <Prototype Id="Sword" Inherits="Weapon">
//	      |   ^
//	  |
//	  = suggestion: Add a <damage> element to the prototype or one of its parents
package errors
