// Package parser turns prototype container documents into typed Go values.
//
// A container declares the type its prototypes instantiate and any number of
// <Prototype> elements. Each prototype may inherit the fields of another one, may be
// abstract (inherited from but never instantiated) and may override its type.
//
//	<PrototypeContainer Type="Weapon">
//	  <Prototype Id="BaseSword" Abstract="true">
//	    <damage>10</damage>
//	    <tags><li>melee</li></tags>
//	  </Prototype>
//	  <Prototype Id="FireSword" Inherits="BaseSword">
//	    <damage>14</damage>
//	    <tags Merge="Append"><li>fire</li></tags>
//	  </Prototype>
//	</PrototypeContainer>
//
// # Basic Usage
//
//	p := parser.NewParser(schema.NewUniverse(content.Assembly()))
//	result, err := p.Parse(data, "weapons.xml", parser.Parameters{StandardNamespace: "Game"})
//	if err != nil {
//	    log.Fatal(err) // markup could not be parsed at all
//	}
//	for _, e := range result.Errors.Errors {
//	    fmt.Print(e)
//	}
//	sword, _ := parser.Get[*content.Weapon](result, "FireSword")
//
// # Pipeline
//
// A call runs four phases over a private State:
//
//  1. build: one Descriptor per <Prototype>; duplicates and missing identifiers are
//     reported and dropped.
//  2. resolve: depth-first, memoized inheritance resolution computing each descriptor's
//     effective field set and type; cycles fail every member.
//  3. instantiate: every resolved, non-abstract descriptor becomes an instance; each
//     schema field is deserialized by the first serializer of the registry that accepts
//     its type.
//  4. link: references to other prototypes are resolved against the batch and the
//     Linker of earlier batches.
//
// # Fault Isolation
//
// Only unparsable markup is returned as an error. Every other diagnostic is confined to
// the field or prototype it concerns and collected in Result.Errors or Result.Warnings;
// callers decide which of them fail a build.
package parser
