// Package schema declares the Go types prototype documents can instantiate.
//
// Instead of discovering members through reflection, every prototype type is described
// once by an explicit Type: a constructor and a list of Fields, each with a document
// name, a static Go type and a typed setter. Types and enums are grouped in Assemblies,
// and a Universe of assemblies is what type names in documents resolve against.
//
//	var Weapon = schema.NewType("Game.Items", "Weapon", func() *Weapon { return &Weapon{} },
//	    schema.Define("damage", func(w *Weapon, v int32) { w.Damage = v }, schema.Required()),
//	    schema.Define("rarity", func(w *Weapon, v Rarity) { w.Rarity = v }),
//	)
//
//	universe := schema.NewUniverse(
//	    schema.NewAssembly("items").Register(Weapon).RegisterEnum(RarityEnum),
//	)
//
// reflect.Type is used only as the identity of a field's static type, which is what
// serializers are selected by.
package schema
