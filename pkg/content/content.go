// Package content declares the sample game assembly used by the protokit command and
// its example documents: items, weapons and characters in the "Game" namespace.
package content

import (
	"encoding/json"
	"fmt"

	"unitytk/protokit/pkg/prototype/schema"
	"unitytk/protokit/pkg/prototype/value"
)

// Namespace is the standard namespace of the sample assembly.
const Namespace = "Game"

// Rarity grades items.
type Rarity int

const (
	Common Rarity = iota
	Uncommon
	Rare
	Epic
	Legendary
)

var rarityNames = map[string]Rarity{
	"Common":    Common,
	"Uncommon":  Uncommon,
	"Rare":      Rare,
	"Epic":      Epic,
	"Legendary": Legendary,
}

func (r Rarity) String() string {
	for name, v := range rarityNames {
		if v == r {
			return name
		}
	}
	return fmt.Sprintf("Rarity(%d)", int(r))
}

// MarshalText encodes the rarity by name.
func (r Rarity) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// Faction groups characters.
type Faction uint8

const (
	Neutral Faction = iota
	Player
	Hostile
)

var factionNames = map[string]Faction{
	"Neutral": Neutral,
	"Player":  Player,
	"Hostile": Hostile,
}

func (f Faction) String() string {
	for name, v := range factionNames {
		if v == f {
			return name
		}
	}
	return fmt.Sprintf("Faction(%d)", uint8(f))
}

// MarshalText encodes the faction by name.
func (f Faction) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// Item is anything a character can carry.
type Item struct {
	schema.Base
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Value       int32    `json:"value"`
	Weight      float32  `json:"weight"`
	Rarity      Rarity   `json:"rarity"`
	Tags        []string `json:"tags,omitempty"`
}

func (i *Item) item() *Item { return i }

// Weapon is an item that deals damage.
type Weapon struct {
	Item
	Damage   int32         `json:"damage"`
	Range    float32       `json:"range"`
	Muzzle   value.Vector3 `json:"muzzle"`
	Ammo     *Item         `json:"ammo,omitempty"`
	Upgrades []*Weapon     `json:"upgrades,omitempty"`
}

// Character is a spawnable actor.
type Character struct {
	schema.Base
	Name      string             `json:"name"`
	Health    int32              `json:"health"`
	Speed     float32            `json:"speed"`
	Faction   Faction            `json:"faction"`
	Spawn     value.Vector3      `json:"spawn"`
	Facing    value.Quaternion   `json:"facing"`
	Tint      value.Vector4      `json:"tint"`
	Weapon    *Weapon            `json:"weapon,omitempty"`
	Inventory []*Item            `json:"inventory,omitempty"`
	Behavior  *schema.Type       `json:"behavior,omitempty"`
	Friends   []schema.Prototype `json:"friends,omitempty"`
}

// MarshalJSON writes references to other prototypes as their identifiers, so
// reference cycles between prototypes encode finitely.
func (w *Weapon) MarshalJSON() ([]byte, error) {
	type plain Weapon
	return json.Marshal(struct {
		*plain
		Ammo     string   `json:"ammo,omitempty"`
		Upgrades []string `json:"upgrades,omitempty"`
	}{(*plain)(w), refID(w.Ammo), refIDs(w.Upgrades)})
}

// MarshalJSON writes references to other prototypes as their identifiers.
func (c *Character) MarshalJSON() ([]byte, error) {
	type plain Character
	return json.Marshal(struct {
		*plain
		Weapon    string   `json:"weapon,omitempty"`
		Inventory []string `json:"inventory,omitempty"`
		Friends   []string `json:"friends,omitempty"`
	}{(*plain)(c), refID(c.Weapon), refIDs(c.Inventory), refIDs(c.Friends)})
}

func refID[T interface {
	comparable
	schema.Prototype
}](p T) string {
	var zero T
	if p == zero {
		return ""
	}
	return p.Identifier()
}

func refIDs[T interface {
	comparable
	schema.Prototype
}](ps []T) []string {
	if len(ps) == 0 {
		return nil
	}
	ids := make([]string, len(ps))
	for i, p := range ps {
		ids[i] = refID(p)
	}
	return ids
}

type carrier interface {
	schema.Prototype
	item() *Item
}

// itemFields declares the Item fields on any type that embeds Item.
func itemFields[T carrier]() []*schema.Field {
	return []*schema.Field{
		schema.Define("name", func(p T, v string) { p.item().Name = v }, schema.Required()),
		schema.Define("description", func(p T, v string) { p.item().Description = v }),
		schema.Define("value", func(p T, v int32) { p.item().Value = v }, schema.Default(int32(0))),
		schema.Define("weight", func(p T, v float32) { p.item().Weight = v }, schema.Default(float32(1))),
		schema.Define("rarity", func(p T, v Rarity) { p.item().Rarity = v }, schema.Default(Common)),
		schema.Define("tags", func(p T, v []string) { p.item().Tags = v }),
	}
}

var (
	ItemType = schema.NewType(Namespace, "Item",
		func() *Item { return &Item{} },
		itemFields[*Item]()...,
	)

	WeaponType = schema.NewType(Namespace, "Weapon",
		func() *Weapon { return &Weapon{} },
		append(itemFields[*Weapon](),
			schema.Define("damage", func(w *Weapon, v int32) { w.Damage = v }, schema.Required()),
			schema.Define("range", func(w *Weapon, v float32) { w.Range = v }, schema.Default(float32(1.5))),
			schema.Define("muzzle", func(w *Weapon, v value.Vector3) { w.Muzzle = v }),
			schema.Define("ammo", func(w *Weapon, v *Item) { w.Ammo = v }),
			schema.Define("upgrades", func(w *Weapon, v []*Weapon) { w.Upgrades = v }),
		)...,
	)

	CharacterType = schema.NewType(Namespace, "Character",
		func() *Character { return &Character{Facing: value.IdentityQuaternion} },
		schema.Define("name", func(c *Character, v string) { c.Name = v }, schema.Required()),
		schema.Define("health", func(c *Character, v int32) { c.Health = v }, schema.Default(int32(100))),
		schema.Define("speed", func(c *Character, v float32) { c.Speed = v }),
		schema.Define("faction", func(c *Character, v Faction) { c.Faction = v }),
		schema.Define("spawn", func(c *Character, v value.Vector3) { c.Spawn = v }),
		schema.Define("facing", func(c *Character, v value.Quaternion) { c.Facing = v }),
		schema.Define("tint", func(c *Character, v value.Vector4) { c.Tint = v }),
		schema.Define("weapon", func(c *Character, v *Weapon) { c.Weapon = v }),
		schema.Define("inventory", func(c *Character, v []*Item) { c.Inventory = v }),
		schema.Define("behavior", func(c *Character, v *schema.Type) { c.Behavior = v }),
		schema.Define("friends", func(c *Character, v []schema.Prototype) { c.Friends = v }),
	)
)

// Assembly returns a fresh assembly holding the sample types and enums.
func Assembly() *schema.Assembly {
	return schema.NewAssembly("protokit.content").
		Register(ItemType, WeaponType, CharacterType).
		RegisterEnum(
			schema.DefineEnum("Rarity", rarityNames),
			schema.DefineEnum("Faction", factionNames),
		)
}

// Universe returns a universe over the sample assembly.
func Universe() *schema.Universe {
	return schema.NewUniverse(Assembly())
}
