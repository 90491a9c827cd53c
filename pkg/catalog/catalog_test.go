package catalog

import (
	"reflect"
	"strings"
	"testing"

	"unitytk/protokit/pkg/content"
	"unitytk/protokit/pkg/prototype/parser"
)

func parseInto(t *testing.T, c *Catalog, source, document string) *parser.Result {
	t.Helper()
	p := parser.NewParser(content.Universe()).WithLogger(discardLogger())
	res, err := p.Parse([]byte(document), source, parser.Parameters{StandardNamespace: content.Namespace, Linker: c})
	if err != nil {
		t.Fatalf("Parse(%s) failed: %v", source, err)
	}
	c.Add(res, []byte(document))
	return res
}

func TestCatalog_LinksAcrossDocuments(t *testing.T) {
	c := New()
	parseInto(t, c, "base.xml", baseDocument)
	res := parseInto(t, c, "swords.xml", swordsDocument)

	if res.HasErrors() {
		t.Fatalf("swords.xml errors: %v", res.Errors)
	}
	if got, want := c.IDs(), []string{"Arrow", "Bow", "IronSword"}; !reflect.DeepEqual(got, want) {
		t.Errorf("IDs() = %v, want %v", got, want)
	}

	sword, ok := Lookup[*content.Weapon](c, "IronSword")
	if !ok {
		t.Fatal("IronSword not found")
	}
	if sword.Name != "Sword" || sword.Damage != 12 || sword.Range != 1.5 {
		t.Errorf("IronSword = %+v", sword)
	}

	arrow, _ := Lookup[*content.Item](c, "Arrow")
	bow, _ := Lookup[*content.Weapon](c, "Bow")
	if bow.Ammo != arrow {
		t.Errorf("Bow.Ammo = %p, want Arrow instance %p", bow.Ammo, arrow)
	}

	if _, ok := c.LinkedDescriptor("BaseSword"); !ok {
		t.Error("abstract descriptors should stay linkable")
	}
	if _, ok := c.LinkedPrototype("BaseSword"); ok {
		t.Error("abstract prototypes have no instance")
	}

	if got := len(c.OfType(content.WeaponType)); got != 2 {
		t.Errorf("OfType(Weapon) = %d, want 2", got)
	}
	stats := c.Stats()
	if stats.Instances != 3 || stats.Documents != 2 || stats.ByType["Game.Item"] != 1 {
		t.Errorf("Stats() = %+v", stats)
	}
	if got := c.Documents(); !reflect.DeepEqual(got, []string{"base.xml", "swords.xml"}) {
		t.Errorf("Documents() = %v", got)
	}
}

func TestCatalog_DuplicateAcrossDocuments(t *testing.T) {
	c := New()
	parseInto(t, c, "base.xml", baseDocument)
	res := parseInto(t, c, "again.xml", `<PrototypeContainer Type="Item"><Prototype Id="Arrow"><name>Other</name></Prototype></PrototypeContainer>`)

	if got := res.Errors.ForPrototype("Arrow"); len(got) != 1 || got[0].Kind != "duplicate_identifier" {
		t.Errorf("errors = %v, want one duplicate_identifier", res.Errors)
	}
	arrow, _ := Lookup[*content.Item](c, "Arrow")
	if arrow.Name != "Arrow" {
		t.Errorf("Arrow.Name = %q, the first declaration should win", arrow.Name)
	}
}

func TestCatalog_DuplicateOfFailedDeclaration(t *testing.T) {
	c := New()
	// Stick has no damage, so it produces no instance but still owns its id.
	first := parseInto(t, c, "broken.xml", `<PrototypeContainer Type="Weapon"><Prototype Id="Stick"><name>Stick</name></Prototype></PrototypeContainer>`)
	if _, ok := first.Instances["Stick"]; ok {
		t.Fatal("Stick should fail without damage")
	}
	if source, ok := c.Declared("Stick"); !ok || source != "broken.xml" {
		t.Errorf("Declared(Stick) = %q, %v, want broken.xml", source, ok)
	}

	res := parseInto(t, c, "later.xml", `<PrototypeContainer Type="Weapon">
  <Prototype Id="Stick"><name>Stick</name><damage>1</damage></Prototype>
  <Prototype Id="Club" Inherits="Stick"><damage>3</damage></Prototype>
</PrototypeContainer>`)

	if got := res.Errors.ForPrototype("Stick"); len(got) != 1 || got[0].Kind != "duplicate_identifier" {
		t.Errorf("errors = %v, want one duplicate_identifier for Stick", res.Errors)
	}
	if _, ok := c.Get("Stick"); ok {
		t.Error("the redeclared Stick must not enter the catalog")
	}
	club, ok := Lookup[*content.Weapon](c, "Club")
	if !ok || club.Name != "Stick" || club.Damage != 3 {
		t.Errorf("Club = %+v, want name inherited from the failed Stick", club)
	}
}

func TestCatalog_Version(t *testing.T) {
	a, b := New(), New()
	if a.Version() != "" {
		t.Errorf("empty Version() = %q, want empty", a.Version())
	}

	parseInto(t, a, "base.xml", baseDocument)
	parseInto(t, b, "base.xml", baseDocument)
	if a.Version() == "" || a.Version() != b.Version() {
		t.Errorf("Version() = %q and %q, want equal and non-empty", a.Version(), b.Version())
	}
	if len(a.Version()) != 16 {
		t.Errorf("len(Version()) = %d, want 16", len(a.Version()))
	}

	edited := New()
	parseInto(t, edited, "base.xml", strings.Replace(baseDocument, "<damage>10</damage>", "<damage>11</damage>", 1))
	if edited.Version() == a.Version() {
		t.Error("Version() should change with document content")
	}
}

func TestCatalog_Replace(t *testing.T) {
	live := New()
	parseInto(t, live, "base.xml", baseDocument)
	oldVersion := live.Version()

	staging := New()
	parseInto(t, staging, "other.xml", `<PrototypeContainer Type="Item"><Prototype Id="Shield"><name>Shield</name></Prototype></PrototypeContainer>`)
	live.Replace(staging)

	if live.Count() != 1 {
		t.Fatalf("Count() = %d, want 1", live.Count())
	}
	if _, ok := live.Get("Arrow"); ok {
		t.Error("Replace() should drop previous entries")
	}
	if e, ok := live.Get("Shield"); !ok || e.Source != "other.xml" || e.Type != content.ItemType {
		t.Errorf("Get(Shield) = %+v, %v", e, ok)
	}
	if live.Version() == oldVersion || live.Version() != staging.Version() {
		t.Errorf("Version() = %q, want staging version %q", live.Version(), staging.Version())
	}
	if live.LoadTime().IsZero() {
		t.Error("LoadTime() should be set by Replace()")
	}

	// Later changes to staging do not leak into the live catalog.
	parseInto(t, staging, "more.xml", `<PrototypeContainer Type="Item"><Prototype Id="Helm"><name>Helm</name></Prototype></PrototypeContainer>`)
	if live.Count() != 1 {
		t.Errorf("Count() = %d after staging changed, want 1", live.Count())
	}
}
