// Package schema defines the entity schemas for the Discogs data dumps and
// the fixed target-table contract they load into.
//
// A schema is plain data: it names the XML elements that bound one entity,
// maps elements and attributes onto target columns, and describes repeated
// list elements and nested child records. The parser in internal/dumpxml is
// generic and is configured entirely by one of these schemas; nothing in the
// parser knows about releases or labels.
//
// The target tables are an external contract (one table per entity and per
// child-record kind). Column order here must match the table definitions;
// the loader never reorders or renames columns.
package schema

// Kind selects the conversion applied to captured text before it becomes a
// row value.
type Kind int

const (
	// Text stores the captured text verbatim (whitespace-trimmed).
	Text Kind = iota
	// Integer parses the captured text as a base-10 integer. A failed parse
	// nulls the column unless strict parsing is enabled.
	Integer
)

// Field binds one XML element or attribute to a target column.
type Field struct {
	Column string
	Kind   Kind
}

// List binds a wrapper element with repeated text items to an array column,
// e.g. <genres><genre>Rock</genre><genre>Pop</genre></genres>.
type List struct {
	Column string
	Item   string // repeated item element inside the wrapper
}

// Child describes a nested record kind that produces rows in its own table,
// e.g. <labels><label .../></labels> inside a release. Every child row
// carries the parent entity's identifier in the FK column.
type Child struct {
	Name    string // wrapper element inside the entity
	Item    string // repeated item element; one item = one row
	Table   string
	Columns []string
	FK      string // column receiving the parent identifier
	Keys    []string
	Attrs   map[string]Field // attributes on the item element
	Scalars map[string]Field // child elements of the item element
}

// Entity describes one top-level record kind and its target table.
type Entity struct {
	Name     string // element bounding one entity, e.g. "release"
	Root     string // document root element, e.g. "releases"
	Table    string
	Columns  []string
	ID       string   // column holding the mandatory natural identifier
	Keys     []string // intra-batch dedup key columns
	Attrs    map[string]Field
	Scalars  map[string]Field
	Lists    map[string]List
	Children []Child
}

// Table is the loader-facing view of one target table.
type Table struct {
	Name    string
	Columns []string
	Keys    []string
	Parent  string // parent table name; empty for primary tables
}

// Tables returns the entity's target tables, the primary table first. The
// accumulator relies on this ordering so parents are flushed no later than
// their children.
func (e *Entity) Tables() []Table {
	out := make([]Table, 0, 1+len(e.Children))
	out = append(out, Table{Name: e.Table, Columns: e.Columns, Keys: e.Keys})
	for _, c := range e.Children {
		out = append(out, Table{Name: c.Table, Columns: c.Columns, Keys: c.Keys, Parent: e.Table})
	}
	return out
}

// IsList reports whether the named column is an array column.
func (e *Entity) IsList(column string) bool {
	for _, l := range e.Lists {
		if l.Column == column {
			return true
		}
	}
	return false
}

// Releases is the schema for the release dump. The identifier and status
// ride as attributes on the opening tag; labels and videos are child record
// kinds with their own tables.
func Releases() *Entity {
	return &Entity{
		Name:    "release",
		Root:    "releases",
		Table:   "release",
		Columns: []string{"id", "status", "title", "country", "released", "notes", "genres", "styles", "master_id", "data_quality"},
		ID:      "id",
		Keys:    []string{"id"},
		Attrs: map[string]Field{
			"id":     {Column: "id", Kind: Integer},
			"status": {Column: "status"},
		},
		Scalars: map[string]Field{
			"title":        {Column: "title"},
			"country":      {Column: "country"},
			"released":     {Column: "released"},
			"notes":        {Column: "notes"},
			"master_id":    {Column: "master_id", Kind: Integer},
			"data_quality": {Column: "data_quality"},
		},
		Lists: map[string]List{
			"genres": {Column: "genres", Item: "genre"},
			"styles": {Column: "styles", Item: "style"},
		},
		Children: []Child{
			{
				Name:    "labels",
				Item:    "label",
				Table:   "release_label",
				Columns: []string{"release_id", "label", "catno", "label_id"},
				FK:      "release_id",
				Keys:    []string{"release_id", "label_id"},
				Attrs: map[string]Field{
					"name":  {Column: "label"},
					"catno": {Column: "catno"},
					"id":    {Column: "label_id", Kind: Integer},
				},
			},
			{
				Name:    "videos",
				Item:    "video",
				Table:   "release_video",
				Columns: []string{"release_id", "duration", "src", "title"},
				FK:      "release_id",
				Attrs: map[string]Field{
					"src":      {Column: "src"},
					"duration": {Column: "duration", Kind: Integer},
				},
				Scalars: map[string]Field{
					"title": {Column: "title"},
				},
			},
		},
	}
}

// Labels is the schema for the label dump. Everything, including the
// identifier, arrives as child elements.
func Labels() *Entity {
	return &Entity{
		Name:    "label",
		Root:    "labels",
		Table:   "label",
		Columns: []string{"id", "name", "contactinfo", "profile", "parent_label", "sublabels", "urls", "data_quality"},
		ID:      "id",
		Keys:    []string{"id"},
		Scalars: map[string]Field{
			"id":           {Column: "id", Kind: Integer},
			"name":         {Column: "name"},
			"contactinfo":  {Column: "contactinfo"},
			"profile":      {Column: "profile"},
			"parentLabel":  {Column: "parent_label"},
			"data_quality": {Column: "data_quality"},
		},
		Lists: map[string]List{
			"sublabels": {Column: "sublabels", Item: "label"},
			"urls":      {Column: "urls", Item: "url"},
		},
	}
}

// Artists is the schema for the artist dump.
func Artists() *Entity {
	return &Entity{
		Name:    "artist",
		Root:    "artists",
		Table:   "artist",
		Columns: []string{"id", "name", "real_name", "profile", "data_quality", "name_variations", "urls", "aliases", "members"},
		ID:      "id",
		Keys:    []string{"id"},
		Scalars: map[string]Field{
			"id":           {Column: "id", Kind: Integer},
			"name":         {Column: "name"},
			"realname":     {Column: "real_name"},
			"profile":      {Column: "profile"},
			"data_quality": {Column: "data_quality"},
		},
		Lists: map[string]List{
			"namevariations": {Column: "name_variations", Item: "name"},
			"urls":           {Column: "urls", Item: "url"},
			"aliases":        {Column: "aliases", Item: "name"},
			"members":        {Column: "members", Item: "name"},
		},
	}
}

// Masters is the schema for the master dump. The identifier is an attribute;
// credited artists are a child record kind.
func Masters() *Entity {
	return &Entity{
		Name:    "master",
		Root:    "masters",
		Table:   "master",
		Columns: []string{"id", "title", "release_id", "year", "notes", "genres", "styles", "data_quality"},
		ID:      "id",
		Keys:    []string{"id"},
		Attrs: map[string]Field{
			"id": {Column: "id", Kind: Integer},
		},
		Scalars: map[string]Field{
			"title":        {Column: "title"},
			"main_release": {Column: "release_id", Kind: Integer},
			"year":         {Column: "year", Kind: Integer},
			"notes":        {Column: "notes"},
			"data_quality": {Column: "data_quality"},
		},
		Lists: map[string]List{
			"genres": {Column: "genres", Item: "genre"},
			"styles": {Column: "styles", Item: "style"},
		},
		Children: []Child{
			{
				Name:    "artists",
				Item:    "artist",
				Table:   "master_artist",
				Columns: []string{"master_id", "artist_id", "name", "anv", "role"},
				FK:      "master_id",
				Keys:    []string{"master_id", "artist_id"},
				Scalars: map[string]Field{
					"id":   {Column: "artist_id", Kind: Integer},
					"name": {Column: "name"},
					"anv":  {Column: "anv"},
					"role": {Column: "role"},
				},
			},
		},
	}
}

// ByRoot resolves an entity schema from a dump file's root element name.
// The second return value is false when the root is not a known dump kind.
func ByRoot(root string) (*Entity, bool) {
	switch root {
	case "releases":
		return Releases(), true
	case "labels":
		return Labels(), true
	case "artists":
		return Artists(), true
	case "masters":
		return Masters(), true
	}
	return nil, false
}

// ByKind resolves an entity schema from a singular kind name as given on the
// command line ("release", "label", "artist", "master").
func ByKind(kind string) (*Entity, bool) {
	switch kind {
	case "release":
		return Releases(), true
	case "label":
		return Labels(), true
	case "artist":
		return Artists(), true
	case "master":
		return Masters(), true
	}
	return nil, false
}
