package dumpxml

import (
	"encoding/xml"
	"strconv"

	"discogsload/internal/schema"
)

// EmitFunc receives one completed row for a target table. Rows for one
// entity arrive together, the primary row first, then any child rows. A
// non-nil error aborts the file.
type EmitFunc func(table string, row []any) error

// Options controls parse policy.
type Options struct {
	// StrictNumbers aborts the file when a numeric field fails to parse.
	// The default policy nulls the column and continues.
	StrictNumbers bool
}

// recShape is the generic element-to-column view shared by entities and
// child records, so one machine handles both.
type recShape struct {
	tag      string
	table    string
	columns  []string
	idColumn string // non-empty only for entities
	fkColumn string // non-empty only for child records
	attrs    map[string]schema.Field
	scalars  map[string]schema.Field
	lists    map[string]schema.List
	children map[string]*schema.Child
}

func entityShape(sc *schema.Entity) recShape {
	rs := recShape{
		tag:      sc.Name,
		table:    sc.Table,
		columns:  sc.Columns,
		idColumn: sc.ID,
		attrs:    sc.Attrs,
		scalars:  sc.Scalars,
		lists:    sc.Lists,
		children: make(map[string]*schema.Child, len(sc.Children)),
	}
	for i := range sc.Children {
		rs.children[sc.Children[i].Name] = &sc.Children[i]
	}
	return rs
}

func childShape(c *schema.Child) recShape {
	return recShape{
		tag:      c.Item,
		table:    c.Table,
		columns:  c.Columns,
		fkColumn: c.FK,
		attrs:    c.Attrs,
		scalars:  c.Scalars,
	}
}

// mode is the transient sub-state inside one record frame.
type mode int

const (
	modeBody     mode = iota // inside the record, not inside any tracked element
	modeScalar               // capturing one scalar field
	modeListWrap             // inside a list wrapper, between items
	modeListItem             // capturing one list item
	modeChildWrap            // inside a child-record wrapper, between items
	modeSkip                 // inside an unrecognized subtree
)

// childRow is a completed child record held until the parent closes, so the
// foreign key can be backfilled even when the child preceded the parent's
// identifier field in input order.
type childRow struct {
	table string
	row   []any
	fkIdx int
}

// frame is one in-progress record. The machine keeps frames on an explicit
// stack rather than recursing, so memory stays proportional to the nesting
// depth of a single entity.
type frame struct {
	shape    recShape
	vals     map[string]any
	lists    map[string][]string
	children []childRow

	mode  mode
	depth int
	field schema.Field
	list  schema.List
	child *schema.Child
	text  []byte
}

func newFrame(rs recShape) *frame {
	f := &frame{
		shape: rs,
		vals:  make(map[string]any, len(rs.columns)),
		lists: make(map[string][]string, len(rs.lists)),
	}
	// Zero occurrences of a list field must load as an empty array, not null.
	for _, l := range rs.lists {
		f.lists[l.Column] = []string{}
	}
	return f
}

// machine consumes tokenizer events and reconstructs one typed entity at a
// time. The empty stack is the Idle state; the bottom frame is the entity
// being built and any frame above it is a child record in progress.
type machine struct {
	sc    *schema.Entity
	shape recShape
	opts  Options
	emit  EmitFunc
	stack []*frame
}

func newMachine(sc *schema.Entity, opts Options, emit EmitFunc) *machine {
	return &machine{sc: sc, shape: entityShape(sc), opts: opts, emit: emit}
}

// midEntity reports whether an entity is currently being built; end of
// stream in that condition is a truncation.
func (m *machine) midEntity() bool { return len(m.stack) > 0 }

func (m *machine) top() *frame { return m.stack[len(m.stack)-1] }

func (m *machine) start(t xml.StartElement) error {
	if len(m.stack) == 0 {
		// Idle: only the entity's own opening tag matters; the document
		// root and anything else passes by.
		if t.Name.Local == m.shape.tag {
			return m.push(m.shape, t)
		}
		return nil
	}

	cur := m.top()
	switch cur.mode {
	case modeBody:
		name := t.Name.Local
		if f, ok := cur.shape.scalars[name]; ok {
			cur.mode, cur.depth, cur.field, cur.text = modeScalar, 1, f, cur.text[:0]
			return nil
		}
		if l, ok := cur.shape.lists[name]; ok {
			cur.mode, cur.depth, cur.list = modeListWrap, 1, l
			return nil
		}
		if c, ok := cur.shape.children[name]; ok {
			cur.mode, cur.depth, cur.child = modeChildWrap, 1, c
			return nil
		}
		// Unrecognized element: capture nothing, skip the subtree. This is
		// what keeps the parser tolerant of schema drift in the dumps.
		cur.mode, cur.depth = modeSkip, 1
		return nil

	case modeListWrap:
		if cur.depth == 1 && t.Name.Local == cur.list.Item {
			cur.mode, cur.depth, cur.text = modeListItem, 2, cur.text[:0]
			return nil
		}
		cur.depth++
		return nil

	case modeChildWrap:
		if cur.depth == 1 && t.Name.Local == cur.child.Item {
			return m.push(childShape(cur.child), t)
		}
		cur.depth++
		return nil

	default: // modeScalar, modeListItem, modeSkip
		cur.depth++
		return nil
	}
}

// push opens a new record frame and captures attribute-borne fields from the
// opening tag.
func (m *machine) push(rs recShape, t xml.StartElement) error {
	f := newFrame(rs)
	for _, a := range t.Attr {
		fd, ok := rs.attrs[a.Name.Local]
		if !ok {
			continue
		}
		v, err := m.convert(fd, []byte(a.Value), a.Name.Local)
		if err != nil {
			return err
		}
		f.vals[fd.Column] = v
	}
	m.stack = append(m.stack, f)
	return nil
}

func (m *machine) chars(t xml.CharData) {
	if len(m.stack) == 0 {
		return
	}
	cur := m.top()
	if cur.mode == modeScalar || cur.mode == modeListItem {
		cur.text = append(cur.text, t...)
	}
}

// end processes a closing tag. It reports true when a whole entity was
// completed and emitted.
func (m *machine) end(t xml.EndElement) (bool, error) {
	if len(m.stack) == 0 {
		return false, nil
	}

	cur := m.top()
	switch cur.mode {
	case modeBody:
		if t.Name.Local != cur.shape.tag {
			// Stray close the tokenizer let through; ignore.
			return false, nil
		}
		return m.complete()

	case modeScalar:
		cur.depth--
		if cur.depth == 0 {
			v, err := m.convert(cur.field, cur.text, t.Name.Local)
			if err != nil {
				return false, err
			}
			cur.vals[cur.field.Column] = v
			cur.mode = modeBody
		}
		return false, nil

	case modeListItem:
		cur.depth--
		if cur.depth == 1 {
			if s := string(trimSpace(cur.text)); s != "" {
				cur.lists[cur.list.Column] = append(cur.lists[cur.list.Column], s)
			}
			cur.mode = modeListWrap
		}
		return false, nil

	case modeListWrap, modeChildWrap, modeSkip:
		cur.depth--
		if cur.depth == 0 {
			cur.mode = modeBody
		}
		return false, nil
	}
	return false, nil
}

// complete pops the top frame. A child record is handed to its parent; an
// entity resolves child foreign keys and emits every row.
func (m *machine) complete() (bool, error) {
	cur := m.top()
	m.stack = m.stack[:len(m.stack)-1]

	if cur.shape.fkColumn != "" {
		parent := m.top()
		parent.children = append(parent.children, childRow{
			table: cur.shape.table,
			row:   cur.buildRow(),
			fkIdx: indexOf(cur.shape.columns, cur.shape.fkColumn),
		})
		return false, nil
	}

	id := cur.vals[cur.shape.idColumn]
	if err := m.emit(cur.shape.table, cur.buildRow()); err != nil {
		return false, err
	}
	for _, c := range cur.children {
		if c.fkIdx >= 0 {
			c.row[c.fkIdx] = id
		}
		if err := m.emit(c.table, c.row); err != nil {
			return false, err
		}
	}
	return true, nil
}

// buildRow materializes the frame into column order. Absent scalars stay
// nil; list columns always carry a slice, possibly empty.
func (f *frame) buildRow() []any {
	row := make([]any, len(f.shape.columns))
	for i, col := range f.shape.columns {
		if items, ok := f.lists[col]; ok {
			row[i] = items
			continue
		}
		row[i] = f.vals[col] // nil when never assigned
	}
	return row
}

func (m *machine) convert(fd schema.Field, raw []byte, elem string) (any, error) {
	s := string(trimSpace(raw))
	if fd.Kind != schema.Integer {
		return s, nil
	}
	if s == "" {
		return nil, nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		if m.opts.StrictNumbers {
			return nil, &FieldParseError{Element: elem, Column: fd.Column, Text: s, Err: err}
		}
		return nil, nil
	}
	return n, nil
}

func indexOf(cols []string, name string) int {
	for i, c := range cols {
		if c == name {
			return i
		}
	}
	return -1
}

// trimSpace is an ASCII-focused trim that avoids the string/[]byte round
// trip on the hot path.
func trimSpace(b []byte) []byte {
	i, j := 0, len(b)-1
	for i <= j && (b[i] == ' ' || b[i] == '\n' || b[i] == '\r' || b[i] == '\t') {
		i++
	}
	for j >= i && (b[j] == ' ' || b[j] == '\n' || b[j] == '\r' || b[j] == '\t') {
		j--
	}
	if i > j {
		return nil
	}
	return b[i : j+1]
}
