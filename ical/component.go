package ical

import (
	"io"
	"strings"
)

// ComponentID addresses a component inside a Document's arena.
type ComponentID int

// Component is one BEGIN/END block: a name, its properties in order, and
// child components in order. Parent/child relations live in the arena as
// index pairs, so deeply nested documents never form ownership cycles.
type Component struct {
	Name       string
	Properties []Property

	parent   ComponentID // -1 for roots
	children []ComponentID
}

// Append a property to the component.
func (c *Component) AddProperty(prop Property) {
	c.Properties = append(c.Properties, prop)
}

// Get the first property with the given name, case-insensitive.
func (c *Component) Property(name string) (*Property, bool) {
	for i := range c.Properties {
		if strings.EqualFold(c.Properties[i].Name, name) {
			return &c.Properties[i], true
		}
	}
	return nil, false
}

// Get every property with the given name, in document order.
func (c *Component) PropertiesNamed(name string) []*Property {
	var props []*Property
	for i := range c.Properties {
		if strings.EqualFold(c.Properties[i].Name, name) {
			props = append(props, &c.Properties[i])
		}
	}
	return props
}

// Document owns a tree (or forest) of components.
type Document struct {
	arena []Component
	roots []ComponentID
}

func NewDocument() *Document {
	return &Document{}
}

// The root components, in document order. A well-formed .ics file has a
// single VCALENDAR root, but the parser accepts any balanced forest.
func (d *Document) Roots() []ComponentID {
	return d.roots
}

// Component resolves an id to its component.
func (d *Document) Component(id ComponentID) *Component {
	return &d.arena[id]
}

// Children of a component, in document order.
func (d *Document) Children(id ComponentID) []ComponentID {
	return d.arena[id].children
}

// Parent of a component; false for roots.
func (d *Document) Parent(id ComponentID) (ComponentID, bool) {
	p := d.arena[id].parent
	if p < 0 {
		return 0, false
	}
	return p, true
}

// AddRoot creates a new root component.
func (d *Document) AddRoot(name string) ComponentID {
	id := ComponentID(len(d.arena))
	d.arena = append(d.arena, Component{
		Name:   strings.ToUpper(name),
		parent: -1,
	})
	d.roots = append(d.roots, id)
	return id
}

// AddChild creates a new component under parent.
func (d *Document) AddChild(parent ComponentID, name string) ComponentID {
	id := ComponentID(len(d.arena))
	d.arena = append(d.arena, Component{
		Name:   strings.ToUpper(name),
		parent: parent,
	})
	d.arena[parent].children = append(d.arena[parent].children, id)
	return id
}

// ComponentsNamed walks the whole forest depth-first and collects every
// component with the given name, e.g. "VEVENT".
func (d *Document) ComponentsNamed(name string) []ComponentID {
	var found []ComponentID
	var walk func(id ComponentID)
	walk = func(id ComponentID) {
		if strings.EqualFold(d.arena[id].Name, name) {
			found = append(found, id)
		}
		for _, child := range d.arena[id].children {
			walk(child)
		}
	}
	for _, root := range d.roots {
		walk(root)
	}
	return found
}

// Parse reads an entire iCalendar stream into a Document, accepting any
// line ending. See ParseStrict for the pedantic variant.
func Parse(r io.Reader) (*Document, error) {
	return parse(NewLineReader(r))
}

// ParseStrict is Parse with CRLF-only line endings enforced.
func ParseStrict(r io.Reader) (*Document, error) {
	return parse(NewLineReader(r).Strict())
}

// ParseString parses an in-memory document.
func ParseString(s string) (*Document, error) {
	return Parse(strings.NewReader(s))
}

func parse(lines *LineReader) (*Document, error) {
	doc := NewDocument()

	// stack of open components
	var stack []ComponentID

	for {
		line, ok := lines.Next()
		if !ok {
			break
		}
		if line == "" {
			continue
		}
		prop, err := ParseProperty(line)
		if err != nil {
			return nil, err
		}

		switch prop.Name {
		case "BEGIN":
			name := strings.ToUpper(strings.TrimSpace(prop.Value))
			var id ComponentID
			if len(stack) == 0 {
				id = doc.AddRoot(name)
			} else {
				id = doc.AddChild(stack[len(stack)-1], name)
			}
			stack = append(stack, id)
		case "END":
			name := strings.ToUpper(strings.TrimSpace(prop.Value))
			if len(stack) == 0 {
				return nil, NewCustomError("END without open component", ErrUnbalancedComponent, map[string]any{
					"line":    lines.Line(),
					"content": line,
				})
			}
			top := stack[len(stack)-1]
			if doc.arena[top].Name != name {
				return nil, NewCustomError("END does not match open component", ErrUnbalancedComponent, map[string]any{
					"line":    lines.Line(),
					"open":    doc.arena[top].Name,
					"content": line,
				})
			}
			stack = stack[:len(stack)-1]
		default:
			if len(stack) == 0 {
				return nil, NewCustomError("property outside any component", ErrUnbalancedComponent, map[string]any{
					"line":    lines.Line(),
					"content": line,
				})
			}
			doc.arena[stack[len(stack)-1]].AddProperty(prop)
		}
	}
	if err := lines.Err(); err != nil {
		return nil, err
	}
	if len(stack) != 0 {
		return nil, NewCustomError("input ended with open components", ErrUnexpectedEOF, map[string]any{
			"open": doc.arena[stack[len(stack)-1]].Name,
		})
	}
	return doc, nil
}
