package ical

import (
	"io"
	"strings"
)

// Serialize writes the whole forest back out as iCalendar text: canonical
// escaping, CRLF terminators, lines folded at 75 octets, parameter values
// quoted exactly when they need to be.
func (d *Document) Serialize(w io.Writer) error {
	for _, root := range d.roots {
		if err := d.serializeComponent(w, root); err != nil {
			return err
		}
	}
	return nil
}

// String renders the document into a string.
func (d *Document) String() (string, error) {
	var sb strings.Builder
	if err := d.Serialize(&sb); err != nil {
		return "", err
	}
	return sb.String(), nil
}

func (d *Document) serializeComponent(w io.Writer, id ComponentID) error {
	comp := &d.arena[id]

	if err := writeFolded(w, "BEGIN:"+comp.Name); err != nil {
		return err
	}
	for i := range comp.Properties {
		line, err := comp.Properties[i].Marshal()
		if err != nil {
			return err
		}
		if err := writeFolded(w, line); err != nil {
			return err
		}
	}
	for _, child := range comp.children {
		if err := d.serializeComponent(w, child); err != nil {
			return err
		}
	}
	return writeFolded(w, "END:"+comp.Name)
}

// Marshal renders the property as a single unfolded content line.
func (p *Property) Marshal() (string, error) {
	var sb strings.Builder
	sb.WriteString(p.Name)
	for _, param := range p.Params {
		sb.WriteByte(';')
		sb.WriteString(param.Name)
		sb.WriteByte('=')
		for i, value := range param.Values {
			if i > 0 {
				sb.WriteByte(',')
			}
			if strings.ContainsRune(value, '"') {
				// DQUOTE cannot appear in a parameter value, quoted or not
				return "", NewCustomError("parameter value contains a quote", ErrInvalidPropertySyntax, map[string]any{
					"property":  p.Name,
					"parameter": param.Name,
				})
			}
			if needsQuoting(value) {
				sb.WriteByte('"')
				sb.WriteString(value)
				sb.WriteByte('"')
			} else {
				sb.WriteString(value)
			}
		}
	}
	sb.WriteByte(':')
	sb.WriteString(p.Value)
	return sb.String(), nil
}

func writeFolded(w io.Writer, line string) error {
	_, err := io.WriteString(w, FoldLine(line))
	return err
}

// Equal reports structural equality of two documents: same forest shape,
// same component names, same properties with the same parameters and raw
// values, in the same order.
func (d *Document) Equal(other *Document) bool {
	if len(d.roots) != len(other.roots) {
		return false
	}
	for i := range d.roots {
		if !equalComponents(d, d.roots[i], other, other.roots[i]) {
			return false
		}
	}
	return true
}

func equalComponents(a *Document, aid ComponentID, b *Document, bid ComponentID) bool {
	ac, bc := &a.arena[aid], &b.arena[bid]
	if ac.Name != bc.Name ||
		len(ac.Properties) != len(bc.Properties) ||
		len(ac.children) != len(bc.children) {
		return false
	}
	for i := range ac.Properties {
		if !equalProperties(&ac.Properties[i], &bc.Properties[i]) {
			return false
		}
	}
	for i := range ac.children {
		if !equalComponents(a, ac.children[i], b, bc.children[i]) {
			return false
		}
	}
	return true
}

func equalProperties(a, b *Property) bool {
	if a.Name != b.Name || a.Value != b.Value || len(a.Params) != len(b.Params) {
		return false
	}
	for i := range a.Params {
		if a.Params[i].Name != b.Params[i].Name {
			return false
		}
		if len(a.Params[i].Values) != len(b.Params[i].Values) {
			return false
		}
		for j := range a.Params[i].Values {
			if a.Params[i].Values[j] != b.Params[i].Values[j] {
				return false
			}
		}
	}
	return true
}
