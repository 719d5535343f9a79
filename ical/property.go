package ical

import (
	"strings"
)

// A parameter attached to a property. A parameter may carry several
// comma-separated values, each individually quotable.
type Param struct {
	Name   string
	Values []string
}

// One content line, split into its parts. Value holds the raw value text as
// it appeared on the wire, still escaped; use Decode to get a typed Value.
type Property struct {
	Name   string
	Params []Param
	Value  string
}

// Get the first value of a parameter, case-insensitive.
func (p *Property) Param(name string) (string, bool) {
	for _, param := range p.Params {
		if strings.EqualFold(param.Name, name) {
			if len(param.Values) == 0 {
				return "", true
			}
			return param.Values[0], true
		}
	}
	return "", false
}

// Set or replace a parameter with a single value.
func (p *Property) SetParam(name string, value string) {
	name = strings.ToUpper(name)
	for i, param := range p.Params {
		if param.Name == name {
			p.Params[i].Values = []string{value}
			return
		}
	}
	p.Params = append(p.Params, Param{Name: name, Values: []string{value}})
}

// ParseProperty parses one logical line of the form
//
//	NAME;PARAM=VAL;PARAM="quoted:val",other:VALUE
//
// Property and parameter names are case-insensitive ASCII and are stored
// upper-cased. The line is split on the first colon outside of quotes;
// parameter values containing ':', ';' or ',' must be quoted. Pure function.
func ParseProperty(line string) (Property, error) {
	var prop Property

	nameEnd := -1
	for i := 0; i < len(line); i++ {
		if line[i] == ';' || line[i] == ':' {
			nameEnd = i
			break
		}
	}
	if nameEnd == -1 {
		return prop, NewCustomError("missing ':' separator", ErrInvalidPropertySyntax, map[string]any{
			"content": line,
		})
	}
	name := line[:nameEnd]
	if !validName(name) {
		return prop, NewCustomError("invalid property name", ErrInvalidPropertySyntax, map[string]any{
			"name": name,
		})
	}
	prop.Name = strings.ToUpper(name)

	rest := line[nameEnd:]
	for strings.HasPrefix(rest, ";") {
		var param Param
		var err error
		param, rest, err = parseParam(rest[1:], line)
		if err != nil {
			return Property{}, err
		}
		prop.Params = append(prop.Params, param)
	}
	if !strings.HasPrefix(rest, ":") {
		return Property{}, NewCustomError("missing ':' separator", ErrInvalidPropertySyntax, map[string]any{
			"content": line,
		})
	}
	prop.Value = rest[1:]
	return prop, nil
}

// parseParam consumes one NAME=value[,value...] parameter and returns the
// unconsumed remainder, which starts with ';' or ':' on success.
func parseParam(s string, line string) (Param, string, error) {
	var param Param

	eq := strings.IndexByte(s, '=')
	if eq == -1 || !validName(s[:eq]) {
		return param, "", NewCustomError("malformed parameter", ErrInvalidPropertySyntax, map[string]any{
			"content": line,
		})
	}
	param.Name = strings.ToUpper(s[:eq])
	s = s[eq+1:]

	for {
		var value string
		var err error
		value, s, err = parseParamValue(s, line)
		if err != nil {
			return param, "", err
		}
		param.Values = append(param.Values, value)
		if strings.HasPrefix(s, ",") {
			s = s[1:]
			continue
		}
		return param, s, nil
	}
}

// parseParamValue consumes a single quoted or bare parameter value.
func parseParamValue(s string, line string) (string, string, error) {
	if strings.HasPrefix(s, "\"") {
		end := strings.IndexByte(s[1:], '"')
		if end == -1 {
			return "", "", NewCustomError("unterminated quoted parameter value", ErrInvalidPropertySyntax, map[string]any{
				"content": line,
			})
		}
		value := s[1 : 1+end]
		rest := s[2+end:]
		if rest != "" && rest[0] != ',' && rest[0] != ';' && rest[0] != ':' {
			return "", "", NewCustomError("garbage after quoted parameter value", ErrInvalidPropertySyntax, map[string]any{
				"content": line,
			})
		}
		return value, rest, nil
	}

	end := len(s)
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case ',', ';', ':':
			end = i
		case '"':
			return "", "", NewCustomError("quote inside unquoted parameter value", ErrInvalidPropertySyntax, map[string]any{
				"content": line,
			})
		default:
			continue
		}
		break
	}
	return s[:end], s[end:], nil
}

// validName accepts iana-token / x-name shapes: ASCII letters, digits, '-'.
func validName(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z':
		case c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9':
		case c == '-':
		default:
			return false
		}
	}
	return true
}

// needsQuoting reports whether a parameter value must be wrapped in
// DQUOTEs when serialized.
func needsQuoting(value string) bool {
	return strings.ContainsAny(value, ":;,")
}
