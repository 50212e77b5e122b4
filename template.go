package retailsql

import (
	"regexp"
	"strconv"
	"strings"
)

// Params holds named query parameter values
type Params map[string]any

// merge returns a copy of p with defaults filled in for names p does not set
func (p Params) merge(defaults Params) Params {
	out := make(Params, len(p)+len(defaults))
	for k, v := range defaults {
		out[k] = v
	}
	for k, v := range p {
		out[k] = v
	}
	return out
}

// ParamsFromStrings converts textual parameters, as read from a query string or a command
// line, to Params. Values written as canonical integers are bound as integers so that
// numeric comparisons such as Frequency > {min_frequency} compare numbers, not text.
func ParamsFromStrings(values map[string]string) Params {
	params := make(Params, len(values))
	for k, v := range values {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && strconv.FormatInt(n, 10) == v {
			params[k] = n
			continue
		}
		params[k] = v
	}
	return params
}

// placeholderPattern matches {name} and the quoted form '{name}'.
// The quotes belong to the placeholder, so the bound value is never spliced into a literal.
var placeholderPattern = regexp.MustCompile(`'\{([A-Za-z_][A-Za-z0-9_]*)\}'|\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// QueryTemplate is a named SQL text with {name} placeholders. It is immutable after parsing.
type QueryTemplate struct {
	Name string `json:"name"`
	SQL  string `json:"sql"`
	// Params lists the distinct placeholder names in order of first appearance
	Params []string `json:"params"`
}

// newQueryTemplate extracts the placeholder list of sql
func newQueryTemplate(name, sql string) QueryTemplate {
	var params []string
	seen := make(map[string]struct{})
	for _, m := range placeholderPattern.FindAllStringSubmatch(sql, -1) {
		p := placeholderName(m)
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		params = append(params, p)
	}
	return QueryTemplate{Name: name, SQL: sql, Params: params}
}

func placeholderName(m []string) string {
	if m[1] != "" {
		return m[1]
	}
	return m[2]
}

// Bind replaces every placeholder with a ? and returns the values in order of appearance.
// A placeholder used twice yields two arguments. Parameters the template does not use are
// ignored. If any placeholder has no value, Bind returns a *MissingParameterError naming
// all of them.
func (t QueryTemplate) Bind(params Params) (string, []any, error) {
	var (
		args    []any
		missing []string
	)
	bound := placeholderPattern.ReplaceAllStringFunc(t.SQL, func(match string) string {
		name := placeholderName(placeholderPattern.FindStringSubmatch(match))
		value, ok := params[name]
		if !ok {
			missing = append(missing, name)
			return match
		}
		args = append(args, value)
		return "?"
	})
	if len(missing) > 0 {
		return "", nil, newMissingParameterError(t.Name, missing)
	}
	return trimStatement(bound), args, nil
}

// trimStatement removes surrounding whitespace and trailing semicolons
func trimStatement(sql string) string {
	return strings.TrimRight(strings.TrimSpace(sql), "; \t\r\n")
}
