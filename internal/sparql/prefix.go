// Package sparql sends SPARQL SELECT queries over HTTP and reads the CSV
// results into a Table.
package sparql

import (
	"strings"
)

// MovieLocationsNamespace is the namespace of the movie locations vocabulary.
const MovieLocationsNamespace = "http://example.com/movieLocations/"

// Prefix is a namespace prefix declaration.
type Prefix struct {
	Name string
	IRI  string
}

// Declaration renders the prefix as "PREFIX name: <iri>".
func (p Prefix) Declaration() string {
	return "PREFIX " + p.Name + ": <" + p.IRI + ">"
}

// DefaultPrefixes are prepended to every query unless a client is configured
// with its own set.
var DefaultPrefixes = []Prefix{
	{Name: "ml", IRI: MovieLocationsNamespace},
}

// WithPrefixes prepends the prefix declarations to query. Each declaration is
// put in front of the text built so far, so the last prefix comes first.
// The query is otherwise left untouched and must be complete.
func WithPrefixes(query string, prefixes []Prefix) string {
	for _, p := range prefixes {
		var b strings.Builder
		b.Grow(len(query) + len(p.Name) + len(p.IRI) + 12)
		b.WriteString(p.Declaration())
		b.WriteByte(' ')
		b.WriteString(query)
		query = b.String()
	}
	return query
}
