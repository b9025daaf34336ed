// Package metadata resolves loosely spoken object names to exact
// configuration identifiers.
package metadata

import (
	"sort"
	"strings"

	"voxcmd/pkg/model"
)

type entry struct {
	stem string
	name string
}

// Canonicalizer is immutable after construction and safe to share
type Canonicalizer struct {
	entries []entry // longest stem first
}

// New builds a canonicalizer from a static table and names supplied by the
// downstream system. Dynamic names only fill gaps: a key already present in
// static keeps its static value.
func New(static map[string]string, dynamic []string) *Canonicalizer {
	table := make(map[string]string, len(static)+len(dynamic))
	for stem, name := range static {
		table[normalize(stem)] = name
	}
	for _, name := range dynamic {
		key := normalize(name)
		if key == "" {
			continue
		}
		if _, exists := table[key]; !exists {
			table[key] = strings.TrimSpace(name)
		}
	}

	entries := make([]entry, 0, len(table))
	for stem, name := range table {
		if stem == "" {
			continue
		}
		entries = append(entries, entry{stem: stem, name: name})
	}
	sort.Slice(entries, func(i, j int) bool {
		if len(entries[i].stem) != len(entries[j].stem) {
			return len(entries[i].stem) > len(entries[j].stem)
		}
		return entries[i].stem < entries[j].stem
	})

	return &Canonicalizer{entries: entries}
}

// NewDefault builds a canonicalizer over StaticNames
func NewDefault(dynamic ...string) *Canonicalizer {
	return New(StaticNames, dynamic)
}

// Len returns the number of known stems
func (c *Canonicalizer) Len() int {
	return len(c.entries)
}

// Canonicalize returns the name mapped to the longest known stem prefixing
// the fragment, or the normalized fragment when no stem matches.
func (c *Canonicalizer) Canonicalize(raw string) string {
	fragment := normalize(raw)
	for _, e := range c.entries {
		if strings.HasPrefix(fragment, e.stem) {
			return e.name
		}
	}
	return fragment
}

var enrichedField = map[string]string{
	model.IntentOpenCatalogList:      "catalog",
	model.IntentOpenCatalogByCode:    "catalog",
	model.IntentOpenCatalogByName:    "catalog",
	model.IntentCreateCatalog:        "catalog",
	model.IntentOpenDocumentList:     "doc",
	model.IntentOpenDocumentByNumber: "doc",
	model.IntentCreateDocument:       "doc",
	model.IntentRunReport:            "report",
	model.IntentOpenInfoRegister:     "reg",
}

// Enrich returns a copy of fields with the object-name field relevant to
// intent canonicalized. Other fields pass through untouched.
func (c *Canonicalizer) Enrich(intent string, fields model.Fields) model.Fields {
	out := fields.Clone()
	name, ok := enrichedField[intent]
	if !ok {
		return out
	}
	if raw, ok := out.String(name); ok {
		out[name] = c.Canonicalize(raw)
	}
	return out
}

func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
