package model

import (
	"strconv"
)

// Intent names produced by the extraction engine.
const (
	IntentUnknown              = "Unknown"
	IntentOpenCatalogByCode    = "OpenCatalogByCode"
	IntentOpenCatalogByName    = "OpenCatalogByName"
	IntentOpenCatalogList      = "OpenCatalogList"
	IntentOpenDocumentByNumber = "OpenDocumentByNumber"
	IntentOpenDocumentList     = "OpenDocumentList"
	IntentCreateCatalog        = "CreateCatalog"
	IntentCreateDocument       = "CreateDocument"
	IntentAddPosition          = "AddPosition"
	IntentRunReport            = "RunReport"
	IntentOpenInfoRegister     = "OpenInfoRegister"
	IntentSaveDocument         = "SaveDocument"
	IntentExitVoice            = "ExitVoice"
	IntentHelp                 = "Help"
)

// Fields maps slot names to string or int values
type Fields map[string]any

// Clone returns a shallow copy; a nil map clones to an empty one
func (f Fields) Clone() Fields {
	out := make(Fields, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

// String returns the value of a string field
func (f Fields) String(name string) (string, bool) {
	v, ok := f[name].(string)
	return v, ok
}

// Int returns the value of a numeric field
func (f Fields) Int(name string) (int, bool) {
	v, ok := f[name].(int)
	return v, ok
}

// Strings flattens the fields into the key->string form sent downstream
func (f Fields) Strings() map[string]string {
	out := make(map[string]string, len(f))
	for k, v := range f {
		switch val := v.(type) {
		case string:
			out[k] = val
		case int:
			out[k] = strconv.Itoa(val)
		case int64:
			out[k] = strconv.FormatInt(val, 10)
		case float64:
			out[k] = strconv.FormatFloat(val, 'f', -1, 64)
		}
	}
	return out
}

// Intent is the extraction result: a tag plus its captured slots
type Intent struct {
	Name   string `json:"intent"`
	Fields Fields `json:"fields"`
}

// IsUnknown reports whether the catch-all rule produced this intent
func (i Intent) IsUnknown() bool {
	return i.Name == IntentUnknown
}
