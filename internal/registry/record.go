package registry

import (
	"errors"
	"github.com/tidwall/gjson"
)

var (
	errBodyNotJSON  = errors.New("the response body is not valid JSON")
	errBodyNotArray = errors.New("the response body is not a JSON array")
)

// RawSiteRecord represents a site as the federation registry sends it.
// Every field is optional; fields the registry sends on top of these are ignored.
type RawSiteRecord struct {
	ID   *string      `json:"id,omitempty"`
	Spec *RawSiteSpec `json:"spec,omitempty"`
}

// RawSiteSpec represents the nested 'spec' object of a RawSiteRecord
type RawSiteSpec struct {
	Name       *string           `json:"name,omitempty"`
	Properties map[string]string `json:"properties,omitempty"`
}

// Property returns the value of a spec property and whether it is present.
// It is safe to call on records without a spec or without properties.
func (record RawSiteRecord) Property(key string) (string, bool) {
	if record.Spec == nil || record.Spec.Properties == nil {
		return "", false
	}
	val, ok := record.Spec.Properties[key]
	return val, ok
}

// DecodeSites decodes a registry response body into site records.
// Each element of the top-level array yields exactly one record, however incomplete it is.
func DecodeSites(body []byte) ([]RawSiteRecord, error) {
	if !gjson.ValidBytes(body) {
		return nil, &Error{Kind: KindParse, Wrapping: errBodyNotJSON}
	}
	parsed := gjson.ParseBytes(body)
	if !parsed.IsArray() {
		return nil, &Error{Kind: KindShape, Wrapping: errBodyNotArray}
	}

	elements := parsed.Array()
	records := make([]RawSiteRecord, 0, len(elements))
	for _, element := range elements {
		records = append(records, recordFromJSON(element))
	}
	return records, nil
}

func recordFromJSON(element gjson.Result) RawSiteRecord {
	record := RawSiteRecord{}
	if !element.IsObject() {
		return record
	}

	// IDs are taken verbatim; numeric IDs keep their JSON text
	if id := element.Get("id"); id.Type == gjson.String || id.Type == gjson.Number {
		str := id.String()
		if id.Type == gjson.Number {
			str = id.Raw
		}
		record.ID = &str
	}

	spec := element.Get("spec")
	if !spec.IsObject() {
		return record
	}
	record.Spec = &RawSiteSpec{
		Name: optionalString(spec.Get("name")),
	}
	if properties := spec.Get("properties"); properties.IsObject() {
		record.Spec.Properties = make(map[string]string)
		properties.ForEach(func(key, value gjson.Result) bool {
			if value.Type == gjson.String {
				record.Spec.Properties[key.String()] = value.String()
			}
			return true
		})
	}
	return record
}

func optionalString(result gjson.Result) *string {
	if result.Type != gjson.String {
		return nil
	}
	str := result.String()
	return &str
}
