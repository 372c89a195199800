package storage

import (
	"fmt"
	"maps"
	"slices"

	json "github.com/goccy/go-json"
)

var (
	chromeFileKeys  = []string{"checksum", "roots", "sync_metadata", "version"}
	chromeRootsKeys = []string{"bookmark_bar", "other", "synced"}
	chromeNodeKeys  = []string{
		"children", "date_added", "date_last_used", "date_modified",
		"guid", "id", "meta_info", "name", "type", "url",
	}
)

// rawFields holds the members of a JSON object that no struct field names.
type rawFields map[string]json.RawMessage

// unknownFields returns the members of the object in data not listed in known.
func unknownFields(data []byte, known []string) (rawFields, error) {
	var all rawFields
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, err
	}
	for _, k := range known {
		delete(all, k)
	}
	if len(all) == 0 {
		return nil, nil
	}
	return all, nil
}

// appendTo adds the fields to the encoded object obj, in key order.
func (f rawFields) appendTo(obj []byte) ([]byte, error) {
	if len(f) == 0 {
		return obj, nil
	}
	if len(obj) < 2 || obj[0] != '{' || obj[len(obj)-1] != '}' {
		return nil, fmt.Errorf("append fields: not a JSON object")
	}
	out := append([]byte(nil), obj[:len(obj)-1]...)
	for _, k := range slices.Sorted(maps.Keys(f)) {
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		if len(out) > 1 {
			out = append(out, ',')
		}
		out = append(out, key...)
		out = append(out, ':')
		out = append(out, f[k]...)
	}
	return append(out, '}'), nil
}

// The *Fields types share the layout of their counterparts without the
// JSON methods, so the methods can delegate to the default encoding.
type (
	chromeFileFields  chromeFile
	chromeRootsFields chromeRoots
	chromeNodeFields  chromeNode
)

func (f *chromeFile) UnmarshalJSON(data []byte) error {
	if err := json.Unmarshal(data, (*chromeFileFields)(f)); err != nil {
		return err
	}
	extra, err := unknownFields(data, chromeFileKeys)
	f.extra = extra
	return err
}

func (f chromeFile) MarshalJSON() ([]byte, error) {
	data, err := json.Marshal(chromeFileFields(f))
	if err != nil {
		return nil, err
	}
	return f.extra.appendTo(data)
}

func (r *chromeRoots) UnmarshalJSON(data []byte) error {
	if err := json.Unmarshal(data, (*chromeRootsFields)(r)); err != nil {
		return err
	}
	extra, err := unknownFields(data, chromeRootsKeys)
	r.extra = extra
	return err
}

func (r chromeRoots) MarshalJSON() ([]byte, error) {
	data, err := json.Marshal(chromeRootsFields(r))
	if err != nil {
		return nil, err
	}
	return r.extra.appendTo(data)
}

func (n *chromeNode) UnmarshalJSON(data []byte) error {
	if err := json.Unmarshal(data, (*chromeNodeFields)(n)); err != nil {
		return err
	}
	extra, err := unknownFields(data, chromeNodeKeys)
	n.extra = extra
	return err
}

func (n chromeNode) MarshalJSON() ([]byte, error) {
	data, err := json.Marshal(chromeNodeFields(n))
	if err != nil {
		return nil, err
	}
	return n.extra.appendTo(data)
}
