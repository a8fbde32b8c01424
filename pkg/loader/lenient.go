package loader

import (
	"sort"
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"github.com/vanderheijden86/famtree/pkg/model"
)

// decodeMember decodes one record. When the record as a whole does not
// decode, its fields are decoded one at a time: a quoted number is accepted
// for a numeric field, and a field that still fails is left at its zero
// value and named in dropped. Only a record that is not a JSON object
// returns an error.
func decodeMember(raw []byte) (m model.Member, dropped []string, err error) {
	if err = json.Unmarshal(raw, &m); err == nil {
		return m, nil, nil
	}

	var fields map[string]json.RawMessage
	if json.Unmarshal(raw, &fields) != nil {
		return model.Member{}, nil, err
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	m = model.Member{}
	for _, k := range keys {
		if !decodeField(&m, k, fields[k]) {
			dropped = append(dropped, k)
		}
	}
	return m, dropped, nil
}

func decodeField(m *model.Member, key string, val json.RawMessage) bool {
	name, err := json.Marshal(key)
	if err != nil {
		return false
	}
	try := func(v []byte) bool {
		buf := make([]byte, 0, len(name)+len(v)+3)
		buf = append(buf, '{')
		buf = append(buf, name...)
		buf = append(buf, ':')
		buf = append(buf, v...)
		buf = append(buf, '}')
		next := *m
		if json.Unmarshal(buf, &next) != nil {
			return false
		}
		*m = next
		return true
	}
	if try(val) {
		return true
	}

	var s string
	if json.Unmarshal(val, &s) != nil {
		return false
	}
	s = strings.TrimSpace(s)
	if _, err := strconv.ParseFloat(s, 64); err != nil {
		return false
	}
	return try([]byte(s))
}
