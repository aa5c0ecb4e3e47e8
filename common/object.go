package common

// JsonField walks an untyped decoded JSON value by object keys and returns
// the value at the end of the path, or nil if any hop is missing or not an
// object.
func JsonField(v interface{}, path ...string) interface{} {
	for _, key := range path {
		obj, ok := v.(map[string]interface{})
		if !ok {
			return nil
		}
		v, ok = obj[key]
		if !ok {
			return nil
		}
	}
	return v
}

// JsonString returns the string at path, or an extraction error naming the
// missing field.
func JsonString(v interface{}, path ...string) (string, error) {
	s, ok := JsonField(v, path...).(string)
	if !ok {
		return "", NewErrMissingResponseField(dotted(path))
	}
	return s, nil
}

// JsonUint64 returns the number at path as uint64. Decoded JSON numbers are
// float64; values beyond 2^53 are not expected for leaf indexes.
func JsonUint64(v interface{}, path ...string) (uint64, error) {
	f, ok := JsonField(v, path...).(float64)
	if !ok || f < 0 {
		return 0, NewErrMissingResponseField(dotted(path))
	}
	return uint64(f), nil
}

// JsonArray returns the array at path.
func JsonArray(v interface{}, path ...string) ([]interface{}, error) {
	a, ok := JsonField(v, path...).([]interface{})
	if !ok {
		return nil, NewErrMissingResponseField(dotted(path))
	}
	return a, nil
}

func dotted(path []string) string {
	out := ""
	for i, p := range path {
		if i > 0 {
			out += "."
		}
		out += p
	}
	return out
}
