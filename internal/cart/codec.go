package cart

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

var ErrMalformed = errors.New("malformed cart payload")

// MarshalJSON writes a flat object with keys in ascending numeric order,
// for example {"5":2,"9":1}.
func (m Mapping) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, id := range m.IDs() {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteByte('"')
		buf.WriteString(strconv.Itoa(id))
		buf.WriteString(`":`)
		buf.WriteString(strconv.Itoa(m[id]))
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON accepts only an object of canonical positive integer ids to
// quantities in 1..MaxQuantity. Anything else is ErrMalformed and leaves m untouched.
func (m *Mapping) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if raw == nil {
		return fmt.Errorf("%w: not an object", ErrMalformed)
	}

	out := make(Mapping, len(raw))
	for k, v := range raw {
		id, err := strconv.Atoi(k)
		if err != nil || id <= 0 || strconv.Itoa(id) != k {
			return fmt.Errorf("%w: key %q is not a product id", ErrMalformed, k)
		}
		q, err := strconv.Atoi(string(bytes.TrimSpace(v)))
		if err != nil || q <= 0 || q > MaxQuantity {
			return fmt.Errorf("%w: quantity %s for %d", ErrMalformed, v, id)
		}
		out[id] = q
	}
	*m = out
	return nil
}

// EncodeValue renders the mapping as a cookie value the way js-cookie writes it:
// encodeURIComponent, then the characters cookies allow are restored.
func EncodeValue(m Mapping) string {
	data, _ := m.valid().MarshalJSON()

	var b strings.Builder
	for _, c := range data {
		if cookieSafe(c) {
			b.WriteByte(c)
			continue
		}
		fmt.Fprintf(&b, "%%%02X", c)
	}
	return b.String()
}

// DecodeValue reverses EncodeValue. It also reads values written by any
// encoder that percent-encodes more than needed.
func DecodeValue(v string) (Mapping, error) {
	if len(v) >= 2 && v[0] == '"' && v[len(v)-1] == '"' {
		v = v[1 : len(v)-1]
	}
	s, err := url.PathUnescape(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	var m Mapping
	if err := json.Unmarshal([]byte(s), &m); err != nil {
		if errors.Is(err, ErrMalformed) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return m, nil
}

func cookieSafe(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	// unreserved by encodeURIComponent, then the set js-cookie decodes back
	return strings.IndexByte("-_.!~*'()"+"#$&+/:<=>?@[]^`{|}", c) >= 0
}
