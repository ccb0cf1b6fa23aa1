package stdlib

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/sambeau/vaso/pkg/vaso/value"
)

var jsonFunctions = map[string]builtin{
	"parse": jsonParse,
	"get":   jsonGet,
}

var yamlFunctions = map[string]builtin{
	"get":    yamlGet,
	"toJson": yamlToJSON,
}

func decodeJSON(text string) (any, error) {
	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// jsonParse validates text and returns it in compact canonical form.
func jsonParse(l *Library, args []value.Value) value.Value {
	text, ok := strArg(args, 0)
	if !ok {
		return argError("Json.parse", "(Str)")
	}

	var buf bytes.Buffer
	if err := json.Compact(&buf, []byte(text)); err != nil {
		return value.NewError("JSON Error: " + err.Error())
	}
	return value.Str{Value: buf.String()}
}

// jsonGet reads a field from a JSON document. Dotted keys walk nested
// objects: Json.get(doc, "server.port").
func jsonGet(l *Library, args []value.Value) value.Value {
	text, tok := strArg(args, 0)
	key, kok := strArg(args, 1)
	if !tok || !kok {
		return argError("Json.get", "(Str json, Str key)")
	}

	doc, err := decodeJSON(text)
	if err != nil {
		return value.NewError("JSON Error: " + err.Error())
	}
	field, found := lookupPath(doc, key)
	if !found {
		return value.NewStatus(value.Unknown, "Field '"+key+"' not found")
	}
	return fromData(field)
}

func yamlGet(l *Library, args []value.Value) value.Value {
	text, tok := strArg(args, 0)
	key, kok := strArg(args, 1)
	if !tok || !kok {
		return argError("Yaml.get", "(Str yaml, Str key)")
	}

	var doc any
	if err := yaml.Unmarshal([]byte(text), &doc); err != nil {
		return value.NewError("YAML Error: " + err.Error())
	}
	field, found := lookupPath(doc, key)
	if !found {
		return value.NewStatus(value.Unknown, "Field '"+key+"' not found")
	}
	return fromData(field)
}

// yamlToJSON converts a YAML document to canonical JSON text.
func yamlToJSON(l *Library, args []value.Value) value.Value {
	text, ok := strArg(args, 0)
	if !ok {
		return argError("Yaml.toJson", "(Str)")
	}

	var doc any
	if err := yaml.Unmarshal([]byte(text), &doc); err != nil {
		return value.NewError("YAML Error: " + err.Error())
	}
	out, err := json.Marshal(doc)
	if err != nil {
		return value.NewError("JSON Error: " + err.Error())
	}
	return value.Str{Value: string(out)}
}

func lookupPath(doc any, key string) (any, bool) {
	current := doc
	for _, part := range strings.Split(key, ".") {
		obj, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		if current, ok = obj[part]; !ok {
			return nil, false
		}
	}
	return current, true
}

// fromData converts a decoded JSON or YAML node to a value. Whole numbers
// become Int, booleans on/off, null unknown, arrays List; objects and
// numbers an Int cannot hold stay as JSON text.
func fromData(node any) value.Value {
	switch n := node.(type) {
	case nil:
		return value.NewStatus(value.Unknown, "Null")
	case bool:
		return value.FromBool(n)
	case string:
		return value.Str{Value: n}
	case int:
		return value.Int{Value: int64(n)}
	case int64:
		return value.Int{Value: n}
	case uint64:
		if n > math.MaxInt64 {
			return value.Str{Value: strconv.FormatUint(n, 10)}
		}
		return value.Int{Value: int64(n)}
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return value.Int{Value: i}
		}
		return value.Str{Value: n.String()}
	case float64:
		if n >= math.MinInt64 && n < math.MaxInt64 && n == float64(int64(n)) {
			return value.Int{Value: int64(n)}
		}
		return value.Str{Value: strconv.FormatFloat(n, 'f', -1, 64)}
	case []any:
		elements := make([]value.Value, len(n))
		for i, el := range n {
			elements[i] = fromData(el)
		}
		return value.List{Elements: elements}
	}

	out, err := json.Marshal(node)
	if err != nil {
		return value.NewStatus(value.Unknown, "Complex Type")
	}
	return value.Str{Value: string(out)}
}
