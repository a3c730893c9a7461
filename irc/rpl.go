package irc

import (
	_ "embed"
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// IRC replies the default handlers care about.
const (
	rplWelcome = 1 // <nick> :Welcome message

	errErroneusnickname = 432 // <nick> :Erroneous nickname
	errNicknameinuse    = 433 // <nick> :Nickname in use
	errNickcollision    = 436 // <nick> :Nickname collision KILL
	errUnavailresource  = 437 // <nick/channel> :Nick/channel is temporarily unavailable
)

//go:embed numerics.yaml
var numericsYAML []byte

// numericTable is the bidirectional code/name lookup. It is built once when
// the package is initialized and only read afterwards.
type numericTable struct {
	names map[int]string
	codes map[string]int
}

var numerics = mustLoadNumerics(numericsYAML)

func loadNumerics(buf []byte) (*numericTable, error) {
	var names map[int]string
	if err := yaml.Unmarshal(buf, &names); err != nil {
		return nil, fmt.Errorf("failed to parse numeric table: %w", err)
	}

	t := &numericTable{
		names: make(map[int]string, len(names)),
		codes: make(map[string]int, len(names)),
	}
	for code, name := range names {
		name = strings.ToLower(name)
		if other, ok := t.codes[name]; ok {
			return nil, fmt.Errorf("numeric name %q used by both %d and %d", name, other, code)
		}
		t.names[code] = name
		t.codes[name] = code
	}
	return t, nil
}

func mustLoadNumerics(buf []byte) *numericTable {
	t, err := loadNumerics(buf)
	if err != nil {
		panic(err)
	}
	return t
}

// NumericName returns the symbolic name of a numeric reply code, e.g.
// "welcome" for 1.
func NumericName(code int) (name string, ok bool) {
	name, ok = numerics.names[code]
	return
}

// NumericCode returns the code of a symbolic numeric name, e.g. 433 for
// "nicknameinuse".
func NumericCode(name string) (code int, ok bool) {
	code, ok = numerics.codes[strings.ToLower(name)]
	return
}

// numericHandlerName is the registry key of the handler chain for a numeric.
func numericHandlerName(code int) string {
	return "incoming_numeric_" + strconv.Itoa(code)
}
