package types

import (
	"encoding/json"
	"fmt"
	"strings"
)

type Type int

const (
	SMALLINT Type = iota
	INTEGER
	BIGINT
	DECIMAL
	NUMERIC
	REAL
	DOUBLE
	MONEY
	CHAR
	VARCHAR
	TEXT
	TIMESTAMP
	DATE
	TIME
	INTERVAL
	BOOLEAN
	ENUM
)

var names = [...]string{
	"SMALLINT", "INTEGER", "BIGINT", "DECIMAL", "NUMERIC", "REAL", "DOUBLE", "MONEY",
	"CHAR", "VARCHAR", "TEXT", "TIMESTAMP", "DATE", "TIME", "INTERVAL", "BOOLEAN", "ENUM",
}

var aliases = map[string]Type{
	"INT":       INTEGER,
	"INT2":      SMALLINT,
	"INT4":      INTEGER,
	"INT8":      BIGINT,
	"FLOAT":     DOUBLE,
	"FLOAT8":    DOUBLE,
	"CHARACTER": CHAR,
	"BOOL":      BOOLEAN,
}

func (t Type) String() string {
	if t < SMALLINT || t > ENUM {
		return fmt.Sprintf("Type(%d)", t)
	}
	return names[t]
}

func (t Type) GoString() string {
	return "types." + t.String()
}

// HasLength reports whether the type accepts a length/precision parameter.
func (t Type) HasLength() bool {
	switch t {
	case CHAR, VARCHAR, DECIMAL, NUMERIC:
		return true
	default:
		return false
	}
}

// New resolves a built-in type name. User-defined enum names are not known
// here and yield an error; ENUM itself only round-trips through JSON.
func New(t string) (Type, error) {
	name := strings.ToUpper(t)
	if alias, ok := aliases[name]; ok {
		return alias, nil
	}
	for i, n := range names {
		if n == name {
			return Type(i), nil
		}
	}
	return -1, fmt.Errorf("invalid type: %s", t)
}

func (t Type) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *Type) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := New(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
