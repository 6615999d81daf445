package database

import (
	"strconv"
	"strings"
)

// dialect adapts the generated SQL to what an engine can parse. The text
// produced by package schema is written for engines that take ? placeholders
// and AUTO_INCREMENT; the other engines translate here, at the driver edge.
type dialect struct {
	name string
	// numbered rebinds ? as $1, $2, ...
	numbered bool
	// ddlWords replaces whole upper-case words inside CREATE TABLE text.
	ddlWords map[string]string
	// dropCascade is false when DROP TABLE does not accept CASCADE.
	dropCascade bool
}

var (
	mysqlDialect = dialect{
		name: "mysql",
		ddlWords: map[string]string{
			"TIME_WITH_TIMEZONE":      "TIME",
			"TIMESTAMP_WITH_TIMEZONE": "TIMESTAMP",
			"CLOB":                    "LONGTEXT",
			"NCLOB":                   "LONGTEXT",
			"LONGVARCHAR":             "LONGTEXT",
			"LONGNVARCHAR":            "LONGTEXT",
			"UUID":                    "CHAR(36)",
		},
		dropCascade: true,
	}

	postgresDialect = dialect{
		name:     "postgres",
		numbered: true,
		ddlWords: map[string]string{
			"AUTO_INCREMENT": "GENERATED BY DEFAULT AS IDENTITY",
			"DOUBLE":         "DOUBLE PRECISION",
			"TINYINT":        "SMALLINT",
			"BLOB":           "BYTEA",
			"BIT":            "BOOLEAN",
			"NVARCHAR":       "VARCHAR",
			"CLOB":           "TEXT",
			"NCLOB":          "TEXT",
			"LONGVARCHAR":    "TEXT",
			"LONGNVARCHAR":   "TEXT",

			"TIME_WITH_TIMEZONE":      "TIMETZ",
			"TIMESTAMP_WITH_TIMEZONE": "TIMESTAMPTZ",
		},
		dropCascade: true,
	}

	sqliteDialect = dialect{
		name:     "sqlite",
		ddlWords: map[string]string{"AUTO_INCREMENT": ""},
	}
)

func (d dialect) translate(sql string) string {
	if !d.dropCascade && strings.HasPrefix(sql, "DROP TABLE") {
		sql = strings.TrimSuffix(sql, "\nCASCADE")
	}
	ddl := len(d.ddlWords) > 0 && strings.HasPrefix(sql, "CREATE TABLE")
	if !d.numbered && !ddl {
		return sql
	}

	var b strings.Builder
	b.Grow(len(sql) + 16)
	n := 0
	var quote byte
	for i := 0; i < len(sql); i++ {
		ch := sql[i]
		switch {
		case quote != 0:
			b.WriteByte(ch)
			if ch == quote {
				quote = 0
			}
		case ch == '\'' || ch == '"' || ch == '`':
			quote = ch
			b.WriteByte(ch)
		case ch == '?' && d.numbered:
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
		case ddl && isWordByte(ch) && (i == 0 || !isWordByte(sql[i-1])):
			j := i
			for j < len(sql) && isWordByte(sql[j]) {
				j++
			}
			word := sql[i:j]
			if repl, ok := d.ddlWords[word]; ok {
				if repl == "" {
					// drop the word together with the space before it
					s := strings.TrimSuffix(b.String(), " ")
					b.Reset()
					b.WriteString(s)
				} else {
					b.WriteString(repl)
				}
			} else {
				b.WriteString(word)
			}
			i = j - 1
		default:
			b.WriteByte(ch)
		}
	}
	return b.String()
}

func isWordByte(ch byte) bool {
	return ch == '_' || ch >= 'A' && ch <= 'Z' || ch >= 'a' && ch <= 'z' || ch >= '0' && ch <= '9'
}
