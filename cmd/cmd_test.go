package cmd

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ridoystarlord/rowmap/database"
	"github.com/ridoystarlord/rowmap/loader"
	"github.com/ridoystarlord/rowmap/schema"
)

const testSchema = `
tables:
  - name: users
    columns:
      - name: id
        type: INTEGER
        primary: true
        auto_increment: true
      - name: name
        type: VARCHAR
        length: 50
      - name: active
        type: BOOLEAN
        nullable: true
  - name: orders
    columns:
      - name: id
        type: INTEGER
        primary: true
        auto_increment: true
      - name: user_id
        type: INTEGER
        references:
          table: users
          column: id
`

func testTables(t *testing.T) *loader.Schema {
	t.Helper()
	defs, err := loader.ParseYAML([]byte(testSchema))
	require.NoError(t, err)
	s, err := loader.Build(schema.NewRegistry(), defs)
	require.NoError(t, err)
	return s
}

func TestParseCondition(t *testing.T) {
	cases := []struct {
		arg  string
		want condition
	}{
		{"id=3", condition{column: "id", kind: schema.Equal, value: "3"}},
		{"id>=3", condition{column: "id", kind: schema.GreaterThanEqual, value: "3"}},
		{"id <= 3", condition{column: "id", kind: schema.LessThanEqual, value: "3"}},
		{"name!=bob", condition{column: "name", kind: schema.NotEqual, value: "bob"}},
		{"name<>bob", condition{column: "name", kind: schema.NotEqual, value: "bob"}},
		{"total>1.5", condition{column: "total", kind: schema.GreaterThan, value: "1.5"}},
		{"total<2", condition{column: "total", kind: schema.LessThan, value: "2"}},
		{"note=a=b", condition{column: "note", kind: schema.Equal, value: "a=b"}},
		{"name=", condition{column: "name", kind: schema.Equal, value: ""}},
	}
	for _, tc := range cases {
		got, err := parseCondition(tc.arg)
		require.NoError(t, err, tc.arg)
		assert.Equal(t, tc.want, got, tc.arg)
	}

	_, err := parseCondition("id")
	assert.ErrorContains(t, err, "no operator")
	_, err = parseCondition("=3")
	assert.ErrorContains(t, err, "no column")
}

func TestParseAssignmentsRequiresEquals(t *testing.T) {
	got, err := parseAssignments([]string{"id=1", "name=alice"})
	require.NoError(t, err)
	assert.Len(t, got, 2)

	_, err = parseAssignments([]string{"id>1"})
	assert.ErrorContains(t, err, "must use '='")
}

func TestAssignParsesText(t *testing.T) {
	s := testTables(t)
	row := s.Table("users").NewRow()

	values, err := parseAssignments([]string{"id=7", "name=alice", "active=true"})
	require.NoError(t, err)
	require.NoError(t, assign(row, values))

	v, ok := row.Value("id")
	require.True(t, ok)
	assert.Equal(t, int32(7), v)
	v, _ = row.Value("active")
	assert.Equal(t, true, v)

	assert.ErrorContains(t, assign(row, []condition{{column: "nope", value: "1"}}), "no column")
	assert.Error(t, assign(row, []condition{{column: "id", value: "seven"}}))
}

func TestConditionFields(t *testing.T) {
	s := testTables(t)
	users := s.Table("users")

	fields, kinds, err := conditionFields(users, []condition{
		{column: "id", kind: schema.GreaterThan, value: "2"},
		{column: "name", kind: schema.Equal, value: "bob"},
	})
	require.NoError(t, err)
	require.Len(t, fields, 2)
	assert.Equal(t, []schema.Comparison{schema.GreaterThan, schema.Equal}, kinds)
	v, _ := fields[0].Value()
	assert.Equal(t, int32(2), v)

	_, ok := users.Value("id")
	assert.False(t, ok, "prototype must not be modified")

	_, _, err = conditionFields(users, []condition{{column: "ghost", value: "1"}})
	assert.Error(t, err)
}

func TestSplitKeys(t *testing.T) {
	s := testTables(t)
	keys, rest := splitKeys(s.Table("users"), []condition{
		{column: "name", value: "a"},
		{column: "id", value: "1"},
	})
	assert.Equal(t, []condition{{column: "id", value: "1"}}, keys)
	assert.Equal(t, []condition{{column: "name", value: "a"}}, rest)
}

func TestJoinByForeignKey(t *testing.T) {
	s := testTables(t)
	users, orders := s.Table("users"), s.Table("orders")
	var db offline

	q, err := schema.NewQuery(db, orders)
	require.NoError(t, err)
	require.NoError(t, joinByForeignKey(q, orders, users))
	assert.Equal(t, "SELECT * from orders\nJOIN users\nON\n(users.id = orders.user_id)", q.String())

	q, err = schema.NewQuery(db, users)
	require.NoError(t, err)
	require.NoError(t, joinByForeignKey(q, users, orders))
	assert.Equal(t, "SELECT * from users\nJOIN orders\nON\n(orders.user_id = users.id)", q.String())

	q, err = schema.NewQuery(db, users)
	require.NoError(t, err)
	assert.Error(t, joinByForeignKey(q, users, users))
}

func TestPrintRows(t *testing.T) {
	s := testTables(t)
	users := s.Table("users")
	row := users.NewRow()
	require.NoError(t, row.Set("id", int32(1)))
	require.NoError(t, row.Set("name", "alice"))

	var buf bytes.Buffer
	printRows(&buf, users, []*schema.Table{row})
	out := buf.String()
	assert.Contains(t, out, "ID")
	assert.Contains(t, out, "alice")
	assert.Contains(t, out, "NULL")
	assert.Contains(t, out, "1 row(s)")

	buf.Reset()
	printRows(&buf, users, nil)
	assert.Contains(t, buf.String(), "No rows")
}

// offline satisfies schema.Driver for queries that are only rendered.
type offline struct{}

func (offline) Name() string { return "offline" }

func (offline) Acquire(context.Context) (schema.Conn, error) {
	return nil, errors.New("offline")
}

func run(t *testing.T, args ...string) error {
	t.Helper()
	rootCmd.SetArgs(args)
	return rootCmd.Execute()
}

func TestCommandsAgainstSQLite(t *testing.T) {
	dir := t.TempDir()
	schemaFile := filepath.Join(dir, "schema.yaml")
	require.NoError(t, os.WriteFile(schemaFile, []byte(testSchema), 0o644))
	dbFile := filepath.Join(dir, "cli.db")
	flags := []string{"--schema", schemaFile, "--url", dbFile}

	require.NoError(t, run(t, append([]string{"sql"}, flags...)...))
	require.NoError(t, run(t, append([]string{"validate"}, flags...)...))
	require.NoError(t, run(t, append([]string{"create"}, flags...)...))
	require.NoError(t, run(t, append([]string{"exists", "users"}, flags...)...))
	require.NoError(t, run(t, append([]string{"insert", "users", "name=alice"}, flags...)...))
	require.NoError(t, run(t, append([]string{"insert", "users", "name=bob", "active=false"}, flags...)...))
	require.NoError(t, run(t, append([]string{"update", "users", "id=1", "name=carol"}, flags...)...))
	require.NoError(t, run(t, append([]string{"delete", "users", "id=2"}, flags...)...))
	require.NoError(t, run(t, append([]string{"health"}, flags...)...))
	require.NoError(t, run(t, append([]string{"status"}, flags...)...))
	require.NoError(t, run(t, append([]string{"query", "users", "--where", "id>=1"}, flags...)...))

	assert.Error(t, run(t, append([]string{"update", "users", "id=9", "name=x"}, flags...)...))
	assert.Error(t, run(t, append([]string{"insert", "ghosts", "name=x"}, flags...)...))

	ctx := context.Background()
	db, err := database.OpenSQLite(ctx, dbFile, nil)
	require.NoError(t, err)
	defer db.Close()

	s := testTables(t)
	q, err := s.Table("users").Query(ctx, db)
	require.NoError(t, err)
	rows, err := q.All(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	name, _ := rows[0].Value("name")
	assert.Equal(t, "carol", name)

	require.NoError(t, run(t, append([]string{"drop"}, flags...)...))
	ok, err := s.Table("users").Exists(ctx, db)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestInitStartersAgree(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, writeStarterYAML(dir))
	require.NoError(t, writeStarterModels(dir))
	assert.Error(t, writeStarterYAML(dir), "existing schema.yaml is kept")

	created, err := writeEnvFile(dir)
	require.NoError(t, err)
	assert.True(t, created)
	created, err = writeEnvFile(dir)
	require.NoError(t, err)
	assert.False(t, created)

	fromYAML, err := loader.Load(filepath.Join(dir, "schema.yaml"))
	require.NoError(t, err)
	fromTags, err := loader.Load(filepath.Join(dir, "models"))
	require.NoError(t, err)

	byName := func(defs []loader.TableDef) map[string]loader.TableDef {
		m := make(map[string]loader.TableDef)
		for _, d := range defs {
			m[d.Name] = d
		}
		return m
	}
	assert.Equal(t, byName(fromYAML), byName(fromTags))

	_, err = loader.Build(schema.NewRegistry(), fromTags)
	require.NoError(t, err)
}

func TestDocsContent(t *testing.T) {
	tables := testTables(t).Tables()

	mermaid := generateMermaidContent(tables)
	assert.Contains(t, mermaid, "erDiagram")
	assert.Contains(t, mermaid, "INTEGER id PK")
	assert.Contains(t, mermaid, "users ||--o{ orders : user_id")

	uml := generatePlantUMLContent(tables)
	assert.Contains(t, uml, "* id : INTEGER <<PK, NN>>")
	assert.Contains(t, uml, "\"users\" ||--o{ \"orders\" : user_id")

	md := generateMarkdownContent(tables)
	assert.Contains(t, md, "| user_id | INTEGER |  | FK NN | users.id |")
	assert.Contains(t, md, "| id | INTEGER |  | PK NN AI |  |")
	assert.Contains(t, md, tables[0].CreateSQL())
}
