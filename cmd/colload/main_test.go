package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/squareup/colload/common"
	"github.com/squareup/colload/errors"
	"github.com/squareup/colload/store"
	"github.com/stretchr/testify/require"
)

func runCommand(t *testing.T, dataDir string, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	require.NoError(t, run(append([]string{"--data-dir", dataDir, "--no-sync"}, args...), &out))
	return out.String()
}

func writeFile(t *testing.T, dir string, name string, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestExecLoadScan(t *testing.T) {
	dir := t.TempDir()
	dataDir := filepath.Join(dir, "data")
	runCommand(t, dataDir, "exec",
		"CREATE TABLE sales.orders (id BIGINT NOT NULL, name VARCHAR, amount DECIMAL(10,2), tags VARCHAR[], "+
			"addr STRUCT(street VARCHAR, zip INTEGER), val UNION(num INTEGER, str VARCHAR), props MAP(VARCHAR, INTEGER))")

	rows := writeFile(t, dir, "rows.json", `
// positional rows
[1, "foo", 12.5, ["a", "b"], {"street": "main", "zip": 123}, {"num": 7}, {"y": 2, "x": 1}]
[2, null, "3.25", [], {"street": "side"}, {"str": "s"}, {}]
/* rows keyed by column name */
{"id": 3, "name": "baz"}
`)
	out := runCommand(t, dataDir, "--chunk-capacity", "2", "load", "sales.orders", rows)
	require.Equal(t, "loaded 3 rows\n", out)

	out = runCommand(t, dataDir, "scan", "sales.orders")
	require.Equal(t, strings.Join([]string{
		"id|name|amount|tags|addr|val|props",
		"1|foo|12.5|[a, b]|{street: main, zip: 123}|num:7|{x=1, y=2}",
		"2|NULL|3.25|[]|{street: side, zip: NULL}|str:s|{}",
		"3|baz|NULL|NULL|NULL|NULL|NULL",
	}, "\n")+"\n", out)

	out = runCommand(t, dataDir, "scan", "--limit", "1", "--repr", "sales.orders")
	require.Equal(t, 1, strings.Count(out, "\n"))

	out = runCommand(t, dataDir, "tables")
	require.Equal(t, "sales.orders(id BIGINT, name VARCHAR, amount DECIMAL(10,2), tags VARCHAR[], "+
		"addr STRUCT(street VARCHAR, zip INTEGER), val UNION(num INTEGER, str VARCHAR), props MAP(VARCHAR, INTEGER))\n", out)
}

func TestLoadFailureLoadsNothingAfterBadRow(t *testing.T) {
	dir := t.TempDir()
	dataDir := filepath.Join(dir, "data")
	runCommand(t, dataDir, "exec", "CREATE TABLE t1 (a INTEGER NOT NULL, b VARCHAR)")
	rows := writeFile(t, dir, "rows.json", `[1, "x"] [null, "y"]`)

	var out bytes.Buffer
	err := run([]string{"--data-dir", dataDir, "load", "t1", rows}, &out)
	require.True(t, errors.HasCode(err, errors.SinkError))
	require.Equal(t, "a|b\n", runCommand(t, dataDir, "scan", "t1"))

	rows = writeFile(t, dir, "bad.json", `[1, "x", 3]`)
	err = run([]string{"--data-dir", dataDir, "load", "t1", rows}, &out)
	require.Error(t, err)

	rows = writeFile(t, dir, "both.json", `[null, "y"] [1, "x", 3]`)
	err = run([]string{"--data-dir", dataDir, "load", "t1", rows}, &out)
	require.Error(t, err)
	require.Contains(t, err.Error(), "row 2")
	require.Contains(t, err.Error(), "the 1 rows before it were not stored")
	require.Equal(t, "a|b\n", runCommand(t, dataDir, "scan", "t1"))
}

func TestExport(t *testing.T) {
	dir := t.TempDir()
	dataDir := filepath.Join(dir, "data")
	runCommand(t, dataDir, "exec", "CREATE TABLE t1 (a INTEGER, b VARCHAR)")
	rows := writeFile(t, dir, "rows.json", `[1, "x"] [2, "y"] [3, null]`)
	runCommand(t, dataDir, "load", "t1", rows)

	arrowFile := filepath.Join(dir, "t1.arrow")
	out := runCommand(t, dataDir, "export", "t1", arrowFile)
	require.Equal(t, "exported 3 rows to "+arrowFile+"\n", out)

	f, err := os.Open(arrowFile)
	require.NoError(t, err)
	defer func() {
		require.NoError(t, f.Close())
	}()
	rdr, err := ipc.NewReader(f)
	require.NoError(t, err)
	defer rdr.Release()
	require.True(t, rdr.Next())
	require.Equal(t, int64(3), rdr.Record().NumRows())
}

func TestConfigFile(t *testing.T) {
	dir := t.TempDir()
	dataDir := filepath.Join(dir, "data")
	cfgFile := writeFile(t, dir, "colload.hcl", `
data-dir = "`+dataDir+`"
chunk-capacity = 0
`)
	var out bytes.Buffer
	err := run([]string{"--config", cfgFile, "tables"}, &out)
	require.True(t, errors.HasCode(err, errors.InvalidConfiguration))

	cfgFile = writeFile(t, dir, "colload.hcl", `
data-dir = "`+dataDir+`"
`)
	require.NoError(t, run([]string{"--config", cfgFile, "exec", "CREATE TABLE t1 (a INTEGER)"}, &out))
	require.Equal(t, "main.t1(a INTEGER)\n", runCommand(t, dataDir, "tables"))
}

func TestShellStatements(t *testing.T) {
	dir := t.TempDir()
	var out bytes.Buffer
	var err error
	e := &env{out: &out}
	e.store, err = store.OpenWithFS(filepath.Join(dir, "data"), nil, false)
	require.NoError(t, err)
	defer func() {
		require.NoError(t, e.store.Close())
	}()

	require.NoError(t, executeStatement(e, "CREATE TABLE t1 (a INTEGER);"))
	require.NoError(t, executeStatement(e, "scan t1 limit 5;"))
	require.Equal(t, "a\n", out.String())
	err = executeStatement(e, "SCAN t1 LIMIT x;")
	require.True(t, errors.HasCode(err, errors.InvalidStatement))
	err = executeStatement(e, "SCAN;")
	require.True(t, errors.HasCode(err, errors.InvalidStatement))
	err = executeStatement(e, "SCAN missing;")
	require.True(t, errors.HasCode(err, errors.SchemaError))
}

func TestUserError(t *testing.T) {
	cerr := errors.NewUnknownTableError("main", "t1")
	require.Equal(t, cerr, userError(cerr))
	err := userError(errors.New("disk on fire"))
	require.True(t, errors.HasCode(err, errors.InternalError))
	require.NotContains(t, err.Error(), "disk on fire")
}

func TestFormatValue(t *testing.T) {
	require.Equal(t, "NULL", formatValue(nil))
	require.Equal(t, "\\x0102", formatValue([]byte{1, 2}))
	require.Equal(t, "[1, NULL]", formatValue([]interface{}{1, nil}))
	require.Equal(t, "{a: x}", formatValue(common.Struct{{Name: "a", Value: "x"}}))
	require.Equal(t, "n:1", formatValue(common.Union{Tag: "n", Value: 1}))
}
