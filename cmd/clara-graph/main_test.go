package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clara-graph/proto"
)

const ordersRules = `rules:
  - name: org.example.rules/ship
    lhs:
      - fact: org.example.Order
        binding: "?order"
    rhs: [clara.rules/insert!, [org.example/->Shipped, "?order"]]
  - name: org.example.rules/audit
    lhs: {fact: org.example.Order}
  - name: org.example.rules/notify
    lhs: {fact: org.example.Shipped}
    rhs: [insert!, [org.example/->Notice]]
  - name: org.example.rules/unrelated
    lhs: {fact: org.example.Weather}
`

func setup(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "orders.yaml"), []byte(ordersRules), 0644))
	return dir
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func decode(t *testing.T, out string) proto.GraphPayload {
	t.Helper()
	var p proto.GraphPayload
	require.NoError(t, json.Unmarshal([]byte(out), &p))
	return p
}

func ids(p proto.GraphPayload) []string {
	var out []string
	for _, n := range p.Nodes {
		out = append(out, n.ID)
	}
	return out
}

func TestBuildCommand(t *testing.T) {
	dir := setup(t)

	out, err := run(t, "build", "--rules", dir)
	require.NoError(t, err)
	p := decode(t, out)

	assert.Equal(t, 4, p.Stats.NodesByKind["fact"])
	assert.Equal(t, 4, p.Stats.NodesByKind["fact-condition"])
	assert.Equal(t, 4, p.Stats.NodesByKind["production"])
	assert.Contains(t, ids(p), "FT-org.example.Order")
	assert.Contains(t, ids(p), "FT-org.example.Notice")

	for _, n := range p.Nodes {
		if n.ID == "FT-org.example.Order" {
			assert.Len(t, n.Bodies, 2, "accumulated by default")
		}
	}

	out, err = run(t, "build", "--rules", dir, "--dedup")
	require.NoError(t, err)
	for _, n := range decode(t, out).Nodes {
		assert.LessOrEqual(t, len(n.Bodies), 1, n.ID)
	}
}

func TestFilterCommand(t *testing.T) {
	dir := setup(t)

	out, err := run(t, "filter", "--rules", dir, "--fact", "Shipped", "--dedup")
	require.NoError(t, err)
	got := ids(decode(t, out))

	assert.Contains(t, got, "FT-org.example.Order")
	assert.Contains(t, got, "FT-org.example.Shipped")
	assert.Contains(t, got, "FT-org.example.Notice")
	assert.NotContains(t, got, "FT-org.example.Weather")

	out, err = run(t, "filter", "--rules", dir, "--fact", "Invoice")
	require.NoError(t, err)
	assert.Empty(t, decode(t, out).Nodes)

	_, err = run(t, "filter", "--rules", dir, "--fact", "(", "--mode", "regexp")
	assert.Error(t, err)

	_, err = run(t, "filter", "--rules", dir)
	assert.Error(t, err, "--fact is required")
}

func TestFilterByGroup(t *testing.T) {
	dir := setup(t)
	cfg := filepath.Join(dir, "clara-graph.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte(`
rules: [`+filepath.Join(dir, "orders.yaml")+`]
merge_policy: dedup
groups:
  - name: weather
    patterns: ["org.example.Weather"]
`), 0644))

	out, err := run(t, "filter", "--config", cfg, "--fact", "weather", "--mode", "group")
	require.NoError(t, err)
	got := ids(decode(t, out))
	assert.Contains(t, got, "FT-org.example.Weather")
	assert.Len(t, got, 3)
}

func TestGroupsFile(t *testing.T) {
	dir := setup(t)
	groups := filepath.Join(dir, "groups.yaml")
	require.NoError(t, os.WriteFile(groups, []byte(`groups:
  - name: orders
    patterns: ["org.example.Order", "org.example.Shipped"]
  - name: outbound
    patterns: ["org.example.Shipped", "org.example.Notice"]
`), 0644))

	out, err := run(t, "facts", "--rules", dir, "--groups", groups, "--mode", "group", "--fact", "outbound", "--show-groups")
	require.NoError(t, err)
	assert.Equal(t, "FT-org.example.Notice\toutbound\nFT-org.example.Shipped\torders,outbound\n", out)

	out, err = run(t, "facts", "--rules", dir, "--groups", groups, "--fact", "Weather", "--show-groups")
	require.NoError(t, err)
	assert.Equal(t, "FT-org.example.Weather\t\n", out)

	out, err = run(t, "filter", "--rules", dir, "--groups", groups, "--mode", "group", "--fact", "orders", "--dedup")
	require.NoError(t, err)
	assert.Contains(t, ids(decode(t, out)), "FT-org.example.Notice")

	_, err = run(t, "filter", "--rules", dir, "--groups", filepath.Join(dir, "absent.yaml"), "--fact", "x")
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestTraverseCommands(t *testing.T) {
	dir := setup(t)

	out, err := run(t, "descendants", "--rules", dir, "FT-org.example.Shipped")
	require.NoError(t, err)
	got := ids(decode(t, out))
	assert.Contains(t, got, "FT-org.example.Notice")
	assert.NotContains(t, got, "FT-org.example.Order")

	out, err = run(t, "ancestors", "--rules", dir, "FT-org.example.Shipped")
	require.NoError(t, err)
	got = ids(decode(t, out))
	assert.Contains(t, got, "FT-org.example.Order")
	assert.NotContains(t, got, "FT-org.example.Notice")

	out, err = run(t, "descendants", "--rules", dir, "missing")
	require.NoError(t, err)
	assert.Equal(t, []string{"missing"}, ids(decode(t, out)))

	_, err = run(t, "descendants", "--rules", dir, "--strict", "missing")
	assert.Error(t, err)
}

func TestFactsCommand(t *testing.T) {
	dir := setup(t)

	out, err := run(t, "facts", "--rules", dir, "--mode", "glob", "--fact", "org.example.*")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Equal(t, []string{
		"FT-org.example.Notice",
		"FT-org.example.Order",
		"FT-org.example.Shipped",
		"FT-org.example.Weather",
	}, lines)
}

func TestErrors(t *testing.T) {
	t.Chdir(t.TempDir())

	_, err := run(t, "build")
	assert.ErrorContains(t, err, "no rule sources")

	_, err = run(t, "build", "--rules", "nowhere")
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("rules:\n  - name: r\n    lhs: {fcat: X}\n"), 0644))
	_, err = run(t, "build", "--rules", bad)
	assert.Error(t, err)
}
