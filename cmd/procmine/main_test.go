package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/logflow/procmine/pkg/errors"
	"github.com/logflow/procmine/pkg/results"
)

// workspace writes a CSV log and a config that keeps results under dir.
func workspace(t *testing.T) (dir, logPath, cfgPath string) {
	t.Helper()
	dir = t.TempDir()

	var sb strings.Builder
	sb.WriteString("case,activity\n")
	for c := 0; c < 10; c++ {
		for _, a := range []string{"register", "check", "ship"} {
			fmt.Fprintf(&sb, "c%d,%s\n", c, a)
		}
	}
	logPath = filepath.Join(dir, "orders.csv")
	require.NoError(t, os.WriteFile(logPath, []byte(sb.String()), 0o644))

	cfgPath = filepath.Join(dir, "procmine.yaml")
	cfg := fmt.Sprintf(`
telemetry:
  log_level: error
input:
  case_column: case
  activity_column: activity
storage:
  results:
    backend: local
    dir: %s
`, filepath.Join(dir, "results"))
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0o644))
	return dir, logPath, cfgPath
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd, a := newRootCmd()
	defer a.shutdown.Shutdown(context.Background())
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestDiscover_SaveAndShow(t *testing.T) {
	_, logPath, cfgPath := workspace(t)

	out, err := execute(t, "--config", cfgPath, "discover", logPath, "--json", "--save", "-t", "0,0.2")
	require.NoError(t, err)

	var rec results.Record
	require.NoError(t, json.Unmarshal([]byte(out), &rec))
	require.NotNil(t, rec.Tree)
	assert.Equal(t, "->(register, check, ship)", rec.Tree.String())
	assert.Equal(t, results.StatusComplete, rec.Status)
	assert.Equal(t, []float64{0, 0.2}, rec.Thresholds)
	assert.Equal(t, 10, rec.Traces)
	assert.Equal(t, 30, rec.Events)

	out, err = execute(t, "--config", cfgPath, "results", "list", "--json")
	require.NoError(t, err)
	var list []*results.Record
	require.NoError(t, json.Unmarshal([]byte(out), &list))
	require.Len(t, list, 1)
	assert.Equal(t, rec.ID, list[0].ID)

	out, err = execute(t, "--config", cfgPath, "results", "show", rec.ID)
	require.NoError(t, err)
	assert.Contains(t, out, "->(register, check, ship)")

	_, err = execute(t, "--config", cfgPath, "results", "delete", rec.ID)
	require.NoError(t, err)
	_, err = execute(t, "--config", cfgPath, "results", "show", rec.ID)
	assert.ErrorIs(t, err, results.ErrNotFound)
}

func TestDiscover_RenameAndOutput(t *testing.T) {
	dir, logPath, cfgPath := workspace(t)
	treePath := filepath.Join(dir, "tree.json")

	out, err := execute(t, "--config", cfgPath, "discover", logPath, "-q",
		"--rename", "register=Register order", "-o", treePath)
	require.NoError(t, err)
	assert.Contains(t, out, "DISCOVERY COMPLETE")
	assert.Contains(t, out, "->(Register order, check, ship)")

	data, err := os.ReadFile(treePath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Register order")
}

func TestDiscover_Errors(t *testing.T) {
	_, logPath, cfgPath := workspace(t)

	tests := []struct {
		name string
		args []string
		code errors.Code
	}{
		{name: "threshold out of range", args: []string{"discover", logPath, "-t", "1.5"}, code: errors.CodeInvalidThreshold},
		{name: "unknown policy", args: []string{"discover", logPath, "--policy", "median"}, code: errors.CodeUnknownStrategy},
		{name: "no input", args: []string{"discover"}, code: errors.CodeInvalidConfig},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, append([]string{"--config", cfgPath}, tt.args...)...)
			require.Error(t, err)
			assert.True(t, errors.IsCode(err, tt.code), "got %v", err)
		})
	}
}

func TestStats_JSON(t *testing.T) {
	_, logPath, cfgPath := workspace(t)

	out, err := execute(t, "--config", cfgPath, "stats", logPath, "--json")
	require.NoError(t, err)

	var v statsView
	require.NoError(t, json.Unmarshal([]byte(out), &v))
	assert.Equal(t, 10, v.Traces)
	assert.Equal(t, map[string]int{"register": 10}, v.Starts)
	assert.Len(t, v.Edges, 2)
}

func TestStrategiesAndConfig(t *testing.T) {
	_, _, cfgPath := workspace(t)

	out, err := execute(t, "--config", cfgPath, "strategies")
	require.NoError(t, err)
	assert.Contains(t, out, "interleaved")

	out, err = execute(t, "--config", cfgPath, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "case_column: case")
}

func TestDiscover_Sample(t *testing.T) {
	_, logPath, cfgPath := workspace(t)

	out, err := execute(t, "--config", cfgPath, "discover", logPath, "--json", "--sample", "4", "--seed", "9")
	require.NoError(t, err)
	var rec results.Record
	require.NoError(t, json.Unmarshal([]byte(out), &rec))
	assert.Equal(t, 4, rec.Traces)
	assert.Equal(t, "->(register, check, ship)", rec.Tree.String())

	out, err = execute(t, "--config", cfgPath, "stats", logPath, "--json", "--max-per-variant", "1")
	require.NoError(t, err)
	var v statsView
	require.NoError(t, json.Unmarshal([]byte(out), &v))
	assert.Equal(t, 1, v.Traces)
}
