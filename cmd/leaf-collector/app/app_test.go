package app

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autopeer-io/leaf/cmd/leaf-collector/app/options"
	"github.com/autopeer-io/leaf/internal/collector"
	v1 "github.com/autopeer-io/leaf/pkg/apis/leaf/v1"
	"github.com/autopeer-io/leaf/pkg/app"
	pkgoptions "github.com/autopeer-io/leaf/pkg/options"
)

func seed(t *testing.T, path string, readings ...v1.Reading) {
	t.Helper()
	sq := pkgoptions.NewSQLiteOptions()
	sq.Path = path
	svc, db, err := (&collector.Config{SQLiteOptions: sq}).OpenService(context.Background())
	require.NoError(t, err)
	defer db.Close()
	for _, r := range readings {
		_, err := svc.Submit(context.Background(), r)
		require.NoError(t, err)
	}
}

func runListCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	opts := options.NewListOptions()
	opts.Out = &out
	a := app.NewApp("list", "", app.WithOptions(opts), app.WithRunFunc(runList(opts)))
	a.Command().SetArgs(args)
	err := a.Command().Execute()
	return out.String(), err
}

func TestListPrintsTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plants.db")
	seed(t, path,
		v1.Reading{PlantName: "fern", Value: 1700},
		v1.Reading{PlantName: "ivy", Value: 1500},
		v1.Reading{PlantName: "fern", Value: 1650.5},
	)

	out, err := runListCommand(t, "--plant", "fern", "--sqlite.path", path)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "PLANT")
	assert.Contains(t, lines[1], "1650.5")
	assert.Contains(t, lines[2], "1700")
	assert.NotContains(t, out, "ivy")
}

func TestListUnknownPlant(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plants.db")
	seed(t, path)

	out, err := runListCommand(t, "--plant", "cactus", "--sqlite.path", path)
	require.NoError(t, err)
	assert.Contains(t, out, `No readings for plant "cactus"`)
}

func TestListRequiresPlant(t *testing.T) {
	_, err := runListCommand(t, "--sqlite.path", filepath.Join(t.TempDir(), "x.db"))
	assert.ErrorContains(t, err, "--plant is required")
}

func TestRootHasSubcommands(t *testing.T) {
	names := []string{}
	for _, c := range NewApp().Command().Commands() {
		names = append(names, c.Name())
	}
	assert.ElementsMatch(t, []string{"serve", "list", "export"}, names)
}
