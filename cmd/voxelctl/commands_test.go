package main

import (
	"bytes"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/annel0/voxel-editor/internal/api"
	"github.com/annel0/voxel-editor/internal/logging"
	"github.com/annel0/voxel-editor/internal/palette"
	"github.com/annel0/voxel-editor/internal/project"
	"github.com/annel0/voxel-editor/internal/storage"
	"github.com/annel0/voxel-editor/internal/vec"
	"github.com/annel0/voxel-editor/internal/voxelgrid"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	logging.Configure(logging.Options{ConsoleLevel: logging.ERROR, FileLevel: logging.ERROR})
	os.Exit(m.Run())
}

func newServer(t *testing.T) (*httptest.Server, *voxelgrid.Grid) {
	t.Helper()
	g, err := voxelgrid.NewGrid(8, palette.Default(), nil)
	require.NoError(t, err)
	projects, err := storage.NewProjectDir(t.TempDir())
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	svc := api.NewGridService(g, projects, nil, api.NewGridMetrics(reg, g))
	rs := api.NewRestServer(api.Config{Service: svc, Registerer: reg})

	srv := httptest.NewServer(rs.Router())
	t.Cleanup(srv.Close)
	return srv, g
}

func run(t *testing.T, url string, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--server", url}, args...))
	err := root.Execute()
	return out.String(), err
}

func TestSetRemoveAndGrid(t *testing.T) {
	srv, g := newServer(t)

	out, err := run(t, srv.URL, "set", "1", "2", "3", "5")
	require.NoError(t, err)
	assert.Contains(t, out, "= 5")
	v, _ := g.Get(vec.Vec3{X: 1, Y: 2, Z: 3})
	assert.Equal(t, 5, v)

	out, err = run(t, srv.URL, "grid")
	require.NoError(t, err)
	assert.Contains(t, out, "Размер 8, вокселей 1")

	_, err = run(t, srv.URL, "remove", "1", "2", "3")
	require.NoError(t, err)
	assert.Equal(t, 0, g.Count())
}

func TestSet_Rejected(t *testing.T) {
	srv, _ := newServer(t)

	_, err := run(t, srv.URL, "set", "9", "0", "0")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Coordinates out of bounds")

	_, err = run(t, srv.URL, "set", "a", "0", "0")
	assert.Error(t, err)

	_, err = run(t, srv.URL, "resize", "12")
	assert.Error(t, err)
}

func TestResizeAndReset(t *testing.T) {
	srv, g := newServer(t)

	out, err := run(t, srv.URL, "resize", "32")
	require.NoError(t, err)
	assert.Contains(t, out, "Размер сетки: 32")

	_, err = g.Set(vec.Vec3{X: 0, Y: 0, Z: 0}, 1)
	require.NoError(t, err)
	_, err = run(t, srv.URL, "reset")
	require.NoError(t, err)
	assert.Equal(t, 32, g.Size())
	assert.Equal(t, 0, g.Count())
}

func TestSaveLoadProjects(t *testing.T) {
	srv, g := newServer(t)
	_, err := g.Set(vec.Vec3{X: 2, Y: 2, Z: 2}, 3)
	require.NoError(t, err)

	out, err := run(t, srv.URL, "save", "castle")
	require.NoError(t, err)
	assert.Contains(t, out, "castle.json")

	out, err = run(t, srv.URL, "projects")
	require.NoError(t, err)
	assert.Equal(t, "castle.json\n", out)

	require.NoError(t, g.Resize(16))
	out, err = run(t, srv.URL, "load", "castle.json")
	require.NoError(t, err)
	assert.Contains(t, out, "размер 8, вокселей 1")
	assert.Equal(t, 8, g.Size())
}

func TestPullPush(t *testing.T) {
	srv, g := newServer(t)
	_, err := g.Set(vec.Vec3{X: 7, Y: 0, Z: 1}, 4)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "scene.json.gz")
	_, err = run(t, srv.URL, "pull", path)
	require.NoError(t, err)

	doc, err := project.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 8, doc.GridSize)
	assert.Equal(t, 4, doc.Grid[7][0][1])

	require.NoError(t, g.Resize(16))
	out, err := run(t, srv.URL, "push", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Отправлено вокселей: 1")
	assert.Equal(t, 8, g.Size())
	v, _ := g.Get(vec.Vec3{X: 7, Y: 0, Z: 1})
	assert.Equal(t, 4, v)
}

func TestPaletteAndStats(t *testing.T) {
	srv, _ := newServer(t)

	out, err := run(t, srv.URL, "palette")
	require.NoError(t, err)
	assert.Contains(t, out, "1  #00ff83  Зелёный")

	out, err = run(t, srv.URL, "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "Сетка:      8")
}
