package main

import (
	"io/fs"
	"regexp"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wdpkr/zillowdata/internal/views"
)

func TestEmbeddedFrontend(t *testing.T) {
	frontend, err := fs.Sub(frontendFiles, "frontend")
	require.NoError(t, err)

	for _, name := range []string{"index.html", "static/app.js", "static/app.css"} {
		data, err := fs.ReadFile(frontend, name)
		require.NoError(t, err, name)
		assert.NotEmpty(t, data, name)
	}
}

func TestSliderRangesMatchViewControls(t *testing.T) {
	frontend, err := fs.Sub(frontendFiles, "frontend")
	require.NoError(t, err)
	page, err := fs.ReadFile(frontend, "index.html")
	require.NoError(t, err)

	pipeline := views.NewPipeline(views.Defaults{})
	for _, view := range pipeline.Describe() {
		for _, c := range view.Controls {
			if c.Kind != "slider" || c.Min == nil || c.Max == nil {
				continue
			}
			re := regexp.MustCompile(`id="` + regexp.QuoteMeta(c.Name) + `"[^>]*\bmin="(-?\d+)"[^>]*\bmax="(-?\d+)"`)
			m := re.FindSubmatch(page)
			require.NotNil(t, m, "%s input for view %s", c.Name, view.Name)

			lo, _ := strconv.Atoi(string(m[1]))
			hi, _ := strconv.Atoi(string(m[2]))
			assert.LessOrEqual(t, lo, *c.Min, "%s min for view %s", c.Name, view.Name)
			assert.GreaterOrEqual(t, hi, *c.Max, "%s max for view %s", c.Name, view.Name)
		}
	}

	script, err := fs.ReadFile(frontend, "static/app.js")
	require.NoError(t, err)
	assert.Contains(t, string(script), "input.max = c.max", "ranges follow /api/views at runtime")
}

func TestRunRejectsBadPort(t *testing.T) {
	err := run("", 70000, false)
	assert.Error(t, err)
}

func TestRunRejectsMissingConfig(t *testing.T) {
	err := run("does-not-exist.yaml", 0, false)
	assert.Error(t, err)
}
