package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	runconfig "github.com/raine/stock-metadata/internal/config"
	"github.com/raine/stock-metadata/internal/llm"
	"github.com/raine/stock-metadata/internal/media"
	"github.com/raine/stock-metadata/internal/pipeline"
	"github.com/raine/stock-metadata/internal/prompt"
	"github.com/raine/stock-metadata/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestCollectFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "b.eps"), "%!PS-Adobe-3.0 EPSF-3.0\n")
	writeFile(t, filepath.Join(dir, "a.svg"), "<svg/>")
	writeFile(t, filepath.Join(dir, "notes.txt"), "skip me")
	writeFile(t, filepath.Join(dir, ".hidden.jpg"), "x")
	writeFile(t, filepath.Join(dir, "nested", "c.mp4"), "video")
	explicit := filepath.Join(t.TempDir(), "readme.md")
	writeFile(t, explicit, "explicit files are kept")

	names := func(files []media.SourceFile) []string {
		var out []string
		for _, f := range files {
			out = append(out, f.Name)
		}
		return out
	}

	files, err := collectFiles([]string{dir, explicit}, false)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "a.svg"),
		filepath.Join(dir, "b.eps"),
		explicit,
	}, names(files))
	assert.Equal(t, "image/svg+xml", files[0].MIMEType)
	assert.Equal(t, "application/postscript", files[1].MIMEType)

	files, err = collectFiles([]string{dir}, true)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "a.svg"),
		filepath.Join(dir, "b.eps"),
		filepath.Join(dir, "nested", "c.mp4"),
	}, names(files))

	_, err = collectFiles([]string{filepath.Join(dir, "missing.jpg")}, false)
	assert.Error(t, err)
}

func TestResolveOptions(t *testing.T) {
	optsPath := filepath.Join(t.TempDir(), "options.toml")
	writeFile(t, optsPath, "platforms = [\"Freepik\"]\nsilhouette = true\n[keywords]\nmin = 5\nmax = 10\n")

	cmd := newAnalyzeCmd()
	require.NoError(t, cmd.ParseFlags([]string{
		"--options", optsPath,
		"--platform", "shutterstock",
		"--prohibit", "cartoon,anime",
		"--single-word-keywords",
	}))

	var af analyzeFlags
	af.optionsFile = optsPath
	af.platforms, _ = cmd.Flags().GetStringSlice("platform")
	af.prohibited, _ = cmd.Flags().GetStringSlice("prohibit")
	af.singleWord, _ = cmd.Flags().GetBool("single-word-keywords")

	opts, err := resolveOptions(cmd, af)
	require.NoError(t, err)
	assert.Equal(t, []prompt.Platform{prompt.Shutterstock}, opts.Platforms)
	assert.True(t, opts.Silhouette)
	assert.True(t, opts.SingleWordKeywords)
	assert.Equal(t, prompt.Bounds{Min: 5, Max: 10}, opts.Keywords)
	assert.Equal(t, []string{"cartoon", "anime"}, opts.Prohibited())
}

func TestResolveOptions_InvalidMode(t *testing.T) {
	cmd := newAnalyzeCmd()
	require.NoError(t, cmd.ParseFlags([]string{"--mode", "captions"}))

	_, err := resolveOptions(cmd, analyzeFlags{mode: "captions"})
	assert.Error(t, err)
}

func TestWriteResults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	results := []pipeline.Result{
		{Index: 0, Filename: "a.jpg", Title: "Red car", Keywords: []string{"red", "car"}},
		{Index: 1, Filename: "b.svg", Error: "failed to convert b.svg: invalid SVG markup"},
	}
	require.NoError(t, writeResults(path, results))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var decoded []map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Len(t, decoded, 2)
	assert.Equal(t, "Red car", decoded[0]["title"])
	assert.NotContains(t, decoded[0], "error")
	assert.Equal(t, "b.svg", decoded[1]["filename"])
	assert.NotContains(t, decoded[1], "title")
}

func TestBuildClient(t *testing.T) {
	store, err := storage.NewSQLiteStore(storage.MemoryPath)
	require.NoError(t, err)
	defer store.Close()

	for _, backend := range []runconfig.Backend{runconfig.BackendREST, runconfig.BackendSDK} {
		cfg := &runconfig.Config{Backend: backend, Model: llm.DefaultModel, BaseURL: llm.DefaultBaseURL, RequestsPerMinute: 15}
		client := buildClient(cfg, store, "run-1")
		assert.IsType(t, &llm.CachedClient{}, client)
	}
}

func TestValidateGeminiKey(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1beta/models", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Query().Get("key") {
		case "good":
			w.Write([]byte(`{"models": []}`))
		case "bad":
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error": {"code": 400, "message": "API key not valid. Please pass a valid API key."}}`))
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer ts.Close()

	assert.NoError(t, validateGeminiKey(ts.URL, "good"))

	err := validateGeminiKey(ts.URL, "bad")
	require.Error(t, err)
	assert.Equal(t, "API key not valid. Please pass a valid API key.", err.Error())

	err = validateGeminiKey(ts.URL, "other")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 500")
}
