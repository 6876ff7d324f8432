package configutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

type testConfig struct {
	SeedURL string `json:"seed_url"`
	API     struct {
		URL   string `json:"url"`
		Token string `json:"token"`
	} `json:"api"`
}

func TestReadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json5")
	err := os.WriteFile(path, []byte(`{
		// comments are allowed
		seed_url: "https://listado.mercadolibre.cl/tienda",
		api: {url: "http://localhost:4000/api/products"},
	}`), 0o644)
	if err != nil {
		t.Fatal(err)
	}

	config, err := ReadConfig[testConfig](path)
	if err != nil {
		t.Fatal(err)
	}
	require.Equal(t, "https://listado.mercadolibre.cl/tienda", config.SeedURL)
	require.Equal(t, "http://localhost:4000/api/products", config.API.URL)
	require.Equal(t, "", config.API.Token)
}

func TestReadConfigLocalOverride(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "config.json5")
	err := os.WriteFile(base, []byte(`{
		seed_url: "https://listado.mercadolibre.cl/tienda",
		api: {url: "http://localhost:4000/api/products", token: ""},
	}`), 0o644)
	if err != nil {
		t.Fatal(err)
	}
	err = os.WriteFile(filepath.Join(dir, "config.local.json5"), []byte(`{
		api: {token: "secreto"},
	}`), 0o644)
	if err != nil {
		t.Fatal(err)
	}

	config, err := ReadConfig[testConfig](base)
	if err != nil {
		t.Fatal(err)
	}
	// the base survives, the override wins where set
	require.Equal(t, "https://listado.mercadolibre.cl/tienda", config.SeedURL)
	require.Equal(t, "secreto", config.API.Token)
}

func TestReadConfigMissing(t *testing.T) {
	_, err := ReadConfig[testConfig](filepath.Join(t.TempDir(), "config.json5"))
	require.True(t, os.IsNotExist(err))
}
