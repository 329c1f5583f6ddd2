package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const salesCSV = `date,product_name,price_per_kg,quantity_sold
2024-01-01,Tomatoes,20.0,100
2024-01-08,Tomatoes,22.0,90
2024-01-01,Onions,30.0,50
2024-01-08,Onions,32.0,45
`

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := NewRootCmd("test")
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func writeSales(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sales.csv")
	require.NoError(t, os.WriteFile(path, []byte(salesCSV), 0o644))
	return path
}

func TestForecastCmd_Table(t *testing.T) {
	out, err := execute(t, "forecast", "--data", writeSales(t), "--date", "2024-03-15", "--trees", "10", "--history")
	require.NoError(t, err)

	assert.Contains(t, out, "Forecast for 2024-03-15 (2 products known)")
	assert.Contains(t, out, "PRICE/KG")
	assert.Contains(t, out, "Tomatoes")
	assert.Contains(t, out, "Onions")
	assert.Contains(t, out, "SMA")
}

func TestForecastCmd_JSON(t *testing.T) {
	out, err := execute(t, "forecast", "--data", writeSales(t), "--date", "2024-03-15",
		"--product", "Onions", "--model", "linear", "--json")
	require.NoError(t, err)

	var report forecastReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, "2024-03-15", report.Date)
	assert.Equal(t, []string{"Tomatoes", "Onions"}, report.Products)
	require.Len(t, report.Results, 1)
	assert.Equal(t, "Onions", report.Results[0].Name)
	assert.GreaterOrEqual(t, report.Results[0].Price, 20.0)
	assert.LessOrEqual(t, report.Results[0].Price, 32.0)
	assert.Empty(t, report.History)
}

func TestForecastCmd_Errors(t *testing.T) {
	_, err := execute(t, "forecast", "--data", writeSales(t), "--date", "15/03/2024")
	assert.ErrorContains(t, err, "invalid --date")

	_, err = execute(t, "forecast", "--data", filepath.Join(t.TempDir(), "missing.csv"))
	assert.ErrorContains(t, err, "not trained")

	_, err = execute(t, "forecast", "--data", writeSales(t), "--model", "svm")
	assert.ErrorContains(t, err, "unknown model")
}

func TestCreateAdminCmd(t *testing.T) {
	t.Setenv("NEXUS_DATA_DIR", "")
	dir := t.TempDir()
	args := []string{"create-admin", "--data-dir", dir, "--username", "root", "--phone", "9999999999", "--password", "rootpass"}

	out, err := execute(t, args...)
	require.NoError(t, err)
	assert.Contains(t, out, "Created admin 'root'")
	assert.FileExists(t, filepath.Join(dir, "nexus.db"))

	out, err = execute(t, args...)
	require.NoError(t, err)
	assert.Contains(t, out, "already exists")
}

func TestCreateAdminCmd_Validation(t *testing.T) {
	t.Setenv("NEXUS_DATA_DIR", "")
	dir := t.TempDir()

	_, err := execute(t, "create-admin", "--data-dir", dir, "--username", "root", "--phone", "9999999999")
	assert.ErrorContains(t, err, "password")

	_, err = execute(t, "create-admin", "--data-dir", dir, "--username", "root", "--phone", "9999999999", "--password", "ab")
	assert.ErrorContains(t, err, "failed to create admin")
}

func TestBackupCmd_RequiresBucket(t *testing.T) {
	t.Setenv("NEXUS_DATA_DIR", "")
	t.Setenv("BACKUP_BUCKET", "")

	_, err := execute(t, "backup", "--data-dir", t.TempDir())
	assert.ErrorContains(t, err, "BACKUP_BUCKET")

	_, err = execute(t, "backup", "list", "--data-dir", t.TempDir())
	assert.ErrorContains(t, err, "BACKUP_BUCKET")
}
