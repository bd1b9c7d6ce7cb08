package loader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

func TestParseNumericCoordinateColumns(t *testing.T) {
	rows := [][]string{
		{"Customer ID", "New Shop Name", "Prospect Code", "Latitude", "Longitude"},
		{"X1", "ABC Mart", "P-1", "11.5600", "104.9200"},
		{"X2", "ABC Mart 2", "", "11.5605", "104.9203"},
	}
	records, stats, err := Parse(rows, Options{})
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "X1", records[0].CustomerID)
	assert.Equal(t, "ABC Mart", records[0].ShopName)
	assert.Equal(t, "P-1", records[0].ProspectCode)
	assert.InDelta(t, 11.56, records[0].Latitude, 1e-9)
	assert.InDelta(t, 104.92, records[0].Longitude, 1e-9)
	assert.True(t, records[0].IsSecured())
	assert.False(t, records[1].IsSecured())

	assert.Equal(t, 2, stats.TotalRows)
	assert.Equal(t, 2, stats.Loaded)
	assert.Equal(t, 0, stats.DroppedCoordinates)
}

func TestParseCombinedCoordinateColumn(t *testing.T) {
	tests := []struct {
		name  string
		value string
		lat   float64
		lon   float64
	}{
		{name: "comma separated", value: "11.5600, 104.9200", lat: 11.56, lon: 104.92},
		{name: "space separated", value: "11.5600 104.9200", lat: 11.56, lon: 104.92},
		{name: "signed", value: "-11.5600,+104.9200", lat: -11.56, lon: 104.92},
		{name: "embedded in text", value: "GPS: 11.5600, 104.9200 (verified)", lat: 11.56, lon: 104.92},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows := [][]string{
				{"Customer ID", "New Shop Name", "Prospect Code", "Mapping Coordinates"},
				{"X1", "ABC Mart", "", tt.value},
			}
			records, _, err := Parse(rows, Options{})
			require.NoError(t, err)
			require.Len(t, records, 1)
			assert.InDelta(t, tt.lat, records[0].Latitude, 1e-9)
			assert.InDelta(t, tt.lon, records[0].Longitude, 1e-9)
		})
	}
}

func TestParseDropsUnresolvableCoordinates(t *testing.T) {
	rows := [][]string{
		{"Customer ID", "New Shop Name", "Prospect Code", "GPS"},
		{"X1", "ABC Mart", "", "11.5600, 104.9200"},
		{"X2", "No Coords Mart", "", "see map"},
		{"X3", "Short Row Mart", ""},
	}
	records, stats, err := Parse(rows, Options{})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "X1", records[0].CustomerID)
	assert.Equal(t, 3, stats.TotalRows)
	assert.Equal(t, 2, stats.DroppedCoordinates)
}

func TestParseSchemaErrors(t *testing.T) {
	tests := []struct {
		name string
		rows [][]string
	}{
		{name: "empty input", rows: nil},
		{name: "no coordinate source", rows: [][]string{
			{"Customer ID", "New Shop Name", "Prospect Code"},
			{"X1", "ABC Mart", ""},
		}},
		{name: "missing customer id", rows: [][]string{
			{"New Shop Name", "Latitude", "Longitude"},
			{"ABC Mart", "11.56", "104.92"},
		}},
		{name: "missing shop name", rows: [][]string{
			{"Customer ID", "Latitude", "Longitude"},
			{"X1", "11.56", "104.92"},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Parse(tt.rows, Options{})
			require.Error(t, err)
			assert.True(t, eris.Is(err, ErrSchema))
		})
	}
}

func TestParseProspectCodeNormalization(t *testing.T) {
	rows := [][]string{
		{"Customer ID", "New Shop Name", "Prospect Code", "Latitude", "Longitude"},
		{"X1", "A Mart", "nan", "11.56", "104.92"},
		{"X2", "B Mart", "None", "11.56", "104.92"},
		{"X3", "C Mart", "  P-7  ", "11.56", "104.92"},
		{"X4", "D Mart", "   ", "11.56", "104.92"},
	}
	records, _, err := Parse(rows, Options{})
	require.NoError(t, err)
	require.Len(t, records, 4)
	assert.False(t, records[0].IsSecured())
	assert.False(t, records[1].IsSecured())
	assert.True(t, records[2].IsSecured())
	assert.Equal(t, "P-7", records[2].ProspectCode)
	assert.False(t, records[3].IsSecured())
}

func TestParseMissingProspectCodeColumn(t *testing.T) {
	// Without the Prospect Code column every record is unsecured.
	rows := [][]string{
		{"Customer ID", "New Shop Name", "Latitude", "Longitude"},
		{"X1", "ABC Mart", "11.56", "104.92"},
	}
	records, _, err := Parse(rows, Options{})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.False(t, records[0].IsSecured())
}

func TestParseWithAliases(t *testing.T) {
	rows := [][]string{
		{"Cust No", "Outlet Name", "Code", "Lat", "Lng"},
		{"X1", "ABC Mart", "P-1", "11.56", "104.92"},
	}
	aliases := map[string]string{
		"Cust No":     ColCustomerID,
		"Outlet Name": ColShopName,
		"Code":        ColProspectCode,
		"Lat":         ColLatitude,
		"Lng":         ColLongitude,
	}
	records, _, err := Parse(rows, Options{Aliases: aliases})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "X1", records[0].CustomerID)
	assert.Equal(t, "ABC Mart", records[0].ShopName)
	assert.True(t, records[0].IsSecured())
}

func TestLoadAliases(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "columns.yaml")
	content := "columns:\n  \"Cust No\": \"Customer ID\"\n  \"Outlet\": \"New Shop Name\"\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	aliases, err := LoadAliases(path)
	require.NoError(t, err)
	assert.Equal(t, "Customer ID", aliases["Cust No"])
	assert.Equal(t, "New Shop Name", aliases["Outlet"])
}

func TestLoadAliasesErrors(t *testing.T) {
	_, err := LoadAliases("/nonexistent/columns.yaml")
	assert.Error(t, err)

	dir := t.TempDir()
	path := filepath.Join(dir, "empty.yaml")
	require.NoError(t, os.WriteFile(path, []byte("columns: {}\n"), 0o644))
	_, err = LoadAliases(path)
	assert.Error(t, err)
}
