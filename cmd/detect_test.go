package main

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"
	"github.com/xuri/excelize/v2"

	"github.com/sells-group/shop-dedupe/internal/model"
)

func writeTestWorkbook(t *testing.T, rows [][]string) string {
	t.Helper()

	f := xlsx.NewFile()
	sheet, err := f.AddSheet("MasterData")
	require.NoError(t, err)
	for _, row := range rows {
		r := sheet.AddRow()
		for _, v := range row {
			r.AddCell().SetString(v)
		}
	}

	path := filepath.Join(t.TempDir(), "master.xlsx")
	require.NoError(t, f.Save(path))
	return path
}

// setDetectFlags resets the detect command globals and restores them
// after the test.
func setDetectFlags(t *testing.T, input, output string) {
	t.Helper()
	origInput, origOutput := detectInput, detectOutput
	origMode, origThreshold, origMinLen := detectMode, detectThreshold, detectMinNameLen
	origSheet, origIdx, origCols := detectSheet, detectSheetIndex, detectColumns
	origTerritory, origSave, origDry := detectTerritory, detectSave, detectDryRun
	t.Cleanup(func() {
		detectInput, detectOutput = origInput, origOutput
		detectMode, detectThreshold, detectMinNameLen = origMode, origThreshold, origMinLen
		detectSheet, detectSheetIndex, detectColumns = origSheet, origIdx, origCols
		detectTerritory, detectSave, detectDryRun = origTerritory, origSave, origDry
	})
	detectInput, detectOutput = input, output
	detectMode, detectThreshold, detectMinNameLen = "", 0, 0
	detectSheet, detectSheetIndex, detectColumns = "", 0, ""
	detectTerritory, detectSave, detectDryRun = "", false, false
}

func TestDetectCommand(t *testing.T) {
	setTestConfig(t)

	input := writeTestWorkbook(t, [][]string{
		{"Customer ID", "New Shop Name", "Prospect Code", "Latitude", "Longitude"},
		{"C-1", "Lucky Mart", "P-1", "11.5600", "104.9200"},
		{"C-2", "Lucky Mart 2", "", "11.5605", "104.9203"},
		{"C-3", "Riverside Noodles", "", "11.9000", "104.5000"},
	})
	output := filepath.Join(t.TempDir(), "report.xlsx")
	setDetectFlags(t, input, output)

	detectCmd.SetContext(context.Background())
	require.NoError(t, detectCmd.RunE(detectCmd, nil))

	f, err := excelize.OpenFile(output)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Suspicious Pairs")
	require.NoError(t, err)
	require.Len(t, rows, 2) // header + one pair
	assert.Equal(t, "Customer ID A", rows[0][0])
	assert.Contains(t, rows[1], "C-1")
	assert.Contains(t, rows[1], "C-2")
	assert.Contains(t, rows[1], string(model.ComparisonUnsecuredSecured))
}

func TestDetectCommand_DryRun(t *testing.T) {
	setTestConfig(t)

	input := writeTestWorkbook(t, [][]string{
		{"Customer ID", "New Shop Name", "Latitude", "Longitude"},
		{"C-1", "Lucky Mart", "11.5600", "104.9200"},
	})
	output := filepath.Join(t.TempDir(), "report.xlsx")
	setDetectFlags(t, input, output)
	detectDryRun = true

	detectCmd.SetContext(context.Background())
	require.NoError(t, detectCmd.RunE(detectCmd, nil))

	// Dry run never writes a report.
	_, err := excelize.OpenFile(output)
	assert.Error(t, err)
}

func TestDetectCommand_SaveRun(t *testing.T) {
	setTestConfig(t)
	cfg.Store.Driver = "sqlite"
	cfg.Store.Path = filepath.Join(t.TempDir(), "dedupe.db")

	input := writeTestWorkbook(t, [][]string{
		{"Customer ID", "New Shop Name", "Prospect Code", "Latitude", "Longitude"},
		{"C-1", "Lucky Mart", "P-1", "11.5600", "104.9200"},
		{"C-2", "Lucky Mart 2", "", "11.5605", "104.9203"},
	})
	output := filepath.Join(t.TempDir(), "report.xlsx")
	setDetectFlags(t, input, output)
	detectSave = true

	ctx := context.Background()
	detectCmd.SetContext(ctx)
	require.NoError(t, detectCmd.RunE(detectCmd, nil))

	st, err := initStore(ctx)
	require.NoError(t, err)
	defer st.Close()

	runs, err := st.ListRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, input, runs[0].Source)
	assert.Equal(t, 1, runs[0].PairCount)
	assert.Equal(t, model.RunStatusComplete, runs[0].Status)

	pairs, err := st.GetRunPairs(ctx, runs[0].ID)
	require.NoError(t, err)
	require.Len(t, pairs, 1)
	// The unsecured record is the querying side of a cross pass.
	assert.Equal(t, "C-2", pairs[0].CustomerIDA)
	assert.Equal(t, "C-1", pairs[0].CustomerIDB)
}

func TestDetectCommand_BadSchema(t *testing.T) {
	setTestConfig(t)

	input := writeTestWorkbook(t, [][]string{
		{"Totally", "Unrelated", "Headers"},
		{"a", "b", "c"},
	})
	setDetectFlags(t, input, filepath.Join(t.TempDir(), "report.xlsx"))

	detectCmd.SetContext(context.Background())
	err := detectCmd.RunE(detectCmd, nil)
	require.Error(t, err)
}
