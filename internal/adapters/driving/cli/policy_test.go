package cli

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/clausewise/internal/core/domain"
)

func TestDecodeCmd_PrintsSession(t *testing.T) {
	policy, _, cleanup := setupTestServices()
	defer cleanup()

	out, err := executeCommand("decode", "./home.pdf")

	require.NoError(t, err)
	assert.Equal(t, "./home.pdf", policy.lastRef)
	assert.Contains(t, out, "Session:  s1")
	assert.Contains(t, out, "File:     home.pdf")
	assert.Contains(t, out, "Clauses:  2")
	assert.Contains(t, out, "Index:    operational")
	assert.NotContains(t, out, "Warning")
}

func TestDecodeCmd_DegradedIndexWarns(t *testing.T) {
	policy, _, cleanup := setupTestServices()
	defer cleanup()
	policy.sessions["s1"].Index = domain.NewDegradedHandle("policy_s1", "embedding provider unavailable")

	out, err := executeCommand("decode", "./home.pdf")

	require.NoError(t, err)
	assert.Contains(t, out, "Index:    degraded")
	assert.Contains(t, out, "semantic search unavailable: embedding provider unavailable")
}

func TestDecodeCmd_JSON(t *testing.T) {
	_, _, cleanup := setupTestServices()
	defer cleanup()

	out, err := executeCommand("decode", "--json", "./home.pdf")
	require.NoError(t, err)

	var summary domain.SessionSummary
	require.NoError(t, json.Unmarshal([]byte(out), &summary))
	assert.Equal(t, "s1", summary.ID)
	assert.Equal(t, 2, summary.ClauseCount)
}

func TestDecodeCmd_Error(t *testing.T) {
	policy, _, cleanup := setupTestServices()
	defer cleanup()
	policy.decodeErr = domain.ErrUnsupportedFormat

	_, err := executeCommand("decode", "./policy.docx")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUnsupportedFormat)
}

func TestDecodeCmd_RequiresArg(t *testing.T) {
	_, _, cleanup := setupTestServices()
	defer cleanup()

	_, err := executeCommand("decode")
	assert.Error(t, err)
}

func TestPolicyCommands_NoService(t *testing.T) {
	_, _, cleanup := setupTestServices()
	defer cleanup()
	SetServices(nil, nil)

	tests := [][]string{
		{"decode", "x.pdf"},
		{"analyze", "s1"},
		{"query", "s1", "flood"},
		{"clauses", "s1"},
		{"terms", "s1"},
		{"report", "s1"},
		{"sessions", "list"},
		{"serve"},
	}
	for _, args := range tests {
		t.Run(args[0], func(t *testing.T) {
			_, err := executeCommand(args...)
			assert.ErrorIs(t, err, errPolicyNotConfigured)
		})
	}
}

func TestAnalyzeCmd(t *testing.T) {
	_, _, cleanup := setupTestServices()
	defer cleanup()

	out, err := executeCommand("analyze", "s1")

	require.NoError(t, err)
	assert.Contains(t, out, "Buildings cover with flood included.")
	assert.Contains(t, out, "Page 1 [Coverage]")
	assert.Contains(t, out, "Flood cover.")
}

func TestAnalyzeCmd_LLMUnavailable(t *testing.T) {
	policy, _, cleanup := setupTestServices()
	defer cleanup()
	policy.analyzeErr = domain.ErrLLMUnavailable

	_, err := executeCommand("analyze", "s1")
	assert.ErrorIs(t, err, domain.ErrLLMUnavailable)
}

func TestQueryCmd_DefaultK(t *testing.T) {
	policy, _, cleanup := setupTestServices()
	defer cleanup()

	out, err := executeCommand("query", "s1", "am", "I", "covered?")

	require.NoError(t, err)
	assert.Equal(t, "am I covered?", policy.lastQuery)
	assert.Equal(t, domain.DefaultTopK, policy.lastK)
	assert.Contains(t, out, "Clause ID: p1_c1 (page 1)")
}

func TestQueryCmd_ExplicitK(t *testing.T) {
	policy, _, cleanup := setupTestServices()
	defer cleanup()

	_, err := executeCommand("query", "-k", "2", "s1", "flood")

	require.NoError(t, err)
	assert.Equal(t, 2, policy.lastK)
}

func TestQueryCmd_ConfiguredDefault(t *testing.T) {
	policy, _, cleanup := setupTestServices()
	defer cleanup()
	SetDefaultTopK(8)

	_, err := executeCommand("query", "s1", "flood")

	require.NoError(t, err)
	assert.Equal(t, 8, policy.lastK)
}

func TestQueryCmd_NegativeK(t *testing.T) {
	_, _, cleanup := setupTestServices()
	defer cleanup()

	_, err := executeCommand("query", "-k", "-1", "s1", "flood")
	assert.Error(t, err)
}

func TestQueryCmd_UnknownSession(t *testing.T) {
	_, _, cleanup := setupTestServices()
	defer cleanup()

	_, err := executeCommand("query", "missing", "flood")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestClausesCmd(t *testing.T) {
	_, _, cleanup := setupTestServices()
	defer cleanup()

	out, err := executeCommand("clauses", "s1")

	require.NoError(t, err)
	assert.Contains(t, out, "[P1-C1] (page 1)\nFlood is covered.")
	assert.Contains(t, out, "[P1-C2] (page 1)\nWar is excluded.")
	assert.Contains(t, out, "2 clauses")
}

func TestClausesCmd_JSON(t *testing.T) {
	_, _, cleanup := setupTestServices()
	defer cleanup()

	out, err := executeCommand("clauses", "--json", "s1")
	require.NoError(t, err)

	var clauses []domain.Clause
	require.NoError(t, json.Unmarshal([]byte(out), &clauses))
	require.Len(t, clauses, 2)
	assert.Equal(t, "p1_c2", clauses[1].ID)
}

func TestClausesCmd_Empty(t *testing.T) {
	policy, _, cleanup := setupTestServices()
	defer cleanup()
	policy.sessions["s1"].Clauses = nil

	out, err := executeCommand("clauses", "s1")

	require.NoError(t, err)
	assert.Contains(t, out, "No clauses found.")
}

func TestTermsCmd(t *testing.T) {
	_, _, cleanup := setupTestServices()
	defer cleanup()

	out, err := executeCommand("terms", "s1")

	require.NoError(t, err)
	assert.Contains(t, out, "\"Flood\" means water.")
}

func TestReportCmd_Stdout(t *testing.T) {
	_, _, cleanup := setupTestServices()
	defer cleanup()

	out, err := executeCommand("report", "s1")

	require.NoError(t, err)
	assert.Contains(t, out, "POLICY REPORT")
}

func TestReportCmd_File(t *testing.T) {
	_, _, cleanup := setupTestServices()
	defer cleanup()
	path := filepath.Join(t.TempDir(), "report.txt")

	out, err := executeCommand("report", "-o", path, "s1")

	require.NoError(t, err)
	assert.Contains(t, out, "Report written to "+path)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "POLICY REPORT\n\nSummary text.", string(data))
}

func TestReportCmd_NotAnalysed(t *testing.T) {
	policy, _, cleanup := setupTestServices()
	defer cleanup()
	policy.reportErr = errors.Join(domain.ErrInvalidInput, errors.New("session has not been analysed"))

	_, err := executeCommand("report", "s1")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestTerminalWidth_NotATerminal(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "out")
	require.NoError(t, err)
	defer f.Close()

	assert.Zero(t, terminalWidth(f))
	assert.Zero(t, terminalWidth("not a writer"))
}
