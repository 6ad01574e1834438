package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutputFormatter_StatsText(t *testing.T) {
	buf := &bytes.Buffer{}
	f := &OutputFormatter{Format: "text", Writer: buf}

	require.NoError(t, f.Success(StatsResult{
		Instance:  "0190c6e4-0000-7000-8000-000000000000",
		Backend:   "badger",
		Durable:   true,
		Symbols:   3,
		HighWater: 42,
		Pending:   1,
	}))

	assert.Equal(t, "Instance:   0190c6e4-0000-7000-8000-000000000000\n"+
		"Backend:    badger\n"+
		"Durable:    true\n"+
		"Symbols:    3\n"+
		"High-water: 42\n"+
		"Pending:    1\n", buf.String())
}

func TestOutputFormatter_StatsJSON(t *testing.T) {
	buf := &bytes.Buffer{}
	f := &OutputFormatter{Format: "json", Writer: buf}

	require.NoError(t, f.Success(StatsResult{Backend: "memory", Symbols: 2, HighWater: 7}))

	var resp struct {
		Status string         `json:"status"`
		Data   map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "memory", resp.Data["backend"])
	assert.Equal(t, false, resp.Data["durable"])
	assert.Equal(t, float64(2), resp.Data["symbols"])
	assert.Equal(t, float64(7), resp.Data["high_water"])
	assert.Contains(t, resp.Data, "pending")
}

func TestOutputFormatter_ImportText(t *testing.T) {
	buf := &bytes.Buffer{}
	f := &OutputFormatter{Format: "text", Writer: buf}

	require.NoError(t, f.Success(ImportResult{Imported: 3, HighWater: 100}))
	assert.Equal(t, "Imported 3 symbols (high-water 100)\n", buf.String())
}

func TestOutputFormatter_SymbolsText(t *testing.T) {
	buf := &bytes.Buffer{}
	f := &OutputFormatter{Format: "text", Writer: buf}

	require.NoError(t, f.Symbols([]symbolJSON{{ID: 1, Name: "main"}, {ID: 0, Name: "<null>"}, {ID: 9, Name: "a b"}}))
	assert.Equal(t, "1\tmain\n0\t<null>\n9\ta b\n", buf.String())

	buf.Reset()
	require.NoError(t, f.Symbols(nil))
	assert.Empty(t, buf.String())
}

func TestOutputFormatter_SymbolsJSON(t *testing.T) {
	buf := &bytes.Buffer{}
	f := &OutputFormatter{Format: "json", Writer: buf}
	found, missing := true, false

	require.NoError(t, f.Symbols([]symbolJSON{
		{ID: 1, Name: "main", Found: &found},
		{ID: 42, Name: UnknownName, Found: &missing},
		{ID: 2, Name: "init"},
	}))

	var resp struct {
		Status string           `json:"status"`
		Data   []map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	require.Len(t, resp.Data, 3)
	assert.Equal(t, map[string]any{"id": float64(1), "name": "main", "found": true}, resp.Data[0])
	assert.Equal(t, map[string]any{"id": float64(42), "name": UnknownName, "found": false}, resp.Data[1])
	assert.Equal(t, map[string]any{"id": float64(2), "name": "init"}, resp.Data[2], "intern results omit found")
}

func TestOutputFormatter_Fail(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		verbose  bool
		wantExit int
		wantText string
	}{
		{
			name:     "command error",
			err:      NewExitError(ExitCommandError, "no symbols in empty.yaml"),
			wantExit: ExitCommandError,
			wantText: "Error [E002]: no symbols in empty.yaml\n",
		},
		{
			name:     "flush failure hides cause",
			err:      WrapExitError(ExitFailure, "failed to persist symbols", errors.New("disk full")),
			wantExit: ExitFailure,
			wantText: "Error [E001]: failed to persist symbols: disk full\n",
		},
		{
			name:     "flush failure verbose",
			err:      WrapExitError(ExitFailure, "failed to persist symbols", errors.New("disk full")),
			verbose:  true,
			wantExit: ExitFailure,
			wantText: "Error [E001]: failed to persist symbols: disk full\nDetails: disk full\n",
		},
		{
			name:     "plain error",
			err:      errors.New("boom"),
			wantExit: ExitFailure,
			wantText: "Error [E001]: boom\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			f := &OutputFormatter{Format: "text", Writer: buf, Verbose: tt.verbose}

			assert.Equal(t, tt.wantExit, f.Fail(tt.err))
			assert.Equal(t, tt.wantText, buf.String())
		})
	}
}

func TestOutputFormatter_FailJSON(t *testing.T) {
	buf := &bytes.Buffer{}
	f := &OutputFormatter{Format: "json", Writer: buf}

	code := f.Fail(WrapExitError(ExitCommandError, "failed to open symbol registry", errors.New("open sqlite backend: locked")))
	assert.Equal(t, ExitCommandError, code)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeCommand, resp.Error.Code)
	assert.Equal(t, "failed to open symbol registry: open sqlite backend: locked", resp.Error.Message)
	assert.Equal(t, "open sqlite backend: locked", resp.Error.Details)
}

func TestOutputFormatter_VerboseLog(t *testing.T) {
	tests := []struct {
		name      string
		verbose   bool
		errWriter bool
		wantOut   string
		wantErr   string
	}{
		{name: "quiet", verbose: false, errWriter: true},
		{name: "to stderr", verbose: true, errWriter: true, wantErr: "flushed 2 new symbols to sqlite\n"},
		{name: "falls back to stdout", verbose: true, errWriter: false, wantOut: "flushed 2 new symbols to sqlite\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := &bytes.Buffer{}
			errOut := &bytes.Buffer{}
			f := &OutputFormatter{Format: "json", Writer: out, Verbose: tt.verbose}
			if tt.errWriter {
				f.ErrWriter = errOut
			}

			f.VerboseLog("flushed %d new symbols to %s", 2, "sqlite")
			assert.Equal(t, tt.wantOut, out.String())
			assert.Equal(t, tt.wantErr, errOut.String())
		})
	}
}

func TestExitError_Unwrap(t *testing.T) {
	cause := errors.New("registry is closed")
	err := WrapExitError(ExitFailure, "failed to intern \"a\"", cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Equal(t, ExitCommandError, GetExitCode(NewExitError(ExitCommandError, "bad")))
	assert.Equal(t, ExitFailure, GetExitCode(errors.New("other")))
}
