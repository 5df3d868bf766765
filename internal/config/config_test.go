package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_FullDocument(t *testing.T) {
	cfg, errs := Parse([]byte(`
engine: /usr/local/bin/qutrit-engine
depth: 9
workers: 8
iterations: 3
timeout: 90s
grace: 500ms
max_chunks: 512
db: runs.db
layout:
  measure_slots: 512
  offset_base: 512
  offset_limbs: 4
  modulus_base: 520
`))
	require.Empty(t, errs)

	assert.Equal(t, "/usr/local/bin/qutrit-engine", cfg.Engine)
	assert.Equal(t, 9, cfg.Depth)
	assert.Equal(t, 8, cfg.Workers)
	assert.Equal(t, 3, cfg.Iterations)
	assert.Equal(t, 90*time.Second, cfg.Timeout.Std())
	assert.Equal(t, 500*time.Millisecond, cfg.Grace.Std())
	assert.Equal(t, 512, cfg.MaxChunks)
	assert.Equal(t, "runs.db", cfg.DB)

	require.NotNil(t, cfg.Layout)
	assert.Equal(t, uint32(512), cfg.Layout.MeasureSlots)
	assert.Equal(t, 4, cfg.Layout.OffsetLimbs)
}

func TestParse_PartialDocumentGetsDefaults(t *testing.T) {
	cfg, errs := Parse([]byte("engine: /opt/engine\n"))
	require.Empty(t, errs)

	def := Default()
	assert.Equal(t, def.Depth, cfg.Depth)
	assert.Equal(t, def.Workers, cfg.Workers)
	assert.Equal(t, def.MaxChunks, cfg.MaxChunks)
	assert.Equal(t, def.Timeout, cfg.Timeout)
	assert.Empty(t, cfg.DB)
	assert.Nil(t, cfg.Layout)
}

func TestParse_MissingEngineRejected(t *testing.T) {
	_, errs := Parse([]byte("depth: 4\n"))
	require.NotEmpty(t, errs)

	var ve ValidationError
	require.ErrorAs(t, errs[0], &ve)
	assert.Equal(t, ErrCodeSchema, ve.Code)
	assert.Contains(t, ve.Field, "engine")
}

func TestParse_SchemaViolations(t *testing.T) {
	tests := []struct {
		name  string
		yaml  string
		field string
	}{
		{"zero depth", "engine: /e\ndepth: 0\n", "depth"},
		{"depth too deep", "engine: /e\ndepth: 21\n", "depth"},
		{"zero workers", "engine: /e\nworkers: 0\n", "workers"},
		{"negative iterations", "engine: /e\niterations: -1\n", "iterations"},
		{"chunk ceiling too high", "engine: /e\nmax_chunks: 70000\n", "max_chunks"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, errs := Parse([]byte(tt.yaml))
			require.NotEmpty(t, errs)

			var ve ValidationError
			require.ErrorAs(t, errs[0], &ve)
			assert.Equal(t, ErrCodeSchema, ve.Code)
			assert.Contains(t, ve.Field, tt.field)
		})
	}
}

func TestParse_CompositeDurations(t *testing.T) {
	cfg, errs := Parse([]byte("engine: /e\ntimeout: 1m30s\ngrace: 1.5s\n"))
	require.Empty(t, errs)

	assert.Equal(t, 90*time.Second, cfg.Timeout.Std())
	assert.Equal(t, 1500*time.Millisecond, cfg.Grace.Std())
}

// Defaults render through time.Duration.String, so a five minute timeout
// reaches the schema as "5m0s". That rendering has to validate.
func TestParse_DefaultsValidate(t *testing.T) {
	cfg, errs := Parse([]byte("engine: /e\n"))
	require.Empty(t, errs)
	assert.Equal(t, 5*time.Minute, cfg.Timeout.Std())

	errs = cfg.Validate()
	assert.Empty(t, errs)
}

func TestParse_BadDurationIsSyntaxError(t *testing.T) {
	_, errs := Parse([]byte("engine: /e\ntimeout: fast\n"))
	require.NotEmpty(t, errs)

	var ve ValidationError
	require.ErrorAs(t, errs[0], &ve)
	assert.Equal(t, ErrCodeSyntax, ve.Code)
}

func TestParse_MalformedYAML(t *testing.T) {
	_, errs := Parse([]byte("engine: [unclosed\n"))
	require.NotEmpty(t, errs)

	var ve ValidationError
	require.ErrorAs(t, errs[0], &ve)
	assert.Equal(t, ErrCodeSyntax, ve.Code)
}

func TestLoad_MissingFile(t *testing.T) {
	_, errs := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NotEmpty(t, errs)

	var ve ValidationError
	require.ErrorAs(t, errs[0], &ve)
	assert.Equal(t, ErrCodeRead, ve.Code)
}

func TestLoad_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "qfactor.yaml")
	require.NoError(t, os.WriteFile(path, []byte("engine: /opt/engine\ndepth: 6\n"), 0o644))

	cfg, errs := Load(path)
	require.Empty(t, errs)
	assert.Equal(t, 6, cfg.Depth)
}

func TestSearchConfig(t *testing.T) {
	cfg, errs := Parse([]byte(`
engine: /opt/engine
workers: 2
timeout: 30s
layout:
  measure_slots: 16
  offset_base: 16
  offset_limbs: 2
  modulus_base: 32
`))
	require.Empty(t, errs)

	sc := cfg.SearchConfig()
	assert.Equal(t, "/opt/engine", sc.EnginePath)
	assert.Equal(t, 2, sc.Workers)
	assert.Equal(t, 30*time.Second, sc.Timeout)
	assert.Equal(t, uint32(16), sc.Layout.MeasureSlots)
	assert.Equal(t, uint32(32), sc.Layout.ModulusBase)
}

func TestValidationError_Format(t *testing.T) {
	withField := ValidationError{Field: "depth", Message: "out of range", Code: ErrCodeSchema}
	assert.Equal(t, "[E202] depth: out of range", withField.Error())

	bare := ValidationError{Message: "unreadable", Code: ErrCodeRead}
	assert.Equal(t, "[E200] unreadable", bare.Error())
}
