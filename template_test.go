package retailsql

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueryTemplate_Bind(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		sql      string
		params   Params
		wantSQL  string
		wantArgs []any
	}{
		{
			name:     "no placeholders",
			sql:      "SELECT 1;",
			wantSQL:  "SELECT 1",
			wantArgs: nil,
		},
		{
			name:     "quoted placeholder is bound as a whole",
			sql:      "SELECT * FROM t WHERE Description = '{product_description}'",
			params:   Params{"product_description": "WHITE HANGING HEART T-LIGHT HOLDER"},
			wantSQL:  "SELECT * FROM t WHERE Description = ?",
			wantArgs: []any{"WHITE HANGING HEART T-LIGHT HOLDER"},
		},
		{
			name:     "value with a quote stays a value",
			sql:      "SELECT * FROM t WHERE Description = '{product_description}'",
			params:   Params{"product_description": "CHILD'S BREAKFAST SET"},
			wantSQL:  "SELECT * FROM t WHERE Description = ?",
			wantArgs: []any{"CHILD'S BREAKFAST SET"},
		},
		{
			name:     "bare placeholder",
			sql:      "SELECT * FROM t WHERE Frequency > {min_frequency}",
			params:   Params{"min_frequency": 50},
			wantSQL:  "SELECT * FROM t WHERE Frequency > ?",
			wantArgs: []any{50},
		},
		{
			name:     "repeated placeholder yields repeated arguments",
			sql:      "SELECT '{c}' WHERE x = {n} AND y = '{c}';",
			params:   Params{"c": "17850", "n": 2, "unused": true},
			wantSQL:  "SELECT ? WHERE x = ? AND y = ?",
			wantArgs: []any{"17850", 2, "17850"},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			sql, args, err := newQueryTemplate("Q", tt.sql).Bind(tt.params)
			require.NoError(t, err)
			assert.Equal(t, tt.wantSQL, sql)
			assert.Equal(t, tt.wantArgs, args)
		})
	}
}

func TestQueryTemplate_BindMissing(t *testing.T) {
	t.Parallel()

	tmpl := newQueryTemplate("RECS", "SELECT '{customer_id}', {min_frequency}, '{customer_id}', {a}")
	assert.Equal(t, []string{"customer_id", "min_frequency", "a"}, tmpl.Params)

	_, _, err := tmpl.Bind(Params{"min_frequency": 1})
	require.ErrorIs(t, err, ErrMissingParameter)

	var missing *MissingParameterError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, "RECS", missing.Query)
	assert.Equal(t, []string{"a", "customer_id"}, missing.Missing)
	assert.False(t, IsTerminal(err))
}

func TestParams_Merge(t *testing.T) {
	t.Parallel()

	defaults := Params{ParamMinFrequency: 50, "x": 1}
	got := Params{ParamMinFrequency: 10}.merge(defaults)
	assert.Equal(t, Params{ParamMinFrequency: 10, "x": 1}, got)
	assert.Equal(t, 50, defaults[ParamMinFrequency], "defaults are not modified")

	var nilParams Params
	assert.Equal(t, defaults, nilParams.merge(defaults))
}

func TestTrimStatement(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "SELECT 1", trimStatement("  SELECT 1;; \n"))
	assert.Equal(t, "SELECT ';'", trimStatement("SELECT ';'"))
}

func TestParamsFromStrings(t *testing.T) {
	t.Parallel()

	got := ParamsFromStrings(map[string]string{
		ParamMinFrequency:       "1",
		ParamCustomerID:         "17850",
		ParamProductDescription: "WHITE METAL LANTERN",
		"padded":                "007",
		"negative":              "-3",
		"decimal":               "2.5",
	})
	assert.Equal(t, Params{
		ParamMinFrequency:       int64(1),
		ParamCustomerID:         int64(17850),
		ParamProductDescription: "WHITE METAL LANTERN",
		"padded":                "007",
		"negative":              int64(-3),
		"decimal":               "2.5",
	}, got)
	assert.Empty(t, ParamsFromStrings(nil))
}
