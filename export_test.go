package retailsql

import (
	"bytes"
	"compress/gzip"
	"context"
	"io"
	"testing"

	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ulikunitz/xz"
	"github.com/xuri/excelize/v2"
)

func sampleResult() *Result {
	return &Result{
		Columns: []Column{{Name: "Description", Type: "TEXT"}, {Name: "TotalSold", Type: "INTEGER"}, {Name: "Revenue", Type: "REAL"}},
		Rows: [][]any{
			{"WHITE HANGING HEART T-LIGHT HOLDER", int64(6), 15.3},
			{"TAB\tAND, COMMA", int64(32), nil},
		},
	}
}

func TestResult_ExportDelimited(t *testing.T) {
	t.Parallel()

	t.Run("csv", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		require.NoError(t, sampleResult().Export(&buf, NewDumpOptions()))
		assert.Equal(t, "Description,TotalSold,Revenue\nWHITE HANGING HEART T-LIGHT HOLDER,6,15.3\n\"TAB\tAND, COMMA\",32,\n", buf.String())
	})

	t.Run("tsv", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		require.NoError(t, sampleResult().Export(&buf, NewDumpOptions().WithFormat(OutputFormatTSV)))
		assert.Equal(t, "Description\tTotalSold\tRevenue\nWHITE HANGING HEART T-LIGHT HOLDER\t6\t15.3\n\"TAB\tAND, COMMA\"\t32\t\n", buf.String())
	})

	t.Run("ltsv", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		require.NoError(t, sampleResult().Export(&buf, NewDumpOptions().WithFormat(OutputFormatLTSV)))
		assert.Equal(t,
			"Description:WHITE HANGING HEART T-LIGHT HOLDER\tTotalSold:6\tRevenue:15.3\n"+
				"Description:TAB AND, COMMA\tTotalSold:32\tRevenue:\n",
			buf.String())
	})

	t.Run("empty result writes only the header", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		result := &Result{Columns: []Column{{Name: "ProductB"}, {Name: "Frequency"}}}
		require.NoError(t, result.Export(&buf, NewDumpOptions()))
		assert.Equal(t, "ProductB,Frequency\n", buf.String())
	})
}

func TestResult_ExportCompressed(t *testing.T) {
	t.Parallel()

	want := "Description,TotalSold,Revenue\nWHITE HANGING HEART T-LIGHT HOLDER,6,15.3\n\"TAB\tAND, COMMA\",32,\n"
	tests := []struct {
		name        string
		compression CompressionType
		decompress  func(io.Reader) (io.Reader, error)
	}{
		{
			name:        "gzip",
			compression: CompressionGZ,
			decompress:  func(r io.Reader) (io.Reader, error) { return gzip.NewReader(r) },
		},
		{
			name:        "zstd",
			compression: CompressionZSTD,
			decompress: func(r io.Reader) (io.Reader, error) {
				d, err := zstd.NewReader(r)
				if err != nil {
					return nil, err
				}
				return d.IOReadCloser(), nil
			},
		},
		{
			name:        "xz",
			compression: CompressionXZ,
			decompress:  func(r io.Reader) (io.Reader, error) { return xz.NewReader(r) },
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var buf bytes.Buffer
			require.NoError(t, sampleResult().Export(&buf, NewDumpOptions().WithCompression(tt.compression)))

			r, err := tt.decompress(&buf)
			require.NoError(t, err)
			got, err := io.ReadAll(r)
			require.NoError(t, err)
			assert.Equal(t, want, string(got))
		})
	}

	t.Run("bzip2 cannot be written", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		err := sampleResult().Export(&buf, NewDumpOptions().WithCompression(CompressionBZ2))
		require.Error(t, err)
	})
}

func TestResult_ExportXLSX(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, sampleResult().Export(&buf, NewDumpOptions().WithFormat(OutputFormatXLSX)))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Result"}, f.GetSheetList())
	rows, err := f.GetRows("Result")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Description", "TotalSold", "Revenue"}, rows[0])
	assert.Equal(t, []string{"WHITE HANGING HEART T-LIGHT HOLDER", "6", "15.3"}, rows[1])
}

func TestResult_ExportParquetRoundTrip(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	store := openCSV(t, sampleHeader+baskets("P", 2, "17850", "MUG", "CUP"))
	result, err := store.Query(ctx, `SELECT * FROM onlineretail ORDER BY InvoiceNo, StockCode`)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, result.Export(&buf, NewDumpOptions().WithFormat(OutputFormatParquet)))

	builder, err := NewBuilder().AddReader(&buf, "export.parquet", FileTypeParquet).Build(ctx)
	require.NoError(t, err)
	reloaded, err := builder.Open(ctx)
	require.NoError(t, err)
	defer reloaded.Close()

	got, err := reloaded.Query(ctx, `SELECT * FROM onlineretail ORDER BY InvoiceNo, StockCode`)
	require.NoError(t, err)
	assert.Equal(t, result.ColumnNames(), got.ColumnNames())
	assert.Equal(t, result.StringRows(), got.StringRows())
	assert.Equal(t, CleaningStats{Read: 4, Kept: 4}, reloaded.Stats())
}

func TestArrowType(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "int64", arrowType("INTEGER").Name())
	assert.Equal(t, "float64", arrowType("real").Name())
	assert.Equal(t, "utf8", arrowType("TEXT").Name())
	assert.Equal(t, "utf8", arrowType("").Name())
}
