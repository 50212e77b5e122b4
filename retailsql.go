package retailsql

import (
	"context"

	"github.com/nao1215/retailsql/domain/model"
)

const (
	// TableName is the name of the dataset table every catalog query reads
	TableName = "onlineretail"

	// CooccurrenceView is the name of the view CREATE_FREQUENTLY_BOUGHT_TOGETHER_VIEW defines
	CooccurrenceView = "FrequentlyBoughtTogether"

	// DefaultMinFrequency is the co-occurrence count a pair must exceed to be shown
	DefaultMinFrequency = 50

	// DefaultDatasetPath is the dataset file name used when none is configured
	DefaultDatasetPath = "OnlineRetail.csv"

	// DefaultCatalogPath is the query catalog file name used when none is configured
	DefaultCatalogPath = "queries.sql"
)

// Parameter names used by the catalog templates.
const (
	ParamProductDescription = "product_description"
	ParamCustomerID         = "customer_id"
	ParamMinFrequency       = "min_frequency"
)

// Export options are shared with the domain model.
type (
	// OutputFormat represents the export file format of a query result
	OutputFormat = model.OutputFormat
	// CompressionType represents the compression type of an export or a dataset input
	CompressionType = model.CompressionType
	// DumpOptions represents options for exporting a query result
	DumpOptions = model.DumpOptions
)

// Export formats and compression types.
const (
	OutputFormatCSV     = model.OutputFormatCSV
	OutputFormatTSV     = model.OutputFormatTSV
	OutputFormatLTSV    = model.OutputFormatLTSV
	OutputFormatParquet = model.OutputFormatParquet
	OutputFormatXLSX    = model.OutputFormatXLSX

	CompressionNone = model.CompressionNone
	CompressionGZ   = model.CompressionGZ
	CompressionBZ2  = model.CompressionBZ2
	CompressionXZ   = model.CompressionXZ
	CompressionZSTD = model.CompressionZSTD
)

// NewDumpOptions creates export options with CSV format and no compression
func NewDumpOptions() DumpOptions {
	return model.NewDumpOptions()
}

// Open loads the dataset files into a new store with the default settings.
// It is shorthand for NewBuilder().AddPaths(paths...).Build(ctx) followed by Open(ctx).
func Open(ctx context.Context, paths ...string) (*Store, error) {
	builder, err := NewBuilder().AddPaths(paths...).Build(ctx)
	if err != nil {
		return nil, err
	}
	return builder.Open(ctx)
}

// ParseOutputFormat converts an export format name ("csv", "xlsx", ...) to OutputFormat
func ParseOutputFormat(name string) (OutputFormat, error) {
	return model.ParseOutputFormat(name)
}

// ParseCompressionType converts a compression name ("gz", "zstd", ...) to CompressionType
func ParseCompressionType(name string) (CompressionType, error) {
	return model.ParseCompressionType(name)
}
