package retailsql

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"time"

	"github.com/nao1215/retailsql/driver"
	"github.com/rs/zerolog"
)

// Builder configures and loads the dataset store.
//
// The typical usage pattern is:
//
//	builder, err := retailsql.NewBuilder().AddPath("OnlineRetail.csv").Build(ctx)
//	if err != nil {
//		return err
//	}
//	store, err := builder.Open(ctx)
//	if err != nil {
//		return err
//	}
//	defer store.Close()
//
// Every input is appended to the same table. Later inputs are matched to the first
// input's header by column name.
type Builder struct {
	// paths contains regular file paths
	paths []string
	// readers contains in-memory or embedded inputs
	readers []readerInput
	// encoding is the text encoding of CSV and TSV inputs
	encoding Encoding
	// chunkSize is the number of rows inserted per transaction
	chunkSize ChunkSize
	// tableName is the name of the dataset table
	tableName string
	// logger receives load progress and cleaning statistics
	logger zerolog.Logger
	// collected holds every validated input after Build
	collected []readerInput
}

// readerInput is one dataset input ready to be parsed
type readerInput struct {
	src    source
	reader io.Reader
	// path is set for inputs opened lazily from disk or from fsys
	path string
	fsys fs.FS
}

// NewBuilder creates a builder with ISO-8859-1 text decoding and no logging.
func NewBuilder() *Builder {
	return &Builder{
		encoding:  DefaultEncoding,
		chunkSize: NewChunkSize(DefaultChunkSize),
		tableName: TableName,
		logger:    zerolog.Nop(),
	}
}

// AddPath adds a dataset file. Supported: .csv, .tsv, .xlsx, .parquet,
// each optionally compressed with .gz, .bz2, .xz or .zst.
func (b *Builder) AddPath(path string) *Builder {
	b.paths = append(b.paths, path)
	return b
}

// AddPaths adds multiple dataset files
func (b *Builder) AddPaths(paths ...string) *Builder {
	b.paths = append(b.paths, paths...)
	return b
}

// AddReader adds a dataset stream. name is used for messages and compression detection
// ("retail.csv.gz" is gunzipped); fileType names the format of the decompressed data.
func (b *Builder) AddReader(reader io.Reader, name string, fileType FileType) *Builder {
	src := newSource(name)
	src.fileType = fileType
	b.readers = append(b.readers, readerInput{src: src, reader: reader})
	return b
}

// AddFS adds the named file of an fs.FS, such as an embedded sample dataset
func (b *Builder) AddFS(filesystem fs.FS, name string) *Builder {
	b.readers = append(b.readers, readerInput{src: newSource(name), path: name, fsys: filesystem})
	return b
}

// WithEncoding sets the text encoding of CSV and TSV inputs
func (b *Builder) WithEncoding(enc Encoding) *Builder {
	b.encoding = enc
	return b
}

// WithChunkSize sets the number of rows inserted per transaction
func (b *Builder) WithChunkSize(size int) *Builder {
	b.chunkSize = NewChunkSize(size)
	return b
}

// WithLogger sets the logger used while loading
func (b *Builder) WithLogger(logger zerolog.Logger) *Builder {
	b.logger = logger
	return b
}

// Build validates all configured inputs. It must be called before Open.
// A missing file yields ErrFileNotFound; an unknown extension yields ErrUnsupportedFormat.
func (b *Builder) Build(_ context.Context) (*Builder, error) {
	if len(b.paths) == 0 && len(b.readers) == 0 {
		return nil, ErrNoInput
	}

	b.collected = make([]readerInput, 0, len(b.paths)+len(b.readers))
	for _, path := range b.paths {
		ec := NewErrorContext("build", path)
		if err := driver.ValidatePath(path); err != nil {
			return nil, ec.Error(fmt.Errorf("%w: %w", ErrDatasetParse, err))
		}

		info, err := os.Stat(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, ec.Error(ErrFileNotFound)
			}
			return nil, ec.Error(fmt.Errorf("%w: %w", ErrDatasetParse, err))
		}
		if info.IsDir() {
			return nil, ec.WithDetails("path is a directory").Error(ErrUnsupportedFormat)
		}

		if !isSupportedFile(path) {
			return nil, ec.Error(ErrUnsupportedFormat)
		}
		b.collected = append(b.collected, readerInput{src: newSource(path), path: path})
	}

	for _, input := range b.readers {
		if input.reader == nil && input.fsys == nil {
			return nil, NewErrorContext("build", input.src.name).WithDetails("reader cannot be nil").Error(ErrNoInput)
		}
		if input.src.fileType == FileTypeUnsupported {
			return nil, NewErrorContext("build", input.src.name).Error(ErrUnsupportedFormat)
		}
		b.collected = append(b.collected, input)
	}
	return b, nil
}

// Open parses, cleans and loads every input into a new in-memory store.
// The returned store rejects every statement except reads and view definitions.
func (b *Builder) Open(ctx context.Context) (*Store, error) {
	if len(b.collected) == 0 {
		return nil, fmt.Errorf("%w: did you call Build()?", ErrNoInput)
	}

	started := time.Now()
	var (
		h       header
		records []Record
		stats   CleaningStats
	)
	for _, input := range b.collected {
		inputHeader, kept, inputStats, err := b.loadInput(ctx, input)
		if err != nil {
			return nil, err
		}
		stats.add(inputStats)
		if h == nil {
			h = inputHeader
			records = kept
			continue
		}
		records = append(records, projectRecords(inputHeader, h, kept)...)
	}

	columns := inferColumnsInfo(h, records)
	store, err := b.createStore(ctx, columns, records)
	if err != nil {
		return nil, NewErrorContext("load", "").WithTable(b.tableName).Error(fmt.Errorf("%w: %w", ErrDatasetParse, err))
	}
	store.stats = stats

	b.logger.Info().
		Str("table", b.tableName).
		Int("rows_read", stats.Read).
		Int("dropped_missing", stats.DroppedMissing).
		Int("dropped_quantity", stats.DroppedQuantity).
		Int("rows_kept", stats.Kept).
		Dur("took", time.Since(started)).
		Msg("dataset loaded")
	return store, nil
}

// loadInput reads, decompresses, parses and cleans one input
func (b *Builder) loadInput(ctx context.Context, input readerInput) (header, []Record, CleaningStats, error) {
	ec := NewErrorContext("load", input.src.name).WithTable(b.tableName)

	reader, closer, err := input.open()
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil, CleaningStats{}, ec.Error(ErrFileNotFound)
		}
		return nil, nil, CleaningStats{}, ec.Error(fmt.Errorf("%w: %w", ErrDatasetParse, err))
	}
	defer func() {
		if cerr := closer(); cerr != nil {
			b.logger.Warn().Err(cerr).Str("file", input.src.name).Msg("failed to close dataset input")
		}
	}()

	decompressed, cleanup, err := NewCompressionHandler(input.src.compression).CreateReader(reader)
	if err != nil {
		return nil, nil, CleaningStats{}, ec.Error(fmt.Errorf("%w: %w", ErrDatasetParse, err))
	}
	defer func() { _ = cleanup() }()

	raw, err := newDatasetParser(input.src.fileType, b.encoding).parse(ctx, decompressed)
	if err != nil {
		return nil, nil, CleaningStats{}, ec.Error(loadError(err))
	}

	kept, stats, err := cleanTable(raw)
	if err != nil {
		return nil, nil, stats, ec.Error(loadError(err))
	}
	b.logger.Debug().
		Str("file", input.src.name).
		Str("format", input.src.fileType.String()).
		Str("compression", input.src.compression.String()).
		Int("rows_read", stats.Read).
		Int("rows_kept", stats.Kept).
		Msg("dataset input parsed")
	return raw.header, kept, stats, nil
}

// loadError marks err as a parse failure unless it already carries a load sentinel
func loadError(err error) error {
	if IsTerminal(err) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrDatasetParse, err)
}

// createStore creates the table, loads the rows and seals the database
func (b *Builder) createStore(ctx context.Context, columns []columnInfo, records []Record) (*Store, error) {
	db, connector, err := openMemoryDB(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory database: %w", err)
	}

	load := func() error {
		if err := createTable(ctx, db, b.tableName, columns); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
		if err := insertRecords(ctx, db, b.tableName, len(columns), records, b.chunkSize); err != nil {
			return err
		}
		return createIndexes(ctx, db, b.tableName, columns)
	}
	if err := load(); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, errors.Join(err, fmt.Errorf("failed to close database: %w", closeErr))
		}
		return nil, err
	}

	connector.Seal()
	return &Store{
		db:        db,
		connector: connector,
		tableName: b.tableName,
		columns:   columns,
		logger:    b.logger,
	}, nil
}

// projectRecords reorders records of header from onto header to by column name
func projectRecords(from, to header, records []Record) []Record {
	positions := make([]int, len(to))
	for i, name := range to {
		positions[i] = from.indexOf(name)
	}

	out := make([]Record, len(records))
	for n, rec := range records {
		projected := make(Record, len(to))
		for i, pos := range positions {
			projected[i] = field(rec, pos)
		}
		out[n] = projected
	}
	return out
}

// open returns the input stream and a function that releases it
func (in readerInput) open() (io.Reader, func() error, error) {
	switch {
	case in.fsys != nil:
		f, err := in.fsys.Open(in.path)
		if err != nil {
			return nil, nil, err
		}
		return f, f.Close, nil
	case in.path != "":
		f, err := os.Open(in.path) //nolint:gosec // dataset path comes from the operator's configuration
		if err != nil {
			return nil, nil, err
		}
		return f, f.Close, nil
	default:
		return in.reader, func() error { return nil }, nil
	}
}
