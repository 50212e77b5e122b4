package retailsql

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"github.com/apache/arrow/go/v18/arrow/array"
	pqfile "github.com/apache/arrow/go/v18/parquet/file"
	"github.com/apache/arrow/go/v18/parquet/pqarrow"
	"github.com/nao1215/retailsql/driver"
	"github.com/xuri/excelize/v2"
)

// rawTable is a parsed dataset before cleaning
type rawTable struct {
	header  header
	records []Record
}

// datasetParser reads one decompressed dataset stream into a rawTable
type datasetParser struct {
	fileType FileType
	encoding Encoding
}

// newDatasetParser creates a parser for the given format and text encoding
func newDatasetParser(fileType FileType, enc Encoding) *datasetParser {
	return &datasetParser{fileType: fileType, encoding: enc}
}

// parse dispatches on the file type
func (p *datasetParser) parse(ctx context.Context, reader io.Reader) (*rawTable, error) {
	var (
		table *rawTable
		err   error
	)
	switch p.fileType {
	case FileTypeCSV:
		table, err = p.parseDelimited(decodeReader(reader, p.encoding), csvDelimiter)
	case FileTypeTSV:
		table, err = p.parseDelimited(decodeReader(reader, p.encoding), tsvDelimiter)
	case FileTypeXLSX:
		table, err = p.parseXLSX(reader)
	case FileTypeParquet:
		table, err = p.parseParquet(ctx, reader)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, p.fileType)
	}
	if err != nil {
		return nil, err
	}

	if err := validateColumnNames(table.header); err != nil {
		return nil, err
	}
	if err := driver.ValidateColumnCount(len(table.header)); err != nil {
		return nil, err
	}
	return table, nil
}

// parseDelimited parses CSV or TSV data with the specified delimiter
func (p *datasetParser) parseDelimited(reader io.Reader, delimiter rune) (*rawTable, error) {
	csvReader := csv.NewReader(reader)
	csvReader.Comma = delimiter
	csvReader.FieldsPerRecord = -1
	csvReader.LazyQuotes = true

	first, err := csvReader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty dataset: no header row")
		}
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	h := newHeader(first)

	var records []Record
	for {
		row, err := csvReader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read record: %w", err)
		}
		records = append(records, newRecord(row, len(h)))
	}
	return &rawTable{header: h, records: records}, nil
}

// parseXLSX loads the first sheet of a workbook
func (p *datasetParser) parseXLSX(reader io.Reader) (*rawTable, error) {
	xlsxFile, err := excelize.OpenReader(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer func() {
		_ = xlsxFile.Close() // Ignore close error
	}()

	sheetNames := xlsxFile.GetSheetList()
	if len(sheetNames) == 0 {
		return nil, errors.New("no sheets found in workbook")
	}

	rows, err := xlsxFile.GetRows(sheetNames[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheetNames[0], err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("sheet %s is empty", sheetNames[0])
	}

	h := newHeader(rows[0])
	records := make([]Record, 0, len(rows)-1)
	for _, row := range rows[1:] {
		records = append(records, newRecord(row, len(h)))
	}
	return &rawTable{header: h, records: records}, nil
}

// parseParquet reads every row group of a Parquet file
func (p *datasetParser) parseParquet(ctx context.Context, reader io.Reader) (*rawTable, error) {
	// Parquet requires random access
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read parquet data: %w", err)
	}
	if len(data) == 0 {
		return nil, errors.New("empty parquet file")
	}

	pqReader, err := pqfile.NewParquetReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create parquet reader: %w", err)
	}
	defer pqReader.Close()

	arrowReader, err := pqarrow.NewFileReader(pqReader, pqarrow.ArrowReadProperties{}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create arrow reader: %w", err)
	}

	table, err := arrowReader.ReadTable(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read table: %w", err)
	}
	defer table.Release()

	schema := table.Schema()
	h := make(header, schema.NumFields())
	for i, field := range schema.Fields() {
		h[i] = field.Name
	}

	tableReader := array.NewTableReader(table, 0)
	defer tableReader.Release()

	records := make([]Record, 0, table.NumRows())
	for tableReader.Next() {
		batch := tableReader.Record()
		for i := 0; i < int(batch.NumRows()); i++ {
			row := make(Record, batch.NumCols())
			for j, col := range batch.Columns() {
				if col.IsNull(i) {
					continue
				}
				row[j] = col.ValueStr(i)
			}
			records = append(records, row)
		}
	}
	if err := tableReader.Err(); err != nil {
		return nil, fmt.Errorf("error reading table records: %w", err)
	}
	return &rawTable{header: h, records: records}, nil
}
