package retailsql

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/apache/arrow/go/v18/arrow"
	"github.com/apache/arrow/go/v18/arrow/array"
	"github.com/apache/arrow/go/v18/arrow/memory"
	"github.com/apache/arrow/go/v18/parquet"
	"github.com/apache/arrow/go/v18/parquet/pqarrow"
	"github.com/nao1215/retailsql/domain/model"
	"github.com/xuri/excelize/v2"
)

// xlsxSheetName is the sheet an exported result is written to
const xlsxSheetName = "Result"

// Export writes the result to w in the format and compression of opts.
func (r *Result) Export(w io.Writer, opts DumpOptions) (err error) {
	writer, closeWriter, err := NewCompressionHandler(opts.Compression).CreateWriter(w)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := closeWriter(); cerr != nil {
			err = errors.Join(err, fmt.Errorf("failed to close %s writer: %w", opts.Compression, cerr))
		}
	}()

	switch opts.Format {
	case model.OutputFormatCSV:
		return r.writeDelimited(writer, csvDelimiter)
	case model.OutputFormatTSV:
		return r.writeDelimited(writer, tsvDelimiter)
	case model.OutputFormatLTSV:
		return r.writeLTSV(writer)
	case model.OutputFormatXLSX:
		return r.writeXLSX(writer)
	case model.OutputFormatParquet:
		return r.writeParquet(writer)
	default:
		return fmt.Errorf("%w: %v", model.ErrUnknownOutputFormat, opts.Format)
	}
}

// writeDelimited writes a header row followed by every row
func (r *Result) writeDelimited(w io.Writer, delimiter rune) error {
	cw := csv.NewWriter(w)
	cw.Comma = delimiter

	if err := cw.Write(r.ColumnNames()); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, row := range r.StringRows() {
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write record: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ltsvEscaper keeps every record on one line and every field in one column
var ltsvEscaper = strings.NewReplacer("\t", " ", "\n", " ", "\r", " ")

// writeLTSV writes one "label:value" line per row
func (r *Result) writeLTSV(w io.Writer) error {
	names := r.ColumnNames()
	for _, row := range r.StringRows() {
		fields := make([]string, len(row))
		for i, value := range row {
			fields[i] = names[i] + ":" + ltsvEscaper.Replace(value)
		}
		if _, err := io.WriteString(w, strings.Join(fields, "\t")+"\n"); err != nil {
			return fmt.Errorf("failed to write record: %w", err)
		}
	}
	return nil
}

// writeXLSX writes a workbook with one sheet
func (r *Result) writeXLSX(w io.Writer) error {
	f := excelize.NewFile()
	defer func() {
		_ = f.Close() // Ignore close error
	}()

	if err := f.SetSheetName("Sheet1", xlsxSheetName); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	header := make([]any, len(r.Columns))
	for i, c := range r.Columns {
		header[i] = c.Name
	}
	if err := f.SetSheetRow(xlsxSheetName, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for n, row := range r.Rows {
		cell, err := excelize.CoordinatesToCellName(1, n+2)
		if err != nil {
			return err
		}
		values := make([]any, len(row))
		copy(values, row)
		if err := f.SetSheetRow(xlsxSheetName, cell, &values); err != nil {
			return fmt.Errorf("failed to write row %d: %w", n+1, err)
		}
	}
	return f.Write(w)
}

// arrowType maps a result column type to the parquet column type
func arrowType(sqlType string) arrow.DataType {
	switch strings.ToUpper(sqlType) {
	case sqlTypeInteger:
		return arrow.PrimitiveTypes.Int64
	case sqlTypeReal:
		return arrow.PrimitiveTypes.Float64
	default:
		return arrow.BinaryTypes.String
	}
}

// writeParquet writes one row group. The file is assembled in memory because the
// parquet writer closes its sink, and w may be a compressor the caller still owns.
func (r *Result) writeParquet(w io.Writer) error {
	fields := make([]arrow.Field, len(r.Columns))
	for i, c := range r.Columns {
		fields[i] = arrow.Field{Name: c.Name, Type: arrowType(c.Type), Nullable: true}
	}
	schema := arrow.NewSchema(fields, nil)

	builder := array.NewRecordBuilder(memory.DefaultAllocator, schema)
	defer builder.Release()

	for _, row := range r.Rows {
		for i, value := range row {
			appendArrowValue(builder.Field(i), value)
		}
	}
	record := builder.NewRecord()
	defer record.Release()

	var buf bytes.Buffer
	fw, err := pqarrow.NewFileWriter(schema, &buf, parquet.NewWriterProperties(), pqarrow.DefaultWriterProps())
	if err != nil {
		return fmt.Errorf("failed to create parquet writer: %w", err)
	}
	if err := fw.Write(record); err != nil {
		_ = fw.Close()
		return fmt.Errorf("failed to write parquet record: %w", err)
	}
	if err := fw.Close(); err != nil {
		return fmt.Errorf("failed to close parquet writer: %w", err)
	}

	_, err = io.Copy(w, &buf)
	return err
}

// appendArrowValue appends value to b, converting between numeric and text cells
func appendArrowValue(b array.Builder, value any) {
	if value == nil {
		b.AppendNull()
		return
	}
	switch fb := b.(type) {
	case *array.Int64Builder:
		switch x := value.(type) {
		case int64:
			fb.Append(x)
		default:
			n, err := strconv.ParseInt(FormatValue(value), 10, 64)
			if err != nil {
				fb.AppendNull()
				return
			}
			fb.Append(n)
		}
	case *array.Float64Builder:
		switch x := value.(type) {
		case float64:
			fb.Append(x)
		case int64:
			fb.Append(float64(x))
		default:
			f, err := strconv.ParseFloat(FormatValue(value), 64)
			if err != nil {
				fb.AppendNull()
				return
			}
			fb.Append(f)
		}
	case *array.StringBuilder:
		fb.Append(FormatValue(value))
	default:
		b.AppendNull()
	}
}
