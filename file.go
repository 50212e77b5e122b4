package retailsql

import (
	"path/filepath"
	"strings"

	"github.com/nao1215/retailsql/domain/model"
)

// FileType represents the dataset file formats the store can load
type FileType int

const (
	// FileTypeCSV represents CSV file type
	FileTypeCSV FileType = iota
	// FileTypeTSV represents TSV file type
	FileTypeTSV
	// FileTypeXLSX represents Excel XLSX file type (first sheet is loaded)
	FileTypeXLSX
	// FileTypeParquet represents Parquet file type
	FileTypeParquet
	// FileTypeUnsupported represents unsupported file type
	FileTypeUnsupported
)

// File extensions
const (
	// extCSV is the CSV file extension
	extCSV = ".csv"
	// extTSV is the TSV file extension
	extTSV = ".tsv"
	// extParquet is the Parquet file extension
	extParquet = ".parquet"
	// extXLSX is the Excel XLSX file extension
	extXLSX = ".xlsx"
	// extGZ is the gzip compression extension
	extGZ = ".gz"
	// extBZ2 is the bzip2 compression extension
	extBZ2 = ".bz2"
	// extXZ is the xz compression extension
	extXZ = ".xz"
	// extZSTD is the zstd compression extension
	extZSTD = ".zst"
)

// File format delimiters
const (
	// csvDelimiter is the delimiter for CSV files
	csvDelimiter = ','
	// tsvDelimiter is the delimiter for TSV files
	tsvDelimiter = '\t'
)

// String returns the string representation of FileType
func (ft FileType) String() string {
	switch ft {
	case FileTypeCSV:
		return "csv"
	case FileTypeTSV:
		return "tsv"
	case FileTypeXLSX:
		return "xlsx"
	case FileTypeParquet:
		return "parquet"
	default:
		return "unsupported"
	}
}

// source identifies one dataset input by name, format and compression
type source struct {
	name        string
	fileType    FileType
	compression model.CompressionType
}

// newSource derives format and compression from a file name such as "OnlineRetail.csv.gz"
func newSource(name string) source {
	return source{
		name:        name,
		fileType:    detectFileType(name),
		compression: detectCompressionType(name),
	}
}

// detectCompressionType detects the compression type from a file path
func detectCompressionType(path string) model.CompressionType {
	path = strings.ToLower(path)

	switch {
	case strings.HasSuffix(path, extGZ):
		return model.CompressionGZ
	case strings.HasSuffix(path, extBZ2):
		return model.CompressionBZ2
	case strings.HasSuffix(path, extXZ):
		return model.CompressionXZ
	case strings.HasSuffix(path, extZSTD):
		return model.CompressionZSTD
	default:
		return model.CompressionNone
	}
}

// removeCompressionExtension removes the compression extension from a file path if present
func removeCompressionExtension(path string) string {
	for _, ext := range []string{extGZ, extBZ2, extXZ, extZSTD} {
		if strings.HasSuffix(strings.ToLower(path), ext) {
			return path[:len(path)-len(ext)]
		}
	}
	return path
}

// detectFileType determines the base file type after removing compression extensions
func detectFileType(path string) FileType {
	ext := strings.ToLower(filepath.Ext(removeCompressionExtension(path)))

	switch ext {
	case extCSV:
		return FileTypeCSV
	case extTSV:
		return FileTypeTSV
	case extXLSX:
		return FileTypeXLSX
	case extParquet:
		return FileTypeParquet
	default:
		return FileTypeUnsupported
	}
}

// isSupportedFile checks if the file has a supported extension
func isSupportedFile(fileName string) bool {
	return detectFileType(fileName) != FileTypeUnsupported
}
