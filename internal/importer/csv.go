// Package importer reads defect entries from CSV files exported by other
// tools, which on Japanese Windows are usually Shift_JIS encoded.
package importer

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"defect-ledger/internal/logger"
	"defect-ledger/internal/model"

	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Options controls CSV decoding
type Options struct {
	Encoding  string // auto, utf-8 or shift_jis
	HasHeader bool   // Skip the first line
}

// ReadFile reads path and decodes it to UTF-8.
// With encoding "auto", valid UTF-8 is kept and anything else is decoded as Shift_JIS.
func ReadFile(path, encoding string) (string, error) {
	rawBytes, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", model.ErrNotFound, path)
		}
		return "", fmt.Errorf("%w: failed to read file: %v", model.ErrIO, err)
	}
	return Decode(rawBytes, encoding)
}

// Decode converts raw bytes to a UTF-8 string according to encoding
func Decode(rawBytes []byte, encoding string) (string, error) {
	rawBytes = bytes.TrimPrefix(rawBytes, utf8BOM)

	switch strings.ToLower(encoding) {
	case "", "auto":
		if utf8.Valid(rawBytes) {
			return string(rawBytes), nil
		}
		logger.Debug("Input is not valid UTF-8, decoding as Shift_JIS")
		return decodeShiftJIS(rawBytes)
	case "utf-8", "utf8":
		if !utf8.Valid(rawBytes) {
			return "", fmt.Errorf("%w: input is not valid UTF-8", model.ErrValidation)
		}
		return string(rawBytes), nil
	case "shift_jis", "sjis", "cp932":
		return decodeShiftJIS(rawBytes)
	default:
		return "", fmt.Errorf("%w: unsupported encoding %q", model.ErrValidation, encoding)
	}
}

func decodeShiftJIS(rawBytes []byte) (string, error) {
	decoded, _, err := transform.Bytes(japanese.ShiftJIS.NewDecoder(), rawBytes)
	if err != nil {
		return "", fmt.Errorf("%w: Shift_JIS decode: %v", model.ErrValidation, err)
	}
	return string(decoded), nil
}

// ReadRecords parses a CSV file into records. Every line must carry the 12
// ledger columns in order; blank lines are skipped.
func ReadRecords(path string, opts Options) ([]model.Record, error) {
	content, err := ReadFile(path, opts.Encoding)
	if err != nil {
		return nil, err
	}
	return ParseRecords(strings.NewReader(content), opts.HasHeader)
}

// ParseRecords parses UTF-8 CSV content into records
func ParseRecords(r io.Reader, hasHeader bool) ([]model.Record, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	var records []model.Record
	for first := true; ; first = false {
		fields, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", model.ErrValidation, err)
		}
		if first && hasHeader {
			continue
		}
		if isBlank(fields) {
			continue
		}

		rec, err := model.FromValues(fields)
		if err != nil {
			line, _ := reader.FieldPos(0)
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		records = append(records, rec)
	}

	logger.Debug("Parsed %d CSV records", len(records))
	return records, nil
}

func isBlank(fields []string) bool {
	for _, f := range fields {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
