package reader

import (
	"encoding/csv"
	"strings"
)

// Tokenize splits a log line into whitespace-separated tokens, honoring
// double-quoted fields the way the access log itself quotes the request
// line ("GET /x HTTP/1.1"). It uses encoding/csv with a space delimiter and
// strict quoting: an unterminated quote and a stray quote inside an
// unquoted field are errors. A doubled quote ("") inside a quoted field is
// read as one literal quote, following encoding/csv; it is not rejected.
func Tokenize(line string) ([]string, error) {
	csvReader := csv.NewReader(strings.NewReader(line))
	csvReader.Comma = ' '
	csvReader.LazyQuotes = false
	csvReader.TrimLeadingSpace = false
	csvReader.FieldsPerRecord = -1

	record, err := csvReader.Read()
	if err != nil {
		return nil, err //nolint:wrapcheck
	}

	return record, nil
}
