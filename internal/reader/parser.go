package reader

import (
	"fmt"

	"github.com/jkroepke/logscrape-exporter/internal/config"
)

// LineParser applies one global.format schema to successive log lines. A
// LineParser is not safe for concurrent use; each tail worker owns its own.
type LineParser struct {
	columns  config.FormatColumns
	labelCap int
	valueCap int
}

// NewLineParser builds a LineParser from a validated format schema.
func NewLineParser(columns config.FormatColumns) *LineParser {
	labelCap, valueCap := 0, 0

	for _, column := range columns {
		switch {
		case column.Skip:
		case column.Kind == "request_header":
			labelCap += 3
		case column.Kind == "label":
			labelCap++
		default:
			valueCap++
		}
	}

	return &LineParser{columns: columns, labelCap: labelCap, valueCap: valueCap}
}

// Parse tokenizes line and applies the schema to it. A schema/token-count
// mismatch or a malformed column value is reported as *ParseError and the
// caller must count it, never propagate it to the next line. An empty line
// yields ErrSkipLine.
func (p *LineParser) Parse(line string) (*ParsedLine, error) {
	if line == "" {
		return nil, ErrSkipLine
	}

	tokens, err := Tokenize(line)
	if err != nil {
		return nil, &ParseError{Err: fmt.Errorf("tokenize: %w", err)}
	}

	if len(tokens) == 0 {
		return nil, ErrSkipLine
	}

	if len(tokens) != len(p.columns) {
		return nil, &ParseError{Err: fmt.Errorf("expected %d columns, got %d", len(p.columns), len(tokens))}
	}

	parsed := newParsedLine(p.labelCap, p.valueCap)

	for i, column := range p.columns {
		tok := tokens[i]

		if column.Skip {
			continue
		}

		switch column.Kind {
		case "label":
			applyLabel(parsed, column.Name, tok)
		case "request_header":
			if err := applyRequestHeader(parsed, tok); err != nil {
				return nil, &ParseError{Column: column.Name, Err: err}
			}
		case "clf_number":
			if err := applyCLFNumber(parsed, column.Name, tok); err != nil {
				return nil, &ParseError{Column: column.Name, Err: err}
			}
		default:
			// "number" and "number+<bucket-set>" both carry a plain float value;
			// the registry decides counter vs. histogram from the schema kind.
			if err := applyNumber(parsed, column.Name, tok); err != nil {
				return nil, &ParseError{Column: column.Name, Err: err}
			}
		}
	}

	return parsed, nil
}
