package internal

import (
	"encoding/csv"
	"fmt"
	"io"
	"path"
	"strings"
)

// DatasetKind identifies which canonicalization strategy a dataset gets.
type DatasetKind string

const (
	KindEdgeList    DatasetKind = "edge list"
	KindContactList DatasetKind = "contact list"
	KindSynapseList DatasetKind = "synapse list"
	KindAdjacency   DatasetKind = "adjacency"
)

// classifyRules are checked in order; the first fragment found in the file
// name wins.
var classifyRules = []DatasetKind{
	KindEdgeList,
	KindContactList,
	KindSynapseList,
	KindAdjacency,
}

// ClassifyDataset matches a destination file name against the known dataset
// kinds, case-insensitively, by substring. The extension is ignored.
func ClassifyDataset(name string) (DatasetKind, bool) {
	base := path.Base(name)
	stem := strings.ToLower(strings.TrimSuffix(base, path.Ext(base)))
	for _, kind := range classifyRules {
		if strings.Contains(stem, string(kind)) {
			return kind, true
		}
	}
	return "", false
}

// Codec turns one raw dataset into its canonical serialization. The whole
// input is consumed in a single forward pass; the output is only valid if
// Canonicalize returns nil.
type Codec interface {
	Canonicalize(r io.Reader, w io.Writer) error
}

// CodecFor returns the codec for a dataset kind.
func CodecFor(kind DatasetKind) Codec {
	switch kind {
	case KindEdgeList:
		return &tableCodec{
			delimiter:   ',',
			fns:         []FieldFunc{TrimField, TrimField, IntField, TrimField},
			intCols:     []bool{false, false, true, false},
			fixedHeader: []string{"Source", "Target", "Weight", "Type"},
		}
	case KindContactList:
		return &tableCodec{
			delimiter: '\t',
			fns: []FieldFunc{
				TrimField, TrimField, IntField, IntField,
				TrimField, IntField, IntField, IntField,
			},
			intCols: []bool{false, false, true, true, false, true, true, true},
		}
	case KindSynapseList:
		return &tableCodec{
			delimiter: ',',
			fns:       []FieldFunc{TrimField, SortedListField, IntField, IntField, TrimField},
			intCols:   []bool{false, false, true, true, false},
		}
	case KindAdjacency:
		return rawCodec{}
	default:
		return nil
	}
}

// tableCodec canonicalizes a delimited table: parse, validate arity against
// the schema, normalize each field, sort, and re-serialize as CSV. The input
// delimiter varies per kind; output is always comma-delimited.
type tableCodec struct {
	delimiter rune
	fns       []FieldFunc
	intCols   []bool
	// fixedHeader replaces the upstream header when set; otherwise the
	// upstream header is trimmed field-wise and re-emitted.
	fixedHeader []string
}

func (c *tableCodec) Canonicalize(r io.Reader, w io.Writer) error {
	reader := csv.NewReader(r)
	reader.Comma = c.delimiter
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return &MalformedRowError{Reason: fmt.Errorf("missing header row")}
	}
	if err != nil {
		return &MalformedRowError{Reason: fmt.Errorf("reading header: %w", err)}
	}

	raw, err := reader.ReadAll()
	if err != nil {
		// Unparseable input is a per-dataset problem, not a batch one.
		return &MalformedRowError{Reason: fmt.Errorf("reading rows: %w", err)}
	}

	arity := len(c.fns)
	for _, row := range raw {
		if len(row) != 0 && len(row) != arity {
			return &MalformedRowError{
				Row:    row,
				Reason: fmt.Errorf("expected %d fields, got %d", arity, len(row)),
			}
		}
	}

	rows, err := NormalizeRows(raw, c.fns)
	if err != nil {
		return err
	}
	SortRows(rows, c.intCols, false)

	writer := csv.NewWriter(w)
	if err := writer.Write(c.header(header)); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	if err := writer.WriteAll(rows); err != nil {
		return fmt.Errorf("writing rows: %w", err)
	}
	return nil
}

func (c *tableCodec) header(upstream []string) []string {
	if c.fixedHeader != nil {
		return c.fixedHeader
	}
	trimmed := make([]string, len(upstream))
	for i, field := range upstream {
		trimmed[i] = strings.TrimSpace(field)
	}
	return trimmed
}

// rawCodec copies the input through unmodified. Used for adjacency matrices,
// whose rows already have positional meaning and must not be reordered.
type rawCodec struct{}

func (rawCodec) Canonicalize(r io.Reader, w io.Writer) error {
	if _, err := io.Copy(w, r); err != nil {
		return fmt.Errorf("copying raw dataset: %w", err)
	}
	return nil
}
