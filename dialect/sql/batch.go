package sql

import "github.com/gustavorviana/sharporm"

// BatchLimits bounds a single multi-row statement. Zero means unlimited
// once the limits are in a Config. A zero passed to a Config selects the
// dialect default instead, and only MySQL defaults to no row ceiling:
// SQL Server caps a VALUES list at 1000 rows and Firebird has no
// multi-row VALUES.
type BatchLimits struct {
	MaxParams int `yaml:"max_params"`
	MaxRows   int `yaml:"max_rows"`
}

// exceeded reports whether a statement holding rows rows and params
// parameters is over the limits.
func (l BatchLimits) exceeded(rows, params int) bool {
	return (l.MaxRows > 0 && rows > l.MaxRows) || (l.MaxParams > 0 && params > l.MaxParams)
}

// batchStatement describes a multi-row statement: the text written before
// the value list, how a row is written, and the text written after it.
type batchStatement struct {
	header func(*Builder)
	row    func(*Builder, Row)
	footer func(*Builder)
}

// foldRows distributes rows over as many statements as the limits require.
// Every row lands in exactly one statement, in order, and the header is
// written once per statement. A row that overflows the current statement
// is rolled back through the builder savepoint and starts the next one.
func foldRows(newBuilder func() *Builder, rows []Row, limits BatchLimits, st batchStatement) ([]Expression, error) {
	if len(rows) == 0 {
		return nil, sharporm.NewQueryStateError("batch", "no rows")
	}
	var (
		stmts []Expression
		b     *Builder
		n     int // rows in the current statement
	)
	begin := func(i int) error {
		b = newBuilder()
		st.header(b)
		st.row(b, rows[i])
		n = 1
		if limits.exceeded(n, b.NumArgs()) {
			return sharporm.NewQueryStateError("batch",
				"row %d needs %d parameters, more than the limit of %d", i+1, b.NumArgs(), limits.MaxParams)
		}
		return b.Err()
	}
	end := func() error {
		if st.footer != nil {
			st.footer(b)
		}
		if err := b.Err(); err != nil {
			return err
		}
		stmts = append(stmts, b.Expression())
		return nil
	}
	if err := begin(0); err != nil {
		return nil, err
	}
	for i := 1; i < len(rows); i++ {
		b.CreateSavePoint()
		b.Add(", ")
		st.row(b, rows[i])
		if !limits.exceeded(n+1, b.NumArgs()) {
			b.ResetSavePoint()
			n++
			continue
		}
		b.BuildSavePoint()
		if err := end(); err != nil {
			return nil, err
		}
		if err := begin(i); err != nil {
			return nil, err
		}
	}
	if err := end(); err != nil {
		return nil, err
	}
	return stmts, nil
}
