package parsers

import "moneyflow/internal/domain/statement"

// NewRegistry returns a registry with every built-in statement parser.
func NewRegistry(layout statement.Layout, secrets SecretOpener) *statement.Registry {
	r := statement.NewRegistry()
	r.Register(&Delimited{})
	r.Register(&Spreadsheet{})
	r.Register(NewPositionalPDF(layout, secrets))
	r.Register(&Recognition{})
	return r
}
