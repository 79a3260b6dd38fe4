// Package ingest loads batch rows from JSON, JSONL, YAML and CSV files.
//
// Every format carries the same fields: id, prompt, model, system,
// developer, temperature and a data map of template values. In CSV files
// the data map is made of every column that is not one of the named
// fields. Rows without an id get a random UUID.
package ingest
