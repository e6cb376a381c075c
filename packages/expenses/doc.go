// Package expenses catalogs the resources of the expense API under test:
// gastos únicos, gastos recurrentes and débitos automáticos.
//
// Each Entity knows its collection path, the JSON schema of one item and a
// payload template rendered with the resolver's builtin functions. The
// catalog describes shapes only; it encodes no business rules.
package expenses
