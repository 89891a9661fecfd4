package diag

// Batch is an ordered collection of diagnostics processed as one unit.
// Order is acquisition order.
type Batch []Diagnostic
