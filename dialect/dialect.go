// Package dialect holds the database-specific SQL details the engine needs
// to honor a native query: identifier quoting, bind placeholders, and
// whether mutations can report their affected rows back.
package dialect

// Dialect captures the SQL surface that differs between databases.
type Dialect interface {
	// Quote wraps a table or column name in database-specific quotes.
	Quote(name string) string
	// Placeholder returns the bind placeholder for the given 1-based index.
	Placeholder(index int) string
	// NoLimit returns the LIMIT literal meaning "unbounded", for dialects
	// whose grammar cannot express OFFSET without a LIMIT clause. Empty
	// means OFFSET may stand alone.
	NoLimit() string
	// SupportsReturning reports whether INSERT/UPDATE/DELETE can carry a
	// RETURNING clause.
	SupportsReturning() bool
}

var dialects = make(map[string]Dialect)

// Register registers a dialect for a driver name.
func Register(name string, d Dialect) {
	dialects[name] = d
}

// Get retrieves a registered dialect by driver name.
func Get(name string) (Dialect, bool) {
	d, ok := dialects[name]
	return d, ok
}
