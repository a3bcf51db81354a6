package dialect

import "fmt"

func init() {
	Register("sqlite3", &sqlite3{})
}

// SQLite dialect implementation
type sqlite3 struct{}

func (d *sqlite3) Quote(name string) string {
	return fmt.Sprintf("`%s`", name)
}

func (d *sqlite3) Placeholder(index int) string {
	return "?"
}

// SQLite requires a LIMIT before OFFSET; -1 means unbounded.
func (d *sqlite3) NoLimit() string {
	return "-1"
}

func (d *sqlite3) SupportsReturning() bool {
	return true
}
