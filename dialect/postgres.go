package dialect

import "fmt"

func init() {
	Register("postgres", &postgres{})
}

// PostgreSQL dialect implementation
type postgres struct{}

func (d *postgres) Quote(name string) string {
	return fmt.Sprintf("%q", name)
}

// PostgreSQL uses $1, $2, $3... for placeholders
func (d *postgres) Placeholder(index int) string {
	return fmt.Sprintf("$%d", index)
}

// PostgreSQL accepts OFFSET without a LIMIT clause.
func (d *postgres) NoLimit() string {
	return ""
}

func (d *postgres) SupportsReturning() bool {
	return true
}
