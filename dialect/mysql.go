package dialect

import "fmt"

func init() {
	Register("mysql", &mysql{})
}

// MySQL dialect implementation
type mysql struct{}

func (d *mysql) Quote(name string) string {
	return fmt.Sprintf("`%s`", name)
}

func (d *mysql) Placeholder(index int) string {
	return "?"
}

// MySQL requires a LIMIT before OFFSET; the manual's unbounded value.
func (d *mysql) NoLimit() string {
	return "18446744073709551615"
}

// MySQL has no RETURNING clause; mutations report affected counts only.
func (d *mysql) SupportsReturning() bool {
	return false
}
