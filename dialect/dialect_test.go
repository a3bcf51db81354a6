package dialect

import "testing"

func TestRegistry(t *testing.T) {
	for _, name := range []string{"mysql", "postgres", "sqlite3"} {
		if _, ok := Get(name); !ok {
			t.Errorf("dialect %q not registered", name)
		}
	}
	if _, ok := Get("oracle"); ok {
		t.Errorf("unexpected dialect registered")
	}
}

func TestQuoting(t *testing.T) {
	my, _ := Get("mysql")
	pg, _ := Get("postgres")
	lite, _ := Get("sqlite3")

	if got := my.Quote("users"); got != "`users`" {
		t.Errorf("mysql quote = %s", got)
	}
	if got := pg.Quote("users"); got != `"users"` {
		t.Errorf("postgres quote = %s", got)
	}
	if got := lite.Quote("users"); got != "`users`" {
		t.Errorf("sqlite3 quote = %s", got)
	}
}

func TestPlaceholders(t *testing.T) {
	my, _ := Get("mysql")
	pg, _ := Get("postgres")

	if got := my.Placeholder(3); got != "?" {
		t.Errorf("mysql placeholder = %s", got)
	}
	if got := pg.Placeholder(3); got != "$3" {
		t.Errorf("postgres placeholder = %s", got)
	}
}

func TestNoLimit(t *testing.T) {
	my, _ := Get("mysql")
	pg, _ := Get("postgres")
	lite, _ := Get("sqlite3")

	if got := my.NoLimit(); got != "18446744073709551615" {
		t.Errorf("mysql no-limit = %s", got)
	}
	if got := pg.NoLimit(); got != "" {
		t.Errorf("postgres needs no LIMIT before OFFSET, got %s", got)
	}
	if got := lite.NoLimit(); got != "-1" {
		t.Errorf("sqlite3 no-limit = %s", got)
	}
}

func TestReturningSupport(t *testing.T) {
	my, _ := Get("mysql")
	pg, _ := Get("postgres")
	lite, _ := Get("sqlite3")

	if my.SupportsReturning() {
		t.Errorf("mysql must not claim RETURNING support")
	}
	if !pg.SupportsReturning() || !lite.SupportsReturning() {
		t.Errorf("postgres and sqlite3 support RETURNING")
	}
}
