package sqlengine

import (
	"reflect"
	"strings"
	"testing"

	"github.com/davidtedmanjones/prequelize/core"
	"github.com/davidtedmanjones/prequelize/dialect"
)

func TestBuildSelect(t *testing.T) {
	d, _ := dialect.Get("sqlite3")

	t.Run("Plain", func(t *testing.T) {
		q := &core.NativeQuery{
			Filter: map[string]any{"name": "alice", "age": 30},
			Order:  []core.Order{{Field: "id", Desc: true}},
			Limit:  core.Limit(10),
		}
		sqlStr, args, err := buildSelect(d, "users", q, false)
		if err != nil {
			t.Fatalf("buildSelect failed: %v", err)
		}

		// Filter keys are sorted, so age precedes name.
		want := "SELECT * FROM `users` WHERE `age` = ? AND `name` = ? ORDER BY `id` DESC LIMIT ?"
		if sqlStr != want {
			t.Errorf("sql = %s\nwant %s", sqlStr, want)
		}
		if !reflect.DeepEqual(args, []any{30, "alice", 10}) {
			t.Errorf("args = %v", args)
		}
	})

	t.Run("Fields", func(t *testing.T) {
		q := &core.NativeQuery{Fields: []string{"id", "name"}}
		sqlStr, _, err := buildSelect(d, "users", q, false)
		if err != nil {
			t.Fatalf("buildSelect failed: %v", err)
		}
		if !strings.HasPrefix(sqlStr, "SELECT `id`, `name` FROM") {
			t.Errorf("projection wrong: %s", sqlStr)
		}
	})

	t.Run("Count", func(t *testing.T) {
		q := &core.NativeQuery{Filter: map[string]any{"active": true}, Limit: core.Limit(5)}
		sqlStr, args, err := buildSelect(d, "users", q, true)
		if err != nil {
			t.Fatalf("buildSelect failed: %v", err)
		}
		want := "SELECT COUNT(*) FROM `users` WHERE `active` = ?"
		if sqlStr != want {
			t.Errorf("sql = %s, want %s", sqlStr, want)
		}
		if len(args) != 1 {
			t.Errorf("count query must drop the limit: %v", args)
		}
	})

	t.Run("In", func(t *testing.T) {
		q := &core.NativeQuery{Filter: map[string]any{"id": []any{1, 2, 3}}}
		sqlStr, args, err := buildSelect(d, "users", q, false)
		if err != nil {
			t.Fatalf("buildSelect failed: %v", err)
		}
		if !strings.Contains(sqlStr, "`id` IN (?, ?, ?)") {
			t.Errorf("sql = %s", sqlStr)
		}
		if len(args) != 3 {
			t.Errorf("args = %v", args)
		}
	})

	t.Run("EmptyInMatchesNothing", func(t *testing.T) {
		q := &core.NativeQuery{Filter: map[string]any{"id": []any{}}}
		sqlStr, _, err := buildSelect(d, "users", q, false)
		if err != nil {
			t.Fatalf("buildSelect failed: %v", err)
		}
		if !strings.Contains(sqlStr, "1 = 0") {
			t.Errorf("empty IN must match nothing: %s", sqlStr)
		}
	})

	t.Run("Operators", func(t *testing.T) {
		q := &core.NativeQuery{Filter: map[string]any{
			"age":  map[string]any{"gte": 18, "lt": 65},
			"name": map[string]any{"like": "a%"},
		}}
		sqlStr, args, err := buildSelect(d, "users", q, false)
		if err != nil {
			t.Fatalf("buildSelect failed: %v", err)
		}
		want := "SELECT * FROM `users` WHERE `age` >= ? AND `age` < ? AND `name` LIKE ?"
		if sqlStr != want {
			t.Errorf("sql = %s\nwant %s", sqlStr, want)
		}
		if !reflect.DeepEqual(args, []any{18, 65, "a%"}) {
			t.Errorf("args = %v", args)
		}
	})

	t.Run("Null", func(t *testing.T) {
		q := &core.NativeQuery{Filter: map[string]any{"deleted_at": nil}}
		sqlStr, args, err := buildSelect(d, "users", q, false)
		if err != nil {
			t.Fatalf("buildSelect failed: %v", err)
		}
		if !strings.Contains(sqlStr, "`deleted_at` IS NULL") || len(args) != 0 {
			t.Errorf("sql = %s args = %v", sqlStr, args)
		}
	})

	t.Run("OffsetWithoutLimit", func(t *testing.T) {
		q := &core.NativeQuery{Offset: core.Offset(3)}
		sqlStr, args, err := buildSelect(d, "users", q, false)
		if err != nil {
			t.Fatalf("buildSelect failed: %v", err)
		}
		want := "SELECT * FROM `users` LIMIT -1 OFFSET ?"
		if sqlStr != want {
			t.Errorf("sql = %s\nwant %s", sqlStr, want)
		}
		if !reflect.DeepEqual(args, []any{3}) {
			t.Errorf("args = %v", args)
		}
	})

	t.Run("UnknownOperator", func(t *testing.T) {
		q := &core.NativeQuery{Filter: map[string]any{"age": map[string]any{"between": 5}}}
		if _, _, err := buildSelect(d, "users", q, false); err == nil {
			t.Errorf("expected error for unknown operator")
		}
	})
}

func TestBuildSelectPostgresPlaceholders(t *testing.T) {
	d, _ := dialect.Get("postgres")
	q := &core.NativeQuery{
		Filter: map[string]any{"age": map[string]any{"gte": 18}, "name": "x"},
		Limit:  core.Limit(2),
	}
	sqlStr, _, err := buildSelect(d, "users", q, false)
	if err != nil {
		t.Fatalf("buildSelect failed: %v", err)
	}
	want := `SELECT * FROM "users" WHERE "age" >= $1 AND "name" = $2 LIMIT $3`
	if sqlStr != want {
		t.Errorf("sql = %s\nwant %s", sqlStr, want)
	}
}

func TestBuildSelectOffsetOnlyPerDialect(t *testing.T) {
	q := &core.NativeQuery{Offset: core.Offset(5)}

	pg, _ := dialect.Get("postgres")
	sqlStr, _, err := buildSelect(pg, "users", q, false)
	if err != nil {
		t.Fatalf("buildSelect failed: %v", err)
	}
	if sqlStr != `SELECT * FROM "users" OFFSET $1` {
		t.Errorf("postgres sql = %s", sqlStr)
	}

	my, _ := dialect.Get("mysql")
	sqlStr, _, err = buildSelect(my, "users", q, false)
	if err != nil {
		t.Fatalf("buildSelect failed: %v", err)
	}
	if sqlStr != "SELECT * FROM `users` LIMIT 18446744073709551615 OFFSET ?" {
		t.Errorf("mysql sql = %s", sqlStr)
	}
}

func TestBuildUpdate(t *testing.T) {
	d, _ := dialect.Get("sqlite3")
	q := &core.NativeQuery{Filter: map[string]any{"id": 7}}
	sqlStr, args, err := buildUpdate(d, "users", core.Record{"name": "x", "age": 1}, q, false)
	if err != nil {
		t.Fatalf("buildUpdate failed: %v", err)
	}
	want := "UPDATE `users` SET `age` = ?, `name` = ? WHERE `id` = ?"
	if sqlStr != want {
		t.Errorf("sql = %s\nwant %s", sqlStr, want)
	}
	if !reflect.DeepEqual(args, []any{1, "x", 7}) {
		t.Errorf("args = %v", args)
	}
}

func TestBuildUpdateReturning(t *testing.T) {
	d, _ := dialect.Get("postgres")
	q := &core.NativeQuery{Filter: map[string]any{"id": 7}}
	sqlStr, _, err := buildUpdate(d, "users", core.Record{"name": "x"}, q, true)
	if err != nil {
		t.Fatalf("buildUpdate failed: %v", err)
	}
	if !strings.HasSuffix(sqlStr, " RETURNING *") {
		t.Errorf("missing RETURNING: %s", sqlStr)
	}
}

func TestBuildInsert(t *testing.T) {
	d, _ := dialect.Get("mysql")
	sqlStr, args := buildInsert(d, "users", core.Record{"name": "x", "age": 1}, true)
	want := "INSERT INTO `users` (`age`, `name`) VALUES (?, ?)"
	if sqlStr != want {
		t.Errorf("sql = %s\nwant %s", sqlStr, want)
	}
	if !reflect.DeepEqual(args, []any{1, "x"}) {
		t.Errorf("args = %v", args)
	}
}

func TestBuildDelete(t *testing.T) {
	d, _ := dialect.Get("sqlite3")
	q := &core.NativeQuery{Filter: map[string]any{"id": []int{1, 2}}}
	sqlStr, args, err := buildDelete(d, "users", q)
	if err != nil {
		t.Fatalf("buildDelete failed: %v", err)
	}
	want := "DELETE FROM `users` WHERE `id` IN (?, ?)"
	if sqlStr != want {
		t.Errorf("sql = %s, want %s", sqlStr, want)
	}
	if len(args) != 2 {
		t.Errorf("args = %v", args)
	}
}
