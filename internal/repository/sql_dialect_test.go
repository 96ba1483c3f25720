package repository

import (
	"testing"
)

func TestBuildLikeConditionSQLite(t *testing.T) {
	condition, argCount := buildLikeCondition(nil, []string{"invoice_no", " ", "error"})
	if argCount != 2 {
		t.Fatalf("arg count want 2 got %d", argCount)
	}
	if condition != "invoice_no LIKE ? OR error LIKE ?" {
		t.Fatalf("unexpected condition: %s", condition)
	}
}

func TestBuildLikeConditionPostgres(t *testing.T) {
	condition, argCount := buildLikeConditionByDialect("postgres", []string{"invoice_no"})
	if argCount != 1 || condition != "invoice_no ILIKE ?" {
		t.Fatalf("unexpected postgres condition: %s (%d)", condition, argCount)
	}
}

func TestRepeatLikeArgs(t *testing.T) {
	args := repeatLikeArgs("%INV%", 3)
	if len(args) != 3 {
		t.Fatalf("args length want 3 got %d", len(args))
	}
	for i, arg := range args {
		if arg != "%INV%" {
			t.Fatalf("arg %d mismatch: %v", i, arg)
		}
	}
}
