package querybuilder

import (
	"errors"
	"testing"
	"time"
)

type profileRow struct {
	UserID    string    `db:"user_id"`
	Step      *int      `db:"onboarding_step"`
	Status    string    `db:"onboarding_status"`
	CreatedAt time.Time `db:"created_at"`
	internal  string
	Skipped   string `db:"-"`
}

func TestSelectBuilder(t *testing.T) {
	query, args, err := Select("user_id", "onboarding_status").
		From("onboarding_profiles").
		Where(Eq("user_id", "u-1"), IsNull("deleted_at"), Expr("created_at > ?", "2026-01-01")).
		OrderBy("created_at DESC").
		Limit(1).
		ToSQL()
	if err != nil {
		t.Fatalf("build select: %v", err)
	}

	want := "SELECT user_id, onboarding_status FROM onboarding_profiles WHERE user_id = $1 AND deleted_at IS NULL AND created_at > $2 ORDER BY created_at DESC LIMIT 1"
	if query != want {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", want, query)
	}
	if len(args) != 2 || args[0] != "u-1" || args[1] != "2026-01-01" {
		t.Fatalf("unexpected args: %+v", args)
	}
}

func TestSelectBuilder_RequiresTable(t *testing.T) {
	if _, _, err := Select("id").ToSQL(); !errors.Is(err, ErrMissingTable) {
		t.Fatalf("expected ErrMissingTable, got %v", err)
	}
}

func TestColumns(t *testing.T) {
	got := Columns(profileRow{})
	want := []string{"user_id", "onboarding_step", "onboarding_status", "created_at"}
	if len(got) != len(want) {
		t.Fatalf("unexpected columns: %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("column %d: got %s want %s", i, got[i], want[i])
		}
	}
}

func TestInsert_Upsert(t *testing.T) {
	step := 2
	row := profileRow{UserID: "u-1", Step: &step, Status: "normal"}

	query, args, err := Insert("onboarding_profiles", row).
		OnConflict("user_id").
		Keep("created_at").
		ToSQL()
	if err != nil {
		t.Fatalf("build upsert: %v", err)
	}

	want := "INSERT INTO onboarding_profiles (user_id, onboarding_step, onboarding_status, created_at) VALUES ($1, $2, $3, $4)" +
		" ON CONFLICT (user_id) DO UPDATE SET onboarding_step = EXCLUDED.onboarding_step, onboarding_status = EXCLUDED.onboarding_status"
	if query != want {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", want, query)
	}
	if len(args) != 4 || args[0] != "u-1" {
		t.Fatalf("unexpected args: %+v", args)
	}
}

func TestInsert_DoNothingReturning(t *testing.T) {
	query, _, err := Insert("onboarding_documents", &profileRow{UserID: "u-1"}).
		OnConflict("user_id").
		DoNothing().
		Returning("user_id").
		ToSQL()
	if err != nil {
		t.Fatalf("build insert: %v", err)
	}

	want := "INSERT INTO onboarding_documents (user_id, onboarding_step, onboarding_status, created_at) VALUES ($1, $2, $3, $4)" +
		" ON CONFLICT (user_id) DO NOTHING RETURNING user_id"
	if query != want {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", want, query)
	}
}

func TestInsert_RejectsNonStruct(t *testing.T) {
	if _, _, err := Insert("t", "value").ToSQL(); err == nil {
		t.Fatalf("expected error for non-struct model")
	}
	var nilRow *profileRow
	if _, _, err := Insert("t", nilRow).ToSQL(); err == nil {
		t.Fatalf("expected error for nil model")
	}
}
