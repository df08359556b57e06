package postgres

import (
	"reflect"
	"testing"

	"github.com/jackc/pgx/v5"
)

func TestSplitFQN(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want pgx.Identifier
	}{
		{"release", pgx.Identifier{"release"}},
		{"discogs.release", pgx.Identifier{"discogs", "release"}},
		{"discogs.", pgx.Identifier{"discogs"}},
	}
	for _, tc := range cases {
		if got := splitFQN(tc.in); !reflect.DeepEqual(got, tc.want) {
			t.Errorf("splitFQN(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestIdentAppliesSchema(t *testing.T) {
	t.Parallel()

	r := &Repository{schema: "discogs"}
	if got := r.ident("release"); !reflect.DeepEqual(got, pgx.Identifier{"discogs", "release"}) {
		t.Errorf("ident = %v, want schema prefix applied", got)
	}
	// An already-qualified name wins over the configured schema.
	if got := r.ident("other.release"); !reflect.DeepEqual(got, pgx.Identifier{"other", "release"}) {
		t.Errorf("ident = %v, want explicit qualification kept", got)
	}

	bare := &Repository{}
	if got := bare.ident("release"); !reflect.DeepEqual(got, pgx.Identifier{"release"}) {
		t.Errorf("ident = %v, want unqualified name untouched", got)
	}
}
