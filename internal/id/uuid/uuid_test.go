package uuid

import (
	"testing"

	goUUID "github.com/google/uuid"
)

func TestGeneratorVersions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		gen  *Generator
		want goUUID.Version
	}{
		{"run ids", NewRunIDGenerator(), 7},
		{"envelope ids", NewEnvelopeIDGenerator(), 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			id1, err := tt.gen.NewID()
			if err != nil {
				t.Fatalf("NewID() error = %v", err)
			}
			id2, err := tt.gen.NewID()
			if err != nil {
				t.Fatalf("NewID() error = %v", err)
			}
			if id1 == id2 {
				t.Fatalf("expected unique IDs, got %s and %s", id1, id2)
			}
			parsed, err := goUUID.Parse(id1)
			if err != nil {
				t.Fatalf("id not valid UUID: %v", err)
			}
			if parsed.Version() != tt.want {
				t.Fatalf("expected version %d, got %d", tt.want, parsed.Version())
			}
		})
	}
}
