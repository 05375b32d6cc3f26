package core

import "testing"

func TestOrderBy(t *testing.T) {
	allowed := map[string]string{"name": "name", "code": "code"}

	tests := []struct {
		name      string
		orderings []DBOrdering
		want      string
	}{
		{name: "no orderings", want: "name ASC"},
		{name: "unknown field", orderings: []DBOrdering{{Field: "password_hash", Ascending: true}}, want: "name ASC"},
		{name: "descending", orderings: []DBOrdering{{Field: "code"}}, want: "code DESC"},
		{
			name:      "multiple",
			orderings: []DBOrdering{{Field: "code", Ascending: true}, {Field: "lol"}, {Field: "name"}},
			want:      "code ASC, name DESC",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := OrderBy(tt.orderings, allowed, "name ASC"); got != tt.want {
				t.Errorf("OrderBy() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCleanString(t *testing.T) {
	if got := CleanString("  Budi Santoso \n"); got != "Budi Santoso" {
		t.Errorf("CleanString() = %q", got)
	}
	if got := CleanString("  ANDI@Sekolah.id ", true); got != "andi@sekolah.id" {
		t.Errorf("CleanString(lower) = %q", got)
	}
}
