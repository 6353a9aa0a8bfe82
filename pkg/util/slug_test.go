package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "Cyrillic name",
			in:   "Семена томата",
			want: "semena-tomata",
		},
		{
			name: "Soft sign dropped",
			in:   "Инвентарь",
			want: "inventar",
		},
		{
			name: "Mixed latin and digits",
			in:   "Лейка 5л",
			want: "leyka-5l",
		},
		{
			name: "Extra spaces collapse",
			in:   "  Грабли   веерные  ",
			want: "grabli-veernye",
		},
		{
			name: "Punctuation stripped",
			in:   "Удобрение (весна/лето)!",
			want: "udobrenie-vesna-leto",
		},
		{
			name: "Already latin",
			in:   "Fiskars QuikFit",
			want: "fiskars-quikfit",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Slugify(tt.in))
		})
	}
}
