package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPlainText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "I like Velociraptor", "I like Velociraptor"},
		{"inline tags", "I like <b>Velo</b>ciraptor", "I like Velociraptor"},
		{"blocks", "<p>rawr</p><p>rawrs</p>", "rawr rawrs"},
		{"script dropped", "<p>rex</p><script>var x = 'Brachiosaurus'</script>", "rex"},
		{"style dropped", "<style>p{color:red}</style>fossils", "fossils"},
		{"entities", "T&amp;rex", "T&rex"},
		{"whitespace", "  a \n\t b  ", "a b"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PlainText(tt.in))
		})
	}
}
