package cpf

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		id   string
		want bool
	}{
		{
			name: "valid cpf",
			id:   "52998224725",
			want: true,
		},
		{
			name: "valid cpf with formatting",
			id:   "529.982.247-25",
			want: true,
		},
		{
			name: "last digit altered",
			id:   "52998224726",
			want: false,
		},
		{
			name: "first check digit altered",
			id:   "52998224735",
			want: false,
		},
		{
			name: "eleven identical digits",
			id:   "11111111111",
			want: false,
		},
		{
			name: "too short",
			id:   "5299822472",
			want: false,
		},
		{
			name: "too long",
			id:   "529982247251",
			want: false,
		},
		{
			name: "non digit characters",
			id:   "52998a24725",
			want: false,
		},
		{
			name: "empty",
			id:   "",
			want: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Validate(tt.id))
		})
	}
}
