package application

import "testing"

func TestPageNormalize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in, want Page
	}{
		{Page{}, Page{Offset: 0, Limit: DefaultPageSize}},
		{Page{Offset: -3, Limit: 5}, Page{Offset: 0, Limit: 5}},
		{Page{Offset: 40, Limit: 1000}, Page{Offset: 40, Limit: MaxPageSize}},
	}
	for _, tt := range tests {
		if got := tt.in.Normalize(); got != tt.want {
			t.Errorf("%+v.Normalize() = %+v, want %+v", tt.in, got, tt.want)
		}
	}
}
