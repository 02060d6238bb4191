package postgres

import (
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/lessonshop/internal/domain"
)

func TestResolveLessonID(t *testing.T) {
	tests := []struct {
		name string
		id   string
		want []string
	}{
		{
			name: "canonical uuid",
			id:   "0b5c3a8e-6f0e-4c39-9b1d-2f7f5b0c9a11",
			want: []string{"0b5c3a8e-6f0e-4c39-9b1d-2f7f5b0c9a11"},
		},
		{
			name: "upper-case uuid tries canonical form first",
			id:   "0B5C3A8E-6F0E-4C39-9B1D-2F7F5B0C9A11",
			want: []string{"0b5c3a8e-6f0e-4c39-9b1d-2f7f5b0c9a11", "0B5C3A8E-6F0E-4C39-9B1D-2F7F5B0C9A11"},
		},
		{
			name: "braced uuid",
			id:   "{0b5c3a8e-6f0e-4c39-9b1d-2f7f5b0c9a11}",
			want: []string{"0b5c3a8e-6f0e-4c39-9b1d-2f7f5b0c9a11", "{0b5c3a8e-6f0e-4c39-9b1d-2f7f5b0c9a11}"},
		},
		{
			name: "opaque string",
			id:   "lesson_1700000000_1",
			want: []string{"lesson_1700000000_1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, resolveLessonID(tt.id))
		})
	}
}

func TestPatchAssignments(t *testing.T) {
	assignments, args := patchAssignments(domain.LessonPatch{})
	require.Empty(t, assignments)
	require.Empty(t, args)

	price := 12.5
	spaces := 0
	image := "images/x.png"
	assignments, args = patchAssignments(domain.LessonPatch{Price: &price, Spaces: &spaces, Image: &image})

	require.Equal(t, []string{"price = $1", "spaces = $2", "image = $3"}, assignments)
	require.Equal(t, []any{12.5, 0, "images/x.png"}, args)
}

func TestIsUniqueViolation(t *testing.T) {
	require.True(t, isUniqueViolation(&pgconn.PgError{Code: "23505"}))
	require.False(t, isUniqueViolation(&pgconn.PgError{Code: "22001"}))
	require.False(t, isUniqueViolation(errors.New("plain error")))
}
