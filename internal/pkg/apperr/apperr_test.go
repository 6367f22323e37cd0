package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusMapping(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{Validation("Title is required"), http.StatusBadRequest},
		{Conflict("Category with this name already exists"), http.StatusBadRequest},
		{NotFound("Post not found"), http.StatusNotFound},
		{Forbidden("Not authorized to update this post"), http.StatusForbidden},
		{Unauthorized("Not authorized, no token"), http.StatusUnauthorized},
		{Internal(errors.New("boom")), http.StatusInternalServerError},
		{errors.New("plain"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Status(tc.err), tc.err.Error())
	}
}

func TestKindSurvivesWrapping(t *testing.T) {
	err := fmt.Errorf("update post: %w", NotFound("Post not found"))
	assert.True(t, Is(err, KindNotFound))
	assert.Equal(t, http.StatusNotFound, Status(err))
}

func TestValidationJoinsDetails(t *testing.T) {
	err := Validation("Title is required", "Content is required")
	assert.Equal(t, "Title is required; Content is required", err.Error())
	assert.Equal(t, "Title is required", err.Message)
}
