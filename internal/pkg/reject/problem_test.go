package reject

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProblemBuilder(t *testing.T) {
	p := NewProblem().
		WithTitle("Player not found").
		WithStatus(http.StatusNotFound).
		WithCode("error.player.not-found").
		WithParam("name", "Napoleon Bonaparte").
		Build()

	assert.Equal(t, "Player not found", p.Title)
	assert.Equal(t, http.StatusNotFound, p.Status)
	assert.Equal(t, map[string]string{"name": "Napoleon Bonaparte"}, p.Params)
}

func TestProblemWithTraceUnwraps(t *testing.T) {
	cause := errors.New("connection refused")
	pwt := Unexpected(cause)

	assert.Equal(t, http.StatusInternalServerError, pwt.Problem.Status)
	assert.ErrorIs(t, pwt, cause)
	assert.Equal(t, "Unexpected error: connection refused", pwt.Error())
}
