package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestID_PreservesEncoding(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		output  string
		text    string
		isEmpty bool
	}{
		{name: "number", input: `{"id":1,"email":"user1@example.com"}`, output: `{"id":1,"email":"user1@example.com"}`, text: "1"},
		{name: "string", input: `{"id":"1","email":"a@x.com"}`, output: `{"id":"1","email":"a@x.com"}`, text: "1"},
		{name: "null", input: `{"id":null,"email":"a@x.com"}`, output: `{"id":null,"email":"a@x.com"}`, isEmpty: true},
		{name: "missing", input: `{"email":"a@x.com"}`, output: `{"id":null,"email":"a@x.com"}`, isEmpty: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var identity Identity
			require.NoError(t, json.Unmarshal([]byte(tt.input), &identity))

			assert.Equal(t, tt.isEmpty, identity.ID.IsZero())
			assert.Equal(t, tt.text, identity.ID.String())

			out, err := json.Marshal(identity)
			require.NoError(t, err)
			assert.JSONEq(t, tt.output, string(out))
		})
	}
}

func TestID_RejectsCompositeValues(t *testing.T) {
	for _, input := range []string{`{"id":{}}`, `{"id":[1]}`, `{"id":true}`} {
		var identity Identity
		assert.Error(t, json.Unmarshal([]byte(input), &identity), input)
	}
}

func TestID_Constructors(t *testing.T) {
	assert.Equal(t, `"fallback-1"`, string(StringID("fallback-1")))
	assert.Equal(t, `42`, string(NumberID(42)))
	assert.Equal(t, "fallback-1", StringID("fallback-1").String())
}

func TestSession_Valid(t *testing.T) {
	var nilSession *Session
	assert.False(t, nilSession.Valid())
	assert.False(t, (&Session{Identity: Identity{Email: "a@x.com"}}).Valid())
	assert.True(t, (&Session{Token: "tkn"}).Valid())
}
