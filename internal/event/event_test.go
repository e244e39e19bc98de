package event

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseType(t *testing.T) {
	for _, known := range AllTypes {
		parsed, err := ParseType(string(known))
		require.NoError(t, err)
		assert.Equal(t, known, parsed)
	}

	_, err := ParseType("employee.promoted")
	assert.Error(t, err)

	_, err = ParseType("")
	assert.Error(t, err)
}

func TestParseAction(t *testing.T) {
	for _, raw := range []string{"created", "updated", "deleted"} {
		parsed, err := ParseAction(raw)
		require.NoError(t, err)
		assert.Equal(t, Action(raw), parsed)
	}

	_, err := ParseAction("CREATED")
	assert.Error(t, err)
}

func TestEventValidate(t *testing.T) {
	valid := Event{
		UserID:    "user-1",
		UserName:  "Jane Doe",
		Type:      TypeProfileUpdated,
		Action:    ActionUpdated,
		NewData:   map[string]any{"name": "Jane Doe"},
		Timestamp: time.Now(),
	}
	assert.NoError(t, valid.Validate())

	missingUser := valid
	missingUser.UserID = ""
	assert.Error(t, missingUser.Validate())

	badType := valid
	badType.Type = "profile.renamed"
	assert.Error(t, badType.Validate())

	badAction := valid
	badAction.Action = "upserted"
	assert.Error(t, badAction.Validate())
}

func TestAllTypesMatchesConstants(t *testing.T) {
	assert.Len(t, AllTypes, 9)
	seen := make(map[Type]bool, len(AllTypes))
	for _, typ := range AllTypes {
		assert.False(t, seen[typ], "duplicate type %q", typ)
		seen[typ] = true
	}
}
