package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateNamespace(t *testing.T) {
	tests := []struct {
		name      string
		namespace Identifier
		wantErr   bool
	}{
		{"single level", Identifier{"db"}, false},
		{"nested", Identifier{"a", "b", "c"}, false},
		{"empty", Identifier{}, true},
		{"blank level", Identifier{"a", " "}, true},
		{"slash", Identifier{"a/b"}, true},
		{"backslash", Identifier{`a\b`}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateNamespace(tt.namespace)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidArgument)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateTableIdent(t *testing.T) {
	assert.NoError(t, ValidateTableIdent(Identifier{"db", "events"}))
	assert.ErrorIs(t, ValidateTableIdent(Identifier{"events"}), ErrInvalidArgument)
	assert.ErrorIs(t, ValidateTableIdent(Identifier{"db", ""}), ErrInvalidArgument)
}

func TestTableIdent(t *testing.T) {
	ns := Identifier{"a", "b"}
	ident := TableIdent(ns, "t")

	assert.Equal(t, Identifier{"a", "b", "t"}, ident)
	assert.Equal(t, Identifier{"a", "b"}, NamespaceOf(ident))
	assert.Equal(t, "t", TableNameOf(ident))

	// the namespace slice is not aliased
	ident[0] = "x"
	assert.Equal(t, "a", ns[0])
}

func TestUpdateProperties(t *testing.T) {
	current := Properties{"owner": "alice", "retention": "7d"}

	next, summary, err := UpdateProperties(current, []string{"retention", "absent"}, Properties{"owner": "bob", "tier": "gold"})
	require.NoError(t, err)

	assert.Equal(t, Properties{"owner": "bob", "tier": "gold"}, next)
	assert.Equal(t, []string{"retention"}, summary.Removed)
	assert.Equal(t, []string{"owner", "tier"}, summary.Updated)
	assert.Equal(t, []string{"absent"}, summary.Missing)

	// input is untouched
	assert.Equal(t, "alice", current["owner"])
}

func TestUpdatePropertiesConflict(t *testing.T) {
	_, _, err := UpdateProperties(Properties{}, []string{"k"}, Properties{"k": "v"})
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestCloneProperties(t *testing.T) {
	assert.NotNil(t, CloneProperties(nil))

	src := Properties{"a": "1"}
	dst := CloneProperties(src)
	dst["a"] = "2"
	assert.Equal(t, "1", src["a"])
}
