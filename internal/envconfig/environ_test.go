package envconfig

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnviron(t *testing.T) {
	env := Environ([]string{
		"CATALOG_URI=jdbc:sqlite:a=b",
		"EMPTY=",
		"BROKEN",
		"=nameless",
	})

	assert.Equal(t, map[string]string{
		"CATALOG_URI": "jdbc:sqlite:a=b",
		"EMPTY":       "",
	}, env)
}
