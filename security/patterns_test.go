package security

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultLibrary_Order(t *testing.T) {
	lib := DefaultLibrary()
	all := lib.All()
	require.Equal(t, len(defaultDefinitions), len(all))

	// - SQL before XSS before command injection before path traversal before NoSQL/LDAP
	assert.Equal(t, SQLInjectionUnion, all[0].Name)
	index := func(name string) int {
		for i, p := range all {
			if p.Name == name {
				return i
			}
		}
		t.Fatalf("pattern %q missing", name)
		return -1
	}
	assert.Less(t, index(SQLInjectionComment), index(XSSScriptTag))
	assert.Less(t, index(XSSEmbeddedObject), index(CommandInjectionChain))
	assert.Less(t, index(CommandInjectionSubshell), index(PathTraversal))
	assert.Less(t, index(PathTraversalEncoded), index(NoSQLInjectionOperator))
	assert.Less(t, index(NoSQLInjectionOperator), index(LDAPInjectionFilter))
}

func TestLibrary_AllReturnsCopy(t *testing.T) {
	lib := DefaultLibrary()
	all := lib.All()
	all[0].Name = "mutated"

	assert.Equal(t, SQLInjectionUnion, lib.All()[0].Name)
}

func TestLibrary_ByName(t *testing.T) {
	lib := DefaultLibrary()

	t.Run("Known name", func(t *testing.T) {
		p, ok := lib.ByName(XSSScriptTag)
		require.True(t, ok)
		assert.Equal(t, ThreatCritical, p.ThreatLevel)
	})

	t.Run("Unknown name", func(t *testing.T) {
		_, ok := lib.ByName("does_not_exist")
		assert.False(t, ok)
	})
}

func TestLibrary_ByLevel(t *testing.T) {
	lib := DefaultLibrary()
	medium := lib.ByLevel(ThreatMedium)

	require.NotEmpty(t, medium)
	for _, p := range medium {
		assert.Equal(t, ThreatMedium, p.ThreatLevel)
	}
	assert.Empty(t, lib.ByLevel(ThreatLevel(0)))
}

func TestNewLibrary_Rejects(t *testing.T) {
	re := regexp.MustCompile(`x`)

	t.Run("Duplicate names", func(t *testing.T) {
		_, err := NewLibrary(Pattern{Name: "a", Regex: re}, Pattern{Name: "a", Regex: re})
		assert.Error(t, err)
	})

	t.Run("Missing expression", func(t *testing.T) {
		_, err := NewLibrary(Pattern{Name: "a"})
		assert.Error(t, err)
	})

	t.Run("Empty name", func(t *testing.T) {
		_, err := NewLibrary(Pattern{Regex: re})
		assert.Error(t, err)
	})
}

func TestThreatLevel_Ordering(t *testing.T) {
	assert.True(t, ThreatLow < ThreatMedium)
	assert.True(t, ThreatMedium < ThreatHigh)
	assert.True(t, ThreatHigh < ThreatCritical)
}

func TestParseThreatLevel(t *testing.T) {
	for _, level := range []ThreatLevel{ThreatLow, ThreatMedium, ThreatHigh, ThreatCritical} {
		parsed, err := ParseThreatLevel(level.String())
		require.NoError(t, err)
		assert.Equal(t, level, parsed)
	}

	_, err := ParseThreatLevel("severe")
	assert.Error(t, err)
}
