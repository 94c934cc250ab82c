package migration

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMigrations_AreIdempotentDDL(t *testing.T) {
	ms := Migrations()
	assert.Len(t, ms, 2)
	seen := map[string]bool{}
	for _, m := range ms {
		assert.False(t, seen[m.Name], "duplicate migration %s", m.Name)
		seen[m.Name] = true
		assert.NotNil(t, m.Up)
	}
	for _, q := range []string{createResumeDocuments, indexResumeDocumentsOwner} {
		assert.True(t, strings.Contains(q, "IF NOT EXISTS"), q)
	}
}
