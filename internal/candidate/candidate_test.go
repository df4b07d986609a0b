package candidate

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/spigell/ta-nexus/internal/risk"
)

func TestCloneDoesNotShareSlices(t *testing.T) {
	p := Profile{Skills: []string{"go"}, JobHistory: []risk.Job{{TenureMonths: 12}}}
	c := p.Clone()
	c.Skills[0] = "rust"
	c.JobHistory[0].TenureMonths = 1

	assert.Equal(t, "go", p.Skills[0])
	assert.Equal(t, 12.0, p.JobHistory[0].TenureMonths)
}

func TestFirstLastName(t *testing.T) {
	first, last := Profile{Name: "  Ada  King Lovelace "}.FirstLastName()
	assert.Equal(t, "Ada", first)
	assert.Equal(t, "King Lovelace", last)

	first, last = Profile{Name: "Cher"}.FirstLastName()
	assert.Equal(t, "Cher", first)
	assert.Empty(t, last)
}
