package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type sampleRow struct {
	ID       string   `db:"id"`
	Name     string   `db:"name,omitempty"`
	Derived  int64    `db:"-"`
	Tags     []string `db:"tags"`
	internal string
	Untagged string
}

func TestColumns(t *testing.T) {
	assert.Equal(t, []string{"id", "name", "tags"}, Columns(sampleRow{}))
	assert.Equal(t, []string{"id", "name", "tags"}, Columns(&sampleRow{}))
	assert.Nil(t, Columns(42))
	assert.Nil(t, Columns((*sampleRow)(nil)))
}

func TestStructToMap(t *testing.T) {
	row := &sampleRow{ID: "a", Name: "bolt", Derived: 7, Tags: []string{"x"}, internal: "i", Untagged: "u"}

	m := StructToMap(row)
	assert.Equal(t, map[string]any{"id": "a", "name": "bolt", "tags": []string{"x"}}, m)

	m = StructToMap(row, "id", "tags")
	assert.Equal(t, map[string]any{"name": "bolt"}, m)
}

func TestPrefixColumns(t *testing.T) {
	assert.Equal(t, []string{"i.id", "i.name"}, PrefixColumns("i", []string{"id", "name"}))
}
