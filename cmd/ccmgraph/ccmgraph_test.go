package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildStructureGraphIncludesEveryLeaf(t *testing.T) {
	structure := map[string]string{
		"/src/main.c": "main.c~1:file:src",
		"/src/util.c": "util.c~1:file:src",
		"/README":     "README~1:file:base",
	}
	g := buildStructureGraph(structure)
	dot := g.String()

	assert.True(t, strings.Contains(dot, "main.c"))
	assert.True(t, strings.Contains(dot, "util.c"))
	assert.True(t, strings.Contains(dot, "README"))
	assert.True(t, strings.Contains(dot, "main.c~1:file:src"))
}

func TestBuildStructureGraphSharesCommonAncestors(t *testing.T) {
	structure := map[string]string{
		"/src/a/x.c": "x.c~1:file:a",
		"/src/b/y.c": "y.c~1:file:b",
	}
	g := buildStructureGraph(structure)
	dot := g.String()

	// both files hang off a shared "/src" parent node; building the
	// graph over two leaves under it should not panic or drop either leaf.
	assert.True(t, strings.Contains(dot, "x.c"))
	assert.True(t, strings.Contains(dot, "y.c"))
}

func TestBuildStructureGraphEmptyStructure(t *testing.T) {
	g := buildStructureGraph(map[string]string{})
	assert.NotNil(t, g)
}
