package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompile_AttributeAliasAndMatch(t *testing.T) {
	c, err := Compile("status='released' and type='dir'", "~", DefaultAliases)
	require.NoError(t, err)

	assert.Contains(t, c.SQL, "attrib.name = 'status_log' AND")
	assert.Contains(t, c.SQL, "ccm_status(attrib.textval) = ?")
	assert.Contains(t, c.SQL, "cv.cvtype = ?")
	assert.Equal(t, []interface{}{"released", "dir"}, c.Args)
}

func TestCompile_MatchReplacesGlobStar(t *testing.T) {
	c, err := Compile("name match 'foo*.c'", "~", DefaultAliases)
	require.NoError(t, err)

	assert.Contains(t, c.SQL, "cv.name LIKE ?")
	assert.Equal(t, []interface{}{"foo%.c"}, c.Args)
}

func TestCompile_UnknownAttributePassesThroughLiterally(t *testing.T) {
	c, err := Compile("made_up_field='x'", "~", DefaultAliases)
	require.NoError(t, err)
	assert.Contains(t, c.SQL, "made_up_field = ?")
}

func TestCompile_FunctionCall_IsSuccessorOf(t *testing.T) {
	c, err := Compile(`is_successor_of('a~1:file:inst')`, "~", DefaultAliases)
	require.NoError(t, err)
	assert.Contains(t, c.SQL, "relate.name = 'successor'")
	assert.Equal(t, []interface{}{"a", "1", "file", "inst"}, c.Args)
}

func TestCompile_FunctionCall_IsChildOf(t *testing.T) {
	c, err := Compile(`is_child_of('a~1:file:inst', 'p~1:project:inst')`, "~", DefaultAliases)
	require.NoError(t, err)
	assert.Contains(t, c.SQL, "bind.has_child")
	assert.Equal(t, []interface{}{"p", "1", "project", "inst", "a", "1", "file", "inst"}, c.Args)
}

func TestCompile_FunctionCall_MembershipDirections(t *testing.T) {
	// is_member_of pins the assembly side, has_member pins the child side.
	c, err := Compile(`is_member_of('p~1:project:inst')`, "~", DefaultAliases)
	require.NoError(t, err)
	assert.Contains(t, c.SQL, "SELECT cv2.id")
	assert.Contains(t, c.SQL, "cv1.name = ?")

	c, err = Compile(`has_member('a~1:file:inst')`, "~", DefaultAliases)
	require.NoError(t, err)
	assert.Contains(t, c.SQL, "SELECT cv1.id")
	assert.Contains(t, c.SQL, "cv2.name = ?")
}

func TestCompile_UnknownFunctionIsCompileError(t *testing.T) {
	_, err := Compile(`no_such_function('x')`, "~", DefaultAliases)
	assert.Error(t, err)
}

func TestCompile_BooleanCompositionAndNot(t *testing.T) {
	c, err := Compile("not type='dir' and status='released'", "~", DefaultAliases)
	require.NoError(t, err)
	assert.Contains(t, c.SQL, "(NOT cv.cvtype = ?)")
	assert.Contains(t, c.SQL, " AND ")
}

func TestCompile_Or(t *testing.T) {
	c, err := Compile("type='dir' or type='project'", "~", DefaultAliases)
	require.NoError(t, err)
	assert.Contains(t, c.SQL, " OR ")
	assert.Equal(t, []interface{}{"dir", "project"}, c.Args)
}
