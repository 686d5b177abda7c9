package compiler

import (
	"context"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func compile(t *testing.T, src string) *Result {
	t.Helper()
	log := logrus.NewEntry(logrus.New())
	res, err := Compile(context.Background(), "test.yb", []byte(src), log)
	require.NoError(t, err)
	require.NotNil(t, res)
	return res
}

func TestCompileTrivialProgram(t *testing.T) {
	res := compile(t, "var x = 1;")
	assert.False(t, res.Diags.HasErrors())
	require.NotNil(t, res.Image)
	assert.NotEmpty(t, res.Image.Words)
}

func TestCompileFunctionCallUsesTrampoline(t *testing.T) {
	res := compile(t, `
		int add(int a, int b) { return a + b; }
		var result = add(1, 2);
	`)
	assert.False(t, res.Diags.HasErrors())
	require.NotNil(t, res.Image)
}

func TestCompileUnusedFunctionOmitted(t *testing.T) {
	res := compile(t, `
		int unused(int a) { return a; }
		var x = 1;
	`)
	assert.False(t, res.Diags.HasErrors())
	require.NotNil(t, res.Image)
}

func TestCompileErrorSuppressesImage(t *testing.T) {
	res := compile(t, "var x = undeclared_name;")
	assert.True(t, res.Diags.HasErrors())
	assert.Nil(t, res.Image)
}

func TestCompileInvalidCharacterLiteralIsLayoutError(t *testing.T) {
	res := compile(t, "var s = \"café\";")
	assert.True(t, res.Diags.HasErrors())
	assert.Nil(t, res.Image)
}

func TestCompileDuplicateFunctionIsResolveError(t *testing.T) {
	res := compile(t, `
		int f(int a) { return a; }
		int f(int a) { return a; }
	`)
	assert.True(t, res.Diags.HasErrors())
}

func TestCompileForLoopWithPostfixIncrement(t *testing.T) {
	res := compile(t, `
		var v = 0;
		for (; v < 10; v++) {
			v += 1;
		}
	`)
	assert.False(t, res.Diags.HasErrors())
	require.NotNil(t, res.Image)
}

func TestCompilePrefixDecrement(t *testing.T) {
	res := compile(t, `
		var v = 10;
		--v;
	`)
	assert.False(t, res.Diags.HasErrors())
	require.NotNil(t, res.Image)
}

func TestCompileBankedPointerAssignment(t *testing.T) {
	res := compile(t, `
		int[] bank 1 screen = create_pointer(0xD26F, 1);
		var pixel = screen[0];
	`)
	assert.False(t, res.Diags.HasErrors())
	require.NotNil(t, res.Image)
}
