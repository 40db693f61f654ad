package chunk

import (
	"testing"

	"github.com/cheezgi/piccolo/internal/value"
	"github.com/stretchr/testify/assert"
)

// Grounded on original_source/src/lib.rs's get_line_from_index test.
func TestGetLineFromIndex(t *testing.T) {
	c := New()
	lines := []int{1, 1, 1, 1, 1, 1, 2, 2, 2, 2, 2, 3, 3, 3, 3, 4, 4, 4, 4, 5}
	for _, line := range lines {
		c.WriteOp(OpReturn, line)
	}

	assert.Equal(t, 1, c.GetLineFromIndex(0))
	assert.Equal(t, 1, c.GetLineFromIndex(5))
	assert.Equal(t, 2, c.GetLineFromIndex(6))
	assert.Equal(t, 2, c.GetLineFromIndex(10))
	assert.Equal(t, 3, c.GetLineFromIndex(11))
	assert.Equal(t, 3, c.GetLineFromIndex(14))
}

func TestWriteArgU16LittleEndian(t *testing.T) {
	c := New()
	c.WriteArgU16(OpConstant, 0xbead, 1)
	assert.Equal(t, byte(OpConstant), c.Code[0])
	assert.Equal(t, byte(0xad), c.Code[1])
	assert.Equal(t, byte(0xbe), c.Code[2])
	assert.Equal(t, uint16(0xbead), c.ReadShort(1))
}

func TestJumpPatch(t *testing.T) {
	c := New()
	placeholder := c.WriteJump(OpJumpFalse, 1)
	c.WriteOp(OpNil, 1)
	c.WriteOp(OpNil, 1)
	err := c.PatchJump(placeholder)
	assert.NoError(t, err)
	assert.Equal(t, uint16(2), c.ReadShort(placeholder))
}

func TestMakeConstantOverflowGuard(t *testing.T) {
	c := New()
	_, err := c.MakeConstant(value.ConstInteger(1))
	assert.NoError(t, err)

	for len(c.Constants) < 0xffff {
		_, err = c.MakeConstant(value.ConstInteger(int64(len(c.Constants))))
	}
	_, err = c.MakeConstant(value.ConstInteger(0))
	assert.Error(t, err)
}

func TestEveryTwoByteOpcodeHasTwoOperandBytes(t *testing.T) {
	for op := OpCode(0); op < opCount; op++ {
		if !twoByteOperand(op) {
			continue
		}
		c := New()
		c.WriteArgU16(op, 3, 1)
		assert.Equal(t, len(c.Code), len(c.Lines))
		assert.Equal(t, 3, len(c.Code))
	}
}
