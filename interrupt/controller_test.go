package interrupt

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type source struct {
	serviced []int
}

func (src *source) InterruptServiced(vector int) {
	src.serviced = append(src.serviced, vector)
}

func TestControllerPriority(t *testing.T) {
	assert := assert.New(t)

	ic := NewController(15)
	low := &source{}
	high := &source{}

	assert.Equal(NONE, ic.Pending())
	ic.Flag(3, low, true)
	ic.Flag(7, high, true)
	assert.Equal(7, ic.Pending())

	ic.Flag(7, high, false)
	assert.Equal(3, ic.Pending())

	ic.Flag(3, low, false)
	assert.Equal(NONE, ic.Pending())
}

func TestControllerOwner(t *testing.T) {
	assert := assert.New(t)

	ic := NewController(15)
	owner := &source{}
	other := &source{}

	ic.Flag(5, owner, true)
	ic.Flag(5, other, false)
	assert.Equal(5, ic.Pending())
	ic.Flag(5, owner, false)
	assert.Equal(NONE, ic.Pending())
}

func TestControllerService(t *testing.T) {
	assert := assert.New(t)

	ic := NewController(15)
	low := &source{}
	high := &source{}

	ic.Flag(3, low, true)
	ic.Flag(7, high, true)

	prio, src := ic.Service()
	assert.Equal(7, prio)
	assert.Equal(high, src)
	assert.Equal([]int{7}, high.serviced)
	assert.True(ic.Servicing())
	assert.Equal(7, ic.Serviced())
	assert.Equal(3, ic.Pending())

	ic.Return()
	assert.False(ic.Servicing())
	assert.Equal(3, ic.Pending())

	prio, _ = ic.Service()
	assert.Equal(3, prio)
	ic.Return()

	prio, src = ic.Service()
	assert.Equal(NONE, prio)
	assert.Nil(src)
	assert.False(ic.Servicing())
}

func TestControllerReset(t *testing.T) {
	assert := assert.New(t)

	ic := NewController(15)
	assert.False(ic.Flag(14, &source{}, true))
	assert.True(ic.Flag(15, nil, true))
	assert.True(ic.NonMaskable(ic.Pending()))

	ic.Service()
	ic.Reset()
	assert.Equal(NONE, ic.Pending())
	assert.False(ic.Servicing())

	// Out of range priorities are ignored.
	ic.Flag(16, &source{}, true)
	ic.Flag(-1, &source{}, true)
	assert.Equal(NONE, ic.Pending())
}

func TestControllerVector(t *testing.T) {
	assert := assert.New(t)

	ic := NewController(15)
	assert.Equal(uint32(0xfffe), ic.Vector(15))
	assert.Equal(uint32(0xffe0), ic.Vector(0))
	assert.Equal(uint32(0xfff0), ic.Vector(8))
}
