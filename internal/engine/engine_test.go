package engine

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRefCount(t *testing.T) {
	var r RefCount
	assert.Equal(t, 0, r.Dependents())

	r.Retain()
	r.Retain()
	assert.Equal(t, 2, r.Dependents())

	r.Release()
	r.Release()
	r.Release()
	assert.Equal(t, 0, r.Dependents())
}

func TestRefCount_Concurrent(t *testing.T) {
	var r RefCount
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.Retain()
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, r.Dependents())
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "body", KindBody.String())
	assert.Equal(t, "joint", KindJoint.String())
	assert.Equal(t, "force", KindForce.String())
	assert.Equal(t, "shaft", KindShaft.String())
	assert.Equal(t, "Kind(9)", Kind(9).String())
}
