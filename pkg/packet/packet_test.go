package packet

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindString(t *testing.T) {
	assert.Equal(t, "video", KindVideo.String())
	assert.Equal(t, "audio", KindAudio.String())
	assert.Equal(t, "unknown", KindUnknown.String())
	assert.Equal(t, "unknown", Kind(99).String())
}

func TestDescriptorRepairFixesPowerOfTenNumerator(t *testing.T) {
	d := Descriptor{TimeBase: Rational{Num: 1, Den: 90000}}
	d.Repair()
	assert.Equal(t, Rational{Num: 1000, Den: 90000}, d.TimeBase)
}

func TestDescriptorRepairLeavesSaneTimeBaseAlone(t *testing.T) {
	d := Descriptor{TimeBase: Rational{Num: 1001, Den: 30000}}
	d.Repair()
	assert.Equal(t, Rational{Num: 1001, Den: 30000}, d.TimeBase)
}

func TestDescriptorRepairIsIdempotent(t *testing.T) {
	d := Descriptor{TimeBase: Rational{Num: 1, Den: 1000}}
	d.Repair()
	once := d.TimeBase
	d.Repair()
	assert.Equal(t, once, d.TimeBase)
}

func TestDescriptorRepairIgnoresNonUnitNumerator(t *testing.T) {
	d := Descriptor{TimeBase: Rational{Num: 2, Den: 90000}}
	d.Repair()
	assert.Equal(t, Rational{Num: 2, Den: 90000}, d.TimeBase)
}
