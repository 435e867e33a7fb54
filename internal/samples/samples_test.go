package samples

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

func TestReaderWithHeader(t *testing.T) {
	in := `t,ax,ay,az,gx,gy,gz,mx,my,mz
# static, level, facing north
0,0,0,9.81,0,0,0,0.3,0,0.4
0.01, 0.1, -0.2, 9.8, 0.01, 0.02, -0.03, 0.31, 0.01, 0.39
`
	got, err := ReadAll(strings.NewReader(in))
	require.NoError(t, err)

	want := []Sample{
		{T: 0, Acc: r3.Vec{Z: 9.81}, Mag: r3.Vec{X: 0.3, Z: 0.4}},
		{
			T:    0.01,
			Acc:  r3.Vec{X: 0.1, Y: -0.2, Z: 9.8},
			Gyro: r3.Vec{X: 0.01, Y: 0.02, Z: -0.03},
			Mag:  r3.Vec{X: 0.31, Y: 0.01, Z: 0.39},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("samples mismatch (-want +got):\n%s", diff)
	}
}

func TestReaderWithoutHeader(t *testing.T) {
	got, err := ReadAll(strings.NewReader("1,2,3,4,5,6,7,8,9,10\n"))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 1.0, got[0].T)
	assert.Equal(t, r3.Vec{X: 8, Y: 9, Z: 10}, got[0].Mag)
}

func TestReaderErrors(t *testing.T) {
	_, err := ReadAll(strings.NewReader("0,1,2,3\n"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrShortRecord))
	assert.Contains(t, err.Error(), "line 1")

	_, err = ReadAll(strings.NewReader("t,ax,ay,az,gx,gy,gz,mx,my,mz\n0,0,0,1,0,0,0,x,0,0\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
	assert.Contains(t, err.Error(), "mx")
}

func TestSampleRoundTrip(t *testing.T) {
	in := []Sample{
		{T: 0, Acc: r3.Vec{Z: 1}, Gyro: r3.Vec{X: 0.1}, Mag: r3.Vec{X: 1}},
		{T: 0.005, Acc: r3.Vec{X: 1e-9, Y: -3.25, Z: 9.80665}, Gyro: r3.Vec{Z: -1.5}, Mag: r3.Vec{Y: 48.2}},
	}

	var buf bytes.Buffer
	w := NewSampleWriter(&buf)
	for _, s := range in {
		require.NoError(t, w.Write(s))
	}
	require.NoError(t, w.Flush())

	assert.True(t, strings.HasPrefix(buf.String(), strings.Join(SampleHeader, ",")+"\n"))

	out, err := ReadAll(&buf)
	require.NoError(t, err)
	if diff := cmp.Diff(in, out); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestEstimateWriter(t *testing.T) {
	var buf bytes.Buffer
	w := NewEstimateWriter(&buf)
	require.NoError(t, w.Write(Estimate{T: 0.01, Q: quat.Number{Real: 1}}))
	require.NoError(t, w.Write(Estimate{T: 0.02, Q: quat.Number{Real: 0.5, Imag: 0.5, Jmag: 0.5, Kmag: 0.5}, Yaw: 1.5, Skipped: true}))
	require.NoError(t, w.Flush())

	want := "t,w,x,y,z,yaw,pitch,roll,skipped\n" +
		"0.01,1,0,0,0,0,0,0,false\n" +
		"0.02,0.5,0.5,0.5,0.5,1.5,0,0,true\n"
	assert.Equal(t, want, buf.String())
}

func TestGenerator(t *testing.T) {
	a := NewGenerator(1, 100, 0.01)
	b := NewGenerator(1, 100, 0.01)

	for i := 0; i < 100; i++ {
		sa, err := a.Next()
		require.NoError(t, err)
		sb, err := b.Next()
		require.NoError(t, err)
		require.Equal(t, sa, sb)

		assert.InDelta(t, float64(i)*0.01, sa.T, 1e-12)
		for _, v := range []float64{sa.Acc.X, sa.Acc.Y, sa.Acc.Z, sa.Gyro.X, sa.Gyro.Y, sa.Gyro.Z, sa.Mag.X, sa.Mag.Y, sa.Mag.Z} {
			assert.GreaterOrEqual(t, v, 0.0)
			assert.Less(t, v, 10.0)
		}
	}

	_, err := a.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestSliceSource(t *testing.T) {
	src := NewSliceSource([]Sample{{T: 1}, {T: 2}})

	s, err := src.Next()
	require.NoError(t, err)
	assert.Equal(t, 1.0, s.T)
	s, err = src.Next()
	require.NoError(t, err)
	assert.Equal(t, 2.0, s.T)
	_, err = src.Next()
	assert.ErrorIs(t, err, io.EOF)
}
