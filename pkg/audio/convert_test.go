package audio

import (
	"bytes"
	"testing"
)

func TestStereoToMono(t *testing.T) {
	t.Parallel()

	// Two stereo frames: (100, 200) and (-100, 300).
	in := Int16sToBytes([]int16{100, 200, -100, 300})
	got := BytesToInt16s(StereoToMono(in))

	want := []int16{150, 100}
	if len(got) != len(want) {
		t.Fatalf("mono samples = %d; want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("sample[%d] = %d; want %d", i, got[i], want[i])
		}
	}
}

func TestStereoToMono_Clamps(t *testing.T) {
	t.Parallel()

	in := Int16sToBytes([]int16{32767, 32767, -32768, -32768})
	got := BytesToInt16s(StereoToMono(in))
	if got[0] != 32767 {
		t.Errorf("positive clamp = %d; want 32767", got[0])
	}
	if got[1] != -32768 {
		t.Errorf("negative clamp = %d; want -32768", got[1])
	}
}

func TestResampleMono16_Identity(t *testing.T) {
	t.Parallel()

	in := Int16sToBytes([]int16{1, 2, 3, 4})
	if got := ResampleMono16(in, 16000, 16000); !bytes.Equal(got, in) {
		t.Error("same-rate resample should return input unchanged")
	}
}

func TestResampleMono16_Halves48kTo16k(t *testing.T) {
	t.Parallel()

	// 48 constant samples at 48 kHz should become 16 at 16 kHz with the
	// same value throughout (linear interpolation of a constant).
	src := make([]int16, 48)
	for i := range src {
		src[i] = 1000
	}
	got := BytesToInt16s(ResampleMono16(Int16sToBytes(src), 48000, 16000))
	if len(got) != 16 {
		t.Fatalf("resampled samples = %d; want 16", len(got))
	}
	for i, s := range got {
		if s != 1000 {
			t.Errorf("sample[%d] = %d; want 1000", i, s)
		}
	}
}

func TestResampleMono16_Upsample(t *testing.T) {
	t.Parallel()

	src := []int16{0, 1000}
	got := BytesToInt16s(ResampleMono16(Int16sToBytes(src), 8000, 16000))
	if len(got) != 4 {
		t.Fatalf("resampled samples = %d; want 4", len(got))
	}
	// Interpolated midpoint between 0 and 1000.
	if got[1] != 500 {
		t.Errorf("sample[1] = %d; want 500", got[1])
	}
}

func TestToRecognizerFormat(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		samples  []int16
		rate     int
		channels int
		wantLen  int // in samples
	}{
		{"already recognizer format", []int16{1, 2, 3, 4}, 16000, 1, 4},
		{"stereo 16k", []int16{1, 1, 2, 2}, 16000, 2, 2},
		{"mono 48k", make([]int16, 48), 48000, 1, 16},
		{"stereo 48k", make([]int16, 96), 48000, 2, 16},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := ToRecognizerFormat(Int16sToBytes(tc.samples), tc.rate, tc.channels)
			if len(got)/2 != tc.wantLen {
				t.Errorf("output samples = %d; want %d", len(got)/2, tc.wantLen)
			}
		})
	}
}

func TestToRecognizerFormat_DropsOddByte(t *testing.T) {
	t.Parallel()

	in := append(Int16sToBytes([]int16{1, 2}), 0xFF)
	got := ToRecognizerFormat(in, 16000, 1)
	if len(got) != 4 {
		t.Errorf("output bytes = %d; want 4 (odd byte dropped)", len(got))
	}
}

func TestInt16RoundTrip(t *testing.T) {
	t.Parallel()

	in := []int16{0, 1, -1, 32767, -32768, 12345}
	got := BytesToInt16s(Int16sToBytes(in))
	for i := range in {
		if got[i] != in[i] {
			t.Errorf("sample[%d] = %d; want %d", i, got[i], in[i])
		}
	}
}
