package bitmap

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"math/rand/v2"
	"testing"
)

func mustNew(t *testing.T, rows [][]bool) *Bitmap {
	t.Helper()
	b, err := New(rows)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return b
}

func aRandomBitmap(r *rand.Rand) *Bitmap {
	width, height := 1+r.IntN(200), 1+r.IntN(200)
	rows := make([][]bool, height)
	for y := range height {
		row := make([]bool, width)
		for x := range width {
			row[x] = r.IntN(2) == 1
		}
		rows[y] = row
	}
	b, _ := New(rows)
	return b
}

func TestNew_RaggedRows(t *testing.T) {
	_, err := New([][]bool{{true, false}, {true}})
	if err == nil {
		t.Error("Expected error for ragged rows")
	}
}

func TestFromImage(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 3, 1))
	img.Set(0, 0, color.Black)
	img.Set(1, 0, color.White)
	img.Set(2, 0, color.NRGBA{0, 0, 0, 0}) // transparent

	b := FromImage(img)
	if b.Width() != 3 || b.Height() != 1 {
		t.Fatalf("Unexpected size: %s", b)
	}
	if !b.Ink(0, 0) {
		t.Error("Expected black pixel to be ink")
	}
	if b.Ink(1, 0) || b.Ink(2, 0) {
		t.Error("Expected white and transparent pixels to be paper")
	}
}

func TestFromImage_NonZeroOrigin(t *testing.T) {
	img := image.NewGray(image.Rect(10, 20, 12, 21))
	img.SetGray(10, 20, color.Gray{Y: 0})
	img.SetGray(11, 20, color.Gray{Y: 255})

	b := FromImage(img)
	if !b.Ink(0, 0) || b.Ink(1, 0) {
		t.Error("Expected bounds to be rebased to the origin")
	}
}

func TestPack_MSBFirst(t *testing.T) {
	b := mustNew(t, [][]bool{
		{true, false, false, false, false, false, false, true},
	})

	got := Pack(b, InkIsOne)
	if !bytes.Equal(got, []byte{0x81}) {
		t.Errorf("Expected 0x81, got % X", got)
	}

	got = Pack(b, InkIsZero)
	if !bytes.Equal(got, []byte{0x7E}) {
		t.Errorf("Expected 0x7E, got % X", got)
	}
}

func TestPack_PadsWithPaper(t *testing.T) {
	// 10 pixels wide: second byte holds 2 pixels + 6 padding
	row := []bool{true, true, true, true, true, true, true, true, true, true}
	b := mustNew(t, [][]bool{row, row})

	got := Pack(b, InkIsOne)
	want := []byte{0xFF, 0xC0, 0xFF, 0xC0}
	if !bytes.Equal(got, want) {
		t.Errorf("InkIsOne: expected % X, got % X", want, got)
	}

	got = Pack(b, InkIsZero)
	want = []byte{0x00, 0x3F, 0x00, 0x3F}
	if !bytes.Equal(got, want) {
		t.Errorf("InkIsZero: expected % X, got % X", want, got)
	}
}

func TestPack_Deterministic(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 2))
	for i := range 20 {
		b := aRandomBitmap(r)
		t.Run(fmt.Sprintf("test %v: %s", i, b), func(t *testing.T) {
			first := Pack(b, InkIsOne)
			second := Pack(b, InkIsOne)
			if !bytes.Equal(first, second) {
				t.Error("Pack returned different bytes for the same bitmap")
			}
			if len(first) != b.Stride()*b.Height() {
				t.Errorf("Expected %d bytes, got %d", b.Stride()*b.Height(), len(first))
			}
		})
	}
}

func TestPack_RoundTrip(t *testing.T) {
	r := rand.New(rand.NewPCG(3, 4))
	for i := range 20 {
		b := aRandomBitmap(r)
		data := Pack(b, InkIsOne)
		stride := b.Stride()
		for y := range b.Height() {
			for x := range b.Width() {
				bit := data[y*stride+x/8]>>(7-uint(x%8))&1 == 1
				if bit != b.Ink(x, y) {
					t.Fatalf("bitmap %d: bit at (%d, %d) = %v, want %v", i, x, y, bit, b.Ink(x, y))
				}
			}
		}
	}
}

func TestPackColumns(t *testing.T) {
	b := mustNew(t, [][]bool{
		{false, true, true},
		{true, false, true},
	})

	got := PackColumns(b, 1, 8, InkIsOne)
	// column 1..2 then padding past the edge
	want := []byte{0xC0, 0x40}
	if !bytes.Equal(got, want) {
		t.Errorf("Expected % X, got % X", want, got)
	}
}

func TestAlignToPixelPerfect(t *testing.T) {
	tests := []struct {
		in, want image.Rectangle
	}{
		{image.Rect(0, 0, 8, 8), image.Rect(0, 0, 8, 8)},
		{image.Rect(3, 5, 13, 12), image.Rect(2, 4, 18, 12)},
		{image.Rect(2, 2, 3, 3), image.Rect(2, 2, 10, 10)},
		{image.Rect(1, 0, 8, 16), image.Rect(0, 0, 8, 16)},
	}

	for _, tt := range tests {
		got := AlignToPixelPerfect(tt.in)
		if got != tt.want {
			t.Errorf("AlignToPixelPerfect(%v) = %v, want %v", tt.in, got, tt.want)
		}
		if got.Min.X%2 != 0 || got.Min.Y%2 != 0 || got.Dx()%8 != 0 || got.Dy()%8 != 0 {
			t.Errorf("AlignToPixelPerfect(%v) = %v is not aligned", tt.in, got)
		}
		if !tt.in.In(got) {
			t.Errorf("AlignToPixelPerfect(%v) = %v does not cover the input", tt.in, got)
		}
	}
}

func TestInkBounds(t *testing.T) {
	blank := mustNew(t, [][]bool{{false, false}, {false, false}})
	if _, ok := InkBounds(blank); ok {
		t.Error("Expected no bounds for a blank bitmap")
	}

	b := mustNew(t, [][]bool{
		{false, false, false, false},
		{false, true, false, false},
		{false, false, true, false},
	})
	r, ok := InkBounds(b)
	if !ok || r != image.Rect(1, 1, 3, 3) {
		t.Errorf("Unexpected bounds %v (ok=%v)", r, ok)
	}

	c := b.Crop(image.Rect(1, 1, 5, 3))
	if c.Width() != 4 || !c.Ink(0, 0) || !c.Ink(1, 1) || c.Ink(3, 1) {
		t.Errorf("Unexpected crop %s", c)
	}
}
