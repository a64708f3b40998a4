package detection

import (
	"image"
	"image/color"
	"testing"
)

func TestValidateGridClassifications(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 300, 100))

	// Empty slot: uniform near-black.
	for y := 0; y < 100; y++ {
		for x := 0; x < 100; x++ {
			img.SetRGBA(x, y, color.RGBA{20, 20, 20, 255})
		}
	}
	// Valid slot: noisy mid-bright content.
	for y := 0; y < 100; y++ {
		for x := 100; x < 200; x++ {
			v := uint8(60)
			if (x+y)%2 == 0 {
				v = 160
			}
			img.SetRGBA(x, y, color.RGBA{v, v, v, 255})
		}
	}
	// Suspicious slot: washed out white.
	for y := 0; y < 100; y++ {
		for x := 200; x < 300; x++ {
			img.SetRGBA(x, y, color.RGBA{250, 250, 250, 255})
		}
	}

	cells := []Cell{
		{X: 10, Y: 10, Width: 40, Height: 40, SlotIndex: 0},
		{X: 110, Y: 10, Width: 40, Height: 40, SlotIndex: 1},
		{X: 210, Y: 10, Width: 40, Height: 40, SlotIndex: 2},
	}

	v := ValidateGrid(img, cells, DefaultTuning())

	if v.EmptyCount != 1 || v.ValidCount != 1 || v.SuspiciousCount != 1 {
		t.Fatalf("counts empty=%d valid=%d suspicious=%d, want 1/1/1",
			v.EmptyCount, v.ValidCount, v.SuspiciousCount)
	}
	if !v.Cells[0].IsEmpty {
		t.Error("cell 0 should be empty")
	}
	if v.Cells[1].IsEmpty || v.Cells[1].IsSuspicious {
		t.Error("cell 1 should be valid")
	}
	if !v.Cells[2].IsSuspicious {
		t.Error("cell 2 should be suspicious")
	}
	if want := 1.0 / 3.0; v.Confidence < want-1e-9 || v.Confidence > want+1e-9 {
		t.Errorf("confidence = %v, want %v", v.Confidence, want)
	}
}

func TestValidateGridNoCells(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 50, 50))
	v := ValidateGrid(img, nil, DefaultTuning())

	if v.EmptyCount != 0 || v.ValidCount != 0 || v.SuspiciousCount != 0 {
		t.Error("zero-cell validation should report zero counts")
	}
	if v.Confidence != 0 {
		t.Errorf("zero-cell confidence = %v, want 0", v.Confidence)
	}
}

func TestCellStatusLookup(t *testing.T) {
	v := &GridValidation{Cells: []CellValidation{{SlotIndex: 3, IsEmpty: true}}}
	if st := v.CellStatus(3); st == nil || !st.IsEmpty {
		t.Error("CellStatus(3) should find the empty cell")
	}
	if st := v.CellStatus(99); st != nil {
		t.Error("CellStatus(99) should be nil for unknown slot")
	}
}
