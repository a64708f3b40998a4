package detection

import (
	"image"
	"testing"
)

func TestAutoDetectSuccess(t *testing.T) {
	borderXs := []int{400, 448, 496, 544, 592, 640}
	img := synthHotbar(1280, 720, 560, 58, borderXs, 3, epicPurple)

	var percents []int
	res := AutoDetect(img, AutoDetectOptions{
		Progress: func(p int, _ string) { percents = append(percents, p) },
	})

	if !res.Success {
		t.Fatalf("AutoDetect failed: %s (reasons %v)", res.Error, res.Reasons)
	}
	if res.Calibration == nil {
		t.Fatal("successful result has nil calibration")
	}
	if res.Band == nil || res.Edges == nil || res.Metrics == nil || res.Grid == nil || res.Validation == nil {
		t.Fatal("successful result missing stage outputs")
	}
	if len(res.Grid.Cells) == 0 {
		t.Fatal("no cells in successful result")
	}
	if res.Confidence <= 0 || res.Confidence > 1 {
		t.Errorf("overall confidence = %v, want (0,1]", res.Confidence)
	}
	if res.Elapsed <= 0 {
		t.Error("elapsed time not recorded")
	}

	// Progress must increase monotonically and end at 100.
	if len(percents) == 0 {
		t.Fatal("no progress callbacks")
	}
	for i := 1; i < len(percents); i++ {
		if percents[i] < percents[i-1] {
			t.Fatalf("progress went backwards: %v", percents)
		}
	}
	if percents[len(percents)-1] != 100 {
		t.Errorf("final progress = %d, want 100", percents[len(percents)-1])
	}
}

func TestAutoDetectFailureIsStructured(t *testing.T) {
	// Too small for a band strip: the failure must come back as a result,
	// not an error or panic.
	img := image.NewRGBA(image.Rect(0, 0, 320, 10))

	var last int
	res := AutoDetect(img, AutoDetectOptions{
		Progress: func(p int, _ string) { last = p },
	})

	if res.Success {
		t.Fatal("expected structured failure")
	}
	if res.Error == "" {
		t.Error("failure result missing error message")
	}
	if len(res.Reasons) == 0 || res.Reasons[0] != ReasonBandNotFound {
		t.Errorf("reasons = %v, want [%s]", res.Reasons, ReasonBandNotFound)
	}
	if res.Calibration != nil {
		t.Error("failure result must have nil calibration")
	}
	if last != 100 {
		t.Errorf("progress after failure = %d, want 100", last)
	}
}

func TestAutoDetectWithoutProgressCallback(t *testing.T) {
	img := synthHotbar(1280, 720, 560, 58, []int{400, 448, 496}, 3, epicPurple)
	// Must not panic with a nil callback.
	res := AutoDetect(img, AutoDetectOptions{})
	if res == nil {
		t.Fatal("nil result")
	}
}

func TestAutoDetectBlankFrameLowConfidence(t *testing.T) {
	// A frame with no borders falls back to default metrics; whatever the
	// outcome, it must be structured and low-confidence, never a panic.
	img := synthHotbar(1280, 720, 560, 58, nil, 0, epicPurple)
	res := AutoDetect(img, AutoDetectOptions{})

	if res.Success {
		if res.Confidence > 0.6 {
			t.Errorf("blank frame confidence = %v, want low", res.Confidence)
		}
		if !res.Metrics.IsDefault {
			t.Error("blank frame should fall back to default metrics")
		}
	} else if len(res.Reasons) == 0 {
		t.Error("failure without reasons")
	}
}
