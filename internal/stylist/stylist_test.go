package stylist

import (
	"reflect"
	"strings"
	"testing"

	"github.com/kinhtot/marketplace/internal/models"
)

func TestMatchShapes(t *testing.T) {
	cases := []struct {
		name     string
		question string
		want     []string
	}{
		{
			name:     "vietnamese with diacritics",
			question: "Mặt tròn nên đeo gọng gì?",
			want:     []string{models.FrameShapeRound},
		},
		{
			name:     "vietnamese without diacritics",
			question: "mat vuong hop voi kinh nao",
			want:     []string{models.FrameShapeSquare},
		},
		{
			name:     "english keyword",
			question: "I want a cat eye frame",
			want:     []string{models.FrameShapeCatEye},
		},
		{
			name:     "multiple shapes sorted",
			question: "phan van giua gong tron va aviator",
			want:     []string{models.FrameShapeAviator, models.FrameShapeRound},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := MatchShapes(tc.question)
			if !reflect.DeepEqual(got, tc.want) {
				t.Errorf("MatchShapes(%q) = %v, want %v", tc.question, got, tc.want)
			}
		})
	}
}

func TestMatchShapesFallback(t *testing.T) {
	got := MatchShapes("xin chào, tư vấn giúp mình")
	if len(got) != len(frameShapeKeywords) {
		t.Errorf("Expected fallback to all %d shapes, got %v", len(frameShapeKeywords), got)
	}
}

func TestAnswer(t *testing.T) {
	answer := Answer([]string{models.FrameShapeRound, models.FrameShapeRound, models.FrameShapeCatEye})

	if !strings.Contains(answer, "tròn") {
		t.Errorf("Answer should name the round shape: %s", answer)
	}
	if strings.Count(answer, "tròn") != 1 {
		t.Errorf("Duplicate shapes should be named once: %s", answer)
	}
	if !strings.Contains(answer, "mắt mèo") {
		t.Errorf("Answer should name the cat eye shape: %s", answer)
	}
}
