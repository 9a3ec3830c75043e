// Package stylist answers free-text "which frames suit me" questions
// by keyword-matching against a fixed frame-shape taxonomy and pulling
// matching catalog rows. There is no model call; the taxonomy is the
// whole brain.
package stylist

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"github.com/kinhtot/marketplace/internal/models"
	"github.com/kinhtot/marketplace/internal/store"
)

// Keywords are matched case-insensitively as substrings, Vietnamese
// with and without diacritics plus the English shape names.
var frameShapeKeywords = map[string][]string{
	models.FrameShapeRound:     {"tròn", "tron", "round"},
	models.FrameShapeOval:      {"oval", "bầu dục", "bau duc"},
	models.FrameShapeSquare:    {"vuông", "vuong", "square", "góc vuông", "goc vuong"},
	models.FrameShapeRectangle: {"chữ nhật", "chu nhat", "rectangle", "hình chữ nhật", "hinh chu nhat"},
	models.FrameShapeCatEye:    {"mèo", "meo", "cat eye", "cateye"},
	models.FrameShapeAviator:   {"aviator", "phi công", "phi cong", "pilot"},
}

var shapeDisplayNames = map[string]string{
	models.FrameShapeRound:     "tròn",
	models.FrameShapeOval:      "oval",
	models.FrameShapeSquare:    "vuông",
	models.FrameShapeRectangle: "chữ nhật",
	models.FrameShapeCatEye:    "mắt mèo",
	models.FrameShapeAviator:   "aviator",
}

// MatchShapes returns the frame shapes whose keywords appear in the
// question. No match falls back to every shape so the caller always
// has products to suggest.
func MatchShapes(question string) []string {
	q := strings.ToLower(question)

	var shapes []string
	for shape, keywords := range frameShapeKeywords {
		for _, kw := range keywords {
			if strings.Contains(q, kw) {
				shapes = append(shapes, shape)
				break
			}
		}
	}
	sort.Strings(shapes)

	if len(shapes) == 0 {
		shapes = []string{
			models.FrameShapeRound,
			models.FrameShapeOval,
			models.FrameShapeSquare,
			models.FrameShapeRectangle,
			models.FrameShapeCatEye,
			models.FrameShapeAviator,
		}
	}
	return shapes
}

// Answer renders the canned reply naming the suggested shapes.
func Answer(shapes []string) string {
	seen := make(map[string]bool)
	var names []string
	for _, s := range shapes {
		if seen[s] {
			continue
		}
		seen[s] = true
		if name, ok := shapeDisplayNames[s]; ok {
			names = append(names, name)
		} else {
			names = append(names, s)
		}
	}
	return fmt.Sprintf("Dựa trên câu hỏi của bạn, chúng tôi gợi ý các kiểu gọng: %s. Dưới đây là một số sản phẩm phù hợp từ Kính Tốt.",
		strings.Join(names, ", "))
}

const suggestionLimit = 6

type Result struct {
	Answer            string           `json:"answer"`
	SuggestedProducts []models.Product `json:"suggestedProducts"`
}

// Chat is the full recommendation flow: match shapes, fetch the newest
// active products in those shapes, and, for authenticated callers,
// persist the exchange into their chat history. Persistence failures
// are reported but the suggestion result is still usable.
func Chat(ctx context.Context, db *sql.DB, question string, userID *int64) (*Result, error) {
	shapes := MatchShapes(question)

	products, err := suggestProducts(ctx, db, shapes)
	if err != nil {
		return nil, err
	}

	result := &Result{
		Answer:            Answer(shapes),
		SuggestedProducts: products,
	}

	if userID != nil {
		if err := store.RecordChatExchange(ctx, db, *userID, question, result.Answer, products); err != nil {
			return result, err
		}
	}
	return result, nil
}

func suggestProducts(ctx context.Context, db *sql.DB, shapes []string) ([]models.Product, error) {
	filter := store.ProductFilter{Limit: suggestionLimit}
	// The full taxonomy is equivalent to no shape filter.
	if len(shapes) < len(frameShapeKeywords) {
		filter.FrameShapes = shapes
	}

	page, err := store.ListProducts(ctx, db, filter)
	if err != nil {
		return nil, err
	}
	products, _ := page.Items.([]models.Product)
	return products, nil
}
