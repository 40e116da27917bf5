package history

import (
	"math"
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/xrash/smetrics"
)

const (
	containsScore       = 0.9
	shortQueryLen       = 10
	shortQueryThreshold = 0.8
	longQueryThreshold  = 0.6
)

// Score điểm tương đồng giữa khóa tra cứu và khóa đã lưu trong [0, 1]; 0 là không liên quan
func Score(query, candidate string) float64 {
	if query == "" || candidate == "" {
		return 0
	}
	if query == candidate {
		return 1
	}

	// Jaro-Winkler
	score := smetrics.JaroWinkler(query, candidate, 0.7, 4)

	// Levenshtein chuẩn hóa theo độ dài
	levDist := levenshtein.ComputeDistance(query, candidate)
	maxLen := math.Max(float64(len(query)), float64(len(candidate)))
	if levScore := 1.0 - float64(levDist)/maxLen; levScore > score {
		score = levScore
	}

	if strings.Contains(candidate, query) && score < containsScore {
		score = containsScore
	}

	// Chuỗi ngắn cần độ chính xác cao hơn
	if len(query) <= shortQueryLen {
		if score > shortQueryThreshold {
			return score
		}
		return 0
	}
	if score > longQueryThreshold {
		return score
	}
	return 0
}
