// Package linker suggests which archived game accounts belong to which
// etwin users by name similarity. Suggestions are hints for a human,
// never written to the link archive automatically.
package linker

import (
	"github.com/antzucaro/matchr"
)

// Suggestion pairs an etwin display name with a game username.
// Correlation is 1 for an exact match, otherwise a Jaro-Winkler score.
type Suggestion struct {
	EtwinName   string  `json:"etwin_name"`
	RemoteName  string  `json:"remote_name"`
	Correlation float64 `json:"correlation"`
}

// SuggestLinks greedily pairs names: exact matches first, then best
// remaining similarity. Each name is used at most once.
func SuggestLinks(etwinNames, remoteNames []string) []Suggestion {
	swapped := false
	leftList := etwinNames
	rightList := remoteNames
	if len(rightList) < len(leftList) {
		leftList, rightList = rightList, leftList
		swapped = true
	}

	var result []Suggestion
	matchedLeft := make(map[string]struct{})
	matchedRight := make(map[string]struct{})

	emit := func(left, right string, correlation float64) {
		suggestion := Suggestion{
			EtwinName:   left,
			RemoteName:  right,
			Correlation: correlation,
		}
		if swapped {
			suggestion.EtwinName = right
			suggestion.RemoteName = left
		}
		result = append(result, suggestion)
		matchedLeft[left] = struct{}{}
		matchedRight[right] = struct{}{}
	}

	for _, left := range leftList {
		for _, right := range rightList {
			if _, ok := matchedRight[right]; ok {
				continue
			}
			if left == right {
				emit(left, right, 1)
				break
			}
		}
	}

	for _, left := range leftList {
		if _, ok := matchedLeft[left]; ok {
			continue
		}

		var mostSimilarity float64
		var mostSimilarRight string
		for _, right := range rightList {
			if _, ok := matchedRight[right]; ok {
				continue
			}
			similarity := matchr.JaroWinkler(left, right, false)
			if similarity > mostSimilarity {
				mostSimilarity = similarity
				mostSimilarRight = right
			}
		}

		if mostSimilarity > 0 {
			emit(left, mostSimilarRight, mostSimilarity)
		}
	}

	return result
}
