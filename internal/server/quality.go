package server

import "regexp"

var (
	lawRefRe     = regexp.MustCompile(`「[^」]+」`)
	articleRefRe = regexp.MustCompile(`제\d+조`)
)

// qualityScore grades an answer by how well it cites its legal grounds:
// quoted law titles weigh more than bare article references, on top of a
// base score for producing any answer at all.
func qualityScore(answer string) int {
	if answer == "" {
		return 0
	}
	lawRefs := len(lawRefRe.FindAllString(answer, -1))
	articleRefs := len(articleRefRe.FindAllString(answer, -1))
	score := lawRefs*10 + articleRefs*5 + 35
	if score > 100 {
		score = 100
	}
	return score
}
