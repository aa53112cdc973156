package core

import (
	"bufio"
	"bytes"
)

// candidateDelimiters in tie-break priority order.
var candidateDelimiters = []rune{',', ';', '\t', '|'}

// dialectSampleLines is how many non-empty lines DetectDelimiter looks at.
const dialectSampleLines = 5

// DetectDelimiter picks the field separator by counting each candidate across
// the first few non-empty lines. The highest total wins, ties go to the
// earlier candidate, and a file with none of them is treated as comma
// separated.
func DetectDelimiter(data []byte) rune {
	counts := make([]int, len(candidateDelimiters))

	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), len(data)+1)

	sampled := 0
	for sampled < dialectSampleLines && sc.Scan() {
		line := sc.Bytes()
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		sampled++
		for i, d := range candidateDelimiters {
			counts[i] += bytes.Count(line, []byte(string(d)))
		}
	}

	best := 0
	for i := 1; i < len(counts); i++ {
		if counts[i] > counts[best] {
			best = i
		}
	}
	if counts[best] == 0 {
		return ','
	}
	return candidateDelimiters[best]
}
