// Copyright (c) 2026 Mangetsu. All rights reserved.
// Author: dev@mangetsu.app

package slug

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFrom(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "plain ascii", input: "Tower of God", expected: "tower-of-god"},
		{name: "accents stripped", input: "Café Résumé", expected: "cafe-resume"},
		{name: "punctuation", input: "One-Punch Man!!", expected: "one-punch-man"},
		{name: "consecutive separators", input: "a  --  b", expected: "a-b"},
		{name: "leading and trailing junk", input: "  ~Solo Leveling~  ", expected: "solo-leveling"},
		{name: "digits kept", input: "Chapter 101", expected: "chapter-101"},
		{name: "empty", input: "", expected: ""},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			assert.Equal(t, testCase.expected, From(testCase.input))
		})
	}
}
