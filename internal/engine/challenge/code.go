package challenge

import (
	"github.com/wagerlab/arenacore/internal/domain"
	"github.com/wagerlab/arenacore/internal/engine/prng"
)

// CodeGenerator picks one problem from a fixed catalogue (spec §4.2
// "Code problem"). The catalogue is literal Go data rather than a template
// or fixture file — it is small and fixed, and this module does not wire a
// templating library anywhere else.
type CodeGenerator struct{}

type codeProblem struct {
	statement    string
	functionName string
	language     string
	cases        []TestCase
}

var codeCatalogue = []codeProblem{
	{
		statement:    "Given an array of integers, return the sum of all even numbers.",
		functionName: "sumEvens",
		language:     "javascript",
		cases: []TestCase{
			{Input: []interface{}{[]interface{}{1.0, 2.0, 3.0, 4.0}}, Expected: 6.0},
			{Input: []interface{}{[]interface{}{}}, Expected: 0.0},
			{Input: []interface{}{[]interface{}{2.0, 2.0, 2.0}}, Expected: 6.0},
		},
	},
	{
		statement:    "Given a string, return true if it is a palindrome ignoring case.",
		functionName: "isPalindrome",
		language:     "javascript",
		cases: []TestCase{
			{Input: []interface{}{"Racecar"}, Expected: true},
			{Input: []interface{}{"hello"}, Expected: false},
			{Input: []interface{}{""}, Expected: true},
		},
	},
	{
		statement:    "Given an integer n, return the nth Fibonacci number (0-indexed, fib(0)=0, fib(1)=1).",
		functionName: "fib",
		language:     "javascript",
		cases: []TestCase{
			{Input: []interface{}{0.0}, Expected: 0.0},
			{Input: []interface{}{1.0}, Expected: 1.0},
			{Input: []interface{}{10.0}, Expected: 55.0},
		},
	},
	{
		statement:    "Given an array of integers, return the array sorted in ascending order.",
		functionName: "sortAscending",
		language:     "javascript",
		cases: []TestCase{
			{Input: []interface{}{[]interface{}{3.0, 1.0, 2.0}}, Expected: []interface{}{1.0, 2.0, 3.0}},
			{Input: []interface{}{[]interface{}{}}, Expected: []interface{}{}},
		},
	},
}

func (CodeGenerator) Generate(seed *int64) (Challenge, GroundTruth) {
	s := prng.NewSource(resolveSeed(seed))
	problem := codeCatalogue[s.IntRange(0, len(codeCatalogue)-1)]

	return Challenge{
		GameMode: domain.GameModeCodeProblem,
		Code: &CodeChallenge{
			Statement:    problem.statement,
			FunctionName: problem.functionName,
			Language:     problem.language,
			TestCases:    problem.cases,
		},
	}, GroundTruth{GameMode: domain.GameModeCodeProblem}
}
