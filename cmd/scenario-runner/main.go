// Package main - scenario-runner
// Executable to run the simulation acceptance scenarios.
package main

import (
	"fmt"
	"os"

	"github.com/dmaslov/temporal-maze/test"
)

func main() {
	fmt.Println("TEMPORAL MAZE - ACCEPTANCE SCENARIO SUITE")
	fmt.Println("=========================================")

	suite := test.NewSuite()
	suite.Run()

	passed := 0
	failed := 0

	for _, r := range suite.Results() {
		status := "PASS"
		if !r.Passed {
			status = "FAIL"
			failed++
		} else {
			passed++
		}
		fmt.Printf("  [%s] %s", status, r.ScenarioName)
		if r.Reason != "" {
			fmt.Printf(": %s", r.Reason)
		}
		fmt.Println()
	}

	fmt.Println("=========================================")
	fmt.Printf("  Passed: %d\n", passed)
	fmt.Printf("  Failed: %d\n", failed)

	if failed > 0 {
		os.Exit(1)
	}
}
