// Package main provides a manual drill utility for the circuit breaker.
package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"Proofline/pkg/breaker"
)

// Manual drill for the circuit breaker state machine. Runs the full
// trip / reject / recover cycle with a shortened recovery timeout so the
// whole exercise finishes in a few seconds.

func main() {
	fmt.Println("==========================================")
	fmt.Println("Proofline Circuit Breaker Drill")
	fmt.Println("==========================================")
	fmt.Println()

	failed := false
	check := func(name string, ok bool) {
		if ok {
			fmt.Printf("✓ %s\n", name)
		} else {
			fmt.Printf("✗ %s\n", name)
			failed = true
		}
	}

	const recoveryTimeout = 2 * time.Second

	transitions := []string{}
	cb := breaker.New(breaker.Config{
		FailureThreshold: 5,
		RecoveryTimeout:  recoveryTimeout,
		OnStateChange: func(from, to breaker.State) {
			transitions = append(transitions, fmt.Sprintf("%s->%s", from, to))
		},
	})

	boom := errors.New("simulated database failure")

	fmt.Println("Step 1: Trip the breaker with 5 consecutive failures")
	fmt.Println("------------------------------------------")
	invocations := 0
	for i := 0; i < 5; i++ {
		_ = cb.Execute(func() error {
			invocations++
			return boom
		})
	}
	check("breaker is open", cb.State() == breaker.StateOpen)
	check("operation ran exactly 5 times", invocations == 5)
	fmt.Println()

	fmt.Println("Step 2: Calls are rejected while open")
	fmt.Println("------------------------------------------")
	err := cb.Execute(func() error {
		invocations++
		return nil
	})
	check("rejected with ErrCircuitOpen", errors.Is(err, breaker.ErrCircuitOpen))
	check("operation was not invoked", invocations == 5)
	fmt.Println()

	fmt.Println("Step 3: Failed trial re-opens the breaker")
	fmt.Println("------------------------------------------")
	fmt.Printf("waiting %s for the recovery timeout...\n", recoveryTimeout)
	time.Sleep(recoveryTimeout + 100*time.Millisecond)
	err = cb.Execute(func() error { return boom })
	check("trial ran and failed", errors.Is(err, boom))
	check("breaker is open again", cb.State() == breaker.StateOpen)
	fmt.Println()

	fmt.Println("Step 4: Successful trial closes the breaker")
	fmt.Println("------------------------------------------")
	fmt.Printf("waiting %s for the recovery timeout...\n", recoveryTimeout)
	time.Sleep(recoveryTimeout + 100*time.Millisecond)
	err = cb.Execute(func() error { return nil })
	check("trial succeeded", err == nil)
	check("breaker is closed", cb.State() == breaker.StateClosed)
	check("failure count reset", cb.Stats().ConsecutiveFailures == 0)
	fmt.Println()

	fmt.Println("Step 5: Operator reset from open")
	fmt.Println("------------------------------------------")
	for i := 0; i < 5; i++ {
		_ = cb.Execute(func() error { return boom })
	}
	check("breaker tripped again", cb.State() == breaker.StateOpen)
	cb.Reset()
	check("reset closed the breaker", cb.State() == breaker.StateClosed)
	err = cb.Execute(func() error { return nil })
	check("calls flow immediately after reset", err == nil)
	fmt.Println()

	fmt.Println("Observed transitions:")
	for _, tr := range transitions {
		fmt.Printf("  %s\n", tr)
	}
	fmt.Println()

	if failed {
		fmt.Println("RESULT: FAILED")
		os.Exit(1)
	}
	fmt.Println("RESULT: OK")
}
