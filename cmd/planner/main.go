// Command planner serves the paycheck planner API and runs planning passes
// from the terminal.
package main

func main() {
	Execute()
}
