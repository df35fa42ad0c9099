// Command lbt drives the project's build, run, clean, and init workflows.
package main

func main() {
	Execute()
}
